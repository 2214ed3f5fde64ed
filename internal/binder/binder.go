// Package binder turns a resolved node tree into Go values.
//
// A node reached more than once, through @ref links or repeated positions,
// binds to the same instance for a given target type. Instances of pointers,
// maps and slices are registered before their children are bound, so cycles
// close on the instance under construction.
package binder

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/models"
	"github.com/mcncl/jsongraph/internal/options"
	"github.com/mcncl/jsongraph/internal/registry"
)

var (
	anyType             = reflect.TypeOf((*interface{})(nil)).Elem()
	mapStringAnyType    = reflect.TypeOf(map[string]interface{}(nil))
	mapAnyAnyType       = reflect.TypeOf(map[interface{}]interface{}(nil))
	sliceAnyType        = reflect.TypeOf([]interface{}(nil))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

type memoKey struct {
	node *models.Node
	typ  reflect.Type
}

// Binder holds the state of one read. It implements registry.ReadContext so
// custom readers can bind nested nodes through it.
type Binder struct {
	opts   *options.ReadOptions
	reg    *registry.Registry
	logger *log.Logger

	memo   map[memoKey]reflect.Value
	active map[memoKey]bool
	raws   map[*models.Node]interface{}
	known  map[string]reflect.Type
	field  string
}

// NewBinder creates a binder for one read. A nil opts uses the defaults.
func NewBinder(opts *options.ReadOptions) *Binder {
	if opts == nil {
		opts = options.DefaultReadOptions()
	}
	return &Binder{
		opts:   opts,
		reg:    opts.Registry(),
		logger: opts.Logger(),
		memo:   make(map[memoKey]reflect.Value),
		active: make(map[memoKey]bool),
		raws:   make(map[*models.Node]interface{}),
		known:  make(map[string]reflect.Type),
	}
}

// Bind binds root into a value of type target using a fresh binder.
func Bind(root *models.Node, target reflect.Type, opts *options.ReadOptions) (reflect.Value, error) {
	return NewBinder(opts).Bind(root, target)
}

// DateFormat returns the configured time layout.
func (b *Binder) DateFormat() string {
	return b.opts.DateFormat()
}

// Bind binds n into a value of type t. A nil t means interface{}.
func (b *Binder) Bind(n *models.Node, t reflect.Type) (reflect.Value, error) {
	if t == nil {
		t = anyType
	}
	if n == nil {
		return reflect.Zero(t), nil
	}
	if b.opts.ReturnAsMaps() {
		return b.rawInto(n, t)
	}
	v, err := b.bind(n, t)
	if err != nil {
		return reflect.Value{}, err
	}
	b.logger.Debug("bound node", "type", registry.TypeName(t), "instances", len(b.memo))
	return v, nil
}

func (b *Binder) bind(n *models.Node, t reflect.Type) (reflect.Value, error) {
	n, err := follow(n)
	if err != nil {
		return reflect.Value{}, err
	}
	b.learn(t)

	if n.Type == "" {
		return b.bindTyped(n, t)
	}
	resolved, err := b.resolve(n.Type)
	if err != nil {
		return reflect.Value{}, err
	}
	if resolved == t || (t.Kind() == reflect.Ptr && t.Elem() == resolved) {
		return b.bindTyped(n, t)
	}
	if !compatible(resolved, t) {
		return reflect.Value{}, errors.NewResolutionError(
			fmt.Sprintf("@type %q is not assignable to %s", n.Type, registry.TypeName(t)), nil)
	}
	b.learn(resolved)
	v, err := b.bindTyped(n, resolved)
	if err != nil {
		return reflect.Value{}, err
	}
	return convert(v, t), nil
}

// resolve looks a @type name up among the types reached from the target
// first, then in the configured type table.
func (b *Binder) resolve(name string) (reflect.Type, error) {
	if t, ok := b.known[name]; ok {
		return t, nil
	}
	return b.opts.ResolveType(name)
}

// learn records the wire names of t and of the types statically reachable
// from it, so documents written with type info read back into their own
// declared types without extra registration.
func (b *Binder) learn(t reflect.Type) {
	name := registry.TypeName(t)
	if _, seen := b.known[name]; seen || t.Kind() == reflect.Interface {
		return
	}
	b.known[name] = t
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array:
		b.learn(t.Elem())
	case reflect.Map:
		b.learn(t.Key())
		b.learn(t.Elem())
	case reflect.Struct:
		for _, f := range b.opts.Fields().Describe(t).Fields {
			b.learn(f.Type)
		}
	}
}

func (b *Binder) bindTyped(n *models.Node, t reflect.Type) (reflect.Value, error) {
	if isNull(n) {
		return reflect.Zero(t), nil
	}
	key := memoKey{n, t}
	if v, ok := b.memo[key]; ok {
		return v, nil
	}

	if rd := b.reg.ReaderFor(t); rd != nil {
		v, err := b.custom(rd, n, t)
		if err != nil {
			return reflect.Value{}, err
		}
		b.remember(key, v)
		return v, nil
	}

	payload := n
	if isWrapped(n) && t.Kind() != reflect.Struct && t.Kind() != reflect.Map {
		payload = n.Fields[models.ValueKey]
		if isNull(payload) {
			return reflect.Zero(t), nil
		}
	}

	if e, ok := b.reg.Enum(t); ok {
		return b.enum(e, payload, t)
	}
	if v, ok, err := b.text(payload, t); ok {
		return v, err
	}

	switch t.Kind() {
	case reflect.Interface:
		return b.untyped(payload, t)
	case reflect.Ptr:
		p := reflect.New(t.Elem())
		b.memo[key] = p
		if t.Elem().Kind() == reflect.Struct && b.reg.ReaderFor(t.Elem()) == nil {
			if err := b.structInto(p.Elem(), payload); err != nil {
				return reflect.Value{}, err
			}
			return p, nil
		}
		elem, err := b.bindTyped(payload, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p.Elem().Set(elem)
		return p, nil
	case reflect.Struct:
		if b.active[key] {
			return reflect.Value{}, errors.NewUnsupportedError(
				fmt.Sprintf("cycle through struct value %s; use a pointer", registry.TypeName(t)), nil)
		}
		b.active[key] = true
		defer delete(b.active, key)
		v := reflect.New(t).Elem()
		if err := b.structInto(v, payload); err != nil {
			return reflect.Value{}, err
		}
		return v, nil
	case reflect.Slice:
		return b.slice(key, payload, t)
	case reflect.Array:
		return b.array(payload, t)
	case reflect.Map:
		return b.mapValue(key, payload, t)
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return reflect.Value{}, errors.NewUnsupportedError(fmt.Sprintf("cannot bind into %s", t), nil)
	}
	return b.scalar(payload, t)
}

func (b *Binder) remember(key memoKey, v reflect.Value) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice:
		b.memo[key] = v
	}
}

func (b *Binder) custom(rd registry.Reader, n *models.Node, t reflect.Type) (reflect.Value, error) {
	payload := n
	if isWrapped(n) {
		payload = n.Fields[models.ValueKey]
	}
	v, err := rd.ReadJSON(payload, t, b)
	if err != nil {
		if errors.KindOf(err) != errors.ErrorTypeUnknown {
			return reflect.Value{}, b.named(err)
		}
		return reflect.Value{}, errors.NewCustomError(fmt.Sprintf("custom reader for %s", registry.TypeName(t)), err)
	}
	if !v.IsValid() {
		return reflect.Zero(t), nil
	}
	if v.Type() != t {
		if !compatible(v.Type(), t) {
			return reflect.Value{}, errors.NewCustomError(
				fmt.Sprintf("custom reader for %s returned %s", registry.TypeName(t), v.Type()), nil)
		}
		v = convert(v, t)
	}
	return v, nil
}

func (b *Binder) enum(e *registry.Enum, n *models.Node, t reflect.Type) (reflect.Value, error) {
	switch {
	case n.IsObject():
		if name := n.Get(models.NameKey); name != nil {
			return b.enumByName(e, name, t)
		}
		if ord := n.Get(models.OrdinalKey); ord != nil {
			i, err := strconv.Atoi(fmt.Sprint(ord.Value))
			if err == nil {
				if v, ok := e.ValueAt(i); ok {
					return v, nil
				}
			}
			return reflect.Value{}, b.coercion(fmt.Sprintf("ordinal %v", ord.Value), t, err)
		}
		return reflect.Value{}, b.coercion("object", t, nil)
	case n.IsScalar():
		if _, isString := n.Value.(string); isString {
			v, err := b.enumByName(e, n, t)
			if err == nil {
				return v, nil
			}
			if sv, serr := b.scalar(n, t); serr == nil {
				return sv, nil
			}
			return reflect.Value{}, err
		}
		// Values outside the constant set are written as their underlying value.
		return b.scalar(n, t)
	}
	return reflect.Value{}, b.coercion(n.Kind().String(), t, nil)
}

func (b *Binder) enumByName(e *registry.Enum, n *models.Node, t reflect.Type) (reflect.Value, error) {
	name, ok := n.Value.(string)
	if !ok {
		return reflect.Value{}, b.coercion(describe(n), t, nil)
	}
	v, ok := e.Value(name)
	if !ok {
		return reflect.Value{}, b.coercion(fmt.Sprintf("constant %q", name), t, nil)
	}
	return v, nil
}

// text binds string scalars into logical primitives implementing
// encoding.TextUnmarshaler. ok is false when t does not qualify.
func (b *Binder) text(n *models.Node, t reflect.Type) (reflect.Value, bool, error) {
	if isBasicKind(t.Kind()) || !b.reg.IsLogicalPrimitive(t) {
		return reflect.Value{}, false, nil
	}
	s, isString := n.Value.(string)
	if !isString || !n.IsScalar() {
		return reflect.Value{}, false, nil
	}
	base := t
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	if !reflect.PointerTo(base).Implements(textUnmarshalerType) {
		return reflect.Value{}, false, nil
	}
	p := reflect.New(base)
	if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return reflect.Value{}, true, b.coercion(fmt.Sprintf("string %q", s), t, err)
	}
	if t.Kind() == reflect.Ptr {
		return p, true, nil
	}
	return p.Elem(), true, nil
}

func (b *Binder) structInto(v reflect.Value, n *models.Node) error {
	t := v.Type()
	if !n.IsObject() {
		return b.coercion(n.Kind().String(), t, nil)
	}
	desc := b.opts.Fields().Describe(t)
	outer := b.field
	defer func() { b.field = outer }()

	for _, key := range n.Keys {
		f, ok := desc.Lookup(key)
		if !ok {
			continue
		}
		dst, ok := f.Settable(v)
		if !ok {
			continue
		}
		b.field = t.Name() + "." + f.GoName
		fv, err := b.bind(n.Fields[key], f.Type)
		if err != nil {
			return err
		}
		dst.Set(fv)
	}
	return nil
}

func (b *Binder) slice(key memoKey, n *models.Node, t reflect.Type) (reflect.Value, error) {
	if t.Elem().Kind() == reflect.Uint8 && n.IsScalar() {
		return b.bytes(n, t)
	}
	if !n.IsArray() {
		return reflect.Value{}, b.coercion(n.Kind().String(), t, nil)
	}
	s := reflect.MakeSlice(t, len(n.Items), len(n.Items))
	b.memo[key] = s
	for i, item := range n.Items {
		ev, err := b.bind(item, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		s.Index(i).Set(ev)
	}
	return s, nil
}

func (b *Binder) array(n *models.Node, t reflect.Type) (reflect.Value, error) {
	if !n.IsArray() {
		return reflect.Value{}, b.coercion(n.Kind().String(), t, nil)
	}
	if len(n.Items) > t.Len() {
		return reflect.Value{}, b.coercion(fmt.Sprintf("array of %d elements", len(n.Items)), t, nil)
	}
	a := reflect.New(t).Elem()
	for i, item := range n.Items {
		ev, err := b.bind(item, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		a.Index(i).Set(ev)
	}
	return a, nil
}

func (b *Binder) bytes(n *models.Node, t reflect.Type) (reflect.Value, error) {
	s, ok := n.Value.(string)
	if !ok {
		return reflect.Value{}, b.coercion(describe(n), t, nil)
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return reflect.Value{}, b.coercion(fmt.Sprintf("string %q", s), t, err)
	}
	return reflect.ValueOf(raw).Convert(t), nil
}

func (b *Binder) mapValue(key memoKey, n *models.Node, t reflect.Type) (reflect.Value, error) {
	m := reflect.MakeMapWithSize(t, len(n.Items)+len(n.Keys))
	switch {
	case n.IsMap():
		if len(n.MapKeys) != len(n.Items) {
			return reflect.Value{}, errors.NewMalformedError(
				fmt.Sprintf("@keys has %d entries but @items has %d", len(n.MapKeys), len(n.Items)), nil)
		}
		b.memo[key] = m
		for i := range n.MapKeys {
			k, err := b.bind(n.MapKeys[i], t.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			if !hashable(k) {
				return reflect.Value{}, b.coercion("unhashable key", t.Key(), nil)
			}
			v, err := b.bind(n.Items[i], t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			m.SetMapIndex(k, v)
		}
	case n.IsObject():
		b.memo[key] = m
		for _, name := range n.Keys {
			k, err := b.bind(models.NewScalar(name), t.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			v, err := b.bind(n.Fields[name], t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			m.SetMapIndex(k, v)
		}
	case n.IsArray() && len(n.Items) == 0:
		b.memo[key] = m
	default:
		return reflect.Value{}, b.coercion(n.Kind().String(), t, nil)
	}
	return m, nil
}

// untyped binds a node with no usable static type into plain containers
// and scalars, then checks the result against the interface t.
func (b *Binder) untyped(n *models.Node, t reflect.Type) (reflect.Value, error) {
	var (
		v   reflect.Value
		err error
	)
	switch n.Kind() {
	case models.ArrayNode:
		v, err = b.bindTyped(n, sliceAnyType)
	case models.MapNode:
		v, err = b.bindTyped(n, mapAnyAnyType)
	case models.ObjectNode:
		v, err = b.bindTyped(n, mapStringAnyType)
	default:
		var x interface{}
		x, err = untypedScalar(n)
		if x == nil {
			return reflect.Zero(t), err
		}
		v = reflect.ValueOf(x)
	}
	if err != nil {
		return reflect.Value{}, err
	}
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, errors.NewResolutionError(
			fmt.Sprintf("%s without @type cannot be bound into %s", n.Kind(), t), nil)
	}
	return convert(v, t), nil
}

// rawInto binds n as plain containers regardless of @type, for the
// raw-maps read mode. Shared nodes become shared maps and slices.
func (b *Binder) rawInto(n *models.Node, t reflect.Type) (reflect.Value, error) {
	x, err := b.raw(n)
	if err != nil {
		return reflect.Value{}, err
	}
	if x == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(x)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, errors.NewResolutionError(
			fmt.Sprintf("raw maps mode produced %s, which is not assignable to %s", v.Type(), t), nil)
	}
	return convert(v, t), nil
}

func (b *Binder) raw(n *models.Node) (interface{}, error) {
	n, err := follow(n)
	if err != nil {
		return nil, err
	}
	if x, ok := b.raws[n]; ok {
		return x, nil
	}

	switch n.Kind() {
	case models.ArrayNode:
		s := make([]interface{}, len(n.Items))
		b.raws[n] = s
		for i, item := range n.Items {
			if s[i], err = b.raw(item); err != nil {
				return nil, err
			}
		}
		return s, nil
	case models.MapNode:
		if len(n.MapKeys) != len(n.Items) {
			return nil, errors.NewMalformedError(
				fmt.Sprintf("@keys has %d entries but @items has %d", len(n.MapKeys), len(n.Items)), nil)
		}
		m := make(map[interface{}]interface{}, len(n.Items))
		b.raws[n] = m
		for i := range n.MapKeys {
			k, err := b.raw(n.MapKeys[i])
			if err != nil {
				return nil, err
			}
			if k != nil && !reflect.TypeOf(k).Comparable() {
				return nil, errors.NewCoercionError("", "unhashable key", "interface{}", nil)
			}
			if m[k], err = b.raw(n.Items[i]); err != nil {
				return nil, err
			}
		}
		return m, nil
	case models.ObjectNode:
		if isWrapped(n) {
			return b.raw(n.Fields[models.ValueKey])
		}
		m := make(map[string]interface{}, len(n.Keys))
		b.raws[n] = m
		for _, key := range n.Keys {
			if m[key], err = b.raw(n.Fields[key]); err != nil {
				return nil, err
			}
		}
		return m, nil
	}
	return untypedScalar(n)
}

func untypedScalar(n *models.Node) (interface{}, error) {
	switch v := n.Value.(type) {
	case nil, string, bool:
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, errors.NewCoercionError("", "number "+v.String(), "float64", err)
		}
		return f, nil
	}
	return nil, errors.NewCoercionError("", fmt.Sprintf("%T", n.Value), "interface{}", nil)
}

func (b *Binder) scalar(n *models.Node, t reflect.Type) (reflect.Value, error) {
	if !n.IsScalar() {
		return reflect.Value{}, b.coercion(n.Kind().String(), t, nil)
	}
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		switch x := n.Value.(type) {
		case bool:
			v.SetBool(x)
		case string:
			parsed, err := strconv.ParseBool(x)
			if err != nil {
				return reflect.Value{}, b.coercion(describe(n), t, err)
			}
			v.SetBool(parsed)
		default:
			return reflect.Value{}, b.coercion(describe(n), t, nil)
		}
	case reflect.String:
		switch x := n.Value.(type) {
		case string:
			v.SetString(x)
		case json.Number:
			v.SetString(x.String())
		default:
			return reflect.Value{}, b.coercion(describe(n), t, nil)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		text, ok := numericText(n)
		if !ok {
			return reflect.Value{}, b.coercion(describe(n), t, nil)
		}
		i, err := parseInt(text)
		if err != nil || v.OverflowInt(i) {
			return reflect.Value{}, b.coercion(describe(n), t, err)
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		text, ok := numericText(n)
		if !ok {
			return reflect.Value{}, b.coercion(describe(n), t, nil)
		}
		u, err := parseUint(text)
		if err != nil || v.OverflowUint(u) {
			return reflect.Value{}, b.coercion(describe(n), t, err)
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		text, ok := numericText(n)
		if !ok {
			return reflect.Value{}, b.coercion(describe(n), t, nil)
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || v.OverflowFloat(f) {
			return reflect.Value{}, b.coercion(describe(n), t, err)
		}
		v.SetFloat(f)
	case reflect.Complex64, reflect.Complex128:
		return reflect.Value{}, errors.NewUnsupportedError(fmt.Sprintf("cannot bind into %s", t), nil)
	default:
		return reflect.Value{}, b.coercion(describe(n), t, nil)
	}
	return v, nil
}

// coercion builds a coercion error naming the field being bound.
func (b *Binder) coercion(from string, t reflect.Type, err error) error {
	return errors.NewCoercionError(b.field, from, registry.TypeName(t), err)
}

// named adds the current field to coercion errors raised without one.
func (b *Binder) named(err error) error {
	var appErr *errors.AppError
	if b.field == "" || !stderrors.As(err, &appErr) || appErr.Type != errors.ErrorTypeCoercion {
		return err
	}
	return &errors.AppError{
		Type:    errors.ErrorTypeCoercion,
		Message: fmt.Sprintf("field %s: %s", b.field, appErr.Message),
		Err:     appErr.Err,
	}
}

func follow(n *models.Node) (*models.Node, error) {
	if !n.IsRef() {
		return n, nil
	}
	if n.Target == nil {
		return nil, errors.NewUnresolvedRefError(n.Ref)
	}
	return n.Target, nil
}

func isNull(n *models.Node) bool {
	return n.IsScalar() && n.Value == nil
}

// isWrapped reports whether n is a typed scalar such as {"@type":"int32","value":5}.
func isWrapped(n *models.Node) bool {
	return n.Type != "" && n.IsObject() && len(n.Keys) == 1 && n.Keys[0] == models.ValueKey
}

func compatible(from, to reflect.Type) bool {
	switch {
	case from.AssignableTo(to):
		return true
	case to.Kind() == reflect.Ptr && to.Elem() == from:
		return true
	case from.Kind() == reflect.Ptr && from.Elem() == to:
		return true
	}
	return false
}

// convert adapts v to t, which compatible has accepted.
func convert(v reflect.Value, t reflect.Type) reflect.Value {
	switch {
	case v.Type() == t:
		return v
	case t.Kind() == reflect.Interface:
		out := reflect.New(t).Elem()
		out.Set(v)
		return out
	case t.Kind() == reflect.Ptr && t.Elem() == v.Type():
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p
	case v.Kind() == reflect.Ptr && v.Type().Elem() == t:
		if v.IsNil() {
			return reflect.Zero(t)
		}
		return v.Elem()
	}
	return v.Convert(t)
}

func hashable(v reflect.Value) bool {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	return v.Type().Comparable()
}

func numericText(n *models.Node) (string, bool) {
	switch x := n.Value.(type) {
	case json.Number:
		return x.String(), true
	case string:
		return x, true
	}
	return "", false
}

// parseInt accepts integral values in exponent or decimal notation as well.
func parseInt(text string) (int64, error) {
	i, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		return i, nil
	}
	f, ferr := strconv.ParseFloat(text, 64)
	if ferr != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, err
	}
	return int64(f), nil
}

func parseUint(text string) (uint64, error) {
	u, err := strconv.ParseUint(text, 10, 64)
	if err == nil {
		return u, nil
	}
	f, ferr := strconv.ParseFloat(text, 64)
	if ferr != nil || f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
		return 0, err
	}
	return uint64(f), nil
}

func describe(n *models.Node) string {
	if !n.IsScalar() {
		return n.Kind().String()
	}
	switch x := n.Value.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", x)
	case json.Number:
		return "number " + x.String()
	}
	return fmt.Sprintf("%T %v", n.Value, n.Value)
}

func isBasicKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
