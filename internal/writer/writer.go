// Package writer serializes Go object graphs to JSON with @id/@ref/@type
// metadata.
//
// A write is two passes over the graph. The trace pass counts how often each
// pointer, map and slice identity is reached; the emit pass then knows at the
// first occurrence of an identity whether it needs an @id.
package writer

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/models"
	"github.com/mcncl/jsongraph/internal/options"
	"github.com/mcncl/jsongraph/internal/registry"
)

var (
	anyType       = reflect.TypeOf((*interface{})(nil)).Elem()
	mapAnyType    = reflect.TypeOf(map[string]interface{}(nil))
	sliceAnyType  = reflect.TypeOf([]interface{}(nil))
	stringType    = reflect.TypeOf("")
	boolType      = reflect.TypeOf(false)
	int64Type     = reflect.TypeOf(int64(0))
	float64Type   = reflect.TypeOf(float64(0))
	stringerType  = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	marshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// Writer holds the state of one write call. It is not safe for concurrent
// use; create one per call or use Write.
type Writer struct {
	opts    *options.WriteOptions
	reg     *registry.Registry
	keys    models.MetaKeys
	logger  *log.Logger
	tracker *Tracker
	order   map[identity][]reflect.Value

	buf     *bytes.Buffer
	tracing bool
}

// NewWriter creates a Writer for opts. A nil opts uses the defaults.
func NewWriter(opts *options.WriteOptions) *Writer {
	if opts == nil {
		opts = options.DefaultWriteOptions()
	}
	return &Writer{
		opts:   opts,
		reg:    opts.Registry(),
		keys:   opts.MetaKeys(),
		logger: opts.Logger(),
	}
}

// Write serializes root to a JSON string.
func Write(root interface{}, opts *options.WriteOptions) (string, error) {
	var buf bytes.Buffer
	if err := NewWriter(opts).Encode(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteTo serializes root to w.
func WriteTo(w io.Writer, root interface{}, opts *options.WriteOptions) error {
	return NewWriter(opts).Encode(w, root)
}

// Encode serializes root to out.
func (w *Writer) Encode(out io.Writer, root interface{}) error {
	w.tracker = NewTracker()
	w.order = make(map[identity][]reflect.Value)
	v := reflect.ValueOf(root)

	// Trace pass
	w.tracing = true
	w.buf = &bytes.Buffer{}
	if err := w.value(v, anyType); err != nil {
		return err
	}

	// Emit pass
	w.tracing = false
	w.buf = &bytes.Buffer{}
	if err := w.value(v, anyType); err != nil {
		return err
	}

	data := w.buf.Bytes()
	if w.opts.PrettyPrint() {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, data, "", "  "); err != nil {
			return errors.NewOutputError("failed to indent output", err)
		}
		data = pretty.Bytes()
	}

	w.logger.Debug("graph written", "bytes", len(data), "shared", w.tracker.SharedCount(), "ids", w.tracker.Assigned())

	if _, err := out.Write(data); err != nil {
		return errors.NewOutputError("failed to write JSON", err)
	}
	return nil
}

// Tracker returns the reference tracker of the last Encode call.
func (w *Writer) Tracker() *Tracker { return w.tracker }

// value writes v, which sits in a slot of static type static.
func (w *Writer) value(v reflect.Value, static reflect.Type) error {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			break
		}
		v = v.Elem()
	}
	if !v.IsValid() || isNil(v) {
		w.buf.WriteString("null")
		return nil
	}

	t := v.Type()
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return errors.NewUnsupportedError(fmt.Sprintf("cannot serialize value of type %s", t), nil)
	}

	if cw := w.reg.WriterFor(t); cw != nil {
		return w.custom(cw, v, static)
	}

	if t.Kind() == reflect.Ptr && w.reg.IsLogicalPrimitive(t) {
		if static == t {
			static = t.Elem()
		}
		return w.value(v.Elem(), static)
	}

	if e, ok := w.reg.Enum(t); ok {
		return w.enum(e, v, static)
	}
	if isBasic(t.Kind()) {
		return w.scalar(v, static)
	}
	if w.reg.IsLogicalPrimitive(t) {
		return w.textual(v, static)
	}
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
		return w.wrapScalar(t, static, func() error {
			w.writeString(base64.StdEncoding.EncodeToString(v.Bytes()))
			return nil
		})
	}

	switch t.Kind() {
	case reflect.Ptr:
		if t.Elem().Kind() != reflect.Struct {
			if static == t {
				static = t.Elem()
			}
			return w.value(v.Elem(), static)
		}
		return w.tracked(v, static, func(id int64) error {
			return w.object(v.Elem(), t, static, id)
		})
	case reflect.Struct:
		return w.object(v, t, static, -1)
	case reflect.Map:
		return w.tracked(v, static, func(id int64) error {
			return w.mapValue(v, static, id)
		})
	case reflect.Slice:
		if _, ok := identityOf(v); !ok {
			return w.array(v, static, -1)
		}
		return w.tracked(v, static, func(id int64) error {
			return w.array(v, static, id)
		})
	case reflect.Array:
		return w.array(v, static, -1)
	}
	return errors.NewUnsupportedError(fmt.Sprintf("cannot serialize value of kind %s", t.Kind()), nil)
}

// tracked handles the identity bookkeeping around body, which receives the
// @id to attach or -1.
func (w *Writer) tracked(v reflect.Value, static reflect.Type, body func(id int64) error) error {
	key, ok := identityOf(v)
	if !ok {
		return body(-1)
	}

	if w.tracing {
		if !w.tracker.Visit(key) {
			w.writeRef(0)
			return nil
		}
		return body(-1)
	}

	if id, seen := w.tracker.ID(key); seen {
		w.writeRef(id)
		return nil
	}
	id := int64(-1)
	if w.tracker.Shared(key) {
		id = w.tracker.Assign(key)
	}
	return body(id)
}

func (w *Writer) writeRef(id int64) {
	w.buf.WriteByte('{')
	w.writeString(w.keys.Ref)
	w.buf.WriteByte(':')
	w.buf.WriteString(strconv.FormatInt(id, 10))
	w.buf.WriteByte('}')
}

// showType reports whether a node of dynamic type t in a slot of static type
// static carries @type.
func (w *Writer) showType(t, static reflect.Type) bool {
	switch w.opts.TypeDisplay() {
	case options.TypeDisplayNever:
		return false
	case options.TypeDisplayAlways:
		return true
	}
	if t == static {
		return false
	}
	if static.Kind() == reflect.Interface && (t == mapAnyType || t == sliceAnyType) {
		return false
	}
	return true
}

// wrapsScalar reports whether a scalar of type t needs the
// {"@type":..., "value":...} form to survive a slot of type static.
func (w *Writer) wrapsScalar(t, static reflect.Type) bool {
	if w.opts.TypeDisplay() == options.TypeDisplayNever || static.Kind() != reflect.Interface {
		return false
	}
	switch t {
	case stringType, boolType, int64Type, float64Type:
		return false
	}
	return true
}

func (w *Writer) wrapScalar(t, static reflect.Type, body func() error) error {
	if !w.wrapsScalar(t, static) {
		return body()
	}
	o := w.openObject()
	o.key(w.keys.Type)
	w.writeString(w.opts.TypeName(t))
	o.key(models.ValueKey)
	if err := body(); err != nil {
		return err
	}
	o.close()
	return nil
}

func (w *Writer) custom(cw registry.Writer, v reflect.Value, static reflect.Type) error {
	if w.tracing {
		w.buf.WriteString("null")
		return nil
	}
	replacement, err := cw.WriteJSON(v, w.opts)
	if err != nil {
		return customError(v.Type(), err)
	}
	data, err := json.Marshal(replacement)
	if err != nil {
		return errors.NewCustomError(fmt.Sprintf("custom writer for %s returned an unencodable value", v.Type()), err)
	}
	return w.wrapScalar(v.Type(), static, func() error {
		w.buf.Write(data)
		return nil
	})
}

func customError(t reflect.Type, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.NewCustomError(fmt.Sprintf("custom writer for %s failed", t), err)
}

func (w *Writer) enum(e *registry.Enum, v reflect.Value, static reflect.Type) error {
	t := v.Type()
	name, known := e.Name(v)
	if !known {
		// Values outside the constant set fall back to their underlying value.
		return w.scalar(v, static)
	}

	format := w.opts.EnumFormat()
	if format == options.EnumPrimitive {
		return w.wrapScalar(t, static, func() error {
			w.writeString(name)
			return nil
		})
	}

	o := w.openObject()
	if w.showType(t, static) {
		o.key(w.keys.Type)
		w.writeString(w.opts.TypeName(t))
	}
	o.key(models.NameKey)
	w.writeString(name)
	if format == options.EnumObjectAll {
		ordinal, _ := e.Ordinal(v)
		o.key(models.OrdinalKey)
		w.buf.WriteString(strconv.Itoa(ordinal))
	}
	o.close()
	return nil
}

func (w *Writer) scalar(v reflect.Value, static reflect.Type) error {
	t := v.Type()
	return w.wrapScalar(t, static, func() error {
		switch t.Kind() {
		case reflect.Bool:
			w.buf.WriteString(strconv.FormatBool(v.Bool()))
		case reflect.String:
			w.writeString(v.String())
		case reflect.Int, reflect.Int64:
			s := strconv.FormatInt(v.Int(), 10)
			if w.opts.LongsAsStrings() {
				w.writeString(s)
			} else {
				w.buf.WriteString(s)
			}
		case reflect.Int8, reflect.Int16, reflect.Int32:
			w.buf.WriteString(strconv.FormatInt(v.Int(), 10))
		case reflect.Uint, reflect.Uint64, reflect.Uintptr:
			s := strconv.FormatUint(v.Uint(), 10)
			if w.opts.LongsAsStrings() {
				w.writeString(s)
			} else {
				w.buf.WriteString(s)
			}
		case reflect.Uint8, reflect.Uint16, reflect.Uint32:
			w.buf.WriteString(strconv.FormatUint(v.Uint(), 10))
		case reflect.Float32, reflect.Float64:
			f := v.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return errors.NewUnsupportedError(fmt.Sprintf("cannot serialize %v as a JSON number", f), nil)
			}
			bits := 64
			if t.Kind() == reflect.Float32 {
				bits = 32
			}
			w.buf.WriteString(strconv.FormatFloat(f, 'g', -1, bits))
		}
		return nil
	})
}

// textual writes a configured logical primitive that has no custom writer.
func (w *Writer) textual(v reflect.Value, static reflect.Type) error {
	t := v.Type()
	return w.wrapScalar(t, static, func() error {
		p := addressable(v)
		switch {
		case t.Implements(marshalerType) || p.Type().Implements(marshalerType):
			text, err := p.Interface().(encoding.TextMarshaler).MarshalText()
			if err != nil {
				return errors.NewCustomError(fmt.Sprintf("MarshalText of %s failed", t), err)
			}
			w.writeString(string(text))
		case t.Implements(stringerType) || p.Type().Implements(stringerType):
			w.writeString(p.Interface().(fmt.Stringer).String())
		default:
			data, err := json.Marshal(v.Interface())
			if err != nil {
				return errors.NewUnsupportedError(fmt.Sprintf("cannot serialize logical primitive %s", t), err)
			}
			w.buf.Write(data)
		}
		return nil
	})
}

// object writes a struct. ptrType is the pointer or struct type used for
// @type; id is the @id to attach or -1.
func (w *Writer) object(v reflect.Value, t, static reflect.Type, id int64) error {
	o := w.openObject()
	if id > 0 {
		o.key(w.keys.ID)
		w.buf.WriteString(strconv.FormatInt(id, 10))
	}
	if w.showType(t, static) {
		o.key(w.keys.Type)
		w.writeString(w.opts.TypeName(t))
	}

	desc := w.opts.Fields().Describe(v.Type())
	for _, f := range desc.Fields {
		fv, ok := f.Get(v)
		if !ok {
			continue
		}
		if w.opts.SkipNullFields() && isNil(fv) {
			continue
		}
		if f.OmitEmpty && fv.IsZero() {
			continue
		}
		o.key(f.Name)
		if err := w.value(fv, f.Type); err != nil {
			return err
		}
	}
	o.close()
	return nil
}

func (w *Writer) array(v reflect.Value, static reflect.Type, id int64) error {
	t := v.Type()
	typed := w.showType(t, static)
	var o *objectWriter
	if id > 0 || typed {
		o = w.openObject()
		if id > 0 {
			o.key(w.keys.ID)
			w.buf.WriteString(strconv.FormatInt(id, 10))
		}
		if typed {
			o.key(w.keys.Type)
			w.writeString(w.opts.TypeName(t))
		}
		o.key(w.keys.Items)
	}

	if err := w.elements(v, t.Elem()); err != nil {
		return err
	}
	if o != nil {
		o.close()
	}
	return nil
}

func (w *Writer) elements(v reflect.Value, elem reflect.Type) error {
	w.buf.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		if err := w.value(v.Index(i), elem); err != nil {
			return err
		}
	}
	w.buf.WriteByte(']')
	return nil
}

func (w *Writer) mapValue(v reflect.Value, static reflect.Type, id int64) error {
	t := v.Type()
	keys := w.sortedKeys(v)

	o := w.openObject()
	if id > 0 {
		o.key(w.keys.ID)
		w.buf.WriteString(strconv.FormatInt(id, 10))
	}
	if w.showType(t, static) {
		o.key(w.keys.Type)
		w.writeString(w.opts.TypeName(t))
	}

	if w.natural(t, keys) {
		for _, k := range keys {
			o.key(k.String())
			if err := w.value(v.MapIndex(k), t.Elem()); err != nil {
				return err
			}
		}
		o.close()
		return nil
	}

	o.key(w.keys.Keys)
	w.buf.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		if err := w.value(k, t.Key()); err != nil {
			return err
		}
	}
	w.buf.WriteByte(']')

	o.key(w.keys.Items)
	w.buf.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		if err := w.value(v.MapIndex(k), t.Elem()); err != nil {
			return err
		}
	}
	w.buf.WriteByte(']')
	o.close()
	return nil
}

// natural reports whether a map can be written as a plain JSON object.
func (w *Writer) natural(t reflect.Type, keys []reflect.Value) bool {
	if w.opts.MapFormat() == options.MapKeysAndItems || t.Key().Kind() != reflect.String {
		return false
	}
	if _, isEnum := w.reg.Enum(t.Key()); isEnum {
		return false
	}
	if w.reg.WriterFor(t.Key()) != nil {
		return false
	}
	for _, k := range keys {
		if _, reserved := models.CanonicalKey(k.String()); reserved {
			return false
		}
		if k.String() == models.ValueKey && len(keys) == 1 {
			// {"value": x} with @type would read back as a wrapped scalar.
			return false
		}
	}
	return true
}

// sortedKeys returns the keys of map v in a deterministic order. The order is
// computed once per map so both passes walk the keys identically.
func (w *Writer) sortedKeys(v reflect.Value) []reflect.Value {
	key, _ := identityOf(v)
	if keys, ok := w.order[key]; ok {
		return keys
	}
	keys := v.MapKeys()
	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = keyLabel(k)
	}
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return lessKey(keys[idx[a]], keys[idx[b]], labels[idx[a]], labels[idx[b]])
	})
	out := make([]reflect.Value, len(keys))
	for i, j := range idx {
		out[i] = keys[j]
	}
	w.order[key] = out
	return out
}

func lessKey(a, b reflect.Value, la, lb string) bool {
	for a.Kind() == reflect.Interface && !a.IsNil() {
		a = a.Elem()
	}
	for b.Kind() == reflect.Interface && !b.IsNil() {
		b = b.Elem()
	}
	if a.IsValid() && b.IsValid() && a.Type() == b.Type() {
		switch a.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return a.Uint() < b.Uint()
		case reflect.Float32, reflect.Float64:
			return a.Float() < b.Float()
		case reflect.String:
			return a.String() < b.String()
		case reflect.Bool:
			return !a.Bool() && b.Bool()
		}
	}
	return la < lb
}

func keyLabel(k reflect.Value) string {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if !k.IsValid() {
		return ""
	}
	return registry.TypeName(k.Type()) + ":" + fmt.Sprint(k.Interface())
}

type objectWriter struct {
	w *Writer
	n int
}

func (w *Writer) openObject() *objectWriter {
	w.buf.WriteByte('{')
	return &objectWriter{w: w}
}

func (o *objectWriter) key(k string) {
	if o.n > 0 {
		o.w.buf.WriteByte(',')
	}
	o.n++
	o.w.writeString(k)
	o.w.buf.WriteByte(':')
}

func (o *objectWriter) close() {
	o.w.buf.WriteByte('}')
}

func (w *Writer) writeString(s string) {
	data, _ := json.Marshal(s)
	w.buf.Write(data)
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}

func isBasic(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// addressable returns a pointer to v's value so pointer-receiver methods are
// reachable.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}
