package registry

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	uatomic "go.uber.org/atomic"
	"golang.org/x/text/language"

	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/models"
)

// DefaultDateFormat is used for time.Time when no layout is configured.
const DefaultDateFormat = time.RFC3339Nano

var fallbackDateFormats = []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly}

func builtinTypes() []reflect.Type {
	return []reflect.Type{
		reflect.TypeFor[time.Time](),
		reflect.TypeFor[time.Duration](),
		reflect.TypeFor[time.Location](),
		reflect.TypeFor[big.Int](),
		reflect.TypeFor[big.Float](),
		reflect.TypeFor[big.Rat](),
		reflect.TypeFor[url.URL](),
		reflect.TypeFor[uuid.UUID](),
		reflect.TypeFor[language.Tag](),
		reflect.TypeFor[json.Number](),
		reflect.TypeFor[strings.Builder](),
		reflect.TypeFor[bytes.Buffer](),
		reflect.TypeFor[atomic.Bool](),
		reflect.TypeFor[atomic.Int32](),
		reflect.TypeFor[atomic.Int64](),
		reflect.TypeFor[atomic.Uint32](),
		reflect.TypeFor[atomic.Uint64](),
		reflect.TypeFor[uatomic.Bool](),
		reflect.TypeFor[uatomic.Int32](),
		reflect.TypeFor[uatomic.Int64](),
		reflect.TypeFor[uatomic.Uint32](),
		reflect.TypeFor[uatomic.Uint64](),
		reflect.TypeFor[uatomic.Float64](),
		reflect.TypeFor[uatomic.String](),
		reflect.TypeFor[uatomic.Duration](),
	}
}

func newBuiltinRegistry() *Registry {
	r := &Registry{
		exact:    make(map[reflect.Type]Entry),
		noCustom: make(map[reflect.Type]struct{}),
		enums:    make(map[reflect.Type]*Enum),
	}
	register := func(t reflect.Type, w Writer, rd Reader) {
		r.exact[t] = Entry{Writer: w, Reader: rd, Primitive: true, exactOnly: true}
	}

	register(reflect.TypeFor[time.Time](), WriterFunc(writeTime), ReaderFunc(readTime))
	register(reflect.TypeFor[time.Duration](), WriterFunc(writeDuration), ReaderFunc(readDuration))
	register(reflect.TypeFor[time.Location](), WriterFunc(writeLocation), ReaderFunc(readLocation))
	register(reflect.TypeFor[url.URL](), WriterFunc(writeURL), ReaderFunc(readURL))
	register(reflect.TypeFor[json.Number](), WriterFunc(writeNumber), ReaderFunc(readNumber))

	for _, t := range []reflect.Type{
		reflect.TypeFor[big.Int](),
		reflect.TypeFor[big.Float](),
		reflect.TypeFor[big.Rat](),
		reflect.TypeFor[uuid.UUID](),
		reflect.TypeFor[language.Tag](),
	} {
		register(t, TextWriter, TextReader)
	}

	for _, t := range []reflect.Type{reflect.TypeFor[strings.Builder](), reflect.TypeFor[bytes.Buffer]()} {
		register(t, WriterFunc(writeBuffer), ReaderFunc(readBuffer))
	}

	for _, t := range builtinTypes() {
		if _, ok := r.exact[t]; ok {
			continue
		}
		// The remaining built-ins are the atomic wrappers.
		register(t, WriterFunc(writeAtomic), ReaderFunc(readAtomic))
	}
	return r
}

// TextWriter writes values implementing encoding.TextMarshaler as strings.
var TextWriter Writer = WriterFunc(func(v reflect.Value, _ WriteContext) (interface{}, error) {
	m, ok := pointerTo(v).Interface().(encoding.TextMarshaler)
	if !ok {
		return nil, errors.NewUnsupportedError(fmt.Sprintf("%s does not implement encoding.TextMarshaler", v.Type()), nil)
	}
	text, err := m.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
})

// TextReader reads strings into types implementing encoding.TextUnmarshaler.
var TextReader Reader = ReaderFunc(func(n *models.Node, t reflect.Type, _ ReadContext) (reflect.Value, error) {
	s, err := scalarString(n, t)
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(baseType(t))
	u, ok := p.Interface().(encoding.TextUnmarshaler)
	if !ok {
		return reflect.Value{}, errors.NewUnsupportedError(fmt.Sprintf("%s does not implement encoding.TextUnmarshaler", t), nil)
	}
	if err := u.UnmarshalText([]byte(s)); err != nil {
		return reflect.Value{}, errors.NewCoercionError("", fmt.Sprintf("%q", s), TypeName(t), err)
	}
	return adapt(p, t), nil
})

func writeTime(v reflect.Value, ctx WriteContext) (interface{}, error) {
	t := pointerTo(v).Elem().Interface().(time.Time)
	layout := DefaultDateFormat
	if ctx != nil && ctx.DateFormat() != "" {
		layout = ctx.DateFormat()
	}
	return t.Format(layout), nil
}

func readTime(n *models.Node, t reflect.Type, ctx ReadContext) (reflect.Value, error) {
	p := reflect.New(baseType(t))
	switch v := n.Value.(type) {
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			return reflect.Value{}, errors.NewCoercionError("", "number "+v.String(), "time.Time", err)
		}
		p.Elem().Set(reflect.ValueOf(time.UnixMilli(ms).UTC()))
		return adapt(p, t), nil
	case string:
		layouts := fallbackDateFormats
		if ctx != nil && ctx.DateFormat() != "" {
			layouts = append([]string{ctx.DateFormat()}, fallbackDateFormats...)
		}
		var lastErr error
		for _, layout := range layouts {
			parsed, err := time.Parse(layout, v)
			if err == nil {
				p.Elem().Set(reflect.ValueOf(parsed))
				return adapt(p, t), nil
			}
			lastErr = err
		}
		return reflect.Value{}, errors.NewCoercionError("", fmt.Sprintf("string %q", v), "time.Time", lastErr)
	}
	return reflect.Value{}, errors.NewCoercionError("", describe(n), "time.Time", nil)
}

func writeDuration(v reflect.Value, _ WriteContext) (interface{}, error) {
	return time.Duration(reflect.Indirect(v).Int()).String(), nil
}

func readDuration(n *models.Node, t reflect.Type, _ ReadContext) (reflect.Value, error) {
	p := reflect.New(baseType(t))
	switch v := n.Value.(type) {
	case json.Number:
		ns, err := v.Int64()
		if err != nil {
			return reflect.Value{}, errors.NewCoercionError("", "number "+v.String(), "time.Duration", err)
		}
		p.Elem().SetInt(ns)
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return reflect.Value{}, errors.NewCoercionError("", fmt.Sprintf("string %q", v), "time.Duration", err)
		}
		p.Elem().SetInt(int64(d))
	default:
		return reflect.Value{}, errors.NewCoercionError("", describe(n), "time.Duration", nil)
	}
	return adapt(p, t), nil
}

func writeLocation(v reflect.Value, _ WriteContext) (interface{}, error) {
	return pointerTo(v).Interface().(*time.Location).String(), nil
}

func readLocation(n *models.Node, t reflect.Type, _ ReadContext) (reflect.Value, error) {
	s, err := scalarString(n, t)
	if err != nil {
		return reflect.Value{}, err
	}
	loc, err := time.LoadLocation(s)
	if err != nil {
		return reflect.Value{}, errors.NewCoercionError("", fmt.Sprintf("string %q", s), "time.Location", err)
	}
	return adapt(reflect.ValueOf(loc), t), nil
}

func writeURL(v reflect.Value, _ WriteContext) (interface{}, error) {
	return pointerTo(v).Interface().(*url.URL).String(), nil
}

func readURL(n *models.Node, t reflect.Type, _ ReadContext) (reflect.Value, error) {
	s, err := scalarString(n, t)
	if err != nil {
		return reflect.Value{}, err
	}
	u, err := url.Parse(s)
	if err != nil {
		return reflect.Value{}, errors.NewCoercionError("", fmt.Sprintf("string %q", s), "net/url.URL", err)
	}
	return adapt(reflect.ValueOf(u), t), nil
}

func writeNumber(v reflect.Value, _ WriteContext) (interface{}, error) {
	num := json.Number(reflect.Indirect(v).String())
	if _, err := num.Float64(); err != nil {
		return nil, errors.NewUnsupportedError(fmt.Sprintf("json.Number %q is not a number", string(num)), err)
	}
	return num, nil
}

func readNumber(n *models.Node, t reflect.Type, _ ReadContext) (reflect.Value, error) {
	s, err := scalarString(n, t)
	if err != nil {
		return reflect.Value{}, err
	}
	if _, err := json.Number(s).Float64(); err != nil {
		return reflect.Value{}, errors.NewCoercionError("", fmt.Sprintf("string %q", s), "encoding/json.Number", err)
	}
	p := reflect.New(baseType(t))
	p.Elem().SetString(s)
	return adapt(p, t), nil
}

type textBuffer interface {
	WriteString(s string) (int, error)
	String() string
}

func writeBuffer(v reflect.Value, _ WriteContext) (interface{}, error) {
	if !v.CanAddr() && v.Kind() != reflect.Ptr {
		// strings.Builder panics when used through a copy.
		return nil, errors.NewUnsupportedError(fmt.Sprintf("%s must be reachable through a pointer", v.Type()), nil)
	}
	return pointerTo(v).Interface().(textBuffer).String(), nil
}

func readBuffer(n *models.Node, t reflect.Type, _ ReadContext) (reflect.Value, error) {
	s, err := scalarString(n, t)
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(baseType(t))
	if _, err := p.Interface().(textBuffer).WriteString(s); err != nil {
		return reflect.Value{}, err
	}
	return adapt(p, t), nil
}

func writeAtomic(v reflect.Value, _ WriteContext) (interface{}, error) {
	load := pointerTo(v).MethodByName("Load")
	if !load.IsValid() {
		return nil, errors.NewUnsupportedError(fmt.Sprintf("%s has no Load method", v.Type()), nil)
	}
	return load.Call(nil)[0].Interface(), nil
}

func readAtomic(n *models.Node, t reflect.Type, ctx ReadContext) (reflect.Value, error) {
	p := reflect.New(baseType(t))
	store := p.MethodByName("Store")
	if !store.IsValid() {
		return reflect.Value{}, errors.NewUnsupportedError(fmt.Sprintf("%s has no Store method", t), nil)
	}
	arg, err := ctx.Bind(n, store.Type().In(0))
	if err != nil {
		return reflect.Value{}, err
	}
	store.Call([]reflect.Value{arg})
	return adapt(p, t), nil
}

// pointerTo returns a pointer to v's value, copying when v is not addressable.
func pointerTo(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Ptr {
		return v
	}
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}

// adapt turns a pointer to a base value into a value of type t.
func adapt(p reflect.Value, t reflect.Type) reflect.Value {
	if t.Kind() == reflect.Ptr {
		return p
	}
	return p.Elem()
}

func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func scalarString(n *models.Node, t reflect.Type) (string, error) {
	switch v := n.Value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	}
	return "", errors.NewCoercionError("", describe(n), TypeName(t), nil)
}

func describe(n *models.Node) string {
	if n.IsScalar() {
		if n.Value == nil {
			return "null"
		}
		return fmt.Sprintf("%T %v", n.Value, n.Value)
	}
	return n.Kind().String()
}
