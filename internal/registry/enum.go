package registry

import (
	"fmt"
	"reflect"
)

// Enum is a named integer or string type with a closed set of constants.
// Each constant has a name (its String() form when available) and an
// ordinal (its position in the registration list).
type Enum struct {
	typ     reflect.Type
	names   map[interface{}]string
	byName  map[string]reflect.Value
	ordinal map[interface{}]int
	values  []reflect.Value
}

// NewEnum builds an Enum from its constants, which must share one type.
func NewEnum(constants ...interface{}) (*Enum, error) {
	if len(constants) == 0 {
		return nil, fmt.Errorf("enum needs at least one constant")
	}

	e := &Enum{
		typ:     reflect.TypeOf(constants[0]),
		names:   make(map[interface{}]string),
		byName:  make(map[string]reflect.Value),
		ordinal: make(map[interface{}]int),
	}
	switch e.typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.String:
	default:
		return nil, fmt.Errorf("enum type %s must have an integer or string kind", e.typ)
	}

	for i, c := range constants {
		v := reflect.ValueOf(c)
		if v.Type() != e.typ {
			return nil, fmt.Errorf("enum constant %v has type %s, want %s", c, v.Type(), e.typ)
		}
		name := constantName(c)
		if _, dup := e.byName[name]; dup {
			return nil, fmt.Errorf("enum %s has duplicate constant name %q", e.typ, name)
		}
		e.names[c] = name
		e.byName[name] = v
		e.ordinal[c] = i
		e.values = append(e.values, v)
	}
	return e, nil
}

// MustEnum is like NewEnum but panics on error.
func MustEnum(constants ...interface{}) *Enum {
	e, err := NewEnum(constants...)
	if err != nil {
		panic(err)
	}
	return e
}

// Type returns the enum's Go type.
func (e *Enum) Type() reflect.Type { return e.typ }

// Name returns the constant name of v.
func (e *Enum) Name(v reflect.Value) (string, bool) {
	name, ok := e.names[v.Interface()]
	return name, ok
}

// Ordinal returns the registration position of v.
func (e *Enum) Ordinal(v reflect.Value) (int, bool) {
	i, ok := e.ordinal[v.Interface()]
	return i, ok
}

// Value returns the constant called name.
func (e *Enum) Value(name string) (reflect.Value, bool) {
	v, ok := e.byName[name]
	return v, ok
}

// ValueAt returns the constant at ordinal i.
func (e *Enum) ValueAt(i int) (reflect.Value, bool) {
	if i < 0 || i >= len(e.values) {
		return reflect.Value{}, false
	}
	return e.values[i], true
}

func constantName(c interface{}) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(c)
}
