package registry

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/mcncl/jsongraph/internal/errors"
)

var anyType = reflect.TypeOf((*interface{})(nil)).Elem()

// TypeName returns the wire name of t: the package path and name for named
// types and Go syntax for composites, e.g. "[]*example.com/pets.Dog".
func TypeName(t reflect.Type) string {
	return TypeNameWith(t, nil)
}

// TypeNameWith is like TypeName but consults alias first for t and for every
// type nested inside a composite.
func TypeNameWith(t reflect.Type, alias func(reflect.Type) (string, bool)) string {
	if alias != nil {
		if name, ok := alias(t); ok {
			return name
		}
	}
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return t.Name()
		}
		return t.PkgPath() + "." + t.Name()
	}
	switch t.Kind() {
	case reflect.Ptr:
		return "*" + TypeNameWith(t.Elem(), alias)
	case reflect.Slice:
		return "[]" + TypeNameWith(t.Elem(), alias)
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + TypeNameWith(t.Elem(), alias)
	case reflect.Map:
		return "map[" + TypeNameWith(t.Key(), alias) + "]" + TypeNameWith(t.Elem(), alias)
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "any"
		}
	}
	return t.String()
}

// Types is the type-resolution context: the table of named types that may
// appear in @type values. Composite names are derived from their parts and
// need no registration.
type Types struct {
	parent *Types
	byName map[string]reflect.Type
}

var (
	defaultTypesOnce sync.Once
	defaultTypes     *Types
)

// DefaultTypes returns the built-in table: Go's predeclared scalar types and
// the types with built-in codecs.
func DefaultTypes() *Types {
	defaultTypesOnce.Do(func() {
		defaultTypes = &Types{byName: make(map[string]reflect.Type)}
		for _, t := range predeclaredTypes() {
			defaultTypes.byName[TypeName(t)] = t
		}
		for _, t := range builtinTypes() {
			defaultTypes.byName[TypeName(t)] = t
		}
		defaultTypes.byName["any"] = anyType
	})
	return defaultTypes
}

// With returns a table with types layered over t.
func (t *Types) With(types ...reflect.Type) *Types {
	view := &Types{parent: t, byName: make(map[string]reflect.Type, len(types))}
	for _, typ := range types {
		for typ.Kind() == reflect.Ptr {
			typ = typ.Elem()
		}
		view.byName[TypeName(typ)] = typ
	}
	return view
}

// WithNames returns a table where each name resolves to its type. Names
// registered this way take part in composite names, so an alias "Dog" also
// makes "[]Dog" resolvable.
func (t *Types) WithNames(names map[string]reflect.Type) *Types {
	view := &Types{parent: t, byName: make(map[string]reflect.Type, len(names))}
	for name, typ := range names {
		view.byName[name] = typ
	}
	return view
}

// Lookup resolves a wire name to a type.
func (t *Types) Lookup(name string) (reflect.Type, error) {
	typ, err := t.lookup(strings.TrimSpace(name))
	if err != nil {
		return nil, errors.NewResolutionError(fmt.Sprintf("unknown type %q", name), err)
	}
	return typ, nil
}

func (t *Types) lookup(name string) (reflect.Type, error) {
	for v := t; v != nil; v = v.parent {
		if typ, ok := v.byName[name]; ok {
			return typ, nil
		}
	}

	switch {
	case strings.HasPrefix(name, "*"):
		elem, err := t.lookup(name[1:])
		if err != nil {
			return nil, err
		}
		return reflect.PointerTo(elem), nil
	case strings.HasPrefix(name, "[]"):
		elem, err := t.lookup(name[2:])
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case strings.HasPrefix(name, "["):
		end := strings.IndexByte(name, ']')
		if end < 0 {
			return nil, fmt.Errorf("unbalanced brackets")
		}
		n, err := strconv.Atoi(name[1:end])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid array length %q", name[1:end])
		}
		elem, err := t.lookup(name[end+1:])
		if err != nil {
			return nil, err
		}
		return reflect.ArrayOf(n, elem), nil
	case strings.HasPrefix(name, "map["):
		end := matchingBracket(name, len("map"))
		if end < 0 {
			return nil, fmt.Errorf("unbalanced brackets")
		}
		key, err := t.lookup(name[len("map["):end])
		if err != nil {
			return nil, err
		}
		elem, err := t.lookup(name[end+1:])
		if err != nil {
			return nil, err
		}
		if !key.Comparable() {
			return nil, fmt.Errorf("map key type %s is not comparable", key)
		}
		return reflect.MapOf(key, elem), nil
	}
	return nil, fmt.Errorf("type is not registered")
}

// matchingBracket returns the index of the ']' closing the '[' at open.
func matchingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func predeclaredTypes() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf(false),
		reflect.TypeOf(""),
		reflect.TypeOf(int(0)),
		reflect.TypeOf(int8(0)),
		reflect.TypeOf(int16(0)),
		reflect.TypeOf(int32(0)),
		reflect.TypeOf(int64(0)),
		reflect.TypeOf(uint(0)),
		reflect.TypeOf(uint8(0)),
		reflect.TypeOf(uint16(0)),
		reflect.TypeOf(uint32(0)),
		reflect.TypeOf(uint64(0)),
		reflect.TypeOf(uintptr(0)),
		reflect.TypeOf(float32(0)),
		reflect.TypeOf(float64(0)),
	}
}
