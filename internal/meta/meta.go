// Package meta describes the serializable fields of Go struct types.
package meta

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/iancoleman/strcase"
)

// Naming selects how Go field names become JSON keys when a field has no
// `json` tag name.
type Naming string

const (
	NamingAsIs  Naming = ""
	NamingCamel Naming = "camel"
	NamingSnake Naming = "snake"
	NamingKebab Naming = "kebab"
)

// ParseNaming validates a naming policy name.
func ParseNaming(s string) (Naming, error) {
	switch n := Naming(strings.ToLower(strings.TrimSpace(s))); n {
	case NamingAsIs, NamingCamel, NamingSnake, NamingKebab:
		return n, nil
	case "as-is", "asis", "go":
		return NamingAsIs, nil
	}
	return "", fmt.Errorf("unknown field naming %q (want camel, snake, kebab or as-is)", s)
}

// Apply converts a Go field name according to the policy.
func (n Naming) Apply(goName string) string {
	switch n {
	case NamingCamel:
		return strcase.ToLowerCamel(goName)
	case NamingSnake:
		return strcase.ToSnake(goName)
	case NamingKebab:
		return strcase.ToKebab(goName)
	}
	return goName
}

// Field is one serializable struct field, possibly promoted from an
// embedded struct.
type Field struct {
	Name      string
	GoName    string
	Index     []int
	Type      reflect.Type
	Owner     reflect.Type
	OmitEmpty bool
	tagged    bool
}

// Descriptor lists the fields of a struct type in declaration order.
type Descriptor struct {
	Type   reflect.Type
	Fields []*Field
	byName map[string]*Field
}

// Lookup returns the field with wire name name.
func (d *Descriptor) Lookup(name string) (*Field, bool) {
	f, ok := d.byName[name]
	return f, ok
}

// FieldSet names fields per struct type. Names may be Go names or wire names.
type FieldSet map[reflect.Type]map[string]struct{}

// NewFieldSet builds a FieldSet from lists of names.
func NewFieldSet(names map[reflect.Type][]string) FieldSet {
	fs := make(FieldSet, len(names))
	for t, list := range names {
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		set := fs[t]
		if set == nil {
			set = make(map[string]struct{}, len(list))
			fs[t] = set
		}
		for _, n := range list {
			set[n] = struct{}{}
		}
	}
	return fs
}

func (fs FieldSet) has(t reflect.Type, f *Field) bool {
	set, ok := fs[t]
	if !ok {
		return false
	}
	if _, ok := set[f.GoName]; ok {
		return true
	}
	_, ok = set[f.Name]
	return ok
}

// Cache builds and memoizes descriptors for one naming policy and one pair
// of include/exclude sets. A Cache is safe for concurrent use.
type Cache struct {
	naming  Naming
	include FieldSet
	exclude FieldSet
	m       sync.Map // reflect.Type -> *Descriptor
}

// NewCache creates a descriptor cache.
func NewCache(naming Naming, include, exclude FieldSet) *Cache {
	return &Cache{naming: naming, include: include, exclude: exclude}
}

// Describe returns the filtered descriptor of struct type t.
func (c *Cache) Describe(t reflect.Type) *Descriptor {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if d, ok := c.m.Load(t); ok {
		return d.(*Descriptor)
	}
	d := c.build(t)
	actual, _ := c.m.LoadOrStore(t, d)
	return actual.(*Descriptor)
}

func (c *Cache) build(t reflect.Type) *Descriptor {
	d := &Descriptor{Type: t, byName: make(map[string]*Field)}
	if t.Kind() != reflect.Struct {
		return d
	}

	chain := append([]reflect.Type{t}, embedded(t)...)
	var included bool
	for _, owner := range chain {
		if len(c.include[owner]) > 0 {
			included = true
		}
	}

	for _, f := range collectFields(t, c.naming) {
		if c.excluded(chain, f) {
			continue
		}
		if included {
			keep := false
			for _, owner := range chain {
				if c.include.has(owner, f) {
					keep = true
					break
				}
			}
			if !keep {
				continue
			}
		}
		d.Fields = append(d.Fields, f)
		d.byName[f.Name] = f
	}
	return d
}

func (c *Cache) excluded(chain []reflect.Type, f *Field) bool {
	for _, owner := range chain {
		if c.exclude.has(owner, f) {
			return true
		}
	}
	return false
}

type candidate struct {
	typ   reflect.Type
	index []int
}

// collectFields flattens exported fields including those promoted through
// embedded structs. A shallower field hides deeper ones with the same name;
// two fields at the same depth cancel out unless exactly one is tagged.
func collectFields(t reflect.Type, naming Naming) []*Field {
	var out []*Field
	seenName := map[string]int{} // name -> depth where first claimed
	visited := map[reflect.Type]bool{}

	current := []candidate{{typ: t}}
	for depth := 0; len(current) > 0; depth++ {
		var next []candidate
		atDepth := map[string][]*Field{}
		var order []string

		for _, cand := range current {
			if visited[cand.typ] {
				continue
			}
			visited[cand.typ] = true

			for i := 0; i < cand.typ.NumField(); i++ {
				sf := cand.typ.Field(i)
				index := append(append([]int(nil), cand.index...), i)

				tag := sf.Tag.Get("json")
				if tag == "-" {
					continue
				}
				tagName, opts, _ := strings.Cut(tag, ",")

				if sf.Anonymous && tagName == "" {
					ft := sf.Type
					if ft.Kind() == reflect.Ptr {
						ft = ft.Elem()
					}
					if ft.Kind() == reflect.Struct {
						next = append(next, candidate{typ: ft, index: index})
						continue
					}
				}
				if !sf.IsExported() {
					continue
				}

				name := tagName
				if name == "" {
					name = naming.Apply(sf.Name)
				}
				f := &Field{
					Name:      name,
					GoName:    sf.Name,
					Index:     index,
					Type:      sf.Type,
					Owner:     cand.typ,
					OmitEmpty: strings.Contains(opts, "omitempty"),
					tagged:    tagName != "",
				}
				if _, ok := atDepth[name]; !ok {
					order = append(order, name)
				}
				atDepth[name] = append(atDepth[name], f)
			}
		}

		for _, name := range order {
			if _, hidden := seenName[name]; hidden {
				continue
			}
			seenName[name] = depth
			fields := atDepth[name]
			if len(fields) == 1 {
				out = append(out, fields[0])
				continue
			}
			var tagged []*Field
			for _, f := range fields {
				if f.tagged {
					tagged = append(tagged, f)
				}
			}
			if len(tagged) == 1 {
				out = append(out, tagged[0])
			}
		}
		current = next
	}

	sort.SliceStable(out, func(i, j int) bool { return lessIndex(out[i].Index, out[j].Index) })
	return out
}

func lessIndex(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func embedded(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	seen := map[reflect.Type]bool{t: true}
	queue := []reflect.Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for i := 0; i < cur.NumField(); i++ {
			sf := cur.Field(i)
			if !sf.Anonymous {
				continue
			}
			ft := sf.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() != reflect.Struct || seen[ft] {
				continue
			}
			seen[ft] = true
			out = append(out, ft)
			queue = append(queue, ft)
		}
	}
	return out
}

// Get returns the field's value in struct value v. It reports false when an
// embedded pointer on the path is nil.
func (f *Field) Get(v reflect.Value) (reflect.Value, bool) {
	for i, x := range f.Index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// Settable returns the field in addressable struct value v, allocating nil
// embedded pointers on the way. It reports false when an embedded pointer
// cannot be allocated because its struct type is unexported.
func (f *Field) Settable(v reflect.Value) (reflect.Value, bool) {
	for i, x := range f.Index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, v.CanSet()
}
