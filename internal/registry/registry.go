// Package registry maps Go types to custom JSON writers and readers and
// classifies logical primitives.
//
// Lookup for a type t walks, in order:
//
//  1. t itself
//  2. its pointer counterpart (*t for t, t for *t)
//  3. structs embedded in t, breadth-first in field order
//  4. registered interface types implemented by t or *t
//
// At every step overlay entries are consulted before the entries they were
// layered over. Built-in entries match steps 1 and 2 only, so embedding a
// time.Time in a struct does not turn the struct into a timestamp.
package registry

import (
	"reflect"
	"sync"

	"github.com/mcncl/jsongraph/internal/models"
)

// WriteContext exposes write configuration to custom writers.
type WriteContext interface {
	DateFormat() string
}

// Writer produces a replacement for v. The replacement must be plain data
// (scalars, maps, slices, structs) and is encoded without reference tracking.
type Writer interface {
	WriteJSON(v reflect.Value, ctx WriteContext) (interface{}, error)
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(v reflect.Value, ctx WriteContext) (interface{}, error)

// WriteJSON calls f.
func (f WriterFunc) WriteJSON(v reflect.Value, ctx WriteContext) (interface{}, error) {
	return f(v, ctx)
}

// ReadContext exposes read configuration to custom readers and lets them
// bind nested nodes through the engine.
type ReadContext interface {
	DateFormat() string
	Bind(n *models.Node, t reflect.Type) (reflect.Value, error)
}

// Reader builds a value of type t from n. For values written in wrapped form
// ({"@type":…,"value":…}) n is the value member.
type Reader interface {
	ReadJSON(n *models.Node, t reflect.Type, ctx ReadContext) (reflect.Value, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(n *models.Node, t reflect.Type, ctx ReadContext) (reflect.Value, error)

// ReadJSON calls f.
func (f ReaderFunc) ReadJSON(n *models.Node, t reflect.Type, ctx ReadContext) (reflect.Value, error) {
	return f(n, t, ctx)
}

// Entry is the metadata registered for one type.
type Entry struct {
	Writer    Writer
	Reader    Reader
	Primitive bool

	exactOnly bool
}

type ifaceEntry struct {
	iface reflect.Type
	entry Entry
}

// Registry is an immutable view of type entries. Overlay returns a new view
// layered over the receiver; the receiver is never modified.
type Registry struct {
	parent   *Registry
	exact    map[reflect.Type]Entry
	ifaces   []ifaceEntry
	noCustom map[reflect.Type]struct{}
	enums    map[reflect.Type]*Enum

	writers sync.Map // reflect.Type -> Writer (nil when absent)
	readers sync.Map // reflect.Type -> Reader (nil when absent)
}

var (
	defaultsOnce sync.Once
	defaults     *Registry
)

// Defaults returns the process-wide built-in registry.
func Defaults() *Registry {
	defaultsOnce.Do(func() {
		defaults = newBuiltinRegistry()
	})
	return defaults
}

// WriterEntry pairs a type with its custom writer.
type WriterEntry struct {
	Type   reflect.Type
	Writer Writer
}

// ReaderEntry pairs a type with its custom reader.
type ReaderEntry struct {
	Type   reflect.Type
	Reader Reader
}

// Overlay collects entries to layer over a Registry. Interface entries are
// matched in the order given.
type Overlay struct {
	Writers    []WriterEntry
	Readers    []ReaderEntry
	Primitives []reflect.Type
	NoCustom   []reflect.Type
	Enums      []*Enum
}

// Overlay returns a registry view with o layered over r.
func (r *Registry) Overlay(o Overlay) *Registry {
	view := &Registry{
		parent:   r,
		exact:    make(map[reflect.Type]Entry),
		noCustom: make(map[reflect.Type]struct{}),
		enums:    make(map[reflect.Type]*Enum),
	}

	add := func(t reflect.Type, update func(*Entry)) {
		if t.Kind() == reflect.Interface {
			for i := range view.ifaces {
				if view.ifaces[i].iface == t {
					update(&view.ifaces[i].entry)
					return
				}
			}
			e := Entry{}
			update(&e)
			view.ifaces = append(view.ifaces, ifaceEntry{iface: t, entry: e})
			return
		}
		e := view.exact[t]
		update(&e)
		view.exact[t] = e
	}

	for _, we := range o.Writers {
		w := we.Writer
		add(we.Type, func(e *Entry) { e.Writer = w })
	}
	for _, re := range o.Readers {
		rd := re.Reader
		add(re.Type, func(e *Entry) { e.Reader = rd })
	}
	for _, t := range o.Primitives {
		add(t, func(e *Entry) { e.Primitive = true })
	}
	for _, t := range o.NoCustom {
		view.noCustom[t] = struct{}{}
	}
	for _, e := range o.Enums {
		view.enums[e.Type()] = e
	}
	return view
}

// WriterFor returns the most specific writer for t, or nil.
func (r *Registry) WriterFor(t reflect.Type) Writer {
	if cached, ok := r.writers.Load(t); ok {
		w, _ := cached.(Writer)
		return w
	}
	var w Writer
	if !r.isNoCustom(t) {
		if e, ok := r.find(t, func(e Entry) bool { return e.Writer != nil }); ok {
			w = e.Writer
		}
	}
	r.writers.Store(t, w)
	return w
}

// ReaderFor returns the most specific reader for t, or nil.
func (r *Registry) ReaderFor(t reflect.Type) Reader {
	if cached, ok := r.readers.Load(t); ok {
		rd, _ := cached.(Reader)
		return rd
	}
	var rd Reader
	if !r.isNoCustom(t) {
		if e, ok := r.find(t, func(e Entry) bool { return e.Reader != nil }); ok {
			rd = e.Reader
		}
	}
	r.readers.Store(t, rd)
	return rd
}

// IsLogicalPrimitive reports whether values of t are written as JSON scalars
// without identity tracking.
func (r *Registry) IsLogicalPrimitive(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if isBasicKind(t.Kind()) {
		return true
	}
	if r.isNoCustom(t) {
		return false
	}
	if _, ok := r.Enum(t); ok {
		return true
	}
	for v := r; v != nil; v = v.parent {
		if e, ok := v.exact[t]; ok && e.Primitive {
			return true
		}
		if e, ok := v.exact[reflect.PointerTo(t)]; ok && e.Primitive {
			return true
		}
	}
	return false
}

// Enum returns the enum registered for t.
func (r *Registry) Enum(t reflect.Type) (*Enum, bool) {
	for v := r; v != nil; v = v.parent {
		if e, ok := v.enums[t]; ok {
			return e, true
		}
	}
	return nil, false
}

func (r *Registry) isNoCustom(t reflect.Type) bool {
	base := t
	for base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	for v := r; v != nil; v = v.parent {
		if _, ok := v.noCustom[t]; ok {
			return true
		}
		if _, ok := v.noCustom[base]; ok {
			return true
		}
	}
	return false
}

func (r *Registry) find(t reflect.Type, want func(Entry) bool) (Entry, bool) {
	exactCandidates := []reflect.Type{t}
	if t.Kind() == reflect.Ptr {
		exactCandidates = append(exactCandidates, t.Elem())
	} else {
		exactCandidates = append(exactCandidates, reflect.PointerTo(t))
	}
	for _, c := range exactCandidates {
		for v := r; v != nil; v = v.parent {
			if e, ok := v.exact[c]; ok && want(e) {
				return e, true
			}
		}
	}

	for _, c := range embeddedTypes(t) {
		for v := r; v != nil; v = v.parent {
			for _, pc := range []reflect.Type{c, reflect.PointerTo(c)} {
				if e, ok := v.exact[pc]; ok && want(e) && !e.exactOnly {
					return e, true
				}
			}
		}
	}

	for v := r; v != nil; v = v.parent {
		for _, ie := range v.ifaces {
			if !want(ie.entry) {
				continue
			}
			if t.Implements(ie.iface) || (t.Kind() != reflect.Ptr && reflect.PointerTo(t).Implements(ie.iface)) {
				return ie.entry, true
			}
		}
	}
	return Entry{}, false
}

// embeddedTypes lists the struct types embedded in t, nearest first.
func embeddedTypes(t reflect.Type) []reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var out []reflect.Type
	seen := map[reflect.Type]bool{t: true}
	queue := []reflect.Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for i := 0; i < cur.NumField(); i++ {
			f := cur.Field(i)
			if !f.Anonymous {
				continue
			}
			ft := f.Type
			for ft.Kind() == reflect.Ptr {
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
