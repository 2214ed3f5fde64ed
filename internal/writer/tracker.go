package writer

import (
	"reflect"
)

// identity is the reference-equality key of a pointer, map or slice value.
// Slices sharing a backing array are only the same identity when they also
// agree on length.
type identity struct {
	addr uintptr
	typ  reflect.Type
	len  int
}

// identityOf returns the identity of v and whether v has one.
func identityOf(v reflect.Value) (identity, bool) {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() || v.Type().Elem().Size() == 0 {
			return identity{}, false
		}
		return identity{addr: v.Pointer(), typ: v.Type()}, true
	case reflect.Map:
		if v.IsNil() {
			return identity{}, false
		}
		return identity{addr: v.Pointer(), typ: v.Type()}, true
	case reflect.Slice:
		// Empty slices and zero-size elements may share the runtime's zero
		// allocation without aliasing each other.
		if v.IsNil() || v.Len() == 0 || v.Type().Elem().Size() == 0 {
			return identity{}, false
		}
		return identity{addr: v.Pointer(), typ: v.Type(), len: v.Len()}, true
	}
	return identity{}, false
}

// Tracker counts identity visits during the trace pass and hands out @id
// values during the emit pass. A Tracker belongs to a single write.
type Tracker struct {
	visits map[identity]int
	ids    map[identity]int64
	next   int64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		visits: make(map[identity]int),
		ids:    make(map[identity]int64),
		next:   1,
	}
}

// Visit records one encounter and reports whether it was the first.
func (t *Tracker) Visit(key identity) bool {
	t.visits[key]++
	return t.visits[key] == 1
}

// Shared reports whether key was encountered more than once.
func (t *Tracker) Shared(key identity) bool {
	return t.visits[key] > 1
}

// Assign gives key the next id.
func (t *Tracker) Assign(key identity) int64 {
	id := t.next
	t.next++
	t.ids[key] = id
	return id
}

// ID returns the id assigned to key.
func (t *Tracker) ID(key identity) (int64, bool) {
	id, ok := t.ids[key]
	return id, ok
}

// SharedCount returns how many identities were visited more than once.
func (t *Tracker) SharedCount() int {
	n := 0
	for _, c := range t.visits {
		if c > 1 {
			n++
		}
	}
	return n
}

// Assigned returns how many ids were handed out.
func (t *Tracker) Assigned() int {
	return len(t.ids)
}
