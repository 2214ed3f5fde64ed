package meta

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type base struct {
	ID      int
	Created string
}

type Animal struct {
	base
	Name   string
	secret string
}

type Dog struct {
	Animal
	Breed   string `json:"breed_name"`
	Ignored string `json:"-"`
	Tagline string `json:",omitempty"`
}

type withPointer struct {
	*Animal
	Owner string
}

type conflict struct {
	A
	B
}

type A struct{ Shared string }
type B struct{ Shared string }

type tagWins struct {
	A
	C
}

type C struct {
	Shared string `json:"Shared"`
}

func names(d *Descriptor) []string {
	out := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		out = append(out, f.Name)
	}
	return out
}

func TestDescribe_FlattensEmbeddedFields(t *testing.T) {
	c := NewCache(NamingAsIs, nil, nil)
	d := c.Describe(reflect.TypeOf(Dog{}))

	assert.Equal(t, []string{"ID", "Created", "Name", "breed_name", "Tagline"}, names(d))

	f, ok := d.Lookup("breed_name")
	require.True(t, ok)
	assert.Equal(t, "Breed", f.GoName)
	assert.Equal(t, reflect.TypeOf(Dog{}), f.Owner)

	f, ok = d.Lookup("ID")
	require.True(t, ok)
	assert.Equal(t, []int{0, 0, 0}, f.Index)
	assert.Equal(t, reflect.TypeOf(base{}), f.Owner)

	f, ok = d.Lookup("Tagline")
	require.True(t, ok)
	assert.True(t, f.OmitEmpty)

	_, ok = d.Lookup("secret")
	assert.False(t, ok)
	_, ok = d.Lookup("Ignored")
	assert.False(t, ok)
}

func TestDescribe_PointerAndNonStruct(t *testing.T) {
	c := NewCache(NamingAsIs, nil, nil)
	assert.Same(t, c.Describe(reflect.TypeOf(Dog{})), c.Describe(reflect.TypeOf(&Dog{})))
	assert.Empty(t, c.Describe(reflect.TypeOf(0)).Fields)
}

func TestDescribe_Conflicts(t *testing.T) {
	c := NewCache(NamingAsIs, nil, nil)

	d := c.Describe(reflect.TypeOf(conflict{}))
	assert.Empty(t, d.Fields, "ambiguous promoted fields cancel out")

	d = c.Describe(reflect.TypeOf(tagWins{}))
	require.Len(t, d.Fields, 1)
	assert.Equal(t, reflect.TypeOf(C{}), d.Fields[0].Owner)
}

func TestNaming(t *testing.T) {
	tests := []struct {
		naming Naming
		want   []string
	}{
		{NamingAsIs, []string{"ID", "Created", "Name", "breed_name", "Tagline"}},
		{NamingCamel, []string{"id", "created", "name", "breed_name", "tagline"}},
		{NamingSnake, []string{"id", "created", "name", "breed_name", "tagline"}},
		{NamingKebab, []string{"id", "created", "name", "breed_name", "tagline"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.naming), func(t *testing.T) {
			d := NewCache(tt.naming, nil, nil).Describe(reflect.TypeOf(Dog{}))
			assert.Equal(t, tt.want, names(d))
		})
	}

	assert.Equal(t, "first_name", NamingSnake.Apply("FirstName"))
	assert.Equal(t, "first-name", NamingKebab.Apply("FirstName"))
	assert.Equal(t, "firstName", NamingCamel.Apply("FirstName"))
}

func TestParseNaming(t *testing.T) {
	n, err := ParseNaming("Snake")
	require.NoError(t, err)
	assert.Equal(t, NamingSnake, n)

	n, err = ParseNaming("as-is")
	require.NoError(t, err)
	assert.Equal(t, NamingAsIs, n)

	_, err = ParseNaming("shouty")
	assert.Error(t, err)
}

func TestDescribe_ExcludeAcrossChain(t *testing.T) {
	exclude := NewFieldSet(map[reflect.Type][]string{
		reflect.TypeOf(Animal{}): {"Name"},
		reflect.TypeOf(&Dog{}):   {"breed_name"},
	})
	c := NewCache(NamingAsIs, nil, exclude)

	assert.Equal(t, []string{"ID", "Created", "Tagline"}, names(c.Describe(reflect.TypeOf(Dog{}))))
	assert.Equal(t, []string{"ID", "Created"}, names(c.Describe(reflect.TypeOf(Animal{}))))
	assert.Equal(t, []string{"ID", "Created", "Owner"}, names(c.Describe(reflect.TypeOf(withPointer{}))))
}

func TestDescribe_IncludeUnion(t *testing.T) {
	include := NewFieldSet(map[reflect.Type][]string{
		reflect.TypeOf(Dog{}):    {"Breed"},
		reflect.TypeOf(Animal{}): {"Name"},
	})
	c := NewCache(NamingAsIs, include, nil)

	assert.Equal(t, []string{"Name", "breed_name"}, names(c.Describe(reflect.TypeOf(Dog{}))))
	assert.Equal(t, []string{"Name"}, names(c.Describe(reflect.TypeOf(Animal{}))))
	assert.Equal(t, []string{"ID", "Created"}, names(c.Describe(reflect.TypeOf(base{}))))
}

func TestField_GetAndSettable(t *testing.T) {
	c := NewCache(NamingAsIs, nil, nil)
	d := c.Describe(reflect.TypeOf(withPointer{}))

	name, ok := d.Lookup("Name")
	require.True(t, ok)

	var w withPointer
	_, ok = name.Get(reflect.ValueOf(w))
	assert.False(t, ok, "nil embedded pointer")

	_, ok = name.Settable(reflect.ValueOf(&w).Elem())
	assert.True(t, ok)
	require.NotNil(t, w.Animal)

	fv, ok := name.Settable(reflect.ValueOf(&w).Elem())
	require.True(t, ok)
	fv.SetString("Rex")
	assert.Equal(t, "Rex", w.Name)

	got, ok := name.Get(reflect.ValueOf(w))
	require.True(t, ok)
	assert.Equal(t, "Rex", got.String())
}

func TestDescribe_Recursive(t *testing.T) {
	type node struct {
		Next *node
		Val  int
	}
	d := NewCache(NamingAsIs, nil, nil).Describe(reflect.TypeOf(node{}))
	assert.Equal(t, []string{"Next", "Val"}, names(d))
}
