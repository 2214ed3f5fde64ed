package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsongraph/internal/errors"
)

func TestNode_DefaultID(t *testing.T) {
	n := NewObject()
	assert.Equal(t, int64(-1), n.ID)
	assert.False(t, n.HasID())
	assert.False(t, n.IsRef())
}

func TestNode_PrimitiveValue(t *testing.T) {
	n := NewScalar(json.Number("10"))
	n.Type = "int64"
	v, err := n.PrimitiveValue()
	require.NoError(t, err)
	assert.Equal(t, int64(10), v)

	n.Type = "phoney"
	_, err = n.PrimitiveValue()
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "invalid primitive type")
	assert.ErrorIs(t, err, errors.ErrInvalidPrimitiveType)
}

func TestNode_PrimitiveValueConversions(t *testing.T) {
	tests := []struct {
		typ      string
		value    JSONValue
		expected interface{}
	}{
		{"int8", json.Number("-12"), int8(-12)},
		{"int32", "77", int32(77)},
		{"uint16", json.Number("65535"), uint16(65535)},
		{"float32", json.Number("1.5"), float32(1.5)},
		{"float64", json.Number("2.25"), 2.25},
		{"bool", true, true},
		{"bool", "false", false},
		{"string", "hi", "hi"},
		{"string", json.Number("12"), "12"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			n := NewScalar(tt.value)
			n.Type = tt.typ
			v, err := n.PrimitiveValue()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestNode_PrimitiveValueOverflow(t *testing.T) {
	n := NewScalar(json.Number("300"))
	n.Type = "int8"
	_, err := n.PrimitiveValue()
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeCoercion, errors.KindOf(err))
}

func TestNode_LenOnNonCollection(t *testing.T) {
	_, err := NewObject().Len()
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "called")
	assert.Contains(t, strings.ToLower(err.Error()), "non-collection")
}

func TestNode_AsArray(t *testing.T) {
	n := NewObject()
	assert.False(t, n.IsArray())
	assert.False(t, n.IsMap())

	require.NoError(t, n.Put(ItemsKey, NewArray(NewScalar("hello"), NewScalar("goodbye"))))
	assert.True(t, n.IsArray())
	assert.False(t, n.IsMap())

	n2 := NewObject()
	require.NoError(t, n2.Put(ItemsKey, NewArray(NewScalar("hello"), NewScalar("goodbye"))))
	assert.True(t, n.Equal(n2))

	length, err := n.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, length)
}

func TestNode_PutShortKeys(t *testing.T) {
	n := NewObject()
	require.NoError(t, n.Put(ShortIDKey, NewScalar(json.Number("4"))))
	require.NoError(t, n.Put(ShortTypeKey, NewScalar("time.Time")))
	require.NoError(t, n.Put(ShortKeysKey, NewArray(NewScalar(json.Number("1")))))
	require.NoError(t, n.Put(ShortItemsKey, NewArray(NewScalar("one"))))

	assert.Equal(t, int64(4), n.ID)
	assert.Equal(t, "time.Time", n.Type)
	assert.True(t, n.IsMap())
	assert.Empty(t, n.Fields)
}

func TestNode_EqualDistinguishesFields(t *testing.T) {
	a := NewObject()
	a.Set("name", NewScalar("Batman"))
	b := NewObject()
	b.Set("name", NewScalar("Robin"))
	assert.False(t, a.Equal(b))

	b.Set("name", NewScalar("Batman"))
	assert.True(t, a.Equal(b))

	b.Set("partner", NewRef(1))
	assert.False(t, a.Equal(b))
}

func TestNode_SetKeepsOrder(t *testing.T) {
	n := NewObject()
	n.Set("b", NewScalar(nil))
	n.Set("a", NewScalar(nil))
	n.Set("b", NewScalar(true))
	assert.Equal(t, []string{"b", "a"}, n.Keys)
	assert.Equal(t, true, n.Get("b").Value)
}

func TestCanonicalKey(t *testing.T) {
	for short, long := range map[string]string{"@i": "@id", "@r": "@ref", "@t": "@type", "@k": "@keys", "@e": "@items"} {
		got, ok := CanonicalKey(short)
		assert.True(t, ok)
		assert.Equal(t, long, got)
	}
	_, ok := CanonicalKey("name")
	assert.False(t, ok)
}
