package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsongraph/internal/models"
	"github.com/mcncl/jsongraph/internal/parser"
	"github.com/mcncl/jsongraph/internal/resolver"
)

func TestIntegration_ParserFormatterResolver(t *testing.T) {
	// Parse -> format with short keys -> parse again -> resolve
	jsonInput := `{
		"@id": 1,
		"@type": "*main.Hero",
		"name": "Batman",
		"partner": {
			"name": "Robin",
			"partner": {"@ref": 1}
		},
		"gadgets": {"@id": 2, "@items": ["rope", {"@ref": 2}]},
		"scores": {"@keys": ["a"], "@items": [1.5]}
	}`

	original, err := parser.ParseString(jsonInput)
	require.NoError(t, err)

	f := NewFormatter()
	f.Keys = models.ShortMetaKeys
	short, err := f.Format(original)
	require.NoError(t, err)
	assert.NotContains(t, short, `"@id"`)

	reparsed, err := parser.ParseString(short)
	require.NoError(t, err)
	assert.True(t, original.Equal(reparsed))

	table, err := resolver.Resolve(reparsed)
	require.NoError(t, err)
	assert.Len(t, table, 2)
	assert.Same(t, reparsed, reparsed.Get("partner").Get("partner").Target)

	long, err := NewFormatter().Format(reparsed)
	require.NoError(t, err)
	again, err := parser.ParseString(long)
	require.NoError(t, err)
	assert.True(t, original.Equal(again))
}

func TestIntegration_PrettyIsStable(t *testing.T) {
	jsonInput := `[{"@id":3,"v":[]},{"@ref":3},{}]`

	root, err := parser.ParseString(jsonInput)
	require.NoError(t, err)

	f := NewFormatter()
	f.Pretty = true
	first, err := f.Format(root)
	require.NoError(t, err)

	root, err = parser.ParseString(first)
	require.NoError(t, err)
	second, err := f.Format(root)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, `"@id": 1`)
}
