package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsongraph/internal/config"
	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/models"
	"github.com/mcncl/jsongraph/internal/parser"
)

func analyze(t *testing.T, a *Analyzer, input string) models.AnalysisResult {
	t.Helper()
	root, err := parser.ParseString(input)
	require.NoError(t, err)
	result, err := a.Analyze(root, "test.json")
	require.NoError(t, err)
	return result
}

func TestAnalyze_SimpleObject(t *testing.T) {
	result := analyze(t, NewAnalyzer(), `{"name": "John Doe", "age": 30, "is_student": false, "score": 99.5}`)

	assert.Equal(t, models.AnalysisResult{
		Source:   "test.json",
		Objects:  1,
		Scalars:  4,
		MaxDepth: 2,
	}, result)
}

func TestAnalyze_BatmanAndRobin(t *testing.T) {
	jsonInput := `{
		"@id": 1,
		"@type": "*main.Hero",
		"name": "Batman",
		"partner": {
			"@type": "*main.Hero",
			"name": "Robin",
			"partner": {"@ref": 1}
		}
	}`
	result := analyze(t, NewAnalyzer(), jsonInput)

	assert.Equal(t, 2, result.Objects)
	assert.Equal(t, 2, result.Scalars)
	assert.Equal(t, 1, result.IDs)
	assert.Equal(t, 1, result.Refs)
	assert.Equal(t, 0, result.ForwardRefs)
	assert.Equal(t, 3, result.MaxDepth)
	assert.Equal(t, []int64{1}, result.SharedIDs)
	assert.Equal(t, map[string]int{"*main.Hero": 2}, result.Types)
}

func TestAnalyze_Collections(t *testing.T) {
	jsonInput := `[
		{"@keys": ["a", "b"], "@items": [1, 2]},
		{"@id": 2, "@type": "[]string", "@items": ["x"]},
		[],
		null
	]`
	result := analyze(t, NewAnalyzer(), jsonInput)

	assert.Equal(t, 3, result.Arrays)
	assert.Equal(t, 1, result.Maps)
	assert.Equal(t, 0, result.Objects)
	assert.Equal(t, 6, result.Scalars)
	assert.Equal(t, 1, result.IDs)
	assert.Empty(t, result.SharedIDs, "an unreferenced id is not shared")
	assert.Equal(t, map[string]int{"[]string": 1}, result.Types)
}

func TestAnalyze_ForwardReferences(t *testing.T) {
	result := analyze(t, NewAnalyzer(), `[{"@ref":3},{"@ref":3},{"@id":3,"x":{"@ref":3}},{"@id":1,"y":{"@ref":1}}]`)

	assert.Equal(t, 4, result.Refs)
	assert.Equal(t, 2, result.ForwardRefs)
	assert.Equal(t, 2, result.IDs)
	assert.Equal(t, []int64{1, 3}, result.SharedIDs)
}

func TestAnalyze_UnresolvedReference(t *testing.T) {
	root, err := parser.ParseString(`{"a":{"@ref":7}}`)
	require.NoError(t, err)

	_, err = NewAnalyzer().Analyze(root, "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeUnresolvedRef, errors.KindOf(err))
}

func TestAnalyze_NilRoot(t *testing.T) {
	_, err := NewAnalyzer().Analyze(nil, "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeInput, errors.KindOf(err))
}

func TestAnalyze_DefaultSource(t *testing.T) {
	root, err := parser.ParseString(`1`)
	require.NoError(t, err)

	result, err := NewAnalyzer().Analyze(root, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSource, result.Source)
	assert.Equal(t, 1, result.Scalars)
	assert.Equal(t, 1, result.MaxDepth)
}

func TestAnalyze_WithConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Output.DropKeys = []config.KeyFilter{{Pattern: "^_"}}
	require.NoError(t, cfg.Validate())

	result := analyze(t, NewAnalyzerWithConfig(cfg), `{"name":"a","_meta":{"@id":1,"deep":{"x":1}},"n":2}`)

	assert.Equal(t, 1, result.Objects)
	assert.Equal(t, 2, result.Scalars)
	assert.Equal(t, 0, result.IDs)
	assert.Equal(t, 2, result.MaxDepth)
}
