package generator

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/models"
)

func batmanResult() models.AnalysisResult {
	return models.AnalysisResult{
		Source:    "test.json",
		Objects:   2,
		Scalars:   2,
		IDs:       1,
		Refs:      1,
		MaxDepth:  3,
		SharedIDs: []int64{1},
		Types:     map[string]int{"*main.Hero": 2},
	}
}

func arrayResult() models.AnalysisResult {
	return models.AnalysisResult{
		Source:   "b.json",
		Arrays:   1,
		Scalars:  3,
		MaxDepth: 2,
	}
}

func TestGenerateReport_Text(t *testing.T) {
	generator := NewGenerator()
	result, err := generator.GenerateReport([]models.AnalysisResult{batmanResult()}, "text")
	require.NoError(t, err)

	expected := `source       test.json
objects      2
arrays       0
maps         0
scalars      2
ids          1
refs         1
forward refs 0
max depth    3
shared ids   1
types
  *main.Hero 2
`
	assert.Equal(t, expected, result)
}

func TestGenerateReport_TextMultiple(t *testing.T) {
	generator := NewGenerator()
	result, err := generator.GenerateReport([]models.AnalysisResult{arrayResult(), arrayResult()}, "")
	require.NoError(t, err)

	block := `source       b.json
objects      0
arrays       1
maps         0
scalars      3
ids          0
refs         0
forward refs 0
max depth    2
`
	assert.Equal(t, block+"\n"+block, result)
	assert.NotContains(t, result, "shared ids")
	assert.NotContains(t, result, "types")
}

func TestGenerateReport_YAML(t *testing.T) {
	generator := NewGenerator()

	single, err := generator.GenerateReport([]models.AnalysisResult{batmanResult()}, "yaml")
	require.NoError(t, err)
	assert.Contains(t, single, "source: test.json")
	assert.Contains(t, single, "forward_refs: 0")

	var decoded models.AnalysisResult
	require.NoError(t, yaml.Unmarshal([]byte(single), &decoded))
	assert.Equal(t, batmanResult(), decoded)

	multiple, err := generator.GenerateReport([]models.AnalysisResult{batmanResult(), arrayResult()}, "YAML")
	require.NoError(t, err)

	var list []models.AnalysisResult
	require.NoError(t, yaml.Unmarshal([]byte(multiple), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "b.json", list[1].Source)
}

func TestGenerateReport_TOML(t *testing.T) {
	generator := NewGenerator()

	single, err := generator.GenerateReport([]models.AnalysisResult{batmanResult()}, "toml")
	require.NoError(t, err)
	assert.Contains(t, single, `source = "test.json"`)
	assert.Contains(t, single, "[types]")

	var decoded models.AnalysisResult
	_, err = toml.Decode(single, &decoded)
	require.NoError(t, err)
	assert.Equal(t, batmanResult(), decoded)

	multiple, err := generator.GenerateReport([]models.AnalysisResult{batmanResult(), arrayResult()}, "toml")
	require.NoError(t, err)
	assert.Contains(t, multiple, "[[report]]")

	var reports tomlReports
	_, err = toml.Decode(multiple, &reports)
	require.NoError(t, err)
	require.Len(t, reports.Reports, 2)
	assert.Equal(t, 1, reports.Reports[1].Arrays)
}

func TestGenerateReport_Errors(t *testing.T) {
	generator := NewGenerator()

	_, err := generator.GenerateReport(nil, "text")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeInput, errors.KindOf(err))

	_, err = generator.GenerateReport([]models.AnalysisResult{arrayResult()}, "xml")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfiguration, errors.KindOf(err))
}
