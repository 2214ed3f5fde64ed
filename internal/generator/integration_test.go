package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsongraph/internal/analyzer"
	"github.com/mcncl/jsongraph/internal/config"
	"github.com/mcncl/jsongraph/internal/models"
	"github.com/mcncl/jsongraph/internal/parser"
)

func TestIntegration_ParserAnalyzerGenerator(t *testing.T) {
	// Test the full pipeline: Parser -> Analyzer -> Generator
	jsonInput := `[
		{"@ref": 2},
		{"@id": 2, "@type": "*main.Hero", "name": "Alfred", "boss": {"@id": 3, "name": "Bruce"}},
		{"@ref": 3}
	]`

	root, err := parser.ParseString(jsonInput)
	require.NoError(t, err)

	result, err := analyzer.NewAnalyzer().Analyze(root, "butler.json")
	require.NoError(t, err)

	report, err := NewGenerator().GenerateReport([]models.AnalysisResult{result}, config.FormatText)
	require.NoError(t, err)

	assert.Contains(t, report, "source       butler.json\n")
	assert.Contains(t, report, "refs         2\n")
	assert.Contains(t, report, "forward refs 1\n")
	assert.Contains(t, report, "shared ids   2, 3\n")
	assert.Contains(t, report, "  *main.Hero 1\n")
}

func TestIntegration_WithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".jsongraph.yml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: toml\n  drop_keys:\n    - pattern: \"^_\"\n"), 0644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	root, err := parser.ParseString(`{"name":"a","_debug":{"@id":1,"self":{"@ref":1}}}`)
	require.NoError(t, err)

	result, err := analyzer.NewAnalyzerWithConfig(cfg).Analyze(root, "a.json")
	require.NoError(t, err)

	report, err := NewGenerator().GenerateReport([]models.AnalysisResult{result}, cfg.Output.Format)
	require.NoError(t, err)
	assert.Contains(t, report, "ids = 0")
	assert.Contains(t, report, "refs = 0")
	assert.NotContains(t, report, "shared_ids")
}
