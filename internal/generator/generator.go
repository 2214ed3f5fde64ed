package generator

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsongraph/internal/config"
	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/models"
)

// Generator renders analysis results as a report
type Generator struct{}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

// tomlReports nests several results as an array of tables.
type tomlReports struct {
	Reports []models.AnalysisResult `toml:"report"`
}

// GenerateReport renders results in the given format: text, yaml or toml.
// A single result is rendered on its own; several are rendered as a list.
func (g *Generator) GenerateReport(results []models.AnalysisResult, format string) (string, error) {
	if len(results) == 0 {
		return "", errors.NewInputError("no analysis results to report", errors.ErrNoInput)
	}

	switch strings.ToLower(format) {
	case "", config.FormatText:
		return g.text(results), nil

	case config.FormatYAML:
		var v interface{} = results
		if len(results) == 1 {
			v = results[0]
		}
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", errors.NewOutputError("failed to render YAML report", err)
		}
		return string(out), nil

	case config.FormatTOML:
		var v interface{} = tomlReports{Reports: results}
		if len(results) == 1 {
			v = results[0]
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(v); err != nil {
			return "", errors.NewOutputError("failed to render TOML report", err)
		}
		return buf.String(), nil
	}

	return "", errors.NewConfigurationError(fmt.Sprintf("unknown report format %q", format), nil)
}

// text writes one aligned block per result, separated by blank lines.
func (g *Generator) text(results []models.AnalysisResult) string {
	var buf bytes.Buffer
	for i, r := range results {
		if i > 0 {
			buf.WriteString("\n")
		}

		rows := [][2]string{
			{"source", r.Source},
			{"objects", fmt.Sprint(r.Objects)},
			{"arrays", fmt.Sprint(r.Arrays)},
			{"maps", fmt.Sprint(r.Maps)},
			{"scalars", fmt.Sprint(r.Scalars)},
			{"ids", fmt.Sprint(r.IDs)},
			{"refs", fmt.Sprint(r.Refs)},
			{"forward refs", fmt.Sprint(r.ForwardRefs)},
			{"max depth", fmt.Sprint(r.MaxDepth)},
		}
		if len(r.SharedIDs) > 0 {
			ids := make([]string, len(r.SharedIDs))
			for j, id := range r.SharedIDs {
				ids[j] = fmt.Sprint(id)
			}
			rows = append(rows, [2]string{"shared ids", strings.Join(ids, ", ")})
		}
		writeAligned(&buf, "", rows)

		if len(r.Types) > 0 {
			// Sort type names for consistent output
			names := make([]string, 0, len(r.Types))
			for name := range r.Types {
				names = append(names, name)
			}
			sort.Strings(names)

			typeRows := make([][2]string, len(names))
			for j, name := range names {
				typeRows[j] = [2]string{name, fmt.Sprint(r.Types[name])}
			}
			buf.WriteString("types\n")
			writeAligned(&buf, "  ", typeRows)
		}
	}
	return buf.String()
}

func writeAligned(buf *bytes.Buffer, indent string, rows [][2]string) {
	width := 0
	for _, row := range rows {
		if len(row[0]) > width {
			width = len(row[0])
		}
	}
	for _, row := range rows {
		fmt.Fprintf(buf, "%s%-*s %s\n", indent, width, row[0], row[1])
	}
}
