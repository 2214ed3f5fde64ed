package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsongraph/internal/config"
	"github.com/mcncl/jsongraph/internal/errors"
)

const batman = `{"@id":1,"@type":"*main.Hero","name":"Batman","partner":{"@id":2,"name":"Robin","partner":{"@ref":1}}}`

type testEnv struct {
	ctx    *Context
	stdout *bytes.Buffer
	logs   *bytes.Buffer
}

func newTestEnv(stdin string) *testEnv {
	stdout, logs := &bytes.Buffer{}, &bytes.Buffer{}
	return &testEnv{
		ctx: &Context{
			Config: config.NewConfig(),
			Logger: newLogger(logs, false),
			Stdin:  strings.NewReader(stdin),
			Stdout: stdout,
		},
		stdout: stdout,
		logs:   logs,
	}
}

func writeJSON(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFmt_Stdin(t *testing.T) {
	env := newTestEnv(batman)

	err := (&FmtCmd{}).Run(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, batman+"\n", env.stdout.String())
}

func TestFmt_Flags(t *testing.T) {
	tests := []struct {
		name     string
		cmd      FmtCmd
		input    string
		expected string
	}{
		{
			name:     "short keys",
			cmd:      FmtCmd{ShortKeys: true},
			input:    `{"@id":4,"self":{"@ref":4}}`,
			expected: `{"@i":1,"self":{"@r":1}}`,
		},
		{
			name:     "keep ids",
			cmd:      FmtCmd{KeepIDs: true},
			input:    `{"@id":4,"self":{"@ref":4}}`,
			expected: `{"@id":4,"self":{"@ref":4}}`,
		},
		{
			name:     "prune",
			cmd:      FmtCmd{Prune: true},
			input:    `[{"@id":1},{"@id":2,"s":{"@ref":2}}]`,
			expected: `[{},{"@id":1,"s":{"@ref":1}}]`,
		},
		{
			name:     "pretty",
			cmd:      FmtCmd{Pretty: true},
			input:    `{"a":[1]}`,
			expected: "{\n  \"a\": [\n    1\n  ]\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(tt.input)
			require.NoError(t, tt.cmd.Run(env.ctx))
			assert.Equal(t, tt.expected+"\n", env.stdout.String())
		})
	}
}

func TestFmt_LongKeysOverrideConfig(t *testing.T) {
	env := newTestEnv(`{"@i":3,"x":{"@r":3}}`)
	env.ctx.Config.Write.ShortMetaKeys = true

	require.NoError(t, (&FmtCmd{LongKeys: true}).Run(env.ctx))
	assert.Equal(t, `{"@id":1,"x":{"@ref":1}}`+"\n", env.stdout.String())
	assert.True(t, env.ctx.Config.Write.ShortMetaKeys, "the loaded config is not modified")
}

func TestFmt_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeJSON(t, dir, "a.json", `{"@id":9,"me":{"@ref":9}}`),
		writeJSON(t, dir, "b.json", `[1, 2]`),
		writeJSON(t, dir, "c.json", `"c"`),
	}
	env := newTestEnv("")
	env.ctx.Config.Output.Concurrency = 2

	cmd := &FmtCmd{Inputs: Inputs{Files: files}}
	require.NoError(t, cmd.Run(env.ctx))
	assert.Equal(t, "{\"@id\":1,\"me\":{\"@ref\":1}}\n[1,2]\n\"c\"\n", env.stdout.String())

	cmd.Output = filepath.Join(dir, "out.json")
	err := cmd.Run(env.ctx)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfiguration, errors.KindOf(err))
}

func TestFmt_OutputFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.json")
	env := newTestEnv("")

	cmd := &FmtCmd{Inputs: Inputs{Files: []string{writeJSON(t, dir, "in.json", batman)}}, Output: out}
	require.NoError(t, cmd.Run(env.ctx))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, batman+"\n", string(content))
	assert.Empty(t, env.stdout.String())
	assert.Contains(t, env.logs.String(), "output written")
}

func TestFmt_DropKeys(t *testing.T) {
	env := newTestEnv(`{"name":"a","_trace":{"@id":1}}`)
	env.ctx.Config.Output.DropKeys = []config.KeyFilter{{Pattern: "^_"}}
	require.NoError(t, env.ctx.Config.Validate())

	require.NoError(t, (&FmtCmd{}).Run(env.ctx))
	assert.Equal(t, `{"name":"a"}`+"\n", env.stdout.String())
}

func TestInputErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		stdin string
		files []string
		want  errors.ErrorType
	}{
		{"empty stdin", "", nil, errors.ErrorTypeInput},
		{"malformed", `{"a":`, nil, errors.ErrorTypeMalformed},
		{"unresolved", `{"a":{"@ref":2}}`, nil, errors.ErrorTypeUnresolvedRef},
		{"duplicate id", `[{"@id":1},{"@id":1}]`, nil, errors.ErrorTypeMalformed},
		{"missing file", "", []string{filepath.Join(dir, "nope.json")}, errors.ErrorTypeInput},
		{"empty file", "", []string{writeJSON(t, dir, "empty.json", "")}, errors.ErrorTypeInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(tt.stdin)
			err := (&FmtCmd{Inputs: Inputs{Files: tt.files}}).Run(env.ctx)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.KindOf(err))
		})
	}
}

func TestInspect(t *testing.T) {
	env := newTestEnv(batman)

	require.NoError(t, (&InspectCmd{}).Run(env.ctx))
	out := env.stdout.String()
	assert.Contains(t, out, "source       <stdin>\n")
	assert.Contains(t, out, "ids          2\n")
	assert.Contains(t, out, "refs         1\n")
	assert.Contains(t, out, "shared ids   1\n")
	assert.Contains(t, out, "  *main.Hero 1\n")
}

func TestInspect_Formats(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeJSON(t, dir, "a.json", batman), writeJSON(t, dir, "b.json", `[]`)}

	env := newTestEnv("")
	require.NoError(t, (&InspectCmd{Inputs: Inputs{Files: files}, Format: "yaml"}).Run(env.ctx))
	assert.Contains(t, env.stdout.String(), "- source: "+files[0])
	assert.Contains(t, env.stdout.String(), "- source: "+files[1])

	env = newTestEnv(batman)
	env.ctx.Config.Output.Format = config.FormatTOML
	require.NoError(t, (&InspectCmd{}).Run(env.ctx))
	assert.Contains(t, env.stdout.String(), `source = "<stdin>"`)

	env = newTestEnv(batman)
	err := (&InspectCmd{Format: "xml"}).Run(env.ctx)
	assert.Equal(t, errors.ErrorTypeConfiguration, errors.KindOf(err))
}

func TestRoundtrip(t *testing.T) {
	env := newTestEnv(batman)

	require.NoError(t, (&RoundtripCmd{}).Run(env.ctx))
	assert.Equal(t, `{"@id":1,"name":"Batman","partner":{"name":"Robin","partner":{"@ref":1}}}`+"\n", env.stdout.String())
	assert.Contains(t, env.logs.String(), "ids_before=2")
	assert.Contains(t, env.logs.String(), "ids_after=1")
}

func TestRoundtrip_ShortKeysFromConfig(t *testing.T) {
	env := newTestEnv(`[{"@ref":5},{"@id":5,"n":1}]`)
	env.ctx.Config.Write.ShortMetaKeys = true

	require.NoError(t, (&RoundtripCmd{}).Run(env.ctx))
	assert.Equal(t, `[{"@i":1,"n":1},{"@r":1}]`+"\n", env.stdout.String())
}

func TestKongParsing(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	parser, err := kong.New(&CLI, kong.Name("jsongraph"), kong.Vars{"version": Version})
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"--debug", "fmt", "--pretty", "--prune", "a.json", "b.json"})
	require.NoError(t, err)
	assert.Equal(t, "fmt <files>", ctx.Command())
	assert.True(t, CLI.Debug)
	assert.True(t, CLI.Fmt.Pretty)
	assert.True(t, CLI.Fmt.Prune)
	assert.Len(t, CLI.Fmt.Files, 2)

	_, err = parser.Parse([]string{"fmt", "--short-keys", "--long-keys"})
	assert.Error(t, err, "key spellings are mutually exclusive")

	ctx, err = parser.Parse([]string{"inspect", "-f", "toml"})
	require.NoError(t, err)
	assert.Equal(t, "inspect", ctx.Command())
	assert.Equal(t, "toml", CLI.Inspect.Format)
}
