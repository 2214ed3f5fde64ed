package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcncl/jsongraph/internal/analyzer"
	"github.com/mcncl/jsongraph/internal/config"
	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/formatter"
	"github.com/mcncl/jsongraph/internal/generator"
	"github.com/mcncl/jsongraph/internal/models"
	"github.com/mcncl/jsongraph/internal/options"
	"github.com/mcncl/jsongraph/internal/parser"
	"github.com/mcncl/jsongraph/internal/resolver"
	"github.com/mcncl/jsongraph/jsongraph"
)

// CLI defines the command-line interface
var CLI struct {
	Config  string           `help:"Path to a .jsongraph.yml or .jsongraph.toml config file. Searched for from the working directory when not given." short:"c" type:"path"`
	Debug   bool             `help:"Enable debug logging." short:"d"`
	Version kong.VersionFlag `help:"Show version information." short:"v"`

	Fmt       FmtCmd       `cmd:"" help:"Re-emit documents with renumbered @id values."`
	Inspect   InspectCmd   `cmd:"" help:"Report the identity structure of documents."`
	Roundtrip RoundtripCmd `cmd:"" help:"Read documents as raw maps and write them again with minimal identity."`
}

// Context holds the runtime context
type Context struct {
	Config *config.Config
	Logger *log.Logger
	Stdin  io.Reader
	Stdout io.Writer
}

// Version information
const (
	Version = "0.1.0"
)

// Inputs are the documents a command reads. No files means stdin.
type Inputs struct {
	Files []string `arg:"" optional:"" help:"Input JSON files. Reads stdin when none are given." type:"path"`
}

// FmtCmd re-emits documents through the formatter.
type FmtCmd struct {
	Inputs `embed:""`
	Output    string `help:"Path to output file. Only valid with a single input." short:"o" type:"path"`
	Pretty    bool   `help:"Indent the output." short:"p"`
	ShortKeys bool   `help:"Use the short meta keys @i, @r, @t, @k and @e." short:"s" xor:"keys"`
	LongKeys  bool   `help:"Use the long meta keys even if the config asks for short ones." xor:"keys"`
	KeepIDs   bool   `help:"Keep the input @id numbers instead of renumbering them."`
	Prune     bool   `help:"Drop @id values that nothing references."`
}

// InspectCmd reports node counts and reference structure.
type InspectCmd struct {
	Inputs `embed:""`
	Format string `help:"Report format: text, yaml or toml. Defaults to output.format from the config." short:"f"`
}

// RoundtripCmd reads documents as raw maps and writes them again.
type RoundtripCmd struct {
	Inputs `embed:""`
	Pretty bool `help:"Indent the output." short:"p"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("jsongraph"),
		kong.Description("A tool for JSON documents that carry @id/@ref object identity"),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("jsongraph version %s", Version)},
	)

	logger := newLogger(os.Stderr, CLI.Debug)

	debug := CLI.Debug
	overrides := config.Overrides{}
	if debug {
		overrides.Debug = &debug
	}
	cfg, err := config.LoadConfigWithCLI(CLI.Config, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(errors.NewConfigurationError(err.Error(), err)))
		os.Exit(1)
	}
	if cfg.Dev.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	err = ctx.Run(&Context{Config: cfg, Logger: logger, Stdin: os.Stdin, Stdout: os.Stdout})
	if err != nil {
		// Use our custom error handling to provide user-friendly error messages
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))

		// Show help on error
		fmt.Fprintf(os.Stderr, "\nFor help, run: jsongraph --help\n")

		os.Exit(1)
	}
}

func newLogger(w io.Writer, debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// Run formats every input and writes them in input order.
func (c *FmtCmd) Run(ctx *Context) error {
	cfg := c.merge(ctx.Config)
	if c.Output != "" && len(c.Files) > 1 {
		return errors.NewConfigurationError("--output needs exactly one input file", nil)
	}

	f := formatter.NewFormatter()
	f.Pretty = cfg.Write.PrettyPrint
	f.Keys = models.MetaKeysFor(cfg.Write.ShortMetaKeys)
	f.Renumber = cfg.Output.Renumber
	f.PruneIDs = cfg.Output.PruneIDs
	if len(cfg.Output.DropKeys) > 0 {
		f.Drop = cfg.ShouldDropKey
	}

	outputs, err := eachInput(ctx, cfg, c.Files, func(name string, root *models.Node) (string, error) {
		out, err := f.Format(root)
		if err != nil {
			return "", err
		}
		ctx.Logger.Debug("formatted document", "source", name, "bytes", len(out))
		return out, nil
	})
	if err != nil {
		return err
	}
	return writeOutput(ctx, c.Output, strings.Join(outputs, "\n"))
}

func (c *FmtCmd) merge(base *config.Config) *config.Config {
	overrides := config.Overrides{}
	yes, no := true, false
	if c.Pretty {
		overrides.PrettyPrint = &yes
	}
	if c.ShortKeys {
		overrides.ShortMetaKeys = &yes
	}
	if c.LongKeys {
		overrides.ShortMetaKeys = &no
	}
	cfg := config.MergeConfigs(base, overrides)
	if c.KeepIDs {
		cfg.Output.Renumber = false
	}
	if c.Prune {
		cfg.Output.PruneIDs = true
	}
	return cfg
}

// Run analyzes every input and prints one report.
func (c *InspectCmd) Run(ctx *Context) error {
	cfg := config.MergeConfigs(ctx.Config, config.Overrides{Format: c.Format})
	a := analyzer.NewAnalyzerWithConfig(cfg)

	results, err := eachInput(ctx, cfg, c.Files, func(name string, root *models.Node) (models.AnalysisResult, error) {
		return a.Analyze(root, name)
	})
	if err != nil {
		return err
	}

	report, err := generator.NewGenerator().GenerateReport(results, cfg.Output.Format)
	if err != nil {
		return err
	}
	return writeOutput(ctx, "", strings.TrimSuffix(report, "\n"))
}

// Run reads each input as raw maps and writes it again. Identifiers that
// nothing shares are dropped on the way.
func (c *RoundtripCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	if c.Pretty {
		pretty := true
		cfg = config.MergeConfigs(cfg, config.Overrides{PrettyPrint: &pretty})
	}

	ropts, err := options.ReadBuilderFromMap(cfg.ReadArgs()).ReturnAsMaps().WithLogger(ctx.Logger).Build()
	if err != nil {
		return err
	}
	wargs := cfg.WriteArgs()
	wargs[options.TypeInfo] = false
	wopts, err := options.WriteBuilderFromMap(wargs).WithLogger(ctx.Logger).Build()
	if err != nil {
		return err
	}

	outputs, err := eachInput(ctx, cfg, c.Files, func(name string, root *models.Node) (string, error) {
		before, err := analyzer.NewAnalyzer().Analyze(root, name)
		if err != nil {
			return "", err
		}

		raw, err := jsongraph.FromNode[interface{}](root, ropts)
		if err != nil {
			return "", err
		}
		out, err := jsongraph.ToJSON(raw, wopts)
		if err != nil {
			return "", err
		}

		rewritten, err := parser.ParseString(out)
		if err != nil {
			return "", err
		}
		after, err := analyzer.NewAnalyzer().Analyze(rewritten, name)
		if err != nil {
			return "", err
		}
		ctx.Logger.Info("round trip", "source", name, "ids_before", before.IDs, "ids_after", after.IDs)
		return out, nil
	})
	if err != nil {
		return err
	}
	return writeOutput(ctx, "", strings.Join(outputs, "\n"))
}

// eachInput parses and resolves every input, then runs fn on it. Files are
// processed concurrently up to the configured limit; results keep input
// order.
func eachInput[T any](ctx *Context, cfg *config.Config, files []string, fn func(name string, root *models.Node) (T, error)) ([]T, error) {
	if len(files) == 0 {
		root, err := readInput(ctx, "")
		if err != nil {
			return nil, err
		}
		out, err := fn(analyzer.DefaultSource, root)
		if err != nil {
			return nil, err
		}
		return []T{out}, nil
	}

	results := make([]T, len(files))
	var g errgroup.Group
	limit := cfg.Output.Concurrency
	if limit <= 0 {
		limit = -1
	}
	g.SetLimit(limit)

	for i, file := range files {
		g.Go(func() error {
			root, err := readInput(ctx, file)
			if err != nil {
				ctx.Logger.Error("failed to read input", "source", file)
				return err
			}
			out, err := fn(file, root)
			if err != nil {
				ctx.Logger.Error("failed to process input", "source", file)
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// readInput parses JSON from a file, or from stdin when path is empty, and
// links its references.
func readInput(ctx *Context, path string) (*models.Node, error) {
	var (
		root *models.Node
		err  error
	)
	if path != "" {
		root, err = parser.ParseFile(path)
	} else {
		root, err = parseStdin(ctx)
	}
	if err != nil {
		return nil, err
	}

	if _, err := resolver.NewResolver(ctx.Logger).Resolve(root); err != nil {
		return nil, err
	}
	return root, nil
}

func parseStdin(ctx *Context) (*models.Node, error) {
	// Refuse to wait on an interactive terminal
	if f, ok := ctx.Stdin.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return nil, errors.NewInputError("failed to access stdin", err)
		}
		if info.Mode()&os.ModeCharDevice != 0 {
			return nil, errors.NewInputError("no input provided", errors.ErrNoInput)
		}
	}

	jsonData, err := io.ReadAll(ctx.Stdin)
	if err != nil {
		return nil, errors.NewInputError("failed to read from stdin", err)
	}
	if len(jsonData) == 0 {
		return nil, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return parser.ParseString(string(jsonData))
}

// writeOutput writes text to a file, or to stdout when path is empty
func writeOutput(ctx *Context, path, text string) error {
	if path != "" {
		// Write to file
		if err := os.WriteFile(path, []byte(text+"\n"), 0644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		ctx.Logger.Info("output written", "path", path)
		return nil
	}

	// Write to stdout
	if _, err := fmt.Fprintln(ctx.Stdout, text); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
