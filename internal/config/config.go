package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsongraph/internal/meta"
	"github.com/mcncl/jsongraph/internal/options"
)

// Config represents the complete configuration for jsongraph
type Config struct {
	Write  WriteConfig  `yaml:"write" toml:"write"`
	Read   ReadConfig   `yaml:"read" toml:"read"`
	Output OutputConfig `yaml:"output" toml:"output"`
	Dev    DevConfig    `yaml:"dev" toml:"dev"`
}

// WriteConfig controls how documents are written
type WriteConfig struct {
	TypeInfo             string `yaml:"type_info" toml:"type_info"` // minimal, always or never
	PrettyPrint          bool   `yaml:"pretty_print" toml:"pretty_print"`
	ShortMetaKeys        bool   `yaml:"short_meta_keys" toml:"short_meta_keys"`
	SkipNullFields       bool   `yaml:"skip_null_fields" toml:"skip_null_fields"`
	LongsAsStrings       bool   `yaml:"longs_as_strings" toml:"longs_as_strings"`
	ForceMapKeysAndItems bool   `yaml:"force_map_keys_and_items" toml:"force_map_keys_and_items"`
	EnumPublicOnly       bool   `yaml:"enum_public_only" toml:"enum_public_only"`
	DateFormat           string `yaml:"date_format" toml:"date_format"`
	FieldNaming          string `yaml:"field_naming" toml:"field_naming"`
}

// ReadConfig controls how documents are read
type ReadConfig struct {
	ReturnAsMaps bool   `yaml:"return_as_maps" toml:"return_as_maps"`
	DateFormat   string `yaml:"date_format" toml:"date_format"`
	FieldNaming  string `yaml:"field_naming" toml:"field_naming"`
}

// OutputConfig controls what the CLI emits
type OutputConfig struct {
	Format      string      `yaml:"format" toml:"format"` // text, yaml or toml
	Renumber    bool        `yaml:"renumber" toml:"renumber"`
	PruneIDs    bool        `yaml:"prune_ids" toml:"prune_ids"`
	DropKeys    []KeyFilter `yaml:"drop_keys" toml:"drop_keys"`
	Concurrency int         `yaml:"concurrency" toml:"concurrency"`
}

// KeyFilter drops object members whose key matches Pattern
type KeyFilter struct {
	Pattern string `yaml:"pattern" toml:"pattern"`
	Comment string `yaml:"comment,omitempty" toml:"comment,omitempty"`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug   bool `yaml:"debug" toml:"debug"`
	Verbose bool `yaml:"verbose" toml:"verbose"`
}

// Report formats
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Type info policies
const (
	TypeInfoMinimal = "minimal"
	TypeInfoAlways  = "always"
	TypeInfoNever   = "never"
)

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Write: WriteConfig{
			TypeInfo: TypeInfoMinimal,
		},
		Output: OutputConfig{
			Format:      FormatText,
			Renumber:    true,
			DropKeys:    []KeyFilter{},
			Concurrency: 4,
		},
	}
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by the
// file extension
func LoadConfig(path string) (*Config, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return FindConfigFileFrom(currentDir)
}

// FindConfigFileFrom searches dir and its parents for a config file
func FindConfigFileFrom(dir string) string {
	configNames := []string{
		".jsongraph.yml", ".jsongraph.yaml", ".jsongraph.toml",
		"jsongraph.yml", "jsongraph.yaml", "jsongraph.toml",
	}

	currentDir := dir
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		// Move up one directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks enumerated values and compiles key filter patterns
func (c *Config) Validate() error {
	switch strings.ToLower(c.Write.TypeInfo) {
	case "", TypeInfoMinimal, TypeInfoAlways, TypeInfoNever:
	default:
		return fmt.Errorf("invalid write.type_info %q: want minimal, always or never", c.Write.TypeInfo)
	}

	switch strings.ToLower(c.Output.Format) {
	case "", FormatText, FormatYAML, FormatTOML:
	default:
		return fmt.Errorf("invalid output.format %q: want text, yaml or toml", c.Output.Format)
	}

	for _, naming := range []string{c.Write.FieldNaming, c.Read.FieldNaming} {
		if _, err := meta.ParseNaming(naming); err != nil {
			return err
		}
	}

	if c.Output.Concurrency < 0 {
		return fmt.Errorf("invalid output.concurrency %d", c.Output.Concurrency)
	}

	return c.compilePatterns()
}

// compilePatterns compiles all regex patterns in the config
func (c *Config) compilePatterns() error {
	for i := range c.Output.DropKeys {
		filter := &c.Output.DropKeys[i]
		regex, err := regexp.Compile(filter.Pattern)
		if err != nil {
			return fmt.Errorf("invalid drop_keys pattern '%s': %w", filter.Pattern, err)
		}
		filter.regex = regex
	}
	return nil
}

// MatchesKey checks if this filter matches the given object key
func (f *KeyFilter) MatchesKey(key string) bool {
	if f.regex == nil {
		// Try to compile if not already compiled (fallback)
		regex, err := regexp.Compile(f.Pattern)
		if err != nil {
			return false
		}
		f.regex = regex
	}
	return f.regex.MatchString(key)
}

// ShouldDropKey checks if an object member should be left out of the output
func (c *Config) ShouldDropKey(key string) bool {
	for i := range c.Output.DropKeys {
		if c.Output.DropKeys[i].MatchesKey(key) {
			return true
		}
	}
	return false
}

// WriteArgs maps the write section onto options.WriteBuilderFromMap arguments
func (c *Config) WriteArgs() map[string]interface{} {
	args := map[string]interface{}{
		options.PrettyPrint:          c.Write.PrettyPrint,
		options.ShortMetaKeys:        c.Write.ShortMetaKeys,
		options.SkipNullFields:       c.Write.SkipNullFields,
		options.WriteLongsAsStrings:  c.Write.LongsAsStrings,
		options.ForceMapKeysAndItems: c.Write.ForceMapKeysAndItems,
		options.EnumPublicOnly:       c.Write.EnumPublicOnly,
	}
	switch strings.ToLower(c.Write.TypeInfo) {
	case TypeInfoAlways:
		args[options.TypeInfo] = true
	case TypeInfoNever:
		args[options.TypeInfo] = false
	}
	if c.Write.DateFormat != "" {
		args[options.DateFormat] = c.Write.DateFormat
	}
	if c.Write.FieldNaming != "" {
		args[options.FieldNaming] = c.Write.FieldNaming
	}
	return args
}

// ReadArgs maps the read section onto options.ReadBuilderFromMap arguments
func (c *Config) ReadArgs() map[string]interface{} {
	args := map[string]interface{}{
		options.ReturnMaps: c.Read.ReturnAsMaps,
	}
	if c.Read.DateFormat != "" {
		args[options.DateFormat] = c.Read.DateFormat
	}
	if c.Read.FieldNaming != "" {
		args[options.FieldNaming] = c.Read.FieldNaming
	}
	return args
}

// Overrides holds the CLI flags that take precedence over the config file.
// Nil fields were not given on the command line.
type Overrides struct {
	Format        string
	PrettyPrint   *bool
	ShortMetaKeys *bool
	TypeInfo      string
	Debug         *bool
}

// MergeConfigs merges CLI overrides into a base config
// Non-empty values from override take precedence over base values
func MergeConfigs(base *Config, override Overrides) *Config {
	merged := *base // Start with a copy of base
	merged.Output.DropKeys = append([]KeyFilter(nil), base.Output.DropKeys...)

	if override.Format != "" {
		merged.Output.Format = override.Format
	}
	if override.TypeInfo != "" {
		merged.Write.TypeInfo = override.TypeInfo
	}
	if override.PrettyPrint != nil {
		merged.Write.PrettyPrint = *override.PrettyPrint
	}
	if override.ShortMetaKeys != nil {
		merged.Write.ShortMetaKeys = *override.ShortMetaKeys
	}
	if override.Debug != nil {
		merged.Dev.Debug = *override.Debug
	}
	return &merged
}

// LoadConfigWithCLI loads config with CLI argument precedence. An empty
// configPath falls back to FindConfigFile, then to the defaults.
func LoadConfigWithCLI(configPath string, override Overrides) (*Config, error) {
	// Start with defaults
	cfg := NewConfig()

	if configPath == "" {
		configPath = FindConfigFile()
	}
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	merged := MergeConfigs(cfg, override)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}
