// Package config loads pysemver settings from the repository and the environment.
//
// Sources, lowest precedence first: built-in defaults, [tool.pysemver] in pyproject.toml,
// a dedicated pysemver.{toml,yaml,json} (or dot-prefixed) file in the repository root, and
// PYSEMVER_* environment variables. Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"pysemver/internal/breaking"
	"pysemver/internal/explain"
)

// CurrentVersion is the only supported config schema version.
const CurrentVersion = 1

// DefaultIgnoreFile is read from the repository root when IgnoreFile is not set.
const DefaultIgnoreFile = ".pysemver-ignore.toml"

// Config is the complete pysemver configuration.
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	// Packages are the top-level import packages to analyze, e.g. "requests".
	Packages []string `json:"packages" mapstructure:"packages"`
	// Baseline and Head are git revisions. An empty Head selects the working tree.
	Baseline string `json:"baseline" mapstructure:"baseline"`
	Head     string `json:"head" mapstructure:"head"`

	Style         string `json:"style" mapstructure:"style"`
	Format        string `json:"format" mapstructure:"format"`
	Color         string `json:"color" mapstructure:"color"`
	ShowAll       bool   `json:"showAll" mapstructure:"showAll"`
	DetectRenames bool   `json:"detectRenames" mapstructure:"detectRenames"`
	Workers       int    `json:"workers" mapstructure:"workers"`

	IgnoreFile string        `json:"ignoreFile" mapstructure:"ignoreFile"`
	Ignore     []IgnoreEntry `json:"ignore" mapstructure:"ignore"`

	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Sources lists the files the configuration was read from.
	Sources []string `json:"-" mapstructure:"-"`
}

// IgnoreEntry is one ignore rule as written in a config or ignore file.
type IgnoreEntry struct {
	Pattern string `json:"pattern" mapstructure:"pattern" toml:"pattern"`
	Kind    string `json:"kind,omitempty" mapstructure:"kind" toml:"kind"`
	Reason  string `json:"reason,omitempty" mapstructure:"reason" toml:"reason"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:    CurrentVersion,
		Packages:   []string{},
		Style:      string(explain.DefaultStyle),
		Format:     "human",
		Color:      "auto",
		IgnoreFile: DefaultIgnoreFile,
		Ignore:     []IgnoreEntry{},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("packages", d.Packages)
	v.SetDefault("baseline", d.Baseline)
	v.SetDefault("head", d.Head)
	v.SetDefault("style", d.Style)
	v.SetDefault("format", d.Format)
	v.SetDefault("color", d.Color)
	v.SetDefault("showAll", d.ShowAll)
	v.SetDefault("detectRenames", d.DetectRenames)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("ignoreFile", d.IgnoreFile)
	v.SetDefault("ignore", d.Ignore)
	v.SetDefault("logging.level", d.Logging.Level)
}

// configNames are searched in order; the first existing file wins.
var configNames = []string{
	"pysemver.toml", "pysemver.yaml", "pysemver.yml", "pysemver.json",
	".pysemver.toml", ".pysemver.yaml", ".pysemver.yml", ".pysemver.json",
}

// LoadConfig loads the configuration for the repository at repoRoot. Missing files are not
// an error; the defaults apply.
func LoadConfig(repoRoot string) (*Config, error) {
	return load(repoRoot, findConfigFile(repoRoot))
}

// LoadConfigFromPath loads the configuration with an explicit config file, which must exist.
// pyproject.toml is still read from repoRoot.
func LoadConfigFromPath(repoRoot, configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}
	return load(repoRoot, configPath)
}

func findConfigFile(repoRoot string) string {
	for _, name := range configNames {
		p := filepath.Join(repoRoot, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func load(repoRoot, configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	var sources []string

	pp, err := ReadPyproject(filepath.Join(repoRoot, PyprojectFile))
	if err != nil {
		return nil, err
	}
	if pp != nil && pp.Tool != nil {
		if err := v.MergeConfigMap(normalizeKeys(pp.Tool)); err != nil {
			return nil, fmt.Errorf("failed to merge [tool.pysemver]: %w", err)
		}
		sources = append(sources, filepath.Join(repoRoot, PyprojectFile))
	}

	if configPath != "" {
		fv := viper.New()
		fv.SetConfigFile(configPath)
		if err := fv.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
		if err := v.MergeConfigMap(normalizeKeys(fv.AllSettings())); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", configPath, err)
		}
		sources = append(sources, configPath)
	}

	v.SetEnvPrefix("PYSEMVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Sources = sources

	if len(cfg.Packages) == 0 && pp != nil && pp.Name != "" {
		cfg.Packages = []string{pp.ImportName()}
	}
	return &cfg, nil
}

// normalizeKeys drops '-' and '_' from keys so that "detect-renames", "detect_renames" and
// "detectRenames" all decode into the same field.
func normalizeKeys(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, val := range m {
		key := strings.NewReplacer("-", "", "_", "").Replace(k)
		if nested, ok := val.(map[string]interface{}); ok {
			val = normalizeKeys(nested)
		}
		out[key] = val
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if _, err := explain.ParseStyle(c.Style); err != nil {
		return &ConfigError{Field: "style", Message: err.Error()}
	}
	if !oneOf(c.Format, "human", "json", "yaml") {
		return &ConfigError{Field: "format", Message: fmt.Sprintf("unknown format %q (want human, json or yaml)", c.Format)}
	}
	if !oneOf(c.Color, "auto", "always", "never") {
		return &ConfigError{Field: "color", Message: fmt.Sprintf("unknown color mode %q (want auto, always or never)", c.Color)}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Message: "must not be negative"}
	}
	for i, p := range c.Packages {
		if p == "" || strings.ContainsAny(p, "/\\ ") {
			return &ConfigError{Field: fmt.Sprintf("packages[%d]", i), Message: fmt.Sprintf("invalid package name %q", p)}
		}
	}
	for i, e := range c.Ignore {
		if err := e.validate(); err != nil {
			err.Field = fmt.Sprintf("ignore[%d].%s", i, err.Field)
			return err
		}
	}
	return nil
}

func (e IgnoreEntry) validate() *ConfigError {
	if e.Pattern == "" {
		return &ConfigError{Field: "pattern", Message: "must not be empty"}
	}
	if _, err := path.Match(e.Pattern, ""); err != nil {
		return &ConfigError{Field: "pattern", Message: fmt.Sprintf("invalid glob %q", e.Pattern)}
	}
	if e.Kind != "" {
		if _, ok := breaking.ParseFindingKind(e.Kind); !ok {
			return &ConfigError{Field: "kind", Message: fmt.Sprintf("unknown finding kind %q", e.Kind)}
		}
	}
	return nil
}

// Rule converts the entry to a classifier ignore rule. The entry must be valid.
func (e IgnoreEntry) Rule() breaking.IgnoreRule {
	return breaking.IgnoreRule{Pattern: e.Pattern, Kind: breaking.FindingKind(e.Kind), Reason: e.Reason}
}

// IgnoreRules returns the inline ignore rules as classifier rules.
func (c *Config) IgnoreRules() []breaking.IgnoreRule {
	rules := make([]breaking.IgnoreRule, 0, len(c.Ignore))
	for _, e := range c.Ignore {
		rules = append(rules, e.Rule())
	}
	return rules
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
