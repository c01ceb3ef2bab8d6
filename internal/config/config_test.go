package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Style != "verbose" || cfg.Format != "human" || cfg.Color != "auto" {
		t.Errorf("output defaults = %q/%q/%q", cfg.Style, cfg.Format, cfg.Color)
	}
	if cfg.IgnoreFile != DefaultIgnoreFile {
		t.Errorf("IgnoreFile = %q", cfg.IgnoreFile)
	}
	if cfg.DetectRenames {
		t.Error("rename detection should be opt-in")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "bad version", modify: func(c *Config) { c.Version = 7 }, wantField: "version"},
		{name: "bad style", modify: func(c *Config) { c.Style = "fancy" }, wantField: "style"},
		{name: "bad format", modify: func(c *Config) { c.Format = "xml" }, wantField: "format"},
		{name: "bad color", modify: func(c *Config) { c.Color = "sometimes" }, wantField: "color"},
		{name: "negative workers", modify: func(c *Config) { c.Workers = -1 }, wantField: "workers"},
		{name: "path as package", modify: func(c *Config) { c.Packages = []string{"src/pkg"} }, wantField: "packages[0]"},
		{name: "empty pattern", modify: func(c *Config) { c.Ignore = []IgnoreEntry{{}} }, wantField: "ignore[0].pattern"},
		{name: "bad glob", modify: func(c *Config) { c.Ignore = []IgnoreEntry{{Pattern: "[x"}} }, wantField: "ignore[0].pattern"},
		{name: "unknown kind", modify: func(c *Config) {
			c.Ignore = []IgnoreEntry{{Pattern: "pkg.a"}, {Pattern: "pkg.b", Kind: "object-vanished"}}
		}, wantField: "ignore[1].kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if cerr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cerr.Field, tt.wantField)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "format", Message: "unknown format"}
	if got, want := err.Error(), "config error in field 'format': unknown format"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(cfg.Packages) != 0 {
		t.Errorf("Packages = %v", cfg.Packages)
	}
	if cfg.Format != "human" || len(cfg.Sources) != 0 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pysemver.toml", `
packages = ["alpha", "beta"]
baseline = "v1.0.0"
format = "json"
detect-renames = true
workers = 4

[logging]
level = "debug"

[[ignore]]
pattern = "alpha.legacy.*"
reason = "going away"
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !reflect.DeepEqual(cfg.Packages, []string{"alpha", "beta"}) {
		t.Errorf("Packages = %v", cfg.Packages)
	}
	if cfg.Baseline != "v1.0.0" || cfg.Format != "json" || !cfg.DetectRenames || cfg.Workers != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if len(cfg.Ignore) != 1 || cfg.Ignore[0].Pattern != "alpha.legacy.*" || cfg.Ignore[0].Reason != "going away" {
		t.Errorf("Ignore = %+v", cfg.Ignore)
	}
	if cfg.Style != "verbose" {
		t.Errorf("unset key lost its default: Style = %q", cfg.Style)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadConfig_YAMLDotfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".pysemver.yaml", "style: verbose\nshowAll: true\n")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Style != "verbose" || !cfg.ShowAll {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfig_Pyproject(t *testing.T) {
	dir := t.TempDir()
	pyproject := writeFile(t, dir, "pyproject.toml", `
[project]
name = "My-Lib"
version = "1.2.3"

[tool.pysemver]
baseline = "v1.2.3"
ignore-file = "api-ignore.toml"

[tool.black]
line-length = 100
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Baseline != "v1.2.3" || cfg.IgnoreFile != "api-ignore.toml" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Packages, []string{"my_lib"}) {
		t.Errorf("Packages = %v, want guessed from project name", cfg.Packages)
	}
	if !reflect.DeepEqual(cfg.Sources, []string{pyproject}) {
		t.Errorf("Sources = %v", cfg.Sources)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[tool.pysemver]\nformat = \"yaml\"\nstyle = \"verbose\"\n")
	writeFile(t, dir, "pysemver.toml", "format = \"json\"\n")
	t.Setenv("PYSEMVER_STYLE", "oneline")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, dedicated file should win over pyproject", cfg.Format)
	}
	if cfg.Style != "oneline" {
		t.Errorf("Style = %q, environment should win over files", cfg.Style)
	}
	if len(cfg.Sources) != 2 {
		t.Errorf("Sources = %v", cfg.Sources)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PYSEMVER_PACKAGES", "one,two")
	t.Setenv("PYSEMVER_WORKERS", "3")
	t.Setenv("PYSEMVER_LOGGING_LEVEL", "error")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !reflect.DeepEqual(cfg.Packages, []string{"one", "two"}) {
		t.Errorf("Packages = %v", cfg.Packages)
	}
	if cfg.Workers != 3 || cfg.Logging.Level != "error" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigFromPath(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "custom.json", `{"format": "yaml"}`)

	cfg, err := LoadConfigFromPath(dir, p)
	if err != nil {
		t.Fatalf("LoadConfigFromPath() error = %v", err)
	}
	if cfg.Format != "yaml" {
		t.Errorf("Format = %q", cfg.Format)
	}

	if _, err := LoadConfigFromPath(dir, filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pysemver.json", `{"format": `)
	if _, err := LoadConfig(dir); err == nil {
		t.Error("expected error for malformed config")
	}

	dir = t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[tool.pysemver\n")
	_, err := LoadConfig(dir)
	var cerr *ConfigError
	if !errors.As(err, &cerr) || cerr.Field != PyprojectFile {
		t.Errorf("LoadConfig() = %v, want pyproject ConfigError", err)
	}
}

func TestPyproject_ImportName(t *testing.T) {
	tests := map[string]string{
		"requests":          "requests",
		"My-Lib":            "my_lib",
		"zope.interface":    "zope_interface",
		"typing_extensions": "typing_extensions",
	}
	for name, want := range tests {
		if got := (&Pyproject{Name: name}).ImportName(); got != want {
			t.Errorf("ImportName(%q) = %q, want %q", name, got, want)
		}
	}
}
