package config

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"pysemver/internal/breaking"
)

func TestLoadIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, DefaultIgnoreFile, `
[[ignore]]
pattern = "pkg.legacy.*"
kind = "object-removed"
reason = "deprecated in 1.4"

[[ignore]]
pattern = "pkg.internal_api"
`)

	rules, err := LoadIgnoreFile(p)
	if err != nil {
		t.Fatalf("LoadIgnoreFile() error = %v", err)
	}
	want := []breaking.IgnoreRule{
		{Pattern: "pkg.legacy.*", Kind: breaking.KindObjectRemoved, Reason: "deprecated in 1.4"},
		{Pattern: "pkg.internal_api"},
	}
	if !reflect.DeepEqual(rules, want) {
		t.Errorf("rules = %+v, want %+v", rules, want)
	}
}

func TestLoadIgnoreFile_Missing(t *testing.T) {
	rules, err := LoadIgnoreFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil || rules != nil {
		t.Errorf("LoadIgnoreFile(missing) = %v, %v", rules, err)
	}
}

func TestLoadIgnoreFile_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "unknown key",
			content: "[[ignore]]\npattern = \"pkg.a\"\nreasn = \"typo\"\n",
			wantMsg: "unknown keys: ignore.reasn",
		},
		{
			name:    "unknown kind",
			content: "[[ignore]]\npattern = \"pkg.a\"\nkind = \"removed\"\n",
			wantMsg: "unknown finding kind",
		},
		{
			name:    "missing pattern",
			content: "[[ignore]]\nreason = \"x\"\n",
			wantMsg: "must not be empty",
		},
		{
			name:    "syntax error",
			content: "[[ignore]\n",
			wantMsg: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, t.TempDir(), DefaultIgnoreFile, tt.content)
			_, err := LoadIgnoreFile(p)
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("LoadIgnoreFile() = %v, want *ConfigError", err)
			}
			if !strings.Contains(cerr.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want it to contain %q", cerr.Message, tt.wantMsg)
			}
		})
	}
}

func TestLoadIgnoreFile_ErrorNamesEntry(t *testing.T) {
	content := "[[ignore]]\npattern = \"pkg.a\"\n\n[[ignore]]\npattern = \"pkg.b\"\nkind = \"nope\"\n"
	p := writeFile(t, t.TempDir(), DefaultIgnoreFile, content)

	_, err := LoadIgnoreFile(p)
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("LoadIgnoreFile() = %v, want *ConfigError", err)
	}
	want := DefaultIgnoreFile + ": ignore[1].kind"
	if cerr.Field != want {
		t.Errorf("Field = %q, want %q", cerr.Field, want)
	}
}

func TestConfig_LoadIgnoreRules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "extra-ignore.toml", "[[ignore]]\npattern = \"pkg.b\"\n")

	cfg := DefaultConfig()
	cfg.Ignore = []IgnoreEntry{{Pattern: "pkg.a", Kind: "parameter-removed"}}
	cfg.IgnoreFile = "extra-ignore.toml"

	rules, err := cfg.LoadIgnoreRules(dir)
	if err != nil {
		t.Fatalf("LoadIgnoreRules() error = %v", err)
	}
	want := []breaking.IgnoreRule{
		{Pattern: "pkg.a", Kind: breaking.KindParamRemoved},
		{Pattern: "pkg.b"},
	}
	if !reflect.DeepEqual(rules, want) {
		t.Errorf("rules = %+v, want %+v", rules, want)
	}
}
