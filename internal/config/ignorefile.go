package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"pysemver/internal/breaking"
)

type ignoreFile struct {
	Ignore []IgnoreEntry `toml:"ignore"`
}

// LoadIgnoreFile reads ignore rules from a TOML file of [[ignore]] tables:
//
//	[[ignore]]
//	pattern = "mypkg.legacy.*"
//	kind = "object-removed"
//	reason = "deprecated since 2.0"
//
// A missing file yields no rules. Unknown keys are rejected so that typos do not silently
// disable a rule.
func LoadIgnoreFile(path string) ([]breaking.IgnoreRule, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var f ignoreFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, &ConfigError{Field: filepath.Base(path), Message: err.Error()}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &ConfigError{Field: filepath.Base(path), Message: "unknown keys: " + strings.Join(keys, ", ")}
	}

	rules := make([]breaking.IgnoreRule, 0, len(f.Ignore))
	for i, e := range f.Ignore {
		if cerr := e.validate(); cerr != nil {
			cerr.Field = filepath.Base(path) + ": ignore[" + strconv.Itoa(i) + "]." + cerr.Field
			return nil, cerr
		}
		rules = append(rules, e.Rule())
	}
	return rules, nil
}

// LoadIgnoreRules returns the inline rules followed by those of the ignore file, resolved
// against repoRoot when relative.
func (c *Config) LoadIgnoreRules(repoRoot string) ([]breaking.IgnoreRule, error) {
	rules := c.IgnoreRules()
	if c.IgnoreFile == "" {
		return rules, nil
	}
	p := c.IgnoreFile
	if !filepath.IsAbs(p) {
		p = filepath.Join(repoRoot, p)
	}
	fromFile, err := LoadIgnoreFile(p)
	if err != nil {
		return nil, err
	}
	return append(rules, fromFile...), nil
}
