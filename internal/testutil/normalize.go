package testutil

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"
)

// Normalizer defines the interface for normalizing golden test data.
type Normalizer interface {
	// Normalize processes the data for stable comparison.
	Normalize(t *testing.T, s *Scenario, data any) any
}

// DefaultNormalizer drops fields that depend on the machine or build and rewrites paths.
type DefaultNormalizer struct{}

// Normalize applies all normalization rules for stable golden comparison.
// This is called before both compare AND update operations.
func (n *DefaultNormalizer) Normalize(t *testing.T, s *Scenario, data any) any {
	t.Helper()

	// Deep copy via JSON round-trip to avoid modifying original
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}

	var normalized any
	if err := json.Unmarshal(jsonBytes, &normalized); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}

	root := ""
	if s != nil {
		root = s.Root
	}
	return n.normalizeValue(normalized, root)
}

func (n *DefaultNormalizer) normalizeValue(v any, root string) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, item := range val {
			if n.isVolatileField(k) {
				continue
			}
			result[k] = n.normalizeValue(item, root)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = n.normalizeValue(item, root)
		}
		return result
	case string:
		return n.normalizeString(val, root)
	default:
		return v
	}
}

var tempDirPattern = regexp.MustCompile(`(?:/tmp/|/var/folders/[^/]+/[^/]+/[^/]+/)[^/\\ ]+`)

func (n *DefaultNormalizer) normalizeString(s, root string) string {
	if root != "" {
		s = strings.ReplaceAll(s, root, "<scenario>")
	}
	s = tempDirPattern.ReplaceAllString(s, "<tempdir>")
	return strings.ReplaceAll(s, "\\", "/")
}

// isVolatileField reports fields that change with the build or the checkout.
func (n *DefaultNormalizer) isVolatileField(name string) bool {
	volatileFields := map[string]bool{
		"id":       true,
		"version":  true,
		"commit":   true,
		"duration": true,
	}
	return volatileFields[name]
}

// MarshalNormalized normalizes data and marshals it to stable JSON bytes.
// Uses canonical key ordering and 2-space indentation with trailing newline.
func MarshalNormalized(t *testing.T, s *Scenario, data any) []byte {
	t.Helper()

	normalizer := &DefaultNormalizer{}
	normalized := normalizer.Normalize(t, s, data)

	// encoding/json sorts map keys; placeholders like <scenario> stay readable
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalized); err != nil {
		t.Fatalf("Failed to marshal normalized data: %v", err)
	}
	return buf.Bytes()
}

// NormalizeFilePath normalizes a file path for consistent comparison.
// - Converts to forward slashes
// - Makes relative to root
// - Cleans the path
func NormalizeFilePath(path, root string) string {
	path = filepath.ToSlash(path)
	root = filepath.ToSlash(root)

	if rel, err := filepath.Rel(root, path); err == nil {
		path = rel
	} else if strings.HasPrefix(path, root) {
		path = strings.TrimPrefix(strings.TrimPrefix(path, root), "/")
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// DeepEqual compares two values for equality, ignoring volatile fields.
func DeepEqual(t *testing.T, s *Scenario, a, b any) bool {
	t.Helper()

	normalizer := &DefaultNormalizer{}
	return reflect.DeepEqual(normalizer.Normalize(t, s, a), normalizer.Normalize(t, s, b))
}
