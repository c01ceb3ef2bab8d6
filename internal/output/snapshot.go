package output

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SnapshotExcludeFields lists fields to exclude when comparing reports in tests
var SnapshotExcludeFields = []string{
	"tool.version",
}

// NormalizeForSnapshot removes version-dependent fields for comparison
func NormalizeForSnapshot(data []byte) ([]byte, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	for _, field := range SnapshotExcludeFields {
		removeNestedField(parsed, field)
	}

	return DeterministicEncodeIndented(parsed, "  ")
}

// CompareSnapshots returns true if two reports are identical
// (ignoring version-dependent fields)
func CompareSnapshots(a, b []byte) (bool, string) {
	normalizedA, err := NormalizeForSnapshot(a)
	if err != nil {
		return false, "failed to normalize snapshot A: " + err.Error()
	}
	normalizedB, err := NormalizeForSnapshot(b)
	if err != nil {
		return false, "failed to normalize snapshot B: " + err.Error()
	}

	if !bytes.Equal(normalizedA, normalizedB) {
		return false, "snapshots differ"
	}
	return true, ""
}

// removeNestedField removes a field addressed in dot notation, e.g. "tool.version".
func removeNestedField(data map[string]interface{}, path string) {
	if path == "" {
		return
	}
	parts := strings.Split(path, ".")

	current := data
	for _, p := range parts[:len(parts)-1] {
		next, ok := current[p].(map[string]interface{})
		if !ok {
			return
		}
		current = next
	}
	delete(current, parts[len(parts)-1])
}
