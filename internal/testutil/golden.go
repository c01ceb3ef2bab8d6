package testutil

import (
	"bytes"
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

var (
	// updateGolden controls whether golden files should be updated.
	// Use: go test ./... -run TestGolden -update
	updateGolden = flag.Bool("update", false, "update golden files")

	// scenarioFilter restricts which scenarios run.
	// Use: go test ./... -run TestGolden -scenario=removed-function,signatures
	scenarioFilter = flag.String("scenario", "", "filter scenarios (comma-separated names)")
)

// ShouldUpdate returns true if golden files should be updated.
func ShouldUpdate() bool {
	return *updateGolden
}

// ShouldRunScenario returns true if the named scenario is selected.
func ShouldRunScenario(name string) bool {
	if *scenarioFilter == "" {
		return true
	}
	for _, s := range strings.Split(*scenarioFilter, ",") {
		if strings.TrimSpace(s) == name {
			return true
		}
	}
	return false
}

// CompareGolden compares got against the golden file, failing with a diff on mismatch.
// If -update flag is set, updates the golden file instead of comparing.
func CompareGolden(t *testing.T, s *Scenario, name string, got []byte) {
	t.Helper()

	if len(got) > 0 && got[len(got)-1] != '\n' {
		got = append(got, '\n')
	}
	goldenPath := s.ExpectedPath(name)

	if *updateGolden {
		UpdateGolden(t, s, name, got)
		t.Logf("Updated golden: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create:\n  go test ./... -run %s -update",
				goldenPath, string(got), t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	if !bytes.Equal(got, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\n\nRun with -update to refresh:\n  go test ./... -run %s -update",
			name, unifiedDiff(string(expected), string(got), goldenPath), t.Name())
	}
}

// UpdateGolden writes data to the golden file.
func UpdateGolden(t *testing.T, s *Scenario, name string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(s.ExpectedDir, 0o755); err != nil {
		t.Fatalf("Failed to create expected directory: %v", err)
	}
	if err := os.WriteFile(s.ExpectedPath(name), data, 0o644); err != nil {
		t.Fatalf("Failed to write golden file: %v", err)
	}
}

// unifiedDiff renders the difference between the golden and actual content.
func unifiedDiff(expected, got, path string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(got),
		FromFile: path + " (expected)",
		ToFile:   path + " (got)",
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return text
}
