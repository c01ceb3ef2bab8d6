// Package testutil provides testing utilities for golden tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

// Scenario is one before/after pair of Python sources with its expected outcome.
//
//	testdata/scenarios/<name>/baseline/...   baseline tree
//	testdata/scenarios/<name>/head/...       head tree
//	testdata/scenarios/<name>/expected/      golden files
type Scenario struct {
	// Name is the scenario directory name
	Name string

	// Root is the absolute path to the scenario directory
	Root string

	BaselineDir string
	HeadDir     string

	// ExpectedDir is the path to the expected/ directory
	ExpectedDir string
}

// LoadScenario loads a scenario, failing the test on error.
func LoadScenario(t *testing.T, name string) *Scenario {
	t.Helper()

	root := filepath.Join(getScenariosRoot(t), name)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		t.Fatalf("Scenario directory not found: %s", root)
	}

	s := &Scenario{
		Name:        name,
		Root:        root,
		BaselineDir: filepath.Join(root, "baseline"),
		HeadDir:     filepath.Join(root, "head"),
		ExpectedDir: filepath.Join(root, "expected"),
	}
	for _, dir := range []string{s.BaselineDir, s.HeadDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Fatalf("Scenario %s is missing %s", name, filepath.Base(dir))
		}
	}
	return s
}

// ExpectedPath returns the path to a golden file within the scenario.
func (s *Scenario) ExpectedPath(name string) string {
	return filepath.Join(s.ExpectedDir, name+".golden")
}

// getScenariosRoot returns the absolute path to testdata/scenarios/.
func getScenariosRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	root := filepath.Join(projectRoot, "testdata", "scenarios")

	if _, err := os.Stat(root); os.IsNotExist(err) {
		t.Fatalf("Scenarios root not found: %s", root)
	}
	return root
}

// AvailableScenarios returns the names of all scenarios, sorted.
func AvailableScenarios(t *testing.T) []string {
	t.Helper()

	root := getScenariosRoot(t)
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("Failed to read scenarios directory: %v", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !isHiddenDir(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

// ForEachScenario runs fn for each scenario selected by the -scenario flag.
func ForEachScenario(t *testing.T, fn func(t *testing.T, s *Scenario)) {
	t.Helper()

	names := AvailableScenarios(t)
	if len(names) == 0 {
		t.Skip("No scenarios available")
	}

	for _, name := range names {
		if !ShouldRunScenario(name) {
			continue
		}
		t.Run(name, func(t *testing.T) {
			fn(t, LoadScenario(t, name))
		})
	}
}

// WriteTree writes files below dir, creating directories as needed.
func WriteTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func isHiddenDir(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
