//go:build cgo

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"pysemver/internal/testutil"
)

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"pyproject.toml": "[project]\nname = \"my-lib\"\n\n[tool.pysemver]\nformat = \"json\"\n",
	})
	testutil.WriteTree(t, dir, map[string]string{
		"base/src/my_lib/__init__.py": "def connect(host, port=80):\n    pass\n",
		"head/src/my_lib/__init__.py": "def connect(host):\n    pass\n",
	})

	t.Cleanup(func() {
		checkBaselineDir, checkHeadDir = "", ""
		exitStatus = exitOK
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"check", "-q",
		"-C", dir,
		"--baseline-dir", filepath.Join(dir, "base"),
		"--head-dir", filepath.Join(dir, "head"),
	})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if exitStatus != exitBreaking {
		t.Errorf("exitStatus = %d, want %d", exitStatus, exitBreaking)
	}
	got := out.String()
	for _, want := range []string{`"name": "my_lib"`, `"kind": "parameter-removed"`, `"breaking": true`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %s:\n%s", want, got)
		}
	}
}
