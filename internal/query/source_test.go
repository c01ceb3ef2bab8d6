package query

import (
	"context"
	"path/filepath"
	"testing"

	"pysemver/internal/config"
	"pysemver/internal/errors"
	"pysemver/internal/filetree"
	"pysemver/internal/output"
	"pysemver/internal/slogutil"
	"pysemver/internal/testutil"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(t.TempDir(), slogutil.NewDiscardLogger(), config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func TestLocatePackage(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"flat layout", map[string]string{"mylib/__init__.py": "", "setup.py": ""}, "mylib/__init__.py"},
		{"src layout", map[string]string{"src/mylib/__init__.py": "", "tests/test_x.py": ""}, "mylib/__init__.py"},
		{"single module", map[string]string{"mylib.py": ""}, "mylib.py"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, err := locatePackage(filetree.FromStrings(tt.files), "mylib")
			if err != nil {
				t.Fatalf("locatePackage() error = %v", err)
			}
			if _, ok := pkg.Read(tt.want); !ok {
				t.Errorf("expected %s in %v", tt.want, pkg.Paths())
			}
		})
	}

	_, err := locatePackage(filetree.FromStrings(map[string]string{"other/__init__.py": ""}), "mylib")
	if errors.CodeOf(err) != errors.TreeUnavailable {
		t.Errorf("missing package: got %v", err)
	}
}

func TestSources(t *testing.T) {
	ctx := context.Background()

	t.Run("static without tree", func(t *testing.T) {
		_, _, err := StaticSource{Revision: output.Revision{Ref: "x"}}.Load(ctx)
		if errors.CodeOf(err) != errors.TreeUnavailable {
			t.Errorf("got %v", err)
		}
	})

	t.Run("git outside a repository", func(t *testing.T) {
		_, rev, err := GitSource{Ref: "v1.0.0"}.Load(ctx)
		if errors.CodeOf(err) != errors.TreeUnavailable || rev.Ref != "v1.0.0" {
			t.Errorf("got %v, %+v", err, rev)
		}
	})

	t.Run("directory", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteTree(t, dir, map[string]string{
			"mylib/__init__.py": "x = 1\n",
			"mylib/build/gen.py": "y = 2\n",
			".gitignore":         "build/\n",
		})
		tree, rev, err := DirSource{Root: dir, Worktree: true, Commit: "abc"}.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !rev.Worktree || rev.Commit != "abc" {
			t.Errorf("revision = %+v", rev)
		}
		if _, ok := tree.Read("mylib/__init__.py"); !ok {
			t.Error("source file missing")
		}
		if _, ok := tree.Read("mylib/build/gen.py"); ok {
			t.Error(".gitignore should be honoured")
		}
	})

	t.Run("missing archive", func(t *testing.T) {
		_, rev, err := ArchiveSource{Path: filepath.Join(t.TempDir(), "mylib-1.0.tar.gz")}.Load(ctx)
		if errors.CodeOf(err) != errors.TreeUnavailable || rev.Ref != "mylib-1.0.tar.gz" {
			t.Errorf("got %v, %+v", err, rev)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, _, err := (DirSource{Root: t.TempDir()}).Load(cctx); err == nil {
			t.Error("expected context error")
		}
	})
}

func TestCompare_NoPackages(t *testing.T) {
	engine := newTestEngine(t)
	src := StaticSource{Tree: filetree.FromStrings(nil)}

	_, err := engine.Compare(context.Background(), src, src, CompareOptions{})
	if errors.CodeOf(err) != errors.ConfigInvalid {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestCompare_UnavailableRevision(t *testing.T) {
	engine := newTestEngine(t)
	head := StaticSource{Tree: filetree.FromStrings(map[string]string{"a/__init__.py": ""})}
	baseline := GitSource{Ref: "v1.0.0"}

	report, err := engine.Compare(context.Background(), baseline, head, CompareOptions{Packages: []string{"b", "a"}})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(report.Packages) != 2 || report.Packages[0].Name != "a" {
		t.Fatalf("packages = %+v", report.Packages)
	}
	for _, p := range report.Packages {
		if p.Error == nil || p.Error.Code != string(errors.TreeUnavailable) {
			t.Errorf("package %s error = %+v", p.Name, p.Error)
		}
	}
	if report.ExitCode() != 2 {
		t.Errorf("ExitCode() = %d, want 2", report.ExitCode())
	}
}

func TestCompareOptions_FallBackToConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Packages = []string{"mylib"}
	cfg.Workers = 3
	cfg.DetectRenames = true
	engine, err := NewEngine(t.TempDir(), nil, cfg)
	if err != nil {
		t.Fatal(err)
	}

	got := engine.compareOptions(CompareOptions{})
	if len(got.Packages) != 1 || got.Workers != 3 || !got.DetectRenames {
		t.Errorf("compareOptions() = %+v", got)
	}

	got = engine.compareOptions(CompareOptions{Packages: []string{"other"}, Workers: 1})
	if got.Packages[0] != "other" || got.Workers != 1 {
		t.Errorf("explicit options should win: %+v", got)
	}
}
