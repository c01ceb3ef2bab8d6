package git

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"pysemver/internal/errors"
)

type testRepo struct {
	t   *testing.T
	dir string
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	r := &testRepo{t: t, dir: t.TempDir()}
	r.git("init", "-q")
	return r
}

func (r *testRepo) git(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %v: %v\n%s", args, err, out)
	}
	return string(out)
}

func (r *testRepo) commit(msg string, files map[string]string) {
	r.t.Helper()
	for name, content := range files {
		p := filepath.Join(r.dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			r.t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			r.t.Fatal(err)
		}
	}
	r.git("add", ".")
	r.git("commit", "-q", "-m", msg)
}

func setupTestAdapter(t *testing.T, r *testRepo) *GitAdapter {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	adapter, err := NewGitAdapter(r.dir, logger)
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}
	return adapter
}

func TestNewGitAdapter_NotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewGitAdapter(t.TempDir(), logger)
	if errors.CodeOf(err) != errors.TreeUnavailable {
		t.Fatalf("expected TREE_UNAVAILABLE, got %v", err)
	}
	e, _ := errors.As(err)
	if len(e.SuggestedFixes) == 0 {
		t.Error("expected suggested fixes")
	}
}

func TestNewGitAdapter_RequiresLogger(t *testing.T) {
	if _, err := NewGitAdapter(".", nil); errors.CodeOf(err) != errors.InternalError {
		t.Errorf("expected INTERNAL_ERROR, got %v", err)
	}
}

func TestGitAdapter_ResolveCommit(t *testing.T) {
	r := newTestRepo(t)
	r.commit("v1", map[string]string{"pkg/__init__.py": "def f(a): ...\n"})
	r.git("tag", "v1.0.0")
	adapter := setupTestAdapter(t, r)
	ctx := context.Background()

	head, err := adapter.GetHeadCommit(ctx)
	if err != nil {
		t.Fatalf("GetHeadCommit() error = %v", err)
	}
	if len(head) != 40 {
		t.Errorf("expected full hash, got %q", head)
	}

	tagged, err := adapter.ResolveCommit(ctx, "v1.0.0")
	if err != nil {
		t.Fatalf("ResolveCommit(tag) error = %v", err)
	}
	if tagged != head {
		t.Errorf("tag resolved to %s, want %s", tagged, head)
	}

	for _, ref := range []string{"no-such-ref", "", "--all"} {
		t.Run(ref, func(t *testing.T) {
			if _, err := adapter.ResolveCommit(ctx, ref); errors.CodeOf(err) != errors.TreeUnavailable {
				t.Errorf("ResolveCommit(%q) error = %v, want TREE_UNAVAILABLE", ref, err)
			}
		})
	}
}

func TestGitAdapter_Archive(t *testing.T) {
	r := newTestRepo(t)
	r.commit("v1", map[string]string{
		"pkg/__init__.py": "def f(a): ...\n",
		"pkg/core.py":     "class C: ...\n",
		"README.md":       "# pkg\n",
		"docs/conf.py":    "x = 1\n",
	})
	r.git("tag", "v1.0.0")
	r.commit("v2", map[string]string{"pkg/__init__.py": "def f(a, b): ...\n"})
	adapter := setupTestAdapter(t, r)
	ctx := context.Background()

	tree, err := adapter.Archive(ctx, "v1.0.0")
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	content, ok := tree.Read("pkg/__init__.py")
	if !ok || string(content) != "def f(a): ...\n" {
		t.Errorf("pkg/__init__.py = %q, %v", content, ok)
	}
	if _, ok := tree.Read("README.md"); ok {
		t.Error("non-source files should be skipped")
	}

	limited, err := adapter.Archive(ctx, "HEAD", "pkg")
	if err != nil {
		t.Fatalf("Archive(paths) error = %v", err)
	}
	if _, ok := limited.Read("docs/conf.py"); ok {
		t.Error("paths outside the requested ones should be excluded")
	}
	content, _ = limited.Read("pkg/__init__.py")
	if string(content) != "def f(a, b): ...\n" {
		t.Errorf("HEAD pkg/__init__.py = %q", content)
	}
}

func TestGitAdapter_ArchiveErrors(t *testing.T) {
	r := newTestRepo(t)
	r.commit("v1", map[string]string{"pkg/__init__.py": "x = 1\n"})
	adapter := setupTestAdapter(t, r)

	if _, err := adapter.Archive(context.Background(), "missing"); errors.CodeOf(err) != errors.TreeUnavailable {
		t.Errorf("unknown ref: got %v", err)
	}
	if _, err := adapter.Archive(context.Background(), "HEAD", "nope"); errors.CodeOf(err) != errors.TreeUnavailable {
		t.Errorf("unknown path: got %v", err)
	}
}

func TestGitAdapter_GetRepoState(t *testing.T) {
	r := newTestRepo(t)
	r.commit("v1", map[string]string{"pkg/__init__.py": "x = 1\n"})
	adapter := setupTestAdapter(t, r)

	state, err := adapter.GetRepoState(context.Background())
	if err != nil {
		t.Fatalf("GetRepoState() error = %v", err)
	}
	if state.Dirty {
		t.Error("fresh commit should be clean")
	}
	if ShortCommit(state.HeadCommit) != state.HeadCommit[:7] {
		t.Errorf("ShortCommit() = %s", ShortCommit(state.HeadCommit))
	}
}

func TestShortCommit(t *testing.T) {
	if ShortCommit("abc") != "abc" {
		t.Error("short values are returned unchanged")
	}
}
