package filetree

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"

	"pysemver/internal/errors"
)

// DirOptions controls how a working tree is read from disk.
type DirOptions struct {
	// Exclude holds extra gitignore-style patterns.
	Exclude []string
	// AllFiles reads every file instead of Python sources only.
	AllFiles bool
}

// skipDirs are never part of a package's source.
var skipDirs = map[string]bool{
	".git":          true,
	".hg":           true,
	".svn":          true,
	"__pycache__":   true,
	".tox":          true,
	".nox":          true,
	".venv":         true,
	".mypy_cache":   true,
	".pytest_cache": true,
}

// FromDir reads a working tree, honouring the .gitignore at root and opts.Exclude.
func FromDir(root string, opts DirOptions) (*Tree, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.New(errors.TreeUnavailable, fmt.Sprintf("cannot read %s", root), err, nil)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.TreeUnavailable, fmt.Sprintf("%s is not a directory", root), nil, nil)
	}

	var matchers []*ignore.GitIgnore
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		matchers = append(matchers, gi)
	}
	if len(opts.Exclude) > 0 {
		matchers = append(matchers, ignore.CompileIgnoreLines(opts.Exclude...))
	}
	ignored := func(rel string) bool {
		for _, m := range matchers {
			if m.MatchesPath(rel) {
				return true
			}
		}
		return false
	}

	files := make(map[string][]byte)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || ignored(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignored(rel) {
			return nil
		}
		if !opts.AllFiles && !IsSource(rel) {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files[rel] = content
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.TreeUnavailable, fmt.Sprintf("walking %s", root), err, nil)
	}
	return New(files), nil
}

// WriteTo materialises the tree under dir. Paths were cleaned on construction and cannot
// escape dir.
func (t *Tree) WriteTo(dir string) error {
	for _, p := range t.Paths() {
		dest := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, t.files[p], 0o644); err != nil {
			return err
		}
	}
	return nil
}
