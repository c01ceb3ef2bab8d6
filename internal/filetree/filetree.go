// Package filetree provides the read-only, per-revision file trees the model builder consumes.
// A Tree is an in-memory mapping from slash-separated relative path to file content.
package filetree

import (
	"path"
	"sort"
	"strings"

	"pysemver/internal/errors"
)

// SourceExtensions are the files a Python API model is built from.
var SourceExtensions = []string{".py", ".pyi"}

// Tree is an immutable set of files keyed by slash-separated relative path.
type Tree struct {
	files map[string][]byte
	paths []string
}

// New builds a tree from path → content. Paths are cleaned and made relative.
func New(files map[string][]byte) *Tree {
	t := &Tree{files: make(map[string][]byte, len(files))}
	for p, content := range files {
		p = cleanPath(p)
		if p == "" {
			continue
		}
		t.files[p] = content
	}
	t.index()
	return t
}

// FromStrings is a convenience constructor for fixtures.
func FromStrings(files map[string]string) *Tree {
	m := make(map[string][]byte, len(files))
	for p, s := range files {
		m[p] = []byte(s)
	}
	return New(m)
}

func (t *Tree) index() {
	t.paths = make([]string, 0, len(t.files))
	for p := range t.files {
		t.paths = append(t.paths, p)
	}
	sort.Strings(t.paths)
}

func cleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Paths returns all file paths in sorted order.
func (t *Tree) Paths() []string {
	if t == nil {
		return nil
	}
	return t.paths
}

// Len returns the number of files.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.paths)
}

// Read returns the content of a file.
func (t *Tree) Read(p string) ([]byte, bool) {
	if t == nil {
		return nil, false
	}
	b, ok := t.files[cleanPath(p)]
	return b, ok
}

// Filter returns a tree with only the files keep accepts.
func (t *Tree) Filter(keep func(p string) bool) *Tree {
	out := &Tree{files: make(map[string][]byte)}
	for _, p := range t.Paths() {
		if keep(p) {
			out.files[p] = t.files[p]
		}
	}
	out.index()
	return out
}

// Subtree re-roots the tree at dir, dropping files outside it.
func (t *Tree) Subtree(dir string) *Tree {
	dir = cleanPath(dir)
	if dir == "" {
		return t
	}
	prefix := dir + "/"
	out := &Tree{files: make(map[string][]byte)}
	for _, p := range t.Paths() {
		if strings.HasPrefix(p, prefix) {
			out.files[strings.TrimPrefix(p, prefix)] = t.files[p]
		}
	}
	out.index()
	return out
}

// Package selects one importable package from the tree. pkgPath is the path of the package
// directory (or single-module file without extension) relative to the tree root, for example
// "src/mylib". The result is rooted at the package's parent directory, which is the search
// path Python would import it from, and holds only the package's source files.
func (t *Tree) Package(pkgPath string) (*Tree, string, error) {
	pkgPath = cleanPath(strings.TrimSuffix(strings.TrimSuffix(pkgPath, ".pyi"), ".py"))
	if pkgPath == "" {
		return nil, "", errors.New(errors.TreeUnavailable, "empty package path", nil, nil)
	}
	parent, name := path.Split(pkgPath)
	root := t.Subtree(parent)
	pkg := root.Filter(func(p string) bool {
		if !IsSource(p) {
			return false
		}
		return strings.HasPrefix(p, name+"/") || p == name+".py" || p == name+".pyi"
	})
	if pkg.Len() == 0 {
		return nil, "", errors.New(errors.TreeUnavailable,
			"no Python sources found for package "+pkgPath, nil, nil)
	}
	return pkg, name, nil
}

// IsSource reports whether p is a Python source or stub file.
func IsSource(p string) bool {
	for _, ext := range SourceExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}
