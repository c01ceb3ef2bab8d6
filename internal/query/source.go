package query

import (
	"context"
	"path/filepath"

	"pysemver/internal/backends/git"
	"pysemver/internal/errors"
	"pysemver/internal/filetree"
	"pysemver/internal/output"
)

// TreeSource materialises one side of a comparison.
type TreeSource interface {
	// Load returns the file tree and a description of where it came from.
	Load(ctx context.Context) (*filetree.Tree, output.Revision, error)
}

// GitSource reads a committed revision with git archive.
type GitSource struct {
	Adapter *git.GitAdapter
	Ref     string
}

// Load implements TreeSource.
func (s GitSource) Load(ctx context.Context) (*filetree.Tree, output.Revision, error) {
	rev := output.Revision{Ref: s.Ref}
	if s.Adapter == nil {
		return nil, rev, errors.New(errors.TreeUnavailable,
			"cannot read revision '"+s.Ref+"' outside a git repository", nil,
			errors.GetSuggestedFixes(errors.TreeUnavailable))
	}
	commit, err := s.Adapter.ResolveCommit(ctx, s.Ref)
	if err != nil {
		return nil, rev, err
	}
	rev.Commit = commit
	tree, err := s.Adapter.Archive(ctx, commit)
	if err != nil {
		return nil, rev, err
	}
	return tree, rev, nil
}

// DirSource reads a directory from disk, honouring its .gitignore.
type DirSource struct {
	Root string
	// Worktree marks the directory as the repository's working tree.
	Worktree bool
	// Commit is the HEAD commit of the working tree, when known.
	Commit string
	Dirty  bool
}

// Load implements TreeSource.
func (s DirSource) Load(ctx context.Context) (*filetree.Tree, output.Revision, error) {
	rev := output.Revision{Ref: s.Root, Worktree: s.Worktree, Commit: s.Commit, Dirty: s.Dirty}
	if s.Worktree {
		rev.Ref = "worktree"
	}
	if err := ctx.Err(); err != nil {
		return nil, rev, err
	}
	tree, err := filetree.FromDir(s.Root, filetree.DirOptions{})
	if err != nil {
		return nil, rev, err
	}
	return tree, rev, nil
}

// ArchiveSource reads an sdist, wheel or plain tar/zip archive.
type ArchiveSource struct {
	Path string
}

// Load implements TreeSource.
func (s ArchiveSource) Load(ctx context.Context) (*filetree.Tree, output.Revision, error) {
	rev := output.Revision{Ref: filepath.Base(s.Path)}
	if err := ctx.Err(); err != nil {
		return nil, rev, err
	}
	tree, err := filetree.FromArchive(s.Path)
	if err != nil {
		return nil, rev, err
	}
	return tree, rev, nil
}

// StaticSource serves a tree that is already in memory.
type StaticSource struct {
	Tree     *filetree.Tree
	Revision output.Revision
}

// Load implements TreeSource.
func (s StaticSource) Load(ctx context.Context) (*filetree.Tree, output.Revision, error) {
	if s.Tree == nil {
		return nil, s.Revision, errors.New(errors.TreeUnavailable, "no tree for "+s.Revision.Ref, nil, nil)
	}
	return s.Tree, s.Revision, nil
}

// packageRoots are the places a top-level package is looked up, in order.
var packageRoots = []string{"", "src/", "lib/"}

// locatePackage finds the package name in tree and returns it rooted at its import path.
func locatePackage(tree *filetree.Tree, name string) (*filetree.Tree, error) {
	var firstErr error
	for _, root := range packageRoots {
		pkg, _, err := tree.Package(root + name)
		if err == nil {
			return pkg, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, errors.New(errors.TreeUnavailable, "package '"+name+"' not found", firstErr, nil)
}
