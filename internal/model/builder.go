// Package model builds the API graph of one revision from its file tree.
//
// A build is a pure function of the tree: files are parsed in parallel, every module gets an
// import-resolution table, class bases are resolved and linearized, inherited members are
// materialised, and the result is frozen into an apigraph.Graph.
package model

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"pysemver/internal/apigraph"
	"pysemver/internal/errors"
	"pysemver/internal/filetree"
	"pysemver/internal/pyparse"
	"pysemver/internal/slogutil"
)

// DefaultMaxAliasDepth bounds import alias chains followed during resolution.
const DefaultMaxAliasDepth = 16

// Options configures a build.
type Options struct {
	// Workers bounds parallel parsing. Zero means GOMAXPROCS.
	Workers int
	// MaxAliasDepth bounds alias chains. Zero means DefaultMaxAliasDepth.
	MaxAliasDepth int
	// Logger receives debug output. Nil discards.
	Logger *slog.Logger
}

// entry is a declared object before visibility filtering. Private objects are kept here so
// bases and aliases can resolve through them.
type entry struct {
	obj      *apigraph.Object
	mod      *moduleInfo
	def      *pyparse.Definition
	excluded bool
	// declared lists member names in declaration order (classes only).
	declared  []string
	baseExprs []string
}

type builder struct {
	opts    Options
	log     *slog.Logger
	modules map[string]*moduleInfo
	names   []string
	entries map[string]*entry
	out     *apigraph.Builder

	// lin caches class linearizations.
	lin map[string][]string
}

// BuildGraph parses tree and builds its API graph. Any parse failure or model error aborts the
// build; no partial graph is returned.
func BuildGraph(ctx context.Context, tree *filetree.Tree, opts Options) (*apigraph.Graph, error) {
	if opts.MaxAliasDepth <= 0 {
		opts.MaxAliasDepth = DefaultMaxAliasDepth
	}
	log := opts.Logger
	if log == nil {
		log = slogutil.NewDiscardLogger()
	}

	mods, err := pyparse.ParseTree(ctx, tree, opts.Workers)
	if err != nil {
		return nil, err
	}
	log.Debug("Parsed sources", "files", len(mods))

	return Build(mods, opts)
}

// Build builds the graph from already parsed modules.
func Build(mods []*pyparse.Module, opts Options) (*apigraph.Graph, error) {
	if opts.MaxAliasDepth <= 0 {
		opts.MaxAliasDepth = DefaultMaxAliasDepth
	}
	log := opts.Logger
	if log == nil {
		log = slogutil.NewDiscardLogger()
	}

	index, names, err := indexModules(mods)
	if err != nil {
		return nil, err
	}

	b := &builder{
		opts:    opts,
		log:     log,
		modules: index,
		names:   names,
		entries: make(map[string]*entry),
		out:     apigraph.NewBuilder(),
		lin:     make(map[string][]string),
	}

	for _, name := range names {
		if err := b.declareModule(index[name]); err != nil {
			return nil, err
		}
	}
	b.resolveBases()
	if err := b.linearizeAll(); err != nil {
		return nil, err
	}
	b.synthesizeDataclassInits()
	b.materializeInherited()
	b.reexport()
	if err := b.emit(); err != nil {
		return nil, err
	}

	g := b.out.Build()
	log.Debug("Built API graph", "modules", len(names), "objects", g.Len(), "warnings", len(g.Warnings()))
	return g, nil
}

func (b *builder) warn(file, qname, ref, format string, args ...any) {
	b.out.Warn(apigraph.ResolutionWarning{
		File:          file,
		QualifiedName: qname,
		Reference:     ref,
		Message:       fmt.Sprintf(format, args...),
	})
}

// add registers an entry. Two declarations of one qualified name from different files are a
// modelling error; within one file the later declaration has already won.
func (b *builder) add(e *entry) error {
	if prev, ok := b.entries[e.obj.QualifiedName]; ok {
		if prev.obj.File != e.obj.File {
			return errors.NewModelError(errors.NameCollision, e.obj.QualifiedName, e.obj.File,
				fmt.Sprintf("qualified name already declared in %s", prev.obj.File))
		}
	}
	b.entries[e.obj.QualifiedName] = e
	return nil
}

// emit copies every non-excluded entry into the graph with its final visibility.
func (b *builder) emit() error {
	qnames := make([]string, 0, len(b.entries))
	for q := range b.entries {
		qnames = append(qnames, q)
	}
	sort.Strings(qnames)

	for _, q := range qnames {
		e := b.entries[q]
		if e.excluded || b.hiddenAncestor(q) {
			continue
		}
		if err := b.out.Add(e.obj); err != nil {
			return err
		}
	}
	return nil
}

// hiddenAncestor reports whether any container of q was excluded.
func (b *builder) hiddenAncestor(q string) bool {
	for p := apigraph.ParentOf(q); p != ""; p = apigraph.ParentOf(p) {
		if e, ok := b.entries[p]; ok && e.excluded {
			return true
		}
	}
	return false
}

// subtree returns q and every entry nested under it, sorted.
func (b *builder) subtree(q string) []string {
	prefix := q + "."
	out := []string{q}
	for n := range b.entries {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
