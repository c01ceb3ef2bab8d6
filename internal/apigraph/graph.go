package apigraph

import (
	"fmt"
	"sort"
	"strings"

	"pysemver/internal/errors"
)

// ResolutionWarning records a reference the builder could not follow. It never aborts a build;
// the unresolved entity is treated as unknown and assumed compatible.
type ResolutionWarning struct {
	File          string `json:"file,omitempty" yaml:"file,omitempty"`
	QualifiedName string `json:"qualifiedName,omitempty" yaml:"qualifiedName,omitempty"`
	Reference     string `json:"reference,omitempty" yaml:"reference,omitempty"`
	Message       string `json:"message" yaml:"message"`
}

func (w ResolutionWarning) String() string {
	var sb strings.Builder
	if w.File != "" {
		sb.WriteString(w.File)
		sb.WriteString(": ")
	}
	if w.QualifiedName != "" {
		sb.WriteString(w.QualifiedName)
		sb.WriteString(": ")
	}
	sb.WriteString(w.Message)
	if w.Reference != "" {
		fmt.Fprintf(&sb, " (%s)", w.Reference)
	}
	return sb.String()
}

// Graph is an immutable mapping from qualified name to Object for one revision.
type Graph struct {
	objects  map[string]*Object
	names    []string
	warnings []ResolutionWarning
}

// Get returns the object with the given qualified name.
func (g *Graph) Get(qname string) (*Object, bool) {
	if g == nil {
		return nil, false
	}
	o, ok := g.objects[qname]
	return o, ok
}

// Names returns all qualified names in sorted order.
func (g *Graph) Names() []string {
	if g == nil {
		return nil
	}
	return g.names
}

// Len returns the number of objects.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.names)
}

// Objects returns the objects sorted by qualified name.
func (g *Graph) Objects() []*Object {
	if g == nil {
		return nil
	}
	out := make([]*Object, len(g.names))
	for i, n := range g.names {
		out[i] = g.objects[n]
	}
	return out
}

// Children returns the direct children of qname sorted by qualified name.
func (g *Graph) Children(qname string) []*Object {
	var out []*Object
	for _, n := range g.Names() {
		if o := g.objects[n]; o.Parent == qname {
			out = append(out, o)
		}
	}
	return out
}

// Warnings returns the resolution warnings recorded while building the graph.
func (g *Graph) Warnings() []ResolutionWarning {
	if g == nil {
		return nil
	}
	return g.warnings
}

// Builder accumulates objects for a graph and detects qualified-name collisions.
// A Builder is not safe for concurrent use; parallel producers fill their own
// slices and merge through a single Builder.
type Builder struct {
	objects  map[string]*Object
	warnings []ResolutionWarning
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{objects: make(map[string]*Object)}
}

// Add inserts obj. A second object with the same qualified name from a different file
// is a NAME_COLLISION model error.
func (b *Builder) Add(obj *Object) error {
	if existing, ok := b.objects[obj.QualifiedName]; ok {
		return errors.NewModelError(errors.NameCollision, obj.QualifiedName, obj.File,
			fmt.Sprintf("qualified name already declared in %s", existing.File))
	}
	b.objects[obj.QualifiedName] = obj
	return nil
}

// Replace inserts or overwrites obj.
func (b *Builder) Replace(obj *Object) {
	b.objects[obj.QualifiedName] = obj
}

// Remove deletes qname and everything contained in it.
func (b *Builder) Remove(qname string) {
	prefix := qname + "."
	for n := range b.objects {
		if n == qname || strings.HasPrefix(n, prefix) {
			delete(b.objects, n)
		}
	}
}

// Get returns a pending object.
func (b *Builder) Get(qname string) (*Object, bool) {
	o, ok := b.objects[qname]
	return o, ok
}

// Warn records a resolution warning.
func (b *Builder) Warn(w ResolutionWarning) {
	b.warnings = append(b.warnings, w)
}

// Build freezes the builder into a Graph. The builder must not be used afterwards.
func (b *Builder) Build() *Graph {
	names := make([]string, 0, len(b.objects))
	for n := range b.objects {
		names = append(names, n)
	}
	sort.Strings(names)

	warnings := append([]ResolutionWarning(nil), b.warnings...)
	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].File != warnings[j].File {
			return warnings[i].File < warnings[j].File
		}
		if warnings[i].QualifiedName != warnings[j].QualifiedName {
			return warnings[i].QualifiedName < warnings[j].QualifiedName
		}
		return warnings[i].Message < warnings[j].Message
	})

	g := &Graph{objects: b.objects, names: names, warnings: warnings}
	b.objects = nil
	return g
}
