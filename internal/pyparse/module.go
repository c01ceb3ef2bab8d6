// Package pyparse turns Python source text into per-module structural trees of declarations.
// It does not evaluate expressions; defaults, values and annotations are kept as source text.
package pyparse

import (
	"strings"

	"pysemver/internal/apigraph"
)

// DefKind is the kind of a declaration.
type DefKind int

const (
	DefClass DefKind = iota
	DefFunction
	DefAttribute
)

func (k DefKind) String() string {
	switch k {
	case DefClass:
		return "class"
	case DefFunction:
		return "function"
	case DefAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// Definition is one class, function or attribute declaration. Fields apply per kind.
type Definition struct {
	Kind   DefKind
	Name   string
	Line   int // 1-based
	Column int // 0-based

	Docstring  string
	Decorators []string // as written, without '@'

	// DefClass
	Bases   []string
	Members []*Definition

	// DefFunction
	Async      bool
	Parameters []apigraph.Parameter
	Returns    string
	// InstanceAttributes are self.x assignments found in __init__.
	InstanceAttributes []*Definition

	// DefAttribute
	Annotation string
	Value      string
}

// Import is one bound name introduced by an import statement.
//
//	import a.b        -> {Module: "a.b"}             binds "a"
//	import a.b as c   -> {Module: "a.b", Alias: "c"}  binds "c"
//	from .m import x  -> {From: true, Level: 1, Module: "m", Name: "x"}
//	from m import *   -> {From: true, Module: "m", Wildcard: true}
type Import struct {
	From     bool
	Level    int
	Module   string
	Name     string
	Alias    string
	Wildcard bool
	Line     int
}

// Bound returns the local name the import binds, or "" for wildcard imports.
func (i Import) Bound() string {
	if i.Wildcard {
		return ""
	}
	if i.Alias != "" {
		return i.Alias
	}
	if i.From {
		return i.Name
	}
	if dot := strings.IndexByte(i.Module, '.'); dot >= 0 {
		return i.Module[:dot]
	}
	return i.Module
}

// Target returns the dotted path the bound name refers to, relative to Level.
func (i Import) Target() string {
	if !i.From {
		if i.Alias == "" {
			return i.Bound()
		}
		return i.Module
	}
	if i.Module == "" {
		return i.Name
	}
	return i.Module + "." + i.Name
}

// ExportList is a module's __all__.
type ExportList struct {
	Names []string
	// Dynamic is set when __all__ is built from something other than string literals.
	Dynamic bool
	Line    int
}

// Has reports whether name is listed.
func (e *ExportList) Has(name string) bool {
	if e == nil {
		return false
	}
	for _, n := range e.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Set returns the export list as a lookup set.
func (e *ExportList) Set() map[string]bool {
	if e == nil {
		return nil
	}
	m := make(map[string]bool, len(e.Names))
	for _, n := range e.Names {
		m[n] = true
	}
	return m
}

func (e *ExportList) add(names ...string) {
	for _, n := range names {
		if !e.Has(n) {
			e.Names = append(e.Names, n)
		}
	}
}

// Module is the structural tree of one source file.
type Module struct {
	Path        string
	Stub        bool
	Docstring   string
	Imports     []Import
	Exports     *ExportList
	Definitions []*Definition
}

// ModuleName derives the dotted module name from a path relative to the search path.
// It reports whether the file is a package initialiser.
func ModuleName(path string) (string, bool) {
	p := strings.TrimSuffix(strings.TrimSuffix(path, ".pyi"), ".py")
	parts := strings.Split(p, "/")
	isPackage := false
	if parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
		isPackage = true
	}
	return strings.Join(parts, "."), isPackage
}

// unquote returns the content of a Python string literal. Prefixes are dropped and
// escape sequences are left as written.
func unquote(lit string) string {
	s := strings.TrimLeft(lit, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// cleanDocstring trims surrounding blank space and common indentation.
func cleanDocstring(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	indent := -1
	for _, l := range lines[1:] {
		trimmed := strings.TrimLeft(l, " \t")
		if trimmed == "" {
			continue
		}
		if n := len(l) - len(trimmed); indent < 0 || n < indent {
			indent = n
		}
	}
	lines[0] = strings.TrimSpace(lines[0])
	if indent > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= indent {
				lines[i] = lines[i][indent:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " \t")
			}
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// normalizeSpace collapses runs of whitespace (newlines included) to a single space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var bracketSpace = strings.NewReplacer("[ ", "[", " ]", "]", "( ", "(", " )", ")", " ,", ",")

// normalizeAnnotation makes a type expression's text independent of line wrapping.
func normalizeAnnotation(s string) string {
	return bracketSpace.Replace(normalizeSpace(s))
}
