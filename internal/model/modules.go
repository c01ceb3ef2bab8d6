package model

import (
	"sort"
	"strings"

	"pysemver/internal/apigraph"
	"pysemver/internal/errors"
	"pysemver/internal/pyparse"
)

// moduleInfo is one importable module of the revision. Implicit namespace packages have
// no parsed source.
type moduleInfo struct {
	name      string
	isPackage bool
	src       *pyparse.Module
	file      string

	// scope maps a module-level name to its final binding; later statements rebind.
	scope map[string]binding
	// wildcards are the internal modules star-imported into this one, in order.
	wildcards []string
	// exports is the __all__ set, nil when absent or not statically known.
	exports map[string]bool
}

type bindingKind int

const (
	bindDef bindingKind = iota
	bindImport
)

type binding struct {
	kind bindingKind
	def  *pyparse.Definition
	imp  pyparse.Import
	line int
}

// indexModules names every parsed file and adds implicit namespace packages for
// directories without an initialiser.
func indexModules(mods []*pyparse.Module) (map[string]*moduleInfo, []string, error) {
	index := make(map[string]*moduleInfo, len(mods))
	for _, m := range mods {
		name, isPkg := pyparse.ModuleName(m.Path)
		if prev, ok := index[name]; ok {
			return nil, nil, errors.NewModelError(errors.NameCollision, name, m.Path,
				"module is also defined by "+prev.file)
		}
		index[name] = &moduleInfo{name: name, isPackage: isPkg, src: m, file: m.Path}
	}

	for _, m := range mods {
		name, _ := pyparse.ModuleName(m.Path)
		for parent := apigraph.ParentOf(name); parent != ""; parent = apigraph.ParentOf(parent) {
			info, ok := index[parent]
			if !ok {
				index[parent] = &moduleInfo{name: parent, isPackage: true}
				continue
			}
			if !info.isPackage && info.src != nil {
				return nil, nil, errors.NewModelError(errors.NameCollision, parent, info.file,
					"module shadows package directory "+strings.ReplaceAll(parent, ".", "/"))
			}
		}
	}

	names := make([]string, 0, len(index))
	for n := range index {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		index[n].buildScope()
	}
	return index, names, nil
}

// buildScope records the final binding of every module-level name. When a name is both
// imported and defined, the later statement wins.
func (m *moduleInfo) buildScope() {
	m.scope = make(map[string]binding)
	if m.src == nil {
		return
	}
	for _, d := range m.src.Definitions {
		if prev, ok := m.scope[d.Name]; ok && prev.line > d.Line {
			continue
		}
		m.scope[d.Name] = binding{kind: bindDef, def: d, line: d.Line}
	}
	for _, imp := range m.src.Imports {
		if imp.Wildcard {
			if target := m.absolute(imp.Level, imp.Module); target != "" {
				m.wildcards = append(m.wildcards, target)
			}
			continue
		}
		name := imp.Bound()
		if prev, ok := m.scope[name]; ok && prev.line > imp.Line {
			continue
		}
		m.scope[name] = binding{kind: bindImport, imp: imp, line: imp.Line}
	}
	if m.src.Exports != nil && !m.src.Exports.Dynamic {
		m.exports = m.src.Exports.Set()
	}
}

// absolute turns a possibly relative module reference into an absolute dotted name.
// It returns "" when the relative level climbs above the top-level package.
func (m *moduleInfo) absolute(level int, module string) string {
	if level == 0 {
		return module
	}
	base := m.name
	if !m.isPackage {
		base = apigraph.ParentOf(base)
	}
	for i := 1; i < level; i++ {
		if base == "" {
			return ""
		}
		base = apigraph.ParentOf(base)
	}
	if base == "" {
		return ""
	}
	if module == "" {
		return base
	}
	return base + "." + module
}

// importTarget returns the absolute dotted path an import binding refers to.
func (m *moduleInfo) importTarget(imp pyparse.Import) string {
	if !imp.From {
		return imp.Target()
	}
	mod := m.absolute(imp.Level, imp.Module)
	if mod == "" {
		return ""
	}
	return mod + "." + imp.Name
}

// visibility returns the module's own visibility given its parent's. Submodules are judged
// by name only; a parent's __all__ does not hide them.
func moduleVisibility(name string, parent apigraph.Visibility) apigraph.Visibility {
	return apigraph.VisibilityOf(name[strings.LastIndexByte(name, '.')+1:], parent, nil)
}
