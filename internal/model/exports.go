package model

import (
	"sort"
	"strings"

	"pysemver/internal/apigraph"
)

// reexport turns imported names into objects of the importing module. A name is re-exported
// when the module's __all__ lists it, or, for a package __init__ without __all__, when it is a
// public name imported from inside the analysed package. Re-exports of internal objects copy
// the target's subtree; names listed in __all__ that point outside the revision become
// attributes whose value is the import path.
func (b *builder) reexport() {
	for _, name := range b.names {
		m := b.modules[name]
		me := b.entries[name]
		if m.src == nil || me == nil {
			continue
		}

		for _, local := range b.reexportCandidates(m) {
			q := apigraph.Join(m.name, local)
			r := b.resolve(m, local, 0)

			_, bound := m.scope[local]
			if existing, ok := b.entries[q]; ok {
				if bound && existing.obj.Kind == apigraph.KindModule && r.qname != q {
					b.warn(m.file, q, local, "submodule shadows re-exported name")
				}
				continue
			}

			listed := m.exports[local]
			vis := apigraph.VisibilityOf(local, me.obj.Visibility, m.exports)
			excluded := apigraph.IsPrivateName(local) && !listed

			switch {
			case r.qname != "":
				target := b.entries[r.qname]
				if target == nil {
					continue
				}
				if target.obj.Kind == apigraph.KindModule {
					b.entries[q] = &entry{obj: aliasObject(m, me, local, r.qname, vis), mod: m, excluded: excluded}
					continue
				}
				b.copyReexport(m, q, r.qname, vis, excluded)
			case !bound && listed:
				b.warn(m.file, q, local, "__all__ lists a name the module does not define")
			case listed && r.external != "":
				if r.tooDeep {
					b.warn(m.file, q, local, "alias chain too deep; re-export treated as external")
				}
				b.entries[q] = &entry{obj: aliasObject(m, me, local, r.external, vis), mod: m, excluded: excluded}
			}
		}
	}
}

// reexportCandidates lists the imported names a module exposes, sorted.
func (b *builder) reexportCandidates(m *moduleInfo) []string {
	seen := make(map[string]bool)
	var names []string
	addName := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}

	if m.exports != nil {
		for n := range m.exports {
			if bnd, ok := m.scope[n]; ok && bnd.kind == bindDef {
				continue
			}
			addName(n)
		}
		sort.Strings(names)
		return names
	}

	if !m.isPackage {
		return nil
	}
	for n, bnd := range m.scope {
		if bnd.kind != bindImport || apigraph.IsPrivateName(n) {
			continue
		}
		if r := b.resolve(m, n, 0); r.qname != "" {
			addName(n)
		}
	}
	for _, w := range m.wildcards {
		src, ok := b.modules[w]
		if !ok || src == m {
			continue
		}
		for n := range src.scope {
			if _, local := m.scope[n]; local || !starExports(src, n) {
				continue
			}
			addName(n)
		}
	}
	sort.Strings(names)
	return names
}

func aliasObject(m *moduleInfo, me *entry, name, target string, vis apigraph.Visibility) *apigraph.Object {
	return &apigraph.Object{
		QualifiedName: apigraph.Join(m.name, name),
		Name:          name,
		Parent:        m.name,
		Kind:          apigraph.KindAttribute,
		Visibility:    vis,
		Value:         target,
		File:          me.obj.File,
	}
}

// copyReexport clones target's subtree under q.
func (b *builder) copyReexport(m *moduleInfo, q, target string, vis apigraph.Visibility, excluded bool) {
	for _, src := range b.subtree(target) {
		se := b.entries[src]
		newQ := q + src[len(target):]
		if _, exists := b.entries[newQ]; exists {
			continue
		}
		obj := se.obj.Clone()
		obj.QualifiedName = newQ
		obj.Parent = apigraph.ParentOf(newQ)
		ex := excluded
		if src == target {
			obj.Name = q[strings.LastIndexByte(q, '.')+1:]
			obj.Visibility = vis
		} else {
			parentVis := vis
			if pe, ok := b.entries[obj.Parent]; ok {
				parentVis = pe.obj.Visibility
			}
			obj.Visibility = apigraph.VisibilityOf(obj.Name, parentVis, nil)
			ex = apigraph.IsPrivateName(obj.Name)
		}
		b.entries[newQ] = &entry{obj: obj, mod: m, def: se.def, excluded: ex, declared: se.declared}
	}
}
