package model

import (
	"sort"
	"strings"

	"pysemver/internal/apigraph"
)

// builtinBases are names that resolve without an import.
var builtinBases = map[string]bool{
	"object": true, "type": true, "int": true, "float": true, "complex": true, "str": true,
	"bytes": true, "bytearray": true, "bool": true, "list": true, "dict": true, "set": true,
	"frozenset": true, "tuple": true, "BaseException": true, "Exception": true,
	"ValueError": true, "TypeError": true, "KeyError": true, "IndexError": true,
	"LookupError": true, "RuntimeError": true, "AttributeError": true, "OSError": true,
	"IOError": true, "ArithmeticError": true, "NotImplementedError": true,
	"StopIteration": true, "Warning": true, "UserWarning": true, "DeprecationWarning": true,
	"property": true, "staticmethod": true, "classmethod": true, "memoryview": true,
}

// resolution is the outcome of following a dotted reference.
type resolution struct {
	// qname is set when the reference lands on a declared entry.
	qname string
	// external is the best-effort dotted path of a target outside the revision.
	external string
	// tooDeep is set when the alias chain exceeded the configured bound.
	tooDeep bool
}

// resolve follows a dotted expression as written in module m ("Base", "mod.Base",
// "Generic[T]") to an entry or an external path.
func (b *builder) resolve(m *moduleInfo, expr string, depth int) resolution {
	if i := strings.IndexByte(expr, '['); i >= 0 {
		expr = expr[:i]
	}
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return resolution{}
	}
	if depth > b.opts.MaxAliasDepth {
		return resolution{external: expr, tooDeep: true}
	}

	head, rest, _ := strings.Cut(expr, ".")
	bnd, ok := m.scope[head]
	if !ok {
		if target, found := b.fromWildcards(m, head, depth); found {
			return b.descend(target, rest)
		}
		if builtinBases[head] && rest == "" {
			return resolution{external: "builtins." + head}
		}
		return resolution{external: expr}
	}

	switch bnd.kind {
	case bindDef:
		return b.descend(resolution{qname: apigraph.Join(m.name, head)}, rest)
	default:
		target := m.importTarget(bnd.imp)
		if target == "" {
			return resolution{external: expr}
		}
		if rest != "" {
			target += "." + rest
		}
		return b.resolvePath(target, depth+1)
	}
}

// resolvePath resolves an absolute dotted path. The longest known module prefix is located
// and the remainder is looked up in that module's scope, following further aliases.
func (b *builder) resolvePath(path string, depth int) resolution {
	if depth > b.opts.MaxAliasDepth {
		return resolution{external: path, tooDeep: true}
	}
	if _, ok := b.modules[path]; ok {
		return resolution{qname: path}
	}
	parts := strings.Split(path, ".")
	for i := len(parts) - 1; i > 0; i-- {
		modName := strings.Join(parts[:i], ".")
		m, ok := b.modules[modName]
		if !ok {
			continue
		}
		return b.resolve(m, strings.Join(parts[i:], "."), depth+1)
	}
	return resolution{external: path}
}

// fromWildcards looks name up in the modules star-imported into m, last import first.
func (b *builder) fromWildcards(m *moduleInfo, name string, depth int) (resolution, bool) {
	for i := len(m.wildcards) - 1; i >= 0; i-- {
		src, ok := b.modules[m.wildcards[i]]
		if !ok || src == m {
			continue
		}
		if !starExports(src, name) {
			continue
		}
		if _, bound := src.scope[name]; bound {
			return b.resolve(src, name, depth+1), true
		}
		if _, ok := b.modules[apigraph.Join(src.name, name)]; ok {
			return resolution{qname: apigraph.Join(src.name, name)}, true
		}
	}
	return resolution{}, false
}

// starExports reports whether `from src import *` binds name.
func starExports(src *moduleInfo, name string) bool {
	if src.exports != nil {
		return src.exports[name]
	}
	return !strings.HasPrefix(name, "_")
}

// descend appends attribute components to a resolved entry.
func (b *builder) descend(r resolution, rest string) resolution {
	if rest == "" || r.qname == "" {
		if r.qname == "" && rest != "" {
			r.external += "." + rest
		}
		return r
	}
	q := r.qname + "." + rest
	if _, ok := b.entries[q]; ok {
		return resolution{qname: q}
	}
	if _, ok := b.modules[q]; ok {
		return resolution{qname: q}
	}
	return resolution{external: q}
}

// resolveBases turns every class's base expressions into Base references. "object" is dropped;
// unresolvable bases become external references with a warning.
func (b *builder) resolveBases() {
	qnames := make([]string, 0, len(b.entries))
	for q, e := range b.entries {
		if e.obj.Kind == apigraph.KindClass && len(e.baseExprs) > 0 {
			qnames = append(qnames, q)
		}
	}
	sort.Strings(qnames)

	for _, q := range qnames {
		e := b.entries[q]
		for _, expr := range e.baseExprs {
			r := b.resolve(e.mod, expr, 0)
			switch {
			case r.external == "builtins.object":
				continue
			case r.qname != "":
				if target, ok := b.entries[r.qname]; ok && target.obj.Kind == apigraph.KindClass {
					e.obj.Bases = append(e.obj.Bases, apigraph.Base{Name: r.qname})
					continue
				}
				e.obj.Bases = append(e.obj.Bases, apigraph.Base{Name: r.qname, External: true})
				b.warn(e.obj.File, q, expr, "base does not resolve to a class")
			default:
				e.obj.Bases = append(e.obj.Bases, apigraph.Base{Name: r.external, External: true})
				switch {
				case r.tooDeep:
					b.warn(e.obj.File, q, expr, "alias chain too deep; base treated as external")
				case !strings.HasPrefix(r.external, "builtins."):
					b.warn(e.obj.File, q, expr, "base class is external; its members are unknown")
				}
			}
		}
	}
}
