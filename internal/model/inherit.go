package model

import (
	"sort"
	"strings"

	"pysemver/internal/apigraph"
	"pysemver/internal/errors"
)

// Linearizer computes member lookup orders over a base graph.
//
// The order is a depth-first, left-to-right pre-order walk of the declared bases with the
// class itself first and every class kept at its first visit only. For
//
//	class A: ...
//	class B(A): ...
//	class C(A): ...
//	class D(B, C): ...
//
// D linearizes to [D, B, A, C]. When two bases declare the same member, the one reached
// first wins, so a member of an earlier-declared base (and of its ancestors) shadows a member
// of a later-declared base. This deliberately differs from C3: it never fails on inconsistent
// hierarchies, and the winner can be read off the base list.
type Linearizer struct {
	bases    func(string) []string
	memo     map[string][]string
	visiting map[string]bool
	stack    []string
}

// NewLinearizer creates a linearizer over bases, which returns the declared bases of a class
// (nil for unknown or external classes).
func NewLinearizer(bases func(string) []string) *Linearizer {
	return &Linearizer{
		bases:    bases,
		memo:     make(map[string][]string),
		visiting: make(map[string]bool),
	}
}

// Linearize returns the lookup order of class, or the cycle path when the bases of class
// reach it again.
func (l *Linearizer) Linearize(class string) ([]string, []string) {
	if order, ok := l.memo[class]; ok {
		return order, nil
	}
	if l.visiting[class] {
		start := 0
		for i, c := range l.stack {
			if c == class {
				start = i
				break
			}
		}
		cycle := append(append([]string(nil), l.stack[start:]...), class)
		return nil, cycle
	}

	l.visiting[class] = true
	l.stack = append(l.stack, class)
	defer func() {
		l.stack = l.stack[:len(l.stack)-1]
		delete(l.visiting, class)
	}()

	order := []string{class}
	seen := map[string]bool{class: true}
	for _, base := range l.bases(class) {
		sub, cycle := l.Linearize(base)
		if cycle != nil {
			return nil, cycle
		}
		for _, c := range sub {
			if !seen[c] {
				seen[c] = true
				order = append(order, c)
			}
		}
	}
	l.memo[class] = order
	return order, nil
}

// linearizeAll linearizes every class and fails on the first cycle in name order.
func (b *builder) linearizeAll() error {
	lz := NewLinearizer(func(q string) []string {
		e, ok := b.entries[q]
		if !ok {
			return nil
		}
		return e.obj.BaseNames()
	})

	for _, q := range b.classNames() {
		order, cycle := lz.Linearize(q)
		if cycle != nil {
			e := b.entries[q]
			return errors.NewModelError(errors.BaseCycle, q, e.obj.File,
				"inheritance cycle: "+strings.Join(cycle, " -> "))
		}
		b.lin[q] = order
		b.entries[q].obj.Linearization = order
	}
	return nil
}

// classNames returns declared classes, deepest first so nested classes are complete before
// an enclosing class's members are copied.
func (b *builder) classNames() []string {
	var names []string
	for q, e := range b.entries {
		if e.obj.Kind == apigraph.KindClass && e.obj.InheritedFrom == "" {
			names = append(names, q)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		di, dj := strings.Count(names[i], "."), strings.Count(names[j], ".")
		if di != dj {
			return di > dj
		}
		return names[i] < names[j]
	})
	return names
}

// materializeInherited computes each class's effective member table and copies inherited
// members under the derived class with InheritedFrom set.
func (b *builder) materializeInherited() {
	for _, q := range b.classNames() {
		e := b.entries[q]
		members := make(map[string]string)
		for _, name := range e.declared {
			if !apigraph.IsPrivateName(name) {
				members[name] = apigraph.Join(q, name)
			}
		}

		for _, ancestor := range b.lin[q][1:] {
			ae, ok := b.entries[ancestor]
			if !ok {
				continue
			}
			for _, name := range ae.declared {
				if _, have := members[name]; have || apigraph.IsPrivateName(name) {
					continue
				}
				origin := apigraph.Join(ancestor, name)
				members[name] = origin
				b.copyInherited(e, name, origin)
			}
		}
		if len(members) > 0 {
			e.obj.Members = members
		}
	}
}

// copyInherited clones the subtree rooted at origin to derived.name.
func (b *builder) copyInherited(derived *entry, name, origin string) {
	target := apigraph.Join(derived.obj.QualifiedName, name)
	for _, src := range b.subtree(origin) {
		se := b.entries[src]
		newQ := target + strings.TrimPrefix(src, origin)
		if _, exists := b.entries[newQ]; exists {
			continue
		}
		parentQ := apigraph.ParentOf(newQ)
		parentVis := derived.obj.Visibility
		if pe, ok := b.entries[parentQ]; ok {
			parentVis = pe.obj.Visibility
		}

		obj := se.obj.Clone()
		obj.QualifiedName = newQ
		obj.Parent = parentQ
		obj.Visibility = apigraph.VisibilityOf(obj.Name, parentVis, nil)
		if obj.InheritedFrom == "" {
			obj.InheritedFrom = src
		}

		b.entries[newQ] = &entry{
			obj:       obj,
			mod:       se.mod,
			def:       se.def,
			excluded:  apigraph.IsPrivateName(obj.Name),
			declared:  se.declared,
			baseExprs: se.baseExprs,
		}
	}
}
