package model

import (
	"strings"

	"pysemver/internal/apigraph"
	"pysemver/internal/pyparse"
)

func (b *builder) declareModule(m *moduleInfo) error {
	parentVis := apigraph.Public
	excluded := false
	if parent := apigraph.ParentOf(m.name); parent != "" {
		if pe, ok := b.entries[parent]; ok {
			parentVis = pe.obj.Visibility
			excluded = pe.excluded
		}
	}
	leaf := m.name[strings.LastIndexByte(m.name, '.')+1:]
	vis := moduleVisibility(m.name, parentVis)

	obj := &apigraph.Object{
		QualifiedName: m.name,
		Name:          leaf,
		Parent:        apigraph.ParentOf(m.name),
		Kind:          apigraph.KindModule,
		Visibility:    vis,
		File:          m.file,
	}
	if m.src != nil {
		obj.Docstring = m.src.Docstring
		obj.Line = 1
	}
	if err := b.add(&entry{obj: obj, mod: m, excluded: excluded || apigraph.IsPrivateName(leaf)}); err != nil {
		return err
	}
	if m.src == nil {
		return nil
	}

	if m.src.Exports != nil && m.src.Exports.Dynamic {
		b.warn(m.file, m.name, "__all__", "__all__ is not a static list; visibility falls back to naming convention")
	}

	for _, d := range lastDefinitions(m.src.Definitions) {
		if d.Kind == pyparse.DefFunction && d.Name == "__getattr__" {
			b.warn(m.file, m.name, "__getattr__", "module defines __getattr__; dynamic attributes are not modelled")
		}
		vis := apigraph.VisibilityOf(d.Name, obj.Visibility, m.exports)
		if err := b.declare(m, obj, d, vis); err != nil {
			return err
		}
	}
	return nil
}

// lastDefinitions keeps the final definition of every name, in first-appearance order.
// An @overload stub never replaces an implementation, and a property setter or deleter
// folds into its getter.
func lastDefinitions(defs []*pyparse.Definition) []*pyparse.Definition {
	byName := make(map[string]*pyparse.Definition)
	var order []string
	for _, d := range defs {
		prev, seen := byName[d.Name]
		if !seen {
			order = append(order, d.Name)
			byName[d.Name] = d
			continue
		}
		if d.Kind == pyparse.DefFunction && prev.Kind == pyparse.DefFunction {
			if accessor := propertyAccessor(d, d.Name); accessor != "" {
				if accessor == "setter" {
					getter := *prev
					getter.Decorators = append(append([]string(nil), prev.Decorators...), d.Name+".setter")
					byName[d.Name] = &getter
				}
				continue
			}
			if isOverload(d) && !isOverload(prev) {
				continue
			}
		}
		byName[d.Name] = d
	}
	out := make([]*pyparse.Definition, len(order))
	for i, n := range order {
		out[i] = byName[n]
	}
	return out
}

// propertyAccessor returns "setter", "deleter" or "getter" when d is decorated @name.<accessor>.
func propertyAccessor(d *pyparse.Definition, name string) string {
	for _, dec := range d.Decorators {
		for _, acc := range []string{"setter", "deleter", "getter"} {
			if dec == name+"."+acc {
				return acc
			}
		}
	}
	return ""
}

func isOverload(d *pyparse.Definition) bool {
	for _, dec := range d.Decorators {
		if decoratorLabel(dec) == "overload" {
			return true
		}
	}
	return false
}

// decoratorLabel reduces decorator text to its final dotted component without call
// arguments: "functools.cached_property" -> "cached_property", "lru_cache(1)" -> "lru_cache".
func decoratorLabel(text string) string {
	if i := strings.IndexByte(text, '('); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if i := strings.LastIndexByte(text, '.'); i >= 0 {
		text = text[i+1:]
	}
	return text
}

var propertyDecorators = map[string]bool{
	"property":         true,
	"cached_property":  true,
	"abstractproperty": true,
	"computed_field":   true,
	"hybrid_property":  true,
	"classproperty":    true,
	"lazy_property":    true,
	"reify":            true,
}

// declare adds d and its members under parent. A name that is private by convention and not
// rescued by __all__ is excluded from the graph but kept for resolution.
func (b *builder) declare(m *moduleInfo, parent *apigraph.Object, d *pyparse.Definition, vis apigraph.Visibility) error {
	qname := apigraph.Join(parent.QualifiedName, d.Name)
	parentEntry := b.entries[parent.QualifiedName]

	excluded := parentEntry != nil && parentEntry.excluded
	if apigraph.IsPrivateName(d.Name) && vis == apigraph.Private {
		excluded = true
	}

	obj := &apigraph.Object{
		QualifiedName: qname,
		Name:          d.Name,
		Parent:        parent.QualifiedName,
		Visibility:    vis,
		Docstring:     d.Docstring,
		File:          m.file,
		Line:          d.Line,
	}
	e := &entry{obj: obj, mod: m, def: d, excluded: excluded}
	inClass := parent.Kind == apigraph.KindClass

	switch d.Kind {
	case pyparse.DefClass:
		obj.Kind = apigraph.KindClass
		e.baseExprs = d.Bases
		if err := b.add(e); err != nil {
			return err
		}
		return b.declareMembers(m, e, d)

	case pyparse.DefFunction:
		normalizeFunction(obj, d, inClass)

	case pyparse.DefAttribute:
		obj.Kind = apigraph.KindAttribute
		obj.Annotation = d.Annotation
		obj.Value = d.Value
		obj.Synthetic = apigraph.IsMachineryAttribute(d.Name)
	}
	return b.add(e)
}

func (b *builder) declareMembers(m *moduleInfo, e *entry, d *pyparse.Definition) error {
	members := lastDefinitions(d.Members)
	seen := make(map[string]bool, len(members))
	for _, md := range members {
		seen[md.Name] = true
		e.declared = append(e.declared, md.Name)
		vis := apigraph.VisibilityOf(md.Name, e.obj.Visibility, nil)
		if err := b.declare(m, e.obj, md, vis); err != nil {
			return err
		}
	}

	// Instance attributes assigned in __init__ that the class body does not declare.
	for _, md := range members {
		if md.Kind != pyparse.DefFunction || md.Name != "__init__" {
			continue
		}
		for _, attr := range md.InstanceAttributes {
			if seen[attr.Name] {
				continue
			}
			seen[attr.Name] = true
			e.declared = append(e.declared, attr.Name)
			inst := &pyparse.Definition{
				Kind:       pyparse.DefAttribute,
				Name:       attr.Name,
				Line:       attr.Line,
				Column:     attr.Column,
				Annotation: attr.Annotation,
			}
			vis := apigraph.VisibilityOf(attr.Name, e.obj.Visibility, nil)
			if err := b.declare(m, e.obj, inst, vis); err != nil {
				return err
			}
		}
	}
	return nil
}

// normalizeFunction fills in kind, signature and canonical decorators. Receivers of instance
// and class methods are dropped; static methods keep every parameter; properties lose their
// signature and expose the return annotation as their type.
func normalizeFunction(obj *apigraph.Object, d *pyparse.Definition, inClass bool) {
	labels := make(map[string]bool)
	writable := false
	for _, dec := range d.Decorators {
		if strings.HasSuffix(dec, ".setter") {
			writable = true
			continue
		}
		labels[decoratorLabel(dec)] = true
	}

	isProperty := false
	for l := range labels {
		if propertyDecorators[l] {
			isProperty = true
		}
	}

	if inClass && isProperty {
		obj.Kind = apigraph.KindProperty
		obj.Annotation = d.Returns
		obj.Decorators = []string{apigraph.DecoratorProperty}
		if writable {
			obj.Decorators = append(obj.Decorators, apigraph.DecoratorWritable)
		}
		if labels["abstractmethod"] || labels["abstractproperty"] {
			obj.Decorators = append(obj.Decorators, apigraph.DecoratorAbstractMethod)
		}
		return
	}

	params := append([]apigraph.Parameter(nil), d.Parameters...)
	var decorators []string
	if d.Async {
		decorators = append(decorators, apigraph.DecoratorAsync)
	}

	if inClass {
		obj.Kind = apigraph.KindMethod
		switch {
		case labels["staticmethod"]:
			decorators = append(decorators, apigraph.DecoratorStaticMethod)
		case labels["classmethod"]:
			decorators = append(decorators, apigraph.DecoratorClassMethod)
			params = dropReceiver(params)
		default:
			params = dropReceiver(params)
		}
	} else {
		obj.Kind = apigraph.KindFunction
	}

	if labels["abstractmethod"] {
		decorators = append(decorators, apigraph.DecoratorAbstractMethod)
	}
	if labels["overload"] {
		decorators = append(decorators, apigraph.DecoratorOverload)
	}

	obj.Signature = &apigraph.Signature{Parameters: params}
	obj.Returns = d.Returns
	obj.Decorators = decorators
}

// dropReceiver removes the implicit first parameter. A method whose first parameter is
// variadic has no separate receiver slot.
func dropReceiver(params []apigraph.Parameter) []apigraph.Parameter {
	if len(params) == 0 || params[0].IsVariadic() {
		return params
	}
	return params[1:]
}
