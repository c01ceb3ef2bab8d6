package model

import (
	"strings"

	"pysemver/internal/apigraph"
	"pysemver/internal/pyparse"
)

// dataclassDecorators generate __init__ from annotated class attributes.
var dataclassDecorators = map[string]bool{
	"dataclass": true,
	"define":    true,
	"frozen":    true,
	"mutable":   true,
}

func dataclassDecorator(d *pyparse.Definition) (string, bool) {
	if d == nil || d.Kind != pyparse.DefClass {
		return "", false
	}
	for _, dec := range d.Decorators {
		if dataclassDecorators[decoratorLabel(dec)] {
			return dec, true
		}
	}
	return "", false
}

// synthesizeDataclassInits adds the generated __init__ of dataclass-style classes that do not
// define one. Fields come from annotated class attributes along the linearization, most
// distant ancestor first, so a subclass field keeps its ancestor's position.
func (b *builder) synthesizeDataclassInits() {
	for _, q := range b.classNames() {
		e := b.entries[q]
		dec, ok := dataclassDecorator(e.def)
		if !ok || strings.Contains(dec, "init=False") {
			continue
		}
		if _, defined := b.entries[q+".__init__"]; defined {
			continue
		}

		var order []string
		fields := make(map[string]apigraph.Parameter)
		lin := b.lin[q]
		for i := len(lin) - 1; i >= 0; i-- {
			ae, ok := b.entries[lin[i]]
			if !ok {
				continue
			}
			aDec, isDC := dataclassDecorator(ae.def)
			if !isDC {
				continue
			}
			kwOnly := strings.Contains(aDec, "kw_only=True")
			for _, name := range ae.declared {
				fe, ok := b.entries[apigraph.Join(lin[i], name)]
				if !ok || fe.def == nil || fe.def.Kind != pyparse.DefAttribute || fe.def.Annotation == "" {
					continue
				}
				if isClassVar(fe.def.Annotation) || strings.Contains(fe.def.Value, "init=False") {
					continue
				}
				p := apigraph.Parameter{Name: name, Kind: apigraph.PositionalOrKeyword, Annotation: fe.def.Annotation}
				if kwOnly || strings.Contains(fe.def.Value, "kw_only=True") {
					p.Kind = apigraph.KeywordOnly
				}
				if fe.def.Value != "" && !isBareField(fe.def.Value) {
					p.HasDefault = true
					p.Default = fe.def.Value
				}
				if _, seen := fields[name]; !seen {
					order = append(order, name)
				}
				fields[name] = p
			}
		}

		// Keyword-only fields follow the positional ones, as the generated __init__ orders them.
		params := make([]apigraph.Parameter, 0, len(order))
		for _, n := range order {
			if fields[n].Kind != apigraph.KeywordOnly {
				params = append(params, fields[n])
			}
		}
		for _, n := range order {
			if fields[n].Kind == apigraph.KeywordOnly {
				params = append(params, fields[n])
			}
		}

		obj := &apigraph.Object{
			QualifiedName: q + ".__init__",
			Name:          "__init__",
			Parent:        q,
			Kind:          apigraph.KindMethod,
			Visibility:    apigraph.VisibilityOf("__init__", e.obj.Visibility, nil),
			Signature:     &apigraph.Signature{Parameters: params},
			Returns:       "None",
			File:          e.obj.File,
			Line:          e.obj.Line,
		}
		b.entries[obj.QualifiedName] = &entry{obj: obj, mod: e.mod}
		e.declared = append(e.declared, "__init__")
	}
}

func isClassVar(annotation string) bool {
	return annotation == "ClassVar" || strings.HasPrefix(annotation, "ClassVar[") ||
		strings.HasPrefix(annotation, "typing.ClassVar")
}

// isBareField reports whether a field() call provides no default.
func isBareField(value string) bool {
	label := decoratorLabel(value)
	if label != "field" && label != "Field" {
		return false
	}
	return !strings.Contains(value, "default")
}
