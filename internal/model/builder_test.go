package model

import (
	"reflect"
	"strings"
	"testing"

	"pysemver/internal/apigraph"
	"pysemver/internal/errors"
	"pysemver/internal/pyparse"
)

func fn(name string, params ...string) *pyparse.Definition {
	d := &pyparse.Definition{Kind: pyparse.DefFunction, Name: name, Line: 1}
	for _, p := range params {
		d.Parameters = append(d.Parameters, apigraph.Parameter{Name: p, Kind: apigraph.PositionalOrKeyword})
	}
	return d
}

func method(name string, params ...string) *pyparse.Definition {
	return fn(name, append([]string{"self"}, params...)...)
}

func class(name string, bases []string, members ...*pyparse.Definition) *pyparse.Definition {
	return &pyparse.Definition{Kind: pyparse.DefClass, Name: name, Bases: bases, Members: members, Line: 1}
}

func attr(name, annotation, value string) *pyparse.Definition {
	return &pyparse.Definition{Kind: pyparse.DefAttribute, Name: name, Annotation: annotation, Value: value, Line: 1}
}

func decorated(d *pyparse.Definition, decorators ...string) *pyparse.Definition {
	d.Decorators = decorators
	return d
}

func exports(names ...string) *pyparse.ExportList {
	return &pyparse.ExportList{Names: names}
}

func build(t *testing.T, mods ...*pyparse.Module) *apigraph.Graph {
	t.Helper()
	g, err := Build(mods, Options{})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return g
}

func mustGet(t *testing.T, g *apigraph.Graph, qname string) *apigraph.Object {
	t.Helper()
	obj, ok := g.Get(qname)
	if !ok {
		t.Fatalf("%s missing from graph; have %v", qname, g.Names())
	}
	return obj
}

func hasWarning(g *apigraph.Graph, substr string) bool {
	for _, w := range g.Warnings() {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func TestLinearizer(t *testing.T) {
	tests := []struct {
		name  string
		bases map[string][]string
		class string
		want  []string
		cycle []string
	}{
		{
			name:  "diamond",
			bases: map[string][]string{"D": {"B", "C"}, "B": {"A"}, "C": {"A"}},
			class: "D",
			want:  []string{"D", "B", "A", "C"},
		},
		{
			name:  "single chain",
			bases: map[string][]string{"C": {"B"}, "B": {"A"}},
			class: "C",
			want:  []string{"C", "B", "A"},
		},
		{
			name:  "external bases are leaves",
			bases: map[string][]string{"C": {"ext.Base"}},
			class: "C",
			want:  []string{"C", "ext.Base"},
		},
		{
			name:  "two-class cycle",
			bases: map[string][]string{"A": {"B"}, "B": {"A"}},
			class: "A",
			cycle: []string{"A", "B", "A"},
		},
		{
			name:  "self cycle",
			bases: map[string][]string{"A": {"A"}},
			class: "A",
			cycle: []string{"A", "A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lz := NewLinearizer(func(c string) []string { return tt.bases[c] })
			got, cycle := lz.Linearize(tt.class)
			if !reflect.DeepEqual(cycle, tt.cycle) {
				t.Fatalf("cycle = %v, want %v", cycle, tt.cycle)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Linearize(%s) = %v, want %v", tt.class, got, tt.want)
			}
		})
	}
}

func TestDecoratorLabel(t *testing.T) {
	tests := map[string]string{
		"property":                           "property",
		"functools.cached_property":          "cached_property",
		"lru_cache(maxsize=1)":               "lru_cache",
		"dataclasses.dataclass(frozen=True)": "dataclass",
		"x.setter":                           "setter",
	}
	for in, want := range tests {
		if got := decoratorLabel(in); got != want {
			t.Errorf("decoratorLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLastDefinitions(t *testing.T) {
	impl := fn("parse", "data")
	defs := []*pyparse.Definition{
		decorated(fn("parse", "data"), "overload"),
		impl,
		decorated(fn("parse", "text"), "typing.overload"),
		decorated(method("size"), "property"),
		decorated(method("size", "value"), "size.setter"),
		decorated(method("size"), "size.deleter"),
		attr("x", "", "1"),
		attr("x", "", "2"),
	}

	got := lastDefinitions(defs)
	if len(got) != 3 {
		t.Fatalf("got %d definitions, want 3", len(got))
	}
	if got[0] != impl {
		t.Errorf("overload stub replaced the implementation")
	}
	if !reflect.DeepEqual(got[1].Decorators, []string{"property", "size.setter"}) {
		t.Errorf("property decorators = %v", got[1].Decorators)
	}
	if len(got[1].Parameters) != 1 {
		t.Errorf("setter parameters leaked into getter: %v", got[1].Parameters)
	}
	if got[2].Value != "2" {
		t.Errorf("later assignment should win, got %q", got[2].Value)
	}
	if len(defs[3].Decorators) != 1 {
		t.Errorf("input definition was mutated: %v", defs[3].Decorators)
	}
}

func TestBuild_Visibility(t *testing.T) {
	g := build(t,
		&pyparse.Module{Path: "pkg/__init__.py", Definitions: []*pyparse.Definition{
			fn("public_fn"),
			fn("_hidden"),
			class("Widget", nil, method("draw"), method("_paint")),
		}},
		&pyparse.Module{Path: "pkg/listed.py", Exports: exports("a", "_b"), Definitions: []*pyparse.Definition{
			fn("a"), fn("_b"), fn("c"), attr("__all__", "", `["a", "_b"]`),
		}},
		&pyparse.Module{Path: "pkg/_internal.py", Definitions: []*pyparse.Definition{fn("run")}},
	)

	tests := []struct {
		qname   string
		present bool
		vis     apigraph.Visibility
	}{
		{"pkg", true, apigraph.Public},
		{"pkg.public_fn", true, apigraph.Public},
		{"pkg._hidden", false, ""},
		{"pkg.Widget.draw", true, apigraph.Public},
		{"pkg.Widget._paint", false, ""},
		{"pkg.listed.a", true, apigraph.Public},
		{"pkg.listed._b", true, apigraph.Public},
		{"pkg.listed.c", true, apigraph.Private},
		{"pkg._internal", false, ""},
		{"pkg._internal.run", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.qname, func(t *testing.T) {
			obj, ok := g.Get(tt.qname)
			if ok != tt.present {
				t.Fatalf("present = %v, want %v", ok, tt.present)
			}
			if ok && obj.Visibility != tt.vis {
				t.Errorf("Visibility = %s, want %s", obj.Visibility, tt.vis)
			}
		})
	}

	if all := mustGet(t, g, "pkg.listed.__all__"); !all.Synthetic {
		t.Error("__all__ should be synthetic")
	}
}

func TestBuild_MethodNormalization(t *testing.T) {
	getter := decorated(method("size"), "property")
	getter.Returns = "int"
	g := build(t, &pyparse.Module{Path: "pkg/shapes.py", Definitions: []*pyparse.Definition{
		class("Shape", nil,
			method("scale", "factor"),
			decorated(fn("make", "w", "h"), "staticmethod"),
			decorated(fn("from_dict", "cls", "data"), "classmethod"),
			getter,
			decorated(method("size", "value"), "size.setter"),
			&pyparse.Definition{Kind: pyparse.DefFunction, Name: "stream", Async: true, Line: 1,
				Parameters: []apigraph.Parameter{{Name: "args", Kind: apigraph.VarPositional}}},
		),
	}})

	params := func(qname string) []string {
		var names []string
		for _, p := range mustGet(t, g, qname).Signature.Parameters {
			names = append(names, p.Name)
		}
		return names
	}

	if got := params("pkg.shapes.Shape.scale"); !reflect.DeepEqual(got, []string{"factor"}) {
		t.Errorf("instance method params = %v", got)
	}
	if got := params("pkg.shapes.Shape.make"); !reflect.DeepEqual(got, []string{"w", "h"}) {
		t.Errorf("staticmethod params = %v", got)
	}
	if got := params("pkg.shapes.Shape.from_dict"); !reflect.DeepEqual(got, []string{"data"}) {
		t.Errorf("classmethod params = %v", got)
	}
	if got := params("pkg.shapes.Shape.stream"); !reflect.DeepEqual(got, []string{"args"}) {
		t.Errorf("variadic receiver should be kept, got %v", got)
	}

	stream := mustGet(t, g, "pkg.shapes.Shape.stream")
	if !stream.HasDecorator(apigraph.DecoratorAsync) {
		t.Errorf("stream decorators = %v", stream.Decorators)
	}
	if !mustGet(t, g, "pkg.shapes.Shape.make").HasDecorator(apigraph.DecoratorStaticMethod) {
		t.Error("make should carry staticmethod")
	}

	size := mustGet(t, g, "pkg.shapes.Shape.size")
	if size.Kind != apigraph.KindProperty || size.Annotation != "int" {
		t.Errorf("size kind=%s annotation=%q", size.Kind, size.Annotation)
	}
	if !size.HasDecorator(apigraph.DecoratorWritable) {
		t.Errorf("size decorators = %v, want writable", size.Decorators)
	}
}

func TestBuild_Inheritance(t *testing.T) {
	g := build(t, &pyparse.Module{Path: "pkg/base.py", Definitions: []*pyparse.Definition{
		class("A", nil, method("run")),
		class("B", []string{"object"}, method("run", "x"), method("helper")),
		class("D", []string{"A", "B"}, method("own")),
	}})

	d := mustGet(t, g, "pkg.base.D")
	if want := []string{"pkg.base.D", "pkg.base.A", "pkg.base.B"}; !reflect.DeepEqual(d.Linearization, want) {
		t.Errorf("Linearization = %v, want %v", d.Linearization, want)
	}
	if len(mustGet(t, g, "pkg.base.B").Bases) != 0 {
		t.Error("object base should be dropped")
	}

	run := mustGet(t, g, "pkg.base.D.run")
	if run.InheritedFrom != "pkg.base.A.run" {
		t.Errorf("run InheritedFrom = %q, want the earlier base", run.InheritedFrom)
	}
	if len(run.Signature.Parameters) != 0 {
		t.Errorf("run should keep A's signature, got %s", run.Signature)
	}
	if h := mustGet(t, g, "pkg.base.D.helper"); h.InheritedFrom != "pkg.base.B.helper" {
		t.Errorf("helper InheritedFrom = %q", h.InheritedFrom)
	}
	if own := mustGet(t, g, "pkg.base.D.own"); own.InheritedFrom != "" {
		t.Errorf("own member marked inherited: %q", own.InheritedFrom)
	}
	if d.Members["run"] != "pkg.base.A.run" || d.Members["own"] != "pkg.base.D.own" {
		t.Errorf("Members = %v", d.Members)
	}

	// The namespace package exists without a source file.
	if pkg := mustGet(t, g, "pkg"); pkg.Kind != apigraph.KindModule || pkg.File != "" {
		t.Errorf("namespace package = %+v", pkg)
	}
}

func TestBuild_ExternalBaseWarns(t *testing.T) {
	g := build(t, &pyparse.Module{
		Path:        "pkg/m.py",
		Imports:     []pyparse.Import{{From: true, Module: "django.db", Name: "models", Line: 1}},
		Definitions: []*pyparse.Definition{class("Row", []string{"models.Model", "Exception"})},
	})

	row := mustGet(t, g, "pkg.m.Row")
	want := []apigraph.Base{{Name: "django.db.models.Model", External: true}, {Name: "builtins.Exception", External: true}}
	if !reflect.DeepEqual(row.Bases, want) {
		t.Errorf("Bases = %+v, want %+v", row.Bases, want)
	}
	if len(g.Warnings()) != 1 || !hasWarning(g, "external") {
		t.Errorf("Warnings = %v", g.Warnings())
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		mods []*pyparse.Module
		code errors.ErrorCode
		msg  string
	}{
		{
			name: "base cycle",
			mods: []*pyparse.Module{{Path: "pkg/m.py", Definitions: []*pyparse.Definition{
				class("X", []string{"Y"}), class("Y", []string{"X"}),
			}}},
			code: errors.BaseCycle,
			msg:  "pkg.m.X -> pkg.m.Y -> pkg.m.X",
		},
		{
			name: "two files for one module",
			mods: []*pyparse.Module{{Path: "pkg/a.py"}, {Path: "pkg/a/__init__.py"}},
			code: errors.NameCollision,
		},
		{
			name: "attribute and submodule",
			mods: []*pyparse.Module{
				{Path: "pkg/__init__.py", Definitions: []*pyparse.Definition{attr("sub", "", "1")}},
				{Path: "pkg/sub.py"},
			},
			code: errors.NameCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.mods, Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if g != nil {
				t.Error("no graph should be returned on error")
			}
			if got := errors.CodeOf(err); got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
			if !errors.IsModelError(err) {
				t.Errorf("IsModelError(%v) = false", err)
			}
			if tt.msg != "" && !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not contain %q", err, tt.msg)
			}
		})
	}
}

func TestBuild_Reexports(t *testing.T) {
	g := build(t,
		&pyparse.Module{
			Path:    "pkg/__init__.py",
			Exports: exports("Engine", "path", "missing"),
			Imports: []pyparse.Import{
				{From: true, Level: 1, Module: "_impl", Name: "Engine", Line: 1},
				{From: true, Module: "os", Name: "path", Line: 2},
			},
		},
		&pyparse.Module{Path: "pkg/_impl.py", Definitions: []*pyparse.Definition{
			class("Engine", nil, method("start", "fast"), method("_spin")),
		}},
		&pyparse.Module{
			Path:    "pkg/tools/__init__.py",
			Imports: []pyparse.Import{{From: true, Level: 1, Module: "helpers", Name: "assist", Line: 1}},
		},
		&pyparse.Module{Path: "pkg/tools/helpers.py", Definitions: []*pyparse.Definition{fn("assist", "x")}},
	)

	engine := mustGet(t, g, "pkg.Engine")
	if engine.Kind != apigraph.KindClass || engine.Visibility != apigraph.Public {
		t.Errorf("pkg.Engine = %s %s", engine.Kind, engine.Visibility)
	}
	start := mustGet(t, g, "pkg.Engine.start")
	if start.Parent != "pkg.Engine" || len(start.Signature.Parameters) != 1 {
		t.Errorf("pkg.Engine.start = %+v", start)
	}
	if _, ok := g.Get("pkg.Engine._spin"); ok {
		t.Error("private member should not be re-exported")
	}
	if _, ok := g.Get("pkg._impl.Engine"); ok {
		t.Error("declaration inside private module should be hidden")
	}

	if p := mustGet(t, g, "pkg.path"); p.Kind != apigraph.KindAttribute || p.Value != "os.path" {
		t.Errorf("pkg.path = %s %q", p.Kind, p.Value)
	}
	mustGet(t, g, "pkg.tools.assist")

	if !hasWarning(g, "does not define") {
		t.Errorf("expected warning for unresolved __all__ entry, got %v", g.Warnings())
	}
}

func TestBuild_WildcardReexport(t *testing.T) {
	g := build(t,
		&pyparse.Module{
			Path:    "pkg/__init__.py",
			Imports: []pyparse.Import{{From: true, Level: 1, Module: "core", Wildcard: true, Line: 1}},
		},
		&pyparse.Module{Path: "pkg/core.py", Definitions: []*pyparse.Definition{fn("load"), fn("_setup")}},
	)

	mustGet(t, g, "pkg.load")
	if _, ok := g.Get("pkg._setup"); ok {
		t.Error("wildcard import should not bind private names")
	}
}

func TestBuild_Dataclass(t *testing.T) {
	g := build(t, &pyparse.Module{Path: "pkg/m.py", Definitions: []*pyparse.Definition{
		decorated(class("Point", nil,
			attr("x", "int", ""),
			attr("y", "int", "0"),
			attr("registry", "ClassVar[dict]", "{}"),
			attr("tags", "list[str]", "field(default_factory=list)"),
			attr("cache", "dict", "field(init=False)"),
		), "dataclass"),
		decorated(class("Point3", []string{"Point"}, attr("z", "int", "0")), "dataclasses.dataclass(kw_only=True)"),
		decorated(class("Manual", nil, attr("a", "int", ""), method("__init__")), "dataclass"),
	}})

	tests := []struct {
		qname string
		want  string
	}{
		{"pkg.m.Point.__init__", "(x: int, y: int = 0, tags: list[str] = field(default_factory=list))"},
		{"pkg.m.Point3.__init__", "(x: int, y: int = 0, tags: list[str] = field(default_factory=list), *, z: int = 0)"},
		{"pkg.m.Manual.__init__", "()"},
	}
	for _, tt := range tests {
		t.Run(tt.qname, func(t *testing.T) {
			init := mustGet(t, g, tt.qname)
			if got := init.Signature.String(); got != tt.want {
				t.Errorf("signature = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuild_InstanceAttributes(t *testing.T) {
	init := method("__init__", "name")
	init.InstanceAttributes = []*pyparse.Definition{
		{Kind: pyparse.DefAttribute, Name: "name", Line: 3},
		{Kind: pyparse.DefAttribute, Name: "limit", Line: 4},
		{Kind: pyparse.DefAttribute, Name: "_cache", Line: 5},
	}
	g := build(t, &pyparse.Module{Path: "pkg/m.py", Definitions: []*pyparse.Definition{
		class("Client", nil, attr("limit", "int", "10"), init),
	}})

	name := mustGet(t, g, "pkg.m.Client.name")
	if name.Kind != apigraph.KindAttribute || name.Line != 3 {
		t.Errorf("name = %+v", name)
	}
	if limit := mustGet(t, g, "pkg.m.Client.limit"); limit.Value != "10" {
		t.Errorf("class-level declaration should win, got value %q", limit.Value)
	}
	if _, ok := g.Get("pkg.m.Client._cache"); ok {
		t.Error("private instance attribute should be excluded")
	}
}

func TestBuild_Warnings(t *testing.T) {
	g := build(t,
		&pyparse.Module{Path: "pkg/lazy.py", Definitions: []*pyparse.Definition{fn("__getattr__", "name")}},
		&pyparse.Module{Path: "pkg/dyn.py", Exports: &pyparse.ExportList{Dynamic: true}, Definitions: []*pyparse.Definition{fn("f"), fn("_g")}},
	)

	if !hasWarning(g, "dynamic attributes are not modelled") {
		t.Errorf("missing __getattr__ warning: %v", g.Warnings())
	}
	if !hasWarning(g, "naming convention") {
		t.Errorf("missing dynamic __all__ warning: %v", g.Warnings())
	}
	mustGet(t, g, "pkg.dyn.f")
	if _, ok := g.Get("pkg.dyn._g"); ok {
		t.Error("dynamic __all__ should fall back to naming convention")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	mods := func() []*pyparse.Module {
		return []*pyparse.Module{
			{Path: "pkg/__init__.py", Exports: exports("Thing"), Imports: []pyparse.Import{{From: true, Level: 1, Module: "m", Name: "Thing", Line: 1}}},
			{Path: "pkg/m.py", Definitions: []*pyparse.Definition{class("Base", nil, method("a")), class("Thing", []string{"Base"}, method("b"))}},
		}
	}
	a := build(t, mods()...)
	b := build(t, mods()...)
	if !reflect.DeepEqual(a.Names(), b.Names()) {
		t.Fatalf("names differ:\n%v\n%v", a.Names(), b.Names())
	}
	for _, n := range a.Names() {
		x, _ := a.Get(n)
		y, _ := b.Get(n)
		if !reflect.DeepEqual(x, y) {
			t.Errorf("%s differs between builds", n)
		}
	}
}
