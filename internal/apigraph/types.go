// Package apigraph holds the normalized, revision-scoped model of a Python library's
// public interface: a mapping from qualified name to Object.
package apigraph

import (
	"strings"
)

// Kind is the kind of an API object.
type Kind string

const (
	KindModule    Kind = "module"
	KindClass     Kind = "class"
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindProperty  Kind = "property"
	KindAttribute Kind = "attribute"
	KindParameter Kind = "parameter"
)

// Visibility is public or private.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// ParamKind describes how a parameter can be passed.
type ParamKind string

const (
	PositionalOnly      ParamKind = "positional-only"
	PositionalOrKeyword ParamKind = "positional-or-keyword"
	KeywordOnly         ParamKind = "keyword-only"
	VarPositional       ParamKind = "var-positional"
	VarKeyword          ParamKind = "var-keyword"
)

// Positional reports whether arguments can bind to the parameter by position.
func (k ParamKind) Positional() bool {
	return k == PositionalOnly || k == PositionalOrKeyword
}

// Keyword reports whether arguments can bind to the parameter by name.
func (k ParamKind) Keyword() bool {
	return k == PositionalOrKeyword || k == KeywordOnly
}

// Canonical decorator labels. Only decorators that change calling convention are kept.
const (
	DecoratorStaticMethod   = "staticmethod"
	DecoratorClassMethod    = "classmethod"
	DecoratorProperty       = "property"
	DecoratorWritable       = "writable"
	DecoratorAsync          = "async"
	DecoratorAbstractMethod = "abstractmethod"
	DecoratorOverload       = "overload"
)

// Parameter is one entry of a signature.
type Parameter struct {
	Name       string    `json:"name" yaml:"name"`
	Kind       ParamKind `json:"kind" yaml:"kind"`
	HasDefault bool      `json:"hasDefault,omitempty" yaml:"hasDefault,omitempty"`
	Default    string    `json:"default,omitempty" yaml:"default,omitempty"`
	Annotation string    `json:"annotation,omitempty" yaml:"annotation,omitempty"`
}

// IsVariadic reports whether the parameter collects extra arguments (*args or **kwargs).
func (p Parameter) IsVariadic() bool {
	return p.Kind == VarPositional || p.Kind == VarKeyword
}

// Required reports whether every call must supply the parameter.
func (p Parameter) Required() bool {
	return !p.HasDefault && !p.IsVariadic()
}

// String renders the parameter the way it would be written in a def statement.
func (p Parameter) String() string {
	var sb strings.Builder
	switch p.Kind {
	case VarPositional:
		sb.WriteString("*")
	case VarKeyword:
		sb.WriteString("**")
	}
	sb.WriteString(p.Name)
	if p.Annotation != "" {
		sb.WriteString(": ")
		sb.WriteString(p.Annotation)
	}
	if p.HasDefault {
		if p.Annotation != "" {
			sb.WriteString(" = ")
		} else {
			sb.WriteString("=")
		}
		sb.WriteString(p.Default)
	}
	return sb.String()
}

// Signature is the ordered, caller-visible parameter list of a function or method.
// Receivers (self/cls) have already been removed by the model builder.
type Signature struct {
	Parameters []Parameter `json:"parameters" yaml:"parameters"`
}

// Param returns the parameter with the given name.
func (s *Signature) Param(name string) (Parameter, int, bool) {
	if s == nil {
		return Parameter{}, -1, false
	}
	for i, p := range s.Parameters {
		if p.Name == name {
			return p, i, true
		}
	}
	return Parameter{}, -1, false
}

// Variadic returns the *args or **kwargs parameter if present.
func (s *Signature) Variadic(kind ParamKind) (Parameter, bool) {
	if s == nil {
		return Parameter{}, false
	}
	for _, p := range s.Parameters {
		if p.Kind == kind {
			return p, true
		}
	}
	return Parameter{}, false
}

// Positionals returns the names of parameters that bind by position, in order.
func (s *Signature) Positionals() []string {
	if s == nil {
		return nil
	}
	var names []string
	for _, p := range s.Parameters {
		if p.Kind.Positional() {
			names = append(names, p.Name)
		}
	}
	return names
}

// String renders the signature with the "/" and "*" separators Python would need.
func (s *Signature) String() string {
	if s == nil {
		return ""
	}
	parts := make([]string, 0, len(s.Parameters)+2)
	sawPositionalOnly := false
	sawStar := false
	for i, p := range s.Parameters {
		if p.Kind != PositionalOnly && sawPositionalOnly {
			parts = append(parts, "/")
			sawPositionalOnly = false
		}
		if p.Kind == VarPositional {
			sawStar = true
		}
		if p.Kind == KeywordOnly && !sawStar {
			parts = append(parts, "*")
			sawStar = true
		}
		parts = append(parts, p.String())
		if p.Kind == PositionalOnly {
			sawPositionalOnly = true
			if i == len(s.Parameters)-1 {
				parts = append(parts, "/")
			}
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Base is one entry of a class's declared base list.
// Name is a qualified name in the same graph, or the best-effort dotted name of an
// external class when External is set.
type Base struct {
	Name     string `json:"name" yaml:"name"`
	External bool   `json:"external,omitempty" yaml:"external,omitempty"`
}

// Object is the unit of identity in a Graph.
type Object struct {
	QualifiedName string     `json:"qualifiedName" yaml:"qualifiedName"`
	Name          string     `json:"name" yaml:"name"`
	Parent        string     `json:"parent,omitempty" yaml:"parent,omitempty"`
	Kind          Kind       `json:"kind" yaml:"kind"`
	Visibility    Visibility `json:"visibility" yaml:"visibility"`

	Signature  *Signature `json:"signature,omitempty" yaml:"signature,omitempty"`
	Returns    string     `json:"returns,omitempty" yaml:"returns,omitempty"`
	Bases      []Base     `json:"bases,omitempty" yaml:"bases,omitempty"`
	Decorators []string   `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	Annotation string     `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	Value      string     `json:"value,omitempty" yaml:"value,omitempty"`
	Docstring  string     `json:"docstring,omitempty" yaml:"docstring,omitempty"`

	File          string `json:"file,omitempty" yaml:"file,omitempty"`
	Line          int    `json:"line,omitempty" yaml:"line,omitempty"`
	InheritedFrom string `json:"inheritedFrom,omitempty" yaml:"inheritedFrom,omitempty"`
	Synthetic     bool   `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`

	// Linearization is the member lookup order for classes, self first.
	Linearization []string `json:"linearization,omitempty" yaml:"linearization,omitempty"`
	// Members maps each effective member name of a class to the qualified name
	// of the object that declares it.
	Members map[string]string `json:"members,omitempty" yaml:"members,omitempty"`
}

// IsPublic reports whether the object is part of the public interface.
func (o *Object) IsPublic() bool {
	return o != nil && o.Visibility == Public
}

// HasDecorator reports whether the canonical decorator label is present.
func (o *Object) HasDecorator(label string) bool {
	for _, d := range o.Decorators {
		if d == label {
			return true
		}
	}
	return false
}

// Callable reports whether the object carries a signature.
func (o *Object) Callable() bool {
	return o.Kind == KindFunction || o.Kind == KindMethod
}

// BaseNames returns the base names in declaration order.
func (o *Object) BaseNames() []string {
	names := make([]string, len(o.Bases))
	for i, b := range o.Bases {
		names[i] = b.Name
	}
	return names
}

// Display renders a short human form: "name(sig) -> ret" for callables, "name: T = v"
// for attributes and properties, "class name(bases)" for classes.
func (o *Object) Display() string {
	switch o.Kind {
	case KindFunction, KindMethod:
		s := o.Name + o.Signature.String()
		if o.Returns != "" {
			s += " -> " + o.Returns
		}
		return s
	case KindClass:
		if len(o.Bases) == 0 {
			return "class " + o.Name
		}
		return "class " + o.Name + "(" + strings.Join(o.BaseNames(), ", ") + ")"
	case KindAttribute, KindProperty:
		s := o.Name
		if o.Annotation != "" {
			s += ": " + o.Annotation
		}
		if o.Value != "" {
			s += " = " + o.Value
		}
		return s
	default:
		return string(o.Kind) + " " + o.QualifiedName
	}
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	c := *o
	if o.Signature != nil {
		sig := Signature{Parameters: append([]Parameter(nil), o.Signature.Parameters...)}
		c.Signature = &sig
	}
	c.Bases = append([]Base(nil), o.Bases...)
	c.Decorators = append([]string(nil), o.Decorators...)
	c.Linearization = append([]string(nil), o.Linearization...)
	if o.Members != nil {
		c.Members = make(map[string]string, len(o.Members))
		for k, v := range o.Members {
			c.Members[k] = v
		}
	}
	return &c
}
