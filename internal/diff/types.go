// Package diff aligns two API graphs by qualified name and reports what changed.
// Identity is purely name-based: a rename shows up as a removal plus an addition.
package diff

import (
	"strings"

	"pysemver/internal/apigraph"
)

// ChangeKind is the kind of a change.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"    // Only in head
	ChangeRemoved  ChangeKind = "removed"  // Only in baseline
	ChangeModified ChangeKind = "modified" // In both, one field differs
)

// Field names a compared property of an object.
type Field string

const (
	FieldKind       Field = "kind"
	FieldVisibility Field = "visibility"
	FieldSignature  Field = "signature"
	FieldReturns    Field = "returns"
	FieldBases      Field = "bases"
	FieldDecorators Field = "decorators"
	FieldAnnotation Field = "annotation"
	FieldValue      Field = "value"
	FieldDocstring  Field = "docstring"
)

// Fields lists every compared field in comparison order.
var Fields = []Field{
	FieldKind,
	FieldVisibility,
	FieldSignature,
	FieldReturns,
	FieldBases,
	FieldDecorators,
	FieldAnnotation,
	FieldValue,
	FieldDocstring,
}

func fieldRank(f Field) int {
	for i, x := range Fields {
		if x == f {
			return i
		}
	}
	return len(Fields)
}

// Change is one difference between the baseline and head graphs. A modified object yields
// one Change per differing field.
type Change struct {
	QualifiedName string     `json:"qualifiedName" yaml:"qualifiedName"`
	Kind          ChangeKind `json:"kind" yaml:"kind"`
	Field         Field      `json:"field,omitempty" yaml:"field,omitempty"`
	Before        string     `json:"before,omitempty" yaml:"before,omitempty"`
	After         string     `json:"after,omitempty" yaml:"after,omitempty"`

	// Old is the baseline object (nil when added); New the head object (nil when removed).
	Old *apigraph.Object `json:"-" yaml:"-"`
	New *apigraph.Object `json:"-" yaml:"-"`
}

// Object returns the head object when present, else the baseline object.
func (c Change) Object() *apigraph.Object {
	if c.New != nil {
		return c.New
	}
	return c.Old
}

// FieldText renders field of obj as comparable text.
func FieldText(obj *apigraph.Object, f Field) string {
	if obj == nil {
		return ""
	}
	switch f {
	case FieldKind:
		return string(obj.Kind)
	case FieldVisibility:
		return string(obj.Visibility)
	case FieldSignature:
		return obj.Signature.String()
	case FieldReturns:
		return obj.Returns
	case FieldBases:
		return strings.Join(obj.BaseNames(), ", ")
	case FieldDecorators:
		return strings.Join(obj.Decorators, ", ")
	case FieldAnnotation:
		return obj.Annotation
	case FieldValue:
		return obj.Value
	case FieldDocstring:
		return obj.Docstring
	}
	return ""
}
