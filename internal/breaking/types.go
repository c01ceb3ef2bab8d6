package breaking

import (
	"pysemver/internal/apigraph"
	"pysemver/internal/diff"
)

// FindingKind identifies the rule that produced a finding.
type FindingKind string

const (
	KindObjectRemoved       FindingKind = "object-removed"
	KindObjectBecamePrivate FindingKind = "object-became-private"
	KindObjectBecamePublic  FindingKind = "object-became-public"
	KindObjectChangedKind   FindingKind = "object-changed-kind"
	KindObjectAdded         FindingKind = "object-added"

	KindParamAddedRequired   FindingKind = "parameter-added-required"
	KindParamAddedOptional   FindingKind = "parameter-added-optional"
	KindParamRemoved         FindingKind = "parameter-removed"
	KindParamChangedKind     FindingKind = "parameter-changed-kind"
	KindParamMoved           FindingKind = "parameter-moved"
	KindParamChangedRequired FindingKind = "parameter-changed-required"
	KindParamChangedDefault  FindingKind = "parameter-changed-default"
	KindParamChangedType     FindingKind = "parameter-changed-type"

	KindReturnChangedType     FindingKind = "return-changed-type"
	KindAttributeChangedType  FindingKind = "attribute-changed-type"
	KindAttributeChangedValue FindingKind = "attribute-changed-value"

	KindClassRemovedBase    FindingKind = "class-removed-base"
	KindClassAddedBase      FindingKind = "class-added-base"
	KindClassReorderedBases FindingKind = "class-reordered-bases"

	KindFunctionChangedAsync   FindingKind = "function-changed-async"
	KindMethodChangedBinding   FindingKind = "method-changed-binding"
	KindPropertyNotWritable    FindingKind = "property-not-writable"
	KindPropertyBecameWritable FindingKind = "property-became-writable"

	KindDocstringChanged FindingKind = "docstring-changed"
	KindUnclassified     FindingKind = "unclassified"
)

// FindingKinds lists every kind a finding can have.
var FindingKinds = []FindingKind{
	KindObjectRemoved, KindObjectBecamePrivate, KindObjectBecamePublic, KindObjectChangedKind, KindObjectAdded,
	KindParamAddedRequired, KindParamAddedOptional, KindParamRemoved, KindParamChangedKind, KindParamMoved,
	KindParamChangedRequired, KindParamChangedDefault, KindParamChangedType,
	KindReturnChangedType, KindAttributeChangedType, KindAttributeChangedValue,
	KindClassRemovedBase, KindClassAddedBase, KindClassReorderedBases,
	KindFunctionChangedAsync, KindMethodChangedBinding, KindPropertyNotWritable, KindPropertyBecameWritable,
	KindDocstringChanged, KindUnclassified,
}

// ParseFindingKind returns the kind named s.
func ParseFindingKind(s string) (FindingKind, bool) {
	for _, k := range FindingKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// additive kinds raise the semver advice to minor.
var additive = map[FindingKind]bool{
	KindObjectAdded:        true,
	KindObjectBecamePublic: true,
	KindParamAddedOptional: true,
	KindClassAddedBase:     true,
}

// Severity indicates how breaking a change is
type Severity string

const (
	SeverityBreaking    Severity = "breaking"     // Existing callers may fail
	SeverityWarning     Severity = "warning"      // Not classified as breaking, worth a look
	SeverityNonBreaking Severity = "non_breaking" // Safe change (additions, docs)
)

// Finding is the classified outcome of one change. Subject names the parameter or base
// class the finding is about, when there is one.
type Finding struct {
	QualifiedName string          `json:"qualifiedName" yaml:"qualifiedName"`
	ObjectKind    apigraph.Kind   `json:"objectKind" yaml:"objectKind"`
	Kind          FindingKind     `json:"kind" yaml:"kind"`
	ChangeKind    diff.ChangeKind `json:"changeKind" yaml:"changeKind"`
	Field         diff.Field      `json:"field,omitempty" yaml:"field,omitempty"`
	Subject       string          `json:"subject,omitempty" yaml:"subject,omitempty"`
	Breaking      bool            `json:"breaking" yaml:"breaking"`
	Severity      Severity        `json:"severity" yaml:"severity"`
	Message       string          `json:"message" yaml:"message"`
	Before        string          `json:"before,omitempty" yaml:"before,omitempty"`
	After         string          `json:"after,omitempty" yaml:"after,omitempty"`
	File          string          `json:"file,omitempty" yaml:"file,omitempty"`
	Line          int             `json:"line,omitempty" yaml:"line,omitempty"`
	Ignored       bool            `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	Hint          string          `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// Summary provides an overview of the findings
type Summary struct {
	TotalFindings int            `json:"totalFindings" yaml:"totalFindings"`
	Breaking      int            `json:"breaking" yaml:"breaking"`
	Warnings      int            `json:"warnings" yaml:"warnings"`
	NonBreaking   int            `json:"nonBreaking" yaml:"nonBreaking"`
	Additions     int            `json:"additions" yaml:"additions"`
	Ignored       int            `json:"ignored" yaml:"ignored"`
	ByKind        map[string]int `json:"byKind" yaml:"byKind"`
}

// Result is the classification of one change set.
type Result struct {
	Findings     []Finding `json:"findings" yaml:"findings"`
	Summary      *Summary  `json:"summary" yaml:"summary"`
	SemverAdvice string    `json:"semverAdvice" yaml:"semverAdvice"` // "major", "minor", "patch"
}

// HasBreakingChanges returns true if there are any breaking findings
func (r *Result) HasBreakingChanges() bool {
	return r != nil && r.Summary != nil && r.Summary.Breaking > 0
}

// IgnoreRule downgrades matching breaking findings. Pattern is a glob over qualified names
// ("pkg.legacy.*"); an empty Kind matches every finding kind.
type IgnoreRule struct {
	Pattern string      `json:"pattern" yaml:"pattern"`
	Kind    FindingKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Reason  string      `json:"reason,omitempty" yaml:"reason,omitempty"`
}
