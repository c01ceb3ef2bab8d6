// Package breaking decides which API changes can break existing callers.
//
// Classify applies a fixed rule table to the changes produced by the diff package. Every
// change that survives filtering yields at least one Finding; a change no rule recognises is
// reported as an informational "unclassified" finding rather than dropped.
package breaking

import (
	"fmt"
	"sort"
	"strings"

	"pysemver/internal/apigraph"
	"pysemver/internal/diff"
)

// Classify turns changes into findings, sorted by qualified name, change kind, field, kind
// and subject.
//
// Changes confined to private objects produce no finding. A change beneath an object that was
// itself removed, added, made private or changed kind is subsumed by that object's finding,
// and the remaining field changes of an object whose kind or visibility changed are dropped.
func Classify(changes []diff.Change) *Result {
	c := newClassifier(changes)

	var findings []Finding
	for _, ch := range changes {
		if c.subsumed(ch) || !touchesPublic(ch) {
			continue
		}
		findings = append(findings, c.classify(ch)...)
	}

	return newResult(findings)
}

func newResult(findings []Finding) *Result {
	sortFindings(findings)
	if findings == nil {
		findings = []Finding{}
	}
	result := &Result{Findings: findings}
	result.Summary = computeSummary(findings)
	result.SemverAdvice = computeSemverAdvice(result.Summary)
	return result
}

type classifier struct {
	removed     map[string]bool
	added       map[string]bool
	kindChanged map[string]bool
	visChanged  map[string]bool
}

func newClassifier(changes []diff.Change) *classifier {
	c := &classifier{
		removed:     make(map[string]bool),
		added:       make(map[string]bool),
		kindChanged: make(map[string]bool),
		visChanged:  make(map[string]bool),
	}
	for _, ch := range changes {
		switch {
		case ch.Kind == diff.ChangeRemoved:
			c.removed[ch.QualifiedName] = true
		case ch.Kind == diff.ChangeAdded:
			c.added[ch.QualifiedName] = true
		case ch.Field == diff.FieldKind:
			c.kindChanged[ch.QualifiedName] = true
		case ch.Field == diff.FieldVisibility:
			c.visChanged[ch.QualifiedName] = true
		}
	}
	return c
}

func (c *classifier) subsumed(ch diff.Change) bool {
	for p := apigraph.ParentOf(ch.QualifiedName); p != ""; p = apigraph.ParentOf(p) {
		if c.kindChanged[p] || c.visChanged[p] {
			return true
		}
		if (ch.Kind == diff.ChangeRemoved && c.removed[p]) || (ch.Kind == diff.ChangeAdded && c.added[p]) {
			return true
		}
	}
	if ch.Kind != diff.ChangeModified {
		return false
	}
	q := ch.QualifiedName
	switch {
	case c.kindChanged[q]:
		return ch.Field != diff.FieldKind
	case c.visChanged[q]:
		return ch.Field != diff.FieldVisibility
	}
	return false
}

// touchesPublic reports whether either side of the change is public.
func touchesPublic(ch diff.Change) bool {
	return ch.Old.IsPublic() || ch.New.IsPublic()
}

// classify applies the rule for one change.
func (c *classifier) classify(ch diff.Change) []Finding {
	obj := ch.Object()
	base := Finding{
		QualifiedName: ch.QualifiedName,
		ObjectKind:    obj.Kind,
		ChangeKind:    ch.Kind,
		Field:         ch.Field,
		Before:        ch.Before,
		After:         ch.After,
		File:          obj.File,
		Line:          obj.Line,
	}

	switch ch.Kind {
	case diff.ChangeRemoved:
		return []Finding{breakingFinding(base, KindObjectRemoved, fmt.Sprintf("public %s removed", obj.Kind))}
	case diff.ChangeAdded:
		return []Finding{safeFinding(base, KindObjectAdded, fmt.Sprintf("public %s added", obj.Kind))}
	}

	switch ch.Field {
	case diff.FieldKind:
		return []Finding{breakingFinding(base, KindObjectChangedKind,
			fmt.Sprintf("changed from %s to %s", ch.Before, ch.After))}
	case diff.FieldVisibility:
		if ch.New.IsPublic() {
			return []Finding{safeFinding(base, KindObjectBecamePublic, fmt.Sprintf("%s became public", obj.Kind))}
		}
		return []Finding{breakingFinding(base, KindObjectBecamePrivate, fmt.Sprintf("%s is no longer public", obj.Kind))}
	case diff.FieldSignature:
		return compareSignatures(base, ch.Old.Signature, ch.New.Signature)
	case diff.FieldReturns:
		return []Finding{classifyOutputType(base, KindReturnChangedType, "return type", ch.Before, ch.After)}
	case diff.FieldAnnotation:
		return []Finding{classifyOutputType(base, KindAttributeChangedType, "type", ch.Before, ch.After)}
	case diff.FieldValue:
		return []Finding{infoFinding(base, KindAttributeChangedValue,
			fmt.Sprintf("value changed from %s to %s", orNone(ch.Before), orNone(ch.After)))}
	case diff.FieldBases:
		return compareBases(base, ch.Old, ch.New)
	case diff.FieldDecorators:
		return compareDecorators(base, ch.Old, ch.New)
	case diff.FieldDocstring:
		return []Finding{safeFinding(base, KindDocstringChanged, "docstring changed")}
	}
	return []Finding{infoFinding(base, KindUnclassified, fmt.Sprintf("%s changed", ch.Field))}
}

func breakingFinding(f Finding, kind FindingKind, msg string) Finding {
	f.Kind, f.Message, f.Breaking, f.Severity = kind, msg, true, SeverityBreaking
	return f
}

func safeFinding(f Finding, kind FindingKind, msg string) Finding {
	f.Kind, f.Message, f.Breaking, f.Severity = kind, msg, false, SeverityNonBreaking
	return f
}

// infoFinding is non-breaking but flagged for review.
func infoFinding(f Finding, kind FindingKind, msg string) Finding {
	f.Kind, f.Message, f.Breaking, f.Severity = kind, msg, false, SeverityWarning
	return f
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// classifyOutputType judges a change to a type callers read: a return type or an attribute.
// Widening breaks callers that relied on the old promise.
func classifyOutputType(f Finding, kind FindingKind, what, before, after string) Finding {
	switch {
	case before == "":
		return safeFinding(f, kind, fmt.Sprintf("%s annotated as %s", what, after))
	case after == "":
		return infoFinding(f, kind, fmt.Sprintf("%s annotation %s removed", what, before))
	case what == "return type" && NormalizeType(before) == "None":
		return safeFinding(f, kind, fmt.Sprintf("%s changed from None to %s", what, after))
	}

	switch CompareTypes(before, after) {
	case TypeSame:
		return safeFinding(f, kind, fmt.Sprintf("%s rewritten from %s to %s", what, before, after))
	case TypeWider:
		return breakingFinding(f, kind, fmt.Sprintf("%s widened from %s to %s", what, before, after))
	case TypeIncompatible:
		return breakingFinding(f, kind, fmt.Sprintf("%s changed from %s to incompatible %s", what, before, after))
	case TypeNarrower:
		return safeFinding(f, kind, fmt.Sprintf("%s narrowed from %s to %s", what, before, after))
	}
	return infoFinding(f, kind, fmt.Sprintf("%s changed from %s to %s", what, before, after))
}

// compareBases reports removed, added and reordered bases. An added base is breaking when a
// member the class already had now resolves through a class that was not in its old
// linearization.
func compareBases(f Finding, oldObj, newObj *apigraph.Object) []Finding {
	oldNames, newNames := oldObj.BaseNames(), newObj.BaseNames()
	oldSet, newSet := toSet(oldNames), toSet(newNames)

	var out []Finding
	for _, b := range oldNames {
		if !newSet[b] {
			g := f
			g.Subject = b
			out = append(out, breakingFinding(g, KindClassRemovedBase, fmt.Sprintf("base class '%s' removed", b)))
		}
	}

	collisions := shadowedMembers(oldObj, newObj)
	for _, b := range newNames {
		if oldSet[b] {
			continue
		}
		g := f
		g.Subject = b
		if len(collisions) > 0 {
			out = append(out, breakingFinding(g, KindClassAddedBase,
				fmt.Sprintf("base class '%s' added; existing members now resolve through it: %s", b, strings.Join(collisions, ", "))))
			continue
		}
		out = append(out, safeFinding(g, KindClassAddedBase, fmt.Sprintf("base class '%s' added", b)))
	}

	if len(out) == 0 {
		out = append(out, safeFinding(f, KindClassReorderedBases, "base classes reordered"))
	}
	return out
}

// shadowedMembers lists members whose declaring class changed to one that was not in the old
// linearization.
func shadowedMembers(oldObj, newObj *apigraph.Object) []string {
	oldLin := toSet(oldObj.Linearization)
	var names []string
	for name, origin := range newObj.Members {
		before, existed := oldObj.Members[name]
		if !existed || before == origin {
			continue
		}
		if !oldLin[apigraph.ParentOf(origin)] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// compareDecorators reports calling-convention changes carried by canonical decorator labels.
func compareDecorators(f Finding, oldObj, newObj *apigraph.Object) []Finding {
	var out []Finding
	had := func(label string) (bool, bool) {
		return oldObj.HasDecorator(label), newObj.HasDecorator(label)
	}

	if before, after := had(apigraph.DecoratorAsync); before != after {
		msg := "became async"
		if before {
			msg = "is no longer async"
		}
		out = append(out, breakingFinding(f, KindFunctionChangedAsync, msg))
	}
	if before, after := had(apigraph.DecoratorWritable); before && !after {
		out = append(out, breakingFinding(f, KindPropertyNotWritable, "property is no longer writable"))
	} else if !before && after {
		out = append(out, safeFinding(f, KindPropertyBecameWritable, "property became writable"))
	}
	if binding(oldObj) != binding(newObj) {
		out = append(out, breakingFinding(f, KindMethodChangedBinding,
			fmt.Sprintf("changed from %s to %s", binding(oldObj), binding(newObj))))
	}
	if before, after := had(apigraph.DecoratorAbstractMethod); !before && after {
		out = append(out, infoFinding(f, KindUnclassified, "became abstract"))
	}

	if len(out) == 0 {
		out = append(out, infoFinding(f, KindUnclassified, "decorators changed"))
	}
	return out
}

func binding(obj *apigraph.Object) string {
	switch {
	case obj.Kind != apigraph.KindMethod:
		return string(obj.Kind)
	case obj.HasDecorator(apigraph.DecoratorStaticMethod):
		return "staticmethod"
	case obj.HasDecorator(apigraph.DecoratorClassMethod):
		return "classmethod"
	}
	return "instance method"
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.QualifiedName != b.QualifiedName {
			return a.QualifiedName < b.QualifiedName
		}
		if a.ChangeKind != b.ChangeKind {
			return a.ChangeKind < b.ChangeKind
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Subject < b.Subject
	})
}

// computeSummary calculates summary statistics
func computeSummary(findings []Finding) *Summary {
	summary := &Summary{
		TotalFindings: len(findings),
		ByKind:        make(map[string]int),
	}

	for _, f := range findings {
		summary.ByKind[string(f.Kind)]++
		if f.Ignored {
			summary.Ignored++
		}
		if additive[f.Kind] {
			summary.Additions++
		}

		switch f.Severity {
		case SeverityBreaking:
			summary.Breaking++
		case SeverityWarning:
			summary.Warnings++
		case SeverityNonBreaking:
			summary.NonBreaking++
		}
	}

	return summary
}

// computeSemverAdvice suggests the appropriate version bump
func computeSemverAdvice(summary *Summary) string {
	if summary.Breaking > 0 {
		return "major"
	}
	if summary.Additions > 0 {
		return "minor"
	}
	return "patch"
}
