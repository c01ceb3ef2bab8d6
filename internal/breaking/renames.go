package breaking

import (
	"sort"

	"pysemver/internal/apigraph"
	"pysemver/internal/diff"
)

// SuggestRenames returns a copy of result in which every object-removed finding that has a
// plausible replacement carries a "possibly renamed to" hint. A replacement is an added public
// sibling of the same kind with the same shape. Findings keep their identity and
// breaking-ness; the hint is advisory only.
func SuggestRenames(result *Result, changes []diff.Change) *Result {
	removed := make(map[string]*apigraph.Object)
	var added []*apigraph.Object
	for _, ch := range changes {
		switch ch.Kind {
		case diff.ChangeRemoved:
			removed[ch.QualifiedName] = ch.Old
		case diff.ChangeAdded:
			if ch.New.IsPublic() {
				added = append(added, ch.New)
			}
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].QualifiedName < added[j].QualifiedName })

	findings := make([]Finding, len(result.Findings))
	copy(findings, result.Findings)
	for i := range findings {
		f := &findings[i]
		if f.Kind != KindObjectRemoved || f.Hint != "" {
			continue
		}
		old, ok := removed[f.QualifiedName]
		if !ok {
			continue
		}
		if newName := findPotentialRename(old, added); newName != "" {
			f.Hint = "possibly renamed to " + newName
		}
	}
	return newResult(findings)
}

// findPotentialRename looks for an added sibling that might be old under a new name
func findPotentialRename(old *apigraph.Object, added []*apigraph.Object) string {
	for _, cand := range added {
		if cand.Kind != old.Kind || cand.Parent != old.Parent {
			continue
		}
		if sameShape(old, cand) {
			return cand.QualifiedName
		}
	}
	return ""
}

// sameShape compares everything but the name. Objects with nothing to compare never match.
func sameShape(a, b *apigraph.Object) bool {
	switch a.Kind {
	case apigraph.KindFunction, apigraph.KindMethod:
		return a.Signature.String() == b.Signature.String() && a.Returns == b.Returns
	case apigraph.KindClass:
		if diff.FieldText(a, diff.FieldBases) != diff.FieldText(b, diff.FieldBases) || len(a.Members) == 0 {
			return false
		}
		if len(a.Members) != len(b.Members) {
			return false
		}
		for name := range a.Members {
			if _, ok := b.Members[name]; !ok {
				return false
			}
		}
		return true
	case apigraph.KindAttribute, apigraph.KindProperty:
		return (a.Annotation != "" || a.Value != "") && a.Annotation == b.Annotation && a.Value == b.Value
	}
	return false
}
