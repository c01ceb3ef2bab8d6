package diff

import (
	"sort"

	"pysemver/internal/apigraph"
)

// Diff aligns baseline and head by qualified name and returns every difference, sorted by
// qualified name, then change kind, then field. Synthetic objects are ignored on both sides.
// Identical graphs produce no changes.
func Diff(baseline, head *apigraph.Graph) []Change {
	old := declared(baseline)
	cur := declared(head)

	var changes []Change
	for q, o := range old {
		n, ok := cur[q]
		if !ok {
			changes = append(changes, Change{QualifiedName: q, Kind: ChangeRemoved, Before: o.Display(), Old: o})
			continue
		}
		changes = append(changes, compare(o, n)...)
	}
	for q, n := range cur {
		if _, ok := old[q]; !ok {
			changes = append(changes, Change{QualifiedName: q, Kind: ChangeAdded, After: n.Display(), New: n})
		}
	}

	Sort(changes)
	return changes
}

// compare enumerates the fields that differ between two versions of one object.
func compare(o, n *apigraph.Object) []Change {
	var out []Change
	for _, f := range Fields {
		before, after := FieldText(o, f), FieldText(n, f)
		if before == after {
			continue
		}
		out = append(out, Change{
			QualifiedName: n.QualifiedName,
			Kind:          ChangeModified,
			Field:         f,
			Before:        before,
			After:         after,
			Old:           o,
			New:           n,
		})
	}
	return out
}

func declared(g *apigraph.Graph) map[string]*apigraph.Object {
	out := make(map[string]*apigraph.Object)
	if g == nil {
		return out
	}
	for _, obj := range g.Objects() {
		if !obj.Synthetic {
			out[obj.QualifiedName] = obj
		}
	}
	return out
}

// Sort orders changes by qualified name, change kind and field.
func Sort(changes []Change) {
	sort.SliceStable(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.QualifiedName != b.QualifiedName {
			return a.QualifiedName < b.QualifiedName
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return fieldRank(a.Field) < fieldRank(b.Field)
	})
}
