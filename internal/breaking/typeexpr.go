package breaking

import (
	"sort"
	"strings"
)

// TypeRelation describes how a new type expression relates to an old one, judged from the
// annotation text alone.
type TypeRelation int

const (
	TypeUnknown      TypeRelation = iota // Not decidable from the text
	TypeSame                             // Equal after normalisation
	TypeWider                            // New union is a strict superset
	TypeNarrower                         // New union is a strict subset
	TypeIncompatible                     // Disjoint builtin scalar types
)

func (r TypeRelation) String() string {
	switch r {
	case TypeSame:
		return "same"
	case TypeWider:
		return "wider"
	case TypeNarrower:
		return "narrower"
	case TypeIncompatible:
		return "incompatible"
	default:
		return "unknown"
	}
}

// scalarTypes are builtins that never accept one another's values.
var scalarTypes = map[string]bool{
	"None":  true,
	"int":   true,
	"float": true,
	"str":   true,
	"bytes": true,
	"bool":  true,
}

// CompareTypes relates two annotations. Unions ("A | B", "Union[A, B]") and Optional[A]
// are compared as sets of members; anything else is only equal or unknown.
func CompareTypes(oldExpr, newExpr string) TypeRelation {
	oldSet := unionMembers(oldExpr)
	newSet := unionMembers(newExpr)
	if len(oldSet) == 0 || len(newSet) == 0 {
		return TypeUnknown
	}

	oldOnly, newOnly := 0, 0
	for m := range oldSet {
		if !newSet[m] {
			oldOnly++
		}
	}
	for m := range newSet {
		if !oldSet[m] {
			newOnly++
		}
	}

	switch {
	case oldOnly == 0 && newOnly == 0:
		return TypeSame
	case oldOnly == 0:
		return TypeWider
	case newOnly == 0:
		return TypeNarrower
	case allScalars(oldSet) && allScalars(newSet) && disjoint(oldSet, newSet):
		// bool is an int subtype; int is accepted where float is expected.
		if (oldSet["int"] && newSet["bool"]) || (oldSet["float"] && newSet["int"]) {
			return TypeUnknown
		}
		return TypeIncompatible
	}
	return TypeUnknown
}

// NormalizeType canonicalises an annotation: quotes and typing prefixes are removed and
// union members are sorted.
func NormalizeType(expr string) string {
	members := unionMembers(expr)
	if len(members) == 0 {
		return ""
	}
	out := make([]string, 0, len(members))
	for m := range members {
		out = append(out, m)
	}
	sort.Strings(out)
	return strings.Join(out, " | ")
}

func unionMembers(expr string) map[string]bool {
	set := make(map[string]bool)
	collectMembers(expr, set)
	return set
}

func collectMembers(expr string, set map[string]bool) {
	expr = cleanType(expr)
	if expr == "" {
		return
	}

	if parts := splitTopLevel(expr, '|'); len(parts) > 1 {
		for _, p := range parts {
			collectMembers(p, set)
		}
		return
	}

	head, args, ok := subscript(expr)
	if ok {
		switch head {
		case "Union":
			for _, a := range splitTopLevel(args, ',') {
				collectMembers(a, set)
			}
			return
		case "Optional":
			collectMembers(args, set)
			set["None"] = true
			return
		}
	}
	set[expr] = true
}

func cleanType(expr string) string {
	expr = strings.TrimSpace(expr)
	if len(expr) >= 2 && (expr[0] == '"' || expr[0] == '\'') && expr[len(expr)-1] == expr[0] {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	for _, prefix := range []string{"typing.", "typing_extensions.", "builtins."} {
		expr = strings.TrimPrefix(expr, prefix)
	}
	if expr == "NoneType" {
		expr = "None"
	}
	return strings.Join(strings.Fields(expr), " ")
}

// subscript splits "Head[args]" into its parts.
func subscript(expr string) (string, string, bool) {
	open := strings.IndexByte(expr, '[')
	if open <= 0 || !strings.HasSuffix(expr, "]") {
		return "", "", false
	}
	return expr[:open], expr[open+1 : len(expr)-1], true
}

// splitTopLevel splits on sep outside brackets and parentheses.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func allScalars(set map[string]bool) bool {
	for m := range set {
		if !scalarTypes[m] {
			return false
		}
	}
	return true
}

func disjoint(a, b map[string]bool) bool {
	for m := range a {
		if b[m] {
			return false
		}
	}
	return true
}
