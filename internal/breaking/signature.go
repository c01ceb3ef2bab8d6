package breaking

import (
	"fmt"

	"pysemver/internal/apigraph"
)

// compareSignatures classifies a signature change parameter by parameter. Parameters are
// matched by name; *args and **kwargs are matched by kind.
func compareSignatures(f Finding, oldSig, newSig *apigraph.Signature) []Finding {
	if oldSig == nil {
		oldSig = &apigraph.Signature{}
	}
	if newSig == nil {
		newSig = &apigraph.Signature{}
	}

	var out []Finding
	param := func(name string) Finding {
		g := f
		g.Subject = name
		return g
	}

	for _, p := range oldSig.Parameters {
		if p.IsVariadic() {
			if _, ok := newSig.Variadic(p.Kind); !ok {
				out = append(out, breakingFinding(param(p.String()), KindParamRemoved,
					fmt.Sprintf("parameter '%s' removed", p.String())))
			}
			continue
		}

		n, _, ok := newSig.Param(p.Name)
		if !ok || n.IsVariadic() {
			out = append(out, removedParam(param(p.Name), p, newSig))
			continue
		}
		out = append(out, compareParam(param(p.Name), p, n)...)
	}

	out = append(out, movedParams(param, oldSig, newSig)...)

	for _, n := range newSig.Parameters {
		if n.IsVariadic() {
			if _, ok := oldSig.Variadic(n.Kind); !ok {
				out = append(out, safeFinding(param(n.String()), KindParamAddedOptional,
					fmt.Sprintf("parameter '%s' added", n.String())))
			}
			continue
		}
		if p, _, ok := oldSig.Param(n.Name); ok && !p.IsVariadic() {
			continue
		}
		if n.Required() {
			out = append(out, breakingFinding(param(n.Name), KindParamAddedRequired,
				fmt.Sprintf("required parameter '%s' added", n.Name)))
			continue
		}
		out = append(out, safeFinding(param(n.Name), KindParamAddedOptional,
			fmt.Sprintf("optional parameter '%s' added", n.Name)))
	}

	if len(out) == 0 {
		out = append(out, infoFinding(f, KindUnclassified, "signature changed"))
	}
	return out
}

// removedParam reports a parameter that no longer exists. It is absorbed when every way
// callers could pass it is still accepted by *args or **kwargs.
func removedParam(f Finding, p apigraph.Parameter, newSig *apigraph.Signature) Finding {
	_, hasArgs := newSig.Variadic(apigraph.VarPositional)
	_, hasKwargs := newSig.Variadic(apigraph.VarKeyword)
	absorbed := (!p.Kind.Positional() || hasArgs) && (!p.Kind.Keyword() || hasKwargs)
	if absorbed {
		return infoFinding(f, KindParamRemoved,
			fmt.Sprintf("parameter '%s' removed; still accepted through variadic parameters", p.Name))
	}
	return breakingFinding(f, KindParamRemoved, fmt.Sprintf("parameter '%s' removed", p.Name))
}

// compareParam classifies changes to a parameter present on both sides.
func compareParam(f Finding, p, n apigraph.Parameter) []Finding {
	var out []Finding

	if p.Kind != n.Kind {
		narrowed := (p.Kind.Positional() && !n.Kind.Positional()) || (p.Kind.Keyword() && !n.Kind.Keyword())
		msg := fmt.Sprintf("parameter '%s' changed from %s to %s", p.Name, p.Kind, n.Kind)
		if narrowed {
			out = append(out, breakingFinding(f, KindParamChangedKind, msg))
		} else {
			out = append(out, safeFinding(f, KindParamChangedKind, msg))
		}
	}

	switch {
	case p.HasDefault && !n.HasDefault:
		out = append(out, breakingFinding(f, KindParamChangedRequired,
			fmt.Sprintf("parameter '%s' no longer has a default", p.Name)))
	case !p.HasDefault && n.HasDefault:
		out = append(out, safeFinding(f, KindParamChangedRequired,
			fmt.Sprintf("parameter '%s' is now optional", p.Name)))
	case p.HasDefault && p.Default != n.Default:
		out = append(out, breakingFinding(f, KindParamChangedDefault,
			fmt.Sprintf("default of parameter '%s' changed from %s to %s", p.Name, p.Default, n.Default)))
	}

	if p.Annotation != n.Annotation {
		out = append(out, classifyInputType(f, p.Name, p.Annotation, n.Annotation))
	}
	return out
}

// classifyInputType judges a parameter annotation change. Narrowing rejects values callers
// used to pass.
func classifyInputType(f Finding, name, before, after string) Finding {
	switch {
	case before == "":
		return safeFinding(f, KindParamChangedType, fmt.Sprintf("parameter '%s' annotated as %s", name, after))
	case after == "":
		return safeFinding(f, KindParamChangedType, fmt.Sprintf("annotation of parameter '%s' removed", name))
	}

	switch CompareTypes(before, after) {
	case TypeSame:
		return safeFinding(f, KindParamChangedType,
			fmt.Sprintf("type of parameter '%s' rewritten from %s to %s", name, before, after))
	case TypeNarrower:
		return breakingFinding(f, KindParamChangedType,
			fmt.Sprintf("type of parameter '%s' narrowed from %s to %s", name, before, after))
	case TypeIncompatible:
		return breakingFinding(f, KindParamChangedType,
			fmt.Sprintf("type of parameter '%s' changed from %s to incompatible %s", name, before, after))
	case TypeWider:
		return safeFinding(f, KindParamChangedType,
			fmt.Sprintf("type of parameter '%s' widened from %s to %s", name, before, after))
	}
	return infoFinding(f, KindParamChangedType,
		fmt.Sprintf("type of parameter '%s' changed from %s to %s", name, before, after))
}

// movedParams reports parameters that still bind by position but at a different index. A
// shift caused only by removing earlier positional parameters is already reported as a
// removal.
func movedParams(param func(string) Finding, oldSig, newSig *apigraph.Signature) []Finding {
	oldPos, newPos := oldSig.Positionals(), newSig.Positionals()
	newIdx := make(map[string]int, len(newPos))
	for i, n := range newPos {
		newIdx[n] = i
	}

	var out []Finding
	removed := 0
	for i, name := range oldPos {
		j, ok := newIdx[name]
		if !ok {
			removed++
			continue
		}
		if j == i-removed {
			continue
		}
		out = append(out, breakingFinding(param(name), KindParamMoved,
			fmt.Sprintf("positional parameter '%s' moved from position %d to %d", name, i+1, j+1)))
	}
	return out
}
