package explain

import (
	"fmt"
	"strconv"
	"strings"

	"pysemver/internal/breaking"
)

// Render produces one entry per finding, in the order given. Verbose entries span several
// lines joined with "\n".
func Render(findings []breaking.Finding, style Style) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		if style == Verbose {
			out = append(out, verbose(f))
			continue
		}
		out = append(out, oneLine(f))
	}
	return out
}

func oneLine(f breaking.Finding) string {
	return f.QualifiedName + ": " + f.Message
}

func verbose(f breaking.Finding) string {
	var sb strings.Builder
	sb.WriteString(oneLine(f))

	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&sb, "\n  %-9s %s", label+":", value)
	}

	field("kind", fmt.Sprintf("%s (%s)", f.Kind, f.Severity))
	field("object", string(f.ObjectKind))
	field("location", location(f))
	field("before", f.Before)
	field("after", f.After)
	field("hint", f.Hint)
	return sb.String()
}

func location(f breaking.Finding) string {
	if f.File == "" {
		return ""
	}
	if f.Line <= 0 {
		return f.File
	}
	return f.File + ":" + strconv.Itoa(f.Line)
}

// Summary renders a one-line tally of result and the suggested version bump.
func Summary(result *breaking.Result) string {
	s := result.Summary
	if s == nil || s.TotalFindings == 0 {
		return "no API changes; suggested bump: " + result.SemverAdvice
	}
	parts := []string{
		plural(s.Breaking, "breaking change", "breaking changes"),
		plural(s.Warnings, "warning", "warnings"),
		plural(s.NonBreaking, "compatible change", "compatible changes"),
	}
	line := strings.Join(parts, ", ")
	if s.Ignored > 0 {
		line += fmt.Sprintf(" (%d ignored)", s.Ignored)
	}
	return line + "; suggested bump: " + result.SemverAdvice
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
