package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pysemver/internal/breaking"
	"pysemver/internal/explain"
)

// HumanOptions controls human output.
type HumanOptions struct {
	Style explain.Style
	// ShowAll includes compatible findings; by default only breaking findings and
	// warnings are listed.
	ShowAll bool
	Color   bool
}

// WriteHuman writes report as text.
func WriteHuman(w io.Writer, report *Report, opts HumanOptions) error {
	p := newPalette(w, opts.Color)
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n", p.header.Render(fmt.Sprintf("API changes %s -> %s", revisionLabel(report.Baseline), revisionLabel(report.Head))))

	for _, pkg := range report.Packages {
		sb.WriteString("\n")
		sb.WriteString(p.header.Render("package " + pkg.Name))
		sb.WriteString("\n")

		if pkg.Error != nil {
			fmt.Fprintf(&sb, "  %s %s\n", p.breaking.Render("error"), errorLine(pkg.Error))
			continue
		}

		shown, hidden := selectFindings(pkg.Findings, opts.ShowAll)
		if len(pkg.Findings) == 0 {
			sb.WriteString("  " + p.muted.Render("no API changes") + "\n")
		}
		lines := explain.Render(shown, opts.Style)
		for i, f := range shown {
			label, style := severityLabel(f, p)
			entry := strings.ReplaceAll(lines[i], "\n", "\n           ")
			fmt.Fprintf(&sb, "  %s%s %s\n", style.Render(label), strings.Repeat(" ", 8-len(label)), entry)
			if f.Hint != "" && opts.Style != explain.Verbose {
				fmt.Fprintf(&sb, "           %s\n", p.muted.Render(f.Hint))
			}
		}
		if hidden > 0 {
			fmt.Fprintf(&sb, "  %s\n", p.muted.Render(fmt.Sprintf("%d compatible changes not shown (use --all)", hidden)))
		}
		for _, warn := range pkg.Warnings {
			fmt.Fprintf(&sb, "  %s %s\n", p.muted.Render("note:"), warn)
		}
	}

	sb.WriteString("\n")
	summary := explain.Summary(&breaking.Result{Summary: &report.Summary, SemverAdvice: report.SemverAdvice})
	switch {
	case report.Failed:
		sb.WriteString(p.breaking.Render("some packages could not be analyzed") + "\n")
		sb.WriteString(summary + "\n")
	case report.Breaking:
		sb.WriteString(p.breaking.Render(summary) + "\n")
	default:
		sb.WriteString(p.safe.Render(summary) + "\n")
	}
	sb.WriteString(p.muted.Render(explain.Limitations) + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func selectFindings(findings []breaking.Finding, all bool) ([]breaking.Finding, int) {
	if all {
		return findings, 0
	}
	shown := make([]breaking.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Severity != breaking.SeverityNonBreaking {
			shown = append(shown, f)
		}
	}
	return shown, len(findings) - len(shown)
}

func severityLabel(f breaking.Finding, p palette) (string, lipgloss.Style) {
	switch {
	case f.Breaking:
		return "BREAKING", p.breaking
	case f.Ignored:
		return "ignored", p.muted
	case f.Severity == breaking.SeverityWarning:
		return "warning", p.warning
	}
	return "ok", p.safe
}

func revisionLabel(r Revision) string {
	label := r.Ref
	if r.Worktree {
		label = "working tree"
	}
	if r.Commit != "" && len(r.Commit) >= 7 && r.Commit != r.Ref {
		label += " (" + r.Commit[:7] + ")"
	}
	return label
}

func errorLine(e *PackageError) string {
	loc := e.File
	if loc != "" && e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	if loc != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, loc, e.Message)
	}
	if e.QualifiedName != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.QualifiedName, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}
