package output

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"pysemver/internal/apigraph"
	"pysemver/internal/breaking"
	pserrors "pysemver/internal/errors"
)

// reportNamespace scopes report IDs.
var reportNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("pysemver.report"))

// Report is the complete outcome of one check run.
type Report struct {
	ID           string           `json:"id" yaml:"id"`
	Tool         Tool             `json:"tool" yaml:"tool"`
	Baseline     Revision         `json:"baseline" yaml:"baseline"`
	Head         Revision         `json:"head" yaml:"head"`
	Packages     []PackageReport  `json:"packages" yaml:"packages"`
	Summary      breaking.Summary `json:"summary" yaml:"summary"`
	SemverAdvice string           `json:"semverAdvice" yaml:"semverAdvice"`
	Breaking     bool             `json:"breaking" yaml:"breaking"`
	Failed       bool             `json:"failed" yaml:"failed"`
}

// Tool identifies the program that produced a report.
type Tool struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// Revision describes one side of the comparison.
type Revision struct {
	Ref      string `json:"ref" yaml:"ref"`
	Commit   string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Worktree bool   `json:"worktree,omitempty" yaml:"worktree,omitempty"`
	// Dirty marks a working tree with uncommitted changes.
	Dirty bool `json:"dirty,omitempty" yaml:"dirty,omitempty"`
}

// PackageReport is the result for one top-level package.
type PackageReport struct {
	Name             string             `json:"name" yaml:"name"`
	BaselineSnapshot string             `json:"baselineSnapshot,omitempty" yaml:"baselineSnapshot,omitempty"`
	HeadSnapshot     string             `json:"headSnapshot,omitempty" yaml:"headSnapshot,omitempty"`
	Findings         []breaking.Finding `json:"findings" yaml:"findings"`
	Summary          *breaking.Summary  `json:"summary,omitempty" yaml:"summary,omitempty"`
	SemverAdvice     string             `json:"semverAdvice,omitempty" yaml:"semverAdvice,omitempty"`
	Warnings         []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error            *PackageError      `json:"error,omitempty" yaml:"error,omitempty"`
}

// PackageError is a failure that prevented a package from being analyzed.
type PackageError struct {
	Code          string `json:"code" yaml:"code"`
	Message       string `json:"message" yaml:"message"`
	File          string `json:"file,omitempty" yaml:"file,omitempty"`
	Line          int    `json:"line,omitempty" yaml:"line,omitempty"`
	QualifiedName string `json:"qualifiedName,omitempty" yaml:"qualifiedName,omitempty"`
}

// PackageResult is the input for one package.
type PackageResult struct {
	Name             string
	Result           *breaking.Result
	BaselineSnapshot string
	HeadSnapshot     string
	Warnings         []apigraph.ResolutionWarning
	Err              error
}

// NewReport aggregates package results. Packages are sorted by name.
func NewReport(tool Tool, baseline, head Revision, results []PackageResult) *Report {
	r := &Report{
		Tool:     tool,
		Baseline: baseline,
		Head:     head,
		Packages: make([]PackageReport, 0, len(results)),
		Summary:  breaking.Summary{ByKind: make(map[string]int)},
	}

	for _, res := range results {
		r.Packages = append(r.Packages, packageReport(res))
	}
	sort.SliceStable(r.Packages, func(i, j int) bool { return r.Packages[i].Name < r.Packages[j].Name })

	advice := "patch"
	for _, p := range r.Packages {
		if p.Error != nil {
			r.Failed = true
			continue
		}
		addSummary(&r.Summary, p.Summary)
		advice = maxAdvice(advice, p.SemverAdvice)
	}
	r.SemverAdvice = advice
	r.Breaking = r.Summary.Breaking > 0
	r.ID = reportID(r)
	return r
}

func packageReport(res PackageResult) PackageReport {
	p := PackageReport{
		Name:             res.Name,
		BaselineSnapshot: res.BaselineSnapshot,
		HeadSnapshot:     res.HeadSnapshot,
		Findings:         []breaking.Finding{},
	}
	for _, w := range res.Warnings {
		p.Warnings = append(p.Warnings, w.String())
	}
	if res.Err != nil {
		p.Error = packageError(res.Err)
		return p
	}
	if res.Result != nil {
		p.Findings = res.Result.Findings
		p.Summary = res.Result.Summary
		p.SemverAdvice = res.Result.SemverAdvice
	}
	return p
}

func packageError(err error) *PackageError {
	pe := &PackageError{Code: string(pserrors.InternalError), Message: err.Error()}
	if e, ok := pserrors.As(err); ok {
		pe.Code = string(e.Code)
		pe.Message = e.Message
		pe.File = e.File
		pe.Line = e.Line
		pe.QualifiedName = e.QualifiedName
	}
	return pe
}

func addSummary(dst *breaking.Summary, src *breaking.Summary) {
	if src == nil {
		return
	}
	dst.TotalFindings += src.TotalFindings
	dst.Breaking += src.Breaking
	dst.Warnings += src.Warnings
	dst.NonBreaking += src.NonBreaking
	dst.Additions += src.Additions
	dst.Ignored += src.Ignored
	for k, n := range src.ByKind {
		dst.ByKind[k] += n
	}
}

var adviceRank = map[string]int{"patch": 0, "minor": 1, "major": 2}

func maxAdvice(a, b string) string {
	if adviceRank[b] > adviceRank[a] {
		return b
	}
	return a
}

// reportID derives a stable ID from everything that determines the report content.
func reportID(r *Report) string {
	parts := []string{
		"baseline=" + r.Baseline.Ref + "@" + r.Baseline.Commit,
		"head=" + r.Head.Ref + "@" + r.Head.Commit + "@" + strconv.FormatBool(r.Head.Worktree),
	}
	for _, p := range r.Packages {
		parts = append(parts, "package="+p.Name, p.BaselineSnapshot, p.HeadSnapshot)
		for _, f := range p.Findings {
			parts = append(parts, string(f.Kind)+" "+f.QualifiedName+" "+f.Subject+" "+strconv.FormatBool(f.Breaking))
		}
		if p.Error != nil {
			parts = append(parts, "error="+p.Error.Code+" "+p.Error.Message)
		}
	}
	return uuid.NewSHA1(reportNamespace, []byte(strings.Join(parts, "\n"))).String()
}

// ExitCode maps the report to the process exit status: 2 when any package failed, 1 when
// any breaking finding remains, 0 otherwise.
func (r *Report) ExitCode() int {
	switch {
	case r.Failed:
		return 2
	case r.Breaking:
		return 1
	}
	return 0
}
