package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"pysemver/internal/apigraph"
	"pysemver/internal/breaking"
	pserrors "pysemver/internal/errors"
)

func sampleResult() *breaking.Result {
	return &breaking.Result{
		Findings: []breaking.Finding{
			{
				QualifiedName: "alpha.f",
				ObjectKind:    apigraph.KindFunction,
				Kind:          breaking.KindParamAddedRequired,
				ChangeKind:    "modified",
				Field:         "signature",
				Subject:       "b",
				Breaking:      true,
				Severity:      breaking.SeverityBreaking,
				Message:       "required parameter 'b' added",
				Before:        "(a)",
				After:         "(a, b)",
				File:          "alpha/__init__.py",
				Line:          4,
			},
			{
				QualifiedName: "alpha.g",
				ObjectKind:    apigraph.KindFunction,
				Kind:          breaking.KindObjectAdded,
				ChangeKind:    "added",
				Severity:      breaking.SeverityNonBreaking,
				Message:       "public function added",
				After:         "g()",
			},
		},
		Summary: &breaking.Summary{
			TotalFindings: 2, Breaking: 1, NonBreaking: 1, Additions: 1,
			ByKind: map[string]int{"parameter-added-required": 1, "object-added": 1},
		},
		SemverAdvice: "major",
	}
}

func sampleReport(results ...PackageResult) *Report {
	return NewReport(
		Tool{Name: "pysemver", Version: "test"},
		Revision{Ref: "v1.0.0", Commit: "0123456789abcdef"},
		Revision{Ref: "HEAD", Worktree: true},
		results,
	)
}

func TestNewReport_Aggregates(t *testing.T) {
	minor := &breaking.Result{
		Findings:     []breaking.Finding{{QualifiedName: "beta.x", Kind: breaking.KindObjectAdded, Severity: breaking.SeverityNonBreaking}},
		Summary:      &breaking.Summary{TotalFindings: 1, NonBreaking: 1, Additions: 1, ByKind: map[string]int{"object-added": 1}},
		SemverAdvice: "minor",
	}
	r := sampleReport(
		PackageResult{Name: "beta", Result: minor},
		PackageResult{Name: "alpha", Result: sampleResult(), Warnings: []apigraph.ResolutionWarning{{Message: "unresolved base 'ext.Base'"}}},
	)

	if r.Packages[0].Name != "alpha" || r.Packages[1].Name != "beta" {
		t.Errorf("packages not sorted: %s, %s", r.Packages[0].Name, r.Packages[1].Name)
	}
	if r.Summary.TotalFindings != 3 || r.Summary.Breaking != 1 || r.Summary.ByKind["object-added"] != 2 {
		t.Errorf("Summary = %+v", r.Summary)
	}
	if r.SemverAdvice != "major" || !r.Breaking || r.Failed {
		t.Errorf("advice=%s breaking=%v failed=%v", r.SemverAdvice, r.Breaking, r.Failed)
	}
	if r.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", r.ExitCode())
	}
	if len(r.Packages[0].Warnings) != 1 {
		t.Errorf("Warnings = %v", r.Packages[0].Warnings)
	}
}

func TestNewReport_Errors(t *testing.T) {
	r := sampleReport(
		PackageResult{Name: "alpha", Err: pserrors.NewParseError("alpha/bad.py", 3, 0, "unexpected indent")},
		PackageResult{Name: "beta", Err: errors.New("boom")},
		PackageResult{Name: "gamma", Result: sampleResult()},
	)

	if !r.Failed || r.ExitCode() != 2 {
		t.Errorf("Failed=%v ExitCode=%d, want failure", r.Failed, r.ExitCode())
	}
	alpha := r.Packages[0].Error
	if alpha == nil || alpha.Code != "PARSE_ERROR" || alpha.File != "alpha/bad.py" || alpha.Line != 3 {
		t.Errorf("alpha error = %+v", alpha)
	}
	if beta := r.Packages[1].Error; beta == nil || beta.Code != "INTERNAL_ERROR" || beta.Message != "boom" {
		t.Errorf("beta error = %+v", beta)
	}
	if r.Summary.Breaking != 1 {
		t.Errorf("successful packages should still be summarized: %+v", r.Summary)
	}
}

func TestNewReport_Empty(t *testing.T) {
	r := sampleReport(PackageResult{Name: "alpha", Result: &breaking.Result{Findings: []breaking.Finding{}, Summary: &breaking.Summary{}, SemverAdvice: "patch"}})
	if r.SemverAdvice != "patch" || r.Breaking || r.ExitCode() != 0 {
		t.Errorf("report = %+v", r)
	}
}

func TestReportID_Deterministic(t *testing.T) {
	a := sampleReport(PackageResult{Name: "alpha", Result: sampleResult(), BaselineSnapshot: "sha256:aa", HeadSnapshot: "sha256:bb"})
	b := sampleReport(PackageResult{Name: "alpha", Result: sampleResult(), BaselineSnapshot: "sha256:aa", HeadSnapshot: "sha256:bb"})
	c := sampleReport(PackageResult{Name: "alpha", Result: sampleResult(), BaselineSnapshot: "sha256:aa", HeadSnapshot: "sha256:cc"})

	if a.ID != b.ID {
		t.Errorf("same inputs gave different IDs: %s vs %s", a.ID, b.ID)
	}
	if a.ID == c.ID {
		t.Error("different head snapshot gave the same ID")
	}
	if len(a.ID) != 36 || a.ID[14] != '5' {
		t.Errorf("ID %q is not a version 5 UUID", a.ID)
	}
}

func TestWriteJSON_Deterministic(t *testing.T) {
	var first bytes.Buffer
	if err := WriteJSON(&first, sampleReport(PackageResult{Name: "alpha", Result: sampleResult()})); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		var again bytes.Buffer
		if err := WriteJSON(&again, sampleReport(PackageResult{Name: "alpha", Result: sampleResult()})); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first.Bytes(), again.Bytes()) {
			t.Fatalf("run %d differs", i)
		}
	}

	var decoded struct {
		Breaking bool `json:"breaking"`
		Packages []struct {
			Findings []breaking.Finding `json:"findings"`
		} `json:"packages"`
	}
	if err := json.Unmarshal(first.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !decoded.Breaking || len(decoded.Packages) != 1 || len(decoded.Packages[0].Findings) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Packages[0].Findings[0].Message != "required parameter 'b' added" {
		t.Errorf("message = %q", decoded.Packages[0].Findings[0].Message)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, sampleReport(PackageResult{Name: "alpha", Result: sampleResult()})); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "id: ") {
		t.Errorf("YAML should start with the report id:\n%s", buf.String())
	}

	var decoded Report
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if decoded.SemverAdvice != "major" || decoded.Packages[0].Findings[0].Subject != "b" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatHuman, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
