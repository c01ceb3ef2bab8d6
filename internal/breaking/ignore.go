package breaking

import (
	"path"

	"pysemver/internal/apigraph"
)

// ApplyIgnores returns a copy of result in which breaking findings matched by a rule are
// downgraded to warnings and marked Ignored. A rule matches a finding when its pattern
// matches the qualified name or one of its containers and its kind, if set, is equal.
func ApplyIgnores(result *Result, rules []IgnoreRule) *Result {
	if len(rules) == 0 {
		return result
	}

	findings := make([]Finding, len(result.Findings))
	copy(findings, result.Findings)
	for i := range findings {
		f := &findings[i]
		if !f.Breaking {
			continue
		}
		for _, rule := range rules {
			if !rule.Matches(*f) {
				continue
			}
			f.Breaking = false
			f.Severity = SeverityWarning
			f.Ignored = true
			if rule.Reason != "" {
				f.Hint = "ignored: " + rule.Reason
			}
			break
		}
	}
	return newResult(findings)
}

// Matches reports whether the rule applies to f.
func (r IgnoreRule) Matches(f Finding) bool {
	if r.Kind != "" && r.Kind != f.Kind {
		return false
	}
	for q := f.QualifiedName; q != ""; q = apigraph.ParentOf(q) {
		if ok, err := path.Match(r.Pattern, q); err == nil && ok {
			return true
		}
	}
	return false
}
