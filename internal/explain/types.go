// Package explain renders classifier findings as human-readable lines.
// Rendering is pure: the same findings and style always produce the same text.
package explain

import (
	"fmt"
	"strings"
)

// Style selects how much of a finding is rendered.
type Style string

const (
	// OneLine renders "<qualified_name>: <reason>".
	OneLine Style = "oneline"
	// Verbose adds the finding kind, source location and before/after values.
	Verbose Style = "verbose"
)

// DefaultStyle is used when no style is configured. Each finding gets its kind, location and
// before/after values unless the user asks for one line.
const DefaultStyle = Verbose

// Styles lists the accepted style names.
var Styles = []Style{OneLine, Verbose}

// ParseStyle maps a flag value to a Style. The empty string selects DefaultStyle.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultStyle, nil
	case OneLine:
		return OneLine, nil
	case Verbose:
		return Verbose, nil
	}
	return "", fmt.Errorf("unknown style %q (want oneline or verbose)", s)
}

// Limitations is appended to human reports. Attributes created dynamically (setattr,
// __getattr__, metaclass magic) are invisible to static analysis.
const Limitations = "note: dynamically created attributes are not analyzed; changes to them are not reported"
