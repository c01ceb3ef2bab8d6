// Package version identifies the pysemver build. Release builds stamp Commit and BuildDate
// through ldflags:
//
//	go build -ldflags "-X pysemver/internal/version.Commit=$(git rev-parse HEAD)" ./cmd/pysemver
package version

import "strings"

var (
	Version   = "0.4.0"
	Commit    = ""
	BuildDate = ""
)

// Info returns Version with the short commit attached as semver build metadata,
// e.g. "0.4.0+a1b2c3d". Unstamped builds report the bare version.
func Info() string {
	if len(Commit) < 7 {
		return Version
	}
	return Version + "+" + Commit[:7]
}

// Full is the text printed by the version command.
func Full() string {
	var b strings.Builder
	b.WriteString("pysemver " + Info())
	if Commit != "" {
		b.WriteString("\ncommit: " + Commit)
	}
	if BuildDate != "" {
		b.WriteString("\nbuilt:  " + BuildDate)
	}
	return b.String()
}
