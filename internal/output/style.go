package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var (
	colorBreaking = lipgloss.Color("#E74C3C")
	colorWarning  = lipgloss.Color("#F4D03F")
	colorSafe     = lipgloss.Color("#2CD7C7")
	colorMuted    = lipgloss.Color("#7F8C8D")
)

// ColorEnabled decides whether to colour output written to f. mode is "always", "never"
// or "auto"; auto colours terminals unless NO_COLOR is set.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type palette struct {
	header   lipgloss.Style
	breaking lipgloss.Style
	warning  lipgloss.Style
	safe     lipgloss.Style
	muted    lipgloss.Style
}

func newPalette(w io.Writer, color bool) palette {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return palette{
		header:   r.NewStyle().Bold(true),
		breaking: r.NewStyle().Bold(true).Foreground(colorBreaking),
		warning:  r.NewStyle().Foreground(colorWarning),
		safe:     r.NewStyle().Foreground(colorSafe),
		muted:    r.NewStyle().Foreground(colorMuted),
	}
}
