package output

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors used for different elements in the output
type ColorScheme struct {
	Title   *color.Color
	Header  *color.Color
	Name    *color.Color
	Value   *color.Color
	Good    *color.Color
	Warn    *color.Color
	Bad     *color.Color
	Dim     *color.Color
	enabled bool
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	s := &ColorScheme{
		Title:  color.New(color.FgCyan, color.Bold),
		Header: color.New(color.Bold),
		Name:   color.New(color.FgMagenta),
		Value:  color.New(color.FgCyan),
		Good:   color.New(color.FgGreen),
		Warn:   color.New(color.FgYellow),
		Bad:    color.New(color.FgRed, color.Bold),
		Dim:    color.New(color.Faint),
	}
	// fatih/color decides globally from stdout; the printer decides per writer.
	s.each(func(c *color.Color) { c.EnableColor() })
	s.enabled = true
	return s
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	s := DefaultColorScheme()
	s.each(func(c *color.Color) { c.DisableColor() })
	s.enabled = false
	return s
}

// Enabled reports whether the scheme emits escape codes.
func (s *ColorScheme) Enabled() bool {
	return s.enabled
}

func (s *ColorScheme) each(fn func(*color.Color)) {
	for _, c := range []*color.Color{s.Title, s.Header, s.Name, s.Value, s.Good, s.Warn, s.Bad, s.Dim} {
		fn(c)
	}
}

// SchemeFor picks colors for w: only terminals get colors, and NO_COLOR
// or TERM=dumb turn them off.
func SchemeFor(w io.Writer) *ColorScheme {
	if ColorsSupported(w, os.Getenv) {
		return DefaultColorScheme()
	}
	return NoColorScheme()
}

// ColorsSupported checks the environment and whether w is a terminal.
func ColorsSupported(w io.Writer, getenv func(string) string) bool {
	if getenv("NO_COLOR") != "" {
		return false
	}
	if getenv("FORCE_COLOR") != "" {
		return true
	}
	if term := getenv("TERM"); term == "dumb" {
		return false
	}
	return IsTerminal(w)
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SuccessIcon returns a checkmark symbol with appropriate color
func (s *ColorScheme) SuccessIcon() string {
	return s.Good.Sprint("✓")
}

// ErrorIcon returns an X symbol with appropriate color
func (s *ColorScheme) ErrorIcon() string {
	return s.Bad.Sprint("✗")
}
