package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for different elements in the output.
type ColorScheme struct {
	Title   *color.Color
	Border  *color.Color
	Value   *color.Color
	Latency *color.Color
	Phase   *color.Color
	Dim     *color.Color
	Good    *color.Color
	Warn    *color.Color
	Bad     *color.Color
}

// NewColorScheme returns the default color scheme, with colors switched on
// or off regardless of the global color.NoColor setting.
func NewColorScheme(enabled bool) *ColorScheme {
	scheme := &ColorScheme{
		Title:   color.New(color.Bold),
		Border:  color.New(color.FgCyan),
		Value:   color.New(color.FgCyan),
		Latency: color.New(color.FgBlue),
		Phase:   color.New(color.FgMagenta),
		Dim:     color.New(color.Faint),
		Good:    color.New(color.FgGreen),
		Warn:    color.New(color.FgYellow),
		Bad:     color.New(color.FgRed, color.Bold),
	}

	for _, c := range scheme.all() {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return scheme
}

func (s *ColorScheme) all() []*color.Color {
	return []*color.Color{s.Title, s.Border, s.Value, s.Latency, s.Phase, s.Dim, s.Good, s.Warn, s.Bad}
}

// ForErrorRate picks green, yellow or red for an error rate.
func (s *ColorScheme) ForErrorRate(rate float64) *color.Color {
	switch {
	case rate > 0.05:
		return s.Bad
	case rate > 0.01:
		return s.Warn
	default:
		return s.Good
	}
}
