// Package theme holds the dark/light display mode, the styles derived from it
// and the surface the mode is applied to.
package theme

import "github.com/charmbracelet/lipgloss"

type Mode int

const (
	Dark Mode = iota
	Light
)

const (
	DarkBackground  = "#1a1d23"
	LightBackground = "#f9fafb"
)

func (m Mode) String() string {
	if m == Light {
		return "light"
	}
	return "dark"
}

func (m Mode) Toggle() Mode {
	if m == Light {
		return Dark
	}
	return Light
}

// Background is the root background color for the mode.
func (m Mode) Background() string {
	if m == Light {
		return LightBackground
	}
	return DarkBackground
}

// GlamourStyle names the glamour standard style matching the mode.
func (m Mode) GlamourStyle() string {
	return m.String()
}

// ParseMode accepts "dark" or "light"; anything else is dark.
func ParseMode(s string) Mode {
	if s == "light" {
		return Light
	}
	return Dark
}

var (
	gray100 = "#f3f4f6"
	gray200 = "#e5e7eb"
	gray400 = "#9ca3af"
	gray500 = "#6b7280"
	gray700 = "#374151"
	gray900 = "#111827"

	text    = lipgloss.AdaptiveColor{Light: gray900, Dark: gray100}
	surface = lipgloss.AdaptiveColor{Light: gray100, Dark: gray900}
	field   = lipgloss.AdaptiveColor{Light: gray200, Dark: gray700}
	border  = lipgloss.AdaptiveColor{Light: gray200, Dark: gray700}
	muted   = lipgloss.AdaptiveColor{Light: gray500, Dark: gray400}
	accent  = lipgloss.AdaptiveColor{Light: "#4f46e5", Dark: "#818cf8"}
	danger  = lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#f87171"}
)

// Styles resolve their adaptive colors against the renderer they were built
// from, so flipping the renderer's dark flag restyles the whole view.
type Styles struct {
	Card          lipgloss.Style
	Title         lipgloss.Style
	Label         lipgloss.Style
	Field         lipgloss.Style
	Dim           lipgloss.Style
	Help          lipgloss.Style
	Error         lipgloss.Style
	Button        lipgloss.Style
	OutlineButton lipgloss.Style
	Busy          lipgloss.Style
	Thumb         lipgloss.Style
	ThumbError    lipgloss.Style
	Result        lipgloss.Style
	Alert         lipgloss.Style
}

func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Card: r.NewStyle().
			Foreground(text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(1, 2),

		Title: r.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginBottom(1),

		Label: r.NewStyle().
			Foreground(text),

		Field: r.NewStyle().
			Foreground(text).
			Background(field).
			Padding(0, 1),

		Dim: r.NewStyle().
			Foreground(muted),

		Help: r.NewStyle().
			Foreground(muted).
			Italic(true).
			MarginTop(1),

		Error: r.NewStyle().
			Foreground(danger).
			Bold(true),

		Button: r.NewStyle().
			Foreground(text).
			Background(surface).
			Bold(true).
			Padding(0, 2),

		OutlineButton: r.NewStyle().
			Foreground(text).
			Background(field).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),

		Busy: r.NewStyle().
			Foreground(accent).
			Bold(true),

		Thumb: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Margin(0, 1),

		ThumbError: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(danger).
			Foreground(danger).
			Margin(0, 1),

		Result: r.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(accent).
			Padding(0, 1).
			MarginTop(1),

		Alert: r.NewStyle().
			Foreground(danger).
			Background(surface).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(danger).
			Bold(true).
			Padding(1, 4),
	}
}
