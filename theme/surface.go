package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Surface is the visual root a display mode is applied to.
type Surface interface {
	Apply(mode Mode)
	Restore()
}

// TerminalSurface paints the terminal background and flips the renderer's
// dark flag. Create it before the program starts reading stdin, it queries
// the terminal for the original background.
type TerminalSurface struct {
	output       *termenv.Output
	renderer     *lipgloss.Renderer
	originalBg   termenv.Color
	originalDark bool
	applied      bool
}

func NewTerminalSurface(output *termenv.Output, renderer *lipgloss.Renderer) *TerminalSurface {
	return &TerminalSurface{
		output:       output,
		renderer:     renderer,
		originalBg:   output.BackgroundColor(),
		originalDark: renderer.HasDarkBackground(),
	}
}

func (s *TerminalSurface) Apply(mode Mode) {
	s.renderer.SetHasDarkBackground(mode == Dark)
	s.output.SetBackgroundColor(termenv.RGBColor(mode.Background()))
	s.applied = true
}

// Restore puts the terminal back the way NewTerminalSurface found it.
func (s *TerminalSurface) Restore() {
	if !s.applied {
		return
	}
	s.renderer.SetHasDarkBackground(s.originalDark)

	switch c := s.originalBg.(type) {
	case termenv.RGBColor:
		s.output.SetBackgroundColor(c)
	default:
		// OSC 111 resets the background to the terminal default
		s.output.WriteString(termenv.OSC + "111" + "\a")
	}
	s.applied = false
}
