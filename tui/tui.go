package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lumen/generator"
	"lumen/preview"
	"lumen/services"
	"lumen/session"
	"lumen/theme"
)

// Actions are the side effects run on a generated image.
type Actions struct {
	Copy func(img *generator.Image) (string, error)
	Open func(img *generator.Image) error
}

type TUIConfig struct {
	Generator generator.Generator
	Timeout   time.Duration
	Size      string
	Order     session.PreviewOrder
	Mode      theme.Mode
	StartDir  string
	// Initial is handled as the first selection event.
	Initial []session.File

	Renderer *lipgloss.Renderer
	Surface  theme.Surface
	Loader   *preview.Loader
	Actions  Actions
}

func (c *TUIConfig) defaults() {
	if c.Generator == nil {
		c.Generator = generator.Placeholder{}
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.Renderer == nil {
		c.Renderer = lipgloss.DefaultRenderer()
	}
	if c.Loader == nil {
		c.Loader = preview.NewLoader()
	}
	if c.Actions.Copy == nil {
		c.Actions.Copy = services.CopyResult
	}
	if c.Actions.Open == nil {
		c.Actions.Open = services.OpenResult
	}
	if c.StartDir == "" {
		c.StartDir = "."
	}
}

// Run mounts the board, runs it until the user quits and unmounts it.
func Run(config TUIConfig) error {
	m := newBoardModel(config)
	defer m.session.Close()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
