package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"lumen/generator"
	"lumen/logger"
	"lumen/preview"
	"lumen/session"
	"lumen/theme"
)

type boardModel struct {
	config  TUIConfig
	session *session.Session
	styles  theme.Styles
	keys    keyMap

	mode     boardMode
	alert    string
	quitting bool

	picker      filepicker.Model
	staged      []session.File
	prompt      textinput.Model
	savedPrompt string
	spinner     spinner.Model
	viewport    viewport.Model
	help        help.Model

	width  int
	height int

	statusMessage string
	statusTTL     time.Duration
	thumbs        map[thumbKey]string
}

func newBoardModel(config TUIConfig) *boardModel {
	config.defaults()

	s := session.New(session.Options{
		Order:   config.Order,
		Mode:    config.Mode,
		Surface: config.Surface,
	})

	styles := theme.NewStyles(config.Renderer)

	ti := textinput.New()
	ti.Placeholder = "Describe the image to generate..."
	ti.CharLimit = 1000

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.Busy

	h := help.New()
	h.Styles.ShortKey = styles.Dim
	h.Styles.ShortDesc = styles.Dim
	h.Styles.FullKey = styles.Dim
	h.Styles.FullDesc = styles.Dim

	return &boardModel{
		config:    config,
		session:   s,
		styles:    styles,
		keys:      defaultKeyMap(),
		prompt:    ti,
		spinner:   sp,
		viewport:  viewport.New(80, 10),
		help:      h,
		statusTTL: 3 * time.Second,
		thumbs:    map[thumbKey]string{},
	}
}

func (m *boardModel) Init() tea.Cmd {
	if len(m.config.Initial) > 0 {
		return m.selectFiles(m.config.Initial)
	}
	m.refreshPreviews()
	return nil
}

// selectFiles is the selection event. Over the limit it raises the alert and
// leaves everything as it was.
func (m *boardModel) selectFiles(files []session.File) tea.Cmd {
	ctx, epoch, err := m.session.Select(files)
	if errors.Is(err, session.ErrTooManyFiles) {
		m.alert = session.LimitWarning
		return nil
	}
	if err != nil {
		logger.Debug.Printf("select failed: %v", err)
		return m.setStatus(err.Error())
	}

	m.thumbs = map[thumbKey]string{}
	m.refreshPreviews()

	if len(files) == 0 {
		return nil
	}
	return waitForPreview(m.config.Loader.Load(ctx, epoch, files))
}

func waitForPreview(ch <-chan preview.Result) tea.Cmd {
	return func() tea.Msg {
		result, ok := <-ch
		if !ok {
			return previewsDoneMsg{}
		}
		return previewMsg{result: result, ch: ch}
	}
}

func (m *boardModel) generate() tea.Cmd {
	if !m.session.BeginGeneration() {
		return nil
	}

	req := generator.Request{
		Prompt:     strings.TrimSpace(m.prompt.Value()),
		References: m.session.References(),
		Size:       m.config.Size,
	}
	ctx := m.session.Context()
	g := m.config.Generator
	timeout := m.config.Timeout

	logger.Debug.Printf("generating with %s, %d references", g.Name(), len(req.References))

	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			img, err := generator.Run(ctx, g, req, timeout)
			return generatedMsg{img: img, err: err}
		},
	)
}

func (m *boardModel) setStatus(text string) tea.Cmd {
	return func() tea.Msg {
		return statusMsg(text)
	}
}

func (m *boardModel) clearStatusAfterDelay() tea.Cmd {
	return tea.Tick(m.statusTTL, func(t time.Time) tea.Msg {
		return statusMsg("")
	})
}

func (m *boardModel) copyResult() tea.Cmd {
	img := m.session.Generated()
	if img == nil {
		return m.setStatus("nothing generated yet")
	}
	copyFn := m.config.Actions.Copy
	return func() tea.Msg {
		what, err := copyFn(img)
		if err != nil {
			return statusMsg(fmt.Sprintf("copy failed: %v", err))
		}
		return statusMsg("copied " + what)
	}
}

func (m *boardModel) openResult() tea.Cmd {
	img := m.session.Generated()
	if img == nil {
		return m.setStatus("nothing generated yet")
	}
	openFn := m.config.Actions.Open
	return func() tea.Msg {
		if err := openFn(img); err != nil {
			return statusMsg(fmt.Sprintf("open failed: %v", err))
		}
		return statusMsg("opened " + shortRef(img.Ref))
	}
}

func (m *boardModel) openPicker() tea.Cmd {
	dir, err := filepath.Abs(m.config.StartDir)
	if err != nil {
		dir = m.config.StartDir
	}

	fp := filepicker.New()
	fp.AllowedTypes = preview.PickerTypes()
	fp.CurrentDirectory = dir
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.AutoHeight = false
	fp.Height = max(5, m.height-12)

	m.picker = fp
	m.staged = nil
	m.mode = pickerView
	return m.picker.Init()
}

// toggleStaged adds a picked file to the staged set, or removes it when it is
// already there.
func (m *boardModel) toggleStaged(path string) {
	for i, f := range m.staged {
		if f.Path == path {
			m.staged = append(m.staged[:i], m.staged[i+1:]...)
			return
		}
	}

	file := session.File{Name: filepath.Base(path), Path: path}
	if info, err := os.Stat(path); err == nil {
		file.Size = info.Size()
	}
	m.staged = append(m.staged, file)
}

func (m *boardModel) commitStaged() tea.Cmd {
	files := m.staged
	m.staged = nil
	m.mode = boardView
	if m.picker.CurrentDirectory != "" {
		m.config.StartDir = m.picker.CurrentDirectory
	}

	if len(files) == 0 {
		return nil
	}
	return m.selectFiles(files)
}

func (m *boardModel) resize() {
	m.viewport.Width = max(20, m.width-8)
	m.viewport.Height = max(3, m.height-22)
	m.prompt.Width = max(20, m.width-20)
	m.help.Width = m.width
	m.refreshPreviews()
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		if m.mode == pickerView {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}
		return m, nil

	case previewMsg:
		if m.session.AddPreview(msg.result.Epoch, msg.result.Preview) {
			m.refreshPreviews()
		}
		return m, waitForPreview(msg.ch)

	case previewsDoneMsg:
		m.refreshPreviews()
		return m, nil

	case generatedMsg:
		m.session.FinishGeneration(msg.img, msg.err)
		if msg.err != nil {
			logger.Debug.Printf("generation failed: %v", msg.err)
		}
		return m, nil

	case statusMsg:
		m.statusMessage = string(msg)
		if msg != "" && m.statusTTL > 0 {
			return m, m.clearStatusAfterDelay()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.session.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch m.mode {
	case pickerView:
		m.picker, cmd = m.picker.Update(msg)
	case promptView:
		m.prompt, cmd = m.prompt.Update(msg)
	}
	return m, cmd
}

func (m *boardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// the alert blocks everything until dismissed
	if m.alert != "" {
		if key.Matches(msg, m.keys.Confirm, m.keys.Dismiss) {
			m.alert = ""
		}
		return m, nil
	}

	switch m.mode {
	case pickerView:
		return m.handlePickerKey(msg)
	case promptView:
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pick):
		return m, m.openPicker()

	case key.Matches(msg, m.keys.Clear):
		return m, m.selectFiles(nil)

	case key.Matches(msg, m.keys.Generate):
		return m, m.generate()

	case key.Matches(msg, m.keys.Prompt):
		m.mode = promptView
		m.savedPrompt = m.prompt.Value()
		return m, m.prompt.Focus()

	case key.Matches(msg, m.keys.Toggle):
		mode := m.session.ToggleDisplayMode()
		logger.Debug.Printf("display mode %s", mode)
		m.refreshPreviews()
		return m, nil

	case key.Matches(msg, m.keys.Open):
		return m, m.openResult()

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyResult()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	}

	return m, nil
}

func (m *boardModel) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.staged = nil
		m.mode = boardView
		return m, nil

	case key.Matches(msg, m.keys.Commit):
		return m, m.commitStaged()
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		m.toggleStaged(path)
		return m, cmd
	}
	if didSelect, path := m.picker.DidSelectDisabledFile(msg); didSelect {
		if preview.IsImageName(path) {
			m.toggleStaged(path)
			return m, cmd
		}
		return m, tea.Batch(cmd, m.setStatus("not an image: "+filepath.Base(path)))
	}
	return m, cmd
}

func (m *boardModel) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.prompt.Blur()
		m.mode = boardView
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.prompt.SetValue(m.savedPrompt)
		m.prompt.Blur()
		m.mode = boardView
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *boardModel) View() string {
	if m.quitting {
		return ""
	}

	if m.alert != "" {
		return m.renderAlert()
	}

	if m.mode == pickerView {
		return m.renderPicker()
	}

	return m.renderBoard()
}
