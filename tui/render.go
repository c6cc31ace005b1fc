package tui

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"lumen/generator"
	"lumen/session"
	"lumen/theme"
)

const (
	tileNameWidth = 16
	maxRefWidth   = 60
)

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// renderThumbnail draws two pixel rows per terminal row: the upper half block
// takes the top pixel as foreground and the bottom pixel as background.
func renderThumbnail(r *lipgloss.Renderer, t session.Thumbnail) string {
	if t.Width == 0 || t.Height == 0 {
		return ""
	}

	var b strings.Builder
	for y := 0; y < t.Height; y += 2 {
		for x := 0; x < t.Width; x++ {
			style := r.NewStyle().Foreground(hexColor(t.At(x, y)))
			if y+1 < t.Height {
				style = style.Background(hexColor(t.At(x, y+1)))
			}
			b.WriteString(style.Render("▀"))
		}
		if y+2 < t.Height {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

func (m *boardModel) renderTile(p session.Preview, epoch session.Epoch) string {
	name := truncate(p.Name, tileNameWidth)

	if p.Failed() {
		return m.styles.ThumbError.
			Width(tileNameWidth).
			Render(fmt.Sprintf("✗ %s\n%s", name, truncate(p.Err.Error(), tileNameWidth*2)))
	}

	k := thumbKey{epoch: uint64(epoch), index: p.Index}
	thumb, ok := m.thumbs[k]
	if !ok {
		thumb = renderThumbnail(m.config.Renderer, p.Thumbnail)
		m.thumbs[k] = thumb
	}

	caption := m.styles.Dim.Render(fmt.Sprintf("%dx%d", p.Width, p.Height))
	return m.styles.Thumb.Render(lipgloss.JoinVertical(lipgloss.Left, thumb, name, caption))
}

// renderPreviews lays the previews out in rows in their current order.
func (m *boardModel) renderPreviews() string {
	previews := m.session.Previews()
	epoch := m.session.Epoch()

	if len(previews) == 0 {
		if pending := m.session.Pending(); pending > 0 {
			return m.styles.Dim.Render(fmt.Sprintf("decoding %d images...", pending))
		}
		return m.styles.Dim.Render("No images selected. Press f to choose some.")
	}

	tiles := make([]string, 0, len(previews))
	for _, p := range previews {
		tiles = append(tiles, m.renderTile(p, epoch))
	}

	perRow := 1
	if tileWidth := lipgloss.Width(tiles[0]); tileWidth > 0 && m.viewport.Width > tileWidth {
		perRow = m.viewport.Width / tileWidth
	}

	var rows []string
	for i := 0; i < len(tiles); i += perRow {
		end := min(i+perRow, len(tiles))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles[i:end]...))
	}

	if pending := m.session.Pending(); pending > 0 {
		rows = append(rows, m.styles.Dim.Render(fmt.Sprintf("decoding %d more...", pending)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *boardModel) refreshPreviews() {
	m.viewport.SetContent(m.renderPreviews())
}

func shortRef(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		head, _, _ := strings.Cut(ref, ",")
		return fmt.Sprintf("%s,… (%d bytes)", head, len(ref))
	}
	return truncate(ref, maxRefWidth)
}

func resultMarkdown(img *generator.Image) string {
	var b strings.Builder
	b.WriteString("### Generated image\n\n")
	fmt.Fprintf(&b, "- **Backend:** %s\n", img.Backend)
	fmt.Fprintf(&b, "- **Reference:** `%s`\n", shortRef(img.Ref))
	if img.MimeType != "" {
		fmt.Fprintf(&b, "- **Type:** %s\n", img.MimeType)
	}
	if img.RevisedPrompt != "" {
		fmt.Fprintf(&b, "\n> %s\n", img.RevisedPrompt)
	}
	return b.String()
}

func renderResult(img *generator.Image, mode theme.Mode) string {
	md := resultMarkdown(img)
	rendered, err := glamour.Render(md, mode.GlamourStyle())
	if err != nil {
		return md
	}
	return strings.TrimSpace(rendered)
}

func (m *boardModel) toggleLabel() string {
	if m.session.DisplayMode() == theme.Dark {
		return "Light Mode"
	}
	return "Dark Mode"
}

func (m *boardModel) renderButtons() string {
	generate := m.styles.Button.Render("Generate Image")
	if m.session.Busy() {
		generate = m.styles.Busy.Render(m.spinner.View() + " Generating...")
	}
	toggle := m.styles.OutlineButton.Render(m.toggleLabel())
	return lipgloss.JoinHorizontal(lipgloss.Center, generate, "  ", toggle)
}

func (m *boardModel) renderPrompt() string {
	if m.mode == promptView {
		return m.styles.Label.Render("Prompt: ") + m.prompt.View()
	}
	value := m.prompt.Value()
	if value == "" {
		return m.styles.Label.Render("Prompt: ") + m.styles.Dim.Render("(press p to describe the image)")
	}
	return m.styles.Label.Render("Prompt: ") + m.styles.Field.Render(value)
}

func (m *boardModel) renderBoard() string {
	var sections []string

	sections = append(sections,
		m.styles.Title.Render("lumen"),
		m.styles.Label.Render(fmt.Sprintf("Upload images (%d/%d)", len(m.session.Files()), session.MaxFiles)),
		m.viewport.View(),
		m.renderPrompt(),
		"",
		m.renderButtons(),
	)

	if img := m.session.Generated(); img != nil {
		sections = append(sections, m.styles.Result.Render(renderResult(img, m.session.DisplayMode())))
	}

	if err := m.session.LastError(); err != nil {
		sections = append(sections, m.styles.Error.Render("Generation failed: "+err.Error()))
	}

	if m.statusMessage != "" {
		sections = append(sections, m.styles.Dim.Render(m.statusMessage))
	}

	sections = append(sections, m.styles.Help.Render(m.help.View(m.keys)))

	return m.styles.Card.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *boardModel) renderPicker() string {
	var staged string
	if len(m.staged) == 0 {
		staged = m.styles.Dim.Render("Nothing staged. Press enter on a file to stage it.")
	} else {
		names := make([]string, 0, len(m.staged))
		for _, f := range m.staged {
			names = append(names, filepath.Base(f.Path))
		}
		staged = m.styles.Label.Render(fmt.Sprintf("Staged (%d): %s", len(m.staged), strings.Join(names, ", ")))
	}

	sections := []string{
		m.styles.Title.Render("Choose images"),
		m.styles.Dim.Render(m.picker.CurrentDirectory),
		m.picker.View(),
		staged,
	}
	if m.statusMessage != "" {
		sections = append(sections, m.styles.Dim.Render(m.statusMessage))
	}
	sections = append(sections, m.styles.Help.Render(m.help.View(pickerKeys{m.keys})))

	return m.styles.Card.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *boardModel) renderAlert() string {
	box := m.styles.Alert.Render(m.alert + "\n\n" + m.styles.Dim.Render("press enter to dismiss"))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return m.config.Renderer.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
