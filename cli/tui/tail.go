package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skippytm/shimmer/container"
	"github.com/skippytm/shimmer/registry"
)

// TailView is the payload for the tail_log view: the log path plus the
// most recent lines, oldest first.
type TailView struct {
	LogPath string
	Lines   []string
}

// TailModel is a Bubble Tea model for the tail view.
type TailModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewTailModel creates a new tail model.
func NewTailModel(viewType string, data any) TailModel {
	return TailModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m TailModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m TailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m TailModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "tail_log":
		content = m.renderTailLog()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m TailModel) renderTailLog() string {
	data, ok := m.data.(*TailView)
	if !ok {
		return "Invalid data type for tail_log"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Coordination Log"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n\n",
		LabelStyle.Render("Log:"),
		ValueStyle.Render(data.LogPath)))

	snap := registry.Builtin()
	for _, line := range data.Lines {
		b.WriteString(m.renderLine(line, snap))
		b.WriteString("\n")
	}

	return BoxStyle.Render(b.String())
}

// renderLine styles one log line by its decoded action. Undecodable
// lines render raw in the error style; the tail view never hides history.
func (m TailModel) renderLine(line string, snap *registry.Snapshot) string {
	if strings.HasPrefix(line, registry.HeaderMarker) {
		return HelpStyle.Render(line)
	}

	c, err := container.Decode(line, snap)
	if err != nil {
		return ErrorStyle.Render(line)
	}
	if c.Header {
		return HelpStyle.Render(line)
	}
	return ActionStyle(c.Action.String()).Render(line)
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunTailTUI runs the tail TUI.
func RunTailTUI(viewType string, data any) error {
	model := NewTailModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderTailStatic renders tail data without full TUI (for fallback).
func RenderTailStatic(viewType string, data any) string {
	model := NewTailModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
