package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skippytm/shimmer/metrics"
)

// StatsModel is a Bubble Tea model for stats views.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "stats_log":
		content = m.renderStatsLog()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderStatsLog() string {
	data, ok := m.data.(*metrics.Snapshot)
	if !ok {
		return "Invalid data type for stats_log"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Coordination Log Statistics"))
	b.WriteString("\n\n")

	if data.LogPath != "" {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Log:"),
			ValueStyle.Render(data.LogPath)))
	}
	if data.Writer != "" {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Writer:"),
			ValueStyle.Render(data.Writer)))
	}
	if data.LogPath != "" || data.Writer != "" {
		b.WriteString("\n")
	}

	writes := []string{
		m.renderStatBox("Appends", data.Appends, highlightColor),
		m.renderStatBox("Amends", data.Amends, warningColor),
		m.renderStatBox("Rotations", data.Rotations, primaryColor),
		m.renderStatBox("Lint Rejected", data.LintRejections, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, writes...))
	b.WriteString("\n")

	locks := []string{
		m.renderStatBox("Lock Acquired", data.LockAcquired, successColor),
		m.renderStatBox("Lock Timeouts", data.LockTimeouts, errorColor),
		m.renderStatBox("Conflicts", data.LockConflicts, warningColor),
		m.renderStatBox("Stale Breaks", data.StaleBreaks, mutedColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, locks...))
	b.WriteString("\n")

	checks := []string{
		m.renderStatBox("Parity Failures", data.ParityFailures, errorColor),
		m.renderStatBox("Decode Errors", data.DecodeErrors, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, checks...))

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
