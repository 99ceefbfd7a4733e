package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

type styles struct {
	Title    lipgloss.Style
	Busy     lipgloss.Style
	Button   lipgloss.Style
	Disabled lipgloss.Style
	Status   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:    lipgloss.NewStyle().Foreground(lipgloss.Color("#ff71ce")).Bold(true),
		Busy:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		Button:   lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1")).Bold(true),
		Disabled: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

func (m *Model) button() string {
	if m.ctrl.Busy() {
		return m.styles.Disabled.Render("[ Sending... ]")
	}
	return m.styles.Button.Render("[ Send ]")
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.transcript)
	}
	b.WriteString("\n")

	if m.ctrl.Busy() {
		b.WriteString(m.spinner.View())
		b.WriteString(m.styles.Busy.Render("Thinking..."))
	}
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString(" ")
	b.WriteString(m.button())
	b.WriteString("\n")

	status := m.status()
	if m.width > 0 {
		status = ansi.Truncate(status, m.width, "…")
	}
	b.WriteString(m.styles.Status.Render(status))

	return b.String()
}
