package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/ai-studio/internal/model/chat"
)

const (
	headerHeight = 2
	footerHeight = 4
)

// View draws the transcript, the composer and, when present, the warning.
func (m *Model) View() string {
	if m.alert != "" {
		return m.renderAlert()
	}
	if m.picking {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.styles.Title.Render("Select a document (.pdf, .txt, .md)"),
			m.picker.View(),
			m.styles.Help.Render("enter: choose  esc: cancel"),
		)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.styles.Title.Render("AI Studio")
	note := m.backendNote
	if note == "" && m.health != nil {
		note = "checking " + m.health.BaseURL()
	}
	return title + "  " + m.styles.Status.Render(note) + "\n" + m.divider()
}

func (m *Model) renderFooter() string {
	file := "no file selected"
	if f := m.ctrl.Store().Draft().File; f != nil {
		file = "file: " + f.Name
	}
	return strings.Join([]string{
		m.divider(),
		m.styles.File.Render(file),
		m.input.View(),
		m.styles.Help.Render("enter send • ctrl+o choose file • ctrl+u upload • ctrl+x clear file • esc quit"),
	}, "\n")
}

func (m *Model) divider() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return m.styles.Divider.Render(strings.Repeat("─", width))
}

func (m *Model) renderAlert() string {
	box := m.styles.Alert.Render(m.alert + "\n\n" + m.styles.Help.Render("press any key"))
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderTranscript lays out every message in append order.
func (m *Model) renderTranscript() string {
	messages := m.ctrl.Store().Transcript()
	if len(messages) == 0 {
		return m.styles.Help.Render("No messages yet.")
	}

	width := m.viewport.Width - 4
	if width < 20 {
		width = 20
	}

	blocks := make([]string, 0, len(messages))
	for _, msg := range messages {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg chat.Message, width int) string {
	label := m.styles.Bot.Render(msg.Sender.Label() + ":")
	if msg.Sender == chat.SenderUser {
		label = m.styles.User.Render(msg.Sender.Label() + ":")
	}

	if m.renderer != nil && msg.Sender == chat.SenderBot {
		if out, err := m.renderer.Render(msg.Text); err == nil {
			return label + "\n" + strings.TrimRight(out, "\n")
		}
	}
	// Line breaks in the text are kept; long lines wrap.
	return lipgloss.JoinHorizontal(lipgloss.Top, label+" ", m.styles.Body.Width(width-5).Render(msg.Text))
}
