package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the chat screen.
type Styles struct {
	Title   lipgloss.Style
	Status  lipgloss.Style
	User    lipgloss.Style
	Bot     lipgloss.Style
	Body    lipgloss.Style
	File    lipgloss.Style
	Help    lipgloss.Style
	Alert   lipgloss.Style
	Divider lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		User:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575")),
		Bot:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Body:    lipgloss.NewStyle(),
		File:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#FFB86C")),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Alert:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#FF5F87")).Padding(1, 3).Bold(true),
		Divider: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
