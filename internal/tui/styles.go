package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	selfStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	systemStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)
