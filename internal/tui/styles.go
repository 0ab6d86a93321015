package tui

import "github.com/charmbracelet/lipgloss"

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusStyles = map[string]lipgloss.Style{
		"ready":     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"not_ready": lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"error":     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"checking":  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)
