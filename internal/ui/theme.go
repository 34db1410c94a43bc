package ui

import "github.com/charmbracelet/lipgloss"

// Theme groups the lipgloss styles used by the session view
type Theme struct {
	Title     lipgloss.Style
	Cursor    lipgloss.Style
	Item      lipgloss.Style
	Selected  lipgloss.Style
	Status    lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
}

// DefaultTheme returns the standard color scheme
func DefaultTheme() Theme {
	return Theme{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Cursor:    lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		Item:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("120")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
