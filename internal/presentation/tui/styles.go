package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Title     lipgloss.Style
	Done      lipgloss.Style
	Pending   lipgloss.Style
	Next      lipgloss.Style
	Status    lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Recording lipgloss.Style
	LogBox    lipgloss.Style
	Dim       lipgloss.Style
}

func newStyles() styles {
	return styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Done:    lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true),
		Pending: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Next:    lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Underline(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Recording: lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		LogBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			MarginTop(1).
			BorderForeground(lipgloss.Color("241")),
		Dim: lipgloss.NewStyle().Faint(true),
	}
}
