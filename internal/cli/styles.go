package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/daytrack/internal/models"
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	HeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
)

// Success formats a confirmation line
func Success(msg string) string {
	return SuccessStyle.Render("✓ " + msg)
}

// Warning formats a warning line
func Warning(msg string) string {
	return WarnStyle.Render("⚠ " + msg)
}

// PriorityStyle colors a priority label
func PriorityStyle(p models.Priority) lipgloss.Style {
	switch p {
	case models.PriorityHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	case models.PriorityMedium:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
}
