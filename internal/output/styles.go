package output

import "github.com/charmbracelet/lipgloss"

var (
	successColor = lipgloss.Color("76")  // Green
	warningColor = lipgloss.Color("214") // Orange
	errorColor   = lipgloss.Color("196") // Red
	mutedColor   = lipgloss.Color("241") // Gray
	accentColor  = lipgloss.Color("205") // Pink
)

// Styles holds the text styles for one output stream
type Styles struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Title   lipgloss.Style
	Value   lipgloss.Style
}

// NewStyles returns colored styles, or plain ones when color is off
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{
			Success: plain,
			Warning: plain,
			Error:   plain,
			Muted:   plain,
			Title:   plain,
			Value:   plain,
		}
	}

	return Styles{
		Success: lipgloss.NewStyle().Foreground(successColor),
		Warning: lipgloss.NewStyle().Foreground(warningColor),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(errorColor),
		Muted:   lipgloss.NewStyle().Foreground(mutedColor),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(accentColor),
		Value:   lipgloss.NewStyle().Bold(true),
	}
}
