package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

// theme is the colour palette for terminal output.
type theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
}

func defaultTheme() theme {
	return theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Success:   lipgloss.Color("#A6E3A1"), // Green
		Warning:   lipgloss.Color("#F9E2AF"), // Yellow
		Error:     lipgloss.Color("#F38BA8"), // Red
		Border:    lipgloss.Color("#45475A"), // Border gray
	}
}

// styles contains the pre-configured lipgloss styles used by the commands.
// Lipgloss drops colours when stdout is not a terminal.
type styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Marker  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Answer  lipgloss.Style
}

func newStyles(t theme) styles {
	return styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary),

		Heading: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Secondary),

		Marker: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Secondary),

		Muted: lipgloss.NewStyle().
			Foreground(t.Muted),

		Success: lipgloss.NewStyle().
			Foreground(t.Success),

		Warning: lipgloss.NewStyle().
			Foreground(t.Warning),

		Error: lipgloss.NewStyle().
			Foreground(t.Error),

		Answer: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
	}
}

var style = newStyles(defaultTheme())

// healthStyle picks the style for a component status.
func healthStyle(s domain.HealthStatus) lipgloss.Style {
	switch s {
	case domain.HealthOK:
		return style.Success
	case domain.HealthEmpty, domain.HealthNotConfigured:
		return style.Warning
	default:
		return style.Error
	}
}

// stateStyle picks the style for an ingestion state.
func stateStyle(s domain.IngestState) lipgloss.Style {
	switch s {
	case domain.StateDone:
		return style.Success
	case domain.StateFailed:
		return style.Error
	default:
		return style.Warning
	}
}
