package tui

import (
	"github.com/charmbracelet/lipgloss"

	"orchd/internal/domain"
)

// Colors defines the color palette for the dashboard.
var Colors = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color

	Selected lipgloss.Color

	Pending    lipgloss.Color
	InProgress lipgloss.Color
	Blocked    lipgloss.Color
	Completed  lipgloss.Color
}{
	Primary: lipgloss.Color("#6C5CE7"), // Purple
	Muted:   lipgloss.Color("#636E72"), // Gray
	Error:   lipgloss.Color("#D63031"), // Red
	Success: lipgloss.Color("#00B894"), // Green
	Warning: lipgloss.Color("#FDCB6E"), // Yellow

	Selected: lipgloss.Color("#FFEAA7"), // Yellow

	Pending:    lipgloss.Color("#74B9FF"), // Blue
	InProgress: lipgloss.Color("#00B894"), // Green
	Blocked:    lipgloss.Color("#D63031"), // Red
	Completed:  lipgloss.Color("#636E72"), // Gray
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(Colors.Primary)
	selectedStyle = lipgloss.NewStyle().Foreground(Colors.Selected).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(Colors.Muted)
	errorStyle    = lipgloss.NewStyle().Foreground(Colors.Error)
	previewStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Muted).
			Padding(0, 1)
)

// StateStyle returns the style for a task state.
func StateStyle(state domain.TaskState) lipgloss.Style {
	switch state {
	case domain.StatePending:
		return lipgloss.NewStyle().Foreground(Colors.Pending)
	case domain.StateInProgress:
		return lipgloss.NewStyle().Foreground(Colors.InProgress)
	case domain.StateBlocked:
		return lipgloss.NewStyle().Foreground(Colors.Blocked)
	case domain.StateCompleted:
		return lipgloss.NewStyle().Foreground(Colors.Completed)
	default:
		return mutedStyle
	}
}

// ActivityStyle returns the style for a session activity.
func ActivityStyle(activity domain.Activity) lipgloss.Style {
	switch activity {
	case domain.ActivityWorking:
		return lipgloss.NewStyle().Foreground(Colors.Success)
	case domain.ActivityNeedsInput:
		return lipgloss.NewStyle().Foreground(Colors.Warning).Bold(true)
	case domain.ActivityError:
		return errorStyle
	default:
		return mutedStyle
	}
}
