// Package style defines lipgloss styles for the notes panel.
package style

import "github.com/charmbracelet/lipgloss"

// Names omit a "Style" suffix; call sites read style.Title, style.Error.
var (
	// Title is used for the panel header and modal titles.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	// Subtitle is used for secondary text such as the filter summary.
	Subtitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	// Modal frames the add-note dialog and the inline editor.
	Modal = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	// Help is used for keyboard shortcut hints.
	Help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	// Key highlights a key inside a hint.
	Key = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	// Badge marks a note's type and page.
	Badge = lipgloss.NewStyle().
		Foreground(lipgloss.Color("63"))

	Label = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255"))

	// Muted is used for de-emphasized text (transcripts, counters).
	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	// Cursor marks the selected list row.
	Cursor = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205"))
)
