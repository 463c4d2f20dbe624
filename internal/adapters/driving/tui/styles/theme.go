// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the TUI.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
	BarBack    lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#C0392B"), // Maple red
		Secondary:  lipgloss.Color("#2E86AB"), // Steel blue
		Foreground: lipgloss.Color("#E8E6E3"),
		Muted:      lipgloss.Color("#7F8C8D"),
		Success:    lipgloss.Color("#27AE60"),
		Warning:    lipgloss.Color("#F39C12"),
		Error:      lipgloss.Color("#E74C3C"),
		Border:     lipgloss.Color("#4A4A4A"),
		BarBack:    lipgloss.Color("#1C1C1C"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Title renders the application header.
	Title lipgloss.Style

	// SectionHeading renders a report section title.
	SectionHeading lipgloss.Style

	// Label renders an unfocused form label.
	Label lipgloss.Style

	// FocusedLabel renders the label of the field being edited.
	FocusedLabel lipgloss.Style

	Normal  lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	// InputField frames an unfocused input.
	InputField lipgloss.Style

	// FocusedInput frames the input being edited.
	FocusedInput lipgloss.Style

	StatusBar lipgloss.Style
	Help      lipgloss.Style
	Spinner   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary).
			MarginBottom(1),

		SectionHeading: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(theme.Secondary),

		Label: lipgloss.NewStyle().
			Foreground(theme.Muted),

		FocusedLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Normal:  lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted:   lipgloss.NewStyle().Foreground(theme.Muted),
		Error:   lipgloss.NewStyle().Foreground(theme.Error),
		Success: lipgloss.NewStyle().Foreground(theme.Success),
		Warning: lipgloss.NewStyle().Foreground(theme.Warning),

		InputField:   frame.BorderForeground(theme.Border),
		FocusedInput: frame.BorderForeground(theme.Primary),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.BarBack).
			Padding(0, 1),

		Help:    lipgloss.NewStyle().Foreground(theme.Muted),
		Spinner: lipgloss.NewStyle().Foreground(theme.Primary),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
