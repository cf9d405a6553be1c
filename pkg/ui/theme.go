package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/codesweep/codesweep/pkg/analysis"
)

// Theme defines colors and styles for the UI
type Theme struct {
	// Primary colors
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Surface    lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Text colors
	Text        lipgloss.Color
	TextMuted   lipgloss.Color
	TextInverse lipgloss.Color

	// Border colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color

	// Styles
	Styles ThemeStyles
}

// ThemeStyles contains pre-configured lipgloss styles
type ThemeStyles struct {
	// Layout styles
	Title      lipgloss.Style
	Header     lipgloss.Style
	Footer     lipgloss.Style
	Panel      lipgloss.Style
	PanelFocus lipgloss.Style

	// Content styles
	Output lipgloss.Style

	// Status styles
	StatusInfo    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style

	// Typography
	Bold  lipgloss.Style
	Muted lipgloss.Style
	Code  lipgloss.Style
}

// NewDarkTheme creates a dark theme
func NewDarkTheme() Theme {
	// Dark theme color palette
	theme := Theme{
		Primary:    lipgloss.Color("#7c3aed"), // Purple
		Secondary:  lipgloss.Color("#10b981"), // Green
		Accent:     lipgloss.Color("#f59e0b"), // Amber
		Background: lipgloss.Color("#1f2937"), // Dark gray
		Surface:    lipgloss.Color("#374151"), // Medium gray

		Success: lipgloss.Color("#10b981"), // Green
		Warning: lipgloss.Color("#f59e0b"), // Amber
		Error:   lipgloss.Color("#ef4444"), // Red
		Info:    lipgloss.Color("#3b82f6"), // Blue

		Text:        lipgloss.Color("#f9fafb"), // Light gray
		TextMuted:   lipgloss.Color("#9ca3af"), // Muted gray
		TextInverse: lipgloss.Color("#111827"), // Dark

		Border:      lipgloss.Color("#4b5563"), // Gray
		BorderFocus: lipgloss.Color("#7c3aed"), // Purple
	}

	theme.Styles = createThemeStyles(theme)
	return theme
}

// NewLightTheme creates a light theme
func NewLightTheme() Theme {
	// Light theme color palette
	theme := Theme{
		Primary:    lipgloss.Color("#5b21b6"), // Purple
		Secondary:  lipgloss.Color("#059669"), // Green
		Accent:     lipgloss.Color("#d97706"), // Amber
		Background: lipgloss.Color("#ffffff"), // White
		Surface:    lipgloss.Color("#f9fafb"), // Light gray

		Success: lipgloss.Color("#059669"), // Green
		Warning: lipgloss.Color("#d97706"), // Amber
		Error:   lipgloss.Color("#dc2626"), // Red
		Info:    lipgloss.Color("#2563eb"), // Blue

		Text:        lipgloss.Color("#111827"), // Dark
		TextMuted:   lipgloss.Color("#6b7280"), // Muted gray
		TextInverse: lipgloss.Color("#f9fafb"), // Light

		Border:      lipgloss.Color("#d1d5db"), // Light gray
		BorderFocus: lipgloss.Color("#5b21b6"), // Purple
	}

	theme.Styles = createThemeStyles(theme)
	return theme
}

// ThemeByName resolves a configured theme name. "auto" and unknown names
// fall back to the dark theme.
func ThemeByName(name string) Theme {
	if name == "light" {
		return NewLightTheme()
	}
	return NewDarkTheme()
}

// createThemeStyles creates all the lipgloss styles for a theme
func createThemeStyles(theme Theme) ThemeStyles {
	return ThemeStyles{
		// Layout styles
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary).
			Background(theme.Background).
			Padding(0, 1).
			Margin(0, 0, 1, 0),

		Header: lipgloss.NewStyle().
			Foreground(theme.Text).
			Background(theme.Surface).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		Footer: lipgloss.NewStyle().
			Foreground(theme.TextMuted).
			Background(theme.Background).
			Padding(0, 1).
			Align(lipgloss.Center),

		Panel: lipgloss.NewStyle().
			Foreground(theme.Text).
			Background(theme.Surface).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		PanelFocus: lipgloss.NewStyle().
			Foreground(theme.Text).
			Background(theme.Surface).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.BorderFocus).
			Bold(true),

		// Content styles
		Output: lipgloss.NewStyle().
			Foreground(theme.Text).
			Background(theme.Background).
			Padding(1),

		// Status styles
		StatusInfo: lipgloss.NewStyle().
			Foreground(theme.Info).
			Bold(true),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(theme.Success).
			Bold(true),

		StatusWarning: lipgloss.NewStyle().
			Foreground(theme.Warning).
			Bold(true),

		StatusError: lipgloss.NewStyle().
			Foreground(theme.Error).
			Bold(true),

		// Typography
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Text),

		Muted: lipgloss.NewStyle().
			Foreground(theme.TextMuted),

		Code: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Background(theme.Surface).
			Padding(0, 1),
	}
}

// GetStatusStyle returns the appropriate style for a status type
func (t Theme) GetStatusStyle(statusType StatusType) lipgloss.Style {
	switch statusType {
	case StatusSuccess:
		return t.Styles.StatusSuccess
	case StatusWarning:
		return t.Styles.StatusWarning
	case StatusError:
		return t.Styles.StatusError
	default:
		return t.Styles.StatusInfo
	}
}

// GetSeverityIcon returns an icon for an issue severity
func GetSeverityIcon(severity analysis.Severity) string {
	switch severity {
	case analysis.SeverityCritical:
		return "✗"
	case analysis.SeverityHigh:
		return "!"
	case analysis.SeverityMedium:
		return "•"
	case analysis.SeverityLow:
		return "·"
	default:
		return "•"
	}
}

// GetSeverityColor returns a color for an issue severity
func (t Theme) GetSeverityColor(severity analysis.Severity) lipgloss.Color {
	switch severity {
	case analysis.SeverityCritical:
		return t.Error
	case analysis.SeverityHigh:
		return t.Accent
	case analysis.SeverityMedium:
		return t.Info
	case analysis.SeverityLow:
		return t.TextMuted
	default:
		return t.TextMuted
	}
}
