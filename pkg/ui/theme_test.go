package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/codesweep/codesweep/pkg/analysis"
)

// TestNewDarkTheme tests dark theme creation
func TestNewDarkTheme(t *testing.T) {
	theme := NewDarkTheme()

	// Test primary colors are set
	assert.NotEmpty(t, theme.Primary)
	assert.NotEmpty(t, theme.Secondary)
	assert.NotEmpty(t, theme.Accent)
	assert.NotEmpty(t, theme.Background)
	assert.NotEmpty(t, theme.Surface)

	// Test status colors are set
	assert.NotEmpty(t, theme.Success)
	assert.NotEmpty(t, theme.Warning)
	assert.NotEmpty(t, theme.Error)
	assert.NotEmpty(t, theme.Info)

	// Test text colors are set
	assert.NotEmpty(t, theme.Text)
	assert.NotEmpty(t, theme.TextMuted)
	assert.NotEmpty(t, theme.TextInverse)

	// Test border colors are set
	assert.NotEmpty(t, theme.Border)
	assert.NotEmpty(t, theme.BorderFocus)

	// Test styles are initialized
	assert.NotNil(t, theme.Styles)

	// Test specific dark theme colors
	assert.Equal(t, lipgloss.Color("#7c3aed"), theme.Primary)
	assert.Equal(t, lipgloss.Color("#10b981"), theme.Secondary)
	assert.Equal(t, lipgloss.Color("#f59e0b"), theme.Accent)
	assert.Equal(t, lipgloss.Color("#1f2937"), theme.Background)
}

// TestNewLightTheme tests light theme creation
func TestNewLightTheme(t *testing.T) {
	theme := NewLightTheme()

	// Test primary colors are set
	assert.NotEmpty(t, theme.Primary)
	assert.NotEmpty(t, theme.Secondary)
	assert.NotEmpty(t, theme.Accent)
	assert.NotEmpty(t, theme.Background)
	assert.NotEmpty(t, theme.Surface)

	// Test status colors are set
	assert.NotEmpty(t, theme.Success)
	assert.NotEmpty(t, theme.Warning)
	assert.NotEmpty(t, theme.Error)
	assert.NotEmpty(t, theme.Info)

	// Test text colors are set
	assert.NotEmpty(t, theme.Text)
	assert.NotEmpty(t, theme.TextMuted)
	assert.NotEmpty(t, theme.TextInverse)

	// Test border colors are set
	assert.NotEmpty(t, theme.Border)
	assert.NotEmpty(t, theme.BorderFocus)

	// Test styles are initialized
	assert.NotNil(t, theme.Styles)

	// Test specific light theme colors (different from dark)
	assert.NotEqual(t, lipgloss.Color("#1f2937"), theme.Background) // Should not be dark background
	assert.NotEqual(t, lipgloss.Color("#f9fafb"), theme.Text)       // Should not be light text
}

// TestThemeByName tests theme resolution by configured name
func TestThemeByName(t *testing.T) {
	tests := []struct {
		name            string
		themeName       string
		expectedPrimary lipgloss.Color
	}{
		{"dark theme", "dark", lipgloss.Color("#7c3aed")},
		{"light theme", "light", lipgloss.Color("#5b21b6")},
		{"auto falls back to dark", "auto", lipgloss.Color("#7c3aed")},
		{"unknown falls back to dark", "solarized", lipgloss.Color("#7c3aed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme := ThemeByName(tt.themeName)
			assert.Equal(t, tt.expectedPrimary, theme.Primary)
		})
	}
}

// TestThemeStylesCreation tests that theme styles are properly created
func TestThemeStylesCreation(t *testing.T) {
	theme := NewDarkTheme()
	styles := theme.Styles

	// Test layout styles exist
	assert.NotNil(t, styles.Title)
	assert.NotNil(t, styles.Header)
	assert.NotNil(t, styles.Footer)
	assert.NotNil(t, styles.Panel)
	assert.NotNil(t, styles.PanelFocus)

	// Test content styles exist
	assert.NotNil(t, styles.Output)

	// Test status styles exist
	assert.NotNil(t, styles.StatusInfo)
	assert.NotNil(t, styles.StatusSuccess)
	assert.NotNil(t, styles.StatusWarning)
	assert.NotNil(t, styles.StatusError)

	// Test typography styles exist
	assert.NotNil(t, styles.Bold)
	assert.NotNil(t, styles.Muted)
	assert.NotNil(t, styles.Code)
}

// TestGetStatusStyle tests status style retrieval
func TestGetStatusStyle(t *testing.T) {
	theme := NewDarkTheme()

	tests := []struct {
		name       string
		statusType StatusType
		expected   lipgloss.Style
	}{
		{"Info status", StatusInfo, theme.Styles.StatusInfo},
		{"Success status", StatusSuccess, theme.Styles.StatusSuccess},
		{"Warning status", StatusWarning, theme.Styles.StatusWarning},
		{"Error status", StatusError, theme.Styles.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := theme.GetStatusStyle(tt.statusType)
			assert.Equal(t, tt.expected, style)
		})
	}
}

// TestGetSeverityIcon tests severity icon retrieval
func TestGetSeverityIcon(t *testing.T) {
	tests := []struct {
		name     string
		severity analysis.Severity
		expected string
	}{
		{"critical icon", analysis.SeverityCritical, "✗"},
		{"high icon", analysis.SeverityHigh, "!"},
		{"medium icon", analysis.SeverityMedium, "•"},
		{"low icon", analysis.SeverityLow, "·"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			icon := GetSeverityIcon(tt.severity)
			assert.Equal(t, tt.expected, icon)
		})
	}
}

// TestGetSeverityColor tests severity color retrieval
func TestGetSeverityColor(t *testing.T) {
	theme := NewDarkTheme()

	tests := []struct {
		name     string
		severity analysis.Severity
		expected lipgloss.Color
	}{
		{"critical uses error color", analysis.SeverityCritical, theme.Error},
		{"high uses accent color", analysis.SeverityHigh, theme.Accent},
		{"medium uses info color", analysis.SeverityMedium, theme.Info},
		{"low uses muted color", analysis.SeverityLow, theme.TextMuted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color := theme.GetSeverityColor(tt.severity)
			assert.Equal(t, tt.expected, color)
		})
	}
}
