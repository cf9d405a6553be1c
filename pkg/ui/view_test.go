package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codesweep/codesweep/pkg/analysis"
)

// TestRenderFullView tests full view rendering
func TestRenderFullView(t *testing.T) {
	model, _ := newWatchModel()

	// Set up model with some data
	model.state = StateWatching
	model.scanCount = 2
	model.issueCount = 3
	model.lastBatch = newBatch(newSeverityIssue(analysis.SeverityHigh))
	model.addOutputLine("Watching /tmp/project")

	view := model.renderFullView()
	assert.NotEmpty(t, view, "Full view should not be empty")
	assert.Contains(t, view, "codesweep", "View should contain the application name")
	assert.Contains(t, view, "Session", "View should contain the session panel")
}

// TestRenderCompactView tests compact view rendering
func TestRenderCompactView(t *testing.T) {
	model, _ := newWatchModel()
	model.config.CompactMode = true

	// Set up model with some data
	model.state = StateWatching
	model.addOutputLine("Watching /tmp/project")

	view := model.renderCompactView()
	assert.NotEmpty(t, view, "Compact view should not be empty")
	assert.Contains(t, view, "codesweep", "Compact view should contain the application name")
}

// TestRenderHeader tests header rendering
func TestRenderHeader(t *testing.T) {
	model, _ := newWatchModel()

	header := model.renderHeader()
	assert.NotEmpty(t, header, "Header should not be empty")
	assert.Contains(t, header, "codesweep", "Header should contain the application name")
	assert.Contains(t, header, "/tmp/project", "Header should contain the project path")
}

// TestRenderCompactHeader tests compact header rendering
func TestRenderCompactHeader(t *testing.T) {
	model, _ := newWatchModel()

	header := model.renderCompactHeader()
	assert.NotEmpty(t, header, "Compact header should not be empty")
	assert.Contains(t, header, "codesweep", "Compact header should contain the application name")
}

// TestRenderStatus tests status line rendering
func TestRenderStatus(t *testing.T) {
	model, _ := newWatchModel()

	// Starting state shows the spinner and default text
	status := model.renderStatus()
	assert.NotEmpty(t, status, "Status should not be empty")
	assert.Contains(t, status, "Starting watcher")

	// Status messages take precedence over state text
	model.state = StateWatching
	model.statusMessage = "Last scan: 3 file(s), 0 issue(s)"
	status = model.renderStatus()
	assert.Contains(t, status, "Last scan: 3 file(s), 0 issue(s)")

	// Error messages take precedence over everything
	model.state = StateFailed
	model.errorMessage = "watcher closed"
	status = model.renderStatus()
	assert.Contains(t, status, "Error: watcher closed")
}

// TestRenderEvents tests the event viewport rendering
func TestRenderEvents(t *testing.T) {
	model, _ := newWatchModel()

	// Empty buffer shows the placeholder
	events := model.renderEvents()
	assert.Contains(t, events, "Waiting for file changes...")

	// Populated buffer shows event lines
	model.config.ShowTimestamps = false
	model.addOutputLine("app.py changed")
	events = model.renderEvents()
	assert.Contains(t, events, "app.py changed")
}

// TestRenderSummary tests the summary panel rendering
func TestRenderSummary(t *testing.T) {
	model, _ := newWatchModel()

	// No scans yet
	summary := model.renderSummary()
	assert.Contains(t, summary, "No scans yet")
	assert.Contains(t, summary, "Session")

	// With a finished batch
	model.scanCount = 2
	model.issueCount = 3
	model.lastBatch = newBatch(
		newSeverityIssue(analysis.SeverityCritical),
		newSeverityIssue(analysis.SeverityLow),
	)

	summary = model.renderSummary()
	assert.Contains(t, summary, "critical")
	assert.Contains(t, summary, "low")
	assert.Contains(t, summary, "Scans:  2")
	assert.Contains(t, summary, "Issues: 3")
}

// TestRenderFooter tests footer rendering
func TestRenderFooter(t *testing.T) {
	model, _ := newWatchModel()

	footer := model.renderFooter()
	assert.NotEmpty(t, footer, "Footer should not be empty")
	assert.Contains(t, footer, "Q: Quit")
	assert.Contains(t, footer, "Tab: Focus")
}

// TestRenderCompactFooter tests compact footer rendering
func TestRenderCompactFooter(t *testing.T) {
	model, _ := newWatchModel()

	footer := model.renderCompactFooter()
	assert.NotEmpty(t, footer, "Compact footer should not be empty")
	assert.Contains(t, footer, "Q: Quit")
}

// TestGetStatusText tests status text resolution
func TestGetStatusText(t *testing.T) {
	model, _ := newWatchModel()

	// State-derived text
	tests := []struct {
		state    WatchState
		expected string
	}{
		{StateStarting, "Starting watcher..."},
		{StateWatching, "Watching for changes"},
		{StateFailed, "Failed"},
		{StateShuttingDown, "Shutting down..."},
	}

	for _, tt := range tests {
		model.state = tt.state
		assert.Equal(t, tt.expected, model.getStatusText())
	}

	// Status message takes precedence over state text
	model.statusMessage = "scanning"
	assert.Equal(t, "scanning", model.getStatusText())

	// Error message takes precedence over status message
	model.errorMessage = errors.New("boom").Error()
	assert.Equal(t, "Error: boom", model.getStatusText())
}

// TestFormatDuration tests duration formatting
func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{500 * time.Millisecond, "500ms"},
		{2500 * time.Millisecond, "2.5s"},
		{90 * time.Second, "1.5m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatDuration(tt.duration))
	}
}

// TestTruncateText tests text truncation
func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected string
	}{
		{"short text unchanged", "hello", 10, "hello"},
		{"long text truncated", "a very long project path", 10, "a very ..."},
		{"tiny width", "hello", 2, "he"},
		{"exact width", "hello", 5, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncateText(tt.text, tt.width))
		})
	}
}
