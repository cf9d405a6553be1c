package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/codesweep/codesweep/pkg/analysis"
)

// renderFullView renders the complete UI layout
func (m *Model) renderFullView() string {
	header := m.renderHeader()
	status := m.renderStatus()
	events := m.renderEvents()
	summary := m.renderSummary()
	footer := m.renderFooter()

	// Layout sections
	sections := []string{header, status}

	// Main content area - split between events and summary
	if m.windowWidth >= summarySideBySideWidth {
		// Wide layout: side-by-side
		mainContent := lipgloss.JoinHorizontal(
			lipgloss.Top,
			events,
			summary,
		)
		sections = append(sections, mainContent)
	} else {
		// Narrow layout: stacked
		sections = append(sections, events)
		sections = append(sections, summary)
	}

	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderCompactView renders a compact UI for smaller terminals
func (m *Model) renderCompactView() string {
	title := m.renderCompactHeader()
	status := m.renderStatus()
	events := m.renderEvents()
	footer := m.renderCompactFooter()

	sections := []string{title, status, events, footer}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the application header
func (m *Model) renderHeader() string {
	title := "codesweep - " + truncateText(m.projectPath, m.windowWidth-20)

	return m.theme.Styles.Title.Width(m.windowWidth).Render(title)
}

// renderCompactHeader renders a compact header
func (m *Model) renderCompactHeader() string {
	return m.theme.Styles.Title.Render("codesweep")
}

// renderStatus renders the spinner and status line
func (m *Model) renderStatus() string {
	status := m.getStatusText()

	statusStyle := m.theme.Styles.StatusInfo
	switch m.state {
	case StateFailed:
		statusStyle = m.theme.Styles.StatusError
	case StateShuttingDown:
		statusStyle = m.theme.Styles.StatusWarning
	}

	line := statusStyle.Render(status)

	// Spinner only animates while the watcher is alive
	if m.state == StateStarting || m.state == StateWatching {
		line = m.spinner.View() + " " + line
	}

	return line
}

// renderEvents renders the scan event viewport
func (m *Model) renderEvents() string {
	viewportStyle := m.theme.Styles.Output
	if m.focused == FocusEvents {
		viewportStyle = m.theme.Styles.PanelFocus
	}

	if len(m.outputBuffer) == 0 {
		return viewportStyle.Render(m.theme.Styles.StatusInfo.Render("Waiting for file changes..."))
	}

	return viewportStyle.Render(m.viewport.View())
}

// renderSummary renders the last scan breakdown and session statistics
func (m *Model) renderSummary() string {
	var lines []string
	lines = append(lines, m.theme.Styles.Bold.Render("Last scan"))

	if m.lastBatch == nil {
		lines = append(lines, m.theme.Styles.Muted.Render("No scans yet"))
	} else {
		counts := severityCounts(m.lastBatch.Issues)
		severities := []analysis.Severity{
			analysis.SeverityCritical,
			analysis.SeverityHigh,
			analysis.SeverityMedium,
			analysis.SeverityLow,
		}
		for _, severity := range severities {
			icon := lipgloss.NewStyle().
				Foreground(m.theme.GetSeverityColor(severity)).
				Render(GetSeverityIcon(severity))
			lines = append(lines, fmt.Sprintf("%s %-8s %d", icon, severity, counts[severity]))
		}
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%d file(s) in %s",
			len(m.lastBatch.Files), formatDuration(m.lastBatch.Duration)))
	}

	lines = append(lines, "")
	lines = append(lines, m.theme.Styles.Bold.Render("Session"))
	lines = append(lines, fmt.Sprintf("Scans:  %d", m.scanCount))
	lines = append(lines, fmt.Sprintf("Issues: %d", m.issueCount))
	lines = append(lines, fmt.Sprintf("Uptime: %s", formatDuration(time.Since(m.startedAt))))

	panelStyle := m.theme.Styles.Panel
	if m.focused == FocusSummary {
		panelStyle = m.theme.Styles.PanelFocus
	}

	return panelStyle.Width(summaryPanelWidth).Render(strings.Join(lines, "\n"))
}

// renderFooter renders the application footer with shortcuts
func (m *Model) renderFooter() string {
	shortcuts := []string{"Q: Quit", "Ctrl+S: Sound", "Tab: Focus"}

	footerText := strings.Join(shortcuts, " • ")
	return m.theme.Styles.Footer.Width(m.windowWidth).Render(footerText)
}

// renderCompactFooter renders a compact footer
func (m *Model) renderCompactFooter() string {
	return m.theme.Styles.Footer.Render("Q: Quit")
}

// getStatusText returns the current status text
func (m *Model) getStatusText() string {
	if m.errorMessage != "" {
		return "Error: " + m.errorMessage
	}

	if m.statusMessage != "" {
		return m.statusMessage
	}

	switch m.state {
	case StateStarting:
		return "Starting watcher..."
	case StateWatching:
		return "Watching for changes"
	case StateFailed:
		return "Failed"
	case StateShuttingDown:
		return "Shutting down..."
	default:
		return "Unknown"
	}
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}

// truncateText truncates text to fit within a given width
func truncateText(text string, width int) string {
	if len(text) <= width {
		return text
	}

	if width < 3 {
		return text[:width]
	}

	return text[:width-3] + "..."
}
