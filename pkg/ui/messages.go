// Package ui provides the terminal user interface for codesweep watch mode
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codesweep/codesweep/pkg/scanner"
)

// Watch Messages

// WatchStartedMsg is sent when the file monitor begins watching a project
type WatchStartedMsg struct {
	Path string
}

// BatchScannedMsg is sent when a debounced re-scan of changed files finishes
type BatchScannedMsg struct {
	Batch *scanner.BatchResult
}

// ScanErrorMsg is sent when a scan fails. Fatal errors end the session;
// everything else is logged and watching continues.
type ScanErrorMsg struct {
	Error error
	Fatal bool
}

// MonitorStoppedMsg is sent when the file monitor shuts down
type MonitorStoppedMsg struct{}

// UptimeTickMsg refreshes the session clock once per second
type UptimeTickMsg time.Time

// Status Messages

// StatusUpdateMsg updates the status message
type StatusUpdateMsg struct {
	Message string
	Type    StatusType
}

// StatusType defines the type of status message
type StatusType int

const (
	StatusInfo StatusType = iota
	StatusSuccess
	StatusWarning
	StatusError
)

// Command Functions - these return tea.Cmd functions

// WatchStarted returns a command signalling that watching has begun
func WatchStarted(path string) tea.Cmd {
	return func() tea.Msg {
		return WatchStartedMsg{Path: path}
	}
}

// BatchScanned returns a command delivering one batch of scan findings
func BatchScanned(batch *scanner.BatchResult) tea.Cmd {
	return func() tea.Msg {
		return BatchScannedMsg{Batch: batch}
	}
}

// ScanError returns a command to report a scan failure
func ScanError(err error, fatal bool) tea.Cmd {
	return func() tea.Msg {
		return ScanErrorMsg{Error: err, Fatal: fatal}
	}
}

// MonitorStopped returns a command signalling that the monitor shut down
func MonitorStopped() tea.Cmd {
	return func() tea.Msg {
		return MonitorStoppedMsg{}
	}
}

// StatusUpdate returns a command to update the status line
func StatusUpdate(message string, statusType StatusType) tea.Cmd {
	return func() tea.Msg {
		return StatusUpdateMsg{Message: message, Type: statusType}
	}
}

// UptimeTick returns a command that emits an UptimeTickMsg after one second
func UptimeTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return UptimeTickMsg(t)
	})
}
