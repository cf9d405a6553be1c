package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/scanner"
)

// FocusState represents which component currently has focus
type FocusState int

const (
	FocusEvents FocusState = iota
	FocusSummary
)

// WatchState represents the current state of the watch session
type WatchState int

const (
	StateStarting WatchState = iota
	StateWatching
	StateFailed
	StateShuttingDown
)

// Layout constants for the summary panel
const (
	summaryPanelWidth      = 34
	summarySideBySideWidth = 100
)

// Model represents the watch mode application model following the Elm Architecture
type Model struct {
	// Core application state
	ctx         context.Context
	state       WatchState
	projectPath string
	scanCount   int
	issueCount  int
	lastBatch   *scanner.BatchResult
	startedAt   time.Time

	// UI components
	spinner  spinner.Model
	viewport viewport.Model

	// Layout and focus management
	focused      FocusState
	windowWidth  int
	windowHeight int

	// Theme and styling
	theme Theme

	// UI state
	outputBuffer  []string
	errorMessage  string
	statusMessage string

	// Configuration
	config UIConfig

	// Sound notifications
	soundNotifier *SoundNotifier

	// Synchronization for concurrent access
	mutex sync.RWMutex
}

// UIConfig holds UI configuration options
type UIConfig struct {
	ShowTimestamps bool
	VerboseOutput  bool
	ViewportBuffer int
	AutoScroll     bool
	CompactMode    bool
	SoundEnabled   bool
}

// NewModel creates a new watch model with default configuration
func NewModel(ctx context.Context, projectPath string) Model {
	// Default theme
	theme := NewDarkTheme()

	// Initialize spinner for the status line
	spinnerModel := spinner.New()
	spinnerModel.Spinner = spinner.Dot
	spinnerModel.Style = lipgloss.NewStyle().Foreground(theme.Primary)

	// Initialize viewport for scan events
	viewportModel := viewport.New(80, 20)
	viewportModel.MouseWheelEnabled = true

	// Default configuration
	config := UIConfig{
		ShowTimestamps: true,
		VerboseOutput:  false,
		ViewportBuffer: 10000,
		AutoScroll:     true,
		CompactMode:    false,
		SoundEnabled:   true,
	}

	// Initialize sound notifier
	soundConfig := DefaultSoundConfig()
	soundNotifier := NewSoundNotifier(soundConfig)

	return Model{
		ctx:           ctx,
		state:         StateStarting,
		projectPath:   projectPath,
		startedAt:     time.Now(),
		spinner:       spinnerModel,
		viewport:      viewportModel,
		focused:       FocusEvents,
		windowWidth:   80,
		windowHeight:  24,
		theme:         theme,
		outputBuffer:  []string{},
		config:        config,
		soundNotifier: soundNotifier,
	}
}

// Init implements tea.Model interface
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		UptimeTick(),
	)
}

// Update implements tea.Model interface - handles all messages and state updates
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSizeMsg(msg)

	case tea.KeyMsg:
		cmd := m.handleKeyPress(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}

	case WatchStartedMsg:
		m.handleWatchStartedMsg(msg)

	case BatchScannedMsg:
		m.handleBatchScannedMsg(msg)

	case ScanErrorMsg:
		m.handleScanErrorMsg(msg)

	case MonitorStoppedMsg:
		m.mutex.Lock()
		m.state = StateShuttingDown
		m.statusMessage = "Monitor stopped"
		m.mutex.Unlock()
		m.addOutputLine("Monitor stopped, shutting down")
		cmds = append(cmds, tea.Quit)

	case StatusUpdateMsg:
		m.statusMessage = msg.Message

	case UptimeTickMsg:
		// Keep the session clock running until shutdown
		if m.state != StateShuttingDown {
			cmds = append(cmds, UptimeTick())
		}
	}

	// Update child components
	cmds = append(cmds, m.updateChildComponents(msg)...)

	return m, tea.Batch(cmds...)
}

// handleWindowSizeMsg handles window size changes
func (m *Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) {
	m.windowWidth = msg.Width
	m.windowHeight = msg.Height
	*m = *m.updateLayout()
}

// handleWatchStartedMsg handles the transition into active watching
func (m *Model) handleWatchStartedMsg(msg WatchStartedMsg) {
	m.mutex.Lock()
	m.state = StateWatching
	if msg.Path != "" {
		m.projectPath = msg.Path
	}
	m.statusMessage = "Watching for changes"
	soundEnabled := m.config.SoundEnabled
	m.mutex.Unlock()
	m.addOutputLine("🔍 Watching " + m.projectPath)

	// Play watch started sound
	if soundEnabled && m.soundNotifier != nil {
		m.soundNotifier.PlayWatchStartedSound()
	}
}

// handleBatchScannedMsg handles a finished re-scan of changed files
func (m *Model) handleBatchScannedMsg(msg BatchScannedMsg) {
	batch := msg.Batch
	if batch == nil {
		return
	}

	m.mutex.Lock()
	m.scanCount++
	m.issueCount += len(batch.Issues)
	m.lastBatch = batch
	m.statusMessage = fmt.Sprintf("Last scan: %d file(s), %d issue(s)", len(batch.Files), len(batch.Issues))
	soundEnabled := m.config.SoundEnabled
	verbose := m.config.VerboseOutput
	m.mutex.Unlock()

	counts := severityCounts(batch.Issues)
	critical := counts[analysis.SeverityCritical]

	switch {
	case len(batch.Issues) == 0:
		m.addOutputLine(fmt.Sprintf("✅ %d file(s) clean (%s)", len(batch.Files), formatDuration(batch.Duration)))
	case critical > 0:
		m.addOutputLine(fmt.Sprintf("❌ %d issue(s) in %d file(s), %d critical (%s)",
			len(batch.Issues), len(batch.Files), critical, formatDuration(batch.Duration)))
	default:
		m.addOutputLine(fmt.Sprintf("⚠️ %d issue(s) in %d file(s) (%s)",
			len(batch.Issues), len(batch.Files), formatDuration(batch.Duration)))
	}

	if verbose {
		for _, issue := range batch.Issues {
			m.addOutputLine(fmt.Sprintf("  %s %s %s:%d %s",
				GetSeverityIcon(issue.Severity), issue.Severity, issue.FilePath, issue.LineNumber, issue.Description))
		}
	}

	// Scan errors are always surfaced, verbose or not
	for _, scanErr := range batch.Errors {
		m.addOutputLine("  ❌ " + scanErr)
	}

	if soundEnabled && m.soundNotifier != nil {
		switch {
		case critical > 0:
			m.soundNotifier.PlayCriticalAlertSound()
		case len(batch.Issues) == 0:
			m.soundNotifier.PlayCleanScanSound()
		default:
			m.soundNotifier.PlayIssuesFoundSound()
		}
	}
}

// handleScanErrorMsg handles scan failures
func (m *Model) handleScanErrorMsg(msg ScanErrorMsg) {
	if msg.Fatal {
		m.mutex.Lock()
		m.state = StateFailed
		m.errorMessage = msg.Error.Error()
		m.statusMessage = "Watch failed"
		m.mutex.Unlock()
		m.addOutputLine("❌ Watch failed: " + msg.Error.Error())
		return
	}

	m.addOutputLine("❌ Scan error: " + msg.Error.Error())
}

// updateChildComponents updates all child components and returns their commands
func (m *Model) updateChildComponents(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	// Update spinner component
	m.spinner, cmd = m.spinner.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	// Update viewport component
	m.viewport, cmd = m.viewport.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	return cmds
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	// Check for key-specific handlers
	handlers := map[string]func() tea.Cmd{
		"ctrl+c":    m.handleQuitKeys,
		"q":         m.handleQuitKeys,
		"tab":       m.handleTabKey,
		"shift+tab": m.handleTabKey,
		"ctrl+s":    m.handleSoundToggleKey,
	}

	if handler, exists := handlers[key]; exists {
		return handler()
	}

	return nil
}

// handleQuitKeys handles quit key combinations
func (m *Model) handleQuitKeys() tea.Cmd {
	m.mutex.Lock()
	m.state = StateShuttingDown
	m.mutex.Unlock()
	return tea.Quit
}

// handleTabKey handles tab key for focus navigation between the two panels
func (m *Model) handleTabKey() tea.Cmd {
	if m.focused == FocusEvents {
		m.focused = FocusSummary
	} else {
		m.focused = FocusEvents
	}
	return nil
}

// handleSoundToggleKey handles sound toggle key combination
func (m *Model) handleSoundToggleKey() tea.Cmd {
	m.config.SoundEnabled = !m.config.SoundEnabled
	if m.soundNotifier != nil {
		m.soundNotifier.SetEnabled(m.config.SoundEnabled)
	}

	if m.config.SoundEnabled {
		m.addOutputLine("🔊 Sound notifications enabled")
		if m.soundNotifier != nil {
			m.soundNotifier.PlayWatchStartedSound()
		}
	} else {
		m.addOutputLine("🔇 Sound notifications disabled")
	}
	return nil
}

// updateLayout adjusts component sizes based on window dimensions
func (m *Model) updateLayout() *Model {
	// Responsive layout calculations
	if m.windowWidth < 80 {
		m.config.CompactMode = true
	} else {
		m.config.CompactMode = false
	}

	headerHeight := 3 // Title and status line
	footerHeight := 1 // Shortcut hints

	availableHeight := m.windowHeight - headerHeight - footerHeight
	if availableHeight < 5 {
		availableHeight = 5
	}

	// Events viewport shares the row with the summary panel on wide windows
	eventsWidth := m.windowWidth - 4 // Account for borders
	if !m.config.CompactMode && m.windowWidth >= summarySideBySideWidth {
		eventsWidth = m.windowWidth - summaryPanelWidth - 6
	}
	if eventsWidth < 20 {
		eventsWidth = 20
	}

	m.viewport.Width = eventsWidth
	m.viewport.Height = availableHeight

	return m
}

// addOutputLine adds a new line to the output buffer and viewport
func (m *Model) addOutputLine(line string) {
	if m.config.ShowTimestamps {
		timestamp := time.Now().Format("15:04:05")
		line = "[" + timestamp + "] " + line
	}

	m.outputBuffer = append(m.outputBuffer, line)

	// Limit buffer size
	if len(m.outputBuffer) > m.config.ViewportBuffer {
		m.outputBuffer = m.outputBuffer[len(m.outputBuffer)-m.config.ViewportBuffer:]
	}

	// Update viewport content
	content := ""
	for _, outputLine := range m.outputBuffer {
		content += outputLine + "\n"
	}
	m.viewport.SetContent(content)

	// Auto-scroll to bottom if enabled
	if m.config.AutoScroll {
		m.viewport.GotoBottom()
	}
}

// severityCounts aggregates issue counts keyed by severity
func severityCounts(issues []*analysis.Issue) map[analysis.Severity]int {
	counts := make(map[analysis.Severity]int)
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	return counts
}

// View implements tea.Model interface - renders the entire UI
func (m *Model) View() string {
	if m.windowWidth == 0 || m.windowHeight == 0 {
		return "Initializing..."
	}

	if m.config.CompactMode {
		return m.renderCompactView()
	}
	return m.renderFullView()
}

// SetTheme switches the color theme
func (m *Model) SetTheme(theme Theme) {
	m.theme = theme
	m.spinner.Style = lipgloss.NewStyle().Foreground(theme.Primary)
}

// SetShowTimestamps toggles timestamp prefixes on event lines
func (m *Model) SetShowTimestamps(show bool) {
	m.config.ShowTimestamps = show
}

// SetVerboseOutput toggles per-issue event lines
func (m *Model) SetVerboseOutput(verbose bool) {
	m.config.VerboseOutput = verbose
}

// GetState returns the current watch state (thread-safe)
func (m *Model) GetState() WatchState {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.state
}

// IsWatching returns true if the monitor is actively watching (thread-safe)
func (m *Model) IsWatching() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.state == StateWatching
}

// GetScanCount returns the number of completed scan batches (thread-safe)
func (m *Model) GetScanCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.scanCount
}

// GetIssueCount returns the total number of issues seen this session (thread-safe)
func (m *Model) GetIssueCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.issueCount
}

// SetSoundEnabled enables or disables sound notifications (thread-safe)
func (m *Model) SetSoundEnabled(enabled bool) {
	m.mutex.Lock()
	m.config.SoundEnabled = enabled
	m.mutex.Unlock()
	if m.soundNotifier != nil {
		m.soundNotifier.SetEnabled(enabled)
	}
}

// IsSoundEnabled returns whether sound notifications are enabled (thread-safe)
func (m *Model) IsSoundEnabled() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.config.SoundEnabled
}
