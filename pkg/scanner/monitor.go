package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/errors"
	"github.com/codesweep/codesweep/pkg/logger"
)

// defaultBatchWindow coalesces rapid editor saves into one re-scan
const defaultBatchWindow = 500 * time.Millisecond

// batchBufferSize bounds the batch channel; batches beyond it are dropped
// rather than blocking the watch loop
const batchBufferSize = 16

// MonitorConfig controls continuous watch mode
type MonitorConfig struct {
	ProjectPath    string
	ProjectID      string
	Extensions     []string // file extensions to watch, e.g. ".go"; empty watches the default patterns
	IgnorePatterns []string
	BatchWindow    time.Duration
	Notify         bool
}

// DefaultMonitorConfig returns a watch configuration with the standard
// batch window and exclusion patterns
func DefaultMonitorConfig(projectPath string) MonitorConfig {
	return MonitorConfig{
		ProjectPath:    projectPath,
		IgnorePatterns: DefaultExcludedPatterns,
		BatchWindow:    defaultBatchWindow,
	}
}

// BatchResult groups the findings of one debounced re-scan
type BatchResult struct {
	Files     []string          `json:"files"`
	Issues    []*analysis.Issue `json:"issues"`
	Errors    []string          `json:"errors,omitempty"`
	ScannedAt time.Time         `json:"scanned_at"`
	Duration  time.Duration     `json:"duration"`
}

// Monitor watches a project tree and re-scans files as they change.
// Rapid changes within the batch window are coalesced into one scan.
type Monitor struct {
	framework *Framework
	config    MonitorConfig
	matcher   *ignore.GitIgnore
	notifier  Notifier
	logger    *logger.Logger

	mu      sync.Mutex // guards watcher lifecycle
	watcher *fsnotify.Watcher

	// pending and batches are owned by the watch loop goroutine
	pending map[string]struct{}
	batches chan *BatchResult
}

// NewMonitor creates a file monitor backed by the given scanning framework
func NewMonitor(framework *Framework, config MonitorConfig) *Monitor {
	if config.BatchWindow <= 0 {
		config.BatchWindow = defaultBatchWindow
	}
	if config.ProjectID == "" {
		config.ProjectID = filepath.Base(config.ProjectPath)
	}
	patterns := config.IgnorePatterns
	if len(patterns) == 0 {
		patterns = DefaultExcludedPatterns
	}
	return &Monitor{
		framework: framework,
		config:    config,
		matcher:   ignore.CompileIgnoreLines(patterns...),
		notifier:  &DesktopNotifier{},
		logger:    logger.GetLogger().WithPrefix("monitor"),
		pending:   make(map[string]struct{}),
		batches:   make(chan *BatchResult, batchBufferSize),
	}
}

// SetNotifier replaces the desktop notifier, primarily for tests
func (m *Monitor) SetNotifier(notifier Notifier) {
	m.notifier = notifier
}

// Batches returns the channel batched scan results are delivered on
func (m *Monitor) Batches() <-chan *BatchResult {
	return m.batches
}

// Start begins watching the project tree. It returns once the watcher is
// registered; events are processed on a background goroutine until Stop is
// called or the context is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		return errors.ValidationError("monitor is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.NewError(errors.ErrorTypeFileSystem).
			WithMessage("failed to create file watcher").
			WithCause(err).
			Build()
	}

	if err := m.watchTree(watcher, m.config.ProjectPath); err != nil {
		_ = watcher.Close() //nolint:errcheck // already failing
		return err
	}

	m.watcher = watcher
	go m.watchLoop(ctx, watcher)

	m.logger.Info("watching %s (batch window %s)", m.config.ProjectPath, m.config.BatchWindow)
	return nil
}

// Stop shuts the watcher down and closes the batch channel
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher == nil {
		return nil
	}
	err := m.watcher.Close()
	m.watcher = nil
	return err
}

// watchTree registers root and every non-ignored subdirectory. Ignore
// patterns are always applied relative to the project path so a freshly
// created node_modules never joins the watch.
func (m *Monitor) watchTree(watcher *fsnotify.Watcher, root string) error {
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil //nolint:nilerr // unreadable entries are skipped, not fatal
		}
		relPath, relErr := filepath.Rel(m.config.ProjectPath, path)
		if relErr != nil {
			return nil
		}
		if relPath != "." && m.matcher.MatchesPath(filepath.ToSlash(relPath)+"/") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		return errors.NewError(errors.ErrorTypeFileSystem).
			WithMessage("failed to watch project tree").
			WithCause(err).
			WithContext("path", root).
			Build()
	}
	return nil
}

// watchLoop consumes watcher events, debouncing rapid changes into batches.
// Flushing happens on this goroutine so the batch channel is closed exactly
// once after the last send.
func (m *Monitor) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	var flushCh <-chan time.Time
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		close(m.batches)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write != fsnotify.Write && event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				// New directories join the watch so nested changes are seen
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := m.watchTree(watcher, event.Name); err != nil {
						m.logger.Warn("cannot watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}
			if !m.watchable(event.Name) {
				continue
			}

			m.pending[event.Name] = struct{}{}

			// Debounce rapid changes
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(m.config.BatchWindow)
			flushCh = debounceTimer.C

		case <-flushCh:
			flushCh = nil
			m.flush(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("watcher error: %v", err)
		}
	}
}

// watchable reports whether a changed path should trigger a re-scan
func (m *Monitor) watchable(path string) bool {
	relPath, err := filepath.Rel(m.config.ProjectPath, path)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	if m.matcher.MatchesPath(relPath) {
		return false
	}
	if len(m.config.Extensions) > 0 {
		ext := filepath.Ext(path)
		for _, allowed := range m.config.Extensions {
			if ext == allowed {
				return true
			}
		}
		return false
	}
	return matchesAny(DefaultFilePatterns, filepath.Base(path))
}

// flush scans every pending file and delivers one batch result. It runs on
// the watch loop goroutine, so pending needs no locking here.
func (m *Monitor) flush(ctx context.Context) {
	if len(m.pending) == 0 {
		return
	}
	paths := make([]string, 0, len(m.pending))
	for path := range m.pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	m.pending = make(map[string]struct{})

	started := time.Now()
	batch := &BatchResult{ScannedAt: started}

	for _, path := range paths {
		relPath, err := filepath.Rel(m.config.ProjectPath, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		actx, err := analysis.LoadContext(m.config.ProjectID, m.config.ProjectPath, relPath)
		if err != nil {
			m.logger.Warn("cannot re-scan %s: %v", relPath, err)
			batch.Errors = append(batch.Errors, err.Error())
			continue
		}

		merged := m.framework.Pipeline().RunMerged(ctx, actx)
		batch.Files = append(batch.Files, relPath)
		if merged.Success {
			batch.Issues = append(batch.Issues, merged.Issues...)
		} else if merged.ErrorMessage != "" {
			batch.Errors = append(batch.Errors, merged.ErrorMessage)
		}
	}
	batch.Duration = time.Since(started)

	if m.config.Notify && m.notifier != nil {
		critical := 0
		for _, issue := range batch.Issues {
			if issue.Severity == analysis.SeverityCritical {
				critical++
			}
		}
		if critical > 0 {
			message := fmt.Sprintf("%d critical issues in %d changed files", critical, len(batch.Files))
			if err := m.notifier.Notify("codesweep", message); err != nil {
				m.logger.Debug("notification failed: %v", err)
			}
		}
	}

	select {
	case m.batches <- batch:
	default:
		m.logger.Warn("dropping batch result: consumer is not keeping up")
	}
}
