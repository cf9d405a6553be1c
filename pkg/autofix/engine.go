package autofix

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/errors"
	"github.com/codesweep/codesweep/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultBackupDir     = ".codesweep/backups"
	defaultCheckpointDir = ".codesweep/checkpoints"
	defaultAppliedBy     = "codesweep"
)

// EngineConfig controls how the fix engine selects and applies fixes
type EngineConfig struct {
	// SafetyLevel sets the minimum confidence a fix needs to be accepted
	SafetyLevel SafetyLevel `json:"safety_level"`

	// BackupDir is where pre-fix file copies are written
	BackupDir string `json:"backup_dir"`

	// CheckpointDir is where multi-file snapshots are persisted
	CheckpointDir string `json:"checkpoint_dir"`

	// AppliedBy is recorded on every fix record for auditing
	AppliedBy string `json:"applied_by"`
}

// DefaultEngineConfig returns a conservative configuration: only fixes with
// confidence 0.9 or higher are applied automatically.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SafetyLevel:   SafetyConservative,
		BackupDir:     defaultBackupDir,
		CheckpointDir: defaultCheckpointDir,
		AppliedBy:     defaultAppliedBy,
	}
}

// Engine matches issues to registered fixers, applies accepted fixes to a
// working copy of the file content, and validates every mutation before it
// is kept. Fixers are consulted in registration order and the first one that
// can handle an issue wins.
type Engine struct {
	config  EngineConfig
	fixers  []Fixer
	history *HistoryStore
	logger  *logger.Logger

	mu          sync.Mutex
	checkpoints map[string]*Checkpoint
}

// NewEngine creates a fix engine with the given configuration
func NewEngine(config EngineConfig) *Engine {
	if config.BackupDir == "" {
		config.BackupDir = defaultBackupDir
	}
	if config.CheckpointDir == "" {
		config.CheckpointDir = defaultCheckpointDir
	}
	if config.AppliedBy == "" {
		config.AppliedBy = defaultAppliedBy
	}

	return &Engine{
		config:      config,
		checkpoints: make(map[string]*Checkpoint),
		logger:      logger.GetLogger().WithPrefix("autofix"),
	}
}

// WithHistory attaches a persistent store that records every apply attempt
func (e *Engine) WithHistory(store *HistoryStore) *Engine {
	e.history = store
	return e
}

// SafetyLevel returns the engine's configured safety level
func (e *Engine) SafetyLevel() SafetyLevel {
	return e.config.SafetyLevel
}

// RegisterFixer appends a fixer to the registry. Registration order matters:
// earlier fixers take precedence when several can fix the same issue.
func (e *Engine) RegisterFixer(fixer Fixer) {
	e.fixers = append(e.fixers, fixer)
}

// RegisterDefaultFixers registers the built-in fixers. Rule-specific fixers
// are registered before the formatter wrappers so they win over the general
// style tools for the issues they target.
func (e *Engine) RegisterDefaultFixers(localImportPrefixes []string) {
	e.RegisterFixer(NewTrailingWhitespaceFixer())
	e.RegisterFixer(NewBlankLineFixer(0))
	e.RegisterFixer(NewPythonImportFixer(localImportPrefixes))
	for _, tool := range DefaultToolConfigs() {
		e.RegisterFixer(NewFormatterFixer(tool))
	}
}

// FixerNames lists the registered fixers in consultation order
func (e *Engine) FixerNames() []string {
	names := make([]string, 0, len(e.fixers))
	for _, fixer := range e.fixers {
		names = append(names, fixer.Name())
	}
	return names
}

// AnalyzeFixableIssues asks the registered fixers which of the given issues
// they can repair. Each issue is offered to fixers in registration order and
// the first capable fixer produces the fix plan. Plans below the safety
// level's confidence threshold are marked skipped rather than dropped so
// callers can report why a fix was withheld.
func (e *Engine) AnalyzeFixableIssues(issues []*analysis.Issue, actx *analysis.Context) []*FixableIssue {
	minConfidence := e.config.SafetyLevel.MinConfidence()
	fixables := make([]*FixableIssue, 0, len(issues))

	for _, issue := range issues {
		fixer := e.fixerFor(issue, actx.Language)
		if fixer == nil {
			continue
		}

		fixable, err := fixer.Analyze(issue, actx)
		if err != nil {
			e.logger.Debug("Fixer %s declined issue %s: %v", fixer.Name(), issue.Category, err)
			continue
		}
		if fixable == nil {
			continue
		}

		fixable.Status = StatusAnalyzed
		if fixable.Confidence >= minConfidence {
			fixable.Status = StatusAccepted
		} else {
			fixable.Status = StatusSkipped
			e.logger.Debug("Fix for %s skipped: confidence %.2f below %s threshold %.2f",
				issue.Category, fixable.Confidence, e.config.SafetyLevel, minConfidence)
		}
		fixables = append(fixables, fixable)
	}

	return fixables
}

// fixerFor returns the first registered fixer that supports the context
// language and claims the issue, or nil when none does
func (e *Engine) fixerFor(issue *analysis.Issue, language string) Fixer {
	for _, fixer := range e.fixers {
		if fixer.SupportsLanguage(language) && fixer.CanFix(issue) {
			return fixer
		}
	}
	return nil
}

// ApplyFixes applies the accepted fixes sequentially to an in-memory working
// copy of the file content. The original file content is backed up durably
// before the first mutating fix; a backup failure aborts the remaining fixes
// for the file. Each applied fix is validated before the working copy is
// advanced, so a fix that fails validation leaves the content untouched.
// The caller is responsible for writing FinalContent back to disk.
func (e *Engine) ApplyFixes(fixables []*FixableIssue, actx *analysis.Context, backupEnabled bool) (*ApplyResult, error) {
	result := &ApplyResult{
		FilePath:     actx.FilePath,
		FinalContent: actx.FileContent,
	}
	working := actx.FileContent

	for _, fixable := range fixables {
		if fixable.Status != StatusAccepted {
			result.Skipped++
			continue
		}

		result.Attempted++

		fixer := e.fixerByName(fixable.FixerName)
		if fixer == nil {
			result.Failed++
			result.Records = append(result.Records,
				e.recordAttempt(fixable, false, result.BackupPath, fmt.Sprintf("no registered fixer named %q", fixable.FixerName)))
			continue
		}

		if backupEnabled && fixable.RequiresBackup && result.BackupPath == "" {
			backupPath, err := e.writeBackup(actx.FilePath, actx.FileContent)
			if err != nil {
				result.Failed++
				result.Records = append(result.Records, e.recordAttempt(fixable, false, "", err.Error()))
				result.FinalContent = working
				result.Success = false
				return result, errors.NewError(errors.ErrorTypeFix).
					WithMessagef("backup failed for %s, aborting remaining fixes", actx.FilePath).
					WithCause(err).
					WithSuggestion("Check that the backup directory is writable").
					Build()
			}
			result.BackupPath = backupPath
			e.logger.Debug("Backed up %s to %s", actx.FilePath, backupPath)
		}

		candidate, err := fixer.Apply(fixable, working)
		if err != nil {
			result.Failed++
			result.Records = append(result.Records, e.recordAttempt(fixable, false, result.BackupPath, err.Error()))
			e.logger.Warn("Fix %s failed on %s: %v", fixable.FixType, actx.FilePath, err)
			continue
		}

		fixable.OriginalContent = working
		fixable.FixedContent = candidate
		fixable.Status = StatusApplied

		validation := e.ValidateFixSafety(fixable, actx)
		if !validation.IsSafe {
			fixable.Status = StatusRolledBack
			result.Failed++
			reason := "validation rejected fix"
			if len(validation.Reasons) > 0 {
				reason = fmt.Sprintf("validation rejected fix: %s", strings.Join(validation.Reasons, "; "))
			}
			result.Records = append(result.Records, e.recordAttempt(fixable, false, result.BackupPath, reason))
			e.logger.Warn("Fix %s on %s discarded: %s", fixable.FixType, actx.FilePath, reason)
			continue
		}

		fixable.Status = StatusValidated
		working = candidate
		result.Applied++
		result.Records = append(result.Records, e.recordAttempt(fixable, true, result.BackupPath, ""))
	}

	result.FinalContent = working
	result.Success = result.Failed == 0
	return result, nil
}

// FixFile loads the file, analyzes which issues can be fixed, applies the
// accepted fixes, and rewrites the file when at least one fix survived
// validation. Committed fixes resolve their underlying issues.
func (e *Engine) FixFile(projectID, projectRoot, filePath string, issues []*analysis.Issue, backupEnabled bool) (*ApplyResult, error) {
	actx, err := analysis.LoadContext(projectID, projectRoot, filePath)
	if err != nil {
		return nil, err
	}

	fixables := e.AnalyzeFixableIssues(issues, actx)
	result, err := e.ApplyFixes(fixables, actx, backupEnabled)
	if err != nil {
		return result, err
	}

	if result.Applied == 0 || result.FinalContent == actx.FileContent {
		return result, nil
	}

	target := resolvePath(projectRoot, filePath)
	if err := os.WriteFile(target, []byte(result.FinalContent), fileModeOr(target, 0600)); err != nil {
		return result, errors.FileSystemError(target, err)
	}

	for _, fixable := range fixables {
		if fixable.Status == StatusValidated {
			fixable.Status = StatusCommitted
			fixable.Issue.Resolve(e.config.AppliedBy)
		}
	}

	e.logger.Info("Applied %d fixes to %s (%d failed, %d skipped)",
		result.Applied, actx.FilePath, result.Failed, result.Skipped)
	return result, nil
}

// fixerByName returns the registered fixer with the given name, or nil
func (e *Engine) fixerByName(name string) Fixer {
	for _, fixer := range e.fixers {
		if fixer.Name() == name {
			return fixer
		}
	}
	return nil
}

// recordAttempt builds a fix record for one apply attempt and appends it to
// the history store when one is attached. History write failures are logged
// rather than propagated: losing an audit row must not fail the fix itself.
func (e *Engine) recordAttempt(fixable *FixableIssue, success bool, backupPath, errorMessage string) *FixRecord {
	record := NewRecord(fixable, e.config.AppliedBy)
	record.Success = success
	record.BackupPath = backupPath
	record.ErrorMessage = errorMessage

	if e.history != nil {
		if err := e.history.Append(record); err != nil {
			e.logger.Warn("Failed to record fix history for %s: %v", record.FilePath, err)
		}
	}
	return record
}

// writeBackup durably copies the original file content to the backup
// directory before any fix mutates it. The copy is synced to disk so the
// backup survives a crash between backup and rewrite.
func (e *Engine) writeBackup(filePath, content string) (string, error) {
	if err := os.MkdirAll(e.config.BackupDir, 0750); err != nil {
		return "", errors.FileSystemError(e.config.BackupDir, err)
	}

	name := fmt.Sprintf("%s.%s.bak", filepath.Base(filePath), uuid.New().String())
	backupPath := filepath.Join(e.config.BackupDir, name)

	file, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", errors.FileSystemError(backupPath, err)
	}
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return "", errors.FileSystemError(backupPath, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return "", errors.FileSystemError(backupPath, err)
	}
	if err := file.Close(); err != nil {
		return "", errors.FileSystemError(backupPath, err)
	}

	return backupPath, nil
}

// resolvePath joins a relative file path onto the project root
func resolvePath(projectRoot, filePath string) string {
	if filepath.IsAbs(filePath) || projectRoot == "" {
		return filePath
	}
	return filepath.Join(projectRoot, filePath)
}

// fileModeOr returns the file's current permission bits, or the fallback
// when the file cannot be statted
func fileModeOr(path string, fallback os.FileMode) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return fallback
}
