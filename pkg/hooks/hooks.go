// Package hooks runs quality checks on changed files from Git hooks. A
// manager discovers staged or outgoing files, scans the ones the hook
// configuration selects, evaluates a quality gate and maps the verdict to a
// review status that decides whether the commit or push proceeds.
package hooks

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/errors"
	"github.com/codesweep/codesweep/pkg/gate"
	"github.com/codesweep/codesweep/pkg/git"
	"github.com/codesweep/codesweep/pkg/logger"
	"github.com/codesweep/codesweep/pkg/scanner"
	"github.com/codesweep/codesweep/pkg/testquality"
)

// ReviewStatus is the outcome a hook reports back to Git
type ReviewStatus int

const (
	// Passed means the change met the gate with nothing outstanding
	Passed ReviewStatus = iota
	// Warning means the gate conditionally passed; auto-fixes are available
	Warning
	// Blocked means the gate failed and the change must be fixed by hand
	Blocked
)

// String returns the lowercase name of the status
func (s ReviewStatus) String() string {
	switch s {
	case Passed:
		return "passed"
	case Warning:
		return "warning"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// DefaultExtensions lists the source file extensions hooks check when the
// configuration does not restrict them
var DefaultExtensions = []string{
	".go", ".py", ".js", ".jsx", ".ts", ".tsx",
	".java", ".rb", ".rs", ".c", ".h", ".cpp", ".cs", ".php", ".sh",
}

// Config controls which changed files hooks check and which gates the
// installed hook scripts evaluate
type Config struct {
	ProjectPath    string   `json:"project_path"`
	Extensions     []string `json:"extensions"`
	IgnorePatterns []string `json:"ignore_patterns"`
	PreCommitGate  string   `json:"pre_commit_gate"`
	PrePushGate    string   `json:"pre_push_gate"`
	CoverageFile   string   `json:"coverage_file,omitempty"`
}

// DefaultConfig returns a hook configuration covering the default source
// extensions, with the standard gate on commit and the strict gate on push
func DefaultConfig(projectPath string) Config {
	return Config{
		ProjectPath:    projectPath,
		Extensions:     DefaultExtensions,
		IgnorePatterns: scanner.DefaultExcludedPatterns,
		PreCommitGate:  gate.GateStandard,
		PrePushGate:    gate.GateStrict,
	}
}

// PreCommitResult reports one hook run: the files checked, the gate
// evaluation, the mapped review status and the issues that must be fixed by
// hand before the change can proceed.
type PreCommitResult struct {
	Hook         string              `json:"hook"`
	GateName     string              `json:"gate_name"`
	Status       ReviewStatus        `json:"status"`
	Evaluation   *gate.Evaluation    `json:"evaluation"`
	Scan         *scanner.ScanResult `json:"scan"`
	FilesChecked []string            `json:"files_checked"`
	Blockers     []*analysis.Issue   `json:"blockers,omitempty"`
	Duration     time.Duration       `json:"duration"`
}

// Manager wires changed-file discovery, scanning and gate evaluation into
// the checks Git hooks run
type Manager struct {
	config     Config
	repo       *git.Repository
	framework  *scanner.Framework
	evaluator  *gate.Evaluator
	extensions map[string]bool
	matcher    *ignore.GitIgnore
	logger     *logger.Logger
}

// NewManager opens the repository at the configured project path and wires
// the scanning framework and gate evaluator hook runs use. A nil evaluator
// gets the built-in gates.
func NewManager(config Config, framework *scanner.Framework, evaluator *gate.Evaluator) (*Manager, error) {
	if config.ProjectPath == "" {
		return nil, errors.ValidationError("hook config has no project path")
	}
	if framework == nil {
		return nil, errors.ValidationError("hook manager requires a scanning framework")
	}
	if evaluator == nil {
		evaluator = gate.NewEvaluator()
	}
	if config.PreCommitGate == "" {
		config.PreCommitGate = gate.GateStandard
	}
	if config.PrePushGate == "" {
		config.PrePushGate = gate.GateStrict
	}
	if len(config.Extensions) == 0 {
		config.Extensions = DefaultExtensions
	}
	if len(config.IgnorePatterns) == 0 {
		config.IgnorePatterns = scanner.DefaultExcludedPatterns
	}

	repo, err := git.Open(config.ProjectPath)
	if err != nil {
		return nil, err
	}

	extensions := make(map[string]bool, len(config.Extensions))
	for _, ext := range config.Extensions {
		extensions[strings.ToLower(ext)] = true
	}

	return &Manager{
		config:     config,
		repo:       repo,
		framework:  framework,
		evaluator:  evaluator,
		extensions: extensions,
		matcher:    ignore.CompileIgnoreLines(config.IgnorePatterns...),
		logger:     logger.GetLogger().WithPrefix("hooks"),
	}, nil
}

// Repository exposes the repository the manager operates on
func (m *Manager) Repository() *git.Repository {
	return m.repo
}

// StagedChanges returns the staged files that pass the hook's extension and
// ignore filters, relative to the repository root
func (m *Manager) StagedChanges() ([]string, error) {
	staged, err := m.repo.StagedFiles()
	if err != nil {
		return nil, err
	}
	return m.filterFiles(staged), nil
}

// ChangesSince returns the files that differ between the given revision and
// HEAD and pass the hook's filters
func (m *Manager) ChangesSince(base string) ([]string, error) {
	changed, err := m.repo.ChangedFilesSince(base)
	if err != nil {
		return nil, err
	}
	return m.filterFiles(changed), nil
}

// RunPreCommitChecks scans the staged files and evaluates them against the
// named gate, defaulting to the configured pre-commit gate
func (m *Manager) RunPreCommitChecks(ctx context.Context, gateName string) (*PreCommitResult, error) {
	if gateName == "" {
		gateName = m.config.PreCommitGate
	}
	started := time.Now()

	staged, err := m.repo.StagedFiles()
	if err != nil {
		return nil, err
	}
	files := m.filterFiles(staged)
	m.logger.Info("pre-commit: %d of %d staged files selected", len(files), len(staged))

	return m.runChecks(ctx, "pre-commit", gateName, files, started)
}

// RunPrePushChecks scans the files changed since the repository's default
// branch and evaluates them against the named gate, defaulting to the
// configured pre-push gate. On the default branch itself the diff is empty
// and the check passes; every commit there already ran the pre-commit gate.
func (m *Manager) RunPrePushChecks(ctx context.Context, gateName string) (*PreCommitResult, error) {
	if gateName == "" {
		gateName = m.config.PrePushGate
	}
	started := time.Now()

	base := m.repo.DefaultBranch()
	changed, err := m.repo.ChangedFilesSince(base)
	if err != nil {
		return nil, err
	}
	files := m.filterFiles(changed)
	m.logger.Info("pre-push: %d of %d files changed since %s selected", len(files), len(changed), base)

	return m.runChecks(ctx, "pre-push", gateName, files, started)
}

// runChecks scans the selected files, evaluates the gate and maps the
// verdict onto a review status
func (m *Manager) runChecks(ctx context.Context, hookName, gateName string, files []string, started time.Time) (*PreCommitResult, error) {
	scanConfig := scanner.ScanConfig{
		ProjectPath: m.repo.Root(),
		ProjectID:   filepath.Base(m.repo.Root()),
	}
	scan, err := m.framework.ScanFiles(ctx, scanConfig, files)
	if err != nil {
		return nil, err
	}

	evaluation := m.evaluator.Evaluate(gateName, scan, m.loadCoverage())

	result := &PreCommitResult{
		Hook:         hookName,
		GateName:     gateName,
		Status:       statusFor(evaluation.Result),
		Evaluation:   evaluation,
		Scan:         scan,
		FilesChecked: files,
		Duration:     time.Since(started),
	}
	if result.Status == Blocked {
		result.Blockers = blockingIssues(scan)
	}

	m.logger.Info("%s checks against %s gate: %s (%d issues in %d files)",
		hookName, gateName, result.Status, scan.TotalIssues, len(files))
	return result, nil
}

// loadCoverage reads the configured coverage file. A missing or unreadable
// file degrades to no coverage criterion instead of blocking the change.
func (m *Manager) loadCoverage() *testquality.CoverageData {
	if m.config.CoverageFile == "" {
		return nil
	}
	path := m.config.CoverageFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.repo.Root(), path)
	}
	coverage, err := testquality.LoadCoverageFile(path)
	if err != nil {
		m.logger.Warn("coverage file %s not usable: %v", path, err)
		return nil
	}
	return coverage
}

// filterFiles keeps the paths matching the extension allowlist and not
// matching any ignore pattern
func (m *Manager) filterFiles(paths []string) []string {
	var selected []string
	for _, path := range paths {
		if len(m.extensions) > 0 && !m.extensions[strings.ToLower(filepath.Ext(path))] {
			continue
		}
		if m.matcher != nil && m.matcher.MatchesPath(path) {
			continue
		}
		selected = append(selected, path)
	}
	return selected
}

// statusFor maps a gate verdict onto the review status hooks report
func statusFor(result gate.Result) ReviewStatus {
	switch result {
	case gate.Fail:
		return Blocked
	case gate.ConditionalPass:
		return Warning
	default:
		return Passed
	}
}

// blockingIssues returns the findings a developer must address by hand:
// non-auto-fixable issues at high or critical severity, plus every
// non-auto-fixable security issue regardless of severity
func blockingIssues(scan *scanner.ScanResult) []*analysis.Issue {
	var blockers []*analysis.Issue
	for _, issue := range scan.Issues {
		if issue.AutoFixable {
			continue
		}
		if issue.Severity >= analysis.SeverityHigh || issue.Type == analysis.IssueTypeSecurity {
			blockers = append(blockers, issue)
		}
	}
	return blockers
}
