package prreview

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codesweep/codesweep/pkg/autofix"
	"github.com/codesweep/codesweep/pkg/errors"
	"github.com/codesweep/codesweep/pkg/gate"
	"github.com/codesweep/codesweep/pkg/hooks"
	"github.com/codesweep/codesweep/pkg/logger"
	"github.com/codesweep/codesweep/pkg/scanner"
	"github.com/codesweep/codesweep/pkg/testquality"
)

// workflowDir and workflowFile locate the persisted workflow configuration
// under the project root
const (
	workflowDir  = ".codesweep"
	workflowFile = "workflow.json"
)

// WorkflowConfig records an installed automated review workflow
type WorkflowConfig struct {
	ProjectPath    string    `json:"project_path"`
	GateName       string    `json:"gate_name"`
	ApplyFixes     bool      `json:"apply_fixes"`
	InstalledHooks []string  `json:"installed_hooks"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// QualityCheckReport is the outcome of one full-project quality check
type QualityCheckReport struct {
	Scan         *scanner.ScanResult `json:"scan"`
	Evaluation   *gate.Evaluation    `json:"evaluation"`
	FixesApplied int                 `json:"fixes_applied"`
	FixedFiles   []string            `json:"fixed_files,omitempty"`
	Status       hooks.ReviewStatus  `json:"status"`
	Summary      string              `json:"summary"`
	Duration     time.Duration       `json:"duration"`
}

// WorkflowAutomation installs and runs the automated review workflow: Git
// hooks guarding commits and pushes, plus on-demand full-project checks
type WorkflowAutomation struct {
	config    Config
	hooks     *hooks.Manager
	framework *scanner.Framework
	evaluator *gate.Evaluator
	engine    *autofix.Engine
	logger    *logger.Logger
}

// NewWorkflowAutomation wires workflow automation over a hook manager and
// the scanning framework. A nil evaluator gets the built-in gates.
func NewWorkflowAutomation(config Config, manager *hooks.Manager, framework *scanner.Framework, evaluator *gate.Evaluator) (*WorkflowAutomation, error) {
	if config.ProjectPath == "" {
		return nil, errors.ValidationError("workflow config has no project path")
	}
	if manager == nil {
		return nil, errors.ValidationError("workflow automation requires a hook manager")
	}
	if framework == nil {
		return nil, errors.ValidationError("workflow automation requires a scanning framework")
	}
	if evaluator == nil {
		evaluator = gate.NewEvaluator()
	}
	if config.GateName == "" {
		config.GateName = gate.GateStandard
	}

	return &WorkflowAutomation{
		config:    config,
		hooks:     manager,
		framework: framework,
		evaluator: evaluator,
		logger:    logger.GetLogger().WithPrefix("workflow"),
	}, nil
}

// WithAutoFix attaches the engine full quality checks use to apply safe fixes
func (w *WorkflowAutomation) WithAutoFix(engine *autofix.Engine) *WorkflowAutomation {
	w.engine = engine
	return w
}

// SetupAutomatedWorkflow installs the Git hooks and persists the workflow
// configuration under the project root. Re-running refreshes the hooks and
// keeps the original installation time.
func (w *WorkflowAutomation) SetupAutomatedWorkflow() (*WorkflowConfig, error) {
	installed, err := w.hooks.InstallHooks()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	config := &WorkflowConfig{
		ProjectPath:    w.config.ProjectPath,
		GateName:       w.config.GateName,
		ApplyFixes:     w.config.ApplyFixes,
		InstalledHooks: installed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if existing, loadErr := w.LoadWorkflowConfig(); loadErr == nil && existing != nil {
		config.CreatedAt = existing.CreatedAt
	}

	if err := w.saveWorkflowConfig(config); err != nil {
		return nil, err
	}

	w.logger.Info("automated workflow configured: %d hooks installed, gate %s", len(installed), config.GateName)
	return config, nil
}

// RemoveAutomatedWorkflow uninstalls the managed Git hooks and deletes the
// persisted workflow configuration
func (w *WorkflowAutomation) RemoveAutomatedWorkflow() error {
	removed, err := w.hooks.UninstallHooks()
	if err != nil {
		return err
	}

	if err := os.Remove(w.workflowConfigPath()); err != nil && !os.IsNotExist(err) {
		return errors.FileSystemError(w.workflowConfigPath(), err)
	}

	w.logger.Info("automated workflow removed: %d hooks uninstalled", len(removed))
	return nil
}

// RunFullQualityCheck scans the whole project, evaluates the configured
// gate, applies safe fixes when enabled, and summarizes the outcome
func (w *WorkflowAutomation) RunFullQualityCheck(ctx context.Context) (*QualityCheckReport, error) {
	start := time.Now()

	scan, err := w.framework.ScanProject(ctx, scanner.DefaultScanConfig(w.config.ProjectPath))
	if err != nil {
		return nil, err
	}

	evaluation := w.evaluator.Evaluate(w.config.GateName, scan, w.loadCoverage())

	var fixesApplied int
	var fixedFiles []string
	if w.config.ApplyFixes && w.engine != nil {
		fixesApplied, fixedFiles = applyAutoFixes(w.engine, w.logger, w.config.ProjectPath, scan)
	}

	report := &QualityCheckReport{
		Scan:         scan,
		Evaluation:   evaluation,
		FixesApplied: fixesApplied,
		FixedFiles:   fixedFiles,
		Status:       statusFromResult(evaluation.Result),
		Duration:     time.Since(start),
	}
	report.Summary = w.summarize(report)

	w.logger.Info("full quality check: %s", report.Summary)
	return report, nil
}

// LoadWorkflowConfig reads the persisted workflow configuration, returning
// nil without error when none exists
func (w *WorkflowAutomation) LoadWorkflowConfig() (*WorkflowConfig, error) {
	path := w.workflowConfigPath()
	data, err := os.ReadFile(path) // #nosec G304 -- path is derived from the configured project root
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.FileSystemError(path, err)
	}

	var config WorkflowConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, errors.NewError(errors.ErrorTypeConfiguration).
			WithMessagef("workflow configuration at %s is not valid JSON", path).
			WithCause(err).
			Build()
	}
	return &config, nil
}

func (w *WorkflowAutomation) saveWorkflowConfig(config *WorkflowConfig) error {
	dir := filepath.Join(w.config.ProjectPath, workflowDir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.FileSystemError(dir, err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return errors.NewError(errors.ErrorTypeConfiguration).
			WithMessage("could not serialize workflow configuration").
			WithCause(err).
			Build()
	}

	path := w.workflowConfigPath()
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.FileSystemError(path, err)
	}
	return nil
}

func (w *WorkflowAutomation) workflowConfigPath() string {
	return filepath.Join(w.config.ProjectPath, workflowDir, workflowFile)
}

func (w *WorkflowAutomation) loadCoverage() *testquality.CoverageData {
	if w.config.CoverageFile == "" {
		return nil
	}
	path := w.config.CoverageFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.config.ProjectPath, path)
	}
	coverage, err := testquality.LoadCoverageFile(path)
	if err != nil {
		w.logger.Warn("coverage file %s not usable: %v", path, err)
		return nil
	}
	return coverage
}

func (w *WorkflowAutomation) summarize(report *QualityCheckReport) string {
	summary := fmt.Sprintf("scanned %d files, found %d issues", report.Scan.FilesScanned, report.Scan.TotalIssues)
	if breakdown := severityBreakdown(report.Scan); breakdown != "" {
		summary += fmt.Sprintf(" (%s)", breakdown)
	}
	summary += fmt.Sprintf("; gate %s: %s", w.config.GateName, report.Evaluation.Result)
	if report.FixesApplied > 0 {
		summary += fmt.Sprintf("; applied %d automatic fixes", report.FixesApplied)
	}
	return summary
}

// statusFromResult maps a gate verdict to the review status hooks report
func statusFromResult(result gate.Result) hooks.ReviewStatus {
	switch result {
	case gate.Fail:
		return hooks.Blocked
	case gate.ConditionalPass:
		return hooks.Warning
	default:
		return hooks.Passed
	}
}
