// Package prreview analyzes pull requests against quality gates and
// automates the surrounding review workflow. An integration diffs the base
// and head branches, scans only the changed files, decides whether a human
// has to look at the change, and renders a review comment that can be
// published through the GitHub service.
package prreview

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/autofix"
	"github.com/codesweep/codesweep/pkg/errors"
	"github.com/codesweep/codesweep/pkg/gate"
	"github.com/codesweep/codesweep/pkg/git"
	"github.com/codesweep/codesweep/pkg/github"
	"github.com/codesweep/codesweep/pkg/hooks"
	"github.com/codesweep/codesweep/pkg/logger"
	"github.com/codesweep/codesweep/pkg/scanner"
	"github.com/codesweep/codesweep/pkg/testquality"
)

// defaultManualReviewIssueLimit is the total issue count above which a pull
// request needs a human reviewer even when the gate passes
const defaultManualReviewIssueLimit = 20

// Config controls how pull requests are analyzed
type Config struct {
	ProjectPath            string   `json:"project_path"`
	GateName               string   `json:"gate_name"`
	Extensions             []string `json:"extensions"`
	IgnorePatterns         []string `json:"ignore_patterns"`
	ApplyFixes             bool     `json:"apply_fixes"`
	ManualReviewIssueLimit int      `json:"manual_review_issue_limit"`
	CoverageFile           string   `json:"coverage_file,omitempty"`
}

// DefaultConfig returns a pull request analysis configuration with the
// standard gate and the same file selection rules hooks use
func DefaultConfig(projectPath string) Config {
	return Config{
		ProjectPath:            projectPath,
		GateName:               gate.GateStandard,
		Extensions:             hooks.DefaultExtensions,
		IgnorePatterns:         scanner.DefaultExcludedPatterns,
		ManualReviewIssueLimit: defaultManualReviewIssueLimit,
	}
}

// ReviewPublisher posts a review comment on a pull request. The GitHub
// service satisfies it; tests substitute a fake.
type ReviewPublisher interface {
	PublishReviewComment(ctx context.Context, owner, repo string, number int, body string) (*github.Comment, error)
}

var _ ReviewPublisher = (*github.Service)(nil)

// Analysis is the outcome of analyzing one pull request
type Analysis struct {
	PullRequestID     string              `json:"pull_request_id"`
	BaseBranch        string              `json:"base_branch"`
	HeadBranch        string              `json:"head_branch"`
	GateName          string              `json:"gate_name"`
	Evaluation        *gate.Evaluation    `json:"evaluation"`
	Scan              *scanner.ScanResult `json:"scan"`
	FilesChecked      []string            `json:"files_checked"`
	FixesApplied      int                 `json:"fixes_applied"`
	FixedFiles        []string            `json:"fixed_files,omitempty"`
	NeedsManualReview bool                `json:"needs_manual_review"`
	ReviewReasons     []string            `json:"review_reasons,omitempty"`
	Comment           string              `json:"comment"`
	CommentPosted     bool                `json:"comment_posted"`
	Duration          time.Duration       `json:"duration"`
}

// Verdict summarizes the analysis for the review comment headline
func (a *Analysis) Verdict() string {
	switch {
	case a.Evaluation.Result == gate.Fail:
		return "changes requested"
	case a.NeedsManualReview:
		return "manual review required"
	case a.Evaluation.Result == gate.ConditionalPass:
		return "approved with suggestions"
	default:
		return "approved"
	}
}

// Integration runs quality analysis over the files a pull request changes
type Integration struct {
	config     Config
	repo       *git.Repository
	framework  *scanner.Framework
	evaluator  *gate.Evaluator
	engine     *autofix.Engine
	publisher  ReviewPublisher
	extensions map[string]bool
	matcher    *ignore.GitIgnore
	logger     *logger.Logger
}

// NewIntegration opens the repository at the configured project path and
// wires the scanning framework and gate evaluator analyses use. A nil
// evaluator gets the built-in gates.
func NewIntegration(config Config, framework *scanner.Framework, evaluator *gate.Evaluator) (*Integration, error) {
	if config.ProjectPath == "" {
		return nil, errors.ValidationError("pull request config has no project path")
	}
	if framework == nil {
		return nil, errors.ValidationError("pull request integration requires a scanning framework")
	}
	if evaluator == nil {
		evaluator = gate.NewEvaluator()
	}
	if config.GateName == "" {
		config.GateName = gate.GateStandard
	}
	if len(config.Extensions) == 0 {
		config.Extensions = hooks.DefaultExtensions
	}
	if len(config.IgnorePatterns) == 0 {
		config.IgnorePatterns = scanner.DefaultExcludedPatterns
	}
	if config.ManualReviewIssueLimit <= 0 {
		config.ManualReviewIssueLimit = defaultManualReviewIssueLimit
	}

	repo, err := git.Open(config.ProjectPath)
	if err != nil {
		return nil, err
	}

	extensions := make(map[string]bool, len(config.Extensions))
	for _, ext := range config.Extensions {
		extensions[strings.ToLower(ext)] = true
	}

	return &Integration{
		config:     config,
		repo:       repo,
		framework:  framework,
		evaluator:  evaluator,
		extensions: extensions,
		matcher:    ignore.CompileIgnoreLines(config.IgnorePatterns...),
		logger:     logger.GetLogger().WithPrefix("prreview"),
	}, nil
}

// WithAutoFix attaches the engine that applies safe fixes during analysis.
// Fixes only run when the configuration enables them.
func (i *Integration) WithAutoFix(engine *autofix.Engine) *Integration {
	i.engine = engine
	return i
}

// WithPublisher attaches the service review comments are posted through
func (i *Integration) WithPublisher(publisher ReviewPublisher) *Integration {
	i.publisher = publisher
	return i
}

// AnalyzePullRequest scans the files changed between the base and head
// branches, evaluates the gate, optionally applies safe fixes, and decides
// whether the change needs a human reviewer. The pull request id is an
// opaque label unless it has the owner/repo#number form, in which case the
// rendered comment is also published when a publisher is attached.
func (i *Integration) AnalyzePullRequest(ctx context.Context, prID, baseBranch, headBranch, gateName string) (*Analysis, error) {
	start := time.Now()
	if gateName == "" {
		gateName = i.config.GateName
	}
	if baseBranch == "" {
		baseBranch = i.repo.DefaultBranch()
	}
	if headBranch == "" {
		headBranch = "HEAD"
	}

	changed, err := i.repo.ChangedFiles(baseBranch, headBranch)
	if err != nil {
		return nil, err
	}
	files := i.filterFiles(changed)
	i.logger.Info("analyzing pull request %s: %d files changed, %d selected for scanning",
		prID, len(changed), len(files))

	root := i.repo.Root()
	scanConfig := scanner.ScanConfig{
		ProjectPath: root,
		ProjectID:   filepath.Base(root),
	}
	scan, err := i.framework.ScanFiles(ctx, scanConfig, files)
	if err != nil {
		return nil, err
	}

	evaluation := i.evaluator.Evaluate(gateName, scan, i.loadCoverage())

	var fixesApplied int
	var fixedFiles []string
	if i.config.ApplyFixes && i.engine != nil {
		fixesApplied, fixedFiles = applyAutoFixes(i.engine, i.logger, root, scan)
	}

	needsReview, reasons := i.manualReviewDecision(scan)

	result := &Analysis{
		PullRequestID:     prID,
		BaseBranch:        baseBranch,
		HeadBranch:        headBranch,
		GateName:          gateName,
		Evaluation:        evaluation,
		Scan:              scan,
		FilesChecked:      files,
		FixesApplied:      fixesApplied,
		FixedFiles:        fixedFiles,
		NeedsManualReview: needsReview,
		ReviewReasons:     reasons,
	}
	result.Comment = renderComment(result)
	i.publish(ctx, result)
	result.Duration = time.Since(start)

	i.logger.Info("pull request %s: gate %s %s, %d issues, manual review needed: %v",
		prID, gateName, evaluation.Result, scan.TotalIssues, needsReview)
	return result, nil
}

// applyAutoFixes fixes the open auto-fixable issues file by file, returning
// how many fixes landed and which files changed. A failing file is logged
// and skipped so one stubborn file cannot sink the whole run.
func applyAutoFixes(engine *autofix.Engine, log *logger.Logger, projectRoot string, scan *scanner.ScanResult) (int, []string) {
	byFile := make(map[string][]*analysis.Issue)
	for _, issue := range scan.Issues {
		if issue.AutoFixable && issue.Status == analysis.StatusOpen {
			byFile[issue.FilePath] = append(byFile[issue.FilePath], issue)
		}
	}

	paths := make([]string, 0, len(byFile))
	for path := range byFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	applied := 0
	var fixed []string
	for _, path := range paths {
		result, err := engine.FixFile(scan.ProjectID, projectRoot, path, byFile[path], true)
		if err != nil {
			log.Warn("auto-fix of %s failed: %v", path, err)
			continue
		}
		if result.Applied > 0 {
			applied += result.Applied
			fixed = append(fixed, path)
		}
	}
	return applied, fixed
}

// manualReviewDecision reports whether a human must look at the change and
// why. Critical issues, security findings and oversized issue counts all
// demand review even when the gate itself passes.
func (i *Integration) manualReviewDecision(scan *scanner.ScanResult) (bool, []string) {
	var reasons []string
	if n := scan.IssuesBySeverity[analysis.SeverityCritical.String()]; n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d critical issues must be resolved by hand", n))
	}
	if n := scan.IssuesByType[analysis.IssueTypeSecurity.String()]; n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d security findings need human sign-off", n))
	}
	if scan.TotalIssues > i.config.ManualReviewIssueLimit {
		reasons = append(reasons, fmt.Sprintf("%d issues exceed the review threshold of %d",
			scan.TotalIssues, i.config.ManualReviewIssueLimit))
	}
	return len(reasons) > 0, reasons
}

// publish posts the rendered comment when a publisher is attached and the
// pull request id names a repository. Publication failures keep the comment
// on the analysis instead of failing it.
func (i *Integration) publish(ctx context.Context, a *Analysis) {
	if i.publisher == nil {
		return
	}
	owner, repo, number, ok := parsePullRequestID(a.PullRequestID)
	if !ok {
		i.logger.Debug("pull request id %q has no owner/repo#number form, keeping the comment local", a.PullRequestID)
		return
	}
	if _, err := i.publisher.PublishReviewComment(ctx, owner, repo, number, a.Comment); err != nil {
		i.logger.Warn("could not publish review comment on %s: %v", a.PullRequestID, err)
		return
	}
	a.CommentPosted = true
}

// filterFiles keeps the changed files whose extension is checked and which
// no ignore rule matches
func (i *Integration) filterFiles(files []string) []string {
	var kept []string
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file))
		if !i.extensions[ext] {
			continue
		}
		if i.matcher != nil && i.matcher.MatchesPath(file) {
			continue
		}
		kept = append(kept, file)
	}
	return kept
}

func (i *Integration) loadCoverage() *testquality.CoverageData {
	if i.config.CoverageFile == "" {
		return nil
	}
	path := i.config.CoverageFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(i.repo.Root(), path)
	}
	coverage, err := testquality.LoadCoverageFile(path)
	if err != nil {
		i.logger.Warn("coverage file %s not usable: %v", path, err)
		return nil
	}
	return coverage
}

// parsePullRequestID splits an owner/repo#number reference. Bare numeric or
// symbolic ids carry no repository, so there is nowhere to publish to.
func parsePullRequestID(prID string) (owner, repo string, number int, ok bool) {
	repoPart, numberPart, found := strings.Cut(prID, "#")
	if !found {
		return "", "", 0, false
	}
	owner, repo, found = strings.Cut(repoPart, "/")
	if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", 0, false
	}
	number, err := strconv.Atoi(numberPart)
	if err != nil || number <= 0 {
		return "", "", 0, false
	}
	return owner, repo, number, true
}
