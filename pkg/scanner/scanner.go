// Package scanner walks project trees, fans files out to the analysis
// pipeline across a bounded worker pool and aggregates findings into scan
// results; a filesystem monitor re-scans files as they change.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/errors"
	"github.com/codesweep/codesweep/pkg/logger"
)

// defaultParallelWorkers bounds the scan worker pool when the config does
// not say otherwise
const defaultParallelWorkers = 4

// defaultMaxFileSize skips files larger than 1 MiB; generated bundles and
// data blobs drown analyzers without telling anyone anything
const defaultMaxFileSize = 1 << 20

// DefaultFilePatterns lists the source file globs scanned when the config
// does not restrict them
var DefaultFilePatterns = []string{
	"*.go", "*.py", "*.js", "*.jsx", "*.ts", "*.tsx",
	"*.java", "*.rb", "*.rs", "*.c", "*.h", "*.cpp", "*.cs", "*.php", "*.sh",
}

// DefaultExcludedPatterns are gitignore-style patterns dropped from every
// scan: dependency trees, caches, VCS internals, build output and the
// tool's own artifact directory
var DefaultExcludedPatterns = []string{
	".git/",
	".hg/",
	".svn/",
	".codesweep/",
	"node_modules/",
	"vendor/",
	"__pycache__/",
	".venv/",
	"venv/",
	".tox/",
	".cache/",
	".pytest_cache/",
	".mypy_cache/",
	"dist/",
	"build/",
	"*.min.js",
}

// ScanConfig controls one project scan
type ScanConfig struct {
	ProjectPath      string   `json:"project_path"`
	ProjectID        string   `json:"project_id"`
	FilePatterns     []string `json:"file_patterns"`
	ExcludedPatterns []string `json:"excluded_patterns"`
	MaxFileSize      int64    `json:"max_file_size"`
	ParallelWorkers  int      `json:"parallel_workers"`
	UseGitignore     bool     `json:"use_gitignore"`
}

// DefaultScanConfig returns a scan configuration with the standard
// patterns, size limit and worker count
func DefaultScanConfig(projectPath string) ScanConfig {
	return ScanConfig{
		ProjectPath:      projectPath,
		FilePatterns:     DefaultFilePatterns,
		ExcludedPatterns: DefaultExcludedPatterns,
		MaxFileSize:      defaultMaxFileSize,
		ParallelWorkers:  defaultParallelWorkers,
		UseGitignore:     true,
	}
}

// ScanResult aggregates everything one project scan produced. TotalIssues
// always equals len(Issues) and the sum over either count map.
type ScanResult struct {
	ScanID           string            `json:"scan_id"`
	ProjectID        string            `json:"project_id"`
	ProjectPath      string            `json:"project_path"`
	StartedAt        time.Time         `json:"started_at"`
	CompletedAt      time.Time         `json:"completed_at"`
	Duration         time.Duration     `json:"duration"`
	FilesScanned     int               `json:"files_scanned"`
	FilesSkipped     int               `json:"files_skipped"`
	FilesFailed      int               `json:"files_failed"`
	TotalIssues      int               `json:"total_issues"`
	IssuesBySeverity map[string]int    `json:"issues_by_severity"`
	IssuesByType     map[string]int    `json:"issues_by_type"`
	Issues           []*analysis.Issue `json:"issues"`
	Suggestions      []string          `json:"suggestions,omitempty"`
	Errors           []string          `json:"errors,omitempty"`
}

func newScanResult(projectID, projectPath string) *ScanResult {
	return &ScanResult{
		ScanID:           uuid.New().String(),
		ProjectID:        projectID,
		ProjectPath:      projectPath,
		StartedAt:        time.Now(),
		IssuesBySeverity: make(map[string]int),
		IssuesByType:     make(map[string]int),
		Issues:           []*analysis.Issue{},
	}
}

// CriticalIssues counts issues at critical severity
func (sr *ScanResult) CriticalIssues() int {
	return sr.IssuesBySeverity[analysis.SeverityCritical.String()]
}

// Callbacks receive scan lifecycle events. Every callback may be nil.
// Returned errors and panics are logged and never abort the scan.
type Callbacks struct {
	OnScanStarted   func(projectPath string, fileCount int) error
	OnFileAnalyzed  func(filePath string, results []*analysis.Result) error
	OnIssueFound    func(issue *analysis.Issue) error
	OnScanCompleted func(result *ScanResult) error
}

// Framework drives scans through a shared analysis pipeline
type Framework struct {
	pipeline  *analysis.Pipeline
	callbacks Callbacks
	logger    *logger.Logger
}

// NewFramework creates a scanning framework around an analysis pipeline
func NewFramework(pipeline *analysis.Pipeline) *Framework {
	return &Framework{
		pipeline: pipeline,
		logger:   logger.GetLogger().WithPrefix("scanner"),
	}
}

// Pipeline exposes the underlying analysis pipeline
func (f *Framework) Pipeline() *analysis.Pipeline {
	return f.pipeline
}

// SetCallbacks installs the lifecycle callbacks for subsequent scans
func (f *Framework) SetCallbacks(callbacks Callbacks) {
	f.callbacks = callbacks
}

// fireCallback runs one lifecycle callback, absorbing errors and panics so
// observer code can never abort a scan
func (f *Framework) fireCallback(name string, callback func() error) {
	if callback == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			f.logger.Error("%s callback panicked: %v", name, recovered)
		}
	}()
	if err := callback(); err != nil {
		f.logger.Warn("%s callback failed: %v", name, err)
	}
}

// ScanFile analyzes a single file with every registered analyzer that
// supports its language and merges their results
func (f *Framework) ScanFile(ctx context.Context, projectID, filePath string) (*analysis.Result, error) {
	actx, err := analysis.LoadContext(projectID, "", filePath)
	if err != nil {
		return nil, err
	}
	return f.pipeline.RunMerged(ctx, actx), nil
}

// ScanProject walks the configured project tree and runs every matching
// file through the pipeline across a bounded worker pool. Individual file
// failures are recorded in the result; only enumeration failures are errors.
func (f *Framework) ScanProject(ctx context.Context, config ScanConfig) (*ScanResult, error) {
	if config.ProjectPath == "" {
		return nil, errors.ValidationError("scan config has no project path")
	}
	if stat, err := os.Stat(config.ProjectPath); err != nil || !stat.IsDir() {
		return nil, errors.NewError(errors.ErrorTypeFileSystem).
			WithMessage("project path is not a readable directory").
			WithCause(err).
			WithContext("path", config.ProjectPath).
			Build()
	}

	if config.ProjectID == "" {
		config.ProjectID = filepath.Base(config.ProjectPath)
	}
	if config.ParallelWorkers <= 0 {
		config.ParallelWorkers = defaultParallelWorkers
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = defaultMaxFileSize
	}
	if len(config.FilePatterns) == 0 {
		config.FilePatterns = DefaultFilePatterns
	}
	if len(config.ExcludedPatterns) == 0 {
		config.ExcludedPatterns = DefaultExcludedPatterns
	}

	result := newScanResult(config.ProjectID, config.ProjectPath)
	files, skipped, err := f.enumerateFiles(config)
	if err != nil {
		return nil, err
	}
	result.FilesSkipped = skipped

	f.logger.Info("scanning %d files in %s with %d workers",
		len(files), config.ProjectPath, config.ParallelWorkers)
	f.fireCallback("scan started", func() error {
		if f.callbacks.OnScanStarted == nil {
			return nil
		}
		return f.callbacks.OnScanStarted(config.ProjectPath, len(files))
	})

	f.runPool(ctx, config, files, result)

	f.finalize(result)
	f.fireCallback("scan completed", func() error {
		if f.callbacks.OnScanCompleted == nil {
			return nil
		}
		return f.callbacks.OnScanCompleted(result)
	})

	return result, nil
}

// ScanFiles runs an explicit list of project-relative files through the
// pipeline with the same worker pool and aggregation as a full project
// scan. Enumeration, exclusion patterns and the size limit are skipped;
// the caller has already chosen the files.
func (f *Framework) ScanFiles(ctx context.Context, config ScanConfig, filePaths []string) (*ScanResult, error) {
	if config.ProjectPath == "" {
		return nil, errors.ValidationError("scan config has no project path")
	}
	if config.ProjectID == "" {
		config.ProjectID = filepath.Base(config.ProjectPath)
	}
	if config.ParallelWorkers <= 0 {
		config.ParallelWorkers = defaultParallelWorkers
	}

	result := newScanResult(config.ProjectID, config.ProjectPath)

	f.logger.Info("scanning %d selected files in %s", len(filePaths), config.ProjectPath)
	f.fireCallback("scan started", func() error {
		if f.callbacks.OnScanStarted == nil {
			return nil
		}
		return f.callbacks.OnScanStarted(config.ProjectPath, len(filePaths))
	})

	f.runPool(ctx, config, filePaths, result)

	f.finalize(result)
	f.fireCallback("scan completed", func() error {
		if f.callbacks.OnScanCompleted == nil {
			return nil
		}
		return f.callbacks.OnScanCompleted(result)
	})

	return result, nil
}

// runPool fans filePaths out to scan workers and waits for them to drain
func (f *Framework) runPool(ctx context.Context, config ScanConfig, filePaths []string, result *ScanResult) {
	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < config.ParallelWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for filePath := range jobs {
				f.scanOne(ctx, config, filePath, result, &mu)
			}
		}()
	}

	for _, filePath := range filePaths {
		if ctx.Err() != nil {
			break
		}
		jobs <- filePath
	}
	close(jobs)
	wg.Wait()
}

// scanOne analyzes one file and folds its results into the shared scan
// result under the mutex
func (f *Framework) scanOne(ctx context.Context, config ScanConfig, filePath string, result *ScanResult, mu *sync.Mutex) {
	actx, err := analysis.LoadContext(config.ProjectID, config.ProjectPath, filePath)
	if err != nil {
		f.logger.Warn("cannot read %s: %v", filePath, err)
		mu.Lock()
		result.FilesFailed++
		result.Errors = append(result.Errors, err.Error())
		mu.Unlock()
		return
	}

	results := f.pipeline.Run(ctx, actx)

	mu.Lock()
	result.FilesScanned++
	for _, res := range results {
		if !res.Success {
			result.Errors = append(result.Errors, res.ErrorMessage)
			continue
		}
		result.Issues = append(result.Issues, res.Issues...)
		result.Suggestions = append(result.Suggestions, res.Suggestions...)
	}
	mu.Unlock()

	f.fireCallback("file analyzed", func() error {
		if f.callbacks.OnFileAnalyzed == nil {
			return nil
		}
		return f.callbacks.OnFileAnalyzed(filePath, results)
	})
	if f.callbacks.OnIssueFound != nil {
		for _, res := range results {
			for _, issue := range res.Issues {
				reported := issue
				f.fireCallback("issue found", func() error {
					return f.callbacks.OnIssueFound(reported)
				})
			}
		}
	}
}

// finalize orders issues deterministically and recomputes the count maps
func (f *Framework) finalize(result *ScanResult) {
	sortIssues(result.Issues)

	result.TotalIssues = len(result.Issues)
	for _, issue := range result.Issues {
		result.IssuesBySeverity[issue.Severity.String()]++
		result.IssuesByType[issue.Type.String()]++
	}

	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
}

// sortIssues orders issues by file, line and category so scan results and
// the issue store are deterministic
func sortIssues(issues []*analysis.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].FilePath != issues[j].FilePath {
			return issues[i].FilePath < issues[j].FilePath
		}
		if issues[i].LineNumber != issues[j].LineNumber {
			return issues[i].LineNumber < issues[j].LineNumber
		}
		return issues[i].Category < issues[j].Category
	})
}

// enumerateFiles walks the project tree applying exclusion patterns,
// include globs and the size limit. Returns matching paths relative to the
// project root plus the number of size-skipped files.
func (f *Framework) enumerateFiles(config ScanConfig) ([]string, int, error) {
	patterns := append([]string{}, config.ExcludedPatterns...)
	if config.UseGitignore {
		gitignorePath := filepath.Join(config.ProjectPath, ".gitignore")
		if data, err := os.ReadFile(gitignorePath); err == nil { // #nosec G304 - path rooted at the scanned project
			patterns = append(patterns, strings.Split(string(data), "\n")...)
		}
	}
	matcher := ignore.CompileIgnoreLines(patterns...)

	var files []string
	skipped := 0

	err := filepath.Walk(config.ProjectPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			f.logger.Debug("walk error at %s: %v", path, err)
			return nil
		}

		relPath, err := filepath.Rel(config.ProjectPath, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if matcher.MatchesPath(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if matcher.MatchesPath(relPath) {
			return nil
		}
		if !matchesAny(config.FilePatterns, filepath.Base(path)) {
			return nil
		}
		if info.Size() > config.MaxFileSize {
			f.logger.Debug("skipping %s: %d bytes exceeds limit", relPath, info.Size())
			skipped++
			return nil
		}

		files = append(files, relPath)
		return nil
	})
	if err != nil {
		return nil, 0, errors.NewError(errors.ErrorTypeFileSystem).
			WithMessage("failed to enumerate project files").
			WithCause(err).
			WithContext("path", config.ProjectPath).
			Build()
	}

	sort.Strings(files)
	return files, skipped, nil
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
