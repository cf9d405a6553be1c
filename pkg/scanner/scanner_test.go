package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/pkg/analysis"
)

// cleanPython has no findings: short lines, no trailing whitespace, no
// secrets, no function definitions
const cleanPython = "GREETING = \"hello\"\nFAREWELL = \"goodbye\"\n"

func newTestFramework() *Framework {
	pipeline := analysis.NewPipeline(analysis.RunnerConfig{
		UseCache: false,
		Timeout:  10 * time.Second,
	})
	pipeline.Register(analysis.NewDetector(analysis.DefaultDetectorConfig()))
	return NewFramework(pipeline)
}

func writeProjectFile(t *testing.T, root, relPath, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// longPythonLine is a 100 character assignment that only violates the line
// length rule
func longPythonLine() string {
	return "WIDE = \"" + strings.Repeat("x", 91) + "\""
}

func TestDefaultScanConfig(t *testing.T) {
	config := DefaultScanConfig("/tmp/project")

	assert.Equal(t, "/tmp/project", config.ProjectPath)
	assert.Equal(t, 4, config.ParallelWorkers)
	assert.Equal(t, int64(1<<20), config.MaxFileSize)
	assert.True(t, config.UseGitignore)
	assert.Contains(t, config.FilePatterns, "*.py")
	assert.Contains(t, config.FilePatterns, "*.go")
	assert.Contains(t, config.ExcludedPatterns, "node_modules/")
	assert.Contains(t, config.ExcludedPatterns, "vendor/")
}

func TestScanProjectFindsLongLine(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "alpha.py", cleanPython)
	writeProjectFile(t, root, "beta.py", longPythonLine()+"\nOK = 1\n")

	framework := newTestFramework()
	result, err := framework.ScanProject(context.Background(), DefaultScanConfig(root))
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesScanned)
	assert.Equal(t, 0, result.FilesFailed)
	assert.Equal(t, 0, result.FilesSkipped)

	require.Len(t, result.Issues, 1)
	issue := result.Issues[0]
	assert.Equal(t, "long_line", issue.Category)
	assert.Equal(t, "beta.py", issue.FilePath)
	assert.Equal(t, 1, issue.LineNumber)
	assert.Equal(t, analysis.SeverityLow, issue.Severity)

	assert.Equal(t, 1, result.TotalIssues)
	assert.Equal(t, 1, result.IssuesBySeverity["low"])
	assert.Equal(t, 1, result.IssuesByType["style"])
	assert.NotEmpty(t, result.ScanID)
	assert.Equal(t, filepath.Base(root), result.ProjectID)
	assert.False(t, result.CompletedAt.Before(result.StartedAt))
}

func TestScanProjectCountInvariants(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "dirty.py", "password = \"hunter2\"\nx = 1 \n")
	writeProjectFile(t, root, "messy.py", longPythonLine()+"\nvalue = eval(source)\n")

	framework := newTestFramework()
	result, err := framework.ScanProject(context.Background(), DefaultScanConfig(root))
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesScanned)
	require.Equal(t, 4, result.TotalIssues)
	assert.Len(t, result.Issues, result.TotalIssues)

	severitySum := 0
	for _, count := range result.IssuesBySeverity {
		severitySum += count
	}
	typeSum := 0
	for _, count := range result.IssuesByType {
		typeSum += count
	}
	assert.Equal(t, result.TotalIssues, severitySum)
	assert.Equal(t, result.TotalIssues, typeSum)

	assert.Equal(t, 2, result.IssuesBySeverity["low"])
	assert.Equal(t, 1, result.IssuesBySeverity["high"])
	assert.Equal(t, 1, result.IssuesBySeverity["critical"])
	assert.Equal(t, 2, result.IssuesByType["style"])
	assert.Equal(t, 2, result.IssuesByType["security"])
	assert.Equal(t, 1, result.CriticalIssues())
}

func TestScanProjectOrdersIssuesDeterministically(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "dirty.py", "password = \"hunter2\"\nx = 1 \n")
	writeProjectFile(t, root, "messy.py", longPythonLine()+"\nvalue = eval(source)\n")

	framework := newTestFramework()
	result, err := framework.ScanProject(context.Background(), DefaultScanConfig(root))
	require.NoError(t, err)

	require.Len(t, result.Issues, 4)
	got := make([][2]interface{}, 0, len(result.Issues))
	for _, issue := range result.Issues {
		got = append(got, [2]interface{}{issue.FilePath, issue.LineNumber})
	}
	want := [][2]interface{}{
		{"dirty.py", 1},
		{"dirty.py", 2},
		{"messy.py", 1},
		{"messy.py", 2},
	}
	assert.Equal(t, want, got)
}

func TestScanProjectSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "app.py", cleanPython)
	writeProjectFile(t, root, "node_modules/dep/index.py", "value = eval(source)\n")
	writeProjectFile(t, root, "vendor/lib.py", "value = eval(source)\n")
	writeProjectFile(t, root, ".git/hooks/sample.py", "value = eval(source)\n")

	framework := newTestFramework()
	result, err := framework.ScanProject(context.Background(), DefaultScanConfig(root))
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesScanned)
	assert.Equal(t, 0, result.TotalIssues)
}

func TestScanProjectHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, ".gitignore", "generated.py\n")
	writeProjectFile(t, root, "main.py", cleanPython)
	writeProjectFile(t, root, "generated.py", "value = eval(source)\n")

	framework := newTestFramework()

	withGitignore, err := framework.ScanProject(context.Background(), DefaultScanConfig(root))
	require.NoError(t, err)
	assert.Equal(t, 1, withGitignore.FilesScanned)
	assert.Equal(t, 0, withGitignore.TotalIssues)

	config := DefaultScanConfig(root)
	config.UseGitignore = false
	withoutGitignore, err := framework.ScanProject(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, 2, withoutGitignore.FilesScanned)
	assert.Equal(t, 1, withoutGitignore.TotalIssues)
}

func TestScanProjectLimitsFileSize(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "small.py", "OK = 1\n")
	writeProjectFile(t, root, "big.py", strings.Repeat("# filler line\n", 20))

	config := DefaultScanConfig(root)
	config.MaxFileSize = 64

	framework := newTestFramework()
	result, err := framework.ScanProject(context.Background(), config)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesScanned)
	assert.Equal(t, 1, result.FilesSkipped)
}

func TestScanProjectFilePatterns(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "keep.py", cleanPython)
	writeProjectFile(t, root, "notes.txt", longPythonLine()+"\n")
	writeProjectFile(t, root, "tool.go", "package tool\n")

	config := DefaultScanConfig(root)
	config.FilePatterns = []string{"*.py"}

	framework := newTestFramework()
	result, err := framework.ScanProject(context.Background(), config)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesScanned)
	assert.Equal(t, 0, result.TotalIssues)
}

func TestScanProjectFiresCallbacks(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "alpha.py", cleanPython)
	writeProjectFile(t, root, "beta.py", longPythonLine()+"\n")

	var mu sync.Mutex
	var startedFiles int
	var analyzed []string
	var foundCategories []string
	var completed *ScanResult

	framework := newTestFramework()
	framework.SetCallbacks(Callbacks{
		OnScanStarted: func(projectPath string, fileCount int) error {
			mu.Lock()
			defer mu.Unlock()
			startedFiles = fileCount
			return nil
		},
		OnFileAnalyzed: func(filePath string, results []*analysis.Result) error {
			mu.Lock()
			defer mu.Unlock()
			analyzed = append(analyzed, filePath)
			return nil
		},
		OnIssueFound: func(issue *analysis.Issue) error {
			mu.Lock()
			defer mu.Unlock()
			foundCategories = append(foundCategories, issue.Category)
			return nil
		},
		OnScanCompleted: func(result *ScanResult) error {
			mu.Lock()
			defer mu.Unlock()
			completed = result
			return nil
		},
	})

	result, err := framework.ScanProject(context.Background(), DefaultScanConfig(root))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, startedFiles)
	assert.ElementsMatch(t, []string{"alpha.py", "beta.py"}, analyzed)
	assert.Equal(t, []string{"long_line"}, foundCategories)
	require.NotNil(t, completed)
	assert.Equal(t, result.ScanID, completed.ScanID)
	assert.Equal(t, 1, completed.TotalIssues)
}

func TestScanProjectCallbackFailuresDoNotAbort(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "beta.py", longPythonLine()+"\n")

	framework := newTestFramework()
	framework.SetCallbacks(Callbacks{
		OnFileAnalyzed: func(filePath string, results []*analysis.Result) error {
			return assert.AnError
		},
		OnIssueFound: func(issue *analysis.Issue) error {
			panic("observer exploded")
		},
	})

	result, err := framework.ScanProject(context.Background(), DefaultScanConfig(root))
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesScanned)
	assert.Equal(t, 1, result.TotalIssues)
}

func TestScanProjectRejectsBadPaths(t *testing.T) {
	framework := newTestFramework()

	_, err := framework.ScanProject(context.Background(), ScanConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project path")

	_, err = framework.ScanProject(context.Background(), DefaultScanConfig(filepath.Join(t.TempDir(), "missing")))
	require.Error(t, err)
}

func TestScanProjectCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "alpha.py", cleanPython)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	framework := newTestFramework()
	result, err := framework.ScanProject(ctx, DefaultScanConfig(root))
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesScanned)
	assert.Equal(t, 0, result.TotalIssues)
}

func TestScanFile(t *testing.T) {
	root := t.TempDir()
	path := writeProjectFile(t, root, "beta.py", longPythonLine()+"\n")

	framework := newTestFramework()
	result, err := framework.ScanFile(context.Background(), "demo", path)
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "long_line", result.Issues[0].Category)
	assert.Equal(t, "demo", result.Issues[0].ProjectID)
}

func TestScanFileMissing(t *testing.T) {
	framework := newTestFramework()
	_, err := framework.ScanFile(context.Background(), "demo", filepath.Join(t.TempDir(), "absent.py"))
	require.Error(t, err)
}
