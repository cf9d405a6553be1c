package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/pkg/analysis"
)

func newTestStore(t *testing.T, root string) *IssueStore {
	t.Helper()
	store, err := NewIssueStore(filepath.Join(root, ".codesweep", "issues.json"))
	require.NoError(t, err)
	return store
}

func scanRoot(t *testing.T, framework *Framework, root string) *ScanResult {
	t.Helper()
	result, err := framework.ScanProject(context.Background(), DefaultScanConfig(root))
	require.NoError(t, err)
	return result
}

func TestNewIssueStoreRequiresPath(t *testing.T) {
	_, err := NewIssueStore("")
	require.Error(t, err)
}

func TestIssueStoreRecordsNewFindings(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "app.py", "password = \"hunter2\"\nx = 1 \n")

	store := newTestStore(t, root)
	summary, err := store.SyncScan(scanRoot(t, newTestFramework(), root))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Added)
	assert.Equal(t, 0, summary.Resolved)
	assert.Equal(t, 0, summary.Reopened)
	assert.Equal(t, 2, summary.Open)
	assert.Equal(t, 2, summary.Total)

	stored, err := store.List()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, analysis.RuleHardcodedPassword, stored[0].Category)
	assert.Equal(t, analysis.RuleTrailingWhitespace, stored[1].Category)
	for _, issue := range stored {
		assert.Equal(t, analysis.StatusOpen, issue.Status)
	}

	assert.FileExists(t, filepath.Join(root, ".codesweep", "issues.json"))
}

func TestIssueStoreLifecycle(t *testing.T) {
	root := t.TempDir()
	path := writeProjectFile(t, root, "app.py", "x = 1 \n")

	framework := newTestFramework()
	store := newTestStore(t, root)

	first, err := store.SyncScan(scanRoot(t, framework, root))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Added)
	assert.Equal(t, 1, first.Open)

	stored, err := store.List()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	originalID := stored[0].ID
	assert.Equal(t, analysis.RuleTrailingWhitespace, stored[0].Category)

	// cleaning the file resolves the finding instead of deleting it
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
	second, err := store.SyncScan(scanRoot(t, framework, root))
	require.NoError(t, err)
	assert.Equal(t, 1, second.Resolved)
	assert.Equal(t, 0, second.Open)
	assert.Equal(t, 1, second.Total)

	stored, err = store.List()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, analysis.StatusResolved, stored[0].Status)
	assert.Equal(t, "scan", stored[0].ResolvedBy)
	require.NotNil(t, stored[0].ResolvedAt)

	// a regression reopens the original record under the same id
	require.NoError(t, os.WriteFile(path, []byte("x = 1 \n"), 0o644))
	third, err := store.SyncScan(scanRoot(t, framework, root))
	require.NoError(t, err)
	assert.Equal(t, 1, third.Reopened)
	assert.Equal(t, 0, third.Added)
	assert.Equal(t, 1, third.Open)

	stored, err = store.List()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, analysis.StatusOpen, stored[0].Status)
	assert.Equal(t, originalID, stored[0].ID)
	assert.Empty(t, stored[0].ResolvedBy)
	assert.Nil(t, stored[0].ResolvedAt)
}

func TestIssueStoreOpenIssues(t *testing.T) {
	root := t.TempDir()
	path := writeProjectFile(t, root, "app.py", "x = 1 \nvalue = eval(source)\n")

	framework := newTestFramework()
	store := newTestStore(t, root)
	_, err := store.SyncScan(scanRoot(t, framework, root))
	require.NoError(t, err)

	// the whitespace cleanup resolves one of the two findings
	require.NoError(t, os.WriteFile(path, []byte("x = 1\nvalue = eval(source)\n"), 0o644))
	_, err = store.SyncScan(scanRoot(t, framework, root))
	require.NoError(t, err)

	open, err := store.OpenIssues()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, analysis.RuleDangerousCall, open[0].Category)

	all, err := store.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIssueStorePersistsAcrossInstances(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "app.py", "value = eval(source)\n")

	first := newTestStore(t, root)
	_, err := first.SyncScan(scanRoot(t, newTestFramework(), root))
	require.NoError(t, err)

	second := newTestStore(t, root)
	stored, err := second.List()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, analysis.RuleDangerousCall, stored[0].Category)
	assert.Equal(t, analysis.SeverityCritical, stored[0].Severity)
	assert.Equal(t, analysis.StatusOpen, stored[0].Status)
}

func TestIssueStoreRejectsNilResult(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	_, err := store.SyncScan(nil)
	require.Error(t, err)
}

func TestIssueStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	store, err := NewIssueStore(path)
	require.NoError(t, err)

	_, err = store.List()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")
}
