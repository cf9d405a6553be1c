package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/autofix"
	"github.com/codesweep/codesweep/pkg/config"
	"github.com/codesweep/codesweep/pkg/scanner"
)

func TestFixCommand(t *testing.T) {
	t.Run("applies trailing whitespace fixes", func(t *testing.T) {
		dir := t.TempDir()
		path := writeProjectFile(t, dir, "code.py", "x = 1  \ny = 2\n")

		err := executeCommand(t, "fix", dir)
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "x = 1\ny = 2\n", string(content))
	})

	t.Run("backs the file up before collapsing blank lines", func(t *testing.T) {
		dir := t.TempDir()
		path := writeProjectFile(t, dir, "code.py", "a = 1\n\n\n\nb = 2\n")

		err := executeCommand(t, "fix", dir)
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "a = 1\n\n\nb = 2\n", string(content))

		backups, err := filepath.Glob(filepath.Join(dir, ".codesweep", "backups", "*"))
		require.NoError(t, err)
		assert.NotEmpty(t, backups)
	})

	t.Run("dry run leaves files untouched", func(t *testing.T) {
		dir := t.TempDir()
		path := writeProjectFile(t, dir, "code.py", "x = 1  \ny = 2\n")

		err := executeCommand(t, "fix", dir, "--dry-run")
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "x = 1  \ny = 2\n", string(content))
	})

	t.Run("clean tree has nothing to fix", func(t *testing.T) {
		dir := t.TempDir()
		writeProjectFile(t, dir, "code.py", "x = 1\n")

		assert.NoError(t, executeCommand(t, "fix", dir))
	})

	t.Run("unknown checkpoint id is an error", func(t *testing.T) {
		dir := t.TempDir()
		writeProjectFile(t, dir, "code.py", "x = 1\n")

		assert.Error(t, executeCommand(t, "fix", dir, "--restore", "no-such-checkpoint"))
	})

	t.Run("invalid safety level is an error", func(t *testing.T) {
		dir := t.TempDir()
		writeProjectFile(t, dir, "code.py", "x = 1\n")

		assert.Error(t, executeCommand(t, "fix", dir, "--safety", "reckless"))
	})
}

func TestBuildFixEngine(t *testing.T) {
	t.Run("safety flag overrides configuration", func(t *testing.T) {
		engine, err := buildFixEngine(config.DefaultConfig(), t.TempDir(), "aggressive")
		require.NoError(t, err)
		assert.Equal(t, autofix.SafetyAggressive, engine.SafetyLevel())
	})

	t.Run("empty safety keeps the configured level", func(t *testing.T) {
		engine, err := buildFixEngine(config.DefaultConfig(), t.TempDir(), "")
		require.NoError(t, err)
		assert.Equal(t, autofix.SafetyConservative, engine.SafetyLevel())
	})

	t.Run("rejects unknown safety levels", func(t *testing.T) {
		_, err := buildFixEngine(config.DefaultConfig(), t.TempDir(), "reckless")
		assert.Error(t, err)
	})

	t.Run("anchors checkpoints at the project root", func(t *testing.T) {
		dir := t.TempDir()
		writeProjectFile(t, dir, "code.py", "x = 1\n")

		engine, err := buildFixEngine(config.DefaultConfig(), dir, "")
		require.NoError(t, err)

		checkpoint, err := engine.CreateCheckpoint("demo", dir, []string{"code.py"})
		require.NoError(t, err)
		require.Len(t, checkpoint.Files, 1)

		_, err = os.Stat(filepath.Join(dir, ".codesweep", "checkpoints"))
		assert.NoError(t, err, "checkpoint store should live inside the project")

		require.NoError(t, os.WriteFile(filepath.Join(dir, "code.py"), []byte("broken\n"), 0o600))

		restored, err := engine.RestoreCheckpoint(checkpoint.ID, dir)
		require.NoError(t, err)
		assert.True(t, restored["code.py"])

		content, err := os.ReadFile(filepath.Join(dir, "code.py"))
		require.NoError(t, err)
		assert.Equal(t, "x = 1\n", string(content))
	})
}

func TestResolveArtifactDir(t *testing.T) {
	assert.Equal(t, "", resolveArtifactDir("/project", ""))
	assert.Equal(t, "/var/backups", resolveArtifactDir("/project", "/var/backups"))
	assert.Equal(t, filepath.Join("/project", ".codesweep", "backups"),
		resolveArtifactDir("/project", filepath.Join(".codesweep", "backups")))
}

func TestIssuesByFile(t *testing.T) {
	fixable := analysis.NewIssue(analysis.IssueTypeStyle, analysis.SeverityLow,
		"trailing_whitespace", "Line has trailing whitespace").WithAutoFixable(true)
	fixable.FilePath = "code.py"
	manual := analysis.NewIssue(analysis.IssueTypeSecurity, analysis.SeverityHigh,
		"hardcoded_password", "Possible hardcoded credential")
	manual.FilePath = "code.py"

	byFile := issuesByFile(&scanner.ScanResult{Issues: []*analysis.Issue{fixable, manual}})

	require.Len(t, byFile, 1)
	assert.Len(t, byFile["code.py"], 1)
	assert.Equal(t, "trailing_whitespace", byFile["code.py"][0].Category)

	assert.Empty(t, issuesByFile(&scanner.ScanResult{}))
}
