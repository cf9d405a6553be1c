package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPRAnalyze(t *testing.T) {
	t.Run("clean pull request passes", func(t *testing.T) {
		dir := initRepo(t)

		err := executeCommand(t, "pr", "analyze", "demo/repo#1", dir, "--json")
		assert.NoError(t, err)
	})

	t.Run("fails outside a repository", func(t *testing.T) {
		err := executeCommand(t, "pr", "analyze", "demo/repo#1", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open repository")
	})

	t.Run("requires a pull request reference", func(t *testing.T) {
		assert.Error(t, executeCommand(t, "pr", "analyze"))
	})
}

func TestPRWorkflowLifecycle(t *testing.T) {
	dir := initRepo(t)

	require.NoError(t, executeCommand(t, "pr", "setup", dir))
	assert.FileExists(t, filepath.Join(dir, ".codesweep", "workflow.json"))
	assert.FileExists(t, filepath.Join(dir, ".git", "hooks", "pre-commit"))

	require.NoError(t, executeCommand(t, "pr", "check", dir))

	require.NoError(t, executeCommand(t, "pr", "remove", dir))
	assert.NoFileExists(t, filepath.Join(dir, ".codesweep", "workflow.json"))
	assert.NoFileExists(t, filepath.Join(dir, ".git", "hooks", "pre-commit"))
}

func TestPRSetupRequiresRepository(t *testing.T) {
	err := executeCommand(t, "pr", "setup", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open repository")
}

func TestPRSubcommandsRegistered(t *testing.T) {
	var names []string
	for _, sub := range prCmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"analyze", "setup", "check", "remove"}, names)
}
