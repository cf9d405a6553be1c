package hooks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/scanner"
)

func newInstallManager(t *testing.T, config Config) *Manager {
	t.Helper()

	pipeline := analysis.NewPipeline(analysis.RunnerConfig{UseCache: false})
	manager, err := NewManager(config, scanner.NewFramework(pipeline), nil)
	require.NoError(t, err)
	return manager
}

func readHook(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path) // #nosec G304 - test fixture path
	require.NoError(t, err)
	return string(data)
}

func TestInstallHooksWritesExecutableScripts(t *testing.T) {
	dir, _ := initHookRepo(t)
	manager := newInstallManager(t, DefaultConfig(dir))

	installed, err := manager.InstallHooks()
	require.NoError(t, err)
	require.Len(t, installed, 2)

	for _, path := range installed {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode().Perm()&0o100, "%s must be owner-executable", path)

		content := readHook(t, path)
		assert.True(t, strings.HasPrefix(content, "#!/bin/sh\n"))
		assert.Contains(t, content, hookMarker)
	}

	preCommit := readHook(t, installed[0])
	assert.Contains(t, preCommit, "--hook pre-commit")
	assert.Contains(t, preCommit, "--gate standard")

	prePush := readHook(t, installed[1])
	assert.Contains(t, prePush, "--hook pre-push")
	assert.Contains(t, prePush, "--gate strict")
}

func TestInstallHooksUsesConfiguredGates(t *testing.T) {
	dir, _ := initHookRepo(t)
	config := DefaultConfig(dir)
	config.PreCommitGate = "lenient"
	config.PrePushGate = "standard"
	manager := newInstallManager(t, config)

	installed, err := manager.InstallHooks()
	require.NoError(t, err)
	require.Len(t, installed, 2)

	assert.Contains(t, readHook(t, installed[0]), "--gate lenient")
	assert.Contains(t, readHook(t, installed[1]), "--gate standard")
}

func TestInstallHooksIsIdempotent(t *testing.T) {
	dir, _ := initHookRepo(t)
	manager := newInstallManager(t, DefaultConfig(dir))

	_, err := manager.InstallHooks()
	require.NoError(t, err)

	installed, err := manager.InstallHooks()
	require.NoError(t, err)
	assert.Len(t, installed, 2)
}

func TestInstallHooksRefusesForeignHook(t *testing.T) {
	dir, _ := initHookRepo(t)
	manager := newInstallManager(t, DefaultConfig(dir))

	hooksDir, err := manager.Repository().HooksDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(hooksDir, 0o750))

	foreign := "#!/bin/sh\nexit 0\n"
	foreignPath := filepath.Join(hooksDir, "pre-commit")
	require.NoError(t, os.WriteFile(foreignPath, []byte(foreign), 0o700)) // #nosec G306 - hook fixture

	installed, err := manager.InstallHooks()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not managed by codesweep")
	assert.Empty(t, installed)
	assert.Equal(t, foreign, readHook(t, foreignPath))
}

func TestUninstallHooksRemovesOnlyOwnScripts(t *testing.T) {
	dir, _ := initHookRepo(t)
	manager := newInstallManager(t, DefaultConfig(dir))

	installed, err := manager.InstallHooks()
	require.NoError(t, err)
	require.Len(t, installed, 2)

	// replace the pre-push hook with something codesweep did not write
	foreign := "#!/bin/sh\necho custom\n"
	require.NoError(t, os.WriteFile(installed[1], []byte(foreign), 0o700)) // #nosec G306 - hook fixture

	removed, err := manager.UninstallHooks()
	require.NoError(t, err)
	assert.Equal(t, []string{installed[0]}, removed)

	_, err = os.Stat(installed[0])
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, foreign, readHook(t, installed[1]))
}

func TestUninstallHooksWithNothingInstalled(t *testing.T) {
	dir, _ := initHookRepo(t)
	manager := newInstallManager(t, DefaultConfig(dir))

	removed, err := manager.UninstallHooks()
	require.NoError(t, err)
	assert.Empty(t, removed)
}
