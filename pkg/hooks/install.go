package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codesweep/codesweep/pkg/errors"
)

// hookMarker identifies scripts written by codesweep. Install refuses to
// overwrite a hook without it and uninstall refuses to remove one.
const hookMarker = "# installed by codesweep"

const hookTemplate = `#!/bin/sh
` + hookMarker + `
# %[1]s quality gate; remove with: codesweep hooks uninstall
if ! command -v codesweep >/dev/null 2>&1; then
    echo "codesweep not found on PATH, skipping %[1]s checks" >&2
    exit 0
fi
exec codesweep hooks run --hook %[1]s --gate %[2]s --warnings-ok
`

// hookNames are the Git hooks codesweep manages
var hookNames = []string{"pre-commit", "pre-push"}

// gateFor returns the configured gate for a hook name
func (m *Manager) gateFor(hookName string) string {
	if hookName == "pre-push" {
		return m.config.PrePushGate
	}
	return m.config.PreCommitGate
}

// InstallHooks writes the codesweep pre-commit and pre-push scripts into the
// repository's hooks directory and returns the paths written. A hook script
// not written by codesweep is never overwritten.
func (m *Manager) InstallHooks() ([]string, error) {
	hooksDir, err := m.repo.HooksDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(hooksDir, 0750); err != nil {
		return nil, errors.FileSystemError(hooksDir, err)
	}

	var installed []string
	for _, hookName := range hookNames {
		path := filepath.Join(hooksDir, hookName)
		if err := m.writeHookScript(path, hookName, m.gateFor(hookName)); err != nil {
			return installed, err
		}
		installed = append(installed, path)
		m.logger.Info("installed %s hook at %s", hookName, path)
	}
	return installed, nil
}

// UninstallHooks removes the codesweep-managed hook scripts and returns the
// paths removed. Hooks written by anything else are left in place.
func (m *Manager) UninstallHooks() ([]string, error) {
	hooksDir, err := m.repo.HooksDir()
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, hookName := range hookNames {
		path := filepath.Join(hooksDir, hookName)
		data, err := os.ReadFile(path) // #nosec G304 - path derived from the repository hooks directory
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return removed, errors.FileSystemError(path, err)
		}
		if !strings.Contains(string(data), hookMarker) {
			m.logger.Warn("leaving %s hook in place: not managed by codesweep", hookName)
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, errors.FileSystemError(path, err)
		}
		removed = append(removed, path)
		m.logger.Info("removed %s hook at %s", hookName, path)
	}
	return removed, nil
}

func (m *Manager) writeHookScript(path, hookName, gateName string) error {
	if data, err := os.ReadFile(path); err == nil && !strings.Contains(string(data), hookMarker) { // #nosec G304 - path derived from the repository hooks directory
		return errors.NewError(errors.ErrorTypeGit).
			WithMessagef("a %s hook not managed by codesweep already exists", hookName).
			WithSeverity(errors.SeverityMedium).
			WithContext("path", path).
			WithSuggestion("move the existing hook aside and rerun the install").
			Build()
	}

	script := fmt.Sprintf(hookTemplate, hookName, gateName)
	if err := os.WriteFile(path, []byte(script), 0700); err != nil { // #nosec G306 - hook scripts must be executable
		return errors.FileSystemError(path, err)
	}
	// WriteFile keeps the previous mode when overwriting an earlier install
	if err := os.Chmod(path, 0700); err != nil {
		return errors.FileSystemError(path, err)
	}
	return nil
}
