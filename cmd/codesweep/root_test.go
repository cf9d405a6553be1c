package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/config"
	"github.com/codesweep/codesweep/pkg/gate"
	"github.com/codesweep/codesweep/pkg/recommend"
	"github.com/codesweep/codesweep/pkg/testquality"
)

func TestExecute(t *testing.T) {
	// Save original args and command
	oldArgs := os.Args
	oldRootCmd := rootCmd
	defer func() {
		os.Args = oldArgs
		rootCmd = oldRootCmd
	}()

	// Create a test command that doesn't exit
	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Test command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	rootCmd = testCmd

	// Test successful execution
	os.Args = []string{"test"}
	Execute() // Should not panic or exit
}

func TestInitConfig(t *testing.T) {
	// Save original variables
	oldCfgFile := cfgFile
	oldDebug := debug
	oldVerbose := verbose
	oldAppConfig := appConfig

	defer func() {
		cfgFile = oldCfgFile
		debug = oldDebug
		verbose = oldVerbose
		appConfig = oldAppConfig
	}()

	// Test with default values
	cfgFile = ""
	debug = false
	verbose = false

	// This should not panic
	initConfig()
	assert.NotNil(t, appConfig)

	// Test with debug flag
	debug = true
	initConfig()
	assert.Equal(t, "debug", appConfig.Logging.Level)
	assert.True(t, appConfig.UI.VerboseOutput)

	// Test with verbose flag
	verbose = true
	debug = false
	initConfig()
	assert.True(t, appConfig.UI.VerboseOutput)

	// Test with a non-existent config file
	cfgFile = "/non/existent/config.yaml"
	debug = true // Enable debug to see warnings
	initConfig()
	assert.NotNil(t, appConfig)
}

func TestLoadedConfig(t *testing.T) {
	oldAppConfig := appConfig
	defer func() { appConfig = oldAppConfig }()

	appConfig = nil
	cfg := loadedConfig()
	assert.NotNil(t, cfg)
	assert.Equal(t, config.DefaultConfig().Gate.Default, cfg.Gate.Default)

	custom := config.DefaultConfig()
	custom.Gate.Default = gate.GateStrict
	appConfig = custom
	assert.Equal(t, gate.GateStrict, loadedConfig().Gate.Default)
}

func TestBuildPipeline(t *testing.T) {
	pipeline := buildPipeline()

	names := pipeline.AnalyzerNames()
	assert.Contains(t, names, analysis.DetectorName)
	assert.Contains(t, names, recommend.EngineName)
	assert.Contains(t, names, testquality.AnalyzerName)
}

func TestBuildFramework(t *testing.T) {
	framework := buildFramework()

	assert.NotNil(t, framework)
	assert.NotNil(t, framework.Pipeline())
}

func TestResolveProjectPath(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("directory argument", func(t *testing.T) {
		path, err := resolveProjectPath([]string{tempDir})
		require.NoError(t, err)
		assert.Equal(t, tempDir, path)
	})

	t.Run("no argument defaults to the working directory", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)

		path, err := resolveProjectPath(nil)
		require.NoError(t, err)
		assert.Equal(t, wd, path)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := resolveProjectPath([]string{filepath.Join(tempDir, "missing")})
		assert.Error(t, err)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		file := filepath.Join(tempDir, "file.go")
		require.NoError(t, os.WriteFile(file, []byte("package main\n"), 0o600))

		_, err := resolveProjectPath([]string{file})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})
}

func TestGateExitError(t *testing.T) {
	tests := []struct {
		name     string
		result   gate.Result
		expected error
	}{
		{name: "pass exits clean", result: gate.Pass, expected: nil},
		{name: "conditional pass maps to exit 1", result: gate.ConditionalPass, expected: errConditionalPass},
		{name: "fail maps to exit 2", result: gate.Fail, expected: errGateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, gateExitError(tt.result))
		})
	}
}
