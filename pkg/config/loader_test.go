package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	config, err := NewLoader(configPath).LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error for a missing config file, got: %v", err)
	}
	if config == nil {
		t.Fatal("Expected default config, got nil")
	}
	if config.Version != "1.0" {
		t.Errorf("Expected default version 1.0, got %s", config.Version)
	}
	if config.UI.Theme != "dark" {
		t.Errorf("Expected default theme dark, got %s", config.UI.Theme)
	}
}

func TestLoadConfigOverlaysPartialFile(t *testing.T) {
	configPath := writeConfigFile(t, t.TempDir(), "config.yaml", `
gate:
  default: strict
scan:
  parallel_workers: 8
`)

	config, err := NewLoader(configPath).LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Gate.Default != "strict" {
		t.Errorf("Expected gate strict, got %s", config.Gate.Default)
	}
	if config.Scan.ParallelWorkers != 8 {
		t.Errorf("Expected 8 parallel workers, got %d", config.Scan.ParallelWorkers)
	}

	// Options the file does not mention keep their defaults.
	if config.UI.Theme != "dark" {
		t.Errorf("Expected default theme dark, got %s", config.UI.Theme)
	}
	if len(config.Scan.FilePatterns) == 0 {
		t.Error("Expected default file patterns to survive a partial config")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	configPath := writeConfigFile(t, t.TempDir(), "config.yaml", `
gate:
  default: strict
scanning:
  parallel_workers: 8
`)

	_, err := NewLoader(configPath).LoadConfig()
	if err == nil {
		t.Fatal("Expected an error for an unknown config key")
	}
	if !strings.Contains(err.Error(), "scanning") {
		t.Errorf("Expected the error to name the unknown key, got: %v", err)
	}
}

func TestLoadConfigEmptyFile(t *testing.T) {
	configPath := writeConfigFile(t, t.TempDir(), "config.yaml", "")

	config, err := NewLoader(configPath).LoadConfig()
	if err != nil {
		t.Fatalf("Expected an empty config file to load defaults, got: %v", err)
	}
	if config.Version != "1.0" {
		t.Errorf("Expected default version 1.0, got %s", config.Version)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := writeConfigFile(t, t.TempDir(), "config.yaml", "gate: [unclosed")

	_, err := NewLoader(configPath).LoadConfig()
	if err == nil {
		t.Fatal("Expected an error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("Expected a parse error, got: %v", err)
	}
}

func TestLoadConfigValidationNamesFile(t *testing.T) {
	configPath := writeConfigFile(t, t.TempDir(), "config.yaml", `
scan:
  parallel_workers: -1
`)

	_, err := NewLoader(configPath).LoadConfig()
	if err == nil {
		t.Fatal("Expected a validation error")
	}
	if !strings.Contains(err.Error(), "scan.parallel_workers") {
		t.Errorf("Expected the error to name the bad option, got: %v", err)
	}
	if !strings.Contains(err.Error(), configPath) {
		t.Errorf("Expected the error to name the config file, got: %v", err)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	loader := NewLoader(configPath)

	original := DefaultConfig()
	original.Gate.Default = "strict"
	original.Scan.ParallelWorkers = 8
	original.UI.Theme = "light"

	if err := loader.SaveConfig(original); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# codesweep configuration") {
		t.Error("Expected the saved config to start with the generated header")
	}

	loaded, err := NewLoader(configPath).LoadConfig()
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if loaded.Gate.Default != "strict" {
		t.Errorf("Expected gate strict, got %s", loaded.Gate.Default)
	}
	if loaded.Scan.ParallelWorkers != 8 {
		t.Errorf("Expected 8 parallel workers, got %d", loaded.Scan.ParallelWorkers)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("Expected theme light, got %s", loaded.UI.Theme)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := CreateDefaultConfig(configPath); err != nil {
		t.Fatalf("Failed to create default config: %v", err)
	}

	config, err := NewLoader(configPath).LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load created config: %v", err)
	}
	if config.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}
}

func TestLoadOrCreateConfigExplicitPathIsNotCreated(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	config, err := LoadOrCreateConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if config.Version != "1.0" {
		t.Errorf("Expected default version 1.0, got %s", config.Version)
	}
	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		t.Error("Expected an explicit config path to stay uncreated")
	}
}

func TestLoadOrCreateConfigFirstRun(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	config, err := LoadOrCreateConfig("")
	if err != nil {
		t.Fatalf("Failed to load config on first run: %v", err)
	}
	if config.Version != "1.0" {
		t.Errorf("Expected default version 1.0, got %s", config.Version)
	}

	created := filepath.Join(home, ".config", "codesweep", "config.yaml")
	if _, err := os.Stat(created); err != nil {
		t.Fatalf("Expected first run to create %s: %v", created, err)
	}
}

func TestLoadConfigSearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, ".codesweep.yaml", `
gate:
  default: lenient
`)

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	loader := NewLoader("")
	config, err := loader.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to find and load config: %v", err)
	}
	if config.Gate.Default != "lenient" {
		t.Errorf("Expected lenient gate from discovered config, got %s", config.Gate.Default)
	}
	if loader.GetConfigPath() != ".codesweep.yaml" {
		t.Errorf("Expected the loader to record the discovered path, got %s", loader.GetConfigPath())
	}
}

func TestEnvironmentConfigPathWins(t *testing.T) {
	configPath := writeConfigFile(t, t.TempDir(), "custom.yaml", `
gate:
  default: lenient
`)
	t.Setenv("CODESWEEP_CONFIG", configPath)

	paths := GetConfigPaths()
	if len(paths) == 0 || paths[0] != configPath {
		t.Errorf("Expected %s to lead the search order, got %v", configPath, paths)
	}

	config, err := NewLoader("").LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config from environment path: %v", err)
	}
	if config.Gate.Default != "lenient" {
		t.Errorf("Expected lenient gate from env config, got %s", config.Gate.Default)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath := "/test/path/config.yaml"

	if got := NewLoader(configPath).GetConfigPath(); got != configPath {
		t.Errorf("Expected config path %s, got %s", configPath, got)
	}
}
