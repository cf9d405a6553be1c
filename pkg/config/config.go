// Package config provides configuration management and settings for codesweep
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/codesweep/codesweep/pkg/autofix"
	"github.com/codesweep/codesweep/pkg/gate"
	"github.com/codesweep/codesweep/pkg/hooks"
	"github.com/codesweep/codesweep/pkg/logger"
	"github.com/codesweep/codesweep/pkg/prreview"
	"github.com/codesweep/codesweep/pkg/scanner"
)

// Log level constants
const (
	logLevelDebug = "debug"
)

// Config represents the application configuration
type Config struct {
	Version string `yaml:"version"`

	Scan   ScanConfig   `yaml:"scan"`
	Fix    FixConfig    `yaml:"fix"`
	Gate   GateConfig   `yaml:"gate"`
	Hooks  HooksConfig  `yaml:"hooks"`
	Review ReviewConfig `yaml:"review"`

	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScanConfig holds project scanning settings
type ScanConfig struct {
	FilePatterns     []string `yaml:"file_patterns"`
	ExcludedPatterns []string `yaml:"excluded_patterns"`
	MaxFileSize      int64    `yaml:"max_file_size"`
	ParallelWorkers  int      `yaml:"parallel_workers"`
	UseGitignore     bool     `yaml:"use_gitignore"`
}

// FixConfig holds auto-fix settings
type FixConfig struct {
	SafetyLevel   string `yaml:"safety_level"`
	BackupEnabled bool   `yaml:"backup_enabled"`
	BackupDir     string `yaml:"backup_dir"`
	CheckpointDir string `yaml:"checkpoint_dir"`
	AppliedBy     string `yaml:"applied_by"`
}

// GateConfig selects the quality gate used when no command flag names one
type GateConfig struct {
	Default string `yaml:"default"`
}

// HooksConfig holds Git hook settings
type HooksConfig struct {
	Extensions     []string `yaml:"extensions"`
	IgnorePatterns []string `yaml:"ignore_patterns"`
	PreCommitGate  string   `yaml:"pre_commit_gate"`
	PrePushGate    string   `yaml:"pre_push_gate"`
	CoverageFile   string   `yaml:"coverage_file"`
}

// ReviewConfig holds pull request review settings
type ReviewConfig struct {
	GateName               string `yaml:"gate_name"`
	ApplyFixes             bool   `yaml:"apply_fixes"`
	ManualReviewIssueLimit int    `yaml:"manual_review_issue_limit"`
}

// UIConfig holds user interface settings
type UIConfig struct {
	Theme           string `yaml:"theme"`
	ShowTimestamps  bool   `yaml:"show_timestamps"`
	VerboseOutput   bool   `yaml:"verbose_output"`
	RefreshInterval int    `yaml:"refresh_interval"`
	Notifications   bool   `yaml:"notifications"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Use current directory as fallback if home directory cannot be determined
		homeDir = "."
	}

	scanDefaults := scanner.DefaultScanConfig("")
	hookDefaults := hooks.DefaultConfig("")
	reviewDefaults := prreview.DefaultConfig("")

	return &Config{
		Version: "1.0",

		Scan: ScanConfig{
			FilePatterns:     scanDefaults.FilePatterns,
			ExcludedPatterns: scanDefaults.ExcludedPatterns,
			MaxFileSize:      scanDefaults.MaxFileSize,
			ParallelWorkers:  scanDefaults.ParallelWorkers,
			UseGitignore:     true,
		},

		Fix: FixConfig{
			SafetyLevel:   autofix.SafetyConservative.String(),
			BackupEnabled: true,
			BackupDir:     filepath.Join(".codesweep", "backups"),
			CheckpointDir: filepath.Join(".codesweep", "checkpoints"),
			AppliedBy:     "codesweep",
		},

		Gate: GateConfig{
			Default: gate.GateStandard,
		},

		Hooks: HooksConfig{
			Extensions:     hookDefaults.Extensions,
			IgnorePatterns: hookDefaults.IgnorePatterns,
			PreCommitGate:  hookDefaults.PreCommitGate,
			PrePushGate:    hookDefaults.PrePushGate,
		},

		Review: ReviewConfig{
			GateName:               reviewDefaults.GateName,
			ApplyFixes:             false,
			ManualReviewIssueLimit: reviewDefaults.ManualReviewIssueLimit,
		},

		UI: UIConfig{
			Theme:           "dark",
			ShowTimestamps:  true,
			VerboseOutput:   false,
			RefreshInterval: 100,
			Notifications:   true,
		},

		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, ".codesweep", "logs", "codesweep.log"),
		},
	}
}

// GetConfigPaths returns the list of configuration file paths to check
func GetConfigPaths() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Use current directory as fallback if home directory cannot be determined
		homeDir = "."
	}

	paths := []string{
		".codesweep.yaml",
		".codesweep.yml",
		filepath.Join(homeDir, ".codesweep.yaml"),
		filepath.Join(homeDir, ".codesweep.yml"),
		filepath.Join(homeDir, ".config", "codesweep", "config.yaml"),
		filepath.Join(homeDir, ".config", "codesweep", "config.yml"),
	}

	// Add environment variable override
	if envPath := os.Getenv("CODESWEEP_CONFIG"); envPath != "" {
		paths = append([]string{envPath}, paths...)
	}

	return paths
}

// validGateName reports whether name is one of the built-in quality gates
func validGateName(name string) bool {
	switch name {
	case gate.GateLenient, gate.GateStandard, gate.GateStrict:
		return true
	default:
		return false
	}
}

// ParseSafetyLevel maps a configured safety level name to the engine's type
func ParseSafetyLevel(name string) (autofix.SafetyLevel, error) {
	switch name {
	case "conservative":
		return autofix.SafetyConservative, nil
	case "moderate":
		return autofix.SafetyModerate, nil
	case "aggressive":
		return autofix.SafetyAggressive, nil
	default:
		return autofix.SafetyConservative, fmt.Errorf("fix.safety_level must be one of: conservative, moderate, aggressive")
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate scan configuration
	if c.Scan.ParallelWorkers < 1 {
		return fmt.Errorf("scan.parallel_workers must be at least 1")
	}
	if c.Scan.MaxFileSize < 1 {
		return fmt.Errorf("scan.max_file_size must be positive")
	}

	// Validate fix configuration
	if _, err := ParseSafetyLevel(c.Fix.SafetyLevel); err != nil {
		return err
	}

	// Validate gate selections
	if !validGateName(c.Gate.Default) {
		return fmt.Errorf("gate.default must be one of: lenient, standard, strict")
	}
	if !validGateName(c.Hooks.PreCommitGate) {
		return fmt.Errorf("hooks.pre_commit_gate must be one of: lenient, standard, strict")
	}
	if !validGateName(c.Hooks.PrePushGate) {
		return fmt.Errorf("hooks.pre_push_gate must be one of: lenient, standard, strict")
	}
	if !validGateName(c.Review.GateName) {
		return fmt.Errorf("review.gate_name must be one of: lenient, standard, strict")
	}

	// Validate review configuration
	if c.Review.ManualReviewIssueLimit < 1 {
		return fmt.Errorf("review.manual_review_issue_limit must be at least 1")
	}

	// Validate UI configuration
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[c.UI.Theme] {
		return fmt.Errorf("ui.theme must be one of: dark, light, auto")
	}
	if c.UI.RefreshInterval < 10 {
		return fmt.Errorf("ui.refresh_interval must be at least 10ms")
	}

	// Validate logging configuration
	validLevels := map[string]bool{
		logLevelDebug: true,
		"info":        true,
		"warn":        true,
		"error":       true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}

// ApplyEnvironmentOverrides applies environment variable overrides to the configuration
func (c *Config) ApplyEnvironmentOverrides() {
	// Gate and fix overrides
	if gateName := os.Getenv("CODESWEEP_GATE"); gateName != "" {
		c.Gate.Default = gateName
	}
	if level := os.Getenv("CODESWEEP_SAFETY_LEVEL"); level != "" {
		c.Fix.SafetyLevel = level
	}

	// Logging overrides
	if level := os.Getenv("CODESWEEP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("CODESWEEP_LOG_FILE"); file != "" {
		c.Logging.File = file
	}

	// Debug mode override
	if os.Getenv("CODESWEEP_DEBUG") == "true" {
		c.Logging.Level = logLevelDebug
		c.UI.VerboseOutput = true
	}
}

// ToScanConfig builds the scanner configuration for a project. The scanner
// fills the project id and any zero-valued limits itself.
func (c *Config) ToScanConfig(projectPath string) scanner.ScanConfig {
	return scanner.ScanConfig{
		ProjectPath:      projectPath,
		FilePatterns:     c.Scan.FilePatterns,
		ExcludedPatterns: c.Scan.ExcludedPatterns,
		MaxFileSize:      c.Scan.MaxFileSize,
		ParallelWorkers:  c.Scan.ParallelWorkers,
		UseGitignore:     c.Scan.UseGitignore,
	}
}

// ToEngineConfig builds the auto-fix engine configuration. An unparseable
// safety level falls back to conservative rather than failing the command;
// Validate reports it to the user first.
func (c *Config) ToEngineConfig() autofix.EngineConfig {
	level, err := ParseSafetyLevel(c.Fix.SafetyLevel)
	if err != nil {
		level = autofix.SafetyConservative
	}
	return autofix.EngineConfig{
		SafetyLevel:   level,
		BackupDir:     c.Fix.BackupDir,
		CheckpointDir: c.Fix.CheckpointDir,
		AppliedBy:     c.Fix.AppliedBy,
	}
}

// ToHooksConfig builds the Git hook configuration for a repository
func (c *Config) ToHooksConfig(projectPath string) hooks.Config {
	return hooks.Config{
		ProjectPath:    projectPath,
		Extensions:     c.Hooks.Extensions,
		IgnorePatterns: c.Hooks.IgnorePatterns,
		PreCommitGate:  c.Hooks.PreCommitGate,
		PrePushGate:    c.Hooks.PrePushGate,
		CoverageFile:   c.Hooks.CoverageFile,
	}
}

// ToReviewConfig builds the pull request analysis configuration. File
// selection follows the hook settings so hooks and reviews agree on which
// files count.
func (c *Config) ToReviewConfig(projectPath string) prreview.Config {
	return prreview.Config{
		ProjectPath:            projectPath,
		GateName:               c.Review.GateName,
		Extensions:             c.Hooks.Extensions,
		IgnorePatterns:         c.Hooks.IgnorePatterns,
		ApplyFixes:             c.Review.ApplyFixes,
		ManualReviewIssueLimit: c.Review.ManualReviewIssueLimit,
		CoverageFile:           c.Hooks.CoverageFile,
	}
}

// ToLoggerConfig converts the logging configuration to logger.Config
func (c *Config) ToLoggerConfig() logger.Config {
	var level logger.Level
	switch c.Logging.Level {
	case logLevelDebug:
		level = logger.LevelDebug
	case "info":
		level = logger.LevelInfo
	case "warn":
		level = logger.LevelWarn
	case "error":
		level = logger.LevelError
	default:
		level = logger.LevelInfo
	}

	return logger.Config{
		Level:     level,
		LogFile:   c.Logging.File,
		Debug:     c.Logging.Level == logLevelDebug,
		Timestamp: c.UI.ShowTimestamps,
		Prefix:    "codesweep",
	}
}
