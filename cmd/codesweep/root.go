package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/config"
	"github.com/codesweep/codesweep/pkg/logger"
	"github.com/codesweep/codesweep/pkg/recommend"
	"github.com/codesweep/codesweep/pkg/scanner"
	"github.com/codesweep/codesweep/pkg/testquality"
)

var (
	cfgFile string
	verbose bool
	debug   bool

	appConfig *config.Config
)

// Sentinel errors commands return to select the process exit code. Anything
// else reaching Execute is treated as a hard error.
var (
	errConditionalPass = errors.New("quality gate passed conditionally")
	errGateFailed      = errors.New("quality gate failed")
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codesweep",
	Short: "Code quality scanning, auto-fixes and quality gates",
	Long: `codesweep scans source trees for quality and security issues, applies
validated automatic fixes, and enforces quality gates on commits, pushes
and pull requests.

codesweep covers the whole review loop:
- Scans files with rule-based and language-aware analyzers
- Recommends refactorings for duplicated and complex code
- Grades test suites and ingests coverage reports
- Applies auto-fixes with backups, checkpoints and an audit trail
- Blocks commits and pushes through installed Git hooks
- Analyzes pull requests and posts review comments`,
	Version:       "0.1.0-dev",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and maps command errors to the documented
// exit codes: 0 pass, 1 conditional pass, 2 gate failure or blocked hook,
// 3 hard errors.
func Execute() {
	err := rootCmd.Execute()
	switch {
	case err == nil:
	case errors.Is(err, errConditionalPass):
		os.Exit(1)
	case errors.Is(err, errGateFailed):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(3)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .codesweep.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug output")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "log file path")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("theme", "", "UI theme (dark, light)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Load configuration
	cfg, err := config.LoadOrCreateConfig(cfgFile)
	if err != nil {
		if debug {
			fmt.Printf("Warning: Failed to load config: %v\n", err)
		}
		// Use default config
		cfg = config.DefaultConfig()
	}

	// Apply command line flag overrides
	if debug {
		cfg.Logging.Level = "debug"
		cfg.UI.VerboseOutput = true
	}

	// Apply other flag overrides
	logLevel, err := rootCmd.PersistentFlags().GetString("log-level")
	if err != nil {
		logLevel = ""
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logFile, err := rootCmd.PersistentFlags().GetString("log-file")
	if err != nil {
		logFile = ""
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}
	theme, err := rootCmd.PersistentFlags().GetString("theme")
	if err != nil {
		theme = ""
	}
	if theme != "" {
		cfg.UI.Theme = theme
	}
	if verbose {
		cfg.UI.VerboseOutput = true
	}
	noColor, err := rootCmd.PersistentFlags().GetBool("no-color")
	if err == nil && noColor {
		color.NoColor = true
	}

	// Initialize logger with configuration
	loggerConfig := cfg.ToLoggerConfig()
	globalLogger, err := logger.New(loggerConfig)
	if err != nil {
		if debug {
			fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
		}
		globalLogger = logger.NewDefault()
	}
	logger.SetGlobalLogger(globalLogger)

	appConfig = cfg
}

// loadedConfig returns the configuration initConfig resolved, falling back
// to defaults when a command runs before cobra's initializers.
func loadedConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}

// buildPipeline assembles the standard analyzer stack: the rule-based
// detector, the recommendation engine and the test quality analyzer.
func buildPipeline() *analysis.Pipeline {
	pipeline := analysis.NewPipeline(analysis.DefaultRunnerConfig())
	pipeline.Register(analysis.NewDetector(analysis.DefaultDetectorConfig()))
	pipeline.Register(recommend.NewEngine(recommend.DefaultEngineConfig()))
	pipeline.Register(testquality.NewAnalyzer(testquality.DefaultAnalyzerConfig()))
	return pipeline
}

// buildFramework creates a scanning framework over the standard pipeline
func buildFramework() *scanner.Framework {
	return scanner.NewFramework(buildPipeline())
}

// resolveProjectPath turns the optional positional path argument into an
// absolute directory path, defaulting to the current directory.
func resolveProjectPath(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}

	return abs, nil
}
