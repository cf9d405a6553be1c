package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/pkg/gate"
	"github.com/codesweep/codesweep/pkg/testquality"
)

// gateCmd represents the gate command
var gateCmd = &cobra.Command{
	Use:   "gate [path]",
	Short: "Evaluate a project against a quality gate",
	Long: `Gate scans the project and checks the result against a named quality
gate. The verdict drives the exit code: 0 for a pass, 1 for a
conditional pass, 2 for a failure.

Coverage enforcement needs a coverage report; pass one with --coverage
(Cobertura XML, coverage JSON, or a Go cover profile) or configure
hooks.coverage_file. Without one, coverage criteria are not evaluated.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGate,
}

func init() {
	rootCmd.AddCommand(gateCmd)

	gateCmd.Flags().String("gate", "", "gate to evaluate (lenient, standard, strict)")
	gateCmd.Flags().String("coverage", "", "coverage report file")
	gateCmd.Flags().Bool("json", false, "print the evaluation as JSON")
}

func runGate(cmd *cobra.Command, args []string) error {
	projectPath, err := resolveProjectPath(args)
	if err != nil {
		return err
	}

	gateName, err := cmd.Flags().GetString("gate")
	if err != nil {
		return fmt.Errorf("failed to get gate flag: %w", err)
	}
	coverageFile, err := cmd.Flags().GetString("coverage")
	if err != nil {
		return fmt.Errorf("failed to get coverage flag: %w", err)
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
	}

	cfg := loadedConfig()
	if gateName == "" {
		gateName = cfg.Gate.Default
	}
	if coverageFile == "" {
		coverageFile = cfg.Hooks.CoverageFile
	}

	var coverage *testquality.CoverageData
	if coverageFile != "" {
		coverage, err = testquality.LoadCoverageFile(coverageFile)
		if err != nil {
			return fmt.Errorf("failed to load coverage from %s: %w", coverageFile, err)
		}
	}

	var progress *spinner.Spinner
	if !jsonOutput {
		progress = spinner.New(spinner.CharSets[11], 100*time.Millisecond)
		progress.Suffix = " Scanning " + projectPath + "..."
		progress.Start()
	}

	scan, err := buildFramework().ScanProject(cmd.Context(), cfg.ToScanConfig(projectPath))
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	evaluation := gate.NewEvaluator().Evaluate(gateName, scan, coverage)

	if jsonOutput {
		data, err := json.MarshalIndent(evaluation, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode evaluation: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printEvaluation(evaluation, scan.TotalIssues)
	}

	return gateExitError(evaluation.Result)
}

func printEvaluation(evaluation *gate.Evaluation, totalIssues int) {
	fmt.Println()
	switch evaluation.Result {
	case gate.Pass:
		color.New(color.FgGreen, color.Bold).Printf("✅ PASS")
	case gate.ConditionalPass:
		color.New(color.FgYellow, color.Bold).Printf("⚠️  CONDITIONAL PASS")
	default:
		color.New(color.FgRed, color.Bold).Printf("❌ FAIL")
	}
	fmt.Printf(": %s gate, %d issue(s) found\n", evaluation.GateName, totalIssues)

	for _, reason := range evaluation.Reasons {
		fmt.Printf("   - %s\n", reason)
	}
}
