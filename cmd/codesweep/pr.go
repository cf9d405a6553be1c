package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/pkg/gate"
	"github.com/codesweep/codesweep/pkg/github"
	"github.com/codesweep/codesweep/pkg/hooks"
	"github.com/codesweep/codesweep/pkg/prreview"
)

// prCmd represents the pr command
var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Analyze pull requests and automate the review workflow",
}

// prAnalyzeCmd represents the pr analyze command
var prAnalyzeCmd = &cobra.Command{
	Use:   "analyze <owner/repo#number> [path]",
	Short: "Run quality analysis on a pull request's changed files",
	Long: `Analyze diffs the pull request's branches in the local repository,
scans the changed files, evaluates the configured gate and renders a
review comment. With --post the comment is published to GitHub through
the authenticated gh credentials.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPRAnalyze,
}

// prSetupCmd represents the pr setup command
var prSetupCmd = &cobra.Command{
	Use:   "setup [path]",
	Short: "Install the automated review workflow",
	Long: `Setup installs the Git hooks and persists the workflow configuration
under .codesweep so every commit and push runs the review checks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPRSetup,
}

// prCheckCmd represents the pr check command
var prCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Run the full quality check the automated workflow runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPRCheck,
}

// prRemoveCmd represents the pr remove command
var prRemoveCmd = &cobra.Command{
	Use:   "remove [path]",
	Short: "Remove the automated review workflow",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPRRemove,
}

func init() {
	rootCmd.AddCommand(prCmd)
	prCmd.AddCommand(prAnalyzeCmd)
	prCmd.AddCommand(prSetupCmd)
	prCmd.AddCommand(prCheckCmd)
	prCmd.AddCommand(prRemoveCmd)

	prAnalyzeCmd.Flags().String("base", "", "base branch (default: the repository's default branch)")
	prAnalyzeCmd.Flags().String("head", "", "head branch (default: HEAD)")
	prAnalyzeCmd.Flags().String("gate", "", "gate to evaluate (lenient, standard, strict)")
	prAnalyzeCmd.Flags().Bool("fix", false, "apply auto-fixes to the changed files")
	prAnalyzeCmd.Flags().Bool("post", false, "post the review comment to GitHub")
	prAnalyzeCmd.Flags().Bool("json", false, "print the analysis as JSON")

	prCheckCmd.Flags().Bool("fix", false, "apply auto-fixes during the check")
}

func runPRAnalyze(cmd *cobra.Command, args []string) error {
	projectPath, err := resolveProjectPath(args[1:])
	if err != nil {
		return err
	}

	baseBranch, err := cmd.Flags().GetString("base")
	if err != nil {
		return fmt.Errorf("failed to get base flag: %w", err)
	}
	headBranch, err := cmd.Flags().GetString("head")
	if err != nil {
		return fmt.Errorf("failed to get head flag: %w", err)
	}
	gateName, err := cmd.Flags().GetString("gate")
	if err != nil {
		return fmt.Errorf("failed to get gate flag: %w", err)
	}
	applyFix, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return fmt.Errorf("failed to get fix flag: %w", err)
	}
	post, err := cmd.Flags().GetBool("post")
	if err != nil {
		return fmt.Errorf("failed to get post flag: %w", err)
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
	}

	cfg := loadedConfig()
	reviewConfig := cfg.ToReviewConfig(projectPath)
	if applyFix {
		reviewConfig.ApplyFixes = true
	}

	integration, err := prreview.NewIntegration(reviewConfig, buildFramework(), nil)
	if err != nil {
		return fmt.Errorf("failed to open repository at %s: %w", projectPath, err)
	}

	if reviewConfig.ApplyFixes {
		engine, err := buildFixEngine(cfg, projectPath, "")
		if err != nil {
			return err
		}
		integration = integration.WithAutoFix(engine)
	}

	if post {
		service, err := github.NewService()
		if err != nil {
			return fmt.Errorf("GitHub access unavailable: %w", err)
		}
		if err := service.CheckReviewPreconditions(cmd.Context()); err != nil {
			return err
		}
		integration = integration.WithPublisher(service)
	}

	var progress *spinner.Spinner
	if !jsonOutput {
		progress = spinner.New(spinner.CharSets[11], 100*time.Millisecond)
		progress.Suffix = " Analyzing " + args[0] + "..."
		progress.Start()
	}

	analysis, err := integration.AnalyzePullRequest(cmd.Context(), args[0], baseBranch, headBranch, gateName)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return fmt.Errorf("pull request analysis failed: %w", err)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode analysis: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printPRAnalysis(analysis)
	}

	return gateExitError(analysis.Evaluation.Result)
}

func runPRSetup(cmd *cobra.Command, args []string) error {
	automation, err := buildWorkflowAutomation(args, false)
	if err != nil {
		return err
	}

	workflow, err := automation.SetupAutomatedWorkflow()
	if err != nil {
		return fmt.Errorf("workflow setup failed: %w", err)
	}

	green := color.New(color.FgGreen)
	for _, hook := range workflow.InstalledHooks {
		green.Printf("✅ installed %s\n", hook)
	}
	fmt.Printf("Automated review workflow active (%s gate)\n", workflow.GateName)
	return nil
}

func runPRCheck(cmd *cobra.Command, args []string) error {
	applyFix, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return fmt.Errorf("failed to get fix flag: %w", err)
	}

	automation, err := buildWorkflowAutomation(args, applyFix)
	if err != nil {
		return err
	}

	progress := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	progress.Suffix = " Running full quality check..."
	progress.Start()

	report, err := automation.RunFullQualityCheck(cmd.Context())
	progress.Stop()
	if err != nil {
		return fmt.Errorf("quality check failed: %w", err)
	}

	fmt.Println()
	fmt.Println(report.Summary)
	for _, reason := range report.Evaluation.Reasons {
		fmt.Printf("   - %s\n", reason)
	}
	if report.FixesApplied > 0 {
		fmt.Printf("🔧 %d fix(es) applied to %d file(s)\n", report.FixesApplied, len(report.FixedFiles))
	}

	switch report.Status {
	case hooks.Warning:
		return errConditionalPass
	case hooks.Blocked:
		return errGateFailed
	default:
		return nil
	}
}

func runPRRemove(cmd *cobra.Command, args []string) error {
	automation, err := buildWorkflowAutomation(args, false)
	if err != nil {
		return err
	}

	if err := automation.RemoveAutomatedWorkflow(); err != nil {
		return fmt.Errorf("workflow removal failed: %w", err)
	}
	fmt.Println("✅ Automated review workflow removed")
	return nil
}

// buildWorkflowAutomation wires the hook manager, framework and optional
// fix engine the workflow commands share.
func buildWorkflowAutomation(pathArgs []string, applyFix bool) (*prreview.WorkflowAutomation, error) {
	projectPath, err := resolveProjectPath(pathArgs)
	if err != nil {
		return nil, err
	}

	cfg := loadedConfig()
	reviewConfig := cfg.ToReviewConfig(projectPath)
	if applyFix {
		reviewConfig.ApplyFixes = true
	}

	framework := buildFramework()
	manager, err := hooks.NewManager(cfg.ToHooksConfig(projectPath), framework, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", projectPath, err)
	}

	automation, err := prreview.NewWorkflowAutomation(reviewConfig, manager, framework, nil)
	if err != nil {
		return nil, err
	}
	if reviewConfig.ApplyFixes {
		engine, err := buildFixEngine(cfg, projectPath, "")
		if err != nil {
			return nil, err
		}
		automation = automation.WithAutoFix(engine)
	}
	return automation, nil
}

// gateExitError maps a gate verdict onto the sentinel the exit code logic
// understands.
func gateExitError(result gate.Result) error {
	switch result {
	case gate.ConditionalPass:
		return errConditionalPass
	case gate.Fail:
		return errGateFailed
	default:
		return nil
	}
}

func printPRAnalysis(analysis *prreview.Analysis) {
	fmt.Println()
	switch analysis.Evaluation.Result {
	case gate.Pass:
		color.New(color.FgGreen, color.Bold).Printf("✅ %s", analysis.Verdict())
	case gate.ConditionalPass:
		color.New(color.FgYellow, color.Bold).Printf("⚠️  %s", analysis.Verdict())
	default:
		color.New(color.FgRed, color.Bold).Printf("❌ %s", analysis.Verdict())
	}
	fmt.Printf(" (%s gate, %d file(s), %d issue(s))\n",
		analysis.GateName, len(analysis.FilesChecked), analysis.Scan.TotalIssues)

	if analysis.FixesApplied > 0 {
		fmt.Printf("🔧 %d fix(es) applied to %d file(s)\n", analysis.FixesApplied, len(analysis.FixedFiles))
	}
	for _, reason := range analysis.ReviewReasons {
		fmt.Printf("   - %s\n", reason)
	}

	fmt.Println()
	fmt.Println(analysis.Comment)

	if analysis.CommentPosted {
		fmt.Printf("💬 Review comment posted to %s\n", analysis.PullRequestID)
	}
}
