package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/scanner"
)

// scanIssueDisplayLimit caps the issue listing in non-verbose output
const scanIssueDisplayLimit = 25

// issueStoreFile is the project-local issue ledger, next to the fix audit
// trail.
var issueStoreFile = filepath.Join(".codesweep", "issues.json")

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a project for quality and security issues",
	Long: `Scan walks the project tree, runs every registered analyzer on the
matching files and prints an issue summary.

The scan is informational: it exits 0 whenever the tree could be read,
regardless of what it found. Use 'codesweep gate' to turn scan results
into a pass/fail verdict.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("json", false, "print the full scan result as JSON")
	scanCmd.Flags().Bool("no-progress", false, "disable the progress spinner")
	scanCmd.Flags().Int("workers", 0, "parallel scan workers (0 uses the configured default)")
}

func runScan(cmd *cobra.Command, args []string) error {
	projectPath, err := resolveProjectPath(args)
	if err != nil {
		return err
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
	}
	noProgress, err := cmd.Flags().GetBool("no-progress")
	if err != nil {
		return fmt.Errorf("failed to get no-progress flag: %w", err)
	}
	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return fmt.Errorf("failed to get workers flag: %w", err)
	}

	cfg := loadedConfig()
	scanConfig := cfg.ToScanConfig(projectPath)
	if workers > 0 {
		scanConfig.ParallelWorkers = workers
	}

	var progress *spinner.Spinner
	if !jsonOutput && !noProgress {
		progress = spinner.New(spinner.CharSets[11], 100*time.Millisecond)
		progress.Suffix = " Scanning " + projectPath + "..."
		progress.Start()
	}

	result, err := buildFramework().ScanProject(cmd.Context(), scanConfig)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	sync, storeErr := syncIssueStore(projectPath, result)

	if jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode scan result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if storeErr != nil {
		fmt.Printf("Warning: issue store unavailable: %v\n", storeErr)
	}
	printScanSummary(result, cfg.UI.VerboseOutput)
	printStoreSummary(sync)
	return nil
}

// syncIssueStore folds a full project scan into the project's issue ledger
// so findings keep their identity and status across runs
func syncIssueStore(projectPath string, result *scanner.ScanResult) (*scanner.SyncSummary, error) {
	store, err := scanner.NewIssueStore(filepath.Join(projectPath, issueStoreFile))
	if err != nil {
		return nil, err
	}
	return store.SyncScan(result)
}

func printStoreSummary(sync *scanner.SyncSummary) {
	if sync == nil {
		return
	}
	line := fmt.Sprintf("Issue ledger: %d open, %d new, %d reopened, %d resolved",
		sync.Open, sync.Added, sync.Reopened, sync.Resolved)
	fmt.Printf("\n%s\n", color.HiBlackString(line))
}

func printScanSummary(result *scanner.ScanResult, verbose bool) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	fmt.Println()
	if result.TotalIssues == 0 {
		green.Printf("✅ %d file(s) clean", result.FilesScanned)
		fmt.Printf(" (%s)\n", result.Duration.Round(time.Millisecond))
		printScanErrors(red, result.Errors)
		return
	}

	yellow.Printf("⚠️  %d issue(s) in %d file(s)", result.TotalIssues, result.FilesScanned)
	fmt.Printf(" (%s)\n\n", result.Duration.Round(time.Millisecond))

	fmt.Println("Issues by severity:")
	for _, severity := range severityDisplayOrder {
		count := result.IssuesBySeverity[severity.String()]
		if count == 0 {
			continue
		}
		severityColor(severity).Printf("   %-8s %d\n", severity, count)
	}

	fmt.Println()
	printIssueList(result.Issues, verbose)
	printScanErrors(red, result.Errors)

	fixable := 0
	for _, issue := range result.Issues {
		if issue.AutoFixable {
			fixable++
		}
	}
	if fixable > 0 {
		hint := fmt.Sprintf("%d issue(s) are auto-fixable. Run 'codesweep fix' to apply them.", fixable)
		fmt.Printf("\n💡 %s\n", color.HiBlackString(hint))
	}
}

func printIssueList(issues []*analysis.Issue, verbose bool) {
	sorted := make([]*analysis.Issue, len(issues))
	copy(sorted, issues)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Severity != sorted[j].Severity {
			return sorted[i].Severity > sorted[j].Severity
		}
		if sorted[i].FilePath != sorted[j].FilePath {
			return sorted[i].FilePath < sorted[j].FilePath
		}
		return sorted[i].LineNumber < sorted[j].LineNumber
	})

	limit := len(sorted)
	if !verbose && limit > scanIssueDisplayLimit {
		limit = scanIssueDisplayLimit
	}

	for _, issue := range sorted[:limit] {
		severityColor(issue.Severity).Printf("   [%s]", issue.Severity)
		fmt.Printf(" %s:%d %s\n", issue.FilePath, issue.LineNumber, issue.Description)
		if verbose && issue.SuggestedFix != "" {
			fmt.Printf("      Fix: %s\n", color.CyanString(issue.SuggestedFix))
		}
	}
	if limit < len(sorted) {
		fmt.Printf("   ... and %d more. Run with --verbose to list everything.\n", len(sorted)-limit)
	}
}

func printScanErrors(red *color.Color, errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Println()
	red.Printf("❌ %d file(s) could not be analyzed:\n", len(errs))
	for _, scanErr := range errs {
		fmt.Printf("   %s\n", scanErr)
	}
}

// severityDisplayOrder lists severities from most to least urgent
var severityDisplayOrder = []analysis.Severity{
	analysis.SeverityCritical,
	analysis.SeverityHigh,
	analysis.SeverityMedium,
	analysis.SeverityLow,
}

func severityColor(severity analysis.Severity) *color.Color {
	switch severity {
	case analysis.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case analysis.SeverityHigh:
		return color.New(color.FgRed)
	case analysis.SeverityMedium:
		return color.New(color.FgYellow)
	case analysis.SeverityLow:
		return color.New(color.FgWhite)
	default:
		return color.New(color.FgWhite)
	}
}
