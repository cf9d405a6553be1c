package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/autofix"
	"github.com/codesweep/codesweep/pkg/config"
	"github.com/codesweep/codesweep/pkg/scanner"
)

// fixHistoryFile is the project-local fix audit trail, next to the backup
// and checkpoint directories.
var fixHistoryFile = filepath.Join(".codesweep", "fixes.json")

// fixCmd represents the fix command
var fixCmd = &cobra.Command{
	Use:   "fix [path]",
	Short: "Apply automatic fixes to scan findings",
	Long: `Fix scans the project, matches every finding against the registered
fixers and applies the fixes that clear the active safety level.

Each touched file is backed up before its first mutation and every apply
attempt lands in the project's fix audit trail. Use --dry-run to preview
the plan, --checkpoint to snapshot all affected files as one restorable
unit, and --restore to roll a previous checkpoint back.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)

	fixCmd.Flags().String("safety", "", "safety level (conservative, moderate, aggressive)")
	fixCmd.Flags().Bool("dry-run", false, "list the fixes that would be applied without touching files")
	fixCmd.Flags().Bool("no-backup", false, "skip per-file backups")
	fixCmd.Flags().Bool("checkpoint", false, "snapshot all affected files before fixing")
	fixCmd.Flags().String("restore", "", "restore the checkpoint with the given id and exit")
}

func runFix(cmd *cobra.Command, args []string) error {
	projectPath, err := resolveProjectPath(args)
	if err != nil {
		return err
	}

	safety, err := cmd.Flags().GetString("safety")
	if err != nil {
		return fmt.Errorf("failed to get safety flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	noBackup, err := cmd.Flags().GetBool("no-backup")
	if err != nil {
		return fmt.Errorf("failed to get no-backup flag: %w", err)
	}
	useCheckpoint, err := cmd.Flags().GetBool("checkpoint")
	if err != nil {
		return fmt.Errorf("failed to get checkpoint flag: %w", err)
	}
	restoreID, err := cmd.Flags().GetString("restore")
	if err != nil {
		return fmt.Errorf("failed to get restore flag: %w", err)
	}

	cfg := loadedConfig()
	engine, err := buildFixEngine(cfg, projectPath, safety)
	if err != nil {
		return err
	}

	if restoreID != "" {
		return restoreCheckpoint(engine, projectPath, restoreID)
	}

	progress := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	progress.Suffix = " Scanning " + projectPath + "..."
	progress.Start()

	scan, err := buildFramework().ScanProject(cmd.Context(), cfg.ToScanConfig(projectPath))
	progress.Stop()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	byFile := issuesByFile(scan)
	if len(byFile) == 0 {
		color.New(color.FgGreen, color.Bold).Println("✅ Nothing to fix")
		return nil
	}

	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}
	sort.Strings(files)

	if dryRun {
		return printFixPlan(engine, scan.ProjectID, projectPath, files, byFile)
	}

	if useCheckpoint {
		checkpoint, err := engine.CreateCheckpoint(scan.ProjectID, projectPath, files)
		if err != nil {
			return fmt.Errorf("checkpoint failed: %w", err)
		}
		fmt.Printf("📌 Checkpoint %s covers %d file(s)\n", checkpoint.ID, len(checkpoint.Files))
	}

	return applyFixes(engine, scan.ProjectID, projectPath, files, byFile, !noBackup)
}

// buildFixEngine wires the fix engine from configuration, an optional
// safety override, and the project-local audit trail.
func buildFixEngine(cfg *config.Config, projectPath, safety string) (*autofix.Engine, error) {
	engineConfig := cfg.ToEngineConfig()
	if safety != "" {
		level, err := config.ParseSafetyLevel(safety)
		if err != nil {
			return nil, err
		}
		engineConfig.SafetyLevel = level
	}
	engineConfig.BackupDir = resolveArtifactDir(projectPath, engineConfig.BackupDir)
	engineConfig.CheckpointDir = resolveArtifactDir(projectPath, engineConfig.CheckpointDir)

	engine := autofix.NewEngine(engineConfig)
	engine.RegisterDefaultFixers(nil)

	history, err := autofix.NewHistoryStore(filepath.Join(projectPath, fixHistoryFile))
	if err != nil {
		fmt.Printf("Warning: fix history unavailable: %v\n", err)
		return engine, nil
	}
	return engine.WithHistory(history), nil
}

// resolveArtifactDir anchors relative artifact directories at the project
// root so fixes behave the same from any working directory.
func resolveArtifactDir(projectPath, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(projectPath, dir)
}

func issuesByFile(scan *scanner.ScanResult) map[string][]*analysis.Issue {
	byFile := make(map[string][]*analysis.Issue)
	for _, issue := range scan.Issues {
		if !issue.AutoFixable {
			continue
		}
		byFile[issue.FilePath] = append(byFile[issue.FilePath], issue)
	}
	return byFile
}

func printFixPlan(engine *autofix.Engine, projectID, projectPath string, files []string, byFile map[string][]*analysis.Issue) error {
	accepted, skipped := 0, 0
	for _, file := range files {
		actx, err := analysis.LoadContext(projectID, projectPath, file)
		if err != nil {
			return err
		}
		fixables := engine.AnalyzeFixableIssues(byFile[file], actx)
		if len(fixables) == 0 {
			continue
		}
		fmt.Printf("%s\n", color.New(color.Bold).Sprint(file))
		for _, fixable := range fixables {
			if fixable.Status == autofix.StatusSkipped {
				skipped++
				fmt.Printf("   %s %s (confidence %.2f below %s threshold)\n",
					color.YellowString("skip"), fixable.FixDescription,
					fixable.Confidence, engine.SafetyLevel())
				continue
			}
			accepted++
			fmt.Printf("   %s %s (confidence %.2f, line %d)\n",
				color.GreenString("fix"), fixable.FixDescription,
				fixable.Confidence, fixable.StartLine)
		}
	}

	fmt.Printf("\n%d fix(es) would be applied, %d skipped. Re-run without --dry-run to apply.\n",
		accepted, skipped)
	return nil
}

func applyFixes(engine *autofix.Engine, projectID, projectPath string, files []string, byFile map[string][]*analysis.Issue, backup bool) error {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	applied, failed, skipped := 0, 0, 0
	for _, file := range files {
		result, err := engine.FixFile(projectID, projectPath, file, byFile[file], backup)
		if err != nil {
			red.Printf("❌ %s: %v\n", file, err)
			failed++
			continue
		}
		applied += result.Applied
		failed += result.Failed
		skipped += result.Skipped
		if result.Applied > 0 {
			green.Printf("✅ %s: %d fix(es) applied\n", file, result.Applied)
		}
	}

	fmt.Printf("\n%d fix(es) applied, %d failed, %d skipped\n", applied, failed, skipped)
	return nil
}

func restoreCheckpoint(engine *autofix.Engine, projectPath, checkpointID string) error {
	restored, err := engine.RestoreCheckpoint(checkpointID, projectPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	files := make([]string, 0, len(restored))
	for file := range restored {
		files = append(files, file)
	}
	sort.Strings(files)

	for _, file := range files {
		if restored[file] {
			color.New(color.FgGreen).Printf("✅ restored %s\n", file)
		} else {
			color.New(color.FgRed).Printf("❌ failed %s\n", file)
		}
	}
	fmt.Printf("\nCheckpoint %s restored (%d files)\n", checkpointID, len(restored))
	return nil
}
