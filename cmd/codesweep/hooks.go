package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/pkg/hooks"
)

// hooksCmd represents the hooks command
var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage codesweep Git hooks",
	Long: `Hooks installs, removes and runs the codesweep Git hooks. The
pre-commit hook checks staged files against the configured pre-commit
gate; the pre-push hook checks everything changed since the default
branch against the pre-push gate.`,
}

// hooksInstallCmd represents the hooks install command
var hooksInstallCmd = &cobra.Command{
	Use:   "install [path]",
	Short: "Install the pre-commit and pre-push hooks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := buildHookManager(args)
		if err != nil {
			return err
		}

		installed, err := manager.InstallHooks()
		if err != nil {
			return fmt.Errorf("hook installation failed: %w", err)
		}

		green := color.New(color.FgGreen)
		for _, path := range installed {
			green.Printf("✅ installed %s\n", path)
		}
		return nil
	},
}

// hooksUninstallCmd represents the hooks uninstall command
var hooksUninstallCmd = &cobra.Command{
	Use:   "uninstall [path]",
	Short: "Remove the codesweep-managed hooks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := buildHookManager(args)
		if err != nil {
			return err
		}

		removed, err := manager.UninstallHooks()
		if err != nil {
			return fmt.Errorf("hook removal failed: %w", err)
		}

		if len(removed) == 0 {
			fmt.Println("No codesweep-managed hooks found")
			return nil
		}
		for _, path := range removed {
			fmt.Printf("✅ removed %s\n", path)
		}
		return nil
	},
}

// hooksRunCmd represents the hooks run command
var hooksRunCmd = &cobra.Command{
	Use:   "run [pre-commit|pre-push] [path]",
	Short: "Run a hook's checks without committing",
	Long: `Run executes the checks a hook would run: changed-file discovery, a
scan limited to those files, and a gate evaluation. The exit code matches
what the installed hook script would return, so CI can call it directly.

The hook can be named positionally or with --hook; the installed scripts
use the flag form. With --warnings-ok a conditional pass exits 0 so that
auto-fixable findings do not block the commit.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runHookChecks,
}

func init() {
	rootCmd.AddCommand(hooksCmd)
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksUninstallCmd)
	hooksCmd.AddCommand(hooksRunCmd)

	hooksRunCmd.Flags().String("hook", "", "hook to run (pre-commit or pre-push)")
	hooksRunCmd.Flags().String("gate", "", "override the configured gate for this run")
	hooksRunCmd.Flags().Bool("warnings-ok", false, "exit 0 on a conditional pass")
}

func buildHookManager(pathArgs []string) (*hooks.Manager, error) {
	projectPath, err := resolveProjectPath(pathArgs)
	if err != nil {
		return nil, err
	}

	cfg := loadedConfig()
	manager, err := hooks.NewManager(cfg.ToHooksConfig(projectPath), buildFramework(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", projectPath, err)
	}
	return manager, nil
}

func runHookChecks(cmd *cobra.Command, args []string) error {
	hookName, pathArgs, err := resolveHookName(cmd, args)
	if err != nil {
		return err
	}

	gateName, err := cmd.Flags().GetString("gate")
	if err != nil {
		return fmt.Errorf("failed to get gate flag: %w", err)
	}
	warningsOK, err := cmd.Flags().GetBool("warnings-ok")
	if err != nil {
		return fmt.Errorf("failed to get warnings-ok flag: %w", err)
	}

	manager, err := buildHookManager(pathArgs)
	if err != nil {
		return err
	}

	var result *hooks.PreCommitResult
	if hookName == "pre-push" {
		result, err = manager.RunPrePushChecks(cmd.Context(), gateName)
	} else {
		result, err = manager.RunPreCommitChecks(cmd.Context(), gateName)
	}
	if err != nil {
		return fmt.Errorf("%s checks failed to run: %w", hookName, err)
	}

	printHookResult(result)

	switch result.Status {
	case hooks.Warning:
		if warningsOK {
			return nil
		}
		return errConditionalPass
	case hooks.Blocked:
		return errGateFailed
	default:
		return nil
	}
}

// resolveHookName accepts the hook either as --hook or as the first
// positional argument; the remaining positionals name the project path.
func resolveHookName(cmd *cobra.Command, args []string) (string, []string, error) {
	hookName, err := cmd.Flags().GetString("hook")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get hook flag: %w", err)
	}
	pathArgs := args
	if hookName == "" {
		if len(args) == 0 {
			return "", nil, fmt.Errorf("no hook named: expected pre-commit or pre-push")
		}
		hookName = args[0]
		pathArgs = args[1:]
	}
	if hookName != "pre-commit" && hookName != "pre-push" {
		return "", nil, fmt.Errorf("unknown hook %q: expected pre-commit or pre-push", hookName)
	}
	return hookName, pathArgs, nil
}

func printHookResult(result *hooks.PreCommitResult) {
	fmt.Println()
	switch result.Status {
	case hooks.Passed:
		color.New(color.FgGreen, color.Bold).Printf("✅ %s passed", result.Hook)
	case hooks.Warning:
		color.New(color.FgYellow, color.Bold).Printf("⚠️  %s passed conditionally", result.Hook)
	default:
		color.New(color.FgRed, color.Bold).Printf("❌ %s blocked", result.Hook)
	}
	fmt.Printf(" (%s gate, %d file(s) checked)\n", result.GateName, len(result.FilesChecked))

	for _, reason := range result.Evaluation.Reasons {
		fmt.Printf("   - %s\n", reason)
	}

	if len(result.Blockers) > 0 {
		fmt.Println("\nFix these before retrying:")
		for _, issue := range result.Blockers {
			severityColor(issue.Severity).Printf("   [%s]", issue.Severity)
			fmt.Printf(" %s:%d %s\n", issue.FilePath, issue.LineNumber, issue.Description)
		}
	}
	if result.Status == hooks.Warning {
		fmt.Printf("\n💡 %s\n", color.HiBlackString("Run 'codesweep fix' to apply the outstanding auto-fixes."))
	}
}
