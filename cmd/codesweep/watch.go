package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/pkg/logger"
	"github.com/codesweep/codesweep/pkg/scanner"
	"github.com/codesweep/codesweep/pkg/ui"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch a project and re-scan files as they change",
	Long: `Watch opens a terminal dashboard, monitors the project tree and
re-scans files as they are saved. Rapid changes are coalesced into one
scan per batch window.

Keys: q quits, tab moves focus, ctrl+s toggles sound notifications.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringSlice("ext", nil, "file extensions to watch (default: all scannable files)")
	watchCmd.Flags().Duration("batch-window", 0, "how long to coalesce rapid changes before scanning")
	watchCmd.Flags().Bool("no-sound", false, "disable sound notifications")
}

func runWatch(cmd *cobra.Command, args []string) error {
	projectPath, err := resolveProjectPath(args)
	if err != nil {
		return err
	}

	extensions, err := cmd.Flags().GetStringSlice("ext")
	if err != nil {
		return fmt.Errorf("failed to get ext flag: %w", err)
	}
	batchWindow, err := cmd.Flags().GetDuration("batch-window")
	if err != nil {
		return fmt.Errorf("failed to get batch-window flag: %w", err)
	}
	noSound, err := cmd.Flags().GetBool("no-sound")
	if err != nil {
		return fmt.Errorf("failed to get no-sound flag: %w", err)
	}

	cfg := loadedConfig()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	monitorConfig := scanner.DefaultMonitorConfig(projectPath)
	monitorConfig.IgnorePatterns = cfg.Scan.ExcludedPatterns
	monitorConfig.Extensions = extensions
	monitorConfig.Notify = cfg.UI.Notifications
	if batchWindow > 0 {
		monitorConfig.BatchWindow = batchWindow
	}
	monitor := scanner.NewMonitor(buildFramework(), monitorConfig)

	model := ui.NewModel(ctx, projectPath)
	model.SetTheme(ui.ThemeByName(cfg.UI.Theme))
	model.SetShowTimestamps(cfg.UI.ShowTimestamps)
	model.SetVerboseOutput(cfg.UI.VerboseOutput)
	if noSound {
		model.SetSoundEnabled(false)
	}

	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watching %s: %w", projectPath, err)
	}

	program := tea.NewProgram(&model, tea.WithAltScreen())

	// The forwarder owns ordering: the started message lands before any
	// batch, and the stopped message after the monitor closes its channel.
	go func() {
		program.Send(ui.WatchStartedMsg{Path: projectPath})
		for batch := range monitor.Batches() {
			program.Send(ui.BatchScannedMsg{Batch: batch})
		}
		program.Send(ui.MonitorStoppedMsg{})
	}()

	_, runErr := program.Run()

	if err := monitor.Stop(); err != nil {
		logger.Warn("failed to stop monitor cleanly: %v", err)
	}
	cancel()

	if runErr != nil {
		return fmt.Errorf("watch session failed: %w", runErr)
	}

	fmt.Printf("Stopped watching %s\n", projectPath)
	return nil
}
