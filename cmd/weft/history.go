package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/weftworks/weft/internal/state"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded runs for this project",
	Long: `List recent runs recorded in .weft/state.db, newest first.

With a run ID, show that run's per-task resolutions instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}

	db, err := state.OpenProject(root)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("open run history: %w", err)
	}

	if len(args) == 1 {
		return showRun(db, args[0])
	}
	return listRuns(db)
}

func listRuns(db *state.DB) error {
	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet. Run 'weft run' first.")
		return nil
	}

	bold := color.New(color.Bold)
	for _, r := range runs {
		bold.Printf("%s  ", r.ID)
		statusColor(string(r.Status)).Printf("%-9s", r.Status)
		fmt.Printf("  %s  %s\n", r.StartedAt.Format("2006-01-02 15:04"), r.Summary)
	}
	return nil
}

func showRun(db *state.DB, id string) error {
	run, err := db.GetRun(id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}

	bold := color.New(color.Bold)
	bold.Printf("run %s\n", run.ID)
	fmt.Print("status: ")
	statusColor(string(run.Status)).Println(run.Status)
	fmt.Printf("started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.FinishedAt != nil {
		fmt.Printf("finished: %s (%s)\n",
			run.FinishedAt.Format("2006-01-02 15:04:05"),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	fmt.Printf("quality score: %.2f\n", run.QualityScore)
	fmt.Printf("files: %d (%d lines)\n", run.Metrics.FilesGenerated, run.Metrics.LinesOfCode)
	if run.Summary != "" {
		fmt.Printf("summary: %s\n", run.Summary)
	}

	tasks, err := db.ListRunTasks(id)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	fmt.Println("\ntasks:")
	wave := -1
	for _, t := range tasks {
		if t.Wave != wave {
			wave = t.Wave
			color.New(color.Faint).Printf("  wave %d\n", wave)
		}
		fmt.Print("    ")
		statusColor(t.Status).Printf("%-12s", t.Status)
		fmt.Printf("  %s (%s)", t.TaskID, t.AgentType)
		if t.Error != "" {
			color.New(color.FgRed).Printf("  %s", t.Error)
		}
		fmt.Println()
	}
	return nil
}

func statusColor(status string) *color.Color {
	switch status {
	case "completed", "succeeded":
		return color.New(color.FgGreen)
	case "aborted", "failed":
		return color.New(color.FgRed)
	case "rolled_back", "stopped":
		return color.New(color.FgYellow)
	case "skipped":
		return color.New(color.Faint)
	default:
		return color.New()
	}
}
