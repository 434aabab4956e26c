package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/internal/orchestrator"
	"github.com/weftworks/weft/internal/state"
	"github.com/weftworks/weft/internal/tui"
	"github.com/weftworks/weft/pkg/models"
)

var (
	runFile      string
	runHeadless  bool
	runWorkers   int
	runThreshold float64
)

var runCmd = &cobra.Command{
	Use:   "run [requirements...]",
	Short: "Plan and execute generation for the given requirements",
	Long: `Run the full generation pipeline: analyze, plan, and execute.

Tasks execute in dependency-ordered waves, several at a time. Each task
is checkpointed before its agent runs; output that fails the quality
gate is rolled back, and tasks behind a failed dependency are skipped.
The run result is recorded in the project's .weft/state.db.

Drop a file named "pause" or "stop" into .weft/control to hold or end
the run at the next wave boundary.

Examples:
  weft run "create a Button component; create tests for Button"
  weft run --file requirements.yaml --workers 2
  weft run --file requirements.yaml --headless`,
	RunE: runGenerate,
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "YAML requirements document")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without TUI (plain progress output)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Override max concurrent tasks per wave")
	runCmd.Flags().Float64Var(&runThreshold, "threshold", -1, "Override quality threshold in [0, 1]")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runWorkers > 0 {
		cfg.Engine.MaxWorkers = runWorkers
	}
	if runThreshold >= 0 {
		cfg.Quality.Threshold = runThreshold
	}

	engine, cleanup, err := buildEngine(root, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer engine.Close()

	analyzeFile = runFile
	report, err := analyzeInput(engine, args)
	if err != nil {
		return err
	}

	plan, err := engine.Plan(report)
	if err != nil {
		return err
	}

	// Cancel the run on SIGINT/SIGTERM; in-flight tasks resolve first.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now()
	var result *models.RunResult
	var runErr error

	if runHeadless {
		result, runErr = executeHeadless(ctx, engine, plan)
	} else {
		result, runErr = executeWithTUI(ctx, engine, plan)
	}

	if result != nil {
		recordRun(root, result, plan, runErr, startedAt)
		printResult(result, runErr)
	}

	return runErr
}

// executeHeadless runs the plan while printing plain progress lines.
func executeHeadless(ctx context.Context, engine *orchestrator.Engine, plan *models.GenerationPlan) (*models.RunResult, error) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		dim := color.New(color.Faint)

		for ev := range engine.Events() {
			switch ev.Type {
			case orchestrator.EventWaveStarted:
				fmt.Printf("wave %d\n", ev.Wave)
			case orchestrator.EventTaskSucceeded:
				green.Printf("  ✓ %s\n", ev.TaskID)
			case orchestrator.EventTaskFailed:
				red.Printf("  ✗ %s: %v\n", ev.TaskID, ev.Err)
			case orchestrator.EventTaskRolledBack:
				yellow.Printf("  ↩ %s: %v\n", ev.TaskID, ev.Err)
			case orchestrator.EventTaskSkipped:
				dim.Printf("  − %s (skipped)\n", ev.TaskID)
			case orchestrator.EventRunCompleted, orchestrator.EventRunAborted:
				return
			}
		}
	}()

	result, err := engine.Execute(ctx, plan)
	<-done
	return result, err
}

// executeWithTUI runs the plan behind the live progress TUI.
func executeWithTUI(ctx context.Context, engine *orchestrator.Engine, plan *models.GenerationPlan) (*models.RunResult, error) {
	type outcome struct {
		result *models.RunResult
		err    error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		result, err := engine.Execute(ctx, plan)
		resultCh <- outcome{result: result, err: err}
	}()

	program := tea.NewProgram(tui.NewProgress(engine.Events()))
	if _, err := program.Run(); err != nil {
		// TUI failure must not lose the run; wait for the engine.
		fmt.Fprintf(os.Stderr, "warning: display failed: %v\n", err)
	}

	out := <-resultCh
	return out.result, out.err
}

// recordRun persists the run to the project state database.
func recordRun(root string, result *models.RunResult, plan *models.GenerationPlan, runErr error, startedAt time.Time) {
	db, err := state.OpenProject(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: run history unavailable: %v\n", err)
		return
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: run history unavailable: %v\n", err)
		return
	}

	status := state.RunCompleted
	switch {
	case errors.Is(runErr, orchestrator.ErrRunStopped):
		status = state.RunStopped
	case runErr != nil:
		status = state.RunAborted
	}

	if err := state.RecordResult(db, result, plan, status, startedAt); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record run: %v\n", err)
	}
}

func printResult(result *models.RunResult, runErr error) {
	fmt.Println()
	if runErr != nil {
		color.New(color.FgRed, color.Bold).Printf("run %s aborted: %v\n", result.RunID, runErr)
	} else {
		color.New(color.Bold).Printf("run %s: %s\n", result.RunID, result.Summary)
	}

	if len(result.GeneratedFiles) > 0 {
		fmt.Println("generated:")
		for _, f := range result.GeneratedFiles {
			fmt.Printf("  %s\n", f.Path)
		}
	}
	if len(result.QualityChecks) > 0 {
		fmt.Printf("aggregate quality score: %.2f\n", result.AggregateScore())
	}
	if len(result.SkippedTasks) > 0 {
		color.New(color.Faint).Printf("skipped: %s\n", strings.Join(result.SkippedTasks, ", "))
	}
}
