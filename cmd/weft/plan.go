package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/pkg/models"
)

var planFile string

var planCmd = &cobra.Command{
	Use:   "plan [requirements...]",
	Short: "Build and display a generation plan without executing it",
	Long: `Analyze requirements and show the plan weft would execute.

The plan lists every generation task with its agent type, output paths,
and dependencies, grouped into the waves that would run concurrently.
Nothing is generated or written.

Examples:
  weft plan "create a User schema; create a Users api"
  weft plan --file requirements.yaml`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "YAML requirements document")
}

func runPlan(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	engine, cleanup, err := buildEngine(root, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer engine.Close()

	analyzeFile = planFile
	report, err := analyzeInput(engine, args)
	if err != nil {
		return err
	}

	plan, err := engine.Plan(report)
	if err != nil {
		return err
	}

	printPlan(plan)
	return nil
}

func printPlan(plan *models.GenerationPlan) {
	heading := color.New(color.Bold)
	dim := color.New(color.Faint)

	heading.Printf("Plan %s: %d tasks in %d waves\n", plan.ID, len(plan.Tasks), len(plan.Waves))

	for _, wave := range plan.Waves {
		fmt.Printf("\nwave %d\n", wave.Number)
		for _, id := range wave.TaskIDs {
			task := plan.Task(id)
			if task == nil {
				continue
			}
			fmt.Printf("  %-28s %-14s %s\n", task.ID, task.AgentType, strings.Join(task.InputSpec.OutputPaths, ", "))
			if len(task.DependsOn) > 0 {
				dim.Printf("    after: %s\n", strings.Join(task.DependsOn, ", "))
			}
		}
	}
}
