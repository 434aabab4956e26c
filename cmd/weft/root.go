package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Generation Orchestration Engine",
	Long: `Weft turns plain-language requirements into generated code.

It parses requirements, detects your project's conventions, plans a
dependency-ordered set of generation tasks, and executes them in parallel
waves. Every task is checkpointed before it runs: output that fails the
quality gate is rolled back byte-for-byte, and tasks behind a failed
dependency are skipped rather than run against broken input.

Core capabilities:
- Parses free text, lists, or YAML requirement documents
- Detects language, framework, and naming conventions
- Schedules independent tasks concurrently, wave by wave
- Gates every result on quality before committing it
- Rolls back rejected output and reports partial success`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
