package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/pkg/models"
)

var analyzeFile string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [requirements...]",
	Short: "Parse requirements and detect project conventions",
	Long: `Parse requirement input and report what weft detected.

Requirements may be given as free text arguments or loaded from a YAML
document with --file. The analysis shows the normalized requirements and
the detected project context without planning or generating anything.

Examples:
  weft analyze "create a Button component; create tests for Button"
  weft analyze --file requirements.yaml`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "YAML requirements document")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	report, err := analyzeInput(engine, args)
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

// analyzeInput runs analysis over --file or free text arguments.
func analyzeInput(engine analyzer, args []string) (*models.AnalysisReport, error) {
	if analyzeFile != "" {
		return engine.AnalyzeFile(analyzeFile)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no requirements given: pass free text or --file")
	}
	return engine.Analyze(strings.Join(args, "\n"))
}

// analyzer is the engine surface the analyze and plan commands use.
type analyzer interface {
	Analyze(raw any) (*models.AnalysisReport, error)
	AnalyzeFile(path string) (*models.AnalysisReport, error)
}

func printReport(report *models.AnalysisReport) {
	heading := color.New(color.Bold)
	dim := color.New(color.Faint)

	heading.Println("Requirements")
	for _, req := range report.Requirements {
		name := req.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  %-16s %s\n", req.Category, name)
	}

	heading.Println("\nProject context")
	ctx := report.Context
	fmt.Printf("  language:  %s\n", ctx.Language)
	fmt.Printf("  framework: %s\n", ctx.Framework)
	fmt.Printf("  build:     %s\n", ctx.BuildSystem)
	fmt.Printf("  tests:     %s\n", ctx.TestFramework)
	fmt.Printf("  naming:    %s\n", ctx.NamingConvention)

	for _, warning := range report.Warnings {
		dim.Printf("  warning: %s\n", warning)
	}
}
