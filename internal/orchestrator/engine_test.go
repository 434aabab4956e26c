package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/weftworks/weft/internal/agent"
	"github.com/weftworks/weft/internal/errs"
	"github.com/weftworks/weft/pkg/models"
)

// echoAgent produces a stub file for every declared output path.
func echoAgent() agent.Agent {
	return agent.Func(func(ctx context.Context, in agent.Context) (*models.GenerationResult, error) {
		var files []models.GeneratedFile
		for _, p := range in.Task.InputSpec.OutputPaths {
			files = append(files, models.GeneratedFile{Path: p, Content: "// generated\n"})
		}
		return &models.GenerationResult{Files: files, LinesOfCode: len(files)}, nil
	})
}

func fullRegistry() *agent.Registry {
	reg := agent.NewRegistry()
	for _, typ := range []string{"component", "api", "schema", "styling", "test", "doc", "infrastructure", "general"} {
		reg.Register(typ, echoAgent())
	}
	return reg
}

func TestEngineAnalyzePlanExecute(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"dependencies":{"react":"^18.0.0"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t, root, fullRegistry())

	report, err := e.Analyze("create a Button component; create tests for Button")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(report.Requirements) != 2 {
		t.Fatalf("requirements = %d, want 2", len(report.Requirements))
	}
	if report.Context.Framework != "react" {
		t.Errorf("framework = %s", report.Context.Framework)
	}

	plan, err := e.Plan(report)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Waves) < 2 {
		t.Fatalf("expected test wave after component wave, got %v", plan.Waves)
	}

	result, err := e.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Metrics.TasksSucceeded != 2 {
		t.Errorf("succeeded = %d, want 2: %s", result.Metrics.TasksSucceeded, result.Summary)
	}
	if result.Metrics.FilesGenerated == 0 {
		t.Error("no files committed")
	}
}

func TestEngineAnalyzeEmptyInput(t *testing.T) {
	e := newTestEngine(t, t.TempDir(), fullRegistry())

	_, err := e.Analyze("")
	var valErr *errs.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestEngineAnalyzeFile(t *testing.T) {
	root := t.TempDir()
	reqFile := filepath.Join(root, "requirements.yaml")
	content := "requirements:\n  - type: component\n    name: Button\n  - type: api\n    name: Users\n"
	if err := os.WriteFile(reqFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t, root, fullRegistry())
	report, err := e.AnalyzeFile(reqFile)
	if err != nil {
		t.Fatalf("AnalyzeFile: %v", err)
	}
	if len(report.Requirements) != 2 {
		t.Errorf("requirements = %d, want 2", len(report.Requirements))
	}
	if report.Requirements[0].Category != models.CategoryComponent {
		t.Errorf("category = %s", report.Requirements[0].Category)
	}
}
