package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/weftworks/weft/internal/agent"
	"github.com/weftworks/weft/internal/errs"
	"github.com/weftworks/weft/internal/quality"
	"github.com/weftworks/weft/pkg/models"
)

// produceFile returns an agent that writes one declared output file.
func produceFile(path, content string) agent.Agent {
	return agent.Func(func(ctx context.Context, in agent.Context) (*models.GenerationResult, error) {
		return &models.GenerationResult{
			Files:       []models.GeneratedFile{{Path: path, Content: content}},
			LinesOfCode: 1,
		}, nil
	})
}

func failingAgent(msg string) agent.Agent {
	return agent.Func(func(ctx context.Context, in agent.Context) (*models.GenerationResult, error) {
		return nil, errors.New(msg)
	})
}

func task(id, agentType string, outputs []string, deps ...string) *models.GenerationTask {
	return &models.GenerationTask{
		ID:        id,
		AgentType: agentType,
		InputSpec: models.InputSpec{OutputPaths: outputs},
		DependsOn: deps,
		Status:    models.TaskStatusPending,
		CreatedAt: time.Now(),
	}
}

func planOf(tasks []*models.GenerationTask, waves ...[]string) *models.GenerationPlan {
	plan := &models.GenerationPlan{
		ID:      "plan-test",
		Tasks:   tasks,
		Context: &models.ProjectContext{Language: "typescript"},
	}
	for i, ids := range waves {
		plan.Waves = append(plan.Waves, models.Wave{Number: i, TaskIDs: ids})
	}
	return plan
}

func newTestEngine(t *testing.T, root string, reg *agent.Registry, opts ...Option) *Engine {
	t.Helper()
	opts = append(opts, WithLogger(NopLogger()))
	e := New(root, reg, opts...)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestExecuteCommitsGeneratedFiles(t *testing.T) {
	root := t.TempDir()
	reg := agent.NewRegistry()
	reg.Register("component", produceFile("src/Button.tsx", "export const Button = () => null\n"))
	reg.Register("test", produceFile("src/Button.test.tsx", "test('renders', () => {})\n"))

	e := newTestEngine(t, root, reg)
	plan := planOf(
		[]*models.GenerationTask{
			task("comp", "component", []string{"src/Button.tsx"}),
			task("test", "test", []string{"src/Button.test.tsx"}, "comp"),
		},
		[]string{"comp"}, []string{"test"},
	)

	result, err := e.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Metrics.TasksSucceeded != 2 {
		t.Errorf("succeeded = %d, want 2", result.Metrics.TasksSucceeded)
	}
	if result.Metrics.FilesGenerated != 2 {
		t.Errorf("files generated = %d, want 2", result.Metrics.FilesGenerated)
	}
	for _, rel := range []string{"src/Button.tsx", "src/Button.test.tsx"} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Errorf("expected %s on disk: %v", rel, err)
		}
	}
	if plan.Task("comp").Status != models.TaskStatusSucceeded {
		t.Errorf("comp status = %s", plan.Task("comp").Status)
	}
}

func TestExecuteWaveIsolation(t *testing.T) {
	// One failing and one passing task in the same wave: the failure must
	// not disturb the passing task's commit.
	root := t.TempDir()
	reg := agent.NewRegistry()
	reg.Register("bad", failingAgent("boom"))
	reg.Register("good", produceFile("src/ok.ts", "export {}\n"))

	e := newTestEngine(t, root, reg)
	plan := planOf(
		[]*models.GenerationTask{
			task("a", "bad", []string{"src/broken.ts"}),
			task("b", "good", []string{"src/ok.ts"}),
		},
		[]string{"a", "b"},
	)

	result, err := e.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(result.FailedTasks) != 1 || result.FailedTasks[0] != "a" {
		t.Errorf("failed tasks = %v", result.FailedTasks)
	}
	if result.Metrics.TasksSucceeded != 1 || result.Metrics.FilesGenerated != 1 {
		t.Errorf("metrics = %+v", result.Metrics)
	}
	if _, err := os.Stat(filepath.Join(root, "src/ok.ts")); err != nil {
		t.Errorf("passing task's file missing: %v", err)
	}
}

func TestExecuteSkipsDependentsWithoutDispatch(t *testing.T) {
	root := t.TempDir()
	reg := agent.NewRegistry()

	var downstreamCalls atomic.Int32
	reg.Register("bad", failingAgent("boom"))
	reg.Register("counted", agent.Func(func(ctx context.Context, in agent.Context) (*models.GenerationResult, error) {
		downstreamCalls.Add(1)
		return &models.GenerationResult{}, nil
	}))

	e := newTestEngine(t, root, reg)
	plan := planOf(
		[]*models.GenerationTask{
			task("a", "bad", []string{"src/a.ts"}),
			task("c", "counted", []string{"src/c.ts"}, "a"),
			task("d", "counted", []string{"src/d.ts"}, "c"),
		},
		[]string{"a"}, []string{"c"}, []string{"d"},
	)

	result, err := e.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if downstreamCalls.Load() != 0 {
		t.Errorf("skipped tasks were dispatched %d times", downstreamCalls.Load())
	}
	if result.Metrics.TasksSkipped != 2 {
		t.Errorf("skipped = %d, want 2", result.Metrics.TasksSkipped)
	}
	if plan.Task("c").Status != models.TaskStatusSkipped || plan.Task("d").Status != models.TaskStatusSkipped {
		t.Errorf("statuses: c=%s d=%s", plan.Task("c").Status, plan.Task("d").Status)
	}
}

func TestExecuteQualityRejectionRollsBack(t *testing.T) {
	root := t.TempDir()

	// Pre-existing file the agent will clobber directly.
	target := filepath.Join(root, "src", "widget.ts")
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		t.Fatal(err)
	}
	original := []byte("// original\n")
	if err := os.WriteFile(target, original, 0644); err != nil {
		t.Fatal(err)
	}

	reg := agent.NewRegistry()
	reg.Register("component", agent.Func(func(ctx context.Context, in agent.Context) (*models.GenerationResult, error) {
		// Write directly, then return an empty result the gate rejects.
		if err := os.WriteFile(target, []byte("// clobbered\n"), 0644); err != nil {
			return nil, err
		}
		return &models.GenerationResult{}, nil
	}))

	e := newTestEngine(t, root, reg, WithQualityGate(quality.NewThreshold(0.5)))
	plan := planOf(
		[]*models.GenerationTask{task("w", "component", []string{"src/widget.ts"})},
		[]string{"w"},
	)

	result, err := e.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(result.RolledBackTasks) != 1 || result.RolledBackTasks[0] != "w" {
		t.Fatalf("rolled back tasks = %v", result.RolledBackTasks)
	}
	if result.Metrics.Rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", result.Metrics.Rollbacks)
	}
	if result.Metrics.FilesGenerated != 0 {
		t.Errorf("files generated = %d, want 0", result.Metrics.FilesGenerated)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(original) {
		t.Errorf("file not restored byte-for-byte: %q", got)
	}
	if plan.Task("w").Status != models.TaskStatusRolledBack {
		t.Errorf("status = %s", plan.Task("w").Status)
	}
	if !strings.Contains(plan.Task("w").Error, "blocking: result contains no files") {
		t.Errorf("task error missing rendered gate issue: %q", plan.Task("w").Error)
	}
}

func TestExecuteGateRejectionIsolatedWithinWave(t *testing.T) {
	root := t.TempDir()

	reg := agent.NewRegistry()
	// Empty result: the threshold gate rejects it as blocking.
	reg.Register("rejected", agent.Func(func(ctx context.Context, in agent.Context) (*models.GenerationResult, error) {
		return &models.GenerationResult{}, nil
	}))
	reg.Register("accepted", produceFile("src/b.ts", "export const b = 1\n"))

	e := newTestEngine(t, root, reg, WithQualityGate(quality.NewThreshold(0.5)))
	plan := planOf(
		[]*models.GenerationTask{
			task("a", "rejected", []string{"src/a.ts"}),
			task("b", "accepted", []string{"src/b.ts"}),
		},
		[]string{"a", "b"},
	)

	result, err := e.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(result.GeneratedFiles) != 1 || result.GeneratedFiles[0].Path != "src/b.ts" {
		t.Errorf("generated files = %v, want only src/b.ts", result.GeneratedFiles)
	}
	if len(result.RolledBackTasks) != 1 || result.RolledBackTasks[0] != "a" {
		t.Errorf("rolled back tasks = %v, want [a]", result.RolledBackTasks)
	}
	if result.Metrics.Rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", result.Metrics.Rollbacks)
	}
	if result.Metrics.TasksSucceeded != 1 {
		t.Errorf("tasks succeeded = %d, want 1", result.Metrics.TasksSucceeded)
	}
	if _, err := os.Stat(filepath.Join(root, "src", "a.ts")); !os.IsNotExist(err) {
		t.Errorf("rejected task's output should not exist: %v", err)
	}
}

func TestExecuteRollbackFailureAborts(t *testing.T) {
	root := t.TempDir()

	// A checkpointed file under sub/ whose parent the agent replaces with
	// a regular file, so the restore's MkdirAll must fail.
	sub := filepath.Join(root, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "f.ts"), []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}

	reg := agent.NewRegistry()
	reg.Register("component", agent.Func(func(ctx context.Context, in agent.Context) (*models.GenerationResult, error) {
		if err := os.RemoveAll(sub); err != nil {
			return nil, err
		}
		if err := os.WriteFile(sub, []byte("not a dir"), 0644); err != nil {
			return nil, err
		}
		return &models.GenerationResult{}, nil
	}))

	var calls atomic.Int32
	reg.Register("later", agent.Func(func(ctx context.Context, in agent.Context) (*models.GenerationResult, error) {
		calls.Add(1)
		return &models.GenerationResult{}, nil
	}))

	e := newTestEngine(t, root, reg, WithQualityGate(quality.NewThreshold(0.5)))
	plan := planOf(
		[]*models.GenerationTask{
			task("w", "component", []string{"sub/f.ts"}),
			task("x", "later", []string{"src/x.ts"}),
		},
		[]string{"w"}, []string{"x"},
	)

	result, err := e.Execute(context.Background(), plan)

	var rollbackErr *errs.RollbackFailure
	if !errors.As(err, &rollbackErr) {
		t.Fatalf("expected RollbackFailure, got %v", err)
	}
	if !errs.IsFatal(err) {
		t.Error("rollback failure should be fatal")
	}
	if calls.Load() != 0 {
		t.Errorf("later wave dispatched %d times after abort", calls.Load())
	}
	if result == nil {
		t.Fatal("partial result should be returned alongside the error")
	}
	if len(result.SkippedTasks) != 1 || result.SkippedTasks[0] != "x" {
		t.Errorf("unreached task not reported skipped: %v", result.SkippedTasks)
	}
	if plan.Task("x").Status != models.TaskStatusSkipped {
		t.Errorf("unreached task status = %s", plan.Task("x").Status)
	}
}

func TestExecuteStopRequest(t *testing.T) {
	root := t.TempDir()
	reg := agent.NewRegistry()

	var calls atomic.Int32
	reg.Register("component", agent.Func(func(ctx context.Context, in agent.Context) (*models.GenerationResult, error) {
		calls.Add(1)
		return &models.GenerationResult{}, nil
	}))

	e := newTestEngine(t, root, reg, WithControl(stoppedControl{}))
	plan := planOf(
		[]*models.GenerationTask{task("a", "component", []string{"src/a.ts"})},
		[]string{"a"},
	)

	result, err := e.Execute(context.Background(), plan)
	if !errors.Is(err, ErrRunStopped) {
		t.Fatalf("expected ErrRunStopped, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("tasks dispatched after stop: %d", calls.Load())
	}
	if result == nil {
		t.Fatal("partial result should be returned")
	}
	if len(result.SkippedTasks) != 1 || result.SkippedTasks[0] != "a" {
		t.Errorf("undispatched task not reported skipped: %v", result.SkippedTasks)
	}
}

type stoppedControl struct{}

func (stoppedControl) Stopped() bool                          { return true }
func (stoppedControl) WaitIfPaused(ctx context.Context) error { return nil }

func TestExecuteTimeoutClassifiedAsTimeout(t *testing.T) {
	root := t.TempDir()
	reg := agent.NewRegistry()
	reg.Register("slow", agent.Func(func(ctx context.Context, in agent.Context) (*models.GenerationResult, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return &models.GenerationResult{}, nil
		}
	}))

	e := newTestEngine(t, root, reg, WithTaskTimeout(20*time.Millisecond))
	plan := planOf(
		[]*models.GenerationTask{task("s", "slow", []string{"src/s.ts"})},
		[]string{"s"},
	)

	result, err := e.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.FailedTasks) != 1 {
		t.Fatalf("failed tasks = %v", result.FailedTasks)
	}
	if got := plan.Task("s").Error; !strings.Contains(got, "timed out") {
		t.Errorf("task error = %q, want timeout classification", got)
	}
}

func TestExecuteDropsUndeclaredOutputs(t *testing.T) {
	root := t.TempDir()
	reg := agent.NewRegistry()
	reg.Register("component", agent.Func(func(ctx context.Context, in agent.Context) (*models.GenerationResult, error) {
		return &models.GenerationResult{
			Files: []models.GeneratedFile{
				{Path: "src/ok.ts", Content: "export {}\n"},
				{Path: "etc/passwd", Content: "nope\n"},
			},
			LinesOfCode: 2,
		}, nil
	}))

	e := newTestEngine(t, root, reg)
	plan := planOf(
		[]*models.GenerationTask{task("a", "component", []string{"src/ok.ts"})},
		[]string{"a"},
	)

	result, err := e.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Metrics.FilesGenerated != 1 {
		t.Errorf("files generated = %d, want 1", result.Metrics.FilesGenerated)
	}
	if _, err := os.Stat(filepath.Join(root, "etc/passwd")); !os.IsNotExist(err) {
		t.Error("undeclared output was written")
	}
}

func TestExecuteEmitsTerminalEvent(t *testing.T) {
	root := t.TempDir()
	reg := agent.NewRegistry()
	reg.Register("component", produceFile("src/a.ts", "export {}\n"))

	e := newTestEngine(t, root, reg)
	plan := planOf(
		[]*models.GenerationTask{task("a", "component", []string{"src/a.ts"})},
		[]string{"a"},
	)

	done := make(chan []Event, 1)
	go func() {
		var seen []Event
		for ev := range e.Events() {
			seen = append(seen, ev)
			if ev.Type == EventRunCompleted || ev.Type == EventRunAborted {
				break
			}
		}
		done <- seen
	}()

	if _, err := e.Execute(context.Background(), plan); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	seen := <-done
	var sawStart, sawTask, sawDone bool
	for _, ev := range seen {
		switch ev.Type {
		case EventRunStarted:
			sawStart = true
		case EventTaskSucceeded:
			sawTask = true
		case EventRunCompleted:
			sawDone = true
		}
	}
	if !sawStart || !sawTask || !sawDone {
		t.Errorf("event stream incomplete: start=%v task=%v done=%v", sawStart, sawTask, sawDone)
	}
}
