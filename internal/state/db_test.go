package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/weftworks/weft/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestSaveAndGetRun(t *testing.T) {
	db := openTestDB(t)

	finished := time.Now()
	run := &Run{
		ID:           "run-1",
		PlanID:       "plan-9f",
		Status:       RunCompleted,
		Summary:      "2/2 tasks succeeded",
		QualityScore: 0.9,
		Metrics: models.RunMetrics{
			FilesGenerated: 3,
			LinesOfCode:    120,
			TasksSucceeded: 2,
		},
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: &finished,
	}

	if err := db.SaveRun(run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil {
		t.Fatal("run not found")
	}
	if got.Status != RunCompleted || got.Metrics.FilesGenerated != 3 {
		t.Errorf("got %+v", got)
	}
	if got.PlanID != "plan-9f" {
		t.Errorf("plan id = %q", got.PlanID)
	}
	if got.QualityScore != 0.9 {
		t.Errorf("quality score = %v", got.QualityScore)
	}
}

func TestGetRunMissing(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetRun("nope")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing run, got %+v", got)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)

	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		run := &Run{ID: id, Status: RunCompleted, StartedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := db.SaveRun(run); err != nil {
			t.Fatalf("SaveRun %s: %v", id, err)
		}
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "new" || runs[1].ID != "mid" {
		t.Errorf("order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestSaveAndListRunTasks(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveRun(&Run{ID: "run-1", Status: RunCompleted, StartedAt: time.Now()}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	resolved := time.Now()
	tasks := []RunTask{
		{RunID: "run-1", TaskID: "b", AgentType: "test", Status: "skipped", Wave: 1},
		{RunID: "run-1", TaskID: "a", AgentType: "component", Status: "succeeded", Wave: 0, ResolvedAt: &resolved},
	}
	if err := db.SaveRunTasks(tasks); err != nil {
		t.Fatalf("SaveRunTasks: %v", err)
	}

	got, err := db.ListRunTasks("run-1")
	if err != nil {
		t.Fatalf("ListRunTasks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tasks, want 2", len(got))
	}
	// Ordered by wave, then task ID.
	if got[0].TaskID != "a" || got[1].TaskID != "b" {
		t.Errorf("order: %s, %s", got[0].TaskID, got[1].TaskID)
	}
}

func TestRecordResult(t *testing.T) {
	db := openTestDB(t)

	resolved := time.Now()
	plan := &models.GenerationPlan{
		Tasks: []*models.GenerationTask{
			{ID: "a", AgentType: "component", Status: models.TaskStatusSucceeded, ResolvedAt: &resolved},
			{ID: "b", AgentType: "test", Status: models.TaskStatusFailed, Error: "boom", ResolvedAt: &resolved},
		},
		Waves: []models.Wave{
			{Number: 0, TaskIDs: []string{"a"}},
			{Number: 1, TaskIDs: []string{"b"}},
		},
	}
	result := &models.RunResult{
		RunID:       "run-9",
		FailedTasks: []string{"b"},
		Metrics:     models.RunMetrics{TasksSucceeded: 1, TasksFailed: 1},
		Summary:     "1/2 tasks succeeded",
	}

	if err := RecordResult(db, result, plan, RunCompleted, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	run, err := db.GetRun("run-9")
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Metrics.TasksFailed != 1 {
		t.Errorf("metrics: %+v", run.Metrics)
	}

	tasks, err := db.ListRunTasks("run-9")
	if err != nil {
		t.Fatalf("ListRunTasks: %v", err)
	}
	if len(tasks) != 2 || tasks[1].Error != "boom" {
		t.Errorf("tasks: %+v", tasks)
	}
}
