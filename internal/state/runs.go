package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/weftworks/weft/pkg/models"
)

// RunStatus represents the recorded outcome of a run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
	RunStopped   RunStatus = "stopped"
)

// Run is one recorded engine run.
type Run struct {
	ID           string            `json:"id"`
	PlanID       string            `json:"plan_id"`
	Status       RunStatus         `json:"status"`
	Summary      string            `json:"summary"`
	QualityScore float64           `json:"quality_score"`
	Metrics      models.RunMetrics `json:"metrics"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   *time.Time        `json:"finished_at"`
}

// RunTask is one task's recorded resolution within a run.
type RunTask struct {
	RunID      string     `json:"run_id"`
	TaskID     string     `json:"task_id"`
	AgentType  string     `json:"agent_type"`
	Status     string     `json:"status"`
	Wave       int        `json:"wave"`
	Error      string     `json:"error,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// SaveRun inserts a finished run.
func (db *DB) SaveRun(r *Run) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		INSERT INTO runs (id, plan_id, status, summary, quality_score, files_generated,
			lines_of_code, tasks_succeeded, tasks_failed, tasks_rolled_back,
			tasks_skipped, rollbacks, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PlanID, r.Status, r.Summary, r.QualityScore,
		r.Metrics.FilesGenerated, r.Metrics.LinesOfCode,
		r.Metrics.TasksSucceeded, r.Metrics.TasksFailed,
		r.Metrics.TasksRolledBack, r.Metrics.TasksSkipped,
		r.Metrics.Rollbacks, r.StartedAt, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil when the run does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRow(`
		SELECT id, plan_id, status, summary, quality_score, files_generated,
			lines_of_code, tasks_succeeded, tasks_failed, tasks_rolled_back,
			tasks_skipped, rollbacks, started_at, finished_at
		FROM runs WHERE id = ?`, id)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(`
		SELECT id, plan_id, status, summary, quality_score, files_generated,
			lines_of_code, tasks_succeeded, tasks_failed, tasks_rolled_back,
			tasks_skipped, rollbacks, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// SaveRunTasks records the per-task resolutions of a run.
func (db *DB) SaveRunTasks(tasks []RunTask) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	for _, t := range tasks {
		if _, err := tx.Exec(`
			INSERT INTO run_tasks (run_id, task_id, agent_type, status, wave, error, resolved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.RunID, t.TaskID, t.AgentType, t.Status, t.Wave, t.Error, t.ResolvedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("save run task %s: %w", t.TaskID, err)
		}
	}

	return tx.Commit()
}

// ListRunTasks returns all recorded task resolutions for a run.
func (db *DB) ListRunTasks(runID string) ([]RunTask, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT run_id, task_id, agent_type, status, wave, error, resolved_at
		FROM run_tasks WHERE run_id = ? ORDER BY wave, task_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run tasks: %w", err)
	}
	defer rows.Close()

	var tasks []RunTask
	for rows.Next() {
		var t RunTask
		var errMsg sql.NullString
		if err := rows.Scan(&t.RunID, &t.TaskID, &t.AgentType, &t.Status, &t.Wave, &errMsg, &t.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan run task: %w", err)
		}
		t.Error = errMsg.String
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var summary sql.NullString
	err := s.Scan(&r.ID, &r.PlanID, &r.Status, &summary, &r.QualityScore,
		&r.Metrics.FilesGenerated, &r.Metrics.LinesOfCode,
		&r.Metrics.TasksSucceeded, &r.Metrics.TasksFailed,
		&r.Metrics.TasksRolledBack, &r.Metrics.TasksSkipped,
		&r.Metrics.Rollbacks, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		return nil, err
	}
	r.Summary = summary.String
	return &r, nil
}

// RecordResult converts an engine result into persisted run history.
func RecordResult(store RunStore, result *models.RunResult, plan *models.GenerationPlan, status RunStatus, startedAt time.Time) error {
	now := time.Now()
	run := &Run{
		ID:           result.RunID,
		PlanID:       plan.ID,
		Status:       status,
		Summary:      result.Summary,
		QualityScore: result.AggregateScore(),
		Metrics:      result.Metrics,
		StartedAt:    startedAt,
		FinishedAt:   &now,
	}
	if err := store.SaveRun(run); err != nil {
		return err
	}

	var tasks []RunTask
	for _, t := range plan.Tasks {
		wave := plan.WaveOf(t.ID)
		tasks = append(tasks, RunTask{
			RunID:      result.RunID,
			TaskID:     t.ID,
			AgentType:  t.AgentType,
			Status:     string(t.Status),
			Wave:       wave,
			Error:      t.Error,
			ResolvedAt: t.ResolvedAt,
		})
	}
	return store.SaveRunTasks(tasks)
}
