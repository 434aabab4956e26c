package models

// RunMetrics holds process-wide counters for a run. The engine mutates
// them exclusively when a task reaches a terminal state, through a single
// serialized accumulator. Changes are monotonic except when a rollback
// restores a task's checkpointed snapshot.
type RunMetrics struct {
	// FilesGenerated counts files committed from succeeded tasks.
	FilesGenerated int `json:"files_generated"`
	// LinesOfCode counts lines committed from succeeded tasks.
	LinesOfCode int `json:"lines_of_code"`
	// TasksSucceeded counts tasks that committed their output.
	TasksSucceeded int `json:"tasks_succeeded"`
	// TasksFailed counts tasks whose agent errored or timed out.
	TasksFailed int `json:"tasks_failed"`
	// TasksRolledBack counts tasks reverted to their checkpoint.
	TasksRolledBack int `json:"tasks_rolled_back"`
	// TasksSkipped counts tasks never dispatched behind a failed dependency.
	TasksSkipped int `json:"tasks_skipped"`
	// Rollbacks counts checkpoint restorations performed.
	Rollbacks int `json:"rollbacks"`
}

// Resolved returns the total number of tasks that reached a terminal state.
func (m RunMetrics) Resolved() int {
	return m.TasksSucceeded + m.TasksFailed + m.TasksRolledBack + m.TasksSkipped
}
