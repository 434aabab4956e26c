package models

// GeneratedFile is a single artifact produced by an agent.
type GeneratedFile struct {
	// Path is the workspace-relative path of the file.
	Path string `json:"path"`
	// Content is the full file content.
	Content string `json:"content"`
	// Type classifies the artifact (e.g. "source", "test", "config").
	Type string `json:"type,omitempty"`
}

// GenerationResult is the output of one agent invocation. It is owned by
// the task that produced it and merged into the run's cumulative result
// only after a successful commit.
type GenerationResult struct {
	// TaskID is the task that produced this result.
	TaskID string `json:"task_id"`
	// Files are the artifacts the agent produced.
	Files []GeneratedFile `json:"files"`
	// LinesOfCode is the total line count across Files.
	LinesOfCode int `json:"lines_of_code"`
	// Dependencies lists external packages the generated code requires.
	Dependencies []string `json:"dependencies,omitempty"`
	// Warnings lists non-fatal notes from the agent.
	Warnings []string `json:"warnings,omitempty"`
}

// IssueSeverity classifies a quality issue.
type IssueSeverity string

const (
	// SeverityInfo is an advisory note that never affects the verdict.
	SeverityInfo IssueSeverity = "info"
	// SeverityWarning lowers the score but does not block on its own.
	SeverityWarning IssueSeverity = "warning"
	// SeverityBlocking forces a failing verdict regardless of score.
	SeverityBlocking IssueSeverity = "blocking"
)

// QualityIssue is a single finding from the quality gate.
type QualityIssue struct {
	// Severity is how serious the issue is.
	Severity IssueSeverity `json:"severity"`
	// Message describes the issue.
	Message string `json:"message"`
	// Path is the affected file, if the issue is file-scoped.
	Path string `json:"path,omitempty"`
}

// QualityCheckResult is the quality gate's verdict on a task's output.
type QualityCheckResult struct {
	// TaskID is the task whose output was evaluated.
	TaskID string `json:"task_id"`
	// Passed is the pass/fail verdict.
	Passed bool `json:"passed"`
	// Score is the evaluator's score in [0, 1].
	Score float64 `json:"score"`
	// Issues lists the findings behind the verdict.
	Issues []QualityIssue `json:"issues,omitempty"`
}

// Blocking returns true if any issue has blocking severity.
func (q QualityCheckResult) Blocking() bool {
	for _, issue := range q.Issues {
		if issue.Severity == SeverityBlocking {
			return true
		}
	}
	return false
}

// RunResult is the final outcome of executing a plan. Partial success
// (some tasks succeeded, others skipped behind a failed dependency) is a
// normal, reportable outcome.
type RunResult struct {
	// RunID is the unique identifier for this run.
	RunID string `json:"run_id"`
	// GeneratedFiles are the committed artifacts from succeeded tasks only.
	GeneratedFiles []GeneratedFile `json:"generated_files"`
	// FailedTasks are IDs of tasks whose agent errored or timed out.
	FailedTasks []string `json:"failed_tasks,omitempty"`
	// RolledBackTasks are IDs of tasks reverted to their checkpoint.
	RolledBackTasks []string `json:"rolled_back_tasks,omitempty"`
	// SkippedTasks are IDs of tasks never dispatched because a dependency
	// failed.
	SkippedTasks []string `json:"skipped_tasks,omitempty"`
	// QualityChecks are the gate verdicts for every evaluated task.
	QualityChecks []QualityCheckResult `json:"quality_checks,omitempty"`
	// Metrics are the final run counters.
	Metrics RunMetrics `json:"metrics"`
	// Summary is the human-readable run summary.
	Summary string `json:"summary"`
}

// AggregateScore returns the mean quality score across evaluated tasks,
// or zero when nothing was evaluated.
func (r *RunResult) AggregateScore() float64 {
	if len(r.QualityChecks) == 0 {
		return 0
	}
	var total float64
	for _, qc := range r.QualityChecks {
		total += qc.Score
	}
	return total / float64(len(r.QualityChecks))
}
