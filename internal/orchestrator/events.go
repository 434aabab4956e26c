// Package orchestrator coordinates plan execution: wave scheduling,
// checkpointing, agent dispatch, quality gating, and commit or rollback.
package orchestrator

import (
	"time"

	"github.com/weftworks/weft/pkg/models"
)

// EventType represents the type of engine event.
type EventType string

const (
	// EventRunStarted indicates plan execution has begun.
	EventRunStarted EventType = "run_started"
	// EventWaveStarted indicates a wave of tasks is being dispatched.
	EventWaveStarted EventType = "wave_started"
	// EventWaveCompleted indicates every task in a wave has resolved.
	EventWaveCompleted EventType = "wave_completed"
	// EventTaskStarted indicates a task has been dispatched to its agent.
	EventTaskStarted EventType = "task_started"
	// EventTaskSucceeded indicates a task passed its gate and committed.
	EventTaskSucceeded EventType = "task_succeeded"
	// EventTaskFailed indicates a task's agent errored or timed out.
	EventTaskFailed EventType = "task_failed"
	// EventTaskRolledBack indicates a task was reverted to its checkpoint.
	EventTaskRolledBack EventType = "task_rolled_back"
	// EventTaskSkipped indicates a task was never dispatched because a
	// dependency failed.
	EventTaskSkipped EventType = "task_skipped"
	// EventMetricsUpdated carries the current run counters.
	EventMetricsUpdated EventType = "metrics_updated"
	// EventRunCompleted indicates the run finished, fully or partially.
	EventRunCompleted EventType = "run_completed"
	// EventRunAborted indicates the run stopped on a fatal error or a
	// stop request.
	EventRunAborted EventType = "run_aborted"
)

// Event represents a progress event emitted by the engine. Events are
// consumed by the TUI and the CLI progress printer.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// RunID is the run the event belongs to.
	RunID string
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// Wave is the wave number for wave and task events.
	Wave int
	// Message provides additional context about the event.
	Message string
	// Err contains error details for failure events.
	Err error
	// Metrics is a snapshot of the run counters, set on metrics events.
	Metrics *models.RunMetrics
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
