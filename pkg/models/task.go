package models

import "time"

// TaskStatus represents the current state of a generation task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task is being executed by an agent.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusSucceeded indicates the task's output passed the quality
	// gate and was committed to the workspace.
	TaskStatusSucceeded TaskStatus = "succeeded"
	// TaskStatusFailed indicates the task's agent errored or timed out.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusRolledBack indicates the task's workspace changes were
	// reverted to its pre-task checkpoint.
	TaskStatusRolledBack TaskStatus = "rolled_back"
	// TaskStatusSkipped indicates the task was never dispatched because a
	// dependency failed.
	TaskStatusSkipped TaskStatus = "skipped"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusSucceeded,
		TaskStatusFailed, TaskStatusRolledBack, TaskStatusSkipped:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a terminal state. Run metrics are
// only ever updated from terminal states.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusSucceeded, TaskStatusFailed, TaskStatusRolledBack, TaskStatusSkipped:
		return true
	default:
		return false
	}
}

// InputSpec describes what a task's agent receives and what it is allowed
// to touch. It is derived from requirements and architecture at plan time
// and does not change after creation.
type InputSpec struct {
	// Requirement is the normalized requirement this task serves.
	Requirement Requirement `json:"requirement"`
	// OutputPaths are the workspace-relative paths the task may write.
	OutputPaths []string `json:"output_paths"`
	// ReadPaths are paths the task is documented to read-modify; they are
	// checkpointed together with OutputPaths.
	ReadPaths []string `json:"read_paths,omitempty"`
	// Params carries task-specific options for the agent.
	Params map[string]string `json:"params,omitempty"`
}

// TouchedPaths returns every path covered by the task's checkpoint:
// declared outputs plus documented read-modify paths.
func (in InputSpec) TouchedPaths() []string {
	paths := make([]string, 0, len(in.OutputPaths)+len(in.ReadPaths))
	paths = append(paths, in.OutputPaths...)
	paths = append(paths, in.ReadPaths...)
	return paths
}

// GenerationTask is an atomic unit of generation work bound to one agent type.
type GenerationTask struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// AgentType names the registered producer that executes this task.
	AgentType string `json:"agent_type"`
	// Description is the short human-readable summary of the task.
	Description string `json:"description"`
	// InputSpec is the immutable input handed to the agent.
	InputSpec InputSpec `json:"input_spec"`
	// DependsOn lists task IDs that must succeed before this task runs.
	DependsOn []string `json:"depends_on,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Error holds the failure message when the task reached failed or
	// rolled_back.
	Error string `json:"error,omitempty"`
	// CreatedAt is when the task was created by the planner.
	CreatedAt time.Time `json:"created_at"`
	// ResolvedAt is when the task reached a terminal state, if it has.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
