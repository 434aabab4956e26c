// Package errs defines the typed error taxonomy for the generation engine.
//
// ValidationError and PlanningError prevent execution from starting.
// AgentExecutionError and QualityGateFailure are recoverable at the run
// level: the offending task is rolled back and its transitive dependents
// are skipped. RollbackFailure is fatal and aborts the run, since
// workspace integrity can no longer be guaranteed.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError indicates malformed requirement input. It names the
// offending entry rather than silently dropping it.
type ValidationError struct {
	// Entry identifies the offending input entry.
	Entry string
	// Reason describes why the entry was rejected.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid requirement %q: %s", e.Entry, e.Reason)
}

// PlanningError indicates the plan could not be constructed: an unknown
// agent type, a dependency cycle, or conflicting wave outputs.
type PlanningError struct {
	// Reason describes the planning failure.
	Reason string
	// TaskIDs identifies the participating tasks, if any.
	TaskIDs []string
	// Cause is the underlying error, if any.
	Cause error
}

func (e *PlanningError) Error() string {
	msg := "planning failed: " + e.Reason
	if len(e.TaskIDs) > 0 {
		msg += " (tasks: " + strings.Join(e.TaskIDs, ", ") + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PlanningError) Unwrap() error { return e.Cause }

// AgentExecutionError indicates a producer threw, panicked, or timed out.
// It is caught at the task boundary and never propagates past it.
type AgentExecutionError struct {
	// TaskID is the task whose agent failed.
	TaskID string
	// AgentType is the registered type of the failing agent.
	AgentType string
	// Timeout is true when the failure was a per-task timeout.
	Timeout bool
	// Cause is the underlying error.
	Cause error
}

func (e *AgentExecutionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("agent %s timed out on task %s", e.AgentType, e.TaskID)
	}
	return fmt.Sprintf("agent %s failed on task %s: %v", e.AgentType, e.TaskID, e.Cause)
}

func (e *AgentExecutionError) Unwrap() error { return e.Cause }

// QualityGateFailure indicates the evaluator rejected a task's output.
type QualityGateFailure struct {
	// TaskID is the rejected task.
	TaskID string
	// Score is the score the evaluator assigned.
	Score float64
	// Issues summarizes the findings behind the rejection.
	Issues []string
}

func (e *QualityGateFailure) Error() string {
	msg := fmt.Sprintf("quality gate rejected task %s (score %.2f)", e.TaskID, e.Score)
	if len(e.Issues) > 0 {
		msg += ": " + strings.Join(e.Issues, "; ")
	}
	return msg
}

// RollbackFailure indicates a checkpoint restore itself failed. This is
// the one fatal condition in the pipeline: the run aborts immediately.
type RollbackFailure struct {
	// TaskID is the task whose rollback failed.
	TaskID string
	// CheckpointID is the checkpoint that could not be restored.
	CheckpointID string
	// Cause is the underlying error.
	Cause error
}

func (e *RollbackFailure) Error() string {
	return fmt.Sprintf("rollback of task %s from checkpoint %s failed: %v", e.TaskID, e.CheckpointID, e.Cause)
}

func (e *RollbackFailure) Unwrap() error { return e.Cause }

// IOError indicates checkpoint creation or a file write failed.
type IOError struct {
	// Op is the failing operation ("snapshot", "write", "restore").
	Op string
	// Path is the affected path, if any.
	Path string
	// Cause is the underlying error.
	Cause error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *IOError) Unwrap() error { return e.Cause }

// IsFatal returns true if err (or anything it wraps) aborts the whole run.
func IsFatal(err error) bool {
	var rf *RollbackFailure
	return errors.As(err, &rf)
}

// IsRecoverable returns true if err is recoverable at the run level: the
// task is rolled back and marked failed, dependents are skipped, and the
// run continues.
func IsRecoverable(err error) bool {
	var ae *AgentExecutionError
	var qf *QualityGateFailure
	return errors.As(err, &ae) || errors.As(err, &qf)
}
