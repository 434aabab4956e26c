package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/weftworks/weft/internal/errs"
	"github.com/weftworks/weft/pkg/models"
)

// Dispatch runs one agent invocation with a per-task timeout and panic
// recovery. Any failure is classified as an AgentExecutionError, so
// producer faults never propagate past the task boundary.
func Dispatch(ctx context.Context, a Agent, in Context, timeout time.Duration) (*models.GenerationResult, error) {
	if a == nil {
		return nil, &errs.AgentExecutionError{
			TaskID:    in.Task.ID,
			AgentType: in.Task.AgentType,
			Cause:     fmt.Errorf("no agent registered for type %s", in.Task.AgentType),
		}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		result *models.GenerationResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("agent panicked: %v", r)}
			}
		}()
		result, err := a.Generate(runCtx, in)
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-runCtx.Done():
		timedOut := timeout > 0 && ctx.Err() == nil
		return nil, &errs.AgentExecutionError{
			TaskID:    in.Task.ID,
			AgentType: in.Task.AgentType,
			Timeout:   timedOut,
			Cause:     runCtx.Err(),
		}
	case out := <-done:
		if out.err != nil {
			return nil, &errs.AgentExecutionError{
				TaskID:    in.Task.ID,
				AgentType: in.Task.AgentType,
				Cause:     out.err,
			}
		}
		if out.result == nil {
			return nil, &errs.AgentExecutionError{
				TaskID:    in.Task.ID,
				AgentType: in.Task.AgentType,
				Cause:     fmt.Errorf("agent returned no result"),
			}
		}
		out.result.TaskID = in.Task.ID
		return out.result, nil
	}
}
