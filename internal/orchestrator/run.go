package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weftworks/weft/internal/agent"
	"github.com/weftworks/weft/internal/checkpoint"
	"github.com/weftworks/weft/internal/errs"
	"github.com/weftworks/weft/internal/graph"
	"github.com/weftworks/weft/internal/quality"
	"github.com/weftworks/weft/internal/workspace"
	"github.com/weftworks/weft/pkg/models"
)

// ErrRunStopped is returned when a stop request ends the run at a wave
// boundary. The partial result is still returned alongside it.
var ErrRunStopped = errors.New("run stopped by request")

// runState is the serialized accumulator for one run. Every worker
// resolves its task through exactly one runState method call, so the
// counters never see a partial update.
type runState struct {
	mu sync.Mutex

	result   models.RunResult
	metrics  models.RunMetrics
	statuses map[string]models.TaskStatus
	fatal    error
}

func newRunState(runID string) *runState {
	return &runState{
		result:   models.RunResult{RunID: runID},
		statuses: make(map[string]models.TaskStatus),
	}
}

func (s *runState) resolve(task *models.GenerationTask, status models.TaskStatus, taskErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	task.Status = status
	task.ResolvedAt = &now
	if taskErr != nil {
		task.Error = taskErr.Error()
	}
	s.statuses[task.ID] = status

	switch status {
	case models.TaskStatusFailed:
		s.metrics.TasksFailed++
		s.result.FailedTasks = append(s.result.FailedTasks, task.ID)
	case models.TaskStatusRolledBack:
		s.metrics.TasksRolledBack++
		s.result.RolledBackTasks = append(s.result.RolledBackTasks, task.ID)
	case models.TaskStatusSkipped:
		s.metrics.TasksSkipped++
		s.result.SkippedTasks = append(s.result.SkippedTasks, task.ID)
	}
}

// commit records a succeeded task's contribution. Only succeeded tasks
// ever add files or lines to the run counters.
func (s *runState) commit(task *models.GenerationTask, files []models.GeneratedFile, lines int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	task.Status = models.TaskStatusSucceeded
	task.ResolvedAt = &now
	s.statuses[task.ID] = models.TaskStatusSucceeded

	s.metrics.TasksSucceeded++
	s.metrics.FilesGenerated += len(files)
	s.metrics.LinesOfCode += lines
	s.result.GeneratedFiles = append(s.result.GeneratedFiles, files...)
}

func (s *runState) recordRollback() {
	s.mu.Lock()
	s.metrics.Rollbacks++
	s.mu.Unlock()
}

func (s *runState) recordCheck(qc models.QualityCheckResult) {
	s.mu.Lock()
	s.result.QualityChecks = append(s.result.QualityChecks, qc)
	s.mu.Unlock()
}

// setFatal records the first fatal error; later ones are dropped.
func (s *runState) setFatal(err error) {
	s.mu.Lock()
	if s.fatal == nil {
		s.fatal = err
	}
	s.mu.Unlock()
}

func (s *runState) fatalErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatal
}

func (s *runState) snapshot() models.RunMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

func (s *runState) status(taskID string) models.TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[taskID]
}

// Execute runs a validated plan wave by wave. Tasks within a wave run
// concurrently up to the worker limit; a wave completes only when every
// task in it has resolved. A failed task skips its transitive dependents;
// a failed checkpoint restore aborts the run. Execute always returns the
// run result, even alongside an error.
func (e *Engine) Execute(ctx context.Context, plan *models.GenerationPlan) (*models.RunResult, error) {
	runID := uuid.New().String()[:8]
	state := newRunState(runID)

	g := graph.New()
	if err := g.Build(plan.Tasks); err != nil {
		return nil, &errs.PlanningError{Reason: "plan graph no longer valid", Cause: err}
	}

	e.logger.Log("[run %s] starting: %d tasks, %d waves", runID, len(plan.Tasks), len(plan.Waves))
	e.emit(Event{Type: EventRunStarted, RunID: runID, Message: fmt.Sprintf("%d tasks in %d waves", len(plan.Tasks), len(plan.Waves))})

	// skipped accumulates tasks excluded by an upstream failure before
	// their wave is reached.
	skipped := make(map[string]bool)

	for _, wave := range plan.Waves {
		if err := e.waveGate(ctx, state, runID); err != nil {
			return e.finishRun(state, plan, runID, err)
		}

		e.emit(Event{Type: EventWaveStarted, RunID: runID, Wave: wave.Number})
		e.logger.Log("[run %s] wave %d: %v", runID, wave.Number, wave.TaskIDs)

		runnable := e.resolveSkips(state, plan, wave, skipped, runID)
		e.runWave(ctx, state, plan, wave, runnable, runID)

		// Propagate this wave's failures to everything downstream.
		for _, id := range wave.TaskIDs {
			switch state.status(id) {
			case models.TaskStatusFailed, models.TaskStatusRolledBack, models.TaskStatusSkipped:
				for _, dep := range g.TransitiveDependents(id) {
					skipped[dep] = true
				}
			}
		}

		metrics := state.snapshot()
		e.emit(Event{Type: EventWaveCompleted, RunID: runID, Wave: wave.Number, Metrics: &metrics})

		if fatal := state.fatalErr(); fatal != nil {
			e.logger.Log("[run %s] aborting after wave %d: %v", runID, wave.Number, fatal)
			return e.finishRun(state, plan, runID, fatal)
		}
	}

	return e.finishRun(state, plan, runID, nil)
}

// waveGate consults cancellation and the pause/stop controller before a
// wave is dispatched.
func (e *Engine) waveGate(ctx context.Context, state *runState, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.opts.control == nil {
		return nil
	}
	if e.opts.control.Stopped() {
		e.logger.Log("[run %s] stop requested", runID)
		return ErrRunStopped
	}
	return e.opts.control.WaitIfPaused(ctx)
}

// resolveSkips marks this wave's already-excluded tasks as skipped and
// returns the IDs that will actually run.
func (e *Engine) resolveSkips(state *runState, plan *models.GenerationPlan, wave models.Wave, skipped map[string]bool, runID string) []string {
	var runnable []string
	for _, id := range wave.TaskIDs {
		task := plan.Task(id)
		if task == nil {
			continue
		}
		if skipped[id] {
			state.resolve(task, models.TaskStatusSkipped, fmt.Errorf("dependency failed"))
			e.emit(Event{Type: EventTaskSkipped, RunID: runID, TaskID: id, Wave: wave.Number})
			e.logger.Log("[run %s] task %s skipped: upstream failure", runID, id)
			continue
		}
		runnable = append(runnable, id)
	}
	return runnable
}

// runWave dispatches a wave's runnable tasks through a bounded worker
// pool and blocks until all of them resolve.
func (e *Engine) runWave(ctx context.Context, state *runState, plan *models.GenerationPlan, wave models.Wave, runnable []string, runID string) {
	if len(runnable) == 0 {
		return
	}

	existing, err := workspace.ListFiles(e.root)
	if err != nil {
		e.logger.Log("[run %s] workspace listing failed: %v", runID, err)
		existing = nil
	}

	sem := make(chan struct{}, waveWorkers(e.opts.maxWorkers, plan, runnable))
	var wg sync.WaitGroup

	for _, id := range runnable {
		task := plan.Task(id)

		wg.Add(1)
		sem <- struct{}{}
		go func(task *models.GenerationTask) {
			defer wg.Done()
			defer func() { <-sem }()

			// A fatal error elsewhere in the wave, or run cancellation,
			// stops new dispatches; the task resolves as skipped rather
			// than running against an untrusted workspace.
			if state.fatalErr() != nil {
				state.resolve(task, models.TaskStatusSkipped, fmt.Errorf("run aborted"))
				e.emit(Event{Type: EventTaskSkipped, RunID: runID, TaskID: task.ID, Wave: wave.Number})
				return
			}
			if err := ctx.Err(); err != nil {
				state.resolve(task, models.TaskStatusSkipped, fmt.Errorf("run cancelled: %w", err))
				e.emit(Event{Type: EventTaskSkipped, RunID: runID, TaskID: task.ID, Wave: wave.Number})
				return
			}

			e.runTask(ctx, state, plan, task, wave.Number, existing, runID)
		}(task)
	}

	wg.Wait()
}

// runTask executes the per-task pipeline: checkpoint, dispatch, gate,
// then commit or rollback.
func (e *Engine) runTask(ctx context.Context, state *runState, plan *models.GenerationPlan, task *models.GenerationTask, wave int, existing []string, runID string) {
	task.Status = models.TaskStatusRunning
	e.emit(Event{Type: EventTaskStarted, RunID: runID, TaskID: task.ID, Wave: wave, Message: task.Description})
	e.logger.Log("[run %s] task %s started (agent=%s)", runID, task.ID, task.AgentType)

	cp, err := e.checkpoints.Capture(task.ID, task.InputSpec.TouchedPaths(), state.snapshot())
	if err != nil {
		// Nothing ran and nothing changed; the task fails cleanly.
		state.resolve(task, models.TaskStatusFailed, err)
		e.emit(Event{Type: EventTaskFailed, RunID: runID, TaskID: task.ID, Wave: wave, Err: err})
		e.logger.Log("[run %s] task %s checkpoint capture failed: %v", runID, task.ID, err)
		return
	}

	producer := e.registry.Get(task.AgentType)
	in := agent.Context{
		Task:           task,
		ProjectContext: plan.Context,
		Requirements:   plan.Requirements,
		Plan:           plan,
		ExistingFiles:  existing,
	}

	result, err := agent.Dispatch(ctx, producer, in, e.opts.taskTimeout)
	if err != nil {
		e.rollback(state, task, cp, wave, models.TaskStatusFailed, err, runID)
		return
	}

	qc := e.opts.gate.Evaluate(result)
	qc.TaskID = task.ID
	state.recordCheck(qc)

	if !qc.Passed {
		gateErr := &errs.QualityGateFailure{TaskID: task.ID, Score: qc.Score, Issues: quality.Issues(qc)}
		e.rollback(state, task, cp, wave, models.TaskStatusRolledBack, gateErr, runID)
		return
	}

	committed, err := e.commitFiles(task, result)
	if err != nil {
		e.rollback(state, task, cp, wave, models.TaskStatusFailed, err, runID)
		return
	}

	state.commit(task, committed, result.LinesOfCode)
	metrics := state.snapshot()
	e.emit(Event{Type: EventTaskSucceeded, RunID: runID, TaskID: task.ID, Wave: wave})
	e.emit(Event{Type: EventMetricsUpdated, RunID: runID, Metrics: &metrics})
	e.logger.Log("[run %s] task %s succeeded: %d files, score %.2f", runID, task.ID, len(committed), qc.Score)
}

// commitFiles writes a result's artifacts into the workspace. Files
// outside the task's declared output paths are dropped, not written.
func (e *Engine) commitFiles(task *models.GenerationTask, result *models.GenerationResult) ([]models.GeneratedFile, error) {
	var committed []models.GeneratedFile
	for _, f := range result.Files {
		if !allowedOutput(f.Path, task.InputSpec.OutputPaths) {
			e.logger.Log("[commit] task %s: dropping undeclared output %s", task.ID, f.Path)
			continue
		}
		if err := workspace.WriteFile(e.root, f.Path, []byte(f.Content)); err != nil {
			return nil, &errs.IOError{Op: "commit", Path: f.Path, Cause: err}
		}
		committed = append(committed, f)
	}
	return committed, nil
}

// rollback restores the task's checkpoint and resolves the task. A
// restore failure is fatal to the whole run: workspace state can no
// longer be trusted.
func (e *Engine) rollback(state *runState, task *models.GenerationTask, cp *checkpoint.Checkpoint, wave int, status models.TaskStatus, cause error, runID string) {
	state.recordRollback()

	if err := e.checkpoints.Restore(cp); err != nil {
		fatal := &errs.RollbackFailure{TaskID: task.ID, CheckpointID: cp.ID, Cause: err}
		state.resolve(task, models.TaskStatusFailed, fatal)
		state.setFatal(fatal)
		e.emit(Event{Type: EventTaskFailed, RunID: runID, TaskID: task.ID, Wave: wave, Err: fatal})
		e.logger.Log("[run %s] task %s ROLLBACK FAILED: %v", runID, task.ID, err)
		return
	}

	state.resolve(task, status, cause)
	eventType := EventTaskFailed
	if status == models.TaskStatusRolledBack {
		eventType = EventTaskRolledBack
	}
	e.emit(Event{Type: eventType, RunID: runID, TaskID: task.ID, Wave: wave, Err: cause})
	e.logger.Log("[run %s] task %s resolved %s after rollback: %v", runID, task.ID, status, cause)
}

// finishRun resolves tasks never reached as skipped (when the run ends
// early), builds the summary, and emits the terminal event.
func (e *Engine) finishRun(state *runState, plan *models.GenerationPlan, runID string, runErr error) (*models.RunResult, error) {
	if runErr != nil {
		for _, task := range plan.Tasks {
			if state.status(task.ID) != "" {
				continue
			}
			state.resolve(task, models.TaskStatusSkipped, fmt.Errorf("never dispatched: %v", runErr))
			e.emit(Event{Type: EventTaskSkipped, RunID: runID, TaskID: task.ID, Wave: plan.WaveOf(task.ID)})
		}
	}

	state.mu.Lock()
	state.result.Metrics = state.metrics
	result := state.result
	state.mu.Unlock()

	sort.Strings(result.FailedTasks)
	sort.Strings(result.RolledBackTasks)
	sort.Strings(result.SkippedTasks)
	result.Summary = describeRun(&result)

	eventType := EventRunCompleted
	if runErr != nil {
		eventType = EventRunAborted
	}
	metrics := result.Metrics
	e.emit(Event{Type: eventType, RunID: runID, Message: result.Summary, Err: runErr, Metrics: &metrics})
	e.logger.Log("[run %s] finished: %s", runID, result.Summary)

	return &result, runErr
}

func (e *Engine) emit(event Event) {
	event.Timestamp = time.Now()
	e.emitter.Emit(event)
}

// waveWorkers caps a wave's parallelism at the number of distinct agent
// types it dispatches; more workers than producers buys nothing.
func waveWorkers(maxWorkers int, plan *models.GenerationPlan, runnable []string) int {
	types := make(map[string]bool)
	for _, id := range runnable {
		if task := plan.Task(id); task != nil {
			types[task.AgentType] = true
		}
	}
	if len(types) < maxWorkers {
		return len(types)
	}
	return maxWorkers
}

// allowedOutput reports whether a produced path falls within the task's
// declared outputs: an exact match or a path under a declared directory.
func allowedOutput(path string, outputs []string) bool {
	cleaned := workspace.CleanPath(path)
	for _, out := range outputs {
		declared := workspace.CleanPath(out)
		if cleaned == declared || strings.HasPrefix(cleaned, declared+"/") {
			return true
		}
	}
	return false
}
