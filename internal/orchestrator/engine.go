package orchestrator

import (
	"fmt"

	"github.com/weftworks/weft/internal/agent"
	"github.com/weftworks/weft/internal/checkpoint"
	"github.com/weftworks/weft/internal/errs"
	"github.com/weftworks/weft/internal/planner"
	"github.com/weftworks/weft/internal/require"
	"github.com/weftworks/weft/internal/workspace"
	"github.com/weftworks/weft/pkg/models"
)

// Engine drives the full generation pipeline: requirement analysis,
// planning, and plan execution. One Engine serves one workspace root;
// a run is a single Execute call.
type Engine struct {
	root        string
	registry    *agent.Registry
	planner     *planner.Planner
	checkpoints *checkpoint.Manager
	emitter     *EventEmitter
	logger      *DebugLogger
	opts        engineOptions
}

// New creates an Engine over the given workspace root with the given
// agent registry.
func New(root string, registry *agent.Registry, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NopLogger()
	}

	return &Engine{
		root:        root,
		registry:    registry,
		planner:     planner.New(registry, o.threshold),
		checkpoints: checkpoint.NewManager(root, o.vcs),
		emitter:     NewEventEmitter(o.eventBuffer),
		logger:      o.logger,
		opts:        o,
	}
}

// Events returns the engine's progress event stream. Subscribers must
// drain it while a run is in progress.
func (e *Engine) Events() <-chan Event {
	return e.emitter.Events()
}

// Close releases the engine's event channel and log file.
func (e *Engine) Close() error {
	e.emitter.Close()
	return e.logger.Close()
}

// Analyze parses raw requirement input and detects workspace conventions,
// producing the report planning starts from. Raw input may be free text,
// a list, or a structured document.
func (e *Engine) Analyze(raw any) (*models.AnalysisReport, error) {
	reqs, err := require.Parse(raw)
	if err != nil {
		return nil, err
	}
	return e.buildReport(reqs)
}

// AnalyzeFile is Analyze over a requirements file.
func (e *Engine) AnalyzeFile(path string) (*models.AnalysisReport, error) {
	reqs, err := require.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return e.buildReport(reqs)
}

func (e *Engine) buildReport(reqs []models.Requirement) (*models.AnalysisReport, error) {
	if len(reqs) == 0 {
		return nil, &errs.ValidationError{Entry: "input", Reason: "no requirements found"}
	}

	pctx := workspace.DetectContext(e.root)

	report := &models.AnalysisReport{
		Requirements: reqs,
		Context:      pctx,
	}
	if pctx.Language == workspace.UnknownValue {
		report.Warnings = append(report.Warnings, "could not detect project language; generated paths use generic conventions")
	}

	e.logger.Log("[analyze] %d requirements, language=%s framework=%s", len(reqs), pctx.Language, pctx.Framework)
	return report, nil
}

// Plan turns an analysis report into a validated generation plan.
func (e *Engine) Plan(report *models.AnalysisReport) (*models.GenerationPlan, error) {
	plan, err := e.planner.Plan(report)
	if err != nil {
		e.logger.Log("[plan] planning failed: %v", err)
		return nil, err
	}
	e.logger.Log("[plan] %s: %d tasks in %d waves", plan.ID, len(plan.Tasks), len(plan.Waves))
	return plan, nil
}

// describeRun renders the one-line run summary.
func describeRun(result *models.RunResult) string {
	m := result.Metrics
	return fmt.Sprintf("%d/%d tasks succeeded, %d files generated (%d failed, %d rolled back, %d skipped)",
		m.TasksSucceeded, m.Resolved(), m.FilesGenerated,
		m.TasksFailed, m.TasksRolledBack, m.TasksSkipped)
}
