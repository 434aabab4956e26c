// Package planner maps normalized requirements and project context to a
// validated, dependency-ordered generation plan. The planner performs no
// I/O and produces no files; it only emits a plan.
package planner

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/weftworks/weft/internal/errs"
	"github.com/weftworks/weft/internal/graph"
	"github.com/weftworks/weft/pkg/models"
)

// TypeChecker is the registry view the planner validates agent types
// against. Satisfied by agent.Registry.
type TypeChecker interface {
	Has(agentType string) bool
}

// Planner builds generation plans.
type Planner struct {
	registry TypeChecker
	// threshold is the quality threshold recorded into plans.
	threshold float64
}

// New creates a Planner validating against the given registry.
func New(registry TypeChecker, qualityThreshold float64) *Planner {
	return &Planner{registry: registry, threshold: qualityThreshold}
}

// Plan turns an analysis report into a generation plan: one task per
// requirement, agent types assigned by category, dependencies derived
// from cross-cutting needs. The plan is validated before it is returned:
// every agent type must be registered, the dependency graph must be
// acyclic, and no two tasks in the same wave may declare overlapping
// output paths. Plan is deterministic for identical inputs.
func (p *Planner) Plan(report *models.AnalysisReport) (*models.GenerationPlan, error) {
	if report == nil || len(report.Requirements) == 0 {
		return nil, &errs.PlanningError{Reason: "no requirements to plan"}
	}

	tasks := buildTasks(report)

	for _, task := range tasks {
		if !p.registry.Has(task.AgentType) {
			return nil, &errs.PlanningError{
				Reason:  fmt.Sprintf("no agent registered for type %q", task.AgentType),
				TaskIDs: []string{task.ID},
			}
		}
	}

	g := graph.New()
	if err := g.Build(tasks); err != nil {
		var cycleErr *graph.CycleError
		if errors.As(err, &cycleErr) {
			return nil, &errs.PlanningError{
				Reason:  "circular dependency",
				TaskIDs: cycleErr.TaskIDs,
				Cause:   err,
			}
		}
		return nil, &errs.PlanningError{Reason: "invalid dependency graph", Cause: err}
	}

	waves, err := g.Waves()
	if err != nil {
		return nil, &errs.PlanningError{Reason: "wave computation failed", Cause: err}
	}

	if err := checkWaveOverlaps(tasks, waves); err != nil {
		return nil, err
	}

	return &models.GenerationPlan{
		ID:               uuid.New().String()[:8],
		Tasks:            tasks,
		Waves:            waves,
		Requirements:     report.Requirements,
		Context:          report.Context,
		QualityThreshold: p.threshold,
		CreatedAt:        time.Now(),
	}, nil
}

// buildTasks creates one task per requirement with deterministic IDs,
// then derives dependency edges.
func buildTasks(report *models.AnalysisReport) []*models.GenerationTask {
	now := time.Now()

	var pctx models.ProjectContext
	if report.Context != nil {
		pctx = *report.Context
	}

	tasks := make([]*models.GenerationTask, 0, len(report.Requirements))
	used := make(map[string]int)
	// byName maps a requirement's name (lowered) to its task, for
	// target-based dependency resolution.
	byName := make(map[string]*models.GenerationTask)
	byCategory := make(map[models.RequirementCategory][]*models.GenerationTask)

	for _, req := range report.Requirements {
		id := taskID(req, used)
		task := &models.GenerationTask{
			ID:          id,
			AgentType:   string(req.Category),
			Description: describeTask(req),
			InputSpec: models.InputSpec{
				Requirement: req,
				OutputPaths: outputPaths(req, pctx),
				Params:      req.Parameters,
			},
			Status:    models.TaskStatusPending,
			CreatedAt: now,
		}
		tasks = append(tasks, task)
		if req.Name != "" {
			byName[strings.ToLower(req.Name)] = task
		}
		byCategory[req.Category] = append(byCategory[req.Category], task)
	}

	for _, task := range tasks {
		task.DependsOn = dependsOn(task, byName, byCategory)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// dependsOn derives a task's dependency edges from cross-cutting needs.
func dependsOn(task *models.GenerationTask, byName map[string]*models.GenerationTask, byCategory map[models.RequirementCategory][]*models.GenerationTask) []string {
	req := task.InputSpec.Requirement

	// A declared target always wins: the task depends on the task
	// generating the named artifact.
	if target := req.Parameters["target"]; target != "" {
		if dep, ok := byName[strings.ToLower(target)]; ok && dep.ID != task.ID {
			return []string{dep.ID}
		}
	}

	var deps []string
	switch req.Category {
	case models.CategoryTest:
		// A test for X depends on X's task; an unmatched test suite
		// depends on everything it could be exercising.
		if dep := matchByName(req.Name, byName, task.ID); dep != "" {
			deps = []string{dep}
			break
		}
		for _, cat := range []models.RequirementCategory{models.CategoryComponent, models.CategoryAPI, models.CategorySchema} {
			for _, t := range byCategory[cat] {
				deps = append(deps, t.ID)
			}
		}
	case models.CategoryAPI:
		// APIs are generated after the schemas they serve.
		for _, t := range byCategory[models.CategorySchema] {
			deps = append(deps, t.ID)
		}
	case models.CategoryDoc:
		// Docs describe what exists.
		for _, cat := range []models.RequirementCategory{models.CategoryComponent, models.CategoryAPI} {
			for _, t := range byCategory[cat] {
				deps = append(deps, t.ID)
			}
		}
	case models.CategoryStyling:
		if dep := matchByName(req.Name, byName, task.ID); dep != "" {
			deps = []string{dep}
		}
	}

	sort.Strings(deps)
	return deps
}

// matchByName resolves "ButtonTest" or "ButtonStyle" style names to the
// task generating "Button". Returns "" when nothing matches.
func matchByName(name string, byName map[string]*models.GenerationTask, selfID string) string {
	lower := strings.ToLower(name)
	for _, suffix := range []string{"test", "tests", "spec", "style", "styles", "doc", "docs"} {
		lower = strings.TrimSuffix(lower, suffix)
	}
	lower = strings.TrimRight(lower, "-_. ")
	if lower == "" {
		return ""
	}
	if dep, ok := byName[lower]; ok && dep.ID != selfID {
		return dep.ID
	}
	return ""
}

// taskID builds a deterministic task ID from the requirement, with an
// ordinal suffix on collisions.
func taskID(req models.Requirement, used map[string]int) string {
	base := string(req.Category)
	if slug := slugify(req.Name); slug != "" {
		base += "-" + slug
	}
	used[base]++
	if used[base] > 1 {
		return fmt.Sprintf("%s-%d", base, used[base])
	}
	return base
}

func describeTask(req models.Requirement) string {
	if req.Name != "" {
		return fmt.Sprintf("Generate %s %s", req.Category, req.Name)
	}
	if desc := req.Parameters["description"]; desc != "" {
		return desc
	}
	return fmt.Sprintf("Generate %s artifact", req.Category)
}

// slugify lowercases a name and collapses non-alphanumerics to hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
