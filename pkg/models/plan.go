package models

import "time"

// Wave is a maximal set of mutually independent tasks eligible for
// parallel execution. Task IDs within a wave are sorted for determinism.
type Wave struct {
	// Number is the zero-based wave index in execution order.
	Number int `json:"number"`
	// TaskIDs are the tasks assigned to this wave.
	TaskIDs []string `json:"task_ids"`
}

// GenerationPlan is the full task set plus its dependency structure and
// quality-gate configuration. A plan is immutable once constructed; the
// engine derives execution order from it without mutating it.
type GenerationPlan struct {
	// ID is the unique identifier for this plan.
	ID string `json:"id"`
	// Tasks is every task in the plan, sorted by ID.
	Tasks []*GenerationTask `json:"tasks"`
	// Waves is the dependency-ordered wave assignment over Tasks.
	Waves []Wave `json:"waves"`
	// Requirements are the normalized requirements the plan was built from.
	Requirements []Requirement `json:"requirements"`
	// Context is the immutable project context the plan was built against.
	Context *ProjectContext `json:"context"`
	// QualityThreshold is the minimum passing score for the quality gate.
	QualityThreshold float64 `json:"quality_threshold"`
	// CreatedAt is when the plan was constructed.
	CreatedAt time.Time `json:"created_at"`
}

// Task returns the task with the given ID, or nil if not present.
func (p *GenerationPlan) Task(id string) *GenerationTask {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// WaveOf returns the wave number containing the given task ID, or -1.
func (p *GenerationPlan) WaveOf(taskID string) int {
	for _, w := range p.Waves {
		for _, id := range w.TaskIDs {
			if id == taskID {
				return w.Number
			}
		}
	}
	return -1
}

// AnalysisReport is the output of Analyze: normalized requirements plus
// the detected project context, ready to be turned into a plan.
type AnalysisReport struct {
	// Requirements are the normalized capability requests.
	Requirements []Requirement `json:"requirements"`
	// Context is the detected workspace context.
	Context *ProjectContext `json:"context"`
	// Warnings lists non-fatal observations made during analysis.
	Warnings []string `json:"warnings,omitempty"`
}
