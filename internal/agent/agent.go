// Package agent defines the generation contract between the engine and
// pluggable producers, and the registry that maps agent types to them.
package agent

import (
	"context"

	"github.com/weftworks/weft/pkg/models"
)

// Context is everything an agent receives for one task. Agents are
// stateless with respect to the engine: they read these inputs and return
// a result, and never receive a reference back into engine internals.
type Context struct {
	// Task is the generation task being executed.
	Task *models.GenerationTask
	// ProjectContext is the immutable workspace context for this run.
	ProjectContext *models.ProjectContext
	// Requirements is the full normalized requirement set.
	Requirements []models.Requirement
	// Plan is the plan the task belongs to.
	Plan *models.GenerationPlan
	// ExistingFiles is a read-only listing of workspace files.
	ExistingFiles []string
}

// Agent is a producer implementing the generation contract for one task
// type. Generate inspects the context and returns produced files; it must
// not mutate shared run state.
type Agent interface {
	Generate(ctx context.Context, in Context) (*models.GenerationResult, error)
}

// Func adapts a plain function to the Agent interface.
type Func func(ctx context.Context, in Context) (*models.GenerationResult, error)

// Generate implements Agent.
func (f Func) Generate(ctx context.Context, in Context) (*models.GenerationResult, error) {
	return f(ctx, in)
}
