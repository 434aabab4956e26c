// Package graph provides the dependency graph used for wave scheduling.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/weftworks/weft/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the task graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// CycleError wraps ErrCycleDetected with the participating task IDs.
type CycleError struct {
	// TaskIDs are the tasks on the detected cycle, in discovery order.
	TaskIDs []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %v", e.TaskIDs)
}

// Is reports that a CycleError matches ErrCycleDetected.
func (e *CycleError) Is(target error) bool { return target == ErrCycleDetected }

// DependencyGraph is a directed acyclic graph of generation tasks.
// Tasks are nodes, and edges represent "blocked by" relationships.
// The graph is built once from a plan's task set and read-only afterwards.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps task ID to the task itself.
	nodes map[string]*models.GenerationTask
	// edges maps task ID to IDs of tasks it depends on (is blocked by).
	edges map[string][]string
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*models.GenerationTask),
		edges: make(map[string][]string),
	}
}

// Build constructs the dependency graph from a slice of tasks.
// Returns an error if a dependency references an unknown task or a cycle
// is detected.
func (g *DependencyGraph) Build(tasks []*models.GenerationTask) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// First pass: register all tasks as nodes.
	for _, task := range tasks {
		g.nodes[task.ID] = task
		g.edges[task.ID] = nil
	}

	// Second pass: build edges from DependsOn fields.
	for _, task := range tasks {
		for _, depID := range task.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("task %s depends on unknown task %s", task.ID, depID)
			}
			g.edges[task.ID] = append(g.edges[task.ID], depID)
		}
	}

	if cycle := g.findCycleLocked(); cycle != nil {
		return &CycleError{TaskIDs: cycle}
	}
	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
// Uses depth-first search with coloring to detect back edges.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.findCycleLocked() != nil
}

// findCycleLocked returns the task IDs on a cycle, or nil when the graph
// is acyclic. Caller must hold the lock.
func (g *DependencyGraph) findCycleLocked() []string {
	// Color states: 0 = white (unvisited), 1 = gray (in progress), 2 = black (done).
	colors := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		colors[id] = 1
		stack = append(stack, id)

		for _, depID := range g.edges[id] {
			switch colors[depID] {
			case 1:
				// Back edge: the cycle is the stack segment from depID onward.
				for i, sid := range stack {
					if sid == depID {
						return append([]string(nil), stack[i:]...)
					}
				}
				return append([]string(nil), stack...)
			case 0:
				if cycle := visit(depID); cycle != nil {
					return cycle
				}
			}
		}

		colors[id] = 2
		stack = stack[:len(stack)-1]
		return nil
	}

	// Iterate in sorted order so the reported cycle is deterministic.
	for _, id := range g.sortedIDsLocked() {
		if colors[id] == 0 {
			stack = stack[:0]
			if cycle := visit(id); cycle != nil {
				sort.Strings(cycle)
				return cycle
			}
		}
	}
	return nil
}

// Waves computes the dependency-ordered wave assignment: wave 0 holds
// tasks with no dependencies, wave N holds tasks whose dependencies all
// sit in waves < N. Task IDs within each wave are sorted, so the result
// is deterministic for a given task set.
// Returns an error if the graph contains a cycle.
func (g *DependencyGraph) Waves() ([]models.Wave, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if cycle := g.findCycleLocked(); cycle != nil {
		return nil, &CycleError{TaskIDs: cycle}
	}

	placed := make(map[string]bool, len(g.nodes))
	var waves []models.Wave

	for len(placed) < len(g.nodes) {
		var current []string
		for _, id := range g.sortedIDsLocked() {
			if placed[id] {
				continue
			}
			ready := true
			for _, depID := range g.edges[id] {
				if !placed[depID] {
					ready = false
					break
				}
			}
			if ready {
				current = append(current, id)
			}
		}

		// Acyclic graphs always yield at least one ready task per pass.
		if len(current) == 0 {
			return nil, ErrCycleDetected
		}

		for _, id := range current {
			placed[id] = true
		}
		waves = append(waves, models.Wave{Number: len(waves), TaskIDs: current})
	}

	return waves, nil
}

// GetTask returns the task for a given ID, or nil if not found.
func (g *DependencyGraph) GetTask(taskID string) *models.GenerationTask {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[taskID]
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// GetDependencies returns the IDs of tasks that the given task depends on.
func (g *DependencyGraph) GetDependencies(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[taskID]
}

// GetDependents returns the IDs of tasks that directly depend on the given task.
func (g *DependencyGraph) GetDependents(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for _, id := range g.sortedIDsLocked() {
		for _, depID := range g.edges[id] {
			if depID == taskID {
				dependents = append(dependents, id)
				break
			}
		}
	}
	return dependents
}

// TransitiveDependents returns every task that directly or indirectly
// depends on the given task, sorted by ID. Used to mark the skip set when
// a task fails.
func (g *DependencyGraph) TransitiveDependents(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]bool)
	frontier := []string{taskID}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		for id, deps := range g.edges {
			if seen[id] {
				continue
			}
			for _, depID := range deps {
				if depID == next {
					seen[id] = true
					frontier = append(frontier, id)
					break
				}
			}
		}
	}

	result := make([]string, 0, len(seen))
	for id := range seen {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// sortedIDsLocked returns all node IDs in sorted order. Caller must hold
// the lock.
func (g *DependencyGraph) sortedIDsLocked() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
