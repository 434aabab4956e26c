package agent

import (
	"sort"
	"sync"
)

// Registry maps agent types to registered producers. It is thread-safe;
// registration normally happens before planning, lookup during execution.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register binds an agent type to a producer, replacing any previous
// binding for that type.
func (r *Registry) Register(agentType string, a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agentType] = a
}

// Get returns the producer for an agent type, or nil if none registered.
func (r *Registry) Get(agentType string) Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agents[agentType]
}

// Has returns true if an agent type is registered.
func (r *Registry) Has(agentType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[agentType]
	return ok
}

// Types returns all registered agent types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.agents))
	for t := range r.agents {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count returns the number of registered agent types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
