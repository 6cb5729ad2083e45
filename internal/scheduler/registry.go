package scheduler

import (
	"context"
	"sort"
	"sync"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Invocation is what an agent receives for one attempt of a subtask.
type Invocation struct {
	RequestID string
	// Subtask is a snapshot; agents must not rely on mutating it.
	Subtask models.Subtask
	// Attempt is 1-based.
	Attempt int
	Params  models.Params
	// Inputs holds the Result of every declared dependency. A failed or
	// skipped optional dependency maps to nil.
	Inputs map[string]*models.Result
}

// Agent executes subtasks for one role. Failures should be reported as
// *models.ExecutionError; Invoke must return promptly once ctx is done.
type Agent interface {
	Invoke(ctx context.Context, inv *Invocation) (any, error)
}

// AgentFunc adapts a function to the Agent interface.
type AgentFunc func(ctx context.Context, inv *Invocation) (any, error)

// Invoke calls f.
func (f AgentFunc) Invoke(ctx context.Context, inv *Invocation) (any, error) { return f(ctx, inv) }

// AgentRegistry binds agent roles to agents. It is populated at startup and
// then only read.
type AgentRegistry struct {
	// agents maps roles to their agent.
	agents map[models.AgentRole]Agent
	// mu protects agents.
	mu sync.RWMutex
}

// NewAgentRegistry creates a new AgentRegistry.
func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{
		agents: make(map[models.AgentRole]Agent),
	}
}

// Register binds role to a, replacing any previous binding.
func (r *AgentRegistry) Register(role models.AgentRole, a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[role] = a
}

// Lookup returns the agent bound to role.
func (r *AgentRegistry) Lookup(role models.AgentRole) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[role]
	return a, ok
}

// Roles returns the bound roles, sorted.
func (r *AgentRegistry) Roles() []models.AgentRole {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]models.AgentRole, 0, len(r.agents))
	for role := range r.agents {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Count returns the number of bound roles.
func (r *AgentRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
