// Package graph provides the dependency graph of subtasks for one request.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// CycleError carries the subtask IDs that form the cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// DependencyGraph represents a directed acyclic graph of subtasks.
// Subtasks are nodes, and edges represent "depends on" relationships.
//
// The structure is fixed after Build. Subtask status fields are owned by the
// scheduler and are not guarded by the graph's lock.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps subtask ID to the subtask itself.
	nodes map[string]*models.Subtask
	// order keeps insertion order so iteration is deterministic.
	order []string
	// edges maps subtask ID to IDs of subtasks it depends on.
	edges map[string][]string
	// dependents is the reverse of edges.
	dependents map[string][]string
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:      make(map[string]*models.Subtask),
		edges:      make(map[string][]string),
		dependents: make(map[string][]string),
	}
}

// Build constructs the dependency graph from a slice of subtasks.
// Returns an error if IDs repeat, a dependency references an unknown subtask,
// or a cycle is detected. On error the graph is left empty.
func (g *DependencyGraph) Build(subtasks []*models.Subtask) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.buildLocked(subtasks); err != nil {
		g.nodes = make(map[string]*models.Subtask)
		g.edges = make(map[string][]string)
		g.dependents = make(map[string][]string)
		g.order = nil
		return err
	}
	return nil
}

func (g *DependencyGraph) buildLocked(subtasks []*models.Subtask) error {
	// First pass: register all subtasks as nodes.
	for _, st := range subtasks {
		if st.ID == "" {
			return errors.New("subtask with empty id")
		}
		if _, dup := g.nodes[st.ID]; dup {
			return fmt.Errorf("duplicate subtask id %s", st.ID)
		}
		g.nodes[st.ID] = st
		g.order = append(g.order, st.ID)
		g.edges[st.ID] = nil
	}

	// Second pass: build edges from DependsOn.
	for _, st := range subtasks {
		for _, dep := range st.DependsOn {
			if _, exists := g.nodes[dep.ID]; !exists {
				return fmt.Errorf("subtask %s depends on unknown subtask %s", st.ID, dep.ID)
			}
			g.edges[st.ID] = append(g.edges[st.ID], dep.ID)
			g.dependents[dep.ID] = append(g.dependents[dep.ID], st.ID)
		}
	}

	if path := g.findCycleLocked(); path != nil {
		return &CycleError{Path: path}
	}
	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.findCycleLocked() != nil
}

// findCycleLocked runs a depth-first search with coloring and returns the
// first back-edge cycle found, or nil.
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
				// Back edge: slice the stack from the repeated node.
				for i, s := range stack {
					if s == depID {
						path := append([]string(nil), stack[i:]...)
						return append(path, depID)
					}
				}
			case 0:
				if p := visit(depID); p != nil {
					return p
				}
			}
		}

		stack = stack[:len(stack)-1]
		colors[id] = 2
		return nil
	}

	for _, id := range g.order {
		if colors[id] == 0 {
			if p := visit(id); p != nil {
				return p
			}
		}
	}
	return nil
}

// TopologicalSort returns subtask IDs in an order where all dependencies
// come before the subtasks that depend on them. Ties follow insertion order.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.findCycleLocked() != nil {
		return nil, ErrCycleDetected
	}

	visited := make(map[string]bool, len(g.nodes))
	result := make([]string, 0, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, depID := range g.edges[id] {
			visit(depID)
		}
		result = append(result, id)
	}

	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// Depth returns the length of the longest dependency chain below id.
// Roots have depth 0.
func (g *DependencyGraph) Depth(id string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.depthLocked(id, make(map[string]int))
}

func (g *DependencyGraph) depthLocked(id string, memo map[string]int) int {
	if d, ok := memo[id]; ok {
		return d
	}
	depth := 0
	for _, depID := range g.edges[id] {
		if d := g.depthLocked(depID, memo) + 1; d > depth {
			depth = d
		}
	}
	memo[id] = depth
	return depth
}

// Levels groups subtask IDs by depth. Level i holds every subtask whose
// longest dependency chain has length i; this is the wave plan when every
// subtask succeeds.
func (g *DependencyGraph) Levels() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	memo := make(map[string]int, len(g.nodes))
	var levels [][]string
	for _, id := range g.order {
		d := g.depthLocked(id, memo)
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], id)
	}
	for _, level := range levels {
		sort.Strings(level)
	}
	return levels
}

// Sinks returns subtasks that nothing depends on, in insertion order.
func (g *DependencyGraph) Sinks() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var sinks []string
	for _, id := range g.order {
		if len(g.dependents[id]) == 0 {
			sinks = append(sinks, id)
		}
	}
	return sinks
}

// GetSubtask returns the subtask for a given ID, or nil if not found.
func (g *DependencyGraph) GetSubtask(id string) *models.Subtask {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// Subtasks returns all subtasks in insertion order.
func (g *DependencyGraph) Subtasks() []*models.Subtask {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*models.Subtask, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// IDs returns all subtask IDs in insertion order.
func (g *DependencyGraph) IDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}

// Size returns the number of subtasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// GetDependencies returns the IDs of subtasks that the given subtask depends on.
func (g *DependencyGraph) GetDependencies(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.edges[id]...)
}

// GetDependents returns the IDs of subtasks that depend on the given subtask.
func (g *DependencyGraph) GetDependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.dependents[id]...)
}
