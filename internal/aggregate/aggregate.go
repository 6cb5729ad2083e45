// Package aggregate merges per-subtask results into one request result.
package aggregate

import (
	"fmt"

	"github.com/ShayCichocki/taskweave/internal/graph"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Section is one subtask's contribution to the composite payload.
type Section struct {
	SubtaskID string               `json:"subtask_id"`
	Title     string               `json:"title"`
	Role      models.AgentRole     `json:"agent_role"`
	Status    models.SubtaskStatus `json:"status"`
	Wave      int                  `json:"wave,omitempty"`
	Payload   any                  `json:"payload,omitempty"`
}

// Composite is the aggregate payload. Sections run sink to source.
type Composite struct {
	// Primary is the payload of the first succeeded sink, falling back to
	// the first succeeded subtask in sink-to-source order.
	Primary  any       `json:"primary,omitempty"`
	Sections []Section `json:"sections"`
}

// Result is the single result for a request.
type Result struct {
	Payload Composite `json:"payload"`
	// Succeeded is true when at least one subtask succeeded.
	Succeeded bool `json:"succeeded"`
	// Partial is true when any subtask failed or was skipped.
	Partial bool `json:"partial"`
	// Errors holds the records of every failed or skipped subtask.
	Errors []models.ErrorRecord `json:"errors,omitempty"`
}

// Aggregate walks g from sinks to sources and assembles the composite
// result. Each result must belong to a subtask of g and appear once.
func Aggregate(results []*models.Result, records []models.ErrorRecord, g *graph.DependencyGraph) (*Result, error) {
	if g == nil {
		return nil, fmt.Errorf("aggregate: nil graph")
	}

	byID := make(map[string]*models.Result, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		if g.GetSubtask(r.SubtaskID) == nil {
			return nil, fmt.Errorf("aggregate: result for unknown subtask %s", r.SubtaskID)
		}
		if _, dup := byID[r.SubtaskID]; dup {
			return nil, fmt.Errorf("aggregate: duplicate result for subtask %s", r.SubtaskID)
		}
		byID[r.SubtaskID] = r
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	sinks := make(map[string]bool)
	for _, id := range g.Sinks() {
		sinks[id] = true
	}

	out := &Result{Payload: Composite{Sections: make([]Section, 0, len(order))}}
	var fallback any
	primarySet := false
	failed := make(map[string]bool)

	for i := len(order) - 1; i >= 0; i-- {
		st := g.GetSubtask(order[i])
		sec := Section{
			SubtaskID: st.ID,
			Title:     st.Title,
			Role:      st.Role,
			Status:    st.Status,
		}

		if r, ok := byID[st.ID]; ok && r.Succeeded {
			sec.Status = models.StatusSucceeded
			sec.Wave = r.Wave
			sec.Payload = r.Payload
			out.Succeeded = true
			if sinks[st.ID] && !primarySet {
				out.Payload.Primary = r.Payload
				primarySet = true
			}
			if fallback == nil {
				fallback = r.Payload
			}
		} else {
			if ok {
				sec.Status = models.StatusFailed
				sec.Wave = r.Wave
			}
			out.Partial = true
			failed[st.ID] = true
		}
		out.Payload.Sections = append(out.Payload.Sections, sec)
	}

	if !primarySet {
		out.Payload.Primary = fallback
	}

	for _, rec := range records {
		if failed[rec.SubtaskID] {
			out.Errors = append(out.Errors, rec)
		}
	}
	return out, nil
}
