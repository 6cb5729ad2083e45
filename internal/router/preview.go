package router

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/taskweave/internal/graph"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Step is one planned subtask in a Preview.
type Step struct {
	Wave       int               `json:"wave"`
	SubtaskID  string            `json:"subtask_id"`
	Title      string            `json:"title"`
	Role       models.AgentRole  `json:"agent_role"`
	Capability models.Capability `json:"capability"`
	Tool       string            `json:"tool,omitempty"`
}

// Preview is the plan shown for an intent the router is not sure about.
type Preview struct {
	Operation  models.OperationType `json:"operation_type"`
	Confidence float64              `json:"confidence"`
	Steps      []Step               `json:"steps"`
}

// BuildPreview lists the subtasks of g in static wave order.
func BuildPreview(intent models.Intent, g *graph.DependencyGraph) *Preview {
	p := &Preview{Operation: intent.Operation, Confidence: intent.Confidence}
	for i, level := range g.Levels() {
		for _, id := range level {
			st := g.GetSubtask(id)
			step := Step{
				Wave:       i + 1,
				SubtaskID:  st.ID,
				Title:      st.Title,
				Role:       st.Role,
				Capability: st.Capability,
			}
			if len(st.Tools) > 0 {
				step.Tool = st.Tools[0]
			}
			p.Steps = append(p.Steps, step)
		}
	}
	return p
}

func (p *Preview) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s request (confidence %.2f), planned steps:\n", p.Operation, p.Confidence)
	for i, s := range p.Steps {
		tool := s.Tool
		if tool == "" {
			tool = "-"
		}
		fmt.Fprintf(&b, "  %d. [wave %d] %s (%s, %s via %s)\n", i+1, s.Wave, s.Title, s.Role, s.Capability, tool)
	}
	return b.String()
}
