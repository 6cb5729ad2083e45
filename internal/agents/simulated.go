// Package agents provides agent implementations the CLI can bind to roles
// without a real tool backend.
package agents

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ShayCichocki/taskweave/internal/scheduler"
	"github.com/ShayCichocki/taskweave/internal/toolmatrix"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Output is the payload a Simulated agent returns.
type Output struct {
	Role    models.AgentRole `json:"agent_role"`
	Subtask string           `json:"subtask"`
	Tool    string           `json:"tool,omitempty"`
	Summary string           `json:"summary"`
	// Inputs lists the dependencies that delivered a result.
	Inputs []string `json:"inputs,omitempty"`
}

// Failure injects errors for one subtask.
type Failure struct {
	Kind models.ErrorKind
	// Times is how many attempts fail before the subtask succeeds. Zero
	// fails every attempt.
	Times int
}

// Simulated answers every subtask with a deterministic Output. It refuses
// destructive capabilities unless the request is confirmed.
type Simulated struct {
	// Latency is slept per attempt, honoring cancellation.
	Latency time.Duration

	mu       sync.Mutex
	failures map[string]Failure
	calls    map[string]int
}

// NewSimulated creates a Simulated agent with injected failures keyed by
// subtask ID.
func NewSimulated(latency time.Duration, failures map[string]Failure) *Simulated {
	f := make(map[string]Failure, len(failures))
	for k, v := range failures {
		f[k] = v
	}
	return &Simulated{Latency: latency, failures: f, calls: make(map[string]int)}
}

// Invoke implements scheduler.Agent.
func (s *Simulated) Invoke(ctx context.Context, inv *scheduler.Invocation) (any, error) {
	if s.Latency > 0 {
		t := time.NewTimer(s.Latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	st := inv.Subtask
	if st.Capability == models.CapFileDelete && !inv.Params.Bool(toolmatrix.ParamConfirmed) {
		return nil, models.Fatal("subtask %s: destructive operation without confirmation", st.ID)
	}

	s.mu.Lock()
	s.calls[st.ID]++
	n := s.calls[st.ID]
	f, inject := s.failures[st.ID]
	s.mu.Unlock()

	if inject && (f.Times == 0 || n <= f.Times) {
		return nil, &models.ExecutionError{
			Kind:    f.Kind,
			Message: fmt.Sprintf("injected %s failure on attempt %d", f.Kind, inv.Attempt),
		}
	}

	out := Output{Role: st.Role, Subtask: st.ID}
	if len(st.Tools) > 0 {
		out.Tool = st.Tools[0]
	}
	for id, res := range inv.Inputs {
		if res != nil {
			out.Inputs = append(out.Inputs, id)
		}
	}
	sort.Strings(out.Inputs)
	out.Summary = fmt.Sprintf("%s: %s via %s", st.Role, strings.ToLower(st.Title), orNone(out.Tool))
	return out, nil
}

// Calls returns how many attempts reached the failure check for id.
func (s *Simulated) Calls(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func orNone(s string) string {
	if s == "" {
		return "no tool"
	}
	return s
}

// AllRoles lists every agent role.
var AllRoles = []models.AgentRole{
	models.RolePlanner,
	models.RoleFileReader,
	models.RoleCodeAnalyst,
	models.RoleCodeWriter,
	models.RoleSearcher,
	models.RoleGitOperator,
	models.RoleTerminalOperator,
	models.RoleReviewer,
	models.RoleReportWriter,
}

// RegisterAll binds a to every role.
func RegisterAll(reg *scheduler.AgentRegistry, a scheduler.Agent) {
	for _, role := range AllRoles {
		reg.Register(role, a)
	}
}

// ParseFailures parses "subtask=kind[:times]" specs, e.g.
// "readFile=transient:2" or "apply=fatal".
func ParseFailures(specs []string) (map[string]Failure, error) {
	out := make(map[string]Failure, len(specs))
	for _, spec := range specs {
		id, rest, ok := strings.Cut(spec, "=")
		if !ok || id == "" || rest == "" {
			return nil, fmt.Errorf("invalid failure %q: want subtask=kind[:times]", spec)
		}
		kindStr, timesStr, hasTimes := strings.Cut(rest, ":")
		kind := models.ErrorKind(kindStr)
		switch kind {
		case models.KindTransient, models.KindRecoverable, models.KindFatal:
		default:
			return nil, fmt.Errorf("invalid failure %q: kind must be transient, recoverable or fatal", spec)
		}
		f := Failure{Kind: kind}
		if hasTimes {
			n, err := strconv.Atoi(timesStr)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid failure %q: bad times %q", spec, timesStr)
			}
			f.Times = n
		}
		out[id] = f
	}
	return out, nil
}
