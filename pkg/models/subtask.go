package models

// AgentRole names a specialized agent.
type AgentRole string

const (
	RolePlanner          AgentRole = "planner"
	RoleFileReader       AgentRole = "file_reader"
	RoleCodeAnalyst      AgentRole = "code_analyst"
	RoleCodeWriter       AgentRole = "code_writer"
	RoleSearcher         AgentRole = "searcher"
	RoleGitOperator      AgentRole = "git_operator"
	RoleTerminalOperator AgentRole = "terminal_operator"
	RoleReviewer         AgentRole = "reviewer"
	RoleReportWriter     AgentRole = "report_writer"
)

// SubtaskStatus represents the current state of a subtask.
type SubtaskStatus string

const (
	// StatusPending indicates the subtask has not been scheduled.
	StatusPending SubtaskStatus = "pending"
	// StatusReady indicates the subtask is a member of the current wave.
	StatusReady SubtaskStatus = "ready"
	// StatusRunning indicates an attempt is in flight.
	StatusRunning SubtaskStatus = "running"
	// StatusSucceeded indicates the subtask produced a result.
	StatusSucceeded SubtaskStatus = "succeeded"
	// StatusFailed indicates the subtask failed terminally.
	StatusFailed SubtaskStatus = "failed"
	// StatusSkipped indicates the subtask was never attempted.
	StatusSkipped SubtaskStatus = "skipped"
)

// Valid returns true if the status is a known value.
func (s SubtaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReady, StatusRunning, StatusSucceeded, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// Terminal returns true for succeeded, failed and skipped.
func (s SubtaskStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// Dependency is an edge to another subtask whose output is consumed.
type Dependency struct {
	// ID is the subtask depended upon.
	ID string `json:"id"`
	// Optional lets the dependent run with a nil input when the
	// dependency does not succeed.
	Optional bool `json:"optional,omitempty"`
}

// Subtask is one unit of work in a DependencyGraph.
type Subtask struct {
	// ID is unique within its graph.
	ID string `json:"id"`
	// Title is a short human-readable description.
	Title string `json:"title"`
	// Role is the agent role that executes the subtask.
	Role AgentRole `json:"agent_role"`
	// Capability is what the subtask needs from a tool.
	Capability Capability `json:"capability"`
	// Tools are the candidate tool names, best first.
	Tools []string `json:"tools,omitempty"`
	// DependsOn lists declared data dependencies.
	DependsOn []Dependency `json:"depends_on,omitempty"`
	// Status is owned by the scheduler.
	Status SubtaskStatus `json:"status"`
	// Attempts counts executions started by the scheduler.
	Attempts int `json:"attempts,omitempty"`
	// BlockedReason explains a skip, e.g. "dependency_failed:<id>".
	BlockedReason string `json:"blocked_reason,omitempty"`
}

// DependencyIDs returns the IDs of all dependencies.
func (s *Subtask) DependencyIDs() []string {
	ids := make([]string, 0, len(s.DependsOn))
	for _, d := range s.DependsOn {
		ids = append(ids, d.ID)
	}
	return ids
}

// IsOptional reports whether the dependency on id is optional.
func (s *Subtask) IsOptional(id string) bool {
	for _, d := range s.DependsOn {
		if d.ID == id {
			return d.Optional
		}
	}
	return false
}
