package cascade

import "fmt"

// AttemptState is a subtask's position in the attempt state machine:
// Pending -> Running -> {Succeeded | Retrying -> Running | Failed}.
type AttemptState string

const (
	StatePending   AttemptState = "pending"
	StateRunning   AttemptState = "running"
	StateRetrying  AttemptState = "retrying"
	StateSucceeded AttemptState = "succeeded"
	StateFailed    AttemptState = "failed"
)

var transitions = map[AttemptState][]AttemptState{
	StatePending:  {StateRunning, StateFailed},
	StateRunning:  {StateSucceeded, StateRetrying, StateFailed},
	StateRetrying: {StateRunning, StateFailed},
}

// Attempt tracks one subtask through the state machine. It is used by a
// single goroutine.
type Attempt struct {
	SubtaskID string
	State     AttemptState
	// Count is the number of times the attempt entered Running.
	Count int
}

// NewAttempt starts in Pending.
func NewAttempt(subtaskID string) *Attempt {
	return &Attempt{SubtaskID: subtaskID, State: StatePending}
}

// To moves the attempt to next or returns an error for an illegal edge.
func (a *Attempt) To(next AttemptState) error {
	for _, allowed := range transitions[a.State] {
		if allowed == next {
			a.State = next
			if next == StateRunning {
				a.Count++
			}
			return nil
		}
	}
	return fmt.Errorf("subtask %s: illegal attempt transition %s -> %s", a.SubtaskID, a.State, next)
}

// Done reports whether the attempt reached a terminal state.
func (a *Attempt) Done() bool {
	return a.State == StateSucceeded || a.State == StateFailed
}
