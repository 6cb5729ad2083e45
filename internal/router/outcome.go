package router

import (
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/taskweave/internal/aggregate"
	"github.com/ShayCichocki/taskweave/internal/cascade"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Kind is the terminal shape of a handled request.
type Kind string

const (
	// KindSucceeded means every subtask succeeded.
	KindSucceeded Kind = "succeeded"
	// KindPartial means some subtasks succeeded and some did not.
	KindPartial Kind = "partial"
	// KindFailed means the graph ran to completion but nothing succeeded.
	KindFailed Kind = "failed"
	// KindAborted means a fatal failure or cancellation stopped the graph.
	KindAborted Kind = "aborted"
	// KindAmbiguous means the intent fell below the ambiguity threshold and
	// nothing ran.
	KindAmbiguous Kind = "ambiguous"
	// KindRejected means decomposition failed and nothing ran.
	KindRejected Kind = "rejected"
)

// Outcome is the single terminal answer to a Request.
type Outcome struct {
	RequestID string        `json:"request_id"`
	Kind      Kind          `json:"kind"`
	Intent    models.Intent `json:"intent"`
	Band      models.Band   `json:"band"`
	// Alternatives is set for ambiguous outcomes.
	Alternatives []models.Interpretation `json:"alternatives,omitempty"`
	// Preview is attached to mid-confidence intents.
	Preview *Preview `json:"preview,omitempty"`
	// Result is the aggregate, including the partial aggregate of an
	// aborted request.
	Result *aggregate.Result `json:"result,omitempty"`
	// Waves lists the subtask IDs released per wave.
	Waves [][]string `json:"waves,omitempty"`
	// Subtasks is the final state of every subtask, in graph order.
	Subtasks []models.Subtask `json:"subtasks,omitempty"`
	// Cascade explains how the first failure spread.
	Cascade *cascade.Summary `json:"cascade,omitempty"`
	// Reason explains a rejected outcome.
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Executed reports whether any subtask was dispatched.
func (o *Outcome) Executed() bool {
	return len(o.Waves) > 0
}

// ErrAborted matches every *AbortError.
var ErrAborted = errors.New("request aborted")

// AbortError is returned alongside an aborted Outcome.
type AbortError struct {
	RequestID string
	// Fatal is the failure that aborted the graph. It is nil when the
	// caller cancelled.
	Fatal *models.ErrorRecord
	// Err is the context error for a cancelled request.
	Err error
}

func (e *AbortError) Error() string {
	if e.Fatal != nil {
		return fmt.Sprintf("request %s aborted: subtask %s: %s", e.RequestID, e.Fatal.SubtaskID, e.Fatal.Message)
	}
	return fmt.Sprintf("request %s cancelled: %v", e.RequestID, e.Err)
}

func (e *AbortError) Is(target error) bool { return target == ErrAborted }

func (e *AbortError) Unwrap() error { return e.Err }
