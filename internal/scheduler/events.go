package scheduler

import (
	"time"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// EventType represents the type of progress event.
type EventType string

const (
	// EventWaveStarted marks the release of a wave.
	EventWaveStarted EventType = "wave_started"
	// EventWaveCompleted marks a wave reaching its barrier.
	EventWaveCompleted EventType = "wave_completed"
	// EventSubtaskQueued indicates a subtask joined the current wave.
	EventSubtaskQueued EventType = "subtask_queued"
	// EventSubtaskStarted indicates an attempt began.
	EventSubtaskStarted EventType = "subtask_started"
	// EventSubtaskRetrying indicates a transient failure will be retried.
	EventSubtaskRetrying EventType = "subtask_retrying"
	// EventSubtaskSucceeded indicates the subtask produced a result.
	EventSubtaskSucceeded EventType = "subtask_succeeded"
	// EventSubtaskFailed indicates a terminal failure.
	EventSubtaskFailed EventType = "subtask_failed"
	// EventSubtaskSkipped indicates the subtask will never run.
	EventSubtaskSkipped EventType = "subtask_skipped"
	// EventExecutionDone is the last event of an execution.
	EventExecutionDone EventType = "execution_done"
)

// Event is one progress update.
type Event struct {
	Type      EventType            `json:"type"`
	RequestID string               `json:"request_id,omitempty"`
	SubtaskID string               `json:"subtask_id,omitempty"`
	Status    models.SubtaskStatus `json:"status,omitempty"`
	// Wave is 1-based; zero for events outside a wave.
	Wave    int    `json:"wave,omitempty"`
	Attempt int    `json:"attempt,omitempty"`
	Message string `json:"message,omitempty"`
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
}
