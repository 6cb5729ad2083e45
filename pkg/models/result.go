package models

import "time"

// Result is produced exactly once per executed subtask.
type Result struct {
	SubtaskID string `json:"subtask_id"`
	// Payload is whatever the agent returned.
	Payload   any  `json:"payload,omitempty"`
	Succeeded bool `json:"succeeded"`
	// Error is set when Succeeded is false.
	Error *ErrorRecord `json:"error,omitempty"`
	// Attempts is the number of attempts made.
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
	// Wave is the 1-based wave the subtask ran in.
	Wave int `json:"wave"`
}

// ErrorRecord is an append-only record of one failure.
type ErrorRecord struct {
	SubtaskID string    `json:"subtask_id"`
	Kind      ErrorKind `json:"kind"`
	Attempt   int       `json:"attempt"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
