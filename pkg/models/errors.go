package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies execution failures.
type ErrorKind string

const (
	// KindTransient failures are retried with backoff.
	KindTransient ErrorKind = "transient"
	// KindRecoverable failures are surfaced; dependents are skipped.
	KindRecoverable ErrorKind = "recoverable"
	// KindFatal failures abort the remaining graph.
	KindFatal ErrorKind = "fatal"
	// KindCancelled marks attempts stopped by a cancellation signal.
	KindCancelled ErrorKind = "cancelled"
	// KindSkipped marks subtasks that were never attempted.
	KindSkipped ErrorKind = "skipped"
)

// ExecutionError is the typed failure an agent returns.
type ExecutionError struct {
	Kind    ErrorKind
	Message string
	// Err is an optional underlying cause.
	Err error
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Transient returns a retryable ExecutionError.
func Transient(format string, args ...any) *ExecutionError {
	return &ExecutionError{Kind: KindTransient, Message: fmt.Sprintf(format, args...)}
}

// Recoverable returns an ExecutionError for bad input to a single subtask.
func Recoverable(format string, args ...any) *ExecutionError {
	return &ExecutionError{Kind: KindRecoverable, Message: fmt.Sprintf(format, args...)}
}

// Fatal returns an ExecutionError that aborts the request.
func Fatal(format string, args ...any) *ExecutionError {
	return &ExecutionError{Kind: KindFatal, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of an ExecutionError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return "", false
}
