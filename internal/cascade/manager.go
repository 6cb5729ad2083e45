// Package cascade classifies subtask failures and decides how they
// propagate: retry locally, surface on the result, or abort the request.
package cascade

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Decision is the action taken after an attempt fails.
type Decision int

const (
	// Retry runs the subtask again after a backoff.
	Retry Decision = iota
	// Surface marks the subtask failed and skips its dependents.
	Surface
	// Abort stops the remaining graph.
	Abort
)

// String returns a human-readable representation of the decision.
func (d Decision) String() string {
	switch d {
	case Retry:
		return "retry"
	case Surface:
		return "surface"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// Policy bounds retries.
type Policy struct {
	// MaxAttempts counts the first attempt. Values below 1 mean 1.
	MaxAttempts int
	// BackoffBase is the delay before the second attempt.
	BackoffBase time.Duration
	// BackoffMax caps the delay.
	BackoffMax time.Duration
}

// DefaultPolicy returns three attempts with 200ms doubling backoff capped at 5s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BackoffBase: 200 * time.Millisecond,
		BackoffMax:  5 * time.Second,
	}
}

// Manager applies a Policy and keeps the request's ErrorLog. One Manager
// serves one request.
type Manager struct {
	policy Policy
	log    *ErrorLog
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Manager with an empty error log.
func New(policy Policy, logger *zap.Logger) *Manager {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		policy: policy,
		log:    NewErrorLog(),
		logger: logger,
		now:    time.Now,
	}
}

// Policy returns the retry policy.
func (m *Manager) Policy() Policy {
	return m.policy
}

// Log returns the request's error log.
func (m *Manager) Log() *ErrorLog {
	return m.log
}

// Classify maps an attempt's error to a kind. Cancellation of parent wins
// over everything; an *models.ExecutionError keeps its declared kind; an
// expired attempt deadline is transient; anything else is recoverable.
func (m *Manager) Classify(err error, attemptCtx, parent context.Context) models.ErrorKind {
	if parent != nil && parent.Err() != nil {
		return models.KindCancelled
	}
	if kind, ok := models.KindOf(err); ok {
		return kind
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		(attemptCtx != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded)) {
		return models.KindTransient
	}
	if errors.Is(err, context.Canceled) {
		return models.KindCancelled
	}
	return models.KindRecoverable
}

// Decide returns the action for a failure of kind on the given 1-based
// attempt. A transient failure on the last allowed attempt is surfaced; the
// caller records it as recoverable.
func (m *Manager) Decide(kind models.ErrorKind, attempt int) Decision {
	switch kind {
	case models.KindTransient:
		if attempt < m.policy.MaxAttempts {
			return Retry
		}
		return Surface
	case models.KindFatal, models.KindCancelled:
		return Abort
	default:
		return Surface
	}
}

// Settle returns the kind recorded for a failure that is not retried.
func (m *Manager) Settle(kind models.ErrorKind) models.ErrorKind {
	if kind == models.KindTransient {
		return models.KindRecoverable
	}
	return kind
}

// Backoff returns the delay before attempt+1: base * 2^(attempt-1), capped.
func (m *Manager) Backoff(attempt int) time.Duration {
	if attempt < 1 || m.policy.BackoffBase <= 0 {
		return 0
	}
	d := m.policy.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if m.policy.BackoffMax > 0 && d >= m.policy.BackoffMax {
			return m.policy.BackoffMax
		}
	}
	if m.policy.BackoffMax > 0 && d > m.policy.BackoffMax {
		return m.policy.BackoffMax
	}
	return d
}

// Record appends an ErrorRecord to the log and returns it.
func (m *Manager) Record(subtaskID string, kind models.ErrorKind, attempt int, message string) models.ErrorRecord {
	rec := models.ErrorRecord{
		SubtaskID: subtaskID,
		Kind:      kind,
		Attempt:   attempt,
		Message:   message,
		Timestamp: m.now(),
	}
	m.log.Append(rec)
	m.logger.Debug("recorded failure",
		zap.String("subtask", subtaskID),
		zap.String("kind", string(kind)),
		zap.Int("attempt", attempt),
		zap.String("message", message),
	)
	return rec
}
