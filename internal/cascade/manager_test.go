package cascade

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/taskweave/internal/graph"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

func TestManager_Classify(t *testing.T) {
	m := New(DefaultPolicy(), nil)
	live := context.Background()

	expired, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-expired.Done()

	cancelled, cancelParent := context.WithCancel(context.Background())
	cancelParent()

	tests := []struct {
		name    string
		err     error
		attempt context.Context
		parent  context.Context
		want    models.ErrorKind
	}{
		{"typed transient", models.Transient("rate limited"), live, live, models.KindTransient},
		{"typed fatal", models.Fatal("unsafe"), live, live, models.KindFatal},
		{"wrapped typed", fmt.Errorf("call: %w", models.Recoverable("bad input")), live, live, models.KindRecoverable},
		{"attempt deadline", context.DeadlineExceeded, expired, live, models.KindTransient},
		{"deadline in chain", fmt.Errorf("read: %w", context.DeadlineExceeded), live, live, models.KindTransient},
		{"parent cancelled", models.Fatal("x"), live, cancelled, models.KindCancelled},
		{"bare cancel", context.Canceled, live, live, models.KindCancelled},
		{"untyped", errors.New("boom"), live, live, models.KindRecoverable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Classify(tt.err, tt.attempt, tt.parent))
		})
	}
}

func TestManager_Decide(t *testing.T) {
	m := New(DefaultPolicy(), nil)

	assert.Equal(t, Retry, m.Decide(models.KindTransient, 1))
	assert.Equal(t, Retry, m.Decide(models.KindTransient, 2))
	assert.Equal(t, Surface, m.Decide(models.KindTransient, 3))
	assert.Equal(t, Surface, m.Decide(models.KindRecoverable, 1))
	assert.Equal(t, Abort, m.Decide(models.KindFatal, 1))
	assert.Equal(t, Abort, m.Decide(models.KindCancelled, 1))

	assert.Equal(t, models.KindRecoverable, m.Settle(models.KindTransient))
	assert.Equal(t, models.KindFatal, m.Settle(models.KindFatal))
}

func TestManager_Backoff(t *testing.T) {
	m := New(Policy{MaxAttempts: 5, BackoffBase: 100 * time.Millisecond, BackoffMax: 350 * time.Millisecond}, nil)

	assert.Equal(t, time.Duration(0), m.Backoff(0))
	assert.Equal(t, 100*time.Millisecond, m.Backoff(1))
	assert.Equal(t, 200*time.Millisecond, m.Backoff(2))
	assert.Equal(t, 350*time.Millisecond, m.Backoff(3))
	assert.Equal(t, 350*time.Millisecond, m.Backoff(10))
}

func TestManager_RecordAppends(t *testing.T) {
	m := New(DefaultPolicy(), nil)
	m.Record("a", models.KindTransient, 1, "timeout")
	m.Record("a", models.KindRecoverable, 2, "bad")
	m.Record("b", models.KindSkipped, 0, "dependency_failed:a")

	recs := m.Log().Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "timeout", recs[0].Message)
	assert.Len(t, m.Log().For("a"), 2)

	recs[0].Message = "mutated"
	assert.Equal(t, "timeout", m.Log().Records()[0].Message)
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "retry", Retry.String())
	assert.Equal(t, "surface", Surface.String())
	assert.Equal(t, "abort", Abort.String())
	assert.Equal(t, "unknown", Decision(42).String())
}

func TestAttempt_Transitions(t *testing.T) {
	a := NewAttempt("x")
	require.NoError(t, a.To(StateRunning))
	require.NoError(t, a.To(StateRetrying))
	require.NoError(t, a.To(StateRunning))
	require.NoError(t, a.To(StateSucceeded))
	assert.Equal(t, 2, a.Count)
	assert.True(t, a.Done())

	assert.Error(t, a.To(StateRunning))

	b := NewAttempt("y")
	assert.Error(t, b.To(StateSucceeded))
	assert.Error(t, b.To(StateRetrying))
}

func TestSummarize(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.Build([]*models.Subtask{
		{ID: "a"},
		{ID: "b", DependsOn: []models.Dependency{{ID: "a"}}},
		{ID: "c", DependsOn: []models.Dependency{{ID: "b"}}},
		{ID: "d"},
	}))

	assert.Nil(t, Summarize(nil, g))

	records := []models.ErrorRecord{
		{SubtaskID: "a", Kind: models.KindTransient, Attempt: 1},
		{SubtaskID: "a", Kind: models.KindRecoverable, Attempt: 2},
		{SubtaskID: "b", Kind: models.KindSkipped},
		{SubtaskID: "c", Kind: models.KindSkipped},
	}
	s := Summarize(records, g)
	require.NotNil(t, s)
	assert.Equal(t, "a", s.RootCause.SubtaskID)
	assert.Equal(t, models.KindRecoverable, s.RootCause.Kind)
	assert.Equal(t, []string{"b", "c"}, s.Path)
}
