package feedback

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

func TestBiases(t *testing.T) {
	stats := map[string]RuleStats{
		"always":  {RuleID: "always", Successes: 10, Total: 10},
		"never":   {RuleID: "never", Successes: 0, Total: 10},
		"half":    {RuleID: "half", Successes: 5, Total: 10},
		"too-few": {RuleID: "too-few", Successes: 4, Total: 4},
	}
	b := Biases(stats, 5)

	assert.InDelta(t, 1.2, b["always"], 1e-9)
	assert.InDelta(t, 0.8, b["never"], 1e-9)
	assert.InDelta(t, 1.0, b["half"], 1e-9)
	assert.NotContains(t, b, "too-few")
}

func TestRuleStats_SuccessRate(t *testing.T) {
	assert.Zero(t, RuleStats{}.SuccessRate())
	assert.InDelta(t, 0.25, RuleStats{Successes: 1, Total: 4}.SuccessRate(), 1e-9)
}

func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats)

	require.NoError(t, s.Append(ctx,
		Record{RuleID: "file.read-verb", Success: true},
		Record{RuleID: "file.read-verb", Success: false},
		Record{RuleID: "git.command", Success: true},
	))
	require.NoError(t, s.Append(ctx))

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, RuleStats{RuleID: "file.read-verb", Successes: 1, Total: 2}, stats["file.read-verb"])
	assert.Equal(t, RuleStats{RuleID: "git.command", Successes: 1, Total: 1}, stats["git.command"])
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	storeContract(t, s)
	assert.Len(t, s.Records(), 3)
	assert.NoError(t, s.Close())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "feedback.db")
	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	storeContract(t, s)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	stats, err := reopened.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats["file.read-verb"].Total)
	assert.Equal(t, path, reopened.Path())
}

func TestRecorder(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store, nil)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, models.Intent{MatchedRules: []string{"a", "b"}}, true))
	require.NoError(t, r.Record(ctx, models.Intent{}, false))

	recs := store.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].RuleID)
	assert.True(t, recs[1].Success)
	assert.False(t, recs[0].RecordedAt.IsZero())

	var nilRecorder *Recorder
	assert.NoError(t, nilRecorder.Record(ctx, models.Intent{MatchedRules: []string{"a"}}, true))
}
