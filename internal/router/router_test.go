package router

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/taskweave/internal/agents"
	"github.com/ShayCichocki/taskweave/internal/cascade"
	"github.com/ShayCichocki/taskweave/internal/classify"
	"github.com/ShayCichocki/taskweave/internal/decompose"
	"github.com/ShayCichocki/taskweave/internal/feedback"
	"github.com/ShayCichocki/taskweave/internal/metrics"
	"github.com/ShayCichocki/taskweave/internal/scheduler"
	"github.com/ShayCichocki/taskweave/internal/toolmatrix"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

func noEnv(string) (string, bool) { return "", false }

type fixture struct {
	router *Router
	store  *feedback.MemoryStore
	reg    *prometheus.Registry
	calls  atomic.Int32
}

func newFixture(t *testing.T, agent scheduler.Agent, thresholds classify.Thresholds) *fixture {
	t.Helper()
	f := &fixture{store: feedback.NewMemoryStore(), reg: prometheus.NewRegistry()}

	m, err := metrics.New(f.reg)
	require.NoError(t, err)

	counting := scheduler.AgentFunc(func(ctx context.Context, inv *scheduler.Invocation) (any, error) {
		f.calls.Add(1)
		return agent.Invoke(ctx, inv)
	})
	reg := scheduler.NewAgentRegistry()
	agents.RegisterAll(reg, counting)

	cfg := scheduler.DefaultConfig()
	cfg.Policy = cascade.Policy{MaxAttempts: 2, BackoffBase: time.Millisecond, BackoffMax: time.Millisecond}

	f.router, err = New(RequiredConfig{
		Classifier: classify.New(classify.WithThresholds(thresholds)),
		Decomposer: decompose.New(toolmatrix.Default(noEnv)),
		Scheduler:  scheduler.New(reg, cfg, scheduler.WithMetrics(m)),
	}, WithRecorder(feedback.NewRecorder(f.store, nil)), WithMetrics(m))
	require.NoError(t, err)
	return f
}

func (f *fixture) outcomes(t *testing.T, kind Kind) {
	t.Helper()
	expected := `
# HELP taskweave_outcomes_total Request outcomes, by kind.
# TYPE taskweave_outcomes_total counter
taskweave_outcomes_total{kind="` + string(kind) + `"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "taskweave_outcomes_total"))
}

func TestHandle_ReadAndSummarize(t *testing.T) {
	f := newFixture(t, agents.NewSimulated(0, nil), classify.DefaultThresholds())

	out, err := f.router.Handle(context.Background(), models.NewRequest("read app.py and summarize it", nil))
	require.NoError(t, err)

	assert.Equal(t, KindSucceeded, out.Kind)
	assert.Equal(t, models.OpFile, out.Intent.Operation)
	assert.InDelta(t, 0.85, out.Intent.Confidence, 1e-9)
	assert.Equal(t, models.BandAuto, out.Band)
	assert.Nil(t, out.Preview)
	assert.Equal(t, [][]string{{"locateFile"}, {"readFile"}, {"summarize"}}, out.Waves)
	require.NotNil(t, out.Result)
	assert.True(t, out.Result.Succeeded)
	assert.False(t, out.Result.Partial)
	assert.Empty(t, out.Result.Errors)
	assert.Nil(t, out.Cascade)
	assert.EqualValues(t, 3, f.calls.Load())

	primary, ok := out.Result.Payload.Primary.(agents.Output)
	require.True(t, ok)
	assert.Equal(t, "summarize", primary.Subtask)

	for _, st := range out.Subtasks {
		assert.Equal(t, models.StatusSucceeded, st.Status, st.ID)
	}

	records := f.store.Records()
	require.Len(t, records, 2)
	for _, r := range records {
		assert.True(t, r.Success)
	}
	f.outcomes(t, KindSucceeded)
}

func TestHandle_AmbiguousRunsNothing(t *testing.T) {
	f := newFixture(t, agents.NewSimulated(0, nil), classify.DefaultThresholds())

	out, err := f.router.Handle(context.Background(), models.NewRequest("delete everything", nil))
	require.NoError(t, err)

	assert.Equal(t, KindAmbiguous, out.Kind)
	assert.InDelta(t, 0.3, out.Intent.Confidence, 1e-9)
	assert.Equal(t, models.BandAmbiguous, out.Band)
	require.NotEmpty(t, out.Alternatives)
	assert.Equal(t, models.OpFile, out.Alternatives[0].Operation)
	assert.False(t, out.Executed())
	assert.Nil(t, out.Result)
	assert.Zero(t, f.calls.Load())
	assert.Empty(t, f.store.Records())
	f.outcomes(t, KindAmbiguous)
}

func TestHandle_PreviewBand(t *testing.T) {
	f := newFixture(t, agents.NewSimulated(0, nil), classify.Thresholds{AutoExecute: 0.9, Ambiguous: 0.4})

	out, err := f.router.Handle(context.Background(), models.NewRequest("read app.py and summarize it", nil))
	require.NoError(t, err)

	assert.Equal(t, models.BandPreview, out.Band)
	assert.Equal(t, KindSucceeded, out.Kind)
	require.NotNil(t, out.Preview)
	require.Len(t, out.Preview.Steps, 3)
	assert.Equal(t, Step{
		Wave:       2,
		SubtaskID:  "readFile",
		Title:      out.Preview.Steps[1].Title,
		Role:       models.RoleFileReader,
		Capability: models.CapFileRead,
		Tool:       "read",
	}, out.Preview.Steps[1])
	assert.Contains(t, out.Preview.String(), "[wave 2]")
}

func TestHandle_RejectedDecomposition(t *testing.T) {
	f := newFixture(t, agents.NewSimulated(0, nil), classify.Thresholds{})

	out, err := f.router.Handle(context.Background(), models.NewRequest("delete app.py", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, decompose.ErrDecomposition))

	var unresolvable *decompose.UnresolvableCapabilityError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, models.CapFileDelete, unresolvable.Capability)

	require.NotNil(t, out)
	assert.Equal(t, KindRejected, out.Kind)
	assert.NotEmpty(t, out.Reason)
	assert.Zero(t, f.calls.Load())
	f.outcomes(t, KindRejected)
}

func TestHandle_ConfirmedDelete(t *testing.T) {
	f := newFixture(t, agents.NewSimulated(0, nil), classify.Thresholds{})

	req := models.NewRequest("delete app.py", models.Params{toolmatrix.ParamConfirmed: true})
	out, err := f.router.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, KindSucceeded, out.Kind)
	assert.Equal(t, [][]string{{"locateFile"}, {"deleteFile"}}, out.Waves)
}

func TestHandle_FatalAbortKeepsPartialAggregate(t *testing.T) {
	agent := agents.NewSimulated(0, map[string]agents.Failure{
		"readFile": {Kind: models.KindFatal},
	})
	f := newFixture(t, agent, classify.DefaultThresholds())

	out, err := f.router.Handle(context.Background(), models.NewRequest("read app.py and summarize it", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAborted)

	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	require.NotNil(t, abort.Fatal)
	assert.Equal(t, "readFile", abort.Fatal.SubtaskID)
	assert.NotErrorIs(t, err, context.Canceled)

	require.NotNil(t, out)
	assert.Equal(t, KindAborted, out.Kind)
	assert.True(t, out.Result.Partial)
	assert.True(t, out.Result.Succeeded)
	assert.Equal(t, [][]string{{"locateFile"}, {"readFile"}}, out.Waves)

	require.NotNil(t, out.Cascade)
	assert.Equal(t, "readFile", out.Cascade.RootCause.SubtaskID)
	assert.Equal(t, models.KindFatal, out.Cascade.RootCause.Kind)
	assert.Equal(t, []string{"summarize"}, out.Cascade.Path)

	records := f.store.Records()
	require.NotEmpty(t, records)
	assert.False(t, records[0].Success)
	f.outcomes(t, KindAborted)
}

func TestHandle_RecoverableIsPartial(t *testing.T) {
	agent := agents.NewSimulated(0, map[string]agents.Failure{
		"summarize": {Kind: models.KindRecoverable},
	})
	f := newFixture(t, agent, classify.DefaultThresholds())

	out, err := f.router.Handle(context.Background(), models.NewRequest("read app.py and summarize it", nil))
	require.NoError(t, err)

	assert.Equal(t, KindPartial, out.Kind)
	assert.True(t, out.Result.Partial)
	require.Len(t, out.Result.Errors, 1)
	assert.Equal(t, models.KindRecoverable, out.Result.Errors[0].Kind)
	assert.Empty(t, out.Cascade.Path)
}

func TestHandle_NothingSucceeded(t *testing.T) {
	agent := agents.NewSimulated(0, map[string]agents.Failure{
		"locateFile": {Kind: models.KindRecoverable},
	})
	f := newFixture(t, agent, classify.DefaultThresholds())

	out, err := f.router.Handle(context.Background(), models.NewRequest("read app.py and summarize it", nil))
	require.NoError(t, err)
	assert.Equal(t, KindFailed, out.Kind)
	assert.Equal(t, []string{"readFile", "summarize"}, out.Cascade.Path)
}

func TestHandle_CallerCancel(t *testing.T) {
	f := newFixture(t, agents.NewSimulated(0, nil), classify.DefaultThresholds())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := f.router.Handle(ctx, models.NewRequest("read app.py and summarize it", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, KindAborted, out.Kind)
	assert.Zero(t, f.calls.Load())
	for _, st := range out.Subtasks {
		assert.Equal(t, models.StatusSkipped, st.Status)
		assert.Equal(t, scheduler.ReasonCancelled, st.BlockedReason)
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(RequiredConfig{})
	assert.Error(t, err)
}
