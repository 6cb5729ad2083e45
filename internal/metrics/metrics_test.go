package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveClassification(models.OpFile, models.BandAuto, 0.85)
	m.ObserveClassification(models.OpFile, models.BandAuto, 0.9)
	m.ObserveDecompositionError(models.OpGit)
	m.ObserveWave(2)
	m.ObserveAttempt(models.RoleFileReader, "succeeded", 10*time.Millisecond)
	m.ObserveAttempt(models.RoleFileReader, "transient", time.Millisecond)
	m.ObserveSubtask(models.StatusSucceeded)
	m.ObserveOutcome("succeeded")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.classifications.WithLabelValues("file", "auto")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decompositionErr.WithLabelValues("git")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.waves))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("file_reader", "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subtasks.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("succeeded")))
}

func TestMetrics_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveClassification(models.OpFile, models.BandAuto, 1)
		m.ObserveDecompositionError(models.OpFile)
		m.ObserveWave(1)
		m.ObserveAttempt(models.RolePlanner, "succeeded", 0)
		m.ObserveSubtask(models.StatusFailed)
		m.ObserveOutcome("aborted")
	})
}
