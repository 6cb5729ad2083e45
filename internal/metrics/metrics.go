// Package metrics instruments classification, scheduling and outcomes with
// Prometheus collectors. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

const namespace = "taskweave"

// Metrics holds the collectors.
type Metrics struct {
	classifications  *prometheus.CounterVec
	confidence       prometheus.Histogram
	decompositionErr *prometheus.CounterVec
	waves            prometheus.Counter
	waveSize         prometheus.Histogram
	attempts         *prometheus.CounterVec
	attemptDuration  *prometheus.HistogramVec
	subtasks         *prometheus.CounterVec
	outcomes         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Requests classified, by operation type and confidence band.",
		}, []string{"operation", "band"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_confidence",
			Help:      "Confidence of classified requests.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		decompositionErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decomposition_errors_total",
			Help:      "Intents that could not be decomposed, by operation type.",
		}, []string{"operation"}),
		waves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waves_total",
			Help:      "Waves released by the scheduler.",
		}),
		waveSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wave_size",
			Help:      "Subtasks per wave.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
		}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_attempts_total",
			Help:      "Agent attempts, by role and result.",
		}, []string{"role", "result"}),
		attemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_attempt_duration_seconds",
			Help:      "Agent attempt duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"role"}),
		subtasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subtasks_total",
			Help:      "Subtasks reaching a terminal status.",
		}, []string{"status"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Request outcomes, by kind.",
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{
		m.classifications, m.confidence, m.decompositionErr, m.waves, m.waveSize,
		m.attempts, m.attemptDuration, m.subtasks, m.outcomes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// ObserveClassification records one classified request.
func (m *Metrics) ObserveClassification(op models.OperationType, band models.Band, confidence float64) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(string(op), string(band)).Inc()
	m.confidence.Observe(confidence)
}

// ObserveDecompositionError records an intent that failed to decompose.
func (m *Metrics) ObserveDecompositionError(op models.OperationType) {
	if m == nil {
		return
	}
	m.decompositionErr.WithLabelValues(string(op)).Inc()
}

// ObserveWave records a released wave.
func (m *Metrics) ObserveWave(size int) {
	if m == nil {
		return
	}
	m.waves.Inc()
	m.waveSize.Observe(float64(size))
}

// ObserveAttempt records one agent attempt. result is "succeeded" or an
// error kind.
func (m *Metrics) ObserveAttempt(role models.AgentRole, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(string(role), result).Inc()
	m.attemptDuration.WithLabelValues(string(role)).Observe(d.Seconds())
}

// ObserveSubtask records a subtask reaching status.
func (m *Metrics) ObserveSubtask(status models.SubtaskStatus) {
	if m == nil {
		return
	}
	m.subtasks.WithLabelValues(string(status)).Inc()
}

// ObserveOutcome records a request outcome.
func (m *Metrics) ObserveOutcome(kind string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(kind).Inc()
}
