package router

import (
	"go.uber.org/zap"

	"github.com/ShayCichocki/taskweave/internal/classify"
	"github.com/ShayCichocki/taskweave/internal/decompose"
	"github.com/ShayCichocki/taskweave/internal/feedback"
	"github.com/ShayCichocki/taskweave/internal/metrics"
	"github.com/ShayCichocki/taskweave/internal/scheduler"
)

// RequiredConfig holds the collaborators every Router needs.
type RequiredConfig struct {
	Classifier *classify.Classifier
	Decomposer *decompose.Decomposer
	Scheduler  *scheduler.Scheduler
}

// Option configures a Router.
type Option func(*routerOptions)

type routerOptions struct {
	recorder *feedback.Recorder
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// WithRecorder records rule outcomes for executed requests.
func WithRecorder(r *feedback.Recorder) Option {
	return func(o *routerOptions) { o.recorder = r }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *routerOptions) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *routerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
