// Package router turns one Request into one Outcome: classify, pick a
// confidence band, decompose, execute and aggregate.
package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/taskweave/internal/aggregate"
	"github.com/ShayCichocki/taskweave/internal/cascade"
	"github.com/ShayCichocki/taskweave/internal/classify"
	"github.com/ShayCichocki/taskweave/internal/decompose"
	"github.com/ShayCichocki/taskweave/internal/feedback"
	"github.com/ShayCichocki/taskweave/internal/metrics"
	"github.com/ShayCichocki/taskweave/internal/scheduler"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Router is safe for concurrent use when its collaborators are.
type Router struct {
	classifier *classify.Classifier
	decomposer *decompose.Decomposer
	scheduler  *scheduler.Scheduler
	recorder   *feedback.Recorder
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// New creates a Router.
func New(cfg RequiredConfig, opts ...Option) (*Router, error) {
	if cfg.Classifier == nil || cfg.Decomposer == nil || cfg.Scheduler == nil {
		return nil, errors.New("router: classifier, decomposer and scheduler are required")
	}
	o := routerOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Router{
		classifier: cfg.Classifier,
		decomposer: cfg.Decomposer,
		scheduler:  cfg.Scheduler,
		recorder:   o.recorder,
		metrics:    o.metrics,
		logger:     o.logger,
	}, nil
}

// Handle produces the Outcome for req.
//
// Ambiguous outcomes return a nil error. A rejected outcome is returned with
// an error matching decompose.ErrDecomposition. An aborted outcome is
// returned with an *AbortError; its Result holds the partial aggregate.
// Any other error means the request could not be handled at all.
func (r *Router) Handle(ctx context.Context, req *models.Request) (*Outcome, error) {
	started := time.Now()
	log := r.logger.With(zap.String("request", req.ID))

	intent := r.classifier.ClassifyRequest(req)
	band := r.classifier.Band(intent.Confidence)
	if intent.Operation == models.OpAmbiguous {
		band = models.BandAmbiguous
	}
	r.metrics.ObserveClassification(intent.Operation, band, intent.Confidence)
	log.Debug("classified request",
		zap.String("op", string(intent.Operation)),
		zap.Float64("confidence", intent.Confidence),
		zap.String("band", string(band)),
		zap.Strings("rules", intent.MatchedRules),
	)

	out := &Outcome{RequestID: req.ID, Intent: intent, Band: band}
	defer func() {
		out.Duration = time.Since(started)
		r.metrics.ObserveOutcome(string(out.Kind))
	}()

	if band == models.BandAmbiguous {
		out.Kind = KindAmbiguous
		out.Alternatives = intent.Alternatives
		log.Info("ambiguous request", zap.Float64("confidence", intent.Confidence))
		return out, nil
	}

	g, err := r.decomposer.Decompose(intent)
	if err != nil {
		r.metrics.ObserveDecompositionError(intent.Operation)
		out.Kind = KindRejected
		out.Reason = err.Error()
		log.Warn("decomposition failed", zap.Error(err))
		return out, fmt.Errorf("request %s: %w", req.ID, err)
	}

	if band == models.BandPreview {
		out.Preview = BuildPreview(intent, g)
	}

	exec, err := r.scheduler.Execute(ctx, req.ID, g, intent.Parameters)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.ID, err)
	}
	out.Waves = exec.Waves

	agg, err := aggregate.Aggregate(exec.OrderedResults(), exec.Errors, g)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.ID, err)
	}
	out.Result = agg
	out.Cascade = cascade.Summarize(exec.Errors, g)
	for _, st := range g.Subtasks() {
		out.Subtasks = append(out.Subtasks, *st)
	}

	switch {
	case exec.Aborted:
		out.Kind = KindAborted
	case !agg.Succeeded:
		out.Kind = KindFailed
	case agg.Partial:
		out.Kind = KindPartial
	default:
		out.Kind = KindSucceeded
	}

	// Feedback must be written even when the caller cancelled.
	success := out.Kind == KindSucceeded
	if err := r.recorder.Record(context.WithoutCancel(ctx), intent, success); err != nil {
		log.Warn("recording feedback failed", zap.Error(err))
	}

	log.Info("request handled",
		zap.String("kind", string(out.Kind)),
		zap.Int("waves", len(out.Waves)),
		zap.Int("errors", len(agg.Errors)),
	)

	if exec.Aborted {
		abort := &AbortError{RequestID: req.ID, Fatal: exec.Fatal}
		if exec.Cancelled {
			abort.Err = ctx.Err()
		}
		return out, abort
	}
	return out, nil
}
