package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ShayCichocki/taskweave/internal/agents"
	"github.com/ShayCichocki/taskweave/internal/cascade"
	"github.com/ShayCichocki/taskweave/internal/classify"
	"github.com/ShayCichocki/taskweave/internal/config"
	"github.com/ShayCichocki/taskweave/internal/decompose"
	iexec "github.com/ShayCichocki/taskweave/internal/exec"
	"github.com/ShayCichocki/taskweave/internal/feedback"
	"github.com/ShayCichocki/taskweave/internal/logging"
	"github.com/ShayCichocki/taskweave/internal/metrics"
	"github.com/ShayCichocki/taskweave/internal/router"
	"github.com/ShayCichocki/taskweave/internal/scheduler"
	"github.com/ShayCichocki/taskweave/internal/toolmatrix"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// app holds the components built once per command invocation.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	matrix     *toolmatrix.Matrix
	classifier *classify.Classifier
	decomposer *decompose.Decomposer
	store      feedback.Store
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	closers    []func()
}

// newApp builds the logger, tool matrix, feedback store and classifier
// from cfg.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, syncLog, err := logging.New(logging.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, closers: []func(){syncLog}}

	a.matrix, _, err = buildMatrix(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var bias map[string]float64
	if cfg.Feedback.Enabled {
		store, err := feedback.OpenSQLiteStore(cfg.Feedback.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open feedback store: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, func() { _ = store.Close() })

		stats, err := store.Stats(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load feedback stats: %w", err)
		}
		bias = feedback.Biases(stats, cfg.Classifier.FeedbackMinSamples)
		logger.Debug("loaded feedback bias", zap.Int("rules", len(bias)), zap.String("db", store.Path()))
	}

	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.metrics, err = metrics.New(a.registry)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.classifier = classify.New(
		classify.WithBias(bias),
		classify.WithThresholds(classify.Thresholds{
			AutoExecute: cfg.Classifier.AutoExecuteThreshold,
			Ambiguous:   cfg.Classifier.AmbiguousThreshold,
		}),
		classify.WithLogger(logger),
	)
	a.decomposer = decompose.New(a.matrix, decompose.WithLogger(logger))
	return a, nil
}

// buildMatrix loads the configured tool table, gated by which executables
// are on PATH.
func buildMatrix(cfg *config.Config) (*toolmatrix.Matrix, *iexec.PathProbe, error) {
	probe := iexec.NewPathProbe(iexec.DefaultBinaries, nil)
	if cfg.Tools.TablePath != "" {
		m, err := toolmatrix.LoadFile(cfg.Tools.TablePath, cfg.LookupCredential, toolmatrix.WithProbe(probe))
		return m, probe, err
	}
	return toolmatrix.Default(cfg.LookupCredential, toolmatrix.WithProbe(probe)), probe, nil
}

// newRouter binds agent to every role and assembles the request pipeline.
func (a *app) newRouter(agent scheduler.Agent, emitter *scheduler.EventEmitter) (*router.Router, error) {
	reg := scheduler.NewAgentRegistry()
	agents.RegisterAll(reg, agent)

	sched := scheduler.New(reg, scheduler.Config{
		Workers:        a.cfg.Scheduler.Workers,
		AttemptTimeout: a.cfg.Scheduler.AttemptTimeout,
		Policy: cascade.Policy{
			MaxAttempts: a.cfg.Scheduler.MaxAttempts,
			BackoffBase: a.cfg.Scheduler.BackoffBase,
			BackoffMax:  a.cfg.Scheduler.BackoffMax,
		},
	}, scheduler.WithEmitter(emitter), scheduler.WithMetrics(a.metrics), scheduler.WithLogger(a.logger))

	opts := []router.Option{router.WithMetrics(a.metrics), router.WithLogger(a.logger)}
	if a.store != nil {
		opts = append(opts, router.WithRecorder(feedback.NewRecorder(a.store, a.logger)))
	}
	return router.New(router.RequiredConfig{
		Classifier: a.classifier,
		Decomposer: a.decomposer,
		Scheduler:  sched,
	}, opts...)
}

// writeMetrics dumps the registry in the Prometheus text format.
func (a *app) writeMetrics(path string) error {
	if path == "" || a.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// requestContext builds the classifier context from flags.
func requestContext(recent []string, projectType string) (models.Context, error) {
	ctx := models.Context{ProjectType: projectType}
	if cwd, err := os.Getwd(); err == nil {
		ctx.CurrentDirectory = cwd
	}
	for _, r := range recent {
		op := models.OperationType(r)
		if !op.Valid() || op == models.OpAmbiguous {
			return models.Context{}, fmt.Errorf("unknown operation type %q in --recent", r)
		}
		ctx.RecentOperations = append(ctx.RecentOperations, op)
	}
	return ctx, nil
}
