// Package scheduler executes a dependency graph as barrier-synchronized
// waves of concurrently running subtasks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/taskweave/internal/cascade"
	"github.com/ShayCichocki/taskweave/internal/graph"
	"github.com/ShayCichocki/taskweave/internal/metrics"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// ErrInvariantViolation reports pending subtasks that no wave can release.
// It cannot happen for an acyclic graph built by graph.Build.
var ErrInvariantViolation = errors.New("scheduler invariant violated")

// errFatal stops the wave's errgroup so the wave context is cancelled.
var errFatal = errors.New("fatal subtask failure")

// Blocked reasons recorded on skipped subtasks.
const (
	ReasonDependencyFailed = "dependency_failed:"
	ReasonAborted          = "aborted:"
	ReasonCancelled        = "cancelled"
)

// Config bounds execution.
type Config struct {
	// Workers caps concurrently running subtasks within a wave.
	Workers int
	// AttemptTimeout bounds a single attempt. Zero disables it.
	AttemptTimeout time.Duration
	// Policy controls retries of transient failures.
	Policy cascade.Policy
}

// DefaultConfig returns four workers, a 30s attempt timeout and the default
// retry policy.
func DefaultConfig() Config {
	return Config{
		Workers:        4,
		AttemptTimeout: 30 * time.Second,
		Policy:         cascade.DefaultPolicy(),
	}
}

// Scheduler runs dependency graphs. It keeps no per-request state, so one
// Scheduler can serve concurrent requests.
type Scheduler struct {
	agents  *AgentRegistry
	cfg     Config
	emitter *EventEmitter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithEmitter sets the progress sink.
func WithEmitter(e *EventEmitter) Option {
	return func(s *Scheduler) { s.emitter = e }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Scheduler dispatching to agents.
func New(agents *AgentRegistry, cfg Config, opts ...Option) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	s := &Scheduler{
		agents: agents,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execution is the outcome of running one graph.
type Execution struct {
	// Results holds one Result per executed subtask.
	Results map[string]*models.Result
	// Waves lists the subtask IDs released in each wave.
	Waves [][]string
	// Errors is the request's error log in append order.
	Errors []models.ErrorRecord
	// Aborted is set when a fatal failure or cancellation stopped the graph.
	Aborted bool
	// Cancelled is set when the caller's context ended the execution.
	Cancelled bool
	// Fatal is the failure that aborted the graph, if any.
	Fatal *models.ErrorRecord
}

// OrderedResults returns the results sorted by wave, then subtask ID.
func (e *Execution) OrderedResults() []*models.Result {
	out := make([]*models.Result, 0, len(e.Results))
	for _, r := range e.Results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wave != out[j].Wave {
			return out[i].Wave < out[j].Wave
		}
		return out[i].SubtaskID < out[j].SubtaskID
	})
	return out
}

// run carries the state of one Execute call.
type run struct {
	requestID string
	graph     *graph.DependencyGraph
	params    models.Params
	cascade   *cascade.Manager
	exec      *Execution
}

// Execute runs g to completion. Each wave is the set of pending subtasks
// whose dependencies are all terminal; the next wave is not computed until
// every member of the current one is terminal. A subtask whose required
// dependency failed or was skipped is skipped itself. A fatal failure
// cancels the running wave and skips everything still pending; so does
// cancellation of ctx. Execute returns an error only for
// ErrInvariantViolation.
func (s *Scheduler) Execute(ctx context.Context, requestID string, g *graph.DependencyGraph, params models.Params) (*Execution, error) {
	r := &run{
		requestID: requestID,
		graph:     g,
		params:    params,
		cascade:   cascade.New(s.cfg.Policy, s.logger),
		exec:      &Execution{Results: make(map[string]*models.Result)},
	}
	defer func() {
		r.exec.Errors = r.cascade.Log().Records()
		s.emitter.Emit(Event{Type: EventExecutionDone, RequestID: requestID})
	}()

	for wave := 1; ; wave++ {
		s.propagateSkips(r)

		if ctx.Err() != nil {
			r.exec.Aborted = true
			r.exec.Cancelled = true
			s.skipPending(r, ReasonCancelled)
			s.logger.Info("execution cancelled", zap.String("request", requestID), zap.Int("wave", wave))
			return r.exec, nil
		}

		ready := s.readySet(g)
		if len(ready) == 0 {
			if pending := pendingIDs(g); len(pending) > 0 {
				return r.exec, fmt.Errorf("%w: %d subtasks pending with no ready wave: %v",
					ErrInvariantViolation, len(pending), pending)
			}
			return r.exec, nil
		}

		ids := make([]string, len(ready))
		for i, st := range ready {
			ids[i] = st.ID
		}
		r.exec.Waves = append(r.exec.Waves, ids)

		if fatal := s.runWave(ctx, r, wave, ready); fatal != nil {
			r.exec.Aborted = true
			r.exec.Fatal = fatal
			s.skipPending(r, ReasonAborted+fatal.SubtaskID)
			s.logger.Warn("execution aborted",
				zap.String("request", requestID),
				zap.String("subtask", fatal.SubtaskID),
				zap.String("message", fatal.Message),
			)
			return r.exec, nil
		}
	}
}

// readySet returns pending subtasks whose dependencies are all terminal,
// sorted by depth then ID.
func (s *Scheduler) readySet(g *graph.DependencyGraph) []*models.Subtask {
	var ready []*models.Subtask
	for _, st := range g.Subtasks() {
		if st.Status != models.StatusPending {
			continue
		}
		ok := true
		for _, dep := range st.DependsOn {
			if d := g.GetSubtask(dep.ID); d == nil || !d.Status.Terminal() {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, st)
		}
	}

	depth := make(map[string]int, len(ready))
	for _, st := range ready {
		depth[st.ID] = g.Depth(st.ID)
	}
	sort.SliceStable(ready, func(i, j int) bool {
		if depth[ready[i].ID] != depth[ready[j].ID] {
			return depth[ready[i].ID] < depth[ready[j].ID]
		}
		return ready[i].ID < ready[j].ID
	})
	return ready
}

// propagateSkips marks pending subtasks with a failed or skipped required
// dependency as skipped, until nothing changes.
func (s *Scheduler) propagateSkips(r *run) {
	for changed := true; changed; {
		changed = false
		for _, st := range r.graph.Subtasks() {
			if st.Status != models.StatusPending {
				continue
			}
			for _, dep := range st.DependsOn {
				if dep.Optional {
					continue
				}
				d := r.graph.GetSubtask(dep.ID)
				if d != nil && (d.Status == models.StatusFailed || d.Status == models.StatusSkipped) {
					s.skip(r, st, ReasonDependencyFailed+dep.ID)
					changed = true
					break
				}
			}
		}
	}
}

func (s *Scheduler) skipPending(r *run, reason string) {
	for _, st := range r.graph.Subtasks() {
		if st.Status == models.StatusPending || st.Status == models.StatusReady {
			s.skip(r, st, reason)
		}
	}
}

func (s *Scheduler) skip(r *run, st *models.Subtask, reason string) {
	st.Status = models.StatusSkipped
	st.BlockedReason = reason
	r.cascade.Record(st.ID, models.KindSkipped, st.Attempts, reason)
	s.metrics.ObserveSubtask(models.StatusSkipped)
	s.emitter.Emit(Event{
		Type:      EventSubtaskSkipped,
		RequestID: r.requestID,
		SubtaskID: st.ID,
		Status:    models.StatusSkipped,
		Message:   reason,
	})
}

func pendingIDs(g *graph.DependencyGraph) []string {
	var ids []string
	for _, st := range g.Subtasks() {
		if !st.Status.Terminal() {
			ids = append(ids, st.ID)
		}
	}
	return ids
}

// runWave executes ready on at most cfg.Workers goroutines and waits for
// all of them. It returns the fatal record that cancelled the wave, if any.
func (s *Scheduler) runWave(ctx context.Context, r *run, wave int, ready []*models.Subtask) *models.ErrorRecord {
	started := time.Now()
	s.metrics.ObserveWave(len(ready))
	s.emitter.Emit(Event{Type: EventWaveStarted, RequestID: r.requestID, Wave: wave,
		Message: fmt.Sprintf("%d subtasks", len(ready))})

	// Inputs are resolved before any goroutine starts; only earlier waves
	// write to Results.
	inputs := make([]map[string]*models.Result, len(ready))
	for i, st := range ready {
		st.Status = models.StatusReady
		inputs[i] = make(map[string]*models.Result, len(st.DependsOn))
		for _, dep := range st.DependsOn {
			if res, ok := r.exec.Results[dep.ID]; ok && res.Succeeded {
				inputs[i][dep.ID] = res
			} else {
				inputs[i][dep.ID] = nil
			}
		}
		s.emitter.Emit(Event{Type: EventSubtaskQueued, RequestID: r.requestID, SubtaskID: st.ID,
			Status: models.StatusReady, Wave: wave})
	}

	results := make([]*models.Result, len(ready))
	eg, waveCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.Workers)
	for i, st := range ready {
		eg.Go(func() error {
			res := s.runSubtask(waveCtx, r, wave, st, inputs[i])
			results[i] = res
			if res != nil && res.Error != nil && res.Error.Kind == models.KindFatal {
				return errFatal
			}
			return nil
		})
	}
	_ = eg.Wait()

	var fatal *models.ErrorRecord
	for _, res := range results {
		if res == nil {
			continue
		}
		r.exec.Results[res.SubtaskID] = res
		if fatal == nil && res.Error != nil && res.Error.Kind == models.KindFatal {
			fatal = res.Error
		}
	}

	s.emitter.Emit(Event{Type: EventWaveCompleted, RequestID: r.requestID, Wave: wave})
	s.logger.Debug("wave completed",
		zap.String("request", r.requestID),
		zap.Int("wave", wave),
		zap.Int("subtasks", len(ready)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return fatal
}

// runSubtask drives one subtask through its attempts. It returns nil when
// the wave was cancelled before the subtask started.
func (s *Scheduler) runSubtask(ctx context.Context, r *run, wave int, st *models.Subtask, inputs map[string]*models.Result) *models.Result {
	if ctx.Err() != nil {
		s.skip(r, st, ReasonCancelled)
		return nil
	}

	started := time.Now()
	attempt := cascade.NewAttempt(st.ID)
	result := &models.Result{SubtaskID: st.ID, Wave: wave}

	fail := func(kind models.ErrorKind, msg string) *models.Result {
		_ = attempt.To(cascade.StateFailed)
		rec := r.cascade.Record(st.ID, kind, attempt.Count, msg)
		st.Status = models.StatusFailed
		result.Error = &rec
		result.Attempts = attempt.Count
		result.Duration = time.Since(started)
		s.metrics.ObserveSubtask(models.StatusFailed)
		s.emitter.Emit(Event{Type: EventSubtaskFailed, RequestID: r.requestID, SubtaskID: st.ID,
			Status: models.StatusFailed, Wave: wave, Attempt: attempt.Count, Message: msg})
		return result
	}

	agent, ok := s.agents.Lookup(st.Role)
	if !ok {
		return fail(models.KindRecoverable, fmt.Sprintf("no agent bound to role %s", st.Role))
	}

	for {
		_ = attempt.To(cascade.StateRunning)
		st.Status = models.StatusRunning
		st.Attempts = attempt.Count
		s.emitter.Emit(Event{Type: EventSubtaskStarted, RequestID: r.requestID, SubtaskID: st.ID,
			Status: models.StatusRunning, Wave: wave, Attempt: attempt.Count})

		attemptCtx, cancel := s.attemptContext(ctx)
		attemptStart := time.Now()
		payload, err := agent.Invoke(attemptCtx, &Invocation{
			RequestID: r.requestID,
			Subtask:   *st,
			Attempt:   attempt.Count,
			Params:    r.params,
			Inputs:    inputs,
		})
		if err == nil {
			cancel()
			s.metrics.ObserveAttempt(st.Role, "succeeded", time.Since(attemptStart))
			_ = attempt.To(cascade.StateSucceeded)
			st.Status = models.StatusSucceeded
			result.Payload = payload
			result.Succeeded = true
			result.Attempts = attempt.Count
			result.Duration = time.Since(started)
			s.metrics.ObserveSubtask(models.StatusSucceeded)
			s.emitter.Emit(Event{Type: EventSubtaskSucceeded, RequestID: r.requestID, SubtaskID: st.ID,
				Status: models.StatusSucceeded, Wave: wave, Attempt: attempt.Count})
			return result
		}

		kind := r.cascade.Classify(err, attemptCtx, ctx)
		cancel()
		s.metrics.ObserveAttempt(st.Role, string(kind), time.Since(attemptStart))

		if r.cascade.Decide(kind, attempt.Count) != cascade.Retry {
			return fail(r.cascade.Settle(kind), err.Error())
		}

		r.cascade.Record(st.ID, kind, attempt.Count, err.Error())
		_ = attempt.To(cascade.StateRetrying)
		backoff := r.cascade.Backoff(attempt.Count)
		s.emitter.Emit(Event{Type: EventSubtaskRetrying, RequestID: r.requestID, SubtaskID: st.ID,
			Status: models.StatusRunning, Wave: wave, Attempt: attempt.Count,
			Message: fmt.Sprintf("retrying in %s: %v", backoff, err)})
		s.logger.Debug("retrying subtask",
			zap.String("request", r.requestID),
			zap.String("subtask", st.ID),
			zap.Int("attempt", attempt.Count),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		if !sleep(ctx, backoff) {
			return fail(models.KindCancelled, "cancelled during retry backoff")
		}
	}
}

func (s *Scheduler) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.AttemptTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	}
	return context.WithCancel(ctx)
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
