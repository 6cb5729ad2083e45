package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskweave/internal/agents"
	"github.com/ShayCichocki/taskweave/internal/classify"
	"github.com/ShayCichocki/taskweave/internal/scheduler"
	"github.com/ShayCichocki/taskweave/internal/toolmatrix"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

var (
	runJSON        bool
	runConfirm     bool
	runProgress    bool
	runParams      []string
	runFailures    []string
	runRecent      []string
	runLatency     time.Duration
	runTimeout     time.Duration
	runMetricsFile string
)

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Handle a request end to end with simulated agents",
	Long: `Classify, decompose and execute a request, then print the aggregate
outcome. Agents are simulated: each returns a deterministic payload, and
--fail injects typed failures to exercise retries, skips and aborts.

Examples:
  taskweave run "read app.py and summarize it"
  taskweave run --fail readFile=transient:2 "read app.py and summarize it"
  taskweave run --fail apply=fatal "refactor the parser"
  taskweave run --confirm "delete build.log"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the outcome as JSON")
	runCmd.Flags().BoolVar(&runConfirm, "confirm", false, "Allow destructive tools")
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "Stream progress events to stderr")
	runCmd.Flags().StringArrayVarP(&runParams, "param", "p", nil, "Request parameter key=value (repeatable)")
	runCmd.Flags().StringArrayVar(&runFailures, "fail", nil, "Inject a failure: subtask=kind[:times] (repeatable)")
	runCmd.Flags().StringSliceVar(&runRecent, "recent", nil, "Recent operation types, oldest first")
	runCmd.Flags().DurationVar(&runLatency, "latency", 0, "Simulated agent latency per attempt")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Cancel the request after this long")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file (default: metrics.file)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	params, err := requestParams(runParams, runConfirm)
	if err != nil {
		return err
	}
	failures, err := agents.ParseFailures(runFailures)
	if err != nil {
		return err
	}
	rctx, err := requestContext(runRecent, "")
	if err != nil {
		return err
	}

	emitter := scheduler.NewEventEmitter(cfg.Progress.Buffer, a.logger)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range emitter.Events() {
			if runProgress && !runJSON {
				renderEvent(cmd.ErrOrStderr(), ev)
			}
		}
	}()

	r, err := a.newRouter(agents.NewSimulated(runLatency, failures), emitter)
	if err != nil {
		emitter.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	req := models.NewRequest(strings.Join(args, " "), params).WithContext(rctx)
	out, handleErr := r.Handle(ctx, req)
	emitter.Close()
	<-drained

	if out != nil {
		w := cmd.OutOrStdout()
		if runJSON {
			if err := writeJSON(w, out); err != nil {
				return err
			}
		} else {
			renderOutcome(w, out)
		}
	}

	metricsFile := runMetricsFile
	if metricsFile == "" {
		metricsFile = cfg.Metrics.File
	}
	if err := a.writeMetrics(metricsFile); err != nil {
		return errors.Join(handleErr, err)
	}
	return handleErr
}

// listParams hold comma-separated values.
var listParams = map[string]bool{
	classify.ParamFilePaths:      true,
	classify.ParamDirectoryPaths: true,
	classify.ParamExtensions:     true,
}

// requestParams parses key=value flags. Booleans become bool; list keys are
// split on commas.
func requestParams(flags []string, confirm bool) (models.Params, error) {
	params := models.Params{}
	for _, kv := range flags {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", kv)
		}
		switch {
		case listParams[key]:
			params[key] = strings.Split(value, ",")
		default:
			if b, err := strconv.ParseBool(value); err == nil {
				params[key] = b
			} else {
				params[key] = value
			}
		}
	}
	if confirm {
		params[toolmatrix.ParamConfirmed] = true
	}
	return params, nil
}
