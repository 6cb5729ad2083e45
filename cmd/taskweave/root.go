package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskweave/internal/config"
	"github.com/ShayCichocki/taskweave/internal/decompose"
	"github.com/ShayCichocki/taskweave/internal/router"
)

var (
	configFile string
	logLevel   string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "taskweave",
	Short: "Route natural-language requests into agent task graphs",
	Long: `Taskweave classifies a natural-language request into an operation type,
decomposes it into a dependency graph of subtasks, runs the graph in
barrier-synchronized waves across specialized agents, and aggregates the
results into a single outcome.

Requests below the confidence threshold are answered with ranked
alternative interpretations instead of being executed.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps handler errors to process exit codes: 2 for an aborted
// request, 3 for a rejected one, 1 otherwise.
func exitCode(err error) int {
	switch {
	case errors.Is(err, router.ErrAborted):
		return 2
	case errors.Is(err, decompose.ErrDecomposition):
		return 3
	default:
		return 1
	}
}

// loadConfig reads configuration, applies command-line overrides and
// validates the result.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFromPath(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: user and project config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file instead of stderr")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
