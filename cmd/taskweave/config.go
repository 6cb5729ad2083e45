package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskweave/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify taskweave configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the value in the user config file.

Configuration is stored at ~/.config/taskweave/config.yaml
Project-specific overrides can be placed in .taskweave.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			for _, key := range configKeys {
				v, _ := getConfigValue(cfg, key)
				fmt.Fprintf(w, "%s: %s\n", key, v)
			}
		case 1:
			v, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(w, v)
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintf(w, "Set %s = %s\n", args[0], args[1])
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "user:    %s\n", config.GetUserConfigPath())
		project := config.GetProjectConfigPath()
		if project == "" {
			project = "(none)"
		}
		fmt.Fprintf(w, "project: %s\n", project)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the user config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GetUserConfigPath()
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Save(config.Default()); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", green("✓"), path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

var configKeys = []string{
	"scheduler.workers",
	"scheduler.attempt_timeout",
	"scheduler.max_attempts",
	"scheduler.backoff_base",
	"scheduler.backoff_max",
	"classifier.auto_execute_threshold",
	"classifier.ambiguous_threshold",
	"classifier.feedback_min_samples",
	"tools.table_path",
	"feedback.enabled",
	"feedback.db_path",
	"logging.level",
	"logging.file",
	"progress.buffer",
	"metrics.enabled",
	"metrics.file",
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "scheduler.workers":
		return strconv.Itoa(cfg.Scheduler.Workers), nil
	case "scheduler.attempt_timeout":
		return cfg.Scheduler.AttemptTimeout.String(), nil
	case "scheduler.max_attempts":
		return strconv.Itoa(cfg.Scheduler.MaxAttempts), nil
	case "scheduler.backoff_base":
		return cfg.Scheduler.BackoffBase.String(), nil
	case "scheduler.backoff_max":
		return cfg.Scheduler.BackoffMax.String(), nil
	case "classifier.auto_execute_threshold":
		return strconv.FormatFloat(cfg.Classifier.AutoExecuteThreshold, 'g', -1, 64), nil
	case "classifier.ambiguous_threshold":
		return strconv.FormatFloat(cfg.Classifier.AmbiguousThreshold, 'g', -1, 64), nil
	case "classifier.feedback_min_samples":
		return strconv.Itoa(cfg.Classifier.FeedbackMinSamples), nil
	case "tools.table_path":
		return orUnset(cfg.Tools.TablePath), nil
	case "feedback.enabled":
		return strconv.FormatBool(cfg.Feedback.Enabled), nil
	case "feedback.db_path":
		return cfg.Feedback.DBPath, nil
	case "logging.level":
		return cfg.Logging.Level, nil
	case "logging.file":
		return orUnset(cfg.Logging.File), nil
	case "progress.buffer":
		return strconv.Itoa(cfg.Progress.Buffer), nil
	case "metrics.enabled":
		return strconv.FormatBool(cfg.Metrics.Enabled), nil
	case "metrics.file":
		return orUnset(cfg.Metrics.File), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "scheduler.workers":
		cfg.Scheduler.Workers, err = parseInt(key, value)
	case "scheduler.attempt_timeout":
		cfg.Scheduler.AttemptTimeout, err = parseDuration(key, value)
	case "scheduler.max_attempts":
		cfg.Scheduler.MaxAttempts, err = parseInt(key, value)
	case "scheduler.backoff_base":
		cfg.Scheduler.BackoffBase, err = parseDuration(key, value)
	case "scheduler.backoff_max":
		cfg.Scheduler.BackoffMax, err = parseDuration(key, value)
	case "classifier.auto_execute_threshold":
		cfg.Classifier.AutoExecuteThreshold, err = parseFloat(key, value)
	case "classifier.ambiguous_threshold":
		cfg.Classifier.AmbiguousThreshold, err = parseFloat(key, value)
	case "classifier.feedback_min_samples":
		cfg.Classifier.FeedbackMinSamples, err = parseInt(key, value)
	case "tools.table_path":
		cfg.Tools.TablePath = value
	case "feedback.enabled":
		cfg.Feedback.Enabled, err = parseBool(key, value)
	case "feedback.db_path":
		cfg.Feedback.DBPath = value
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.file":
		cfg.Logging.File = value
	case "progress.buffer":
		cfg.Progress.Buffer, err = parseInt(key, value)
	case "metrics.enabled":
		cfg.Metrics.Enabled, err = parseBool(key, value)
	case "metrics.file":
		cfg.Metrics.File = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return err
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func parseFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return f, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return b, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
