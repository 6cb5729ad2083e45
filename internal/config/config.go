// Package config handles configuration loading for taskweave.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProjectFileName is the per-project override file, searched upward from
// the working directory.
const ProjectFileName = ".taskweave.yaml"

// EnvPrefix prefixes environment overrides, e.g. TASKWEAVE_SCHEDULER_WORKERS.
const EnvPrefix = "TASKWEAVE"

// Config holds all configuration for taskweave.
type Config struct {
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Feedback   FeedbackConfig   `mapstructure:"feedback"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Progress   ProgressConfig   `mapstructure:"progress"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// SchedulerConfig bounds wave execution.
type SchedulerConfig struct {
	Workers        int           `mapstructure:"workers"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BackoffBase    time.Duration `mapstructure:"backoff_base"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
}

// ClassifierConfig holds the confidence bands and feedback settings.
type ClassifierConfig struct {
	AutoExecuteThreshold float64 `mapstructure:"auto_execute_threshold"`
	AmbiguousThreshold   float64 `mapstructure:"ambiguous_threshold"`
	// FeedbackMinSamples is the record count below which a rule's weight
	// is not biased.
	FeedbackMinSamples int `mapstructure:"feedback_min_samples"`
}

// ToolsConfig locates the tool table and credentials.
type ToolsConfig struct {
	// TablePath is a YAML tool table. Empty uses the built-in table.
	TablePath string `mapstructure:"table_path"`
	// Credentials maps credential names to values or ${VAR} references.
	Credentials map[string]string `mapstructure:"credentials"`
}

// FeedbackConfig controls outcome recording.
type FeedbackConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// File receives JSON log lines when set; otherwise logs go to stderr.
	File string `mapstructure:"file"`
}

// ProgressConfig sizes the progress event buffer.
type ProgressConfig struct {
	Buffer int `mapstructure:"buffer"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// File receives a text-format snapshot after each run when set.
	File string `mapstructure:"file"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (TASKWEAVE_*)
// 2. Project config (.taskweave.yaml in current directory or parent)
// 3. User config (~/.config/taskweave/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file, still honoring
// environment overrides.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Feedback.DBPath = expandPath(cfg.Feedback.DBPath)
	cfg.Logging.File = expandPath(cfg.Logging.File)
	cfg.Tools.TablePath = expandPath(cfg.Tools.TablePath)
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Scheduler.Workers < 1 {
		errs = append(errs, fmt.Errorf("scheduler.workers must be at least 1, got %d", c.Scheduler.Workers))
	}
	if c.Scheduler.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("scheduler.max_attempts must be at least 1, got %d", c.Scheduler.MaxAttempts))
	}
	if c.Scheduler.AttemptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.attempt_timeout must be positive, got %s", c.Scheduler.AttemptTimeout))
	}
	if c.Scheduler.BackoffBase < 0 || c.Scheduler.BackoffMax < 0 {
		errs = append(errs, errors.New("scheduler backoff durations must not be negative"))
	}
	auto, amb := c.Classifier.AutoExecuteThreshold, c.Classifier.AmbiguousThreshold
	if auto < 0 || auto > 1 || amb < 0 || amb > 1 {
		errs = append(errs, fmt.Errorf("classifier thresholds must be within [0,1], got auto=%v ambiguous=%v", auto, amb))
	} else if amb > auto {
		errs = append(errs, fmt.Errorf("classifier.ambiguous_threshold (%v) exceeds auto_execute_threshold (%v)", amb, auto))
	}
	if c.Classifier.FeedbackMinSamples < 0 {
		errs = append(errs, errors.New("classifier.feedback_min_samples must not be negative"))
	}
	if c.Progress.Buffer < 0 {
		errs = append(errs, errors.New("progress.buffer must not be negative"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	return errors.Join(errs...)
}

// Save writes cfg to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(GetUserConfigPath())

	v.Set("scheduler.workers", cfg.Scheduler.Workers)
	v.Set("scheduler.attempt_timeout", cfg.Scheduler.AttemptTimeout.String())
	v.Set("scheduler.max_attempts", cfg.Scheduler.MaxAttempts)
	v.Set("scheduler.backoff_base", cfg.Scheduler.BackoffBase.String())
	v.Set("scheduler.backoff_max", cfg.Scheduler.BackoffMax.String())
	v.Set("classifier.auto_execute_threshold", cfg.Classifier.AutoExecuteThreshold)
	v.Set("classifier.ambiguous_threshold", cfg.Classifier.AmbiguousThreshold)
	v.Set("classifier.feedback_min_samples", cfg.Classifier.FeedbackMinSamples)
	v.Set("tools.table_path", cfg.Tools.TablePath)
	v.Set("feedback.enabled", cfg.Feedback.Enabled)
	v.Set("feedback.db_path", cfg.Feedback.DBPath)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("progress.buffer", cfg.Progress.Buffer)
	v.Set("metrics.enabled", cfg.Metrics.Enabled)
	v.Set("metrics.file", cfg.Metrics.File)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("scheduler.workers", d.Scheduler.Workers)
	v.SetDefault("scheduler.attempt_timeout", d.Scheduler.AttemptTimeout.String())
	v.SetDefault("scheduler.max_attempts", d.Scheduler.MaxAttempts)
	v.SetDefault("scheduler.backoff_base", d.Scheduler.BackoffBase.String())
	v.SetDefault("scheduler.backoff_max", d.Scheduler.BackoffMax.String())

	v.SetDefault("classifier.auto_execute_threshold", d.Classifier.AutoExecuteThreshold)
	v.SetDefault("classifier.ambiguous_threshold", d.Classifier.AmbiguousThreshold)
	v.SetDefault("classifier.feedback_min_samples", d.Classifier.FeedbackMinSamples)

	v.SetDefault("tools.table_path", "")

	v.SetDefault("feedback.enabled", d.Feedback.Enabled)
	v.SetDefault("feedback.db_path", d.Feedback.DBPath)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", "")

	v.SetDefault("progress.buffer", d.Progress.Buffer)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.file", "")
}

// getUserConfigDir returns the XDG config directory for taskweave.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "taskweave")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "taskweave")
	}
	return filepath.Join(home, ".config", "taskweave")
}

// defaultDataDir returns the XDG data directory for taskweave.
func defaultDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "taskweave")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "taskweave")
	}
	return filepath.Join(home, ".local", "share", "taskweave")
}

// findProjectConfig searches for .taskweave.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandPath expands ${VAR} references and a leading "~/".
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Workers:        4,
			AttemptTimeout: 30 * time.Second,
			MaxAttempts:    3,
			BackoffBase:    200 * time.Millisecond,
			BackoffMax:     5 * time.Second,
		},
		Classifier: ClassifierConfig{
			AutoExecuteThreshold: 0.8,
			AmbiguousThreshold:   0.4,
			FeedbackMinSamples:   5,
		},
		Feedback: FeedbackConfig{
			Enabled: true,
			DBPath:  filepath.Join(defaultDataDir(), "feedback.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Progress: ProgressConfig{
			Buffer: 256,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
