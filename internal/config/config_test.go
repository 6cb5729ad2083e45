package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 4, cfg.Scheduler.Workers)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.AttemptTimeout)
	assert.Equal(t, 3, cfg.Scheduler.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Scheduler.BackoffBase)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.BackoffMax)
	assert.Equal(t, 0.8, cfg.Classifier.AutoExecuteThreshold)
	assert.Equal(t, 0.4, cfg.Classifier.AmbiguousThreshold)
	assert.Equal(t, 5, cfg.Classifier.FeedbackMinSamples)
	assert.True(t, cfg.Feedback.Enabled)
	assert.Equal(t, "feedback.db", filepath.Base(cfg.Feedback.DBPath))
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 256, cfg.Progress.Buffer)
	assert.True(t, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := `
scheduler:
  workers: 8
  attempt_timeout: 45s
classifier:
  auto_execute_threshold: 0.9
tools:
  table_path: ${TW_TEST_DIR}/tools.yaml
  credentials:
    SERPER_API_KEY: serper-secret-value
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	t.Setenv("TW_TEST_DIR", tmpDir)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Scheduler.Workers)
	assert.Equal(t, 45*time.Second, cfg.Scheduler.AttemptTimeout)
	assert.Equal(t, 3, cfg.Scheduler.MaxAttempts)
	assert.Equal(t, 0.9, cfg.Classifier.AutoExecuteThreshold)
	assert.Equal(t, 0.4, cfg.Classifier.AmbiguousThreshold)
	assert.Equal(t, filepath.Join(tmpDir, "tools.yaml"), cfg.Tools.TablePath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())

	v, ok := cfg.LookupCredential("SERPER_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "serper-secret-value", v)
	assert.Equal(t, SourceConfig, cfg.CredentialSourceOf("SERPER_API_KEY"))
}

func TestLoadFromPath_Missing(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesUserConfig(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "taskweave"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "taskweave", "config.yaml"),
		[]byte("scheduler:\n  workers: 2\n  max_attempts: 5\n"), 0644))
	t.Setenv("TASKWEAVE_SCHEDULER_WORKERS", "9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Scheduler.Workers)
	assert.Equal(t, 5, cfg.Scheduler.MaxAttempts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Scheduler.Workers = 0 }},
		{"zero attempts", func(c *Config) { c.Scheduler.MaxAttempts = 0 }},
		{"zero timeout", func(c *Config) { c.Scheduler.AttemptTimeout = 0 }},
		{"negative backoff", func(c *Config) { c.Scheduler.BackoffBase = -time.Second }},
		{"threshold above one", func(c *Config) { c.Classifier.AutoExecuteThreshold = 1.5 }},
		{"inverted thresholds", func(c *Config) { c.Classifier.AmbiguousThreshold = 0.9 }},
		{"negative buffer", func(c *Config) { c.Progress.Buffer = -1 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSave(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	cfg := Default()
	cfg.Scheduler.Workers = 6
	require.NoError(t, Save(cfg))

	loaded, err := LoadFromPath(GetUserConfigPath())
	require.NoError(t, err)
	assert.Equal(t, 6, loaded.Scheduler.Workers)
	assert.Equal(t, cfg.Scheduler.AttemptTimeout, loaded.Scheduler.AttemptTimeout)
}

func TestLookupCredential(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	cfg := Default()
	cfg.Tools.Credentials = map[string]string{
		"github_token": "${TW_TEST_GH}",
	}

	_, ok := cfg.LookupCredential("GITHUB_TOKEN")
	assert.False(t, ok)
	assert.Equal(t, SourceNone, cfg.CredentialSourceOf("GITHUB_TOKEN"))

	t.Setenv("TW_TEST_GH", "ghp_1234567890abcdef")
	v, ok := cfg.LookupCredential("GITHUB_TOKEN")
	assert.True(t, ok)
	assert.Equal(t, "ghp_1234567890abcdef", v)

	t.Setenv("GITHUB_TOKEN", "from-env")
	v, _ = cfg.LookupCredential("GITHUB_TOKEN")
	assert.Equal(t, "from-env", v)
	assert.Equal(t, SourceEnv, cfg.CredentialSourceOf("GITHUB_TOKEN"))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "(not set)", MaskSecret(""))
	assert.Equal(t, "***", MaskSecret("short"))
	assert.Equal(t, "ghp_...cdef", MaskSecret("ghp_1234567890abcdef"))
}
