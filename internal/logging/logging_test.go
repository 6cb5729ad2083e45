package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, cleanup, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Debug("wave completed", zap.String("request", "r1"), zap.Int("wave", 2))
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "wave completed", entry["msg"])
	assert.Equal(t, "r1", entry["request"])
	assert.Equal(t, float64(2), entry["wave"])
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, cleanup, err := New(Options{Level: "warn", File: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_Console(t *testing.T) {
	logger, cleanup, err := New(Options{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	cleanup()
}

func TestProjectLogPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/repo", ".taskweave", "logs", "taskweave.log"), ProjectLogPath("/repo"))
}
