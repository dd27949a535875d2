package logging

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orchd/internal/domain"
)

func TestLoggerWritesGlobalAndTaskFiles(t *testing.T) {
	root := t.TempDir()
	logger := New(root, zerolog.InfoLevel)
	defer func() { require.NoError(t, logger.Close()) }()

	logger.Info("", "store", "global only")
	logger.Info("task-20260115-090000-x", "session", "task scoped")

	global, err := os.ReadFile(domain.GlobalLogPath(root))
	require.NoError(t, err)
	assert.Contains(t, string(global), "global only")
	assert.Contains(t, string(global), "task scoped")

	taskLog, err := os.ReadFile(domain.TaskLogPath(root, "task-20260115-090000-x"))
	require.NoError(t, err)
	assert.Contains(t, string(taskLog), "task scoped")
	assert.NotContains(t, string(taskLog), "global only")
}

func TestLoggerRespectsLevel(t *testing.T) {
	root := t.TempDir()
	logger := New(root, zerolog.WarnLevel)
	defer func() { _ = logger.Close() }()

	logger.Debug("", "store", "too quiet")
	logger.Info("", "store", "still too quiet")
	logger.Warn("", "store", "loud enough")

	content, err := os.ReadFile(domain.GlobalLogPath(root))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "too quiet")
	assert.Contains(t, string(content), "loud enough")
}

func TestLoggerDisabledWithoutRoot(t *testing.T) {
	logger := New("", zerolog.InfoLevel)
	// Must not panic or create files anywhere.
	logger.Info("task-1", "store", "dropped")
	assert.NoError(t, logger.Close())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}
