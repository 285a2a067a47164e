package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: a config pointing at a temp log file
	logPath := filepath.Join(t.TempDir(), "server.log")
	cfg := Config{
		Level:         "info",
		FilePath:      logPath,
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
	}

	// When: logging through the configured logger
	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	logger.Info("indexing started", slog.String("version", "6000.1"))
	cleanup()

	// Then: the file contains a JSON record with the message
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"indexing started"`)
	assert.Contains(t, string(data), `"version":"6000.1"`)
}

func TestSetup_LevelFiltersDebug(t *testing.T) {
	// Given: an info-level logger
	logPath := filepath.Join(t.TempDir(), "server.log")
	logger, cleanup, err := Setup(Config{Level: "info", FilePath: logPath, MaxSizeMB: 1, MaxFiles: 1})
	require.NoError(t, err)

	// When: emitting a debug record
	logger.Debug("not visible")
	logger.Info("visible")
	cleanup()

	// Then: only the info record is written
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "not visible")
	assert.Contains(t, string(data), "visible")
}

func TestParseLevel_Values(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelFromString("debug"))
	assert.Equal(t, slog.LevelWarn, LevelFromString("warning"))
	assert.Equal(t, slog.LevelError, LevelFromString("error"))
	assert.Equal(t, slog.LevelInfo, LevelFromString("unknown"))
}

func TestRotatingWriter_RotatesAtMaxSize(t *testing.T) {
	// Given: a writer with a 1MB cap
	logPath := filepath.Join(t.TempDir(), "server.log")
	w, err := NewRotatingWriter(logPath, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// When: writing more than the cap
	line := strings.Repeat("x", 64*1024)
	for i := 0; i < 20; i++ {
		_, err := w.Write([]byte(line))
		require.NoError(t, err)
	}

	// Then: a rotated file exists
	_, err = os.Stat(logPath + ".1")
	assert.NoError(t, err, "expected rotated file server.log.1")
}
