package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"QRSCAN_LOG_LEVEL", "QRSCAN_LOG_FORMAT", "QRSCAN_EVENT_BUFFER", "QRSCAN_FRAME_INTERVAL", "QRSCAN_SCAN_TIMEOUT", "QRSCAN_FRAMES_DIR", "QRSCAN_LIBRARY_DIR", "QRSCAN_HISTORY_PATH"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("QRSCAN_LOG_LEVEL", "debug")
	t.Setenv("QRSCAN_LOG_FORMAT", "json")
	t.Setenv("QRSCAN_EVENT_BUFFER", "4")
	t.Setenv("QRSCAN_FRAME_INTERVAL", "250ms")
	t.Setenv("QRSCAN_LIBRARY_DIR", "/tmp/photos")
	t.Setenv("QRSCAN_HISTORY_PATH", "/tmp/history.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.EventBuffer)
	assert.Equal(t, 250*time.Millisecond, cfg.FrameInterval)
	assert.Equal(t, "/tmp/photos", cfg.LibraryDir)
	assert.Equal(t, "/tmp/history.db", cfg.HistoryPath)
	assert.NotNil(t, cfg.Logger())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("QRSCAN_LOG_LEVEL", "loud")
	t.Setenv("QRSCAN_EVENT_BUFFER", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
	assert.Contains(t, err.Error(), "event buffer")

	t.Setenv("QRSCAN_LOG_LEVEL", "info")
	t.Setenv("QRSCAN_EVENT_BUFFER", "not-a-number")
	_, err = Load()
	assert.ErrorContains(t, err, "parse env")
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("QRSCAN_LOG_FORMAT=json\nQRSCAN_LIBRARY_DIR=/from/dotenv\n"), 0o600))

	t.Setenv("QRSCAN_LOG_FORMAT", "text")
	t.Setenv("QRSCAN_LIBRARY_DIR", "")
	require.NoError(t, os.Unsetenv("QRSCAN_LIBRARY_DIR"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "text", os.Getenv("QRSCAN_LOG_FORMAT"))
	assert.Equal(t, "/from/dotenv", os.Getenv("QRSCAN_LIBRARY_DIR"))
}
