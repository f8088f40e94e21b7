package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"debug": LogLevelDebug, "INFO": LogLevelInfo, "": LogLevelInfo,
		"warning": LogLevelWarn, " error ": LogLevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestScanLoggerAttachesContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})

	l := base.WithComponent("capture").WithSession("h-1").WithContext("device", "cam0")
	l.LogTransition("live", "terminal", "camera_detection")
	l.LogDecode("fast", 0, false, errors.New("miss"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Session transition", lines[0]["msg"])
	assert.Equal(t, "capture", lines[0]["component"])
	assert.Equal(t, "h-1", lines[0]["session"])
	assert.Equal(t, "cam0", lines[0]["device"])
	assert.Equal(t, "terminal", lines[0]["to"])
	assert.Equal(t, "miss", lines[1]["error"])

	// Clones never leak attributes back into their parent.
	buf.Reset()
	base.Info("plain")
	lines = decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "component")
	assert.NotContains(t, lines[0], "device")
}

func TestScanLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "json", Output: &buf})
	l.Debug("hidden")
	l.Info("hidden")
	l.LogCapture("start", true, nil)
	l.Warn("shown")
	l.LogCapture("configure", false, errors.New("no device"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.Equal(t, "Capture step failed", lines[1]["msg"])
	assert.Equal(t, "configure", lines[1]["step"])
}

func TestErrorWithStack(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})
	l.ErrorWithStack(errors.New("boom"), "decoder panicked")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Contains(t, lines[0]["stack_trace"], "goroutine")
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf})
	l.WithComponent("engine").Info("hello", "k", "v")
	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "component=engine")
	assert.Contains(t, out, "k=v")
}

func TestOrNoOpAndWith(t *testing.T) {
	assert.Equal(t, NoOpLogger{}, OrNoOp(nil))

	var buf bytes.Buffer
	sl := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})
	With(sl, "album").Info("x")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "album", lines[0]["component"])

	plain := NewSlogAdapter(nil)
	assert.Same(t, plain, With(plain, "album"))
	assert.Equal(t, NoOpLogger{}, With(nil, "album"))
}

func TestCaptureHelpersOnPlainLogger(t *testing.T) {
	var buf bytes.Buffer
	plain := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	LogCapture(plain, "start", true, nil)
	LogCapture(plain, "configure", false, errors.New("busy"))
	StartTimer(plain, "capture.configure")()
	LogCapture(nil, "stop", false, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "Capture step", lines[0]["msg"])
	assert.Equal(t, true, lines[0]["running"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "busy", lines[1]["error"])
	assert.Equal(t, "capture.configure", lines[2]["operation"])
}
