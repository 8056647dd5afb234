package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/v0xg/autosend/internal/config"
)

func TestConsoleLoggerColorsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.NewDefaultConfig().Logger

	logger, closer, err := NewLogger(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)
	logger.Info("Resolved input element", zap.String("tier", "fallback selector"))
	require.NoError(t, closer.Close())

	out := buf.String()
	assert.Contains(t, out, ansi["green"]+"INFO"+ansiReset)
	assert.Contains(t, out, "autosend.")
	assert.Contains(t, out, "Resolved input element")
	assert.Contains(t, out, `"tier": "fallback selector"`)
}

func TestJSONLoggerAndLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "autosend"}

	logger, closer, err := NewLogger(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept", zap.Int("attempt", 3))
	require.NoError(t, closer.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "autosend", entry["logger"])
	assert.EqualValues(t, 3, entry["attempt"])
}

func TestFileCoreIsJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "autosend.log")
	cfg := config.LoggerConfig{Level: "info", Format: "console", LogFile: path, MaxSize: 1}

	logger, closer, err := NewLogger(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)
	logger.Info("to both")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "to both", entry["msg"])
	assert.Contains(t, buf.String(), "to both")
}

func TestInvalidLevel(t *testing.T) {
	_, _, err := NewLogger(config.LoggerConfig{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}
