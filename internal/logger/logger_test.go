package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanbt/buildmon/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestEmbeddedLoggerWritesJSONToFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogDirectory = filepath.Join(t.TempDir(), "logs")

	l, cleanup, err := NewEmbeddedLogger(cfg)
	require.NoError(t, err)
	l.Info("edge finished", "edge_id", 3)
	cleanup()

	data, err := os.ReadFile(filepath.Join(cfg.LogDirectory, LogFileName))
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "edge finished", record["msg"])
	assert.EqualValues(t, 3, record["edge_id"])
	assert.NotEmpty(t, record["session_id"])
}

func TestConsoleLoggerRespectsLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	l := NewConsoleLogger(cfg, &buf)
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "shown"))
	assert.Contains(t, out, "session_id=")
}
