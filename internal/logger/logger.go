// Package logger provides structured logging for the monitor.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tuanbt/buildmon/internal/config"
)

// LogFileName is the application log inside the configured log directory.
const LogFileName = "buildmon.log"

// NewEmbeddedLogger creates a logger that ONLY writes to file, for use while
// the terminal UI owns the screen. The returned cleanup closes the file.
func NewEmbeddedLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level := ParseLevel(cfg.LogLevel)

	// Ensure log directory exists
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, nil, err
	}

	logPath := filepath.Join(cfg.LogDirectory, LogFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: level,
	})

	cleanup := func() { file.Close() }
	return WithSession(slog.New(handler)), cleanup, nil
}

// NewConsoleLogger creates a text logger writing to w (stderr in headless
// mode, so stdout stays clean for reports).
func NewConsoleLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.LogLevel)

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return WithSession(slog.New(handler))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithSession tags every record with a fresh monitoring session id.
func WithSession(l *slog.Logger) *slog.Logger {
	return l.With("session_id", uuid.NewString())
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
