// Package logger configures structured logging for the Zep MCP server.
//
// Everything is written to stderr: stdout belongs to the MCP stdio
// transport and must carry nothing but protocol frames.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format names accepted in configuration.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel converts a configuration string into a slog.Level.
// Unrecognized values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds a logger for the given level and format, writing to
// stderr, and installs it as the process default.
func Setup(level, format string) *slog.Logger {
	return SetupWithWriter(os.Stderr, level, format)
}

// SetupWithWriter is Setup with an explicit destination, for tests.
func SetupWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With("service", "zep-mcp-server")
	slog.SetDefault(logger)
	return logger
}
