// Package logger wraps slog with the conventions used across the service:
// structured key/value logging, a process-global instance and request-scoped
// child loggers carrying request, persona and session IDs.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Config controls handler format and verbosity.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn or error.
	Level string
	// JSON switches from the text handler to the JSON handler.
	JSON bool
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource attaches file:line to every record.
	AddSource bool
}

// DefaultConfig is JSON at info level.
func DefaultConfig() Config {
	return Config{Level: "info", JSON: true}
}

// Logger is a slog.Logger plus service-specific helpers.
type Logger struct {
	*slog.Logger
	config Config
}

var global *Logger

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger from config. The first logger created becomes the
// global one unless SetGlobal overrides it.
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(config.Level),
		AddSource: config.AddSource,
	}
	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	l := &Logger{Logger: slog.New(handler), config: config}
	if global == nil {
		global = l
	}
	return l
}

// SetGlobal replaces the process-global logger.
func SetGlobal(l *Logger) {
	global = l
}

// GetGlobal returns the global logger, creating a default one on first use.
func GetGlobal() *Logger {
	if global == nil {
		global = New(DefaultConfig())
	}
	return global
}

// LogError records err under the "error" key along with any extra pairs.
func (l *Logger) LogError(err error, msg string, args ...any) {
	l.Error(msg, append([]any{"error", err.Error()}, args...)...)
}

func (l *Logger) with(key, value string) *Logger {
	if value == "" {
		return l
	}
	return &Logger{Logger: l.With(key, value), config: l.config}
}

// WithRequestID returns a child logger tagged with the request ID.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with("request_id", requestID)
}

// WithPersona returns a child logger tagged with the persona ID.
func (l *Logger) WithPersona(personaID string) *Logger {
	return l.with("persona_id", personaID)
}

// WithSession returns a child logger tagged with the chat session ID.
func (l *Logger) WithSession(sessionID string) *Logger {
	return l.with("session_id", sessionID)
}

// LogRequest emits the per-request access line.
func (l *Logger) LogRequest(method, path string, status int, latency time.Duration) {
	l.Info("request completed",
		"method", method,
		"path", path,
		"status", status,
		"latency_ms", latency.Milliseconds(),
	)
}
