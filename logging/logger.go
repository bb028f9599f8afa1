package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger defines the minimal logging interface for AgentPilot. Arguments are
// alternating key/value pairs, matching slog conventions, so any structured
// logger can back it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// NoOpLogger discards all log messages. Useful for testing or when logging
// is disabled.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the message.
func (NoOpLogger) Error(string, ...any) {}

// Config configures construction of a PilotLogger.
type Config struct {
	Level     slog.Level
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns a baseline JSON info-level configuration.
func DefaultConfig() *Config {
	return &Config{Level: slog.LevelInfo, Format: "json", Output: os.Stdout}
}

// PilotLogger wraps slog.Logger with cheap contextual cloning and domain
// logging helpers for model calls and plan step execution.
type PilotLogger struct {
	logger *slog.Logger
}

// New builds a PilotLogger from a config (or defaults if nil).
func New(cfg *Config) *PilotLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &PilotLogger{logger: slog.New(handler)}
}

// WithComponent attaches the logical component (engine, router, executor,
// session store) to every entry.
func (l *PilotLogger) WithComponent(c string) *PilotLogger {
	return &PilotLogger{logger: l.logger.With(slog.String("component", c))}
}

// WithSession attaches session and run identifiers to every entry.
func (l *PilotLogger) WithSession(sessionID, runID string) *PilotLogger {
	return &PilotLogger{logger: l.logger.With(
		slog.String("session_id", sessionID),
		slog.String("run_id", runID),
	)}
}

// Debug logs at debug level.
func (l *PilotLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Info logs at info level.
func (l *PilotLogger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

// Warn logs at warn level.
func (l *PilotLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// Error logs at error level.
func (l *PilotLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// LogModelCall records a decision or worker model call with latency and
// outcome on any Logger.
func LogModelCall(l Logger, purpose, model string, dur time.Duration, err error) {
	if err != nil {
		l.Error("model call failed",
			"purpose", purpose,
			"model", model,
			"duration", dur.String(),
			"error", err.Error(),
		)
		return
	}
	l.Info("model call completed",
		"purpose", purpose,
		"model", model,
		"duration", dur.String(),
	)
}

// LogStepExecution records a plan step reaching a terminal status on any
// Logger.
func LogStepExecution(l Logger, index int, status string, dur time.Duration, err error) {
	if err != nil {
		l.Warn("plan step failed",
			"step", index,
			"status", status,
			"duration", dur.String(),
			"error", err.Error(),
		)
		return
	}
	l.Info("plan step finished",
		"step", index,
		"status", status,
		"duration", dur.String(),
	)
}
