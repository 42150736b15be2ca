package kmeansgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with kmeans-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithK adds a cluster-count field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithShape adds dataset shape fields to the logger.
func (l *Logger) WithShape(rows, cols int) *Logger {
	return &Logger{
		Logger: l.Logger.With("rows", rows, "cols", cols),
	}
}

// LogFit logs a fit operation.
func (l *Logger) LogFit(ctx context.Context, rows, cols, iterations int, inertia float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fit failed",
			"rows", rows,
			"cols", cols,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "fit completed",
			"rows", rows,
			"cols", cols,
			"iterations", iterations,
			"inertia", inertia,
		)
	}
}

// LogPredict logs a predict operation.
func (l *Logger) LogPredict(ctx context.Context, rows int, inertia float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "predict failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "predict completed",
			"rows", rows,
			"inertia", inertia,
		)
	}
}

// LogTransform logs a transform operation.
func (l *Logger) LogTransform(ctx context.Context, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "transform failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "transform completed",
			"rows", rows,
		)
	}
}

// LogSnapshot logs a snapshot save/load operation.
func (l *Logger) LogSnapshot(ctx context.Context, op string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"op", op,
		)
	}
}
