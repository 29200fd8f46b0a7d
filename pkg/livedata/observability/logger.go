// Package observability provides logging, metrics, and tracing hooks for
// livedata stores, views, and queues.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"fmt"
	"log/slog"
	"time"
)

// EnrichLogger returns a logger that tags every record with the store or
// view name.
func EnrichLogger(logger *slog.Logger, source string) *slog.Logger {
	if logger == nil {
		return nil
	}
	if source == "" {
		return logger
	}
	return logger.With(slog.String("source", source))
}

// LogMutation logs a completed store mutation.
func LogMutation(logger *slog.Logger, op string, count int, senderID any) {
	if logger == nil {
		return
	}
	logger.Debug("items mutated",
		slog.String("op", op),
		slog.Int("count", count),
		slog.String("sender_id", formatSender(senderID)),
	)
}

// LogDeprecatedTypes warns that legacy field type coercion is in use.
func LogDeprecatedTypes(logger *slog.Logger, fields map[string]string) {
	if logger == nil {
		return
	}
	logger.Warn("field type coercion is deprecated, convert values with a data pipe instead",
		slog.Any("types", fields),
	)
}

// LogSkippedEntry warns that a batch entry was ignored.
func LogSkippedEntry(logger *slog.Logger, op string, index int, value any) {
	if logger == nil {
		return
	}
	logger.Warn("skipping non-object entry",
		slog.String("op", op),
		slog.Int("index", index),
		slog.String("type", fmt.Sprintf("%T", value)),
	)
}

// LogFlush logs a completed queue flush.
func LogFlush(logger *slog.Logger, entries int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("queue flushed",
		slog.Int("entries", entries),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogFlushError logs a queued call that failed while flushing.
func LogFlushError(logger *slog.Logger, index int, err error) {
	if logger == nil {
		return
	}
	logger.Error("queued call failed",
		slog.Int("index", index),
		slog.String("error", err.Error()),
	)
}

// LogRefetchError logs a view that could not re-read an upstream item.
func LogRefetchError(logger *slog.Logger, id any, err error) {
	if logger == nil {
		return
	}
	logger.Warn("view refetch failed",
		slog.Any("id", id),
		slog.String("error", err.Error()),
	)
}

// LogPipeError logs a change a pipe failed to forward.
func LogPipeError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Error("pipe forward failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}

func formatSender(senderID any) string {
	if senderID == nil {
		return ""
	}
	return fmt.Sprint(senderID)
}
