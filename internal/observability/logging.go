package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	JobID     string
	Stage     string
	Entry     string
	RequestID string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithJobID adds a job ID to the context.
func WithJobID(ctx context.Context, jobID string) context.Context {
	lc := extractLogContext(ctx)
	lc.JobID = jobID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a pipeline stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

// WithEntry adds the archive entry currently being processed.
func WithEntry(ctx context.Context, entry string) context.Context {
	lc := extractLogContext(ctx)
	lc.Entry = entry
	return context.WithValue(ctx, logContextKey, lc)
}

// WithRequestID adds an HTTP request correlation ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RequestID = requestID
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// getLogAttrs returns slog attributes from the context's LogContext.
func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := make([]slog.Attr, 0, 4)

	if lc.JobID != "" {
		attrs = append(attrs, logfields.JobID(lc.JobID))
	}
	if lc.Stage != "" {
		attrs = append(attrs, logfields.Stage(lc.Stage))
	}
	if lc.Entry != "" {
		attrs = append(attrs, logfields.Entry(lc.Entry))
	}
	if lc.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", lc.RequestID))
	}
	return attrs
}

func logWithContext(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	all := append(getLogAttrs(ctx), attrs...)
	if ctx == nil {
		ctx = context.Background()
	}
	slog.LogAttrs(ctx, level, msg, all...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logWithContext(ctx, slog.LevelInfo, msg, attrs)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logWithContext(ctx, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logWithContext(ctx, slog.LevelError, msg, attrs)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logWithContext(ctx, slog.LevelDebug, msg, attrs)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}
