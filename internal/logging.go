package site

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

var fallbackLogger = slog.Default()

// ContextWithLogger stores a request-scoped logger in the context. A nil
// logger leaves the context untouched.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext pulls the logger stored by ContextWithLogger, falling
// back to the process default so callers never get nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return fallbackLogger
	}
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return fallbackLogger
}
