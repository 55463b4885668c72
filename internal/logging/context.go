package logging

import (
	"context"
	"log/slog"
)

type (
	loggerKey    struct{}
	requestIDKey struct{}
	traceIDKey   struct{}
	spanIDKey    struct{}
)

// WithLogger stores the provided logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the call-scoped logger or falls back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger := value[*slog.Logger](ctx, loggerKey{}); logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRequestID stores the identifier sent as X-Request-ID on outbound calls and echoed by
// the mock backend.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the stored request identifier, or "".
func RequestIDFromContext(ctx context.Context) string {
	return value[string](ctx, requestIDKey{})
}

func value[T any](ctx context.Context, key any) T {
	var zero T
	if ctx == nil {
		return zero
	}
	v, ok := ctx.Value(key).(T)
	if !ok {
		return zero
	}
	return v
}
