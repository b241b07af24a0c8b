package logger

import (
	"context"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds per-command logging fields.
type LogContext struct {
	TraceID string
	SpanID  string
	Command string
	Path    string
}

// WithContext returns a new context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	clone.TraceID = traceID
	clone.SpanID = spanID
	return &clone
}
