// Package requestctx holds the per-request logger and trace metadata that middleware attaches
// and services read back.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	keyLogger ctxKey = iota
	keyTrace
)

var nop = zap.NewNop()

// TraceInfo identifies the span serving the current request.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

// WithLogger attaches logger to ctx. Nil loggers are stored as the no-op logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = nop
	}
	return context.WithValue(orBackground(ctx), keyLogger, logger)
}

// Logger returns the logger attached to ctx, falling back to NoopLogger.
func Logger(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if logger, _ := ctx.Value(keyLogger).(*zap.Logger); logger != nil {
			return logger
		}
	}
	return nop
}

// NoopLogger is the logger handed out for contexts without one.
func NoopLogger() *zap.Logger { return nop }

// WithTrace attaches info to ctx.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	return context.WithValue(orBackground(ctx), keyTrace, info)
}

// Trace reports the trace metadata attached to ctx.
func Trace(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(keyTrace).(TraceInfo)
	return info, ok
}

// TraceID is shorthand for the trace id attached to ctx, or "".
func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
