package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/brightcart/api/internal/platform/requestctx"
)

// LogFunc receives structured service events.
type LogFunc func(ctx context.Context, event string, fields map[string]any)

// ContextLogger writes events through the request scoped zap logger at warn level.
func ContextLogger() LogFunc {
	return func(ctx context.Context, event string, fields map[string]any) {
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		zapFields := make([]zap.Field, 0, len(keys))
		for _, key := range keys {
			zapFields = append(zapFields, zap.Any(key, fields[key]))
		}
		requestctx.Logger(ctx).Warn(event, zapFields...)
	}
}

func noopLogger(context.Context, string, map[string]any) {}
