package requestctx

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestLoggerFallsBackToNoop(t *testing.T) {
	if Logger(context.Background()) != NoopLogger() {
		t.Fatal("expected noop logger for empty context")
	}
	if Logger(WithLogger(context.Background(), nil)) != NoopLogger() {
		t.Fatal("expected nil logger to be stored as noop")
	}

	logger := zap.NewExample()
	if Logger(WithLogger(context.Background(), logger)) != logger {
		t.Fatal("expected attached logger")
	}
}

func TestTraceRoundTrip(t *testing.T) {
	if _, ok := Trace(context.Background()); ok {
		t.Fatal("expected no trace on empty context")
	}
	ctx := WithTrace(context.Background(), TraceInfo{TraceID: "4bf92f3577b34da6a3ce929d0e0e4736", Sampled: true})
	if got := TraceID(ctx); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("unexpected trace id %q", got)
	}
	if TraceID(WithLogger(ctx, nil)) == "" {
		t.Fatal("logger attachment must not hide trace info")
	}
}
