package requestctx

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestLoggerDefaultsToNoop(t *testing.T) {
	if Logger(context.Background()) != NoopLogger() {
		t.Fatalf("expected noop logger for unscoped context")
	}
	if Logger(nil) != NoopLogger() {
		t.Fatalf("expected noop logger for nil context")
	}
}

func TestWithLoggerRoundTrip(t *testing.T) {
	logger := zap.NewExample()
	ctx := WithLogger(context.Background(), logger)
	if Logger(ctx) != logger {
		t.Fatalf("expected stored logger returned")
	}

	// A nil logger must not poison the context.
	ctx = WithLogger(context.Background(), nil)
	if Logger(ctx) != NoopLogger() {
		t.Fatalf("expected noop substituted for nil logger")
	}
}

func TestTraceRoundTrip(t *testing.T) {
	info := TraceInfo{TraceID: "trace-abc", SpanID: "span-1", Sampled: true}
	ctx := WithTrace(context.Background(), info)

	got, ok := Trace(ctx)
	if !ok || got != info {
		t.Fatalf("expected stored trace info, got %#v ok=%v", got, ok)
	}
	if TraceID(ctx) != "trace-abc" {
		t.Fatalf("unexpected trace id %q", TraceID(ctx))
	}
}

func TestTraceAbsent(t *testing.T) {
	if _, ok := Trace(context.Background()); ok {
		t.Fatalf("expected no trace info on fresh context")
	}
	if TraceID(context.Background()) != "" {
		t.Fatalf("expected empty trace id on fresh context")
	}
}
