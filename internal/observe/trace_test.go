package observe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newTestTracerProvider returns a TracerProvider with an in-memory exporter
// for inspecting recorded spans.
func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exp
}

// captureDefaultLogger routes slog.Default into the returned buffer for the
// duration of the test.
func captureDefaultLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(orig) })
	return &buf
}

func TestCorrelationID_EmptyByDefault(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID(background) = %q, want empty", got)
	}
}

func TestStartSpan_CreatesSpan(t *testing.T) {
	tp, exp := newTestTracerProvider(t)

	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })

	ctx, span := StartSpan(context.Background(), "transcript.Correct")
	if cid := CorrelationID(ctx); len(cid) != 32 {
		t.Errorf("correlation ID = %q, want 32 hex characters", cid)
	}
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name != "transcript.Correct" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "transcript.Correct")
	}
}

func TestLogger_IncludesTraceID(t *testing.T) {
	tp, _ := newTestTracerProvider(t)
	buf := captureDefaultLogger(t)

	ctx, span := tp.Tracer("test").Start(context.Background(), "log-test")
	defer span.End()

	Logger(ctx).Info("hit applied")

	logged := buf.String()
	if !strings.Contains(logged, "trace_id=") || !strings.Contains(logged, "span_id=") {
		t.Errorf("log output missing trace_id/span_id, got: %s", logged)
	}
}

func TestLogger_NoSpan(t *testing.T) {
	buf := captureDefaultLogger(t)

	Logger(context.Background()).Info("hit applied")

	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("log output should not contain trace_id, got: %s", buf.String())
	}
}

func TestLoggerWith_EnrichesGivenLogger(t *testing.T) {
	tp, _ := newTestTracerProvider(t)
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil)).With("component", "reviser")

	ctx, span := tp.Tracer("test").Start(context.Background(), "log-test")
	defer span.End()

	LoggerWith(ctx, base).Info("hit rejected")

	logged := buf.String()
	if !strings.Contains(logged, "component=reviser") || !strings.Contains(logged, "trace_id=") {
		t.Errorf("log output should keep base attrs and add trace ids, got: %s", logged)
	}
}

func TestFail_MarksSpan(t *testing.T) {
	_, exp := newTestTracerProvider(t)

	_, ok := StartSpan(context.Background(), "app.Rebuild")
	if err := Fail(ok, nil); err != nil {
		t.Errorf("Fail(nil) = %v, want nil", err)
	}
	ok.End()

	_, bad := StartSpan(context.Background(), "app.Rebuild")
	want := errors.New("termstore: source 1: connection refused")
	if err := Fail(bad, want); !errors.Is(err, want) {
		t.Errorf("Fail(err) = %v, want %v", err, want)
	}
	bad.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if spans[0].Status.Code != codes.Unset {
		t.Errorf("successful span status = %v, want unset", spans[0].Status.Code)
	}
	if spans[1].Status.Code != codes.Error || spans[1].Status.Description != want.Error() {
		t.Errorf("failed span status = %+v, want error %q", spans[1].Status, want)
	}
	if len(spans[1].Events) != 1 || spans[1].Events[0].Name != "exception" {
		t.Errorf("failed span events = %+v, want one exception event", spans[1].Events)
	}
}
