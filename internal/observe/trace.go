package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope of every span homonym starts.
const tracerName = "github.com/MrWong99/homonym"

// Tracer returns the homonym tracer from the global provider. It is looked up
// on each call so that providers installed later (by [InitProvider] or a
// test) take effect.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a span on [Tracer]. The caller ends it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// Fail marks span as failed with err and returns err unchanged, so it can
// wrap a return statement. A nil err leaves the span untouched.
func Fail(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// CorrelationID is the trace ID carried by ctx, or "".
func CorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger is [LoggerWith] applied to [slog.Default].
func Logger(ctx context.Context) *slog.Logger {
	return LoggerWith(ctx, slog.Default())
}

// LoggerWith adds trace_id and span_id to l when ctx carries a span, so log
// records can be joined with exported spans.
func LoggerWith(ctx context.Context, l *slog.Logger) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return l
	}
	return l.With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
