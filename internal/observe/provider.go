package observe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Trace exporter kinds accepted by [ProviderConfig.TraceExporter].
const (
	TracesNone   = "none"
	TracesStdout = "stdout"
)

// ErrUnknownExporter is returned by [InitProvider] for an unsupported trace
// exporter kind.
var ErrUnknownExporter = errors.New("observe: unknown trace exporter")

// ProviderConfig configures the OpenTelemetry SDK providers.
type ProviderConfig struct {
	// ServiceName is reported as service.name. Default: "homonym".
	ServiceName string

	// ServiceVersion is reported as service.version when set.
	ServiceVersion string

	// TraceExporter selects where finished spans go: [TracesNone] (the
	// default) keeps them in process only, [TracesStdout] writes them as JSON
	// lines to TraceOutput.
	TraceExporter string

	// TraceOutput receives stdout-exported spans. Default: os.Stderr, since
	// stdout carries corrected text in filter mode.
	TraceOutput io.Writer

	// SampleRatio is the fraction of root spans sampled, in (0, 1]. Zero
	// samples every span.
	SampleRatio float64
}

// InitProvider installs a Prometheus-backed [sdkmetric.MeterProvider] and a
// [sdktrace.TracerProvider] as the global OTel providers. The Prometheus
// exporter registers with the default prometheus registerer, which the HTTP
// server exposes on /metrics.
//
// The returned function flushes and closes both providers.
func InitProvider(ctx context.Context, cfg ProviderConfig) (shutdown func(context.Context) error, err error) {
	res, err := serviceResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("observe: build resource: %w", err)
	}

	spans, err := newSpanExporter(cfg)
	if err != nil {
		return nil, err
	}

	promExp, err := promexporter.New()
	if err != nil {
		return nil, fmt.Errorf("observe: prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)

	tp := sdktrace.NewTracerProvider(tracerOptions(res, spans, cfg.SampleRatio)...)

	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func serviceResource(cfg ProviderConfig) (*resource.Resource, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "homonym"
	}
	attrs := []attribute.KeyValue{semconv.ServiceName(name)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}
	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}

// newSpanExporter builds the exporter named by cfg.TraceExporter, or nil for
// [TracesNone].
func newSpanExporter(cfg ProviderConfig) (sdktrace.SpanExporter, error) {
	switch cfg.TraceExporter {
	case "", TracesNone:
		return nil, nil
	case TracesStdout:
		w := cfg.TraceOutput
		if w == nil {
			w = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("observe: stdout trace exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, cfg.TraceExporter)
	}
}

func tracerOptions(res *resource.Resource, exp sdktrace.SpanExporter, ratio float64) []sdktrace.TracerProviderOption {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if ratio > 0 && ratio < 1 {
		opts = append(opts, sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))))
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return opts
}
