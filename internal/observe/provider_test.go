package observe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestServiceResource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		cfg         ProviderConfig
		wantName    string
		wantVersion string
	}{
		{name: "defaults", cfg: ProviderConfig{}, wantName: "homonym"},
		{
			name:        "explicit",
			cfg:         ProviderConfig{ServiceName: "homonym-edge", ServiceVersion: "1.4.2"},
			wantName:    "homonym-edge",
			wantVersion: "1.4.2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := serviceResource(tt.cfg)
			if err != nil {
				t.Fatalf("serviceResource: %v", err)
			}
			set := res.Set()
			if v, _ := set.Value(attribute.Key("service.name")); v.AsString() != tt.wantName {
				t.Errorf("service.name = %q, want %q", v.AsString(), tt.wantName)
			}
			v, ok := set.Value(attribute.Key("service.version"))
			if tt.wantVersion == "" && ok {
				t.Errorf("service.version = %q, want unset", v.AsString())
			}
			if tt.wantVersion != "" && v.AsString() != tt.wantVersion {
				t.Errorf("service.version = %q, want %q", v.AsString(), tt.wantVersion)
			}
		})
	}
}

func TestNewSpanExporter_Kinds(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"", TracesNone} {
		exp, err := newSpanExporter(ProviderConfig{TraceExporter: kind})
		if err != nil || exp != nil {
			t.Errorf("newSpanExporter(%q) = %v, %v; want nil, nil", kind, exp, err)
		}
	}

	exp, err := newSpanExporter(ProviderConfig{TraceExporter: TracesStdout, TraceOutput: &bytes.Buffer{}})
	if err != nil || exp == nil {
		t.Errorf("newSpanExporter(stdout) = %v, %v; want exporter", exp, err)
	}

	if _, err := newSpanExporter(ProviderConfig{TraceExporter: "zipkin"}); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("newSpanExporter(zipkin) error = %v, want ErrUnknownExporter", err)
	}
}

// InitProvider registers with the default prometheus registry, so it runs
// once per test binary.
func TestInitProvider_ExportsSpans(t *testing.T) {
	origTP, origMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(origTP)
		otel.SetMeterProvider(origMP)
	})

	var out bytes.Buffer
	shutdown, err := InitProvider(context.Background(), ProviderConfig{
		ServiceVersion: "1.4.2",
		TraceExporter:  TracesStdout,
		TraceOutput:    &out,
	})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}

	_, span := StartSpan(context.Background(), "transcript.Correct")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "transcript.Correct") || !strings.Contains(got, "1.4.2") {
		t.Errorf("exported spans = %q, want the span and the service version", got)
	}
}
