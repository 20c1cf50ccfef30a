package main

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/homonym/internal/app"
	"github.com/MrWong99/homonym/internal/config"
	"github.com/MrWong99/homonym/internal/observe"
	"github.com/MrWong99/homonym/pkg/reading"
)

func TestRunFilter(t *testing.T) {
	t.Parallel()

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	cfg := &config.Config{Dictionary: config.DictionaryConfig{
		Terms: map[string]string{"xueyangbaohedu": "血氧饱和度"},
	}}
	a, err := app.New(context.Background(), cfg,
		app.WithReadings(reading.Static{
			'血': {"xue"}, '氧': {"yang"}, '养': {"yang"},
			'饱': {"bao"}, '和': {"he"}, '合': {"he"}, '度': {"du"},
		}),
		app.WithMetrics(m),
		app.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}

	in := "血养饱合度64%\nabc\n\n血氧饱和度\n血养饱合度"
	var out strings.Builder
	if code := runFilter(context.Background(), a, strings.NewReader(in), &out, 2); code != 0 {
		t.Fatalf("runFilter exit code = %d", code)
	}
	want := "血氧饱和度64%\nabc\n\n血氧饱和度\n血氧饱和度\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
