// Package observe provides observability primitives for the homophone
// corrector: OpenTelemetry metrics, distributed tracing, trace-aware
// structured logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] so that metrics can be
// scraped from /metrics. Tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/MrWong99/homonym"

// Hit outcomes used as the "outcome" attribute of [Metrics.Hits].
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeUnmapped = "unmapped"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// ReviseDuration tracks the latency of correcting one text.
	ReviseDuration metric.Float64Histogram

	// Sentences counts segments produced by the sentence segmenter.
	Sentences metric.Int64Counter

	// Hits counts automaton hits. Use with attribute:
	//   attribute.String("outcome", OutcomeApplied|OutcomeRejected|OutcomeUnmapped)
	Hits metric.Int64Counter

	// DictionaryKeys reports the number of unique fuzzy keys in the active
	// dictionary.
	DictionaryKeys metric.Int64Gauge

	// DictionaryCollisions counts terms discarded for key collisions.
	DictionaryCollisions metric.Int64Counter

	// DictionaryReloads counts dictionary rebuilds. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	DictionaryReloads metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("route", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// in-process text correction, which usually completes well under 10ms.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ReviseDuration, err = m.Float64Histogram("homonym.revise.duration",
		metric.WithDescription("Latency of correcting one text."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Sentences, err = m.Int64Counter("homonym.revise.sentences",
		metric.WithDescription("Total segments produced by the sentence segmenter."),
	); err != nil {
		return nil, err
	}
	if met.Hits, err = m.Int64Counter("homonym.revise.hits",
		metric.WithDescription("Total automaton hits by outcome."),
	); err != nil {
		return nil, err
	}
	if met.DictionaryKeys, err = m.Int64Gauge("homonym.dictionary.keys",
		metric.WithDescription("Unique fuzzy keys in the active dictionary."),
	); err != nil {
		return nil, err
	}
	if met.DictionaryCollisions, err = m.Int64Counter("homonym.dictionary.collisions",
		metric.WithDescription("Total terms discarded because their fuzzy key was taken."),
	); err != nil {
		return nil, err
	}
	if met.DictionaryReloads, err = m.Int64Counter("homonym.dictionary.reloads",
		metric.WithDescription("Total dictionary rebuilds by status."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("homonym.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route pattern and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Call it after [InitProvider] so
// the instruments bind to the exporting provider. Panics if instrument
// creation fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordRevision records the latency of one correction and the number of
// sentences it was split into.
func (m *Metrics) RecordRevision(ctx context.Context, seconds float64, sentences int) {
	m.ReviseDuration.Record(ctx, seconds)
	if sentences > 0 {
		m.Sentences.Add(ctx, int64(sentences))
	}
}

// RecordHits adds n hits with the given outcome. Zero counts are skipped.
func (m *Metrics) RecordHits(ctx context.Context, outcome string, n int) {
	if n <= 0 {
		return
	}
	m.Hits.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordDictionary reports the size of a freshly compiled dictionary and the
// collisions found while compiling it.
func (m *Metrics) RecordDictionary(ctx context.Context, keys, collisions int) {
	m.DictionaryKeys.Record(ctx, int64(keys))
	if collisions > 0 {
		m.DictionaryCollisions.Add(ctx, int64(collisions))
	}
}

// RecordReload counts a dictionary rebuild with status "ok" or "error".
func (m *Metrics) RecordReload(ctx context.Context, status string) {
	m.DictionaryReloads.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
