package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumByAttr returns the value of the data point whose attribute key equals
// value, or -1 when absent.
func sumByAttr(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not an int64 sum", name)
	}
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == key && kv.Value.AsString() == value {
				return dp.Value
			}
		}
	}
	return -1
}

func TestRecordRevision(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRevision(ctx, 0.0005, 4)
	m.RecordRevision(ctx, 0.002, 1)

	rm := collect(t, reader)

	met := findMetric(rm, "homonym.revise.duration")
	if met == nil {
		t.Fatal("homonym.revise.duration not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) == 0 {
		t.Fatal("homonym.revise.duration has no histogram data points")
	}
	if got := hist.DataPoints[0].Count; got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}

	sent := findMetric(rm, "homonym.revise.sentences")
	if sent == nil {
		t.Fatal("homonym.revise.sentences not found")
	}
	sum := sent.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 5 {
		t.Errorf("sentences = %v, want a single point of 5", sum.DataPoints)
	}
}

func TestRecordHits_ByOutcome(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordHits(ctx, OutcomeApplied, 2)
	m.RecordHits(ctx, OutcomeApplied, 1)
	m.RecordHits(ctx, OutcomeRejected, 1)
	m.RecordHits(ctx, OutcomeUnmapped, 0)

	rm := collect(t, reader)
	if got := sumByAttr(t, rm, "homonym.revise.hits", "outcome", OutcomeApplied); got != 3 {
		t.Errorf("applied = %d, want 3", got)
	}
	if got := sumByAttr(t, rm, "homonym.revise.hits", "outcome", OutcomeRejected); got != 1 {
		t.Errorf("rejected = %d, want 1", got)
	}
	if got := sumByAttr(t, rm, "homonym.revise.hits", "outcome", OutcomeUnmapped); got != -1 {
		t.Errorf("unmapped = %d, want no data point", got)
	}
}

func TestRecordDictionary(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordDictionary(ctx, 120, 3)
	m.RecordDictionary(ctx, 118, 0)
	m.RecordReload(ctx, "ok")
	m.RecordReload(ctx, "error")
	m.RecordReload(ctx, "ok")

	rm := collect(t, reader)

	met := findMetric(rm, "homonym.dictionary.keys")
	if met == nil {
		t.Fatal("homonym.dictionary.keys not found")
	}
	gauge, ok := met.Data.(metricdata.Gauge[int64])
	if !ok || len(gauge.DataPoints) != 1 {
		t.Fatalf("homonym.dictionary.keys data = %#v, want one gauge point", met.Data)
	}
	if gauge.DataPoints[0].Value != 118 {
		t.Errorf("dictionary keys = %d, want 118 (last recorded)", gauge.DataPoints[0].Value)
	}

	col := findMetric(rm, "homonym.dictionary.collisions")
	if col == nil {
		t.Fatal("homonym.dictionary.collisions not found")
	}
	if v := col.Data.(metricdata.Sum[int64]).DataPoints[0].Value; v != 3 {
		t.Errorf("collisions = %d, want 3", v)
	}

	if got := sumByAttr(t, rm, "homonym.dictionary.reloads", "status", "ok"); got != 2 {
		t.Errorf("reloads ok = %d, want 2", got)
	}
}
