package genes

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()
	rec.Observe(ctx, "export", true, 20*time.Millisecond)
	rec.Observe(ctx, "export", false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond) // ignored
	rec.AddRows(ctx, "genes.tsv", 3)
	rec.AddRows(ctx, "genes.tsv", 2)

	snap := rec.Snapshot()
	if snap.Results["export"]["success"] != 1 || snap.Results["export"]["error"] != 1 {
		t.Fatalf("results = %+v", snap.Results)
	}
	if snap.DurationsMS["export"] < 25 {
		t.Fatalf("durations = %+v", snap.DurationsMS)
	}
	if snap.Rows["genes.tsv"] != 5 {
		t.Fatalf("rows = %+v", snap.Rows)
	}
	if rec.Name() == "" {
		t.Fatalf("expected generated expvar name")
	}
}

func TestPrometheusMetricsRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusMetricsRecorder(reg)
	ctx := context.Background()
	rec.Observe(ctx, "export", true, time.Second)
	rec.Observe(ctx, "export", false, time.Second)
	rec.AddRows(ctx, "genes.tsv", 7)

	if got := promtestutil.ToFloat64(rec.results.WithLabelValues("export", "success")); got != 1 {
		t.Fatalf("success counter = %v", got)
	}
	if got := promtestutil.ToFloat64(rec.results.WithLabelValues("export", "error")); got != 1 {
		t.Fatalf("error counter = %v", got)
	}
	if got := promtestutil.ToFloat64(rec.rows.WithLabelValues("genes.tsv")); got != 7 {
		t.Fatalf("rows counter = %v", got)
	}
	if n := promtestutil.CollectAndCount(rec.durations); n != 1 {
		t.Fatalf("duration series = %d, want 1", n)
	}
}
