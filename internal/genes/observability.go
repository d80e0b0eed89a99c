package genes

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder receives pipeline stage outcomes and output row counts.
type MetricsRecorder interface {
	// Observe records one stage execution with its outcome and duration.
	Observe(ctx context.Context, stage string, success bool, duration time.Duration)
	// AddRows records how many rows a derived table produced.
	AddRows(ctx context.Context, table string, rows int)
}

var expvarSeq uint64

// ExpvarMetricsRecorder publishes aggregate timing, result, and row counters
// via expvar. It fulfills MetricsRecorder for deployments that prefer
// process-local metrics without external dependencies. Durations are
// tracked in milliseconds per stage.
type ExpvarMetricsRecorder struct {
	name      string
	mu        sync.Mutex
	durations map[string]float64
	results   map[string]map[string]int64
	rows      map[string]int64
}

// ExpvarMetricsSnapshot captures a read-only view of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	Rows        map[string]int64            `json:"rows_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs an expvar-backed recorder and
// publishes it under the supplied name. When name is empty, a unique
// identifier is generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("genes_pipeline_metrics_%d", id)
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		durations: make(map[string]float64),
		results:   make(map[string]map[string]int64),
		rows:      make(map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	durations := make(map[string]float64, len(r.durations))
	for stage, total := range r.durations {
		durations[stage] = total
	}
	results := make(map[string]map[string]int64, len(r.results))
	for stage, statusCounts := range r.results {
		cpy := make(map[string]int64, len(statusCounts))
		for status, count := range statusCounts {
			cpy[status] = count
		}
		results[stage] = cpy
	}
	rows := make(map[string]int64, len(r.rows))
	for tableName, count := range r.rows {
		rows[tableName] = count
	}
	return ExpvarMetricsSnapshot{
		DurationsMS: durations,
		Results:     results,
		Rows:        rows,
		RecordedAt:  time.Now().UTC(),
	}
}

// Observe records a pipeline stage outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, stage string, success bool, duration time.Duration) {
	if stage == "" {
		return
	}
	ms := float64(duration) / float64(time.Millisecond)
	status := "error"
	if success {
		status = "success"
	}

	r.mu.Lock()
	r.durations[stage] += ms
	if _, ok := r.results[stage]; !ok {
		r.results[stage] = make(map[string]int64, 2)
	}
	r.results[stage][status]++
	r.mu.Unlock()
}

// AddRows records rows produced for a derived table.
func (r *ExpvarMetricsRecorder) AddRows(_ context.Context, table string, rows int) {
	if table == "" {
		return
	}
	r.mu.Lock()
	r.rows[table] += int64(rows)
	r.mu.Unlock()
}

// PrometheusMetricsRecorder exports stage durations, result counters, and
// row counters through a Prometheus registerer.
type PrometheusMetricsRecorder struct {
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
	rows      *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the pipeline collectors with the
// provided registerer (prometheus.DefaultRegisterer when nil).
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusMetricsRecorder{
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "genes",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		results: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genes",
			Subsystem: "pipeline",
			Name:      "stage_results_total",
			Help:      "Stage executions by outcome.",
		}, []string{"stage", "status"}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genes",
			Subsystem: "pipeline",
			Name:      "table_rows_total",
			Help:      "Rows produced per derived table.",
		}, []string{"table"}),
	}
}

// Observe records a pipeline stage outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, stage string, success bool, duration time.Duration) {
	if stage == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(stage).Observe(duration.Seconds())
	r.results.WithLabelValues(stage, status).Inc()
}

// AddRows records rows produced for a derived table.
func (r *PrometheusMetricsRecorder) AddRows(_ context.Context, table string, rows int) {
	if table == "" {
		return
	}
	r.rows.WithLabelValues(table).Add(float64(rows))
}
