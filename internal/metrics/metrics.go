package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Provider metrics
	fetchAttempts prometheus.Counter
	fetchRetries  prometheus.Counter
	fetchFailures *prometheus.CounterVec
	fetchDuration prometheus.Histogram

	// Cache metrics
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	cacheEntries  prometheus.Gauge

	// Engine metrics
	evaluations           *prometheus.CounterVec
	verdicts              *prometheus.CounterVec
	consistencyMismatches prometheus.Counter
	scanDuration          prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		fetchAttempts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alphatic_fetch_attempts_total",
				Help: "Total number of upstream fetch attempts",
			},
		),
		fetchRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alphatic_fetch_retries_total",
				Help: "Total number of fetch retries after transient failures",
			},
		),
		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphatic_fetch_failures_total",
				Help: "Total number of fetches that failed after all retries",
			},
			[]string{"cause"},
		),
		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "alphatic_fetch_duration_seconds",
				Help:    "Upstream fetch duration in seconds, including retries",
				Buckets: prometheus.DefBuckets,
			},
		),

		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alphatic_cache_hits_total",
				Help: "Total number of price-table cache hits",
			},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alphatic_cache_misses_total",
				Help: "Total number of price-table cache misses",
			},
		),
		cacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "alphatic_cache_entries",
				Help: "Number of live price-table cache entries",
			},
		),

		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphatic_evaluations_total",
				Help: "Total number of ticker evaluations",
			},
			[]string{"call_site", "action"},
		),
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphatic_agreement_verdicts_total",
				Help: "Total number of agreement verdicts by kind",
			},
			[]string{"verdict"},
		),
		consistencyMismatches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alphatic_consistency_mismatches_total",
				Help: "Cross-check divergences between portfolio and scan call sites",
			},
		),
		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "alphatic_scan_duration_seconds",
				Help:    "Universe scan duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
	}

	reg.MustRegister(r.fetchAttempts)
	reg.MustRegister(r.fetchRetries)
	reg.MustRegister(r.fetchFailures)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.cacheHits)
	reg.MustRegister(r.cacheMisses)
	reg.MustRegister(r.cacheEntries)
	reg.MustRegister(r.evaluations)
	reg.MustRegister(r.verdicts)
	reg.MustRegister(r.consistencyMismatches)
	reg.MustRegister(r.scanDuration)

	return r
}

// RecordFetchAttempt records one upstream call.
func (r *Registry) RecordFetchAttempt() {
	r.fetchAttempts.Inc()
}

// RecordFetchRetry records a retry after a transient failure.
func (r *Registry) RecordFetchRetry() {
	r.fetchRetries.Inc()
}

// RecordFetchFailure records a fetch that failed after exhausting retries.
func (r *Registry) RecordFetchFailure(cause string) {
	r.fetchFailures.WithLabelValues(cause).Inc()
}

// RecordFetchDuration records the total fetch duration.
func (r *Registry) RecordFetchDuration(seconds float64) {
	r.fetchDuration.Observe(seconds)
}

// RecordCacheHit records a cache hit.
func (r *Registry) RecordCacheHit() {
	r.cacheHits.Inc()
}

// RecordCacheMiss records a cache miss.
func (r *Registry) RecordCacheMiss() {
	r.cacheMisses.Inc()
}

// SetCacheEntries sets the live entry count.
func (r *Registry) SetCacheEntries(n int) {
	r.cacheEntries.Set(float64(n))
}

// RecordEvaluation records one ticker evaluation.
func (r *Registry) RecordEvaluation(callSite, action string) {
	r.evaluations.WithLabelValues(callSite, action).Inc()
}

// RecordVerdict records an agreement verdict.
func (r *Registry) RecordVerdict(verdict string) {
	r.verdicts.WithLabelValues(verdict).Inc()
}

// RecordConsistencyMismatch records a cross-check divergence. Any increment
// here is a correctness defect somewhere upstream.
func (r *Registry) RecordConsistencyMismatch() {
	r.consistencyMismatches.Inc()
}

// RecordScan records a completed universe scan.
func (r *Registry) RecordScan(seconds float64) {
	r.scanDuration.Observe(seconds)
}
