// Package metrics exposes Prometheus collectors for the HTTP API, the record
// store, the aggregate caches and the import pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salesdash"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	storeDuration   *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheEvictions  prometheus.Counter
	rateLimited     prometheus.Counter
	importedRecords *prometheus.CounterVec
	importBatches   *prometheus.CounterVec
}

// New registers every collector on a fresh registry, plus the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		storeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Record store latency by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"op"}),
		storeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operation_errors_total",
			Help:      "Failed record store operations.",
		}, []string{"op"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Aggregate cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		cacheEvictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_expired_total",
			Help:      "Aggregate cache entries removed by expiry sweeps.",
		}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
		importedRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_transactions_total",
			Help:      "Transactions handled by the import pipeline by outcome.",
		}, []string{"outcome"}),
		importBatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_batches_total",
			Help:      "Import batches by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveHTTP(route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveStore matches store.Observer.
func (m *Metrics) ObserveStore(op string, elapsed time.Duration, err error) {
	m.storeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		m.storeErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) CacheExpired(n int) {
	m.cacheEvictions.Add(float64(n))
}

func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// Imported counts records by outcome: stored, invalid or failed.
func (m *Metrics) Imported(outcome string, n int) {
	m.importedRecords.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) ImportBatch(outcome string) {
	m.importBatches.WithLabelValues(outcome).Inc()
}
