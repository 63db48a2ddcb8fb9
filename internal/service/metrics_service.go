package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/substitution-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the allocation
// engine and the HTTP surface around it.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	runsTotal        prometheus.Counter
	assignmentsTotal prometheus.Counter
	warningsTotal    prometheus.Counter
	uncoveredTotal   prometheus.Counter
	runDuration      prometheus.Observer

	cacheLatency  prometheus.Observer
	cacheWrite    prometheus.Observer
	cacheHitRatio prometheus.Gauge
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter

	hitCount  uint64
	missCount uint64
}

// NewMetricsService registers the engine's Prometheus collectors on a
// dedicated registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	runsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "substitution_runs_total",
		Help: "Total allocation runs executed",
	})

	assignmentsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "substitution_assignments_total",
		Help: "Total substitute assignments recorded",
	})

	warningsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "substitution_warnings_total",
		Help: "Total warnings emitted by allocation runs",
	})

	uncoveredTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "substitution_uncovered_periods_total",
		Help: "Total periods left without an eligible substitute",
	})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "substitution_run_duration_seconds",
		Help:    "Duration of allocation runs",
		Buckets: prometheus.DefBuckets,
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal,
		runsTotal, assignmentsTotal, warningsTotal, uncoveredTotal, runDuration,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		runsTotal:        runsTotal,
		assignmentsTotal: assignmentsTotal,
		warningsTotal:    warningsTotal,
		uncoveredTotal:   uncoveredTotal,
		runDuration:      runDuration,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHitRatio:    cacheHitRatio,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveRun records the outcome of one allocation run. Uncovered periods
// are counted from the run's no-substitute trail entries.
func (m *MetricsService) ObserveRun(result *models.RunResult, duration time.Duration) {
	if m == nil || result == nil {
		return
	}
	m.runsTotal.Inc()
	m.assignmentsTotal.Add(float64(len(result.Assignments)))
	m.warningsTotal.Add(float64(len(result.Warnings)))
	m.runDuration.Observe(duration.Seconds())

	uncovered := 0
	for _, entry := range result.Logs {
		if entry.Action == "no-substitute" {
			uncovered++
		}
	}
	m.uncoveredTotal.Add(float64(uncovered))
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates the ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.hitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.missCount, 1)
	}
	hits := atomic.LoadUint64(&m.hitCount)
	misses := atomic.LoadUint64(&m.missCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks cache set latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}
