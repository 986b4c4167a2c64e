package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

const metricsNamespace = "dept_portal"

const (
	ledgerAttendance = "attendance"
	ledgerMarks      = "marks"
)

// MetricsService owns the Prometheus registry of the portal and keeps plain
// counters alongside it for the JSON summary.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	cacheLatency *prometheus.HistogramVec
	cacheRatio   prometheus.Gauge
	dbDuration   *prometheus.HistogramVec
	ledgerWrites *prometheus.CounterVec

	counters struct {
		requests        atomic.Uint64
		requestNanos    atomic.Uint64
		cacheHits       atomic.Uint64
		cacheMisses     atomic.Uint64
		dbQueries       atomic.Uint64
		dbNanos         atomic.Uint64
		attendanceSaved atomic.Uint64
		marksSaved      atomic.Uint64
	}
}

// NewMetricsService registers the portal collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of API requests by route template.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"method", "route", "status"})
	m.httpTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests by route template and status.",
	}, []string{"method", "route", "status"})

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Report and dashboard cache lookups by result.",
	}, []string{"result"})
	m.cacheLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "operation_seconds",
		Help:      "Redis round trips for cached views.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
	}, []string{"op"})
	m.cacheRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Hits over total lookups since start.",
	})

	m.dbDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Database round trips by label.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"query"})

	m.ledgerWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "ledger_records_saved_total",
		Help:      "Attendance and mark records upserted.",
	}, []string{"ledger"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "goroutines",
		Help:      "Goroutines currently running.",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	m.registry.MustRegister(m.httpDuration, m.httpTotal, m.cacheLookups, m.cacheLatency, m.cacheRatio, m.dbDuration, m.ledgerWrites, goroutines)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request. route is the gin route template.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, route, code).Inc()
	m.counters.requests.Add(1)
	m.counters.requestNanos.Add(uint64(duration))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio gauge.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.counters.cacheHits.Add(1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		m.counters.cacheMisses.Add(1)
	}
	m.cacheRatio.Set(ratio(m.counters.cacheHits.Load(), m.counters.cacheMisses.Load()))
}

// ObserveCacheWrite records a cache set.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

// ObserveDBQuery records a database round trip under label.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.counters.dbQueries.Add(1)
	m.counters.dbNanos.Add(uint64(duration))
}

// RecordAttendanceSaved counts attendance records written in one batch.
func (m *MetricsService) RecordAttendanceSaved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ledgerWrites.WithLabelValues(ledgerAttendance).Add(float64(n))
	m.counters.attendanceSaved.Add(uint64(n))
}

// RecordMarksSaved counts mark records written in one batch.
func (m *MetricsService) RecordMarksSaved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ledgerWrites.WithLabelValues(ledgerMarks).Add(float64(n))
	m.counters.marksSaved.Add(uint64(n))
}

// Snapshot summarises the counters for the admin metrics summary.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits, misses := m.counters.cacheHits.Load(), m.counters.cacheMisses.Load()
	requests := m.counters.requests.Load()
	queries := m.counters.dbQueries.Load()

	return models.SystemMetrics{
		CacheHitRatio:            ratio(hits, misses),
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMillis(m.counters.requestNanos.Load(), requests),
		DBQueryCount:             queries,
		AverageDBQueryDurationMs: averageMillis(m.counters.dbNanos.Load(), queries),
		AttendanceSaved:          m.counters.attendanceSaved.Load(),
		MarksSaved:               m.counters.marksSaved.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func ratio(hits, misses uint64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func averageMillis(totalNanos, n uint64) float64 {
	if n == 0 {
		return 0
	}
	return float64(totalNanos) / float64(n) / float64(time.Millisecond)
}
