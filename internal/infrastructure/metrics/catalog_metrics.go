// Package metrics exposes Prometheus collectors for catalog sync, the catalog
// cache and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name
const Namespace = "vitaguide"

// Sync run outcomes used as label values
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
)

// CatalogMetrics holds the service collectors on a private registry
type CatalogMetrics struct {
	registry *prometheus.Registry

	syncRunsTotal    *prometheus.CounterVec
	syncItemsTotal   *prometheus.CounterVec
	syncDuration     prometheus.Histogram
	lastSyncSuccess  prometheus.Gauge
	cacheLookups     *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpRequestTimes *prometheus.HistogramVec
}

// NewCatalogMetrics creates and registers all collectors
func NewCatalogMetrics() *CatalogMetrics {
	m := &CatalogMetrics{
		registry: prometheus.NewRegistry(),
		syncRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "catalog_sync",
				Name:      "runs_total",
				Help:      "Finished catalog sync runs by outcome.",
			},
			[]string{"outcome"},
		),
		syncItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "catalog_sync",
				Name:      "items_total",
				Help:      "Catalog items processed by sync, by result.",
			},
			[]string{"result"},
		),
		syncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "catalog_sync",
				Name:      "duration_seconds",
				Help:      "Duration of catalog sync runs.",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
		),
		lastSyncSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "catalog_sync",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last run without failed items.",
			},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "catalog_cache",
				Name:      "lookups_total",
				Help:      "Catalog cache lookups by cache and result.",
			},
			[]string{"cache", "result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestTimes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Histogram of HTTP request durations.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		m.syncRunsTotal,
		m.syncItemsTotal,
		m.syncDuration,
		m.lastSyncSuccess,
		m.cacheLookups,
		m.httpRequests,
		m.httpRequestTimes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing the collectors
func (m *CatalogMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSyncRun records one finished sync run
func (m *CatalogMetrics) ObserveSyncRun(success bool, synced, failed, skipped int, duration time.Duration) {
	outcome := OutcomePartial
	if success {
		outcome = OutcomeSuccess
		m.lastSyncSuccess.SetToCurrentTime()
	}
	m.syncRunsTotal.WithLabelValues(outcome).Inc()
	m.syncItemsTotal.WithLabelValues("synced").Add(float64(synced))
	m.syncItemsTotal.WithLabelValues("failed").Add(float64(failed))
	m.syncItemsTotal.WithLabelValues("skipped").Add(float64(skipped))
	m.syncDuration.Observe(duration.Seconds())
}

// ObserveCacheLookup records a cache hit or miss
func (m *CatalogMetrics) ObserveCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordRequest records one HTTP request
func (m *CatalogMetrics) RecordRequest(method, route string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode/100) + "xx"
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpRequestTimes.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *CatalogMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency by matched route
func (m *CatalogMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
