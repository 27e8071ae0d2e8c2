package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "quetzal"

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	HTTPResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response body size",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
	}, []string{"method", "route"})

	ActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Requests currently being served",
	})

	// Store
	DBOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Catalog and user store call latency",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation", "table"})

	// Catalog
	CatalogOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "catalog",
		Name:      "operations_total",
		Help:      "Catalog mutations that completed",
	}, []string{"operation"}) // add, update, remove, replace, reset

	CatalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "catalog",
		Name:      "papers",
		Help:      "Papers in the in-memory catalog",
	})

	ActiveWatchers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "catalog",
		Name:      "active_watchers",
		Help:      "Open live search streams",
	})

	// Gateway
	GatewayFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "gateway",
		Name:      "files_total",
		Help:      "Files uploaded, downloaded or deleted",
	}, []string{"operation"})

	GatewayBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "gateway",
		Name:      "uploaded_bytes_total",
		Help:      "Bytes written to the upload directory",
	})

	// Auth
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Login and password-change attempts",
	}, []string{"status", "type"}) // success/failure/pending, login/password/2fa

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "errors_total",
		Help:      "Internal errors by source",
	}, []string{"type"}) // db, auth, storage
)

// MetricsMiddleware records request count, latency and response size per
// route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ActiveRequests.Inc()
		start := time.Now()

		c.Next()

		ActiveRequests.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			HTTPResponseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}

// TrackDBOperation starts a timer; callers defer ObserveDuration.
func TrackDBOperation(operation, table string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, table))
}

// TrackCatalogOperation counts a completed mutation and records the
// resulting catalog size.
func TrackCatalogOperation(operation string, size int) {
	CatalogOperationsTotal.WithLabelValues(operation).Inc()
	CatalogSize.Set(float64(size))
}

func TrackGatewayFile(operation string, bytes int64) {
	GatewayFilesTotal.WithLabelValues(operation).Inc()
	if bytes > 0 {
		GatewayBytesTotal.Add(float64(bytes))
	}
}

func TrackAuthAttempt(status, authType string) {
	AuthAttempts.WithLabelValues(status, authType).Inc()
}

func TrackError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}
