// Package metrics exposes Prometheus instrumentation for the comms
// backend: inbox pipeline timings, webhook intake outcomes and HTTP
// request counters.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "comms"

var (
	// InboxQueryDuration measures the end-to-end inbox resolution time
	InboxQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inbox_query_duration_seconds",
			Help:      "Duration of inbox resolution queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"folder", "inbox_type"},
	)

	// InboxMemoryFiltered counts resolutions that needed the in-memory
	// tag filter and its count correction
	InboxMemoryFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_memory_filtered_total",
			Help:      "Total inbox resolutions that applied an in-memory tag filter",
		},
		[]string{"folder"},
	)

	// WebhookEventsTotal counts webhook intake outcomes
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Total webhook events received, by outcome",
		},
		[]string{"result"},
	)

	// CommunicationsIngested counts stored communications by channel and source
	CommunicationsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "communications_ingested_total",
			Help:      "Total communications stored, by type and ingest source",
		},
		[]string{"type", "source"},
	)

	// RequestDurationHistogram measures HTTP request latency
	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// APIErrorCounter counts HTTP responses with status >= 400
	APIErrorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API errors",
		},
		[]string{"method", "path", "status"},
	)
)

// Middleware tracks request duration and error counts per route
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			labels := prometheus.Labels{
				"method": c.Request().Method,
				"path":   c.Path(),
				"status": strconv.Itoa(status),
			}
			RequestDurationHistogram.With(labels).Observe(time.Since(start).Seconds())
			if status >= 400 {
				APIErrorCounter.With(labels).Inc()
			}

			return err
		}
	}
}

// HandlerFunc returns an echo handler serving the metrics endpoint
func HandlerFunc() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// ObserveInboxQuery records one inbox resolution
func ObserveInboxQuery(folder, inboxType string, d time.Duration) {
	InboxQueryDuration.With(prometheus.Labels{
		"folder":     folder,
		"inbox_type": inboxType,
	}).Observe(d.Seconds())
}
