// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resourcebook"

var (
	once sync.Once

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Count of committed booking lifecycle actions.",
		},
		[]string{"action"},
	)

	acquireConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_acquire_conflicts_total",
			Help:      "Count of resource acquisitions rejected because the resource was unavailable.",
		},
	)

	exportJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_export_jobs_total",
			Help:      "Count of booking export jobs by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by method and status.",
		},
		[]string{"method", "status"},
	)

	httpDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5},
		},
	)
)

// Register registers the collectors with the default registry (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingTransitions, acquireConflicts, exportJobs, httpRequests, httpDuration)
	})
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func IncBookingTransition(action string) {
	bookingTransitions.WithLabelValues(action).Inc()
}

func IncAcquireConflict() {
	acquireConflicts.Inc()
}

func IncExportJob(outcome string) {
	exportJobs.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method string, status int, latency time.Duration) {
	if status == 0 {
		status = http.StatusOK
	}
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpDuration.Observe(latency.Seconds())
}
