// Package metrics exposes Prometheus instrumentation for the API and the validation worker.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dooh-ops/backend/internal/models"
)

const namespace = "dooh"

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	registry        *prometheus.Registry
	validations     *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	bookings        prometheus.Counter
	softConflicts   prometheus.Counter
	jobs            *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, including Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_validations_total",
			Help:      "Automated creative validations by outcome.",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_transitions_total",
			Help:      "Campaign media status transition attempts.",
		}, []string{"status", "accepted"}),
		bookings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Playlist bookings created.",
		}),
		softConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soft_conflict_warnings_total",
			Help:      "Soft-conflict warnings returned for busy panels.",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_jobs_total",
			Help:      "Background validation jobs by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.validations, m.transitions, m.bookings, m.softConflicts, m.jobs, m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ValidationCompleted counts one automated validation.
func (m *Metrics) ValidationCompleted(approved bool) {
	result := "refused"
	if approved {
		result = "approved"
	}
	m.validations.WithLabelValues(result).Inc()
}

// TransitionRecorded counts one media status transition attempt.
func (m *Metrics) TransitionRecorded(status models.MediaStatus, accepted bool) {
	m.transitions.WithLabelValues(string(status), strconv.FormatBool(accepted)).Inc()
}

// BookingCreated counts a new booking and whether it came with a soft-conflict warning.
func (m *Metrics) BookingCreated(warned bool) {
	m.bookings.Inc()
	if warned {
		m.softConflicts.Inc()
	}
}

// SoftConflictWarned counts a warning returned by a pre-submit check.
func (m *Metrics) SoftConflictWarned() {
	m.softConflicts.Inc()
}

// JobProcessed counts a worker job outcome: done, retried or dead_lettered.
func (m *Metrics) JobProcessed(outcome string) {
	m.jobs.WithLabelValues(outcome).Inc()
}

// Middleware observes request latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
