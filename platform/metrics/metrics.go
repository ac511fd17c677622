// Package metrics exposes Prometheus counters for the HTTP layer and the
// lead lifecycle. This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Lifecycle metrics
	Transitions      *prometheus.CounterVec
	OperationErrors  *prometheus.CounterVec
	PaymentsRecorded *prometheus.CounterVec
	RemindersSent    prometheus.Counter
	LeadsArchived    *prometheus.CounterVec
	ScoreRefreshes   prometheus.Counter

	// Side effects
	SideEffectFailures *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// New registers all metrics on reg. Passing a fresh prometheus.NewRegistry
// keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_transitions_total",
				Help: "Committed lead operations by resulting status",
			},
			[]string{"operation", "from", "to"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_operation_errors_total",
				Help: "Rejected lead operations by error kind",
			},
			[]string{"operation", "kind"},
		),
		PaymentsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_payments_recorded_total",
				Help: "Payments recorded, split by whether they crossed the enrollment threshold",
			},
			[]string{"enrolled"},
		),
		RemindersSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "lead_payment_reminders_total",
			Help: "Payment reminders recorded",
		}),
		LeadsArchived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_archived_total",
				Help: "Leads moved to lost, by operation",
			},
			[]string{"operation"},
		),
		ScoreRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "lead_score_refreshes_total",
			Help: "Explicit score recomputations",
		}),
		SideEffectFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_side_effect_failures_total",
				Help: "Post-commit side effects that failed",
			},
			[]string{"effect"},
		),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "lead_cache_hits_total",
			Help: "Lead read cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "lead_cache_misses_total",
			Help: "Lead read cache misses",
		}),
	}
}

// Nop returns metrics registered on a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
