package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wellbeing"

// Metrics holds every collector of the service on its own registry
type Metrics struct {
	registry *prometheus.Registry

	LoginAttempts   *prometheus.CounterVec
	LoginDuration   prometheus.Histogram
	StoreProbes     *prometheus.CounterVec
	AmbiguousLogins prometheus.Counter

	ScreenersCompleted *prometheus.CounterVec
	ScreenersThrottled prometheus.Counter

	AlertsCreated      *prometheus.CounterVec
	AlertTransitions   *prometheus.CounterVec
	NotificationWrites *prometheus.CounterVec

	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),

		LoginDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "login_duration_seconds",
			Help:      "Time to resolve identity across all stores",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8},
		}),

		StoreProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_store_probes_total",
			Help:      "Per-store credential lookups by outcome",
		}, []string{"store", "outcome"}),

		AmbiguousLogins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_ambiguous_total",
			Help:      "Logins whose email matched more than one tenant store",
		}),

		ScreenersCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screeners_completed_total",
			Help:      "Completed screeners by type and result",
		}, []string{"type", "positive"}),

		ScreenersThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screeners_throttled_total",
			Help:      "Screener creations rejected by the reuse window",
		}),

		AlertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_created_total",
			Help:      "Emergency alerts created by type and risk level",
		}, []string{"type", "risk_level"}),

		AlertTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_transitions_total",
			Help:      "Alert status transitions by target status and outcome",
		}, []string{"status", "outcome"}),

		NotificationWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "staff_notification_writes_total",
			Help:      "Staff notification inserts by outcome",
		}, []string{"outcome"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.LoginAttempts,
		m.LoginDuration,
		m.StoreProbes,
		m.AmbiguousLogins,
		m.ScreenersCompleted,
		m.ScreenersThrottled,
		m.AlertsCreated,
		m.AlertTransitions,
		m.NotificationWrites,
		m.RequestDuration,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeMatch    = "match"
	OutcomeMiss     = "miss"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeRejected = "rejected"
)
