package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "finledger"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	EntriesCreated     prometheus.Counter
	EntriesDeleted     prometheus.Counter
	EntryStatusChanges *prometheus.CounterVec
	BalanceQueries     prometheus.Counter

	// API metrics
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	HTTPInFlight   prometheus.Gauge
	RateLimitHits  prometheus.Counter
	IdempotentHits prometheus.Counter

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		EntriesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_created_total",
			Help:      "Total number of entries created",
		}),
		EntriesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_deleted_total",
			Help:      "Total number of entries deleted",
		}),
		EntryStatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entry_status_changes_total",
				Help:      "Total entry status changes by target status",
			},
			[]string{"status"},
		),
		BalanceQueries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_queries_total",
			Help:      "Total number of balance queries",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total requests rejected by the rate limiter",
		}),
		IdempotentHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Total responses replayed from the idempotency store",
		}),

		// Authentication metrics
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Total authentication attempts by outcome",
			},
			[]string{"status"},
		),
	}
}

// The helpers below accept a nil receiver so callers can run without metrics.

func (m *Metrics) EntryCreated() {
	if m != nil {
		m.EntriesCreated.Inc()
	}
}

func (m *Metrics) EntryDeleted() {
	if m != nil {
		m.EntriesDeleted.Inc()
	}
}

func (m *Metrics) StatusChanged(status string) {
	if m != nil {
		m.EntryStatusChanges.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) BalanceQueried() {
	if m != nil {
		m.BalanceQueries.Inc()
	}
}

func (m *Metrics) AuthAttempt(status string) {
	if m != nil {
		m.AuthAttempts.WithLabelValues(status).Inc()
	}
}
