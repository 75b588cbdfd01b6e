package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Checkout metrics
	CheckoutSessionsTotal    *prometheus.CounterVec
	CheckoutCompletionsTotal *prometheus.CounterVec

	// Retrieval metrics
	RetrievalAttemptsTotal *prometheus.CounterVec
	RetrievalOutcomesTotal *prometheus.CounterVec
	RetrievalDuration      *prometheus.HistogramVec
	ActiveRetrievals       prometheus.Gauge

	// Persistence forwarder metrics
	PersistenceForwardsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		CheckoutSessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_sessions_total",
				Help:      "Total number of checkout sessions by pass",
			},
			[]string{"pass"},
		),
		CheckoutCompletionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_completions_total",
				Help:      "Total number of widget completion callbacks by status",
			},
			[]string{"status"},
		),
		RetrievalAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retrieval_attempts_total",
				Help:      "Total number of code-issuance webhook requests",
			},
			[]string{"mode", "result"},
		),
		RetrievalOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retrieval_outcomes_total",
				Help:      "Terminal retrieval outcomes by mode and state",
			},
			[]string{"mode", "state"},
		),
		RetrievalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "retrieval_duration_seconds",
				Help:      "Whole-lineage retrieval duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 3, 6, 10, 15, 30},
			},
			[]string{"mode"},
		),
		ActiveRetrievals: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_retrievals",
				Help:      "Number of retrieval lineages currently pending",
			},
		),
		PersistenceForwardsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_forwards_total",
				Help:      "Best-effort persistence webhook forwards by result",
			},
			[]string{"result"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
	}

	factory.MustRegister(
		m.CheckoutSessionsTotal,
		m.CheckoutCompletionsTotal,
		m.RetrievalAttemptsTotal,
		m.RetrievalOutcomesTotal,
		m.RetrievalDuration,
		m.ActiveRetrievals,
		m.PersistenceForwardsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CircuitBreakerState,
	)

	return m
}
