package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

const namespace = "creditledger"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	CreditsApplied    *prometheus.CounterVec
	DebitsApplied     *prometheus.CounterVec
	CreditAmount      *prometheus.HistogramVec
	DebitAmount       prometheus.Histogram
	DebitFragments    prometheus.Histogram
	OperationDuration *prometheus.HistogramVec
	Ledgers           prometheus.Gauge

	// Event metrics
	EventsPublished *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

var amountBuckets = []float64{1, 10, 100, 1000, 10000, 100000, 1000000}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CreditsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credits_total",
				Help:      "Credits processed by category and outcome",
			},
			[]string{"category", "outcome"},
		),
		DebitsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "debits_total",
				Help:      "Debits processed by outcome",
			},
			[]string{"outcome"},
		),
		CreditAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "credit_amount",
				Help:      "Applied credit amounts",
				Buckets:   amountBuckets,
			},
			[]string{"category"},
		),
		DebitAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "debit_amount",
			Help:      "Applied debit amounts",
			Buckets:   amountBuckets,
		}),
		DebitFragments: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "debit_fragments",
			Help:      "Number of credit entries drawn by one debit",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50},
		}),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of ledger operations including lock wait",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"operation"},
		),
		Ledgers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledgers",
			Help:      "Number of customer ledgers held in memory",
		}),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Outbox events published by type and status",
			},
			[]string{"event_type", "status"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),

		RedisOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "redis_operations_total",
				Help:      "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "redis_errors_total",
				Help:      "Total Redis errors",
			},
			[]string{"operation"},
		),

		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// RecordCredit counts a processed credit. Amounts are only observed for
// applied credits.
func (m *Metrics) RecordCredit(category domain.Category, outcome string, amount decimal.Decimal) {
	m.CreditsApplied.WithLabelValues(string(category), outcome).Inc()
	if outcome == usecase.OutcomeApplied {
		m.CreditAmount.WithLabelValues(string(category)).Observe(amount.InexactFloat64())
	}
}

// RecordDebit counts a processed debit and, when applied, how many credit
// entries it drew from.
func (m *Metrics) RecordDebit(outcome string, fragments int, amount decimal.Decimal) {
	m.DebitsApplied.WithLabelValues(outcome).Inc()
	if outcome == usecase.OutcomeApplied {
		m.DebitAmount.Observe(amount.InexactFloat64())
		m.DebitFragments.Observe(float64(fragments))
	}
}

// ObserveOperation records how long a ledger operation took.
func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	m.OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// SetLedgers reports the number of ledgers in the store.
func (m *Metrics) SetLedgers(n int) {
	m.Ledgers.Set(float64(n))
}

// RecordEvent counts an outbox event publish attempt.
func (m *Metrics) RecordEvent(eventType, status string) {
	m.EventsPublished.WithLabelValues(eventType, status).Inc()
}

// RecordRedis counts a Redis operation and, if err is set, a failure.
func (m *Metrics) RecordRedis(operation string, err error) {
	m.RedisOperations.WithLabelValues(operation).Inc()
	if err != nil {
		m.RedisErrors.WithLabelValues(operation).Inc()
	}
}

// ObserveHTTP records a completed HTTP request. route is the matched route
// pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordAuthFailure counts a rejected bearer token.
func (m *Metrics) RecordAuthFailure(reason string) {
	m.AuthFailures.WithLabelValues(reason).Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited() {
	m.RateLimitHits.Inc()
}
