// Package observability owns the Prometheus metrics of both binaries
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

const namespace = "cash_ledger"

// Metrics holds the application collectors on a private registry, so building it
// more than once (tests, two binaries in one process) never collides.
type Metrics struct {
	Registry *prometheus.Registry

	httpDuration     *prometheus.HistogramVec
	operations       *prometheus.CounterVec
	settledMovements prometheus.Counter
	settledAmount    prometheus.Counter
	cacheLookups     *prometheus.CounterVec
	outboxMessages   *prometheus.CounterVec
	archivedEvents   *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests by route and status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Ledger operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		settledMovements: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settled_movements_total",
				Help:      "Agreement movements swept into closings.",
			},
		),
		settledAmount: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settled_amount_total",
				Help:      "Sum of closing totals.",
			},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by cache and result.",
			},
			[]string{"cache", "result"},
		),
		outboxMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_messages_total",
				Help:      "Outbox messages handled by the relay, by result.",
			},
			[]string{"result"},
		),
		archivedEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "archived_events_total",
				Help:      "Ledger events consumed by the archiver, by result.",
			},
			[]string{"result"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
			},
			[]string{"name"},
		),
	}
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// IncrOperation counts a ledger operation; err decides the outcome label
func (m *Metrics) IncrOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// RecordSettlement adds a performed closing to the settlement counters
func (m *Metrics) RecordSettlement(movements int, total decimal.Decimal) {
	m.settledMovements.Add(float64(movements))
	m.settledAmount.Add(total.InexactFloat64())
}

func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheLookups.WithLabelValues(cache, "hit").Inc()
}

func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheLookups.WithLabelValues(cache, "miss").Inc()
}

// IncrOutbox counts a relay result: published, retry or failed
func (m *Metrics) IncrOutbox(result string) {
	m.outboxMessages.WithLabelValues(result).Inc()
}

// IncrArchived counts an archiver result: stored, duplicate, dead_letter or error
func (m *Metrics) IncrArchived(result string) {
	m.archivedEvents.WithLabelValues(result).Inc()
}

// SetBreakerState publishes a circuit breaker state as a gauge
func (m *Metrics) SetBreakerState(name string, state int) {
	m.breakerState.WithLabelValues(name).Set(float64(state))
}
