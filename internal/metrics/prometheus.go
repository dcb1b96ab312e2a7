// Package metrics exports ledger activity as Prometheus collectors.
package metrics

import (
	"time"

	"orusledger/internal/models"
	"orusledger/internal/services/wallet"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ wallet.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector implements wallet.MetricsCollector.
type PrometheusCollector struct {
	mutations *prometheus.CounterVec
	amount    *prometheus.CounterVec
	errors    *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	cache     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewPrometheusCollector registers the ledger collectors with reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "mutations_total",
			Help:      "Committed balance mutations.",
		}, []string{"direction", "currency"}),
		amount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "mutation_amount_total",
			Help:      "Sum of committed mutation amounts in minor units.",
		}, []string{"direction", "currency"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "errors_total",
			Help:      "Failed ledger operations by error code.",
		}, []string{"operation", "code"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "fallback_total",
			Help:      "Operations run without a unit of work.",
		}, []string{"operation"}),
		cache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "balance_cache_lookups_total",
			Help:      "Balance cache lookups by result.",
		}, []string{"operation", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (p *PrometheusCollector) RecordOperationDuration(operation string, d time.Duration) {
	p.duration.WithLabelValues(operation).Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordCacheHit(operation string) {
	p.cache.WithLabelValues(operation, "hit").Inc()
}

func (p *PrometheusCollector) RecordCacheMiss(operation string) {
	p.cache.WithLabelValues(operation, "miss").Inc()
}

func (p *PrometheusCollector) RecordMutation(direction models.Direction, currency models.Currency, amount int64) {
	p.mutations.WithLabelValues(string(direction), string(currency)).Inc()
	p.amount.WithLabelValues(string(direction), string(currency)).Add(float64(amount))
}

func (p *PrometheusCollector) RecordFallback(operation string) {
	p.fallbacks.WithLabelValues(operation).Inc()
}

func (p *PrometheusCollector) RecordError(operation, code string) {
	p.errors.WithLabelValues(operation, code).Inc()
}
