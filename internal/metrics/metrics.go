// Package metrics centralizes the Prometheus instrumentation for the
// retrieval pipeline. All methods are nil-safe so callers never guard
// against an unconfigured registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's collectors. A nil *Metrics is a valid
// no-op sink.
type Metrics struct {
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	providerFallbacks *prometheus.CounterVec
	searchLatency     *prometheus.HistogramVec
	searchTotal       *prometheus.CounterVec
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio_rag",
			Name:      "cache_hits_total",
			Help:      "Cache lookups that returned a stored value.",
		}, []string{"namespace"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio_rag",
			Name:      "cache_misses_total",
			Help:      "Cache lookups that found nothing usable.",
		}, []string{"namespace"}),
		providerFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio_rag",
			Name:      "provider_fallbacks_total",
			Help:      "Times a provider failed and the chain moved on.",
		}, []string{"provider"}),
		searchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portfolio_rag",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search latency by outcome type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"search_type"}),
		searchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio_rag",
			Name:      "searches_total",
			Help:      "Completed searches by outcome type.",
		}, []string{"search_type"}),
	}
}

// CacheHit records a hit in the named cache namespace.
func (m *Metrics) CacheHit(namespace string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(namespace).Inc()
}

// CacheMiss records a miss in the named cache namespace.
func (m *Metrics) CacheMiss(namespace string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(namespace).Inc()
}

// ProviderFallback records a failed provider attempt.
func (m *Metrics) ProviderFallback(provider string) {
	if m == nil {
		return
	}
	m.providerFallbacks.WithLabelValues(provider).Inc()
}

// ObserveSearch records one completed search.
func (m *Metrics) ObserveSearch(searchType string, seconds float64) {
	if m == nil {
		return
	}
	m.searchLatency.WithLabelValues(searchType).Observe(seconds)
	m.searchTotal.WithLabelValues(searchType).Inc()
}
