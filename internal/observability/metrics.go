// Package observability exposes recomlite's Prometheus metrics, the way
// the teacher gateway's observability package wires counters and
// histograms for Grafana/alerting — here backed by the real
// prometheus/client_golang collectors the rest of the retrieved pack
// (suprachakra-Airline-Revenue-Optimization-System, tomtom215-cartographus)
// actually imports.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the orchestrator and the store circuit
// breaker touch.
type Metrics struct {
	InteractionsTotal   *prometheus.CounterVec
	RecommendationsTotal *prometheus.CounterVec
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	RecommendLatency    prometheus.Histogram
	CircuitBreakerTrips *prometheus.CounterVec
}

// NewMetrics registers and returns a Metrics bound to reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InteractionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recomlite",
			Name:      "interactions_total",
			Help:      "Interactions recorded, by event type.",
		}, []string{"event_type"}),
		RecommendationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recomlite",
			Name:      "recommendations_total",
			Help:      "Recommendation requests served, by result (hit/empty).",
		}, []string{"result"}),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recomlite",
			Name:      "recommendation_cache_hits_total",
			Help:      "Orchestrator-level recommendation cache hits.",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recomlite",
			Name:      "recommendation_cache_misses_total",
			Help:      "Orchestrator-level recommendation cache misses.",
		}),
		RecommendLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recomlite",
			Name:      "recommend_duration_seconds",
			Help:      "End-to-end latency of GetRecommendations.",
			Buckets:   prometheus.DefBuckets,
		}),
		CircuitBreakerTrips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recomlite",
			Name:      "store_circuit_breaker_state_changes_total",
			Help:      "Store circuit breaker state transitions.",
		}, []string{"to"}),
	}
}
