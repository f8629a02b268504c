// Package metrics exposes Prometheus counters for the sync and exploration
// paths. Counters are registered on the default registry and served by the
// HTTP API's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendscope_syncs_total",
		Help: "Per-keyword sync outcomes by result",
	}, []string{"outcome"})

	explorationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendscope_explorations_total",
		Help: "Exploration runs by strategy",
	}, []string{"strategy"})
)

// RecordSync counts one per-keyword sync outcome (synced, skipped, failed).
func RecordSync(outcome string) {
	syncsTotal.WithLabelValues(outcome).Inc()
}

// RecordExploration counts one exploration run for a strategy.
func RecordExploration(strategy string) {
	explorationsTotal.WithLabelValues(strategy).Inc()
}
