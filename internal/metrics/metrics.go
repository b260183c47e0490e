// Package metrics registers the process-wide Prometheus collectors. Only
// bounded label sets are used (widget kind, operation name); never ids or
// viewer hashes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OperationsTotal counts service-layer operations by widget kind and
	// operation name.
	OperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "embedkit_operations_total",
		Help: "Total widget service operations by kind and operation",
	}, []string{"widget", "op"})

	// ClaimConflictsTotal counts lost claim races: dedup hits, cooldown
	// hits and concurrent like toggles resolved by the store.
	ClaimConflictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "embedkit_claim_conflicts_total",
		Help: "Total dedup/cooldown claims lost to an existing marker",
	}, []string{"widget"})

	// RollbacksTotal counts compensating calls issued after a failed
	// downstream write.
	RollbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "embedkit_rollbacks_total",
		Help: "Total best-effort compensating rollbacks issued",
	}, []string{"widget"})

	// SweepDeletionsTotal counts entities removed by the retention sweep.
	SweepDeletionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "embedkit_sweep_deletions_total",
		Help: "Total inactive widgets deleted by the cleanup sweep",
	}, []string{"widget"})

	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "embedkit_http_requests_total",
		Help: "Total HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		OperationsTotal,
		ClaimConflictsTotal,
		RollbacksTotal,
		SweepDeletionsTotal,
		HTTPRequestsTotal,
	)
}

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
