// Package metrics defines the prometheus instrumentation for the bridge
// orchestrator. All collectors are registered on the default registry and
// exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsTotal counts bridge transactions by terminal-bound status changes
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transactions_total",
			Help: "Total number of bridge transaction status transitions",
		},
		[]string{"status"},
	)

	// InitiateDuration tracks end-to-end initiate handling time
	InitiateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridge_initiate_duration_seconds",
			Help:    "Initiate request processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// TransactionAmount tracks the amount of tokens bridged per token
	TransactionAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_transaction_amount",
			Help:    "Amount of tokens bridged",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 100, 1000},
		},
		[]string{"token"},
	)

	// RateLimited counts initiate requests denied by admission control
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_rate_limited_total",
			Help: "Total number of initiate requests denied by the rate limiter",
		},
	)

	// ReconcilePasses counts reconciliation passes by outcome
	ReconcilePasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_reconcile_passes_total",
			Help: "Total number of reconciliation passes by outcome",
		},
		[]string{"outcome"},
	)

	// ChainClientErrors counts failures talking to chain infrastructure
	ChainClientErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_chain_client_errors_total",
			Help: "Total number of chain client call failures",
		},
		[]string{"operation"},
	)
)
