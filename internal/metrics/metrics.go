// Package metrics exposes Prometheus counters for the three engines,
// published on the HTTP server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WithdrawalsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voltport_withdrawals_submitted_total",
		Help: "Withdrawal requests accepted and reserved against a balance.",
	})
	WithdrawalsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voltport_withdrawals_rejected_total",
		Help: "Pending withdrawals rejected and refunded by an admin.",
	})
	ActivitiesSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voltport_activities_settled_total",
		Help: "Activities whose amount was folded into a balance by settlement.",
	})
	SessionsSimulated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voltport_sessions_simulated_total",
		Help: "Synthetic charging sessions committed by the accrual engine.",
	})
	SessionCommitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voltport_session_commit_failures_total",
		Help: "Per-port accrual commits that failed.",
	})
	EarningsAccrued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voltport_earnings_accrued_dollars_total",
		Help: "Total synthetic earnings accrued, in dollars.",
	})
	ResetChunksCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voltport_reset_chunks_committed_total",
		Help: "Bulk reset batch chunks committed.",
	})
	ResetChunksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voltport_reset_chunks_failed_total",
		Help: "Bulk reset batch chunks whose commit failed.",
	})
)
