package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// settlementUsers counts per-user settlement outcomes by job and result
	// (settled, skipped, failed).
	settlementUsers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_jobs_total",
			Help: "Per-user settlement outcomes by job and result.",
		},
		[]string{"job", "result"},
	)

	// settlementContracts counts contracts changed by settlement jobs.
	settlementContracts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_contracts_total",
			Help: "Contracts updated by settlement jobs.",
		},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(settlementUsers, settlementContracts)
}
