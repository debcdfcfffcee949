// Package metrics exposes workflow-level counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TransfersInitiated prometheus.Counter
	TransfersCompleted prometheus.Counter
	StageTransitions   *prometheus.CounterVec
	ApprovalsRecorded  *prometheus.CounterVec
	Terminations       *prometheus.CounterVec
	VersionConflicts   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		TransfersInitiated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhulekh_transfers_initiated_total",
			Help: "Property transfers initiated",
		}),
		TransfersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhulekh_transfers_completed_total",
			Help: "Property transfers that reached transfer_complete",
		}),
		StageTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bhulekh_stage_transitions_total",
			Help: "Accepted stage transitions by target stage",
		}, []string{"stage"}),
		ApprovalsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bhulekh_approvals_recorded_total",
			Help: "Approvals appended by role",
		}, []string{"role"}),
		Terminations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bhulekh_transfer_terminations_total",
			Help: "Transfers ended before completion, by outcome",
		}, []string{"outcome"}),
		VersionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhulekh_version_conflicts_total",
			Help: "Writes rejected by the optimistic-concurrency check",
		}),
	}
}
