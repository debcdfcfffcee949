package anchor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks anchoring outcomes. The workflow never sees anchor
// failures, so these counters are the only way operators notice a ledger
// outage before the backlog drains.
type Metrics struct {
	Submitted    prometheus.Counter
	Confirmed    prometheus.Counter
	Failed       prometheus.Counter
	Retried      prometheus.Counter
	Dropped      prometheus.Counter
	BreakerOpens prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhulekh_anchor_submissions_total",
			Help: "Anchor submissions accepted for dispatch",
		}),
		Confirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhulekh_anchor_confirmed_total",
			Help: "Anchor submissions confirmed by the ledger",
		}),
		Failed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhulekh_anchor_failures_total",
			Help: "Anchor submission attempts that failed",
		}),
		Retried: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhulekh_anchor_retries_total",
			Help: "Anchor submissions pushed to the retry queue",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhulekh_anchor_dropped_total",
			Help: "Anchor submissions abandoned after exhausting retries",
		}),
		BreakerOpens: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhulekh_anchor_breaker_opens_total",
			Help: "Times the ledger circuit breaker opened",
		}),
	}
}
