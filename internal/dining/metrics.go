package dining

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the dining domain
type Metrics struct {
	Created          prometheus.Counter
	Accepted         prometheus.Counter
	Cancelled        prometheus.Counter
	Completed        prometheus.Counter
	Expired          prometheus.Counter
	JoinRequests     prometheus.Counter
	Conflicts        prometheus.Counter
	CommissionEarned prometheus.Counter
}

// NewMetrics registers and returns the dining collectors
func NewMetrics() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dining_created_total",
			Help: "Total number of dining engagements created",
		}),
		Accepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dining_accepted_total",
			Help: "Total number of accepted invitations and join requests",
		}),
		Cancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dining_cancelled_total",
			Help: "Total number of cancelled engagements",
		}),
		Completed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dining_completed_total",
			Help: "Total number of completed engagements",
		}),
		Expired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dining_expired_total",
			Help: "Total number of invitations cancelled by expiry",
		}),
		JoinRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dining_join_requests_total",
			Help: "Total number of join requests filed",
		}),
		Conflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dining_scheduling_conflicts_total",
			Help: "Total number of accepts rejected by the conflict detector",
		}),
		CommissionEarned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dining_commission_earned_total",
			Help: "Cumulative platform commission from completed engagements",
		}),
	}
}
