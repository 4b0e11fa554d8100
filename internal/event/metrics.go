package event

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the event domain
type Metrics struct {
	EventsCreated     prometheus.Counter
	EventJoins        prometheus.Counter
	SuggestionsServed prometheus.Counter
	MatchScores       prometheus.Histogram
}

// NewMetrics registers and returns the event collectors
func NewMetrics() *Metrics {
	return &Metrics{
		EventsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "events_created_total",
			Help: "Total number of events created",
		}),
		EventJoins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "events_joins_total",
			Help: "Total number of successful event joins",
		}),
		SuggestionsServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "events_suggestions_total",
			Help: "Total number of best-match suggestions served",
		}),
		MatchScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "events_match_scores",
			Help:    "Distribution of winning match scores",
			Buckets: prometheus.LinearBuckets(0, 1, 12),
		}),
	}
}
