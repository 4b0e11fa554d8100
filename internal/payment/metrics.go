package payment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the payment package
type Metrics struct {
	Initialized prometheus.Counter
	Succeeded   prometheus.Counter
	Failed      prometheus.Counter
}

// NewMetrics registers and returns the payment collectors
func NewMetrics() *Metrics {
	return &Metrics{
		Initialized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payments_initialized_total",
			Help: "Total number of payment transactions initialized",
		}),
		Succeeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payments_succeeded_total",
			Help: "Total number of payment transactions verified successful",
		}),
		Failed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payments_failed_total",
			Help: "Total number of payment transactions verified failed",
		}),
	}
}
