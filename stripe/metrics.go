package stripe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: "stripe",
		Name:      "api_calls_total",
		Help:      "Stripe API calls by operation and outcome",
	}, []string{"operation", "outcome"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "checkout",
		Subsystem: "stripe",
		Name:      "api_call_duration_seconds",
		Help:      "Latency of Stripe API calls",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

// observe records the outcome of a Stripe call started at start.
func observe(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	apiCalls.WithLabelValues(operation, outcome).Inc()
	apiLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
