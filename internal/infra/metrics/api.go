package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(apiRequestsTotal, apiRequestLatencyMs, apiRetriesTotal) }

var apiRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobapi_requests_total",
		Help: "Job API requests by operation and outcome.",
	},
	[]string{"op", "outcome"}, // outcome: ok|not_found|unauthorized|validation|error
)

var apiRequestLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "jobapi_request_latency_ms",
		Help:    "Job API request latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
	},
	[]string{"op"},
)

var apiRetriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobapi_retries_total",
		Help: "Retried Job API attempts by operation.",
	},
	[]string{"op"},
)

func IncAPIRequest(op, outcome string) {
	apiRequestsTotal.WithLabelValues(norm(op), norm(outcome)).Inc()
}

func ObserveAPILatency(op string, ms float64) {
	apiRequestLatencyMs.WithLabelValues(norm(op)).Observe(ms)
}

func IncAPIRetry(op string) {
	apiRetriesTotal.WithLabelValues(norm(op)).Inc()
}
