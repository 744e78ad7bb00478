package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(pollTicksTotal, pollCompletedTotal, staleDiscardsTotal) }

var pollTicksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "poll_ticks_total",
		Help: "Import-status samples by result (ok/error/stale).",
	},
	[]string{"result"},
)

var pollCompletedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "poll_operations_completed_total",
		Help: "Operations observed reaching completion, labeled by whether any file failed.",
	},
	[]string{"with_errors"},
)

var staleDiscardsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stale_responses_discarded_total",
		Help: "Responses dropped because their target changed mid-flight.",
	},
	[]string{"kind"}, // e.g. 'run_list', 'import_status'
)

func IncPollTick(result string) {
	pollTicksTotal.WithLabelValues(norm(result)).Inc()
}

func IncPollCompleted(withErrors bool) {
	v := "false"
	if withErrors {
		v = "true"
	}
	pollCompletedTotal.WithLabelValues(v).Inc()
}

func IncStaleDiscard(kind string) {
	staleDiscardsTotal.WithLabelValues(norm(kind)).Inc()
}
