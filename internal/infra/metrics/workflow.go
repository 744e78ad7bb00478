package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(stepAdvancesTotal, runsCreatedTotal, fieldsCommitsTotal) }

var stepAdvancesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wizard_step_advances_total",
		Help: "Wizard step transitions, labeled by target step and whether the pointer persisted.",
	},
	[]string{"step", "persisted"},
)

var runsCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "runs_created_total",
		Help: "New runs created, labeled by whether they were cloned.",
	},
	[]string{"cloned"},
)

var fieldsCommitsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fields_commits_total",
		Help: "Field configuration commits by outcome (ok/rejected/error).",
	},
	[]string{"outcome"},
)

func IncStepAdvance(step string, persisted bool) {
	p := "false"
	if persisted {
		p = "true"
	}
	stepAdvancesTotal.WithLabelValues(norm(step), p).Inc()
}

func IncRunCreated(cloned bool) {
	c := "false"
	if cloned {
		c = "true"
	}
	runsCreatedTotal.WithLabelValues(c).Inc()
}

func IncFieldsCommit(outcome string) {
	fieldsCommitsTotal.WithLabelValues(norm(outcome)).Inc()
}
