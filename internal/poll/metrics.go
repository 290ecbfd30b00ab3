package poll

import "github.com/prometheus/client_golang/prometheus"

var (
	ticksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuesync_ticks_total",
			Help: "Poll ticks executed per pipeline",
		},
		[]string{"pipeline"},
	)

	tickErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuesync_tick_errors_total",
			Help: "Errors raised while running poll ticks",
		},
		[]string{"pipeline", "kind"},
	)

	importedTasksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "issuesync_imported_tasks_total",
			Help: "Tasks created from remote issues",
		},
	)

	refreshRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "issuesync_refresh_requests_total",
			Help: "Non-forced task refreshes requested by the refresher",
		},
	)

	armGeneration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "issuesync_arm_generation",
			Help: "Current arming generation per pipeline",
		},
		[]string{"pipeline"},
	)
)

func init() {
	prometheus.MustRegister(ticksTotal)
	prometheus.MustRegister(tickErrorsTotal)
	prometheus.MustRegister(importedTasksTotal)
	prometheus.MustRegister(refreshRequestsTotal)
	prometheus.MustRegister(armGeneration)
}

func countError(pipeline Pipeline, kind string) {
	tickErrorsTotal.WithLabelValues(string(pipeline), kind).Inc()
}
