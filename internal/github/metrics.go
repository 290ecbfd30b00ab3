package github

import "github.com/prometheus/client_golang/prometheus"

var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "issuesync_github_requests_total",
		Help: "GitHub API requests by endpoint and response status",
	},
	[]string{"endpoint", "status"},
)

func init() {
	prometheus.MustRegister(requestsTotal)
}
