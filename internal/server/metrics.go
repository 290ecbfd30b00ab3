package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuesync_http_requests_total",
			Help: "HTTP API requests by route and status",
		},
		[]string{"route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "issuesync_http_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
}

func observeRequest(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
