package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
)

func init() {
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_client_requests_total",
			Help: "Total number of backend requests by endpoint, method and status.",
		},
		[]string{"endpoint", "method", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_client_request_duration_seconds",
			Help:    "Backend request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	prometheus.MustRegister(requestsTotal, requestDuration)
}

func observeRequest(endpoint, method, status string, duration time.Duration) {
	requestsTotal.WithLabelValues(endpoint, method, status).Inc()
	requestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}
