package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheRequestsTotal      *prometheus.CounterVec
	cacheInvalidationsTotal *prometheus.CounterVec
	cacheEntries            prometheus.Gauge
)

func init() {
	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cache lookups by endpoint and result (hit, miss, shared).",
		},
		[]string{"endpoint", "result"},
	)
	cacheInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of tag invalidations by tag type.",
		},
		[]string{"tag"},
	)
	cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries currently held by the most recently changed cache.",
		},
	)

	prometheus.MustRegister(cacheRequestsTotal, cacheInvalidationsTotal, cacheEntries)
}
