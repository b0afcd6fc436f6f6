package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimbench_api_requests_total",
		Help: "Total number of benchmark API requests",
	}, []string{"route", "status"})

	latencyHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "claimbench_api_latency_seconds",
		Help:    "Latency of benchmark API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
