package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BenchmarkRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimbench_runs_total",
		Help: "The total number of benchmark runs by final status",
	}, []string{"status"})

	BenchmarkDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "claimbench_run_duration_seconds",
		Help:    "Wall-clock duration of benchmark runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	})

	RowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimbench_rows_total",
		Help: "The total number of dataset rows classified by outcome",
	}, []string{"status"})

	IterationsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimbench_iterations_total",
		Help: "The total number of classification iterations by outcome",
	}, []string{"status"})

	RowsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "claimbench_rows_in_flight",
		Help: "Number of rows currently being classified",
	})

	JobQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "claimbench_job_queue_depth",
		Help: "Number of pending benchmark jobs in the queue",
	})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "claimbench_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimbench_llm_requests_total",
		Help: "The total number of LLM requests by provider and status",
	}, []string{"provider", "status"})

	EvidenceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimbench_evidence_requests_total",
		Help: "The total number of evidence provider searches by provider and status",
	}, []string{"provider", "status"})

	EvidenceResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "claimbench_evidence_results",
		Help:    "Number of evidence results returned per search",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	}, []string{"provider"})
)

// Status label values shared by the counters above.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusDropped = "dropped"
	StatusEmpty   = "empty"
)
