package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of optimization handlers, by endpoint
	OptimizeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimizer_request_latency_seconds",
		Help:    "Latency of optimizer handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// Requests served, by endpoint and outcome (ok, invalid, insufficient, error)
	OptimizeRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_requests_total",
		Help: "Total number of optimizer requests",
	}, []string{"endpoint", "outcome"})

	OptionsPerRequest = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_options_per_request",
		Help:    "Number of options allocated per optimization",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	RejectedRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_rejected_records_total",
		Help: "Raw records rejected during preprocessing",
	})

	// Ad statuses changed on the platform, by new status
	StatusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adplatform_status_changes_total",
		Help: "Ad statuses changed on the ad platform",
	}, []string{"status"})
)

func Init() {
	prometheus.MustRegister(
		OptimizeLatency,
		OptimizeRequests,
		OptionsPerRequest,
		RejectedRecords,
		StatusChanges,
	)
}
