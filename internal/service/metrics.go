package service

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for input processing.
type Metrics struct {
	ExtractionsTotal *prometheus.CounterVec
	DeadlinesTotal   *prometheus.CounterVec
	FailuresTotal    *prometheus.CounterVec
	ProcessDuration  prometheus.Histogram
}

// NewMetrics registers the processing metrics once per process.
//
// Metrics:
//   - voicetask_extraction_total{priority,category}
//   - voicetask_extraction_deadline_total{has_deadline}
//   - voicetask_process_failures_total{reason}
//   - voicetask_process_duration_seconds
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ExtractionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "voicetask_extraction_total",
					Help: "Total analyses by resulting priority and category",
				},
				[]string{"priority", "category"},
			),
			DeadlinesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "voicetask_extraction_deadline_total",
					Help: "Total analyses by whether a deadline was found",
				},
				[]string{"has_deadline"},
			),
			FailuresTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "voicetask_process_failures_total",
					Help: "Total rejected or failed processInput calls",
				},
				[]string{"reason"}, // "validation", "throttled", "sink"
			),
			ProcessDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "voicetask_process_duration_seconds",
					Help:    "Duration of successful processInput calls",
					Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
				},
			),
		}
	})
	return globalMetrics
}
