package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pipeline outcomes for Prometheus scraping.
type Metrics struct {
	MeetingsProcessed prometheus.Counter
	MeetingsFailed    prometheus.Counter
	ActionsDetected   prometheus.Counter
	StageFailures     *prometheus.CounterVec
	ProcessingSeconds prometheus.Histogram
}

// NewMetrics creates and registers the pipeline metrics, tolerating
// re-registration.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MeetingsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "meetings_processed_total",
			Help:      "Meetings processed successfully",
		}),
		MeetingsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "meetings_failed_total",
			Help:      "Meetings that failed processing",
		}),
		ActionsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "actions_detected_total",
			Help:      "Action items detected across all meetings",
		}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Failures per pipeline stage",
		}, []string{"stage"}),
		ProcessingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "processing_seconds",
			Help:      "End-to-end meeting processing time",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	if reg != nil {
		for _, collector := range []prometheus.Collector{
			m.MeetingsProcessed, m.MeetingsFailed, m.ActionsDetected,
			m.StageFailures, m.ProcessingSeconds,
		} {
			if err := reg.Register(collector); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					// Metrics are best effort; a bad registry is a setup bug.
					panic(err)
				}
			}
		}
	}
	return m
}

// NopMetrics returns unregistered metrics for tests.
func NopMetrics() *Metrics {
	return NewMetrics("mint_test", nil)
}
