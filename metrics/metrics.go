package metrics

import (
	"github.com/clearsight-video/inspect-api/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// InspectAPIMetrics is the full set of Prometheus series this service
// publishes on /metrics.
type InspectAPIMetrics struct {
	Version *prometheus.CounterVec

	JobsInFlight         prometheus.Gauge
	AdmissionQueueDepth  prometheus.Gauge
	HTTPRequestsInFlight prometheus.Gauge

	SubmissionCount    *prometheus.CounterVec
	SubmissionRejected *prometheus.CounterVec

	JobOutcomeCount *prometheus.CounterVec

	SamplingDurationSec prometheus.Histogram
	InspectorDurationSec *prometheus.HistogramVec
	FusionDurationSec   prometheus.Histogram

	FusionConfidence prometheus.Histogram

	InspectorFailureCount *prometheus.CounterVec
	EventsEmittedCount    *prometheus.CounterVec
}

var durationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300}

func NewMetrics() *InspectAPIMetrics {
	m := &InspectAPIMetrics{
		Version: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "version",
			Help: "Current Git SHA / Tag that's running. Incremented once on app startup.",
		}, []string{"app", "version"}),

		JobsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "jobs_in_flight",
			Help: "Number of jobs currently in SAMPLING, INSPECTING or FUSING",
		}),
		AdmissionQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "admission_queue_depth",
			Help: "Number of submissions waiting for a free orchestrator slot",
		}),
		HTTPRequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "A count of the http requests in flight",
		}),

		SubmissionCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_count",
			Help: "Total submissions accepted, labeled by outcome",
		}, []string{"accepted"}),
		SubmissionRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_rejected_count",
			Help: "Total submissions rejected before a JobRecord was created, by reason",
		}, []string{"reason"}),

		JobOutcomeCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "job_outcome_count",
			Help: "Total jobs reaching a terminal status, labeled by status and errorKind",
		}, []string{"status", "error_kind"}),

		SamplingDurationSec: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sampling_duration_seconds",
			Help:    "Time taken to produce SampledMedia from an uploaded file",
			Buckets: durationBuckets,
		}),
		InspectorDurationSec: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inspector_duration_seconds",
			Help:    "Time taken for a single inspector invocation, labeled by inspector name and outcome",
			Buckets: durationBuckets,
		}, []string{"inspector", "outcome"}),
		FusionDurationSec: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fusion_duration_seconds",
			Help:    "Time taken by the Fusion Engine to combine per-inspector scores",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),

		FusionConfidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fusion_confidence",
			Help:    "Distribution of the confidence value produced by completed jobs",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),

		InspectorFailureCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "inspector_failure_count",
			Help: "Total non-Success inspector outcomes, labeled by inspector name and kind (timeout/error)",
		}, []string{"inspector", "kind"}),
		EventsEmittedCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "events_emitted_count",
			Help: "Total AnomalyEvents emitted, labeled by inspector and event tag",
		}, []string{"inspector", "event_tag"}),
	}

	// Fire a metric a single time to let us track the version of the app we're using
	m.Version.WithLabelValues("inspect-api", config.Version).Inc()

	return m
}

var Metrics = NewMetrics()
