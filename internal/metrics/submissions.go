package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SubmissionMetrics records flow event submissions per widget.
type SubmissionMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewSubmissionMetrics registers the submission metrics on the provided registerer.
// A nil registerer yields a no-op value.
func NewSubmissionMetrics(reg prometheus.Registerer) *SubmissionMetrics {
	if reg == nil {
		return &SubmissionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flowforms_submit_duration_seconds",
		Help:    "Duration of flow event submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"widget"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flowforms_submit_success_total",
		Help: "Flow events accepted by the engine.",
	}, []string{"widget"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flowforms_submit_failure_total",
		Help: "Flow events rejected or not delivered.",
	}, []string{"widget"})
	reg.MustRegister(duration, success, failure)
	return &SubmissionMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// Observe records one submission outcome.
func (m *SubmissionMetrics) Observe(widget string, took time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	label := normalizeLabel(widget)
	m.duration.WithLabelValues(label).Observe(took.Seconds())
	if err != nil {
		m.failure.WithLabelValues(label).Inc()
		return
	}
	m.success.WithLabelValues(label).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
