// Package observability exposes prometheus metrics for the detection and
// notification pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the registered collectors for the alert pipeline.
type Metrics struct {
	registry *prometheus.Registry

	DetectionsTotal    *prometheus.CounterVec
	DetectionErrors    prometheus.Counter
	AlertsSentTotal    prometheus.Counter
	AlertsFailedTotal  prometheus.Counter
	DispatchDuration   prometheus.Histogram
	RecipientsPerCycle prometheus.Histogram
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DetectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildwatch_detections_total",
			Help: "Detection cycles by outcome (found, empty).",
		}, []string{"outcome"}),
		DetectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wildwatch_detection_errors_total",
			Help: "Detection capability invocations that failed.",
		}),
		AlertsSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wildwatch_alerts_sent_total",
			Help: "Alert emails delivered successfully.",
		}),
		AlertsFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wildwatch_alerts_failed_total",
			Help: "Alert emails that failed to deliver.",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wildwatch_dispatch_duration_seconds",
			Help:    "Duration of one notification fan-out.",
			Buckets: prometheus.DefBuckets,
		}),
		RecipientsPerCycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wildwatch_recipients_per_cycle",
			Help:    "Recipients targeted per dispatch cycle.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
	}

	collectors := []prometheus.Collector{
		m.DetectionsTotal,
		m.DetectionErrors,
		m.AlertsSentTotal,
		m.AlertsFailedTotal,
		m.DispatchDuration,
		m.RecipientsPerCycle,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Registry returns the registry backing these metrics, for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
