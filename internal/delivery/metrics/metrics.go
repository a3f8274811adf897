package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the delivery pipeline.
type Metrics struct {
	Sends               *prometheus.CounterVec
	PersistenceWarnings prometheus.Counter
	TrackingEvents      *prometheus.CounterVec
}

// New creates and registers delivery metrics.
func New() *Metrics {
	return &Metrics{
		Sends: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "irgate_delivery_sends_total",
			Help: "Invitation sends by outcome (previewed, sent, failed)",
		}, []string{"outcome"}),
		PersistenceWarnings: promauto.NewCounter(prometheus.CounterOpts{
			Name: "irgate_delivery_persistence_warnings_total",
			Help: "Store updates that failed after a successful provider send",
		}),
		TrackingEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "irgate_delivery_tracking_events_total",
			Help: "Tracking callbacks by kind and result",
		}, []string{"kind", "result"}),
	}
}

// RecordSend counts one send outcome.
func (m *Metrics) RecordSend(outcome string) {
	if m == nil {
		return
	}
	m.Sends.WithLabelValues(outcome).Inc()
}

// RecordPersistenceWarning counts a post-send store failure.
func (m *Metrics) RecordPersistenceWarning() {
	if m == nil {
		return
	}
	m.PersistenceWarnings.Inc()
}

// RecordTracking counts one tracking callback.
func (m *Metrics) RecordTracking(kind, result string) {
	if m == nil {
		return
	}
	m.TrackingEvents.WithLabelValues(kind, result).Inc()
}
