package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for invitation composition.
type Metrics struct {
	Compositions      *prometheus.CounterVec
	PlaceholderRepair *prometheus.CounterVec
}

// New creates and registers composition metrics.
func New() *Metrics {
	return &Metrics{
		Compositions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "irgate_invitation_compositions_total",
			Help: "Invitation compositions by style and rate-limit state",
		}, []string{"style", "rate_limit_state"}),
		PlaceholderRepair: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "irgate_invitation_placeholder_repairs_total",
			Help: "Placeholder guardrail outcomes for generated bodies",
		}, []string{"outcome"}),
	}
}

// RecordComposition counts one composition outcome.
func (m *Metrics) RecordComposition(style, state string) {
	if m == nil {
		return
	}
	m.Compositions.WithLabelValues(style, state).Inc()
}

// RecordRepair counts one guardrail outcome: intact, recovered, or discarded.
func (m *Metrics) RecordRepair(outcome string) {
	if m == nil {
		return
	}
	m.PlaceholderRepair.WithLabelValues(outcome).Inc()
}
