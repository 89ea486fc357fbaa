package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for authorization decisions.
type Metrics struct {
	Decisions *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mugs_authz_decisions_total",
			Help: "Authorization decisions, by check and outcome",
		}, []string{"check", "outcome"}),
	}
}

func (m *Metrics) IncrementAllowed(check string) {
	m.Decisions.WithLabelValues(check, "allowed").Inc()
}

func (m *Metrics) IncrementDenied(check string) {
	m.Decisions.WithLabelValues(check, "denied").Inc()
}
