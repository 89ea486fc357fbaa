package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks archive writes per target and model.
type Metrics struct {
	RecordsWritten *prometheus.CounterVec
	RemovalFailed  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RecordsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mugs_archive_records_total",
			Help: "Archive records written, by archive target and source model",
		}, []string{"target", "model"}),
		RemovalFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mugs_archive_live_removal_failed_total",
			Help: "Deletions archived whose live-side removal then failed",
		}),
	}
}

func (m *Metrics) IncrementRecordsWritten(target, model string) {
	m.RecordsWritten.WithLabelValues(target, model).Inc()
}

func (m *Metrics) IncrementRemovalFailed() {
	m.RemovalFailed.Inc()
}
