package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the people module.
type Metrics struct {
	PersonsCreated        *prometheus.CounterVec
	PersonsArchived       *prometheus.CounterVec
	SubResourcesReclaimed *prometheus.CounterVec
	OperationDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		PersonsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mugs_persons_created_total",
			Help: "Person profiles created, by kind",
		}, []string{"kind"}),
		PersonsArchived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mugs_persons_archived_total",
			Help: "Person profiles deleted into the archive, by kind",
		}, []string{"kind"}),
		SubResourcesReclaimed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mugs_subresources_reclaimed_total",
			Help: "Addresses and next of kin deleted after losing their last owner",
		}, []string{"model", "reason"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mugs_person_operation_duration_seconds",
			Help:    "Duration of person lifecycle operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementPersonsCreated(kind string) {
	m.PersonsCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementPersonsArchived(kind string) {
	m.PersonsArchived.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementReclaimed(model, reason string) {
	m.SubResourcesReclaimed.WithLabelValues(model, reason).Inc()
}

// ObserveOperation records the duration of a lifecycle operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
