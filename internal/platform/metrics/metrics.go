package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the account metrics.
type Metrics struct {
	UsersRegistered prometheus.Counter
	UsersDeleted    prometheus.Counter
	Logins          *prometheus.CounterVec
}

// New creates and registers the account metrics.
func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mugs_users_registered_total",
			Help: "Total number of users registered or restored",
		}),
		UsersDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mugs_users_deleted_total",
			Help: "Total number of users soft-deleted",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mugs_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementUsersRegistered() {
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncrementUsersDeleted() {
	m.UsersDeleted.Inc()
}

// IncrementLogins counts a login attempt; result is "success" or "failure".
func (m *Metrics) IncrementLogins(result string) {
	m.Logins.WithLabelValues(result).Inc()
}
