package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for registration and login.
type Metrics struct {
	AccountsRegistered *prometheus.CounterVec
	LoginAttempts      *prometheus.CounterVec
	DuplicateEmails    prometheus.Counter
	LoginDuration      prometheus.Histogram
}

// New registers account metrics with reg (nil means the default registerer).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		AccountsRegistered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docregistry_accounts_registered_total",
			Help: "Total number of accounts registered, by role",
		}, []string{"role"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docregistry_login_attempts_total",
			Help: "Total number of login attempts, by outcome",
		}, []string{"outcome"}),
		DuplicateEmails: f.NewCounter(prometheus.CounterOpts{
			Name: "docregistry_duplicate_email_rejections_total",
			Help: "Registrations rejected because the email already exists",
		}),
		LoginDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docregistry_login_duration_seconds",
			Help:    "Duration of login requests including password verification",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),
	}
}

func (m *Metrics) IncRegistered(role string) {
	if m == nil {
		return
	}
	m.AccountsRegistered.WithLabelValues(role).Inc()
}

func (m *Metrics) IncDuplicateEmail() {
	if m == nil {
		return
	}
	m.DuplicateEmails.Inc()
}

func (m *Metrics) ObserveLogin(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
	m.LoginDuration.Observe(seconds)
}
