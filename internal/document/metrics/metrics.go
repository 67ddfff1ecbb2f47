package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the document lifecycle.
type Metrics struct {
	DocumentsCreated  *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	RejectedUploads   prometheus.Counter
	Forbidden         *prometheus.CounterVec
}

// New registers document metrics with reg (nil means the default registerer).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		DocumentsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docregistry_documents_created_total",
			Help: "Documents created, by origin (requested or issued)",
		}, []string{"origin"}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docregistry_document_status_transitions_total",
			Help: "Applied document status transitions",
		}, []string{"from", "to"}),
		RejectedUploads: f.NewCounter(prometheus.CounterOpts{
			Name: "docregistry_document_upload_failures_total",
			Help: "Citizen submissions abandoned because the pinning upload failed",
		}),
		Forbidden: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docregistry_document_forbidden_total",
			Help: "Document operations refused because of the caller's role",
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncCreated(origin string) {
	if m == nil {
		return
	}
	m.DocumentsCreated.WithLabelValues(origin).Inc()
}

func (m *Metrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncUploadFailure() {
	if m == nil {
		return
	}
	m.RejectedUploads.Inc()
}

func (m *Metrics) IncForbidden(operation string) {
	if m == nil {
		return
	}
	m.Forbidden.WithLabelValues(operation).Inc()
}
