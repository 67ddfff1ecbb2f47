package pinning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Uploads        *prometheus.CounterVec
	UploadDuration prometheus.Histogram
	CircuitOpen    prometheus.Gauge
}

// NewMetrics registers pinning metrics with reg (nil means the default registerer).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docregistry_pinning_uploads_total",
			Help: "Uploads to the pinning service, by outcome",
		}, []string{"outcome"}),
		UploadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docregistry_pinning_upload_duration_seconds",
			Help:    "Round trip time of pinning uploads",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "docregistry_pinning_circuit_open",
			Help: "1 while pinning uploads are failing consecutively",
		}),
	}
}

func (m *Metrics) observe(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.Uploads.WithLabelValues(outcome).Inc()
	m.UploadDuration.Observe(d.Seconds())
}

func (m *Metrics) setCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
