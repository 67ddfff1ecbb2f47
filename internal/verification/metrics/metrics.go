package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Lookups     *prometheus.CounterVec
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheErrors prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docregistry_verify_lookups_total",
			Help: "Public verification lookups, by result",
		}, []string{"result"}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "docregistry_verify_cache_hits_total",
			Help: "Verification lookups answered from cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "docregistry_verify_cache_misses_total",
			Help: "Verification lookups that went to the document store",
		}),
		CacheErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "docregistry_verify_cache_errors_total",
			Help: "Cache reads or writes that failed",
		}),
	}
}

func (m *Metrics) IncLookup(valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.Lookups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) IncCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

func (m *Metrics) IncCacheError() {
	if m == nil {
		return
	}
	m.CacheErrors.Inc()
}
