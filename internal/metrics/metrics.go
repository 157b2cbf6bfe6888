// Package metrics reports cache lookups and invalidations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives cache events labelled by table name.
type Recorder interface {
	// Hit is called when a getter returns a fresh entry.
	Hit(table string)

	// Miss is called when a getter finds no entry for the key.
	Miss(table string)

	// Expired is called when a getter finds an entry older than the TTL.
	Expired(table string)

	// Invalidate is called when entries are explicitly removed.
	Invalidate(table string, removed int)
}

// Noop discards every event.
type Noop struct{}

// Hit implements Recorder.
func (Noop) Hit(string) {}

// Miss implements Recorder.
func (Noop) Miss(string) {}

// Expired implements Recorder.
func (Noop) Expired(string) {}

// Invalidate implements Recorder.
func (Noop) Invalidate(string, int) {}

// Prometheus exports cache events as counters.
type Prometheus struct {
	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	expired       *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// NewPrometheus creates the cache counters and registers them with reg.
// A nil reg leaves the counters unregistered.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogcache_cache_hits_total",
			Help: "Total number of lookups that returned a fresh entry",
		}, []string{"table"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogcache_cache_misses_total",
			Help: "Total number of lookups that found no entry",
		}, []string{"table"}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogcache_cache_expired_total",
			Help: "Total number of lookups that found a stale entry",
		}, []string{"table"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogcache_cache_invalidations_total",
			Help: "Total number of entries removed by invalidation",
		}, []string{"table"}),
	}

	if reg != nil {
		reg.MustRegister(p.hits, p.misses, p.expired, p.invalidations)
	}

	return p
}

// Hit implements Recorder.
func (p *Prometheus) Hit(table string) {
	p.hits.WithLabelValues(table).Inc()
}

// Miss implements Recorder.
func (p *Prometheus) Miss(table string) {
	p.misses.WithLabelValues(table).Inc()
}

// Expired implements Recorder.
func (p *Prometheus) Expired(table string) {
	p.expired.WithLabelValues(table).Inc()
}

// Invalidate implements Recorder.
func (p *Prometheus) Invalidate(table string, removed int) {
	if removed <= 0 {
		return
	}
	p.invalidations.WithLabelValues(table).Add(float64(removed))
}
