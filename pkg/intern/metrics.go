package intern

// metrics.go is a thin abstraction over Prometheus so interncore can be
// used with or without metrics: a metricsSink interface with a noop and a
// Prometheus implementation, selected once at construction by whether
// WithMetrics was given a non-nil registry.
//
// ┌──────────────────────────┬──────┐
// │ Metric                   │ Type │
// ├───────────────────────────┼──────┤
// │ intern_hits_total         │ Ctr  │
// │ intern_misses_total       │ Ctr  │
// │ intern_inserts_total      │ Ctr  │
// │ intern_key_space_exhausted_total │ Ctr │
// │ intern_arena_bytes        │ Gge  │
// └──────────────────────────┴──────┘
//
// © 2025 interncore authors. MIT License.

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsSink is the internal interface abstracting the concrete backend
// (Prometheus vs. noop). Not exposed outside the package.
type metricsSink interface {
	incHit()
	incMiss()
	incInsert()
	incKeySpaceExhausted()
	setArenaBytes(value int64)
}

type noopMetrics struct{}

func (noopMetrics) incHit()               {}
func (noopMetrics) incMiss()              {}
func (noopMetrics) incInsert()            {}
func (noopMetrics) incKeySpaceExhausted() {}
func (noopMetrics) setArenaBytes(int64)   {}

type promMetrics struct {
	hits         prometheus.Counter
	misses       prometheus.Counter
	inserts      prometheus.Counter
	keyExhausted prometheus.Counter
	arenaBytes   prometheus.Gauge
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	pm := &promMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intern", Name: "hits_total",
			Help: "Number of get_or_intern calls that found an existing key.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intern", Name: "misses_total",
			Help: "Number of get_or_intern calls that found no existing key.",
		}),
		inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intern", Name: "inserts_total",
			Help: "Number of distinct strings newly interned.",
		}),
		keyExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intern", Name: "key_space_exhausted_total",
			Help: "Number of get_or_intern calls refused because the key flavor's space is exhausted.",
		}),
		arenaBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "intern", Name: "arena_bytes",
			Help: "Live bytes allocated across the arena's slabs.",
		}),
	}
	reg.MustRegister(pm.hits, pm.misses, pm.inserts, pm.keyExhausted, pm.arenaBytes)
	return pm
}

func (m *promMetrics) incHit()               { m.hits.Inc() }
func (m *promMetrics) incMiss()              { m.misses.Inc() }
func (m *promMetrics) incInsert()            { m.inserts.Inc() }
func (m *promMetrics) incKeySpaceExhausted() { m.keyExhausted.Inc() }
func (m *promMetrics) setArenaBytes(value int64) {
	m.arenaBytes.Set(float64(value))
}

// newMetricsSink picks the implementation. reg == nil disables metrics.
func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
