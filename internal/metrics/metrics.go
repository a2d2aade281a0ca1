// Package metrics exposes Prometheus instrumentation for the schema engine.
// A nil *Collector is valid and records nothing, so instrumentation stays
// optional for embedders.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the engine's metric families.
type Collector struct {
	transactions *prometheus.CounterVec
	lookups      *prometheus.CounterVec
	objects      *prometheus.GaugeVec
	schemas      *prometheus.GaugeVec
}

// New registers the schemacore metric families with the given registerer.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		transactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "schemacore_transactions_total",
			Help: "Schema transactions by operation and outcome.",
		}, []string{"operation", "outcome"}),
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "schemacore_lookups_total",
			Help: "Catalog lookups by kind and outcome.",
		}, []string{"kind", "outcome"}),
		objects: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "schemacore_objects",
			Help: "Visible schema objects by kind.",
		}, []string{"kind"}),
		schemas: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "schemacore_schemas",
			Help: "Loaded schemas by state.",
		}, []string{"state"}),
	}
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// Transaction records one transaction attempt.
func (c *Collector) Transaction(operation string, ok bool) {
	if c == nil {
		return
	}
	c.transactions.WithLabelValues(operation, outcome(ok)).Inc()
}

// Lookup records one catalog lookup.
func (c *Collector) Lookup(kind string, found bool) {
	if c == nil {
		return
	}
	if found {
		c.lookups.WithLabelValues(kind, "hit").Inc()
	} else {
		c.lookups.WithLabelValues(kind, "miss").Inc()
	}
}

// SetObjects publishes the per-kind object counts of the live catalog.
func (c *Collector) SetObjects(counts map[string]int) {
	if c == nil {
		return
	}
	for kind, n := range counts {
		c.objects.WithLabelValues(kind).Set(float64(n))
	}
}

// SetSchemas publishes the number of enabled and disabled loaded schemas.
func (c *Collector) SetSchemas(enabled, disabled int) {
	if c == nil {
		return
	}
	c.schemas.WithLabelValues("enabled").Set(float64(enabled))
	c.schemas.WithLabelValues("disabled").Set(float64(disabled))
}
