package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecordsSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.Transaction("load", true)
	c.Transaction("load", true)
	c.Transaction("load", false)
	c.Lookup("attributeType", true)
	c.Lookup("attributeType", false)
	c.SetObjects(map[string]int{"attributeType": 3})
	c.SetSchemas(2, 1)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"transactions ok", testutil.ToFloat64(c.transactions.WithLabelValues("load", "ok")), 2},
		{"transactions error", testutil.ToFloat64(c.transactions.WithLabelValues("load", "error")), 1},
		{"lookup hit", testutil.ToFloat64(c.lookups.WithLabelValues("attributeType", "hit")), 1},
		{"lookup miss", testutil.ToFloat64(c.lookups.WithLabelValues("attributeType", "miss")), 1},
		{"objects gauge", testutil.ToFloat64(c.objects.WithLabelValues("attributeType")), 3},
		{"schemas enabled", testutil.ToFloat64(c.schemas.WithLabelValues("enabled")), 2},
		{"schemas disabled", testutil.ToFloat64(c.schemas.WithLabelValues("disabled")), 1},
	}
	for _, tc := range checks {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Transaction("load", true)
	c.Lookup("any", false)
	c.SetObjects(map[string]int{"attributeType": 1})
	c.SetSchemas(1, 0)
}
