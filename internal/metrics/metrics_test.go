package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry_Independent(t *testing.T) {
	a := NewMetricsRegistry()
	b := NewMetricsRegistry()

	a.ObserveIngest("inserted")
	a.ObserveIngest("inserted")
	b.ObserveIngest("skipped_duplicate")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.IngestOutcomesTotal.WithLabelValues("inserted")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.IngestOutcomesTotal.WithLabelValues("inserted")))
}

func TestMetricsRegistry_NilIsNoop(t *testing.T) {
	var m *MetricsRegistry
	assert.NotPanics(t, func() {
		m.ObserveIngest("inserted")
		m.ObserveCache("airport", true)
		m.ObserveProviderRequest("FlightAware", "200")
		m.ObserveRouteRebuild(time.Now(), 3)
	})
}

func TestMetricsRegistry_RouteGauge(t *testing.T) {
	m := NewMetricsRegistry()
	m.ObserveRouteRebuild(time.Now(), 7)
	m.ObserveCache("airline", false)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.RoutesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("airline")))
}
