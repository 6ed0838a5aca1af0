package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetricsIsIdempotent(t *testing.T) {
	InitMetrics()
	InitMetrics()

	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, OrdersPlacedTotal)
	assert.NotNil(t, RatingsSubmittedTotal)
}

func TestCounter(t *testing.T) {
	InitMetrics()

	before := counterValue(t, StockReservationConflicts)
	IncCounter(StockReservationConflicts)
	IncCounter(StockReservationConflicts)
	AddCounter(StockReservationConflicts, 3)

	assert.Equal(t, before+5, counterValue(t, StockReservationConflicts))
}

func TestCounterVec(t *testing.T) {
	InitMetrics()

	labels := map[string]string{"reason": "insufficient_stock"}
	before := counterValue(t, OrdersFailedTotal.With(labels))

	IncCounterVec(OrdersFailedTotal, labels)
	IncCounterVec(OrdersFailedTotal, map[string]string{"reason": "validation"})
	IncCounterVec(OrdersFailedTotal, labels)

	assert.Equal(t, before+2, counterValue(t, OrdersFailedTotal.With(labels)))
}

func TestGauge(t *testing.T) {
	InitMetrics()

	IncGauge(HTTPRequestsInProgress)
	IncGauge(HTTPRequestsInProgress)
	DecGauge(HTTPRequestsInProgress)
	assert.Equal(t, float64(1), gaugeValue(t, HTTPRequestsInProgress))
	DecGauge(HTTPRequestsInProgress)

	SetGaugeVec(CircuitBreakerState, map[string]string{"name": "event-publisher"}, 1)
	assert.Equal(t, float64(1), gaugeValue(t, CircuitBreakerState.With(map[string]string{"name": "event-publisher"})))
}

func TestHistogram(t *testing.T) {
	InitMetrics()

	ObserveHistogram(OrderCreationDuration, 0.02)
	ObserveHistogram(OrderCreationDuration, 0.2)

	m := &dto.Metric{}
	require.NoError(t, OrderCreationDuration.Write(m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(2))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, g.Write(m))
	return m.GetGauge().GetValue()
}
