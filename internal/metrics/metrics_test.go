package metrics

import (
	"testing"

	"github.com/arloliu/halo/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNopMetrics(t *testing.T) {
	m := NewNop()
	require.IsType(t, &NopMetrics{}, m)

	require.NotPanics(t, func() {
		m.RecordStateTransition(types.StateInit, types.StateRunning)
		m.RecordStateTransition(types.State(999), types.State(1000))
		m.RecordIteration(0, 0.001)
		m.RecordIteration(-1, -1)
		m.RecordPhaseDuration("interior", 0.5)
		m.RecordHaloWait(0)
		m.RecordMessage(types.TagUp, 10)
		m.RecordCommError("send")
	})
}

func TestNewPrometheus_Defaults(t *testing.T) {
	p := NewPrometheus(nil, "")
	require.Equal(t, "halo", p.namespace)
	require.Equal(t, prometheus.DefaultRegisterer, p.reg)
}

func TestPrometheusCollector_LazyRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewPrometheus(reg, "test")

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Empty(t, families)
}

func TestPrometheusCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordStateTransition(types.StateReady, types.StateRunning)
	p.RecordStateTransition(types.StateReady, types.StateRunning)
	p.RecordIteration(1, 0.002)
	p.RecordIteration(1, 0.003)
	p.RecordIteration(2, 0.001)
	p.RecordPhaseDuration("edge", 0.0001)
	p.RecordHaloWait(0.00002)
	p.RecordMessage(types.TagDown, 4)
	p.RecordMessage(types.TagDown, 4)
	p.RecordMessage(types.TagDisplay, 2)
	p.RecordCommError("recv")

	require.InDelta(t, 2, testutil.ToFloat64(p.stateTransitions.WithLabelValues("Ready", "Running")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(p.iterations.WithLabelValues("1")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.iterations.WithLabelValues("2")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(p.messages.WithLabelValues("halo-down")), 0)
	require.InDelta(t, 8, testutil.ToFloat64(p.messageValues.WithLabelValues("halo-down")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(p.messageValues.WithLabelValues("display")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.commErrors.WithLabelValues("recv")), 0)

	count, err := testutil.GatherAndCount(reg, "test_exchange_halo_wait_seconds", "test_solver_phase_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
