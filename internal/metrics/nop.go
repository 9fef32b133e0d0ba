package metrics

import "github.com/arloliu/halo/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	report, err := halo.Launch(ctx, &cfg, halo.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// SolverMetrics implementation

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.State) {}

// RecordIteration discards the iteration duration metric.
func (n *NopMetrics) RecordIteration(_ /* rank */ int, _ /* seconds */ float64) {}

// RecordPhaseDuration discards the phase duration metric.
func (n *NopMetrics) RecordPhaseDuration(_ /* phase */ string, _ /* seconds */ float64) {}

// ExchangeMetrics implementation

// RecordHaloWait discards the halo wait metric.
func (n *NopMetrics) RecordHaloWait(_ /* seconds */ float64) {}

// RecordMessage discards the message metric.
func (n *NopMetrics) RecordMessage(_ /* tag */ types.Tag, _ /* values */ int) {}

// RecordCommError discards the communication error metric.
func (n *NopMetrics) RecordCommError(_ /* op */ string) {}
