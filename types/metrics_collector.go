package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Methods are called from worker goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	SolverMetrics
	ExchangeMetrics
}

// SolverMetrics defines metrics for solver lifecycle and computation.
type SolverMetrics interface {
	// RecordStateTransition records a solver state transition.
	RecordStateTransition(from, to State)

	// RecordIteration records the wall-clock duration of one full iteration.
	//
	// Parameters:
	//   - rank: Worker rank
	//   - seconds: Time taken in seconds
	RecordIteration(rank int, seconds float64)

	// RecordPhaseDuration records the compute time of a stencil phase.
	//
	// Parameters:
	//   - phase: "interior" or "edge"
	//   - seconds: Time taken in seconds
	RecordPhaseDuration(phase string, seconds float64)
}

// ExchangeMetrics defines metrics for halo exchange and gather traffic.
type ExchangeMetrics interface {
	// RecordHaloWait records how long a worker blocked waiting for vertical transfers
	// after finishing its interior update.
	RecordHaloWait(seconds float64)

	// RecordMessage records one sent message.
	//
	// Parameters:
	//   - tag: Message tag
	//   - values: Number of float32 values in the payload
	RecordMessage(tag Tag, values int)

	// RecordCommError records a failed transport operation.
	//
	// Parameters:
	//   - op: Operation ("send", "recv", "barrier")
	RecordCommError(op string)
}
