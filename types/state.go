package types

// State represents the solver lifecycle state of one worker.
//
// States follow a defined progression during normal operation:
//
//	StateInit → StatePartitioning → StateReady → StateRunning → StateGathering → StateDone
//
// Any state may move to StateFailed. StateDone and StateFailed are terminal.
type State int

const (
	// StateInit is the initial state before any operations.
	StateInit State = iota

	// StatePartitioning indicates the worker is computing its layout and allocating grids.
	StatePartitioning

	// StateReady indicates grids are allocated and filled; the worker waits at the startup barrier.
	StateReady

	// StateRunning indicates iterations are in progress.
	StateRunning

	// StateGathering indicates the worker takes part in a display gather.
	StateGathering

	// StateDone indicates all iterations and the final gather completed.
	StateDone

	// StateFailed indicates the worker stopped on an error.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StatePartitioning:
		return "Partitioning"
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateGathering:
		return "Gathering"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// Phase represents the position of a worker inside one iteration.
//
// Each iteration walks the phases in order:
//
//	PhaseIdle → PhaseExchangeIssued → PhaseInteriorComputed → PhaseExchangeCompleted → PhaseEdgeComputed
//
// Interior cells may be computed while the vertical exchange is in flight;
// edge cells are only computed once the exchange has completed.
type Phase int

const (
	// PhaseIdle indicates no iteration is in progress.
	PhaseIdle Phase = iota

	// PhaseExchangeIssued indicates halo transfers for the iteration were issued.
	PhaseExchangeIssued

	// PhaseInteriorComputed indicates interior cells of the iteration were updated.
	PhaseInteriorComputed

	// PhaseExchangeCompleted indicates all halo transfers for the iteration finished.
	PhaseExchangeCompleted

	// PhaseEdgeComputed indicates edge cells were updated and the iteration is complete.
	PhaseEdgeComputed
)

// String returns the string representation of the phase.
//
// Returns:
//   - string: Human-readable phase name
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseExchangeIssued:
		return "ExchangeIssued"
	case PhaseInteriorComputed:
		return "InteriorComputed"
	case PhaseExchangeCompleted:
		return "ExchangeCompleted"
	case PhaseEdgeComputed:
		return "EdgeComputed"
	default:
		return "Unknown"
	}
}

// Next returns the phase that follows p within an iteration.
//
// PhaseEdgeComputed wraps to PhaseExchangeIssued (start of the next iteration).
func (p Phase) Next() Phase {
	switch p {
	case PhaseIdle, PhaseEdgeComputed:
		return PhaseExchangeIssued
	case PhaseExchangeIssued:
		return PhaseInteriorComputed
	case PhaseInteriorComputed:
		return PhaseExchangeCompleted
	case PhaseExchangeCompleted:
		return PhaseEdgeComputed
	default:
		return PhaseIdle
	}
}
