package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the halo solver.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// Components wrap them with context using fmt.Errorf("%w: ...", err).
//
// Error classes:
//   - Configuration: invalid config or worker topology, detected before any communication
//   - Resource: grid or buffer allocation failures
//   - Communication: transport failures and protocol mismatches
//
// No class is retried; every error leads to a coordinated shutdown of the group.

// Solver errors - public API errors returned by the solver and launcher.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCommRequired is returned when a solver is created without a transport.
	ErrCommRequired = errors.New("communication transport is required")

	// ErrNATSConnectionRequired is returned when the NATS transport is selected without a connection.
	ErrNATSConnectionRequired = errors.New("NATS connection is required")

	// ErrAlreadyStarted is returned when Run is called on a solver that already ran.
	ErrAlreadyStarted = errors.New("solver already started")
)

// Topology errors - configuration errors detected by every worker independently.
var (
	// ErrTopology is the parent of every worker-topology precondition violation.
	ErrTopology = errors.New("invalid worker topology")

	// ErrNotPerfectSquare is returned when the worker count is not p*p.
	ErrNotPerfectSquare = fmt.Errorf("%w: worker count must be a perfect square", ErrTopology)

	// ErrGridNotDivisible is returned when the grid size is not a multiple of p.
	ErrGridNotDivisible = fmt.Errorf("%w: grid dimension must be divisible by processes-per-side", ErrTopology)

	// ErrInvalidGridSize is returned when the grid size is not positive.
	ErrInvalidGridSize = fmt.Errorf("%w: grid dimension must be positive", ErrTopology)

	// ErrInvalidWorkerCount is returned when the worker count is not positive.
	ErrInvalidWorkerCount = fmt.Errorf("%w: worker count must be positive", ErrTopology)

	// ErrUnknownRank is returned for a rank outside [0, size).
	ErrUnknownRank = errors.New("unknown rank")
)

// Resource errors.
var (
	// ErrGridAllocation is returned when a local grid or scratch buffer cannot be allocated.
	ErrGridAllocation = errors.New("grid allocation failed")
)

// Communication errors - transport failures and protocol violations.
var (
	// ErrCommunication is the parent of every communication failure.
	ErrCommunication = errors.New("communication failure")

	// ErrSizeMismatch is returned when a received payload has an unexpected length.
	ErrSizeMismatch = fmt.Errorf("%w: payload size mismatch", ErrCommunication)

	// ErrIterationMismatch is returned when a received message belongs to another iteration.
	ErrIterationMismatch = fmt.Errorf("%w: iteration mismatch", ErrCommunication)

	// ErrTransportClosed is returned by transport calls made after Close.
	ErrTransportClosed = fmt.Errorf("%w: transport closed", ErrCommunication)

	// ErrMalformedMessage is returned when a wire payload cannot be decoded.
	ErrMalformedMessage = fmt.Errorf("%w: malformed message", ErrCommunication)

	// ErrNoAvailableRank is returned when every rank of the pool is already claimed.
	ErrNoAvailableRank = errors.New("no available rank in pool")
)

// IsTopologyError reports whether err is a worker-topology precondition violation.
func IsTopologyError(err error) bool {
	return errors.Is(err, ErrTopology)
}

// IsCommunicationError reports whether err is a transport or protocol failure.
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if err wraps ErrCommunication
func IsCommunicationError(err error) bool {
	return errors.Is(err, ErrCommunication)
}
