package halo

import "github.com/arloliu/halo/types"

// Re-export sentinel errors from the types package.
var (
	ErrInvalidConfig          = types.ErrInvalidConfig
	ErrCommRequired           = types.ErrCommRequired
	ErrNATSConnectionRequired = types.ErrNATSConnectionRequired
	ErrAlreadyStarted         = types.ErrAlreadyStarted

	ErrTopology           = types.ErrTopology
	ErrNotPerfectSquare   = types.ErrNotPerfectSquare
	ErrGridNotDivisible   = types.ErrGridNotDivisible
	ErrInvalidGridSize    = types.ErrInvalidGridSize
	ErrInvalidWorkerCount = types.ErrInvalidWorkerCount
	ErrUnknownRank        = types.ErrUnknownRank

	ErrGridAllocation = types.ErrGridAllocation

	ErrCommunication     = types.ErrCommunication
	ErrSizeMismatch      = types.ErrSizeMismatch
	ErrIterationMismatch = types.ErrIterationMismatch
	ErrTransportClosed   = types.ErrTransportClosed
	ErrMalformedMessage  = types.ErrMalformedMessage
	ErrNoAvailableRank   = types.ErrNoAvailableRank
)

// IsTopologyError reports whether err is a worker-topology precondition violation.
func IsTopologyError(err error) bool { return types.IsTopologyError(err) }

// IsCommunicationError reports whether err is a communication failure.
func IsCommunicationError(err error) bool { return types.IsCommunicationError(err) }
