package types

import "context"

// Message is one point-to-point transfer between workers.
//
// Data is owned by the receiver once delivered. Transports copy or encode the
// payload during Send, so a sender may reuse its buffer once Send returns.
type Message struct {
	// Source is the sending rank (filled in by the transport).
	Source int

	// Tag identifies the purpose of the message (filled in by the transport).
	Tag Tag

	// Iteration is the iteration the payload belongs to.
	// Display messages use the row index within the sending block.
	Iteration int

	// Data is the payload: one row or column segment of ℓ values.
	Data []float32
}

// Comm is a worker's view of the process group.
//
// It provides the primitives the solver needs from its environment:
// blocking point-to-point send and receive, a global barrier, and Close
// for teardown. Non-blocking transfers are built by callers on top of
// Send/Recv with goroutines and an explicit join.
//
// Matching: Recv(src, tag) returns messages sent by src with the same tag
// in the order they were sent. Send may return before the message is
// received (buffered) but blocks when the link's buffer is full.
//
// Implementations must be safe for concurrent use by the goroutines of a
// single worker.
type Comm interface {
	// Rank returns this worker's rank in [0, Size()).
	Rank() int

	// Size returns the number of workers in the group.
	Size() int

	// Send delivers msg to rank dst under tag.
	//
	// Returns ErrUnknownRank for an invalid destination, ErrTransportClosed after
	// Close, or the context error when ctx ends while the link is full.
	Send(ctx context.Context, dst int, tag Tag, msg Message) error

	// Recv blocks until a message from src with tag arrives.
	Recv(ctx context.Context, src int, tag Tag) (Message, error)

	// Barrier blocks until every worker of the group has entered the same barrier.
	Barrier(ctx context.Context) error

	// Close releases transport resources. Further calls fail with ErrTransportClosed.
	Close() error
}
