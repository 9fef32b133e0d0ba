package types

import "context"

// Hooks defines callbacks for solver lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines
// so they never delay the iteration loop. Hook errors are logged and do not
// fail the run.
//
// Example:
//
//	hooks := &halo.Hooks{
//	    OnIteration: func(ctx context.Context, rank, iteration int) error {
//	        progress.Store(int64(iteration))
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnStateChanged is called when the worker's lifecycle state changes.
	OnStateChanged func(ctx context.Context, rank int, from, to State) error

	// OnIteration is called after a worker completes an iteration (0-based).
	OnIteration func(ctx context.Context, rank, iteration int) error

	// OnError is called when a worker stops on an error.
	OnError func(ctx context.Context, rank int, err error) error
}
