// Package exchange implements the per-iteration halo exchange between a
// worker and its up to four neighbors.
//
// The vertical exchange (rows) is non-blocking: Begin issues it and returns a
// Pending the caller joins after updating interior cells. The horizontal
// exchange (columns) is blocking and staged through a reusable scratch buffer.
// Neighbors missing on the outer edge exchange nothing, so the halo keeps the
// fixed boundary value written when the grid was allocated.
package exchange

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/halo/internal/grid"
	"github.com/arloliu/halo/internal/logging"
	"github.com/arloliu/halo/internal/metrics"
	"github.com/arloliu/halo/internal/partition"
	"github.com/arloliu/halo/types"
)

// Options configures an Exchanger. Zero values select no-op implementations.
type Options struct {
	Metrics types.ExchangeMetrics
	Logger  types.Logger
}

// Exchanger performs halo exchanges for one rank.
type Exchanger struct {
	comm      types.Comm
	rank      int
	local     int
	neighbors types.Neighbors
	scratch   []float32

	metrics types.ExchangeMetrics
	logger  types.Logger
}

// New creates an Exchanger for rank under layout.
//
// Returns types.ErrCommRequired for a nil comm, types.ErrUnknownRank for a rank
// outside the layout, and types.ErrInvalidWorkerCount when the comm's group
// size disagrees with the layout.
func New(comm types.Comm, layout partition.Layout, rank int, opts Options) (*Exchanger, error) {
	if comm == nil {
		return nil, types.ErrCommRequired
	}
	if err := layout.Validate(rank); err != nil {
		return nil, err
	}
	if comm.Size() != layout.Workers {
		return nil, fmt.Errorf("%w: group has %d ranks, layout expects %d",
			types.ErrInvalidWorkerCount, comm.Size(), layout.Workers)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	return &Exchanger{
		comm:      comm,
		rank:      rank,
		local:     layout.Local,
		neighbors: layout.Neighbors(rank),
		scratch:   make([]float32, layout.Local),
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}, nil
}

// Neighbors returns the ranks this exchanger talks to.
func (e *Exchanger) Neighbors() types.Neighbors { return e.neighbors }

// Pending is an in-flight vertical exchange.
type Pending struct {
	group   *errgroup.Group
	metrics types.ExchangeMetrics
	done    bool
	err     error
}

// Wait blocks until every vertical transfer has completed and returns the
// first failure. Calling Wait again returns the same result.
func (p *Pending) Wait() error {
	if p.done {
		return p.err
	}
	start := time.Now()
	p.err = p.group.Wait()
	p.done = true
	p.metrics.RecordHaloWait(time.Since(start).Seconds())

	return p.err
}

// Begin issues the vertical exchange of iteration iter for g.
//
// Row 1 is sent up and row ℓ is sent down; both are copied before Begin
// returns, so the caller may keep reading g. Received rows land in halo rows
// 0 and ℓ+1, columns 1..ℓ only. Until Wait returns, the caller must not touch
// those halo rows.
func (e *Exchanger) Begin(ctx context.Context, iter int, g *grid.Grid) *Pending {
	group, gctx := errgroup.WithContext(ctx)
	p := &Pending{group: group, metrics: e.metrics}

	if up := e.neighbors.Up; up != types.NoRank {
		top := append([]float32(nil), g.Owned(1)...)
		group.Go(func() error { return e.send(gctx, up, types.TagUp, iter, top) })
		group.Go(func() error { return e.recvInto(gctx, up, types.TagDown, iter, g.Owned(0)) })
	}
	if down := e.neighbors.Down; down != types.NoRank {
		bottom := append([]float32(nil), g.Owned(e.local)...)
		group.Go(func() error { return e.send(gctx, down, types.TagDown, iter, bottom) })
		group.Go(func() error { return e.recvInto(gctx, down, types.TagUp, iter, g.Owned(e.local+1)) })
	}

	return p
}

// Columns performs the blocking horizontal exchange of iteration iter.
//
// Column 1 goes left and column ℓ goes right; the neighbors' columns land in
// halo columns 0 and ℓ+1, rows 1..ℓ.
func (e *Exchanger) Columns(ctx context.Context, iter int, g *grid.Grid) error {
	left, right := e.neighbors.Left, e.neighbors.Right

	if left != types.NoRank {
		g.PackColumn(1, e.scratch)
		if err := e.send(ctx, left, types.TagLeft, iter, e.scratch); err != nil {
			return err
		}
	}
	if right != types.NoRank {
		g.PackColumn(e.local, e.scratch)
		if err := e.send(ctx, right, types.TagRight, iter, e.scratch); err != nil {
			return err
		}
	}
	if right != types.NoRank {
		if err := e.recvInto(ctx, right, types.TagLeft, iter, e.scratch); err != nil {
			return err
		}
		g.UnpackColumn(e.local+1, e.scratch)
	}
	if left != types.NoRank {
		if err := e.recvInto(ctx, left, types.TagRight, iter, e.scratch); err != nil {
			return err
		}
		g.UnpackColumn(0, e.scratch)
	}

	return nil
}

func (e *Exchanger) send(ctx context.Context, dst int, tag types.Tag, iter int, data []float32) error {
	err := e.comm.Send(ctx, dst, tag, types.Message{Iteration: iter, Data: data})
	if err != nil {
		e.metrics.RecordCommError("send")
		e.logger.Error("halo send failed", "rank", e.rank, "peer", dst, "tag", tag, "iteration", iter, "error", err)

		return fmt.Errorf("rank %d: %s to %d at iteration %d: %w", e.rank, tag, dst, iter, err)
	}
	e.metrics.RecordMessage(tag, len(data))

	return nil
}

// recvInto receives one message and copies its payload into dst after
// checking its size and iteration.
func (e *Exchanger) recvInto(ctx context.Context, src int, tag types.Tag, iter int, dst []float32) error {
	msg, err := e.comm.Recv(ctx, src, tag)
	if err != nil {
		e.metrics.RecordCommError("recv")
		e.logger.Error("halo receive failed", "rank", e.rank, "peer", src, "tag", tag, "iteration", iter, "error", err)

		return fmt.Errorf("rank %d: %s from %d at iteration %d: %w", e.rank, tag, src, iter, err)
	}
	if len(msg.Data) != e.local {
		return fmt.Errorf("rank %d: %s from %d: %w: got %d values, want %d",
			e.rank, tag, src, types.ErrSizeMismatch, len(msg.Data), e.local)
	}
	if msg.Iteration != iter {
		return fmt.Errorf("rank %d: %s from %d: %w: got %d, want %d",
			e.rank, tag, src, types.ErrIterationMismatch, msg.Iteration, iter)
	}
	copy(dst, msg.Data)

	return nil
}
