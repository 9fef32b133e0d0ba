// Package display gathers the distributed grid on rank 0 and prints it.
package display

import (
	"context"
	"fmt"

	"github.com/arloliu/halo/internal/grid"
	"github.com/arloliu/halo/internal/partition"
	"github.com/arloliu/halo/types"
)

// Gather collects every worker's owned block on rank 0 in global row-major
// order and, on rank 0, prints it with printer when printer is non-nil.
//
// All ranks of the group must call Gather. Every rank walks the global rows
// block by block; the owner of each row segment sends it to rank 0 with
// types.TagDisplay and rank 0 receives segments strictly in order. Display
// messages carry the 1-based row index within the block as their iteration.
//
// Returns:
//   - *Snapshot: The global grid on rank 0, nil on other ranks
//   - error: Communication or print failure
func Gather(ctx context.Context, comm types.Comm, layout partition.Layout, g *grid.Grid, printer *Printer) (*Snapshot, error) {
	rank := comm.Rank()
	side, local := layout.Side, layout.Local

	var snap *Snapshot
	if rank == 0 {
		snap = NewSnapshot(layout.GridSize)
	}

	for rowBlock := range side {
		for row := 1; row <= local; row++ {
			for colBlock := range side {
				source := side*rowBlock + colBlock

				switch {
				case rank != 0 && source == rank:
					msg := types.Message{Iteration: row, Data: g.Owned(row)}
					if err := comm.Send(ctx, 0, types.TagDisplay, msg); err != nil {
						return nil, fmt.Errorf("display row %d of rank %d: %w", row, rank, err)
					}
				case rank == 0:
					dst := snap.Row(rowBlock*local + row - 1)[colBlock*local : (colBlock+1)*local]
					if source == 0 {
						copy(dst, g.Owned(row))
						continue
					}
					if err := receiveSegment(ctx, comm, source, row, dst); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if rank == 0 && printer != nil {
		if err := printer.Print(snap); err != nil {
			return nil, fmt.Errorf("print grid: %w", err)
		}
	}

	return snap, nil
}

func receiveSegment(ctx context.Context, comm types.Comm, source, row int, dst []float32) error {
	msg, err := comm.Recv(ctx, source, types.TagDisplay)
	if err != nil {
		return fmt.Errorf("display row %d from rank %d: %w", row, source, err)
	}
	if len(msg.Data) != len(dst) {
		return fmt.Errorf("display row %d from rank %d: %w: got %d values, want %d",
			row, source, types.ErrSizeMismatch, len(msg.Data), len(dst))
	}
	if msg.Iteration != row {
		return fmt.Errorf("display from rank %d: %w: got row %d, want %d",
			source, types.ErrIterationMismatch, msg.Iteration, row)
	}
	copy(dst, msg.Data)

	return nil
}
