// Package partition maps a global square grid onto a square arrangement of
// workers.
//
// A Layout is a pure value: the same grid size and worker count always
// produce the same layout, and computing one involves no communication.
package partition

import (
	"fmt"

	"github.com/arloliu/halo/types"
)

// Layout describes how a GridSize×GridSize grid is split over Workers ranks
// arranged as a Side×Side square. Every rank owns a Local×Local block.
type Layout struct {
	GridSize int
	Workers  int
	Side     int
	Local    int
}

// New computes the layout for a grid of size gridSize split over workers ranks.
//
// Parameters:
//   - gridSize: Global grid dimension L
//   - workers: Worker count P
//
// Returns:
//   - Layout: The layout, with Local = gridSize / Side
//   - error: ErrInvalidGridSize, ErrInvalidWorkerCount, ErrNotPerfectSquare or
//     ErrGridNotDivisible; all wrap types.ErrTopology
//
// Example:
//
//	layout, err := partition.New(8, 4) // Side 2, Local 4
func New(gridSize, workers int) (Layout, error) {
	if gridSize <= 0 {
		return Layout{}, fmt.Errorf("%w: got %d", types.ErrInvalidGridSize, gridSize)
	}
	if workers <= 0 {
		return Layout{}, fmt.Errorf("%w: got %d", types.ErrInvalidWorkerCount, workers)
	}

	side := Side(workers)
	if side*side != workers {
		return Layout{}, fmt.Errorf("%w: got %d", types.ErrNotPerfectSquare, workers)
	}
	if gridSize%side != 0 {
		return Layout{}, fmt.Errorf("%w: %d %% %d = %d",
			types.ErrGridNotDivisible, gridSize, side, gridSize%side)
	}

	return Layout{
		GridSize: gridSize,
		Workers:  workers,
		Side:     side,
		Local:    gridSize / side,
	}, nil
}

// Side returns the smallest p with p*p >= workers.
func Side(workers int) int {
	p := 0
	for p*p < workers {
		p++
	}

	return p
}

// Validate returns ErrUnknownRank when rank is outside [0, Workers).
func (l Layout) Validate(rank int) error {
	if rank < 0 || rank >= l.Workers {
		return fmt.Errorf("%w: rank %d not in [0, %d)", types.ErrUnknownRank, rank, l.Workers)
	}

	return nil
}

// Position returns the block row and block column of rank.
func (l Layout) Position(rank int) (row, col int) {
	return rank / l.Side, rank % l.Side
}

// Origin returns the global coordinates of the first cell owned by rank.
func (l Layout) Origin(rank int) (globalRow, globalCol int) {
	row, col := l.Position(rank)

	return row * l.Local, col * l.Local
}

// Neighbors returns the ranks adjacent to rank. Missing neighbors on the
// outer edge of the arrangement are types.NoRank.
func (l Layout) Neighbors(rank int) types.Neighbors {
	row, col := l.Position(rank)
	n := types.Neighbors{Up: types.NoRank, Down: types.NoRank, Left: types.NoRank, Right: types.NoRank}

	if row > 0 {
		n.Up = rank - l.Side
	}
	if row < l.Side-1 {
		n.Down = rank + l.Side
	}
	if col > 0 {
		n.Left = rank - 1
	}
	if col < l.Side-1 {
		n.Right = rank + 1
	}

	return n
}

// Owner returns the rank owning global cell (globalRow, globalCol).
func (l Layout) Owner(globalRow, globalCol int) int {
	return (globalRow/l.Local)*l.Side + globalCol/l.Local
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	return fmt.Sprintf("%dx%d grid over %dx%d workers (%dx%d local)",
		l.GridSize, l.GridSize, l.Side, l.Side, l.Local, l.Local)
}
