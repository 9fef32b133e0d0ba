package source

import (
	"sync"

	"github.com/arloliu/halo/types"
)

// rankFill sets every owned cell to the owner's rank plus one.
type rankFill struct{}

var _ types.InitialCondition = rankFill{}

// RankFill returns the default initial condition: worker r fills its block with r+1.
func RankFill() types.InitialCondition { return rankFill{} }

func (rankFill) Value(rank, _, _ int) float32 { return float32(rank + 1) }

// uniform sets every owned cell to one value.
type uniform float32

var _ types.InitialCondition = uniform(0)

// Uniform returns an initial condition that sets every cell to v.
func Uniform(v float32) types.InitialCondition { return uniform(v) }

func (u uniform) Value(_, _, _ int) float32 { return float32(u) }

// Func adapts a function of global coordinates to types.InitialCondition.
//
// Example:
//
//	hotSpot := source.Func(func(row, col int) float32 {
//	    if row == 4 && col == 4 {
//	        return 100
//	    }
//	    return 0
//	})
type Func func(globalRow, globalCol int) float32

var _ types.InitialCondition = Func(nil)

// Value calls f with the global coordinates.
func (f Func) Value(_, globalRow, globalCol int) float32 { return f(globalRow, globalCol) }

// Static implements an initial condition backed by a fixed global matrix.
type Static struct {
	mu   sync.RWMutex
	rows [][]float32
}

var _ types.InitialCondition = (*Static)(nil)

// NewStatic creates an initial condition that reads cell (r, c) from rows[r][c].
//
// The matrix is copied, so later changes by the caller do not leak into a
// running solver. Cells outside the matrix read as 0.
//
// Parameters:
//   - rows: Global L×L matrix of initial values
//
// Returns:
//   - *Static: Initialized static condition
//
// Example:
//
//	ic := source.NewStatic([][]float32{{1, 2}, {3, 4}})
//	report, err := halo.Launch(ctx, &cfg, halo.WithInitialCondition(ic))
func NewStatic(rows [][]float32) *Static {
	s := &Static{}
	s.Update(rows)

	return s
}

// Value returns rows[globalRow][globalCol].
func (s *Static) Value(_, globalRow, globalCol int) float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if globalRow < 0 || globalRow >= len(s.rows) {
		return 0
	}
	row := s.rows[globalRow]
	if globalCol < 0 || globalCol >= len(row) {
		return 0
	}

	return row[globalCol]
}

// Update replaces the matrix. Solvers that already filled their grids are unaffected.
func (s *Static) Update(rows [][]float32) {
	copied := make([][]float32, len(rows))
	for i, row := range rows {
		copied[i] = append([]float32(nil), row...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = copied
}
