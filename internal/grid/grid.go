// Package grid implements the halo-padded local block each worker owns.
//
// A Grid of local size ℓ stores (ℓ+2)×(ℓ+2) float32 cells in row-major order.
// Rows and columns 1..ℓ are owned; row/column 0 and ℓ+1 are the halo, holding
// either copies of neighbor cells or the fixed boundary value.
package grid

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/halo/types"
	"github.com/zeebo/xxh3"
)

// MaxCells bounds the storage of a single grid, halo included.
const MaxCells = 1 << 28

// Grid is a (Local+2)×(Local+2) row-major float32 block.
type Grid struct {
	local  int
	stride int
	cells  []float32
}

// New allocates a grid for a local×local block with every cell, halo
// included, set to boundary.
//
// Returns types.ErrGridAllocation when local is not positive or the block
// would exceed MaxCells.
func New(local int, boundary float32) (*Grid, error) {
	if local <= 0 {
		return nil, fmt.Errorf("%w: local size %d", types.ErrGridAllocation, local)
	}
	stride := local + 2
	if stride > MaxCells/stride {
		return nil, fmt.Errorf("%w: %d cells exceeds limit %d", types.ErrGridAllocation, stride*stride, MaxCells)
	}

	cells := make([]float32, stride*stride)
	if boundary != 0 {
		for i := range cells {
			cells[i] = boundary
		}
	}

	return &Grid{local: local, stride: stride, cells: cells}, nil
}

// Local returns ℓ, the owned block dimension.
func (g *Grid) Local() int { return g.local }

// Stride returns ℓ+2, the row length including the halo.
func (g *Grid) Stride() int { return g.stride }

// At returns the cell at (row, col). Indices include the halo.
func (g *Grid) At(row, col int) float32 {
	g.check(row, col)

	return g.cells[row*g.stride+col]
}

// Set writes v at (row, col). Indices include the halo.
func (g *Grid) Set(row, col int, v float32) {
	g.check(row, col)
	g.cells[row*g.stride+col] = v
}

// Row returns a view of row, halo columns included. Writes through the view
// modify the grid.
func (g *Grid) Row(row int) []float32 {
	g.check(row, 0)
	start := row * g.stride

	return g.cells[start : start+g.stride : start+g.stride]
}

// Owned returns a view of the owned cells of row (columns 1..ℓ).
func (g *Grid) Owned(row int) []float32 {
	r := g.Row(row)

	return r[1 : g.local+1 : g.local+1]
}

// PackColumn copies rows 1..ℓ of col into dst, which must hold ℓ values.
func (g *Grid) PackColumn(col int, dst []float32) {
	g.check(0, col)
	_ = dst[g.local-1]
	for i := range g.local {
		dst[i] = g.cells[(i+1)*g.stride+col]
	}
}

// UnpackColumn writes src into rows 1..ℓ of col. src must hold ℓ values.
func (g *Grid) UnpackColumn(col int, src []float32) {
	g.check(0, col)
	_ = src[g.local-1]
	for i := range g.local {
		g.cells[(i+1)*g.stride+col] = src[i]
	}
}

// Fill sets every owned cell to f(row, col), with row and col in 1..ℓ.
func (g *Grid) Fill(f func(row, col int) float32) {
	for r := 1; r <= g.local; r++ {
		base := r * g.stride
		for c := 1; c <= g.local; c++ {
			g.cells[base+c] = f(r, c)
		}
	}
}

// CopyFrom copies every cell of other, halo included. Both grids must have
// the same local size.
func (g *Grid) CopyFrom(other *Grid) error {
	if other.local != g.local {
		return fmt.Errorf("%w: copy from local size %d into %d", types.ErrGridAllocation, other.local, g.local)
	}
	copy(g.cells, other.cells)

	return nil
}

// Checksum returns an xxh3 hash of the owned cells' IEEE-754 bit patterns in
// row-major order. Halo cells do not contribute.
func (g *Grid) Checksum() uint64 {
	h := xxh3.New()
	buf := make([]byte, 4*g.local)
	for r := 1; r <= g.local; r++ {
		for i, v := range g.Owned(r) {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
		}
		_, _ = h.Write(buf)
	}

	return h.Sum64()
}

func (g *Grid) check(row, col int) {
	if row < 0 || row >= g.stride || col < 0 || col >= g.stride {
		panic(fmt.Sprintf("grid: index (%d, %d) out of range [0, %d)", row, col, g.stride))
	}
}
