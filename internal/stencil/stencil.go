// Package stencil applies the 4-point Jacobi heat update to halo-padded grids.
//
// Updates read only src and write only dst. The caller swaps the two buffers
// between iterations.
package stencil

import "github.com/arloliu/halo/internal/grid"

// weight is the coefficient of the 4-point average.
const weight float32 = 0.25

// average is the single place the update formula is written, so partitioned
// and reference runs round identically.
func average(south, north, east, west float32) float32 {
	return weight * (south + north + east + west)
}

// UpdateInterior updates owned cells whose 4 neighbors are all owned, i.e.
// rows and columns 2..ℓ-1. It never reads halo cells, so it may run while a
// halo exchange into src is in flight.
func UpdateInterior(src, dst *grid.Grid) {
	l := src.Local()
	for r := 2; r < l; r++ {
		above, row, below, out := src.Row(r-1), src.Row(r), src.Row(r+1), dst.Row(r)
		for c := 2; c < l; c++ {
			out[c] = average(below[c], above[c], row[c+1], row[c-1])
		}
	}
}

// UpdateEdges updates owned cells in row 1, row ℓ, column 1 or column ℓ.
// These read halo cells, so the exchange for src must be complete.
func UpdateEdges(src, dst *grid.Grid) {
	l := src.Local()
	updateRow(src, dst, 1)
	if l > 1 {
		updateRow(src, dst, l)
	}
	for r := 2; r < l; r++ {
		updateCell(src, dst, r, 1)
		updateCell(src, dst, r, l)
	}
}

func updateRow(src, dst *grid.Grid, r int) {
	above, row, below, out := src.Row(r-1), src.Row(r), src.Row(r+1), dst.Row(r)
	for c := 1; c <= src.Local(); c++ {
		out[c] = average(below[c], above[c], row[c+1], row[c-1])
	}
}

func updateCell(src, dst *grid.Grid, r, c int) {
	dst.Set(r, c, average(src.At(r+1, c), src.At(r-1, c), src.At(r, c+1), src.At(r, c-1)))
}

// Step runs one full update of every owned cell from src into dst.
func Step(src, dst *grid.Grid) {
	UpdateInterior(src, dst)
	UpdateEdges(src, dst)
}

// Reference runs iterations of the unpartitioned solver over global, a
// square L×L matrix of initial values surrounded by a fixed boundary. It
// returns a new matrix; global is not modified.
func Reference(global [][]float32, boundary float32, iterations int) [][]float32 {
	n := len(global)
	src := padded(n, boundary)
	dst := padded(n, boundary)
	for r := range n {
		copy(src[r+1][1:n+1], global[r])
	}

	for range iterations {
		for r := 1; r <= n; r++ {
			for c := 1; c <= n; c++ {
				dst[r][c] = average(src[r+1][c], src[r-1][c], src[r][c+1], src[r][c-1])
			}
		}
		src, dst = dst, src
	}

	out := make([][]float32, n)
	for r := range n {
		out[r] = append([]float32(nil), src[r+1][1:n+1]...)
	}

	return out
}

func padded(n int, boundary float32) [][]float32 {
	m := make([][]float32, n+2)
	for r := range m {
		m[r] = make([]float32, n+2)
		for c := range m[r] {
			m[r][c] = boundary
		}
	}

	return m
}
