package display

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// Snapshot is an assembled copy of the global grid, without boundary cells.
type Snapshot struct {
	size   int
	values []float32
}

// NewSnapshot returns a zeroed size×size snapshot.
func NewSnapshot(size int) *Snapshot {
	return &Snapshot{size: size, values: make([]float32, size*size)}
}

// FromRows builds a snapshot from a square matrix.
func FromRows(rows [][]float32) *Snapshot {
	s := NewSnapshot(len(rows))
	for r, row := range rows {
		copy(s.Row(r), row)
	}

	return s
}

// Size returns L.
func (s *Snapshot) Size() int { return s.size }

// At returns the value of global cell (row, col), 0-based.
func (s *Snapshot) At(row, col int) float32 {
	return s.values[row*s.size+col]
}

// Row returns a view of global row r.
func (s *Snapshot) Row(r int) []float32 {
	return s.values[r*s.size : (r+1)*s.size : (r+1)*s.size]
}

// Rows returns a copy of the snapshot as a matrix.
func (s *Snapshot) Rows() [][]float32 {
	out := make([][]float32, s.size)
	for r := range out {
		out[r] = append([]float32(nil), s.Row(r)...)
	}

	return out
}

// Checksum returns an xxh3 hash of the values' IEEE-754 bits in row-major order.
// Two snapshots have equal checksums when they are bit-for-bit identical.
func (s *Snapshot) Checksum() uint64 {
	buf := make([]byte, 4*len(s.values))
	for i, v := range s.values {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}

	return xxh3.Hash(buf)
}
