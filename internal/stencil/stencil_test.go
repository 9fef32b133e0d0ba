package stencil

import (
	"math/rand/v2"
	"testing"

	"github.com/arloliu/halo/internal/grid"
	"github.com/stretchr/testify/require"
)

func newPair(t *testing.T, local int, boundary float32, fill func(r, c int) float32) (*grid.Grid, *grid.Grid) {
	t.Helper()

	src, err := grid.New(local, boundary)
	require.NoError(t, err)
	src.Fill(fill)

	dst, err := grid.New(local, boundary)
	require.NoError(t, err)
	require.NoError(t, dst.CopyFrom(src))

	return src, dst
}

func TestUpdateInterior_Formula(t *testing.T) {
	src, dst := newPair(t, 4, 0, func(r, c int) float32 { return float32(r*10 + c) })

	UpdateInterior(src, dst)

	for r := 2; r <= 3; r++ {
		for c := 2; c <= 3; c++ {
			want := float32(0.25) * (src.At(r+1, c) + src.At(r-1, c) + src.At(r, c+1) + src.At(r, c-1))
			require.Equal(t, want, dst.At(r, c))
		}
	}

	// Edge cells untouched.
	require.Equal(t, src.At(1, 1), dst.At(1, 1))
	require.Equal(t, src.At(4, 2), dst.At(4, 2))
}

func TestUpdateInterior_IgnoresHalo(t *testing.T) {
	fill := func(r, c int) float32 { return float32(r + c) }
	src, dst := newPair(t, 5, 0, fill)
	ref, refDst := newPair(t, 5, 0, fill)

	for i := range src.Stride() {
		src.Set(0, i, 1000)
		src.Set(i, 0, 1000)
		src.Set(6, i, 1000)
		src.Set(i, 6, 1000)
	}

	UpdateInterior(src, dst)
	UpdateInterior(ref, refDst)

	for r := 2; r <= 4; r++ {
		for c := 2; c <= 4; c++ {
			require.Equal(t, refDst.At(r, c), dst.At(r, c))
		}
	}
}

func TestUpdateEdges_CoversRemainingCells(t *testing.T) {
	for _, local := range []int{1, 2, 3, 6} {
		src, dst := newPair(t, local, 2, func(int, int) float32 { return 1 })
		sentinel := float32(-99)
		dst.Fill(func(int, int) float32 { return sentinel })

		UpdateInterior(src, dst)
		UpdateEdges(src, dst)

		for r := 1; r <= local; r++ {
			for c := 1; c <= local; c++ {
				require.NotEqual(t, sentinel, dst.At(r, c), "local %d cell (%d,%d)", local, r, c)
			}
		}
	}
}

func TestUpdateEdges_ReadsHalo(t *testing.T) {
	src, dst := newPair(t, 3, 0, func(int, int) float32 { return 1 })
	src.Set(0, 1, 4)

	UpdateEdges(src, dst)
	require.Equal(t, float32(0.25)*(1+4+1+0), dst.At(1, 1))
}

func TestStep_MatchesReference(t *testing.T) {
	const n = 7
	rng := rand.New(rand.NewPCG(1, 2))
	global := make([][]float32, n)
	for r := range global {
		global[r] = make([]float32, n)
		for c := range global[r] {
			global[r][c] = rng.Float32()
		}
	}

	src, err := grid.New(n, 0.5)
	require.NoError(t, err)
	src.Fill(func(r, c int) float32 { return global[r-1][c-1] })
	dst, err := grid.New(n, 0.5)
	require.NoError(t, err)
	require.NoError(t, dst.CopyFrom(src))

	for range 20 {
		Step(src, dst)
		src, dst = dst, src
	}

	want := Reference(global, 0.5, 20)
	for r := range n {
		require.Equal(t, want[r], src.Owned(r+1))
	}
}

func TestReference(t *testing.T) {
	global := [][]float32{{1, 1}, {1, 1}}

	require.Equal(t, global, Reference(global, 0, 0))

	got := Reference(global, 0, 1)
	require.Equal(t, [][]float32{{0.5, 0.5}, {0.5, 0.5}}, got)
	require.Equal(t, float32(1), global[0][0], "input must not be modified")
}
