package transport

import (
	"math"
	"testing"

	"github.com/arloliu/halo/types"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	in := types.Message{
		Source:    7,
		Tag:       types.TagLeft,
		Iteration: 123456,
		Data:      []float32{0, -1.5, float32(math.Inf(1)), math.SmallestNonzeroFloat32},
	}

	buf := Encode(in)
	require.Len(t, buf, headerSize+16)

	out, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestEncodeDecode_PreservesBits(t *testing.T) {
	nan := math.Float32frombits(0x7fc00001)
	out, err := Decode(Encode(types.Message{Data: []float32{nan}}))
	require.NoError(t, err)
	require.Equal(t, uint32(0x7fc00001), math.Float32bits(out.Data[0]))
}

func TestEncodeDecode_EmptyAndNegativeIteration(t *testing.T) {
	out, err := Decode(Encode(types.Message{Source: 1, Tag: types.TagDisplay, Iteration: -1}))
	require.NoError(t, err)
	require.Equal(t, -1, out.Iteration)
	require.Empty(t, out.Data)
}

func TestDecode_Malformed(t *testing.T) {
	good := Encode(types.Message{Data: []float32{1, 2}})

	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"short header", good[:headerSize-1]},
		{"truncated values", good[:len(good)-1]},
		{"extra bytes", append(append([]byte(nil), good...), 0)},
		{"bad version", append([]byte{9}, good[1:]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.buf)
			require.ErrorIs(t, err, types.ErrMalformedMessage)
			require.True(t, types.IsCommunicationError(err))
		})
	}
}
