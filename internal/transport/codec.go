package transport

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/halo/types"
)

// Wire layout, little endian:
//
//	offset 0  version  uint8
//	offset 1  tag      uint8
//	offset 2  reserved uint16
//	offset 4  source   uint32
//	offset 8  iter     int64
//	offset 16 count    uint32
//	offset 20 values   count × float32 (IEEE-754 bits)
const (
	codecVersion = 1
	headerSize   = 20
)

// Encode serializes msg for the wire.
func Encode(msg types.Message) []byte {
	buf := make([]byte, headerSize+4*len(msg.Data))
	buf[0] = codecVersion
	buf[1] = byte(msg.Tag)
	binary.LittleEndian.PutUint32(buf[4:], uint32(msg.Source))     //nolint:gosec // ranks are non-negative
	binary.LittleEndian.PutUint64(buf[8:], uint64(msg.Iteration))  //nolint:gosec // round-trips through int64
	binary.LittleEndian.PutUint32(buf[16:], uint32(len(msg.Data))) //nolint:gosec // rows are far below 2^32

	off := headerSize
	for _, v := range msg.Data {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}

	return buf
}

// Decode parses a payload produced by Encode.
//
// Returns types.ErrMalformedMessage when the header is short, the version is
// unknown, or the value count disagrees with the payload length.
func Decode(buf []byte) (types.Message, error) {
	if len(buf) < headerSize {
		return types.Message{}, fmt.Errorf("%w: %d byte payload shorter than header", types.ErrMalformedMessage, len(buf))
	}
	if buf[0] != codecVersion {
		return types.Message{}, fmt.Errorf("%w: unknown version %d", types.ErrMalformedMessage, buf[0])
	}

	count := int(binary.LittleEndian.Uint32(buf[16:]))
	if len(buf)-headerSize != 4*count {
		return types.Message{}, fmt.Errorf("%w: header declares %d values, payload holds %d bytes",
			types.ErrMalformedMessage, count, len(buf)-headerSize)
	}

	msg := types.Message{
		Source:    int(binary.LittleEndian.Uint32(buf[4:])),
		Tag:       types.Tag(buf[1]),
		Iteration: int(int64(binary.LittleEndian.Uint64(buf[8:]))), //nolint:gosec // inverse of Encode
		Data:      make([]float32, count),
	}
	off := headerSize
	for i := range msg.Data {
		msg.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
	}

	return msg, nil
}
