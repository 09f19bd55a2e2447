package lcf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PutInt32s encodes vals as little-endian int32. Values must fit in int32.
func PutInt32s(vals []int) ([]byte, error) {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("lcf: value %d at %d overflows int32", v, i)
		}
		binary.LittleEndian.PutUint32(out[4*i:], uint32(int32(v)))
	}
	return out, nil
}

// Int32s decodes a little-endian int32 payload into ints.
func Int32s(data []byte) ([]int, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: int32 payload of %d bytes", ErrCorruptFile, len(data))
	}
	out := make([]int, len(data)/4)
	for i := range out {
		out[i] = int(int32(binary.LittleEndian.Uint32(data[4*i:])))
	}
	return out, nil
}

// PutRawInt32s encodes int32 values little-endian.
func PutRawInt32s(vals []int32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}

// RawInt32s decodes a little-endian int32 payload.
func RawInt32s(data []byte) ([]int32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: int32 payload of %d bytes", ErrCorruptFile, len(data))
	}
	out := make([]int32, len(data)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out, nil
}
