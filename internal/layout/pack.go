package layout

import "fmt"

const (
	nibbleMask = 0x0F
	// shuffleWidth is the column-index group size of the wide fragment load.
	shuffleWidth = 8
)

// TransposeK16 reorders 8-bit values for a depth-16 MMA fragment.
//
// Within each chunk of 16*vecLength bytes the sub-row and tile-depth axes are
// exchanged: output v*16+j comes from input j*vecLength+v.
func TransposeK16(src []byte, vecLength int) ([]byte, error) {
	const k = 16
	if vecLength <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrVecLength, vecLength)
	}
	chunk := k * vecLength
	if len(src)%chunk != 0 {
		return nil, fmt.Errorf("%w: %d bytes, chunk %d", ErrChunkSize, len(src), chunk)
	}
	dst := make([]byte, len(src))
	for i := 0; i < len(src); i += chunk {
		for j := 0; j < k; j++ {
			for v := 0; v < vecLength; v++ {
				dst[i+v*k+j] = src[i+j*vecLength+v]
			}
		}
	}
	return dst, nil
}

// UntransposeK16 inverts TransposeK16.
func UntransposeK16(src []byte, vecLength int) ([]byte, error) {
	const k = 16
	if vecLength <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrVecLength, vecLength)
	}
	chunk := k * vecLength
	if len(src)%chunk != 0 {
		return nil, fmt.Errorf("%w: %d bytes, chunk %d", ErrChunkSize, len(src), chunk)
	}
	dst := make([]byte, len(src))
	for i := 0; i < len(src); i += chunk {
		for j := 0; j < k; j++ {
			for v := 0; v < vecLength; v++ {
				dst[i+j*vecLength+v] = src[i+v*k+j]
			}
		}
	}
	return dst, nil
}

// TransposeK32 reorders 4-bit values for a depth-32 MMA fragment.
//
// Each source byte holds sub-rows 2v (low nibble) and 2v+1 (high nibble) of
// one nonzero. In the output, the 32 values of sub-row 2v fill bytes
// [32v, 32v+16) and those of sub-row 2v+1 fill [32v+16, 32v+32), two
// nonzeros per byte with the even nonzero in the low nibble.
func TransposeK32(src []byte, vecLength int) ([]byte, error) {
	const k = 32
	if vecLength <= 0 || vecLength%2 != 0 {
		return nil, fmt.Errorf("%w: %d must be even", ErrVecLength, vecLength)
	}
	half := vecLength / 2
	chunk := k * half
	if len(src)%chunk != 0 {
		return nil, fmt.Errorf("%w: %d bytes, chunk %d", ErrChunkSize, len(src), chunk)
	}
	// Destination bytes are assembled from two source iterations, so they
	// must start zeroed.
	dst := make([]byte, len(src))
	for i := 0; i < len(src); i += chunk {
		for j := 0; j < k; j++ {
			lo := uint((j % 2) * 4)
			hi := uint(((j + 1) % 2) * 4)
			for v := 0; v < half; v++ {
				b := src[i+j*half+v]
				dst[i+k*v+j/2] |= (b & nibbleMask) << lo
				dst[i+k*v+k/2+j/2] |= (b & (nibbleMask << 4)) >> hi
			}
		}
	}
	return dst, nil
}

// UntransposeK32 inverts TransposeK32.
func UntransposeK32(src []byte, vecLength int) ([]byte, error) {
	const k = 32
	if vecLength <= 0 || vecLength%2 != 0 {
		return nil, fmt.Errorf("%w: %d must be even", ErrVecLength, vecLength)
	}
	half := vecLength / 2
	chunk := k * half
	if len(src)%chunk != 0 {
		return nil, fmt.Errorf("%w: %d bytes, chunk %d", ErrChunkSize, len(src), chunk)
	}
	dst := make([]byte, len(src))
	for i := 0; i < len(src); i += chunk {
		for j := 0; j < k; j++ {
			shift := uint((j % 2) * 4)
			for v := 0; v < half; v++ {
				lo := (src[i+k*v+j/2] >> shift) & nibbleMask
				hi := (src[i+k*v+k/2+j/2] >> shift) & nibbleMask
				dst[i+j*half+v] = lo | hi<<4
			}
		}
	}
	return dst, nil
}

// ShuffleColumns applies the 8-wide interleave used by the depth-32 fragment
// load: out[i*8 + (j%2)*4 + j/2] = in[i*8+j].
func ShuffleColumns(src []int) ([]int, error) {
	if len(src)%shuffleWidth != 0 {
		return nil, fmt.Errorf("%w: %d indices, group %d", ErrChunkSize, len(src), shuffleWidth)
	}
	dst := make([]int, len(src))
	for i := 0; i < len(src); i += shuffleWidth {
		for j := 0; j < shuffleWidth; j++ {
			dst[shuffledPos(i, j)] = src[i+j]
		}
	}
	return dst, nil
}

// UnshuffleColumns inverts ShuffleColumns.
func UnshuffleColumns(src []int) ([]int, error) {
	if len(src)%shuffleWidth != 0 {
		return nil, fmt.Errorf("%w: %d indices, group %d", ErrChunkSize, len(src), shuffleWidth)
	}
	dst := make([]int, len(src))
	for i := 0; i < len(src); i += shuffleWidth {
		for j := 0; j < shuffleWidth; j++ {
			dst[i+j] = src[shuffledPos(i, j)]
		}
	}
	return dst, nil
}

func shuffledPos(base, j int) int {
	return base + (j%2)*(shuffleWidth/2) + j/2
}
