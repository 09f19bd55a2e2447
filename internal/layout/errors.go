package layout

import "errors"

var (
	ErrChunkSize    = errors.New("layout: buffer is not a whole number of chunks")
	ErrVecLength    = errors.New("layout: unsupported vec_length")
	ErrValueSize    = errors.New("layout: value buffer size mismatch")
	// ErrInconsistent reports packed buffers that disagree with each other.
	ErrInconsistent = errors.New("layout: inconsistent packed buffers")
)
