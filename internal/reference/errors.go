package reference

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation means a quantized value could not be recovered from
// its packed word. It points at a packing defect upstream, not at bad input.
var ErrInvariantViolation = errors.New("invariant violation")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariantViolation}, args...)...)
}
