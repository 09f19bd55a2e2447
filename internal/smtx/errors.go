package smtx

import (
	"errors"
	"fmt"
)

// ErrMalformedInput reports a benchmark whose counts are inconsistent.
var ErrMalformedInput = errors.New("malformed input")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformedInput}, args...)...)
}
