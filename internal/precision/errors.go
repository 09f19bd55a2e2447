package precision

import (
	"errors"
	"fmt"
)

// ErrUnsupportedPrecision is returned for bit-width, vector-length or kernel
// combinations that have no layout implementation.
var ErrUnsupportedPrecision = errors.New("unsupported precision")

type unsupportedError struct {
	msg string
}

func (e unsupportedError) Error() string {
	return e.msg
}

func (e unsupportedError) Unwrap() error {
	return ErrUnsupportedPrecision
}

func unsupported(format string, args ...any) error {
	return unsupportedError{msg: "unsupported precision: " + fmt.Sprintf(format, args...)}
}
