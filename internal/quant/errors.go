package quant

import "errors"

var (
	ErrBitWidth   = errors.New("quant: unsupported bit width")
	ErrValueRange = errors.New("quant: value out of range")
	ErrWordRange  = errors.New("quant: word out of range")
	ErrTooLarge   = errors.New("quant: operand too large")
)
