// Package verify compares kernel output against a golden reference.
package verify

import (
	"errors"
	"fmt"
)

// ErrVerificationMismatch is wrapped by MismatchError.
var ErrVerificationMismatch = errors.New("verification mismatch")

// maxSamples bounds how many differing positions a Result keeps.
const maxSamples = 32

// Sample is one differing position.
type Sample struct {
	Index int   `json:"index"`
	Want  int32 `json:"want"`
	Got   int32 `json:"got"`
}

// Result summarizes an elementwise comparison.
type Result struct {
	Total      int      `json:"total"`
	Mismatches int      `json:"mismatches"`
	Samples    []Sample `json:"samples,omitempty"`
}

// Passed reports whether no position differs.
func (r Result) Passed() bool {
	return r.Mismatches == 0
}

// Err returns a *MismatchError when any position differs.
func (r Result) Err() error {
	if r.Passed() {
		return nil
	}
	return &MismatchError{Mismatches: r.Mismatches, Total: r.Total}
}

// MismatchError carries the full mismatch count of a failed comparison.
type MismatchError struct {
	Mismatches int
	Total      int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("kernel output does not agree with reference: %d of %d positions differ", e.Mismatches, e.Total)
}

func (e *MismatchError) Unwrap() error {
	return ErrVerificationMismatch
}

// Compare counts positions where got differs from want. Both must have the
// same length; a length difference is a caller bug.
func Compare(want, got []int32) (Result, error) {
	if len(want) != len(got) {
		return Result{}, fmt.Errorf("verify: length mismatch: golden %d, device %d", len(want), len(got))
	}
	res := Result{Total: len(want)}
	for i := range want {
		if want[i] == got[i] {
			continue
		}
		res.Mismatches++
		if len(res.Samples) < maxSamples {
			res.Samples = append(res.Samples, Sample{Index: i, Want: want[i], Got: got[i]})
		}
	}
	return res, nil
}
