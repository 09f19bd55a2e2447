package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/samcharles93/magicube/internal/ell"
	"github.com/samcharles93/magicube/internal/smtx"
)

// ErrTooLarge is returned when a run would allocate more operand and output
// elements than its budget allows.
var ErrTooLarge = errors.New("run too large")

// Footprint returns how many A, B and output elements a run of c over m
// allocates. Sparse runs count A at its lane-padded upper bound. c must be
// validated.
func (c *Config) Footprint(m *smtx.Matrix) (int, error) {
	vl, k := c.VecLength, c.K
	rows, ok := mulInts(m.MVec, vl)
	if !ok {
		return 0, tooLarge(m)
	}

	var a, b, out int
	var okA, okB, okOut bool
	switch c.Mode {
	case ModeDense:
		a, okA = mulInts(rows, m.N)
		b, okB = mulInts(m.N, k)
	case ModeELL:
		_, colBlocks, perRow, err := ell.FromShape(m, vl)
		if err != nil {
			return 0, err
		}
		a, okA = mulInts(rows, perRow, vl)
		b, okB = mulInts(colBlocks, vl, k)
	default:
		a, okA = mulInts(m.MVec, c.Pair().LaneWidth())
		if okA {
			a, okA = addInts(a, m.NNZVec)
		}
		if okA {
			a, okA = mulInts(a, vl)
		}
		b, okB = mulInts(m.N, k)
	}
	out, okOut = mulInts(rows, k)
	if !okA || !okB || !okOut {
		return 0, tooLarge(m)
	}
	total, ok := addInts(a, b, out)
	if !ok {
		return 0, tooLarge(m)
	}
	return total, nil
}

// CheckBudget rejects runs whose Footprint exceeds c.MaxElements. A zero
// budget only rejects footprints that overflow int.
func (c *Config) CheckBudget(m *smtx.Matrix) error {
	n, err := c.Footprint(m)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MaxElements > 0 && n > c.MaxElements {
		return fmt.Errorf("%w: %w: %d elements exceeds the limit of %d", ErrInvalidConfig, ErrTooLarge, n, c.MaxElements)
	}
	return nil
}

func tooLarge(m *smtx.Matrix) error {
	return fmt.Errorf("%w: m_vec=%d n=%d overflows the element count", ErrTooLarge, m.MVec, m.N)
}

func mulInts(vals ...int) (int, bool) {
	out := 1
	for _, v := range vals {
		if v < 0 {
			return 0, false
		}
		if v != 0 && out > math.MaxInt/v {
			return 0, false
		}
		out *= v
	}
	return out, true
}

func addInts(vals ...int) (int, bool) {
	out := 0
	for _, v := range vals {
		if v < 0 || out > math.MaxInt-v {
			return 0, false
		}
		out += v
	}
	return out, true
}
