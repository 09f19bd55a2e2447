// Package precision enumerates the operand bit-width pairs the layout
// pipeline supports and derives the hardware parameters tied to each.
package precision

import (
	"slices"
	"strings"
)

// Pair is a supported (A_BIT, B_BIT) combination.
type Pair uint8

const (
	Invalid Pair = iota
	Int8Int8
	Int4Int4
)

// Bit widths accepted on the command line. Only some pairs are implemented.
var acceptedBits = []int{4, 8, 16, 32}

// Resolve maps declared operand widths onto a supported pair.
func Resolve(aBits, bBits int) (Pair, error) {
	if !accepted(aBits) || !accepted(bBits) {
		return Invalid, unsupported("bit widths must be one of %v, got A=%d B=%d", acceptedBits, aBits, bBits)
	}
	switch {
	case aBits == 8 && bBits == 8:
		return Int8Int8, nil
	case aBits == 4 && bBits == 4:
		return Int4Int4, nil
	default:
		return Invalid, unsupported("A=%d B=%d has no integer layout", aBits, bBits)
	}
}

// ABits returns the A operand element width.
func (p Pair) ABits() int {
	switch p {
	case Int8Int8:
		return 8
	case Int4Int4:
		return 4
	default:
		return 0
	}
}

// BBits returns the B operand element width.
func (p Pair) BBits() int {
	return p.ABits()
}

// LaneWidth is the padding granularity for aligned rows. Narrow elements
// pack more values per hardware transaction, so they use the wider lane count.
func (p Pair) LaneWidth() int {
	switch p {
	case Int8Int8:
		return 32
	case Int4Int4:
		return 64
	default:
		return 0
	}
}

// MMAKDim is the depth of the MMA fragment the packed layout targets.
func (p Pair) MMAKDim() int {
	switch p {
	case Int8Int8:
		return 16
	case Int4Int4:
		return 32
	default:
		return 0
	}
}

// BTile is the number of B elements packed into one 32-bit word.
func (p Pair) BTile() int {
	if p.BBits() == 0 {
		return 0
	}
	return 32 / p.BBits()
}

// ShuffleColumns reports whether column indices get the 8-wide interleave.
func (p Pair) ShuffleColumns() bool {
	return p.MMAKDim() == 32
}

// ValueBytes is the byte size of one nonzero vector's packed A values.
func (p Pair) ValueBytes(vecLength int) int {
	return vecLength * p.ABits() / 8
}

// CheckVecLength rejects vector lengths the pair cannot pack.
func (p Pair) CheckVecLength(vecLength int) error {
	switch vecLength {
	case 1, 2, 4, 8:
	default:
		return unsupported("vec_length must be one of 1, 2, 4, 8, got %d", vecLength)
	}
	if p == Int4Int4 && vecLength%2 != 0 {
		return unsupported("4-bit operands need an even vec_length, got %d", vecLength)
	}
	return nil
}

// CheckK rejects output widths that do not split into whole B words.
func (p Pair) CheckK(k int) error {
	tile := p.BTile()
	if k <= 0 || tile == 0 || k%tile != 0 {
		return unsupported("k=%d must be a positive multiple of %d for %d-bit B", k, tile, p.BBits())
	}
	return nil
}

func (p Pair) String() string {
	switch p {
	case Int8Int8:
		return "int8xint8"
	case Int4Int4:
		return "int4xint4"
	default:
		return "invalid"
	}
}

// ParsePair parses the String form, also accepting "8x8" and "4x4".
func ParsePair(s string) (Pair, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int8xint8", "8x8", "8,8":
		return Int8Int8, nil
	case "int4xint4", "4x4", "4,4":
		return Int4Int4, nil
	default:
		return Invalid, unsupported("unknown precision pair %q", s)
	}
}

func accepted(bits int) bool {
	return slices.Contains(acceptedBits, bits)
}
