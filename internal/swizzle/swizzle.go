// Package swizzle computes the order in which a kernel processes row groups.
package swizzle

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samcharles93/magicube/internal/smtx"
)

// Policy selects how rows are ordered.
type Policy int

const (
	Identity Policy = iota
	Balanced
)

// Permutation maps processing slot to row-group index.
type Permutation []int

// ParsePolicy accepts "identity"/"none" and "balanced"/"sorted".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "identity", "none":
		return Identity, nil
	case "balanced", "sorted", "sort":
		return Balanced, nil
	default:
		return Identity, fmt.Errorf("unknown row swizzle %q (expected identity or balanced)", s)
	}
}

func (p Policy) String() string {
	if p == Balanced {
		return "balanced"
	}
	return "identity"
}

// Rows returns the processing order of m's row groups under p.
func Rows(m *smtx.Matrix, p Policy) Permutation {
	if p == Balanced {
		return ByLength(m.RowLens())
	}
	return Ident(m.MVec)
}

// Ident returns the identity permutation of n rows.
func Ident(n int) Permutation {
	out := make(Permutation, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// ByLength orders rows by descending length. Ties keep ascending row order.
func ByLength(lens []int) Permutation {
	out := Ident(len(lens))
	slices.SortStableFunc(out, func(a, b int) int {
		return lens[b] - lens[a]
	})
	return out
}

// Valid reports whether p is a bijection over [0, len(p)).
func (p Permutation) Valid() bool {
	seen := make([]bool, len(p))
	for _, r := range p {
		if r < 0 || r >= len(p) || seen[r] {
			return false
		}
		seen[r] = true
	}
	return true
}
