package swizzle

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/samcharles93/magicube/internal/smtx"
)

func TestIdentity(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 7, 64} {
		p := Ident(n)
		if !p.Valid() {
			t.Fatalf("n=%d: not a bijection", n)
		}
		for i, r := range p {
			if r != i {
				t.Fatalf("n=%d: p[%d] = %d", n, i, r)
			}
		}
	}
}

func TestByLengthTies(t *testing.T) {
	t.Parallel()

	got := ByLength([]int{2, 5, 2, 0, 5, 1})
	want := Permutation{1, 4, 0, 2, 5, 3}
	if !slices.Equal(got, want) {
		t.Fatalf("ByLength = %v, want %v", got, want)
	}
}

func TestBalancedIsNonIncreasing(t *testing.T) {
	t.Parallel()

	for seed := int64(1); seed <= 8; seed++ {
		m, err := smtx.Generate(rand.New(rand.NewSource(seed)), 50, 30, 0.5)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		p := Rows(m, Balanced)
		if !p.Valid() {
			t.Fatalf("seed %d: not a bijection: %v", seed, p)
		}
		for i := 1; i < len(p); i++ {
			prev, cur := m.RowLen(p[i-1]), m.RowLen(p[i])
			if cur > prev {
				t.Fatalf("seed %d: slot %d length %d after %d", seed, i, cur, prev)
			}
			if cur == prev && p[i] < p[i-1] {
				t.Fatalf("seed %d: tie at slot %d not in row order", seed, i)
			}
		}
	}
}

func TestValidRejectsDuplicates(t *testing.T) {
	t.Parallel()

	if (Permutation{0, 0, 1}).Valid() {
		t.Fatalf("duplicate accepted")
	}
	if (Permutation{0, 3, 1}).Valid() {
		t.Fatalf("out of range accepted")
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	if p, err := ParsePolicy("sorted"); err != nil || p != Balanced {
		t.Fatalf("ParsePolicy(sorted) = %v, %v", p, err)
	}
	if p, err := ParsePolicy(""); err != nil || p != Identity {
		t.Fatalf("ParsePolicy(\"\") = %v, %v", p, err)
	}
	if _, err := ParsePolicy("random"); err == nil {
		t.Fatalf("expected error")
	}
}
