package precision

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b     int
		want     Pair
		lane     int
		mmaK     int
		shuffled bool
	}{
		{a: 8, b: 8, want: Int8Int8, lane: 32, mmaK: 16},
		{a: 4, b: 4, want: Int4Int4, lane: 64, mmaK: 32, shuffled: true},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.a, tt.b)
		if err != nil {
			t.Fatalf("Resolve(%d,%d): %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Fatalf("Resolve(%d,%d) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got.LaneWidth() != tt.lane {
			t.Fatalf("%v lane width = %d, want %d", got, got.LaneWidth(), tt.lane)
		}
		if got.MMAKDim() != tt.mmaK {
			t.Fatalf("%v mma k = %d, want %d", got, got.MMAKDim(), tt.mmaK)
		}
		if got.ShuffleColumns() != tt.shuffled {
			t.Fatalf("%v shuffle = %v", got, got.ShuffleColumns())
		}
	}
}

func TestResolveRejectsMixedAndWide(t *testing.T) {
	t.Parallel()

	cases := [][2]int{{16, 8}, {8, 4}, {4, 8}, {32, 32}, {16, 16}, {3, 3}, {12, 4}}
	for _, c := range cases {
		_, err := Resolve(c[0], c[1])
		if !errors.Is(err, ErrUnsupportedPrecision) {
			t.Fatalf("Resolve(%d,%d): expected ErrUnsupportedPrecision, got %v", c[0], c[1], err)
		}
	}
}

func TestCheckVecLength(t *testing.T) {
	t.Parallel()

	if err := Int8Int8.CheckVecLength(1); err != nil {
		t.Fatalf("int8 vec 1: %v", err)
	}
	if err := Int4Int4.CheckVecLength(1); !errors.Is(err, ErrUnsupportedPrecision) {
		t.Fatalf("int4 vec 1: expected rejection, got %v", err)
	}
	if err := Int4Int4.CheckVecLength(8); err != nil {
		t.Fatalf("int4 vec 8: %v", err)
	}
	if err := Int8Int8.CheckVecLength(3); !errors.Is(err, ErrUnsupportedPrecision) {
		t.Fatalf("vec 3: expected rejection, got %v", err)
	}
}

func TestCheckK(t *testing.T) {
	t.Parallel()

	if err := Int8Int8.CheckK(64); err != nil {
		t.Fatalf("k=64: %v", err)
	}
	if err := Int8Int8.CheckK(6); !errors.Is(err, ErrUnsupportedPrecision) {
		t.Fatalf("k=6 int8: expected rejection, got %v", err)
	}
	if err := Int4Int4.CheckK(12); !errors.Is(err, ErrUnsupportedPrecision) {
		t.Fatalf("k=12 int4: expected rejection, got %v", err)
	}
	if err := Int4Int4.CheckK(0); !errors.Is(err, ErrUnsupportedPrecision) {
		t.Fatalf("k=0: expected rejection, got %v", err)
	}
}

func TestParsePairRoundTrip(t *testing.T) {
	t.Parallel()

	for _, p := range []Pair{Int8Int8, Int4Int4} {
		got, err := ParsePair(p.String())
		if err != nil || got != p {
			t.Fatalf("ParsePair(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParsePair("fp16"); err == nil {
		t.Fatalf("expected error for fp16")
	}
}
