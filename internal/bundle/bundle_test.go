package bundle

import (
	"bytes"
	"errors"
	"math/rand"
	"path/filepath"
	"slices"
	"testing"

	"github.com/samcharles93/magicube/internal/layout"
	"github.com/samcharles93/magicube/internal/precision"
	"github.com/samcharles93/magicube/internal/quant"
	"github.com/samcharles93/magicube/internal/smtx"
	"github.com/samcharles93/magicube/pkg/lcf"
)

func goldenFor(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i*7 - n)
	}
	return out
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		pair precision.Pair
		vl   int
	}{
		{name: "int8", pair: precision.Int8Int8, vl: 4},
		{name: "int4", pair: precision.Int4Int4, vl: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewSource(7))
			m, err := smtx.Generate(rng, 5, 12, 0.6)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			a, err := quant.Random(rng, tc.pair.ABits(), m.NNZVec*tc.vl)
			if err != nil {
				t.Fatalf("operand A: %v", err)
			}
			const k = 16
			b, err := quant.Random(rng, tc.pair.BBits(), m.N*k)
			if err != nil {
				t.Fatalf("operand B: %v", err)
			}
			p, err := layout.Build(m, a, tc.pair, tc.vl)
			if err != nil {
				t.Fatalf("build: %v", err)
			}

			in := &Bundle{
				Info:           Describe(p, m.N, k),
				Packed:         p,
				RowPermutation: []int{4, 3, 2, 1, 0},
				B:              b,
				Golden:         goldenFor(m.MVec*tc.vl*k),
			}
			in.Info.Kernel = "host"
			path := filepath.Join(t.TempDir(), "launch.lcf")
			if err := WriteFile(path, in); err != nil {
				t.Fatalf("write: %v", err)
			}
			out, err := ReadFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}

			if out.Info != in.Info {
				t.Fatalf("info mismatch: got %+v want %+v", out.Info, in.Info)
			}
			if out.Info.NNZVec != m.NNZVec {
				t.Fatalf("nnz_vec: got %d want %d", out.Info.NNZVec, m.NNZVec)
			}
			if out.Packed.Pair != tc.pair {
				t.Fatalf("pair: got %v want %v", out.Packed.Pair, tc.pair)
			}
			if !slices.Equal(out.Packed.Aligned.RowOffsets, p.Aligned.RowOffsets) {
				t.Fatalf("row offsets mismatch")
			}
			if !slices.Equal(out.Packed.Aligned.ColIndices, p.Aligned.ColIndices) {
				t.Fatalf("logical column indices mismatch")
			}
			if !slices.Equal(out.Packed.ColIndices, p.ColIndices) {
				t.Fatalf("packed column indices mismatch")
			}
			if !bytes.Equal(out.Packed.Values, p.Values) {
				t.Fatalf("values mismatch")
			}
			if !slices.Equal(out.RowPermutation, in.RowPermutation) {
				t.Fatalf("permutation: got %v want %v", out.RowPermutation, in.RowPermutation)
			}
			if out.B.Len != b.Len || !bytes.Equal(out.B.Data, b.Data) {
				t.Fatalf("operand B mismatch")
			}
			if !slices.Equal(out.Golden, in.Golden) {
				t.Fatalf("golden: got %v want %v", out.Golden, in.Golden)
			}
		})
	}
}

func TestWriteFileRejectsIncompleteBundle(t *testing.T) {
	t.Parallel()

	if err := WriteFile(filepath.Join(t.TempDir(), "x.lcf"), &Bundle{}); err == nil {
		t.Fatalf("expected error for empty bundle")
	}
}

func TestReadFileRejectsInconsistentBundle(t *testing.T) {
	t.Parallel()

	const k = 16
	build := func(t *testing.T) *Bundle {
		t.Helper()
		rng := rand.New(rand.NewSource(11))
		m, err := smtx.Generate(rng, 4, 40, 0.5)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		a, err := quant.Random(rng, 8, m.NNZVec*4)
		if err != nil {
			t.Fatal(err)
		}
		b, err := quant.Random(rng, 8, m.N*k)
		if err != nil {
			t.Fatal(err)
		}
		p, err := layout.Build(m, a, precision.Int8Int8, 4)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		return &Bundle{Info: Describe(p, m.N, k), Packed: p, RowPermutation: []int{0, 1, 2, 3}, B: b}
	}

	tests := []struct {
		name   string
		mutate func(b *Bundle)
	}{
		{"truncated values", func(b *Bundle) { b.Packed.Values = b.Packed.Values[:len(b.Packed.Values)/2] }},
		{"short permutation", func(b *Bundle) { b.RowPermutation = b.RowPermutation[:3] }},
		{"lane width", func(b *Bundle) { b.Info.LaneWidth = 64 }},
		{"mma depth", func(b *Bundle) { b.Info.MMAKDim = 32 }},
		{"row past columns", func(b *Bundle) {
			off := b.Packed.Aligned.RowOffsets
			off[len(off)-1] = b.Packed.Aligned.Len() + 1
		}},
		{"golden size", func(b *Bundle) { b.Golden = []int32{1, 2, 3} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := build(t)
			if err := in.Validate(); err != nil {
				t.Fatalf("unmodified bundle rejected: %v", err)
			}
			tt.mutate(in)
			path := filepath.Join(t.TempDir(), "launch.lcf")
			if err := WriteFile(path, in); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := ReadFile(path); !errors.Is(err, lcf.ErrCorruptFile) {
				t.Fatalf("ReadFile() = %v, want ErrCorruptFile", err)
			}
		})
	}
}
