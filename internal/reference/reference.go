// Package reference computes bit-exact golden outputs for quantized SpMM.
package reference

import (
	"errors"
	"fmt"

	"github.com/samcharles93/magicube/internal/precision"
	"github.com/samcharles93/magicube/internal/quant"
	"github.com/samcharles93/magicube/internal/smtx"
)

// wordBits is the machine word B is packed into.
const wordBits = 32

// Sparse describes a vector-CSR product C = A * B.
//
// A holds VecLength ABits-wide values per nonzero vector, in nonzero order.
// B is an N x K row-major matrix of BBits-wide values.
type Sparse struct {
	Matrix    *smtx.Matrix
	A         *quant.Operand
	B         *quant.Operand
	ABits     int
	BBits     int
	VecLength int
	K         int
}

// Rows is the dense output row count.
func (p *Sparse) Rows() int {
	return p.Matrix.MVec * p.VecLength
}

// ComputeSparse evaluates p over the unaligned CSR.
func ComputeSparse(p Sparse) (*Result, error) {
	if err := checkOperands(p.A, p.B, p.ABits, p.BBits); err != nil {
		return nil, err
	}
	bTile := quant.ElementsPerWord(wordBits, p.BBits)
	if p.K <= 0 || p.K%bTile != 0 {
		return nil, fmt.Errorf("%w: k=%d is not a multiple of %d", precision.ErrUnsupportedPrecision, p.K, bTile)
	}
	if p.VecLength <= 0 || p.VecLength*p.ABits > 64 {
		return nil, fmt.Errorf("%w: vec_length %d of %d-bit values", precision.ErrUnsupportedPrecision, p.VecLength, p.ABits)
	}

	m := p.Matrix
	kBlocks := p.K / bTile
	out := NewOutput(p.Rows(), p.K)
	var ops int64

	aVals := make([]int32, p.VecLength)
	for i := 0; i < m.MVec; i++ {
		for j := m.RowOffsets[i]; j < m.RowOffsets[i+1]; j++ {
			col := m.ColIndices[j]
			aWord, err := p.A.Word(j, p.VecLength)
			if err != nil {
				return nil, wrapWord("A", j, err)
			}
			for av := range aVals {
				v, err := unpackChecked(aWord, av, p.ABits, p.VecLength*p.ABits)
				if err != nil {
					return nil, fmt.Errorf("A nonzero %d: %w", j, err)
				}
				aVals[av] = int32(v)
			}
			for av, a := range aVals {
				row := out.Data[(i*p.VecLength+av)*p.K:]
				for kb := 0; kb < kBlocks; kb++ {
					idx := col*kBlocks + kb
					bWord, err := p.B.Word(idx, bTile)
					if err != nil {
						return nil, wrapWord("B", idx, err)
					}
					for bv := 0; bv < bTile; bv++ {
						b, err := unpackChecked(bWord, bv, p.BBits, wordBits)
						if err != nil {
							return nil, fmt.Errorf("B word %d: %w", idx, err)
						}
						row[kb*bTile+bv] += a * int32(b)
						ops += 2
					}
				}
			}
		}
	}
	return &Result{Output: out, Ops: ops}, nil
}

// unpackChecked extracts element sub of a width-bit word. Bits above width
// mean the word was read past its operand group.
func unpackChecked(word uint64, sub, bits, width int) (uint64, error) {
	if (sub+1)*bits > width {
		return 0, violation("element %d of %d bits overruns a %d-bit word", sub, bits, width)
	}
	if width < 64 && word>>width != 0 {
		return 0, violation("word %#x has bits set above bit %d", word, width)
	}
	return quant.Unpack(word, sub, bits), nil
}

func checkOperands(a, b *quant.Operand, aBits, bBits int) error {
	if a == nil || b == nil {
		return violation("missing operand")
	}
	if a.Bits != aBits {
		return violation("A packed as %d-bit, declared %d-bit", a.Bits, aBits)
	}
	if b.Bits != bBits {
		return violation("B packed as %d-bit, declared %d-bit", b.Bits, bBits)
	}
	return nil
}

func wrapWord(name string, idx int, err error) error {
	if errors.Is(err, quant.ErrWordRange) {
		return violation("%s word %d: %v", name, idx, err)
	}
	return fmt.Errorf("%s word %d: %w", name, idx, err)
}
