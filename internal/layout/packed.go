package layout

import (
	"fmt"

	"github.com/samcharles93/magicube/internal/precision"
	"github.com/samcharles93/magicube/internal/quant"
	"github.com/samcharles93/magicube/internal/smtx"
)

// Packed holds the kernel-ready buffers for one sparse operand.
type Packed struct {
	Pair      precision.Pair
	VecLength int
	Aligned   *Aligned
	// ColIndices is Aligned.ColIndices, interleaved when the pair requires it.
	ColIndices []int
	// Values holds one group of VecLength A values per padded nonzero in
	// MMA fragment order.
	Values []byte
}

// Build aligns m and packs the A operand values for pair.
//
// values must hold m.NNZVec*vecLength elements of pair.ABits() bits, one
// vector of vecLength elements per nonzero.
func Build(m *smtx.Matrix, values *quant.Operand, pair precision.Pair, vecLength int) (*Packed, error) {
	if err := pair.CheckVecLength(vecLength); err != nil {
		return nil, err
	}
	if values.Bits != pair.ABits() {
		return nil, fmt.Errorf("%w: operand is %d-bit, pair %v wants %d", ErrValueSize, values.Bits, pair, pair.ABits())
	}
	aligned, err := Align(m, pair)
	if err != nil {
		return nil, err
	}
	group := pair.ValueBytes(vecLength)
	padded, err := AlignValues(m, aligned, values.Data, group)
	if err != nil {
		return nil, err
	}

	p := &Packed{
		Pair:       pair,
		VecLength:  vecLength,
		Aligned:    aligned,
		ColIndices: aligned.ColIndices,
	}
	switch pair.MMAKDim() {
	case 16:
		p.Values, err = TransposeK16(padded, vecLength)
	case 32:
		p.Values, err = TransposeK32(padded, vecLength)
	default:
		return nil, fmt.Errorf("%w: %v", precision.ErrUnsupportedPrecision, pair)
	}
	if err != nil {
		return nil, err
	}
	if pair.ShuffleColumns() {
		p.ColIndices, err = ShuffleColumns(aligned.ColIndices)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Validate checks that the buffers of p agree with each other, so that
// Column and Value stay in bounds for every row range of p.Aligned.
func (p *Packed) Validate() error {
	if p == nil || p.Aligned == nil {
		return fmt.Errorf("%w: missing aligned layout", ErrInconsistent)
	}
	if p.Pair.MMAKDim() == 0 {
		return fmt.Errorf("%w: %v", precision.ErrUnsupportedPrecision, p.Pair)
	}
	if err := p.Pair.CheckVecLength(p.VecLength); err != nil {
		return err
	}
	a := p.Aligned
	lane := p.Pair.LaneWidth()
	if a.LaneWidth != lane {
		return fmt.Errorf("%w: lane width %d, %v needs %d", ErrInconsistent, a.LaneWidth, p.Pair, lane)
	}
	n := a.Len()
	if n%lane != 0 {
		return fmt.Errorf("%w: %d padded nonzeros is not a multiple of lane %d", ErrInconsistent, n, lane)
	}
	if len(a.RowOffsets)%2 != 0 {
		return fmt.Errorf("%w: odd row offset count %d", ErrInconsistent, len(a.RowOffsets))
	}
	if len(p.ColIndices) != n {
		return fmt.Errorf("%w: %d column indices, %d padded nonzeros", ErrInconsistent, len(p.ColIndices), n)
	}
	if want := n * p.Pair.ValueBytes(p.VecLength); len(p.Values) != want {
		return fmt.Errorf("%w: %d value bytes, want %d", ErrValueSize, len(p.Values), want)
	}
	prevEnd := 0
	for i := 0; i < a.Rows(); i++ {
		start, end := a.Start(i), a.End(i)
		if start < prevEnd || start%lane != 0 || end < start || end > n {
			return fmt.Errorf("%w: row %d spans [%d,%d) of %d", ErrInconsistent, i, start, end, n)
		}
		// Padding after end belongs to row i.
		prevEnd = start + (end-start+lane-1)/lane*lane
	}
	return nil
}

// Column returns the column-group index stored for padded position pos.
func (p *Packed) Column(pos int) int {
	if !p.Pair.ShuffleColumns() {
		return p.ColIndices[pos]
	}
	base := pos - pos%shuffleWidth
	return p.ColIndices[shuffledPos(base, pos%shuffleWidth)]
}

// Value decodes sub-row sub of the nonzero at padded position pos directly
// from the packed buffer.
func (p *Packed) Value(pos, sub int) uint8 {
	switch p.Pair.MMAKDim() {
	case 16:
		const k = 16
		chunk, j := pos/k, pos%k
		return p.Values[chunk*k*p.VecLength+sub*k+j]
	case 32:
		const k = 32
		half := p.VecLength / 2
		chunk, j := pos/k, pos%k
		idx := chunk*k*half + k*(sub/2) + j/2
		if sub%2 == 1 {
			idx += k / 2
		}
		return (p.Values[idx] >> uint((j%2)*4)) & nibbleMask
	default:
		panic(fmt.Sprintf("layout: no packed value order for %v", p.Pair))
	}
}

// Unpacked returns the padded value groups in aligned (pre-transpose) order.
func (p *Packed) Unpacked() ([]byte, error) {
	switch p.Pair.MMAKDim() {
	case 16:
		return UntransposeK16(p.Values, p.VecLength)
	case 32:
		return UntransposeK32(p.Values, p.VecLength)
	default:
		return nil, fmt.Errorf("%w: %v", precision.ErrUnsupportedPrecision, p.Pair)
	}
}
