// Package layout turns a vector-CSR matrix and its quantized values into the
// buffers an MMA SpMM kernel reads: lane-aligned row offsets, zero-padded
// column indices, and values reordered into fragment-load order.
package layout

import (
	"fmt"

	"github.com/samcharles93/magicube/internal/precision"
	"github.com/samcharles93/magicube/internal/smtx"
)

// Aligned is a vector-CSR matrix whose rows start on lane-width boundaries.
//
// RowOffsets holds two entries per row: the padded start and the logical end
// (where padding begins). ColIndices is zero beyond each row's real entries.
type Aligned struct {
	LaneWidth  int
	RowOffsets []int
	ColIndices []int
}

// Len is the total padded nonzero count.
func (a *Aligned) Len() int {
	return len(a.ColIndices)
}

// Rows returns the number of row groups.
func (a *Aligned) Rows() int {
	return len(a.RowOffsets) / 2
}

// Start returns the padded start of row i.
func (a *Aligned) Start(i int) int {
	return a.RowOffsets[2*i]
}

// End returns the logical end of row i.
func (a *Aligned) End(i int) int {
	return a.RowOffsets[2*i+1]
}

// Align pads each row of m to the lane width of pair.
func Align(m *smtx.Matrix, pair precision.Pair) (*Aligned, error) {
	lane := pair.LaneWidth()
	if lane == 0 {
		return nil, fmt.Errorf("%w: %v", precision.ErrUnsupportedPrecision, pair)
	}
	return AlignRows(m, lane)
}

// AlignRows pads each row of m to a multiple of lane entries.
func AlignRows(m *smtx.Matrix, lane int) (*Aligned, error) {
	if lane <= 0 {
		return nil, fmt.Errorf("layout: lane width %d must be positive", lane)
	}
	offsets := make([]int, 2*m.MVec)
	total := 0
	for i := 0; i < m.MVec; i++ {
		n := m.RowLen(i)
		offsets[2*i] = total
		offsets[2*i+1] = total + n
		total += (n + lane - 1) / lane * lane
	}

	cols := make([]int, total)
	for i := 0; i < m.MVec; i++ {
		copy(cols[offsets[2*i]:], m.Row(i))
	}
	return &Aligned{
		LaneWidth:  lane,
		RowOffsets: offsets,
		ColIndices: cols,
	}, nil
}

// AlignValues applies the row padding of a to values, which holds one group
// of groupBytes bytes per logical nonzero. Padding groups are zero.
func AlignValues(m *smtx.Matrix, a *Aligned, values []byte, groupBytes int) ([]byte, error) {
	if groupBytes <= 0 {
		return nil, fmt.Errorf("%w: group of %d bytes", ErrValueSize, groupBytes)
	}
	if len(values) < m.NNZVec*groupBytes {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrValueSize, len(values), m.NNZVec*groupBytes)
	}
	out := make([]byte, a.Len()*groupBytes)
	for i := 0; i < m.MVec; i++ {
		begin := m.RowOffsets[i] * groupBytes
		end := m.RowOffsets[i+1] * groupBytes
		copy(out[a.Start(i)*groupBytes:], values[begin:end])
	}
	return out, nil
}
