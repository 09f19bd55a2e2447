package reference

import (
	"fmt"

	"github.com/samcharles93/magicube/internal/ell"
	"github.com/samcharles93/magicube/internal/quant"
)

// Dense computes C = A * B for a dense M x N A and N x K B, both row-major.
func Dense(a, b *quant.Operand, m, n, k int) (*Result, error) {
	if a == nil || b == nil {
		return nil, violation("missing operand")
	}
	if a.Len < m*n {
		return nil, violation("A holds %d values, need %d", a.Len, m*n)
	}
	if b.Len < n*k {
		return nil, violation("B holds %d values, need %d", b.Len, n*k)
	}
	out := NewOutput(m, k)
	var ops int64
	for i := 0; i < m; i++ {
		row := out.Data[i*k : (i+1)*k]
		for x := 0; x < n; x++ {
			av := int32(a.At(i*n + x))
			for j := 0; j < k; j++ {
				row[j] += av * int32(b.At(x*k+j))
				ops += 2
			}
		}
	}
	return &Result{Output: out, Ops: ops}, nil
}

// BlockedELL computes C = A * B for a blocked-ELL A whose values are stored
// as Rows() x EllCols() row-major, and a Cols() x K row-major B.
func BlockedELL(e *ell.Matrix, a, b *quant.Operand, k int) (*Result, error) {
	if a == nil || b == nil {
		return nil, violation("missing operand")
	}
	rows, width := e.Rows(), e.EllCols()
	if a.Len < rows*width {
		return nil, violation("A holds %d values, need %d", a.Len, rows*width)
	}
	if b.Len < e.Cols()*k {
		return nil, violation("B holds %d values, need %d", b.Len, e.Cols()*k)
	}
	if len(e.Columns) != e.RowBlocks*e.BlocksPerRow {
		return nil, fmt.Errorf("reference: blocked-ELL has %d column blocks, want %d", len(e.Columns), e.RowBlocks*e.BlocksPerRow)
	}

	bs := e.BlockSize
	out := NewOutput(rows, k)
	var ops int64
	for i := 0; i < e.RowBlocks; i++ {
		blocks := e.Row(i)
		for v := 0; v < bs; v++ {
			r := i*bs + v
			row := out.Data[r*k : (r+1)*k]
			for c, cb := range blocks {
				for cv := 0; cv < bs; cv++ {
					av := int32(a.At(r*width + c*bs + cv))
					brow := (cb*bs + cv) * k
					for j := 0; j < k; j++ {
						row[j] += av * int32(b.At(brow+j))
						ops += 2
					}
				}
			}
		}
	}
	return &Result{Output: out, Ops: ops}, nil
}
