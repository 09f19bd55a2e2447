// Package ell describes blocked-ELLPACK sparsity: every row block holds the
// same number of BlockSize x BlockSize nonzero blocks.
package ell

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/samcharles93/magicube/internal/smtx"
)

type Matrix struct {
	RowBlocks    int
	ColBlocks    int
	BlockSize    int
	BlocksPerRow int
	// Columns lists BlocksPerRow column-block indices per row block.
	Columns []int
}

// Rows is the dense row count.
func (m *Matrix) Rows() int { return m.RowBlocks * m.BlockSize }

// Cols is the dense column count, padded to whole blocks.
func (m *Matrix) Cols() int { return m.ColBlocks * m.BlockSize }

// EllCols is the stored width of each dense row of values.
func (m *Matrix) EllCols() int { return m.BlocksPerRow * m.BlockSize }

// Row returns the column-block indices of row block i.
func (m *Matrix) Row(i int) []int {
	return m.Columns[i*m.BlocksPerRow : (i+1)*m.BlocksPerRow]
}

// FromShape derives blocked-ELL dimensions with the same density as src:
// each row block keeps int(colBlocks*density)+1 blocks, capped at colBlocks.
func FromShape(src *smtx.Matrix, blockSize int) (rowBlocks, colBlocks, perRow int, err error) {
	if blockSize <= 0 {
		return 0, 0, 0, fmt.Errorf("ell: block size %d must be positive", blockSize)
	}
	colBlocks = (src.N + blockSize - 1) / blockSize
	perRow = int(float64(colBlocks)*src.Density()) + 1
	if perRow > colBlocks {
		perRow = colBlocks
	}
	return src.MVec, colBlocks, perRow, nil
}

// GenerateUniform picks perRow distinct column blocks for each row block.
func GenerateUniform(rng *rand.Rand, rowBlocks, colBlocks, perRow, blockSize int) (*Matrix, error) {
	if perRow > colBlocks {
		return nil, fmt.Errorf("ell: %d blocks per row exceeds %d column blocks", perRow, colBlocks)
	}
	if rowBlocks < 0 || perRow < 0 || blockSize <= 0 {
		return nil, fmt.Errorf("ell: invalid shape %dx%d (%d per row, block %d)", rowBlocks, colBlocks, perRow, blockSize)
	}
	m := &Matrix{
		RowBlocks:    rowBlocks,
		ColBlocks:    colBlocks,
		BlockSize:    blockSize,
		BlocksPerRow: perRow,
		Columns:      make([]int, 0, rowBlocks*perRow),
	}
	for range rowBlocks {
		picks := rng.Perm(colBlocks)[:perRow]
		slices.Sort(picks)
		m.Columns = append(m.Columns, picks...)
	}
	return m, nil
}
