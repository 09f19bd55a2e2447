package smtx

import (
	"fmt"
	"math/rand"
)

// Generate builds a random m_vec x n vector-CSR matrix in which each column
// group of each row is nonzero with probability 1-sparsity.
func Generate(rng *rand.Rand, mVec, n int, sparsity float64) (*Matrix, error) {
	if mVec < 0 || n < 0 {
		return nil, fmt.Errorf("smtx: negative dimensions %dx%d", mVec, n)
	}
	if sparsity < 0 || sparsity > 1 {
		return nil, fmt.Errorf("smtx: sparsity %.3f outside [0,1]", sparsity)
	}
	density := 1 - sparsity

	m := &Matrix{
		MVec:       mVec,
		N:          n,
		RowOffsets: make([]int, mVec+1),
		ColIndices: make([]int, 0, int(float64(mVec*n)*density)+1),
	}
	for i := 0; i < mVec; i++ {
		for c := 0; c < n; c++ {
			if rng.Float64() < density {
				m.ColIndices = append(m.ColIndices, c)
			}
		}
		m.RowOffsets[i+1] = len(m.ColIndices)
	}
	m.NNZVec = len(m.ColIndices)
	return m, nil
}
