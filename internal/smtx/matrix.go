// Package smtx reads and writes vector-CSR sparse matrix benchmarks.
//
// A benchmark file is three lines of base-10 integers:
//
//	m_vec, n, nnz_vec
//	row_offsets (m_vec+1 values, space separated)
//	col_indices (nnz_vec values, space separated)
//
// Each of the m_vec rows stands for a group of vec_length dense rows that
// share one sparsity pattern.
package smtx

// Matrix is a vector-CSR matrix. It must not be modified after Load.
type Matrix struct {
	MVec       int
	N          int
	NNZVec     int
	RowOffsets []int
	ColIndices []int
}

// RowLen returns the number of nonzero vectors in row group i.
func (m *Matrix) RowLen(i int) int {
	return m.RowOffsets[i+1] - m.RowOffsets[i]
}

// RowLens returns the nonzero count of every row group.
func (m *Matrix) RowLens() []int {
	out := make([]int, m.MVec)
	for i := range out {
		out[i] = m.RowLen(i)
	}
	return out
}

// Row returns the column-group indices of row group i.
func (m *Matrix) Row(i int) []int {
	return m.ColIndices[m.RowOffsets[i]:m.RowOffsets[i+1]]
}

// Validate checks the CSR invariants.
func (m *Matrix) Validate() error {
	if m.MVec < 0 || m.N < 0 || m.NNZVec < 0 {
		return malformed("negative header m_vec=%d n=%d nnz_vec=%d", m.MVec, m.N, m.NNZVec)
	}
	if len(m.RowOffsets) != m.MVec+1 {
		return malformed("got %d row offsets, want %d", len(m.RowOffsets), m.MVec+1)
	}
	if len(m.ColIndices) != m.NNZVec {
		return malformed("got %d column indices, want %d", len(m.ColIndices), m.NNZVec)
	}
	if m.RowOffsets[0] != 0 {
		return malformed("first row offset is %d, want 0", m.RowOffsets[0])
	}
	for i := 1; i <= m.MVec; i++ {
		if m.RowOffsets[i] < m.RowOffsets[i-1] {
			return malformed("row offset %d decreases (%d < %d)", i, m.RowOffsets[i], m.RowOffsets[i-1])
		}
	}
	if last := m.RowOffsets[m.MVec]; last != m.NNZVec {
		return malformed("final row offset %d does not match nnz_vec %d", last, m.NNZVec)
	}
	for j, c := range m.ColIndices {
		if c < 0 || c >= m.N {
			return malformed("column index %d at %d outside [0,%d)", c, j, m.N)
		}
	}
	return nil
}

// Density returns nnz_vec / (m_vec * n).
func (m *Matrix) Density() float64 {
	if m.MVec == 0 || m.N == 0 {
		return 0
	}
	return float64(m.NNZVec) / (float64(m.MVec) * float64(m.N))
}
