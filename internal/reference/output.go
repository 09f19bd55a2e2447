package reference

// Output is a dense row-major int32 matrix.
type Output struct {
	Rows int
	Cols int
	Data []int32
}

func NewOutput(rows, cols int) *Output {
	return &Output{Rows: rows, Cols: cols, Data: make([]int32, rows*cols)}
}

func (o *Output) At(r, c int) int32 {
	return o.Data[r*o.Cols+c]
}

// Result is a golden output and the multiply-add operations spent on it.
type Result struct {
	Output *Output
	// Ops counts one multiply and one add per accumulation.
	Ops int64
}

// GOps is Ops in units of 2^30.
func (r *Result) GOps() float64 {
	return float64(r.Ops) / (1 << 30)
}
