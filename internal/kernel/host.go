package kernel

import (
	"context"
	"fmt"
)

// HostKernel emulates the device kernels on the CPU. The sparse path reads
// only the packed buffers, so it checks the layout end to end.
type HostKernel struct{}

func NewHost() *HostKernel {
	return &HostKernel{}
}

func (h *HostKernel) Name() string {
	return Host
}

func (h *HostKernel) Spmm(ctx context.Context, l *Launch) error {
	if err := l.Validate(); err != nil {
		return err
	}
	p := l.Packed
	vl, k := l.VecLength, l.K
	clear(l.Output)

	for _, i := range l.RowPermutation {
		if err := ctx.Err(); err != nil {
			return err
		}
		for pos := p.Aligned.Start(i); pos < p.Aligned.End(i); pos++ {
			col := p.Column(pos)
			if col < 0 || col >= l.N {
				return fmt.Errorf("%w: row %d column %d outside [0,%d)", ErrLaunch, i, col, l.N)
			}
			bRow := col * k
			for sub := 0; sub < vl; sub++ {
				a := int32(p.Value(pos, sub))
				if a == 0 {
					continue
				}
				r := i*vl + sub
				out := l.Output[r*k : (r+1)*k]
				for j := range out {
					out[j] += a * int32(l.B.At(bRow+j))
				}
			}
		}
	}
	return nil
}

func (h *HostKernel) Dense(ctx context.Context, l *DenseLaunch) error {
	if l.A == nil || l.B == nil || l.A.Len < l.M*l.N || l.B.Len < l.N*l.K || len(l.Output) != l.M*l.K {
		return fmt.Errorf("%w: dense %dx%dx%d", ErrLaunch, l.M, l.N, l.K)
	}
	clear(l.Output)
	for i := 0; i < l.M; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := l.Output[i*l.K : (i+1)*l.K]
		for x := 0; x < l.N; x++ {
			a := int32(l.A.At(i*l.N + x))
			if a == 0 {
				continue
			}
			bRow := x * l.K
			for j := range out {
				out[j] += a * int32(l.B.At(bRow+j))
			}
		}
	}
	return nil
}

func (h *HostKernel) ELL(ctx context.Context, l *ELLLaunch) error {
	e := l.Matrix
	if e == nil || l.A == nil || l.B == nil {
		return fmt.Errorf("%w: missing blocked-ELL buffers", ErrLaunch)
	}
	rows, width, bs := e.Rows(), e.EllCols(), e.BlockSize
	if l.A.Len < rows*width || l.B.Len < e.Cols()*l.K || len(l.Output) != rows*l.K {
		return fmt.Errorf("%w: blocked-ELL %dx%d, k=%d", ErrLaunch, rows, e.Cols(), l.K)
	}
	clear(l.Output)
	for r := 0; r < rows; r++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := l.Output[r*l.K : (r+1)*l.K]
		for c, cb := range e.Row(r / bs) {
			for cv := 0; cv < bs; cv++ {
				a := int32(l.A.At(r*width + c*bs + cv))
				if a == 0 {
					continue
				}
				bRow := (cb*bs + cv) * l.K
				for j := range out {
					out[j] += a * int32(l.B.At(bRow+j))
				}
			}
		}
	}
	return nil
}
