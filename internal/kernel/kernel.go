// Package kernel defines the SpMM kernel boundary and the kernels available
// to this build.
package kernel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samcharles93/magicube/internal/ell"
	"github.com/samcharles93/magicube/internal/layout"
	"github.com/samcharles93/magicube/internal/precision"
	"github.com/samcharles93/magicube/internal/quant"
)

const (
	WMMA     = "wmma"
	CUDA     = "cuda"
	Sputnik  = "sputnik"
	CuSPARSE = "cusparse"
	Host     = "host"
)

// numeric selectors accepted for compatibility with benchmark scripts.
var numbered = []string{WMMA, CUDA, Sputnik, CuSPARSE}

// Kernel runs C = A * B for a packed vector-sparse A.
type Kernel interface {
	Name() string
	Spmm(ctx context.Context, l *Launch) error
}

// DenseKernel is implemented by kernels with a dense baseline path.
type DenseKernel interface {
	Dense(ctx context.Context, l *DenseLaunch) error
}

// ELLKernel is implemented by kernels with a blocked-ELL path.
type ELLKernel interface {
	ELL(ctx context.Context, l *ELLLaunch) error
}

// Launch carries read-only packed inputs and the output buffer of one call.
//
// Output is MVec*VecLength x K row-major and is overwritten.
type Launch struct {
	MVec           int
	VecLength      int
	K              int
	N              int
	RowPermutation []int
	Packed         *layout.Packed
	B              *quant.Operand
	Output         []int32
}

// Validate checks that the buffers agree with the declared shape.
func (l *Launch) Validate() error {
	if l.Packed == nil || l.Packed.Aligned == nil || l.B == nil {
		return fmt.Errorf("%w: missing buffers", ErrLaunch)
	}
	p := l.Packed
	if l.K <= 0 || l.MVec < 0 || l.N < 0 {
		return fmt.Errorf("%w: shape m_vec=%d n=%d k=%d", ErrLaunch, l.MVec, l.N, l.K)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	if p.VecLength != l.VecLength {
		return fmt.Errorf("%w: packed for vec_length %d, launched with %d", ErrLaunch, p.VecLength, l.VecLength)
	}
	if p.Aligned.Rows() != l.MVec || len(l.RowPermutation) != l.MVec {
		return fmt.Errorf("%w: %d aligned rows, %d permuted, m_vec %d", ErrLaunch, p.Aligned.Rows(), len(l.RowPermutation), l.MVec)
	}
	if l.B.Bits != p.Pair.BBits() || l.B.Len < l.N*l.K {
		return fmt.Errorf("%w: B holds %d %d-bit values, want %d %d-bit", ErrLaunch, l.B.Len, l.B.Bits, l.N*l.K, p.Pair.BBits())
	}
	if len(l.Output) != l.MVec*l.VecLength*l.K {
		return fmt.Errorf("%w: output holds %d values, want %d", ErrLaunch, len(l.Output), l.MVec*l.VecLength*l.K)
	}
	for pos, c := range p.ColIndices {
		if c < 0 || c >= l.N {
			return fmt.Errorf("%w: column %d at position %d outside [0,%d)", ErrLaunch, c, pos, l.N)
		}
	}
	seen := make([]bool, l.MVec)
	for _, r := range l.RowPermutation {
		if r < 0 || r >= l.MVec || seen[r] {
			return fmt.Errorf("%w: row permutation is not a bijection", ErrLaunch)
		}
		seen[r] = true
	}
	return nil
}

// DenseLaunch is a dense M x N by N x K product.
type DenseLaunch struct {
	M, N, K int
	A, B    *quant.Operand
	Output  []int32
}

// ELLLaunch is a blocked-ELL product. A holds Matrix.Rows() x
// Matrix.EllCols() values and B holds Matrix.Cols() x K values.
type ELLLaunch struct {
	Matrix *ell.Matrix
	K      int
	A, B   *quant.Operand
	Output []int32
}

// Normalize maps a selector name or its numeric alias to a canonical name.
func Normalize(name string) (string, error) {
	sel := strings.ToLower(strings.TrimSpace(name))
	if sel == "" {
		return Host, nil
	}
	if n, err := strconv.Atoi(sel); err == nil {
		if n < 0 || n >= len(numbered) {
			return "", fmt.Errorf("unknown kernel selector %d (expected 0-%d)", n, len(numbered)-1)
		}
		return numbered[n], nil
	}
	switch sel {
	case WMMA, CUDA, Sputnik, CuSPARSE, Host:
		return sel, nil
	default:
		return "", fmt.Errorf("unknown kernel %q (expected wmma, cuda, sputnik, cusparse, or host)", sel)
	}
}

// CheckSupport reports whether kernel name can run pair at vecLength.
func CheckSupport(name string, pair precision.Pair, vecLength int) error {
	switch name {
	case Sputnik, CuSPARSE:
		return fmt.Errorf("%w: %s kernel only runs floating point operands, not %v", precision.ErrUnsupportedPrecision, name, pair)
	case WMMA:
		switch vecLength {
		case 2, 4, 8:
			return nil
		default:
			return fmt.Errorf("%w: wmma needs vec_length 2, 4, or 8, got %d", ErrUnsupported, vecLength)
		}
	case CUDA, Host:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnavailable, name)
	}
}

// Options configures New.
type Options struct {
	// Command is the harness executable for GPU selectors.
	Command string
	// Args are passed to Command ahead of the launch arguments.
	Args []string
	// ScratchDir holds launch containers. Empty uses the system temp dir.
	ScratchDir string
}

// New returns the kernel for a normalized selector.
func New(name string, opts Options) (Kernel, error) {
	switch name {
	case Host:
		return NewHost(), nil
	case WMMA, CUDA:
		if opts.Command == "" {
			return nil, fmt.Errorf("%w: %s kernel is not built in; configure a kernel command", ErrUnavailable, name)
		}
		return &External{
			Selector:   name,
			Command:    opts.Command,
			Args:       opts.Args,
			ScratchDir: opts.ScratchDir,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, name)
	}
}

// Available returns a comma-separated list of selectors New can build
// with the given options.
func Available(opts Options) string {
	entries := []string{Host}
	if opts.Command != "" {
		entries = append(entries, WMMA, CUDA)
	}
	return strings.Join(entries, ",")
}
