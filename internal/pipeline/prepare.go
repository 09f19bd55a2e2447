package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/samcharles93/magicube/internal/ell"
	"github.com/samcharles93/magicube/internal/layout"
	"github.com/samcharles93/magicube/internal/logger"
	"github.com/samcharles93/magicube/internal/precision"
	"github.com/samcharles93/magicube/internal/quant"
	"github.com/samcharles93/magicube/internal/reference"
	"github.com/samcharles93/magicube/internal/smtx"
	"github.com/samcharles93/magicube/internal/swizzle"
)

// Stage is the wall time of one pipeline step.
type Stage struct {
	Name   string  `json:"name"`
	Millis float64 `json:"ms"`
}

// Prepared holds every input of a kernel launch, built once and read-only
// afterwards.
type Prepared struct {
	Config Config
	Pair   precision.Pair
	Matrix *smtx.Matrix

	// A and B are the generated operands. In sparse mode A holds one
	// VecLength group per nonzero vector; in dense and ell modes it is the
	// row-major value matrix.
	A *quant.Operand
	B *quant.Operand

	// Sparse mode only.
	Packed      *layout.Packed
	Permutation swizzle.Permutation

	// ELL mode only.
	ELL *ell.Matrix

	// OutputRows is the row count of the m x K output.
	OutputRows int
	// Ops is the multiply-add operation count of one product.
	Ops int64
	// Golden is nil unless Config.Verify is set.
	Golden *reference.Result
	Stages []Stage
}

// Prepare validates cfg and builds all kernel inputs and, if requested, the
// golden output. It stops before any kernel runs.
func Prepare(ctx context.Context, cfg Config) (*Prepared, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With("mode", string(cfg.Mode))
	p := &Prepared{Config: cfg, Pair: cfg.Pair()}

	if err := p.stage(log, "load", p.load); err != nil {
		return nil, err
	}
	m := p.Matrix
	if err := p.Config.CheckBudget(m); err != nil {
		return nil, err
	}
	log.Info("benchmark loaded",
		"m_vec", m.MVec, "n", m.N, "nnz_vec", m.NNZVec,
		"density", m.Density(), "pair", p.Pair.String(), "vec_length", cfg.VecLength, "k", cfg.K)

	rng := rand.New(rand.NewSource(cfg.Seed))
	var build func() error
	switch cfg.Mode {
	case ModeDense:
		build = func() error { return p.buildDense(rng) }
	case ModeELL:
		build = func() error { return p.buildELL(rng) }
	default:
		build = func() error { return p.buildSparse(rng, log) }
	}
	if err := p.stage(log, "operands", build); err != nil {
		return nil, err
	}

	if cfg.Verify {
		if err := p.stage(log, "reference", p.reference); err != nil {
			return nil, err
		}
		if p.Golden.Ops != p.Ops {
			return nil, fmt.Errorf("%w: reference counted %d ops, expected %d", reference.ErrInvariantViolation, p.Golden.Ops, p.Ops)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Prepared) stage(log logger.Logger, name string, fn func() error) error {
	start := time.Now()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	elapsed := time.Since(start)
	p.Stages = append(p.Stages, Stage{Name: name, Millis: millis(elapsed)})
	log.Debug("stage complete", "stage", name, "elapsed", elapsed)
	return nil
}

func (p *Prepared) load() error {
	if p.Config.Matrix != nil {
		p.Matrix = p.Config.Matrix
		return p.Matrix.Validate()
	}
	m, err := smtx.LoadFile(p.Config.SourcePath)
	if err != nil {
		return err
	}
	p.Matrix = m
	return nil
}

func (p *Prepared) buildSparse(rng *rand.Rand, log logger.Logger) error {
	cfg, m := p.Config, p.Matrix
	var err error
	if p.A, err = quant.Random(rng, p.Pair.ABits(), m.NNZVec*cfg.VecLength); err != nil {
		return err
	}
	if p.B, err = quant.Random(rng, p.Pair.BBits(), m.N*cfg.K); err != nil {
		return err
	}
	if p.Packed, err = layout.Build(m, p.A, p.Pair, cfg.VecLength); err != nil {
		return err
	}
	policy := swizzle.Identity
	if cfg.SortRows {
		policy = swizzle.Balanced
	}
	p.Permutation = swizzle.Rows(m, policy)
	p.OutputRows = m.MVec * cfg.VecLength
	p.Ops = 2 * int64(m.NNZVec) * int64(cfg.VecLength) * int64(cfg.K)

	log.Debug("layout packed",
		"lane_width", p.Packed.Aligned.LaneWidth,
		"aligned_nnz", p.Packed.Aligned.Len(),
		"mma_k_dim", p.Pair.MMAKDim(),
		"value_bytes", len(p.Packed.Values),
		"shuffled", p.Pair.ShuffleColumns(),
		"swizzle", policy.String())
	return nil
}

func (p *Prepared) buildDense(rng *rand.Rand) error {
	cfg, m := p.Config, p.Matrix
	rows := m.MVec * cfg.VecLength
	var err error
	if p.A, err = quant.Random(rng, p.Pair.ABits(), rows*m.N); err != nil {
		return err
	}
	if p.B, err = quant.Random(rng, p.Pair.BBits(), m.N*cfg.K); err != nil {
		return err
	}
	p.OutputRows = rows
	p.Ops = 2 * int64(rows) * int64(m.N) * int64(cfg.K)
	return nil
}

func (p *Prepared) buildELL(rng *rand.Rand) error {
	cfg := p.Config
	rowBlocks, colBlocks, perRow, err := ell.FromShape(p.Matrix, cfg.VecLength)
	if err != nil {
		return err
	}
	if p.ELL, err = ell.GenerateUniform(rng, rowBlocks, colBlocks, perRow, cfg.VecLength); err != nil {
		return err
	}
	e := p.ELL
	if p.A, err = quant.Random(rng, p.Pair.ABits(), e.Rows()*e.EllCols()); err != nil {
		return err
	}
	if p.B, err = quant.Random(rng, p.Pair.BBits(), e.Cols()*cfg.K); err != nil {
		return err
	}
	p.OutputRows = e.Rows()
	p.Ops = 2 * int64(e.Rows()) * int64(e.EllCols()) * int64(cfg.K)
	return nil
}

func (p *Prepared) reference() error {
	cfg := p.Config
	var err error
	switch cfg.Mode {
	case ModeDense:
		p.Golden, err = reference.Dense(p.A, p.B, p.OutputRows, p.Matrix.N, cfg.K)
	case ModeELL:
		p.Golden, err = reference.BlockedELL(p.ELL, p.A, p.B, cfg.K)
	default:
		p.Golden, err = reference.ComputeSparse(reference.Sparse{
			Matrix:    p.Matrix,
			A:         p.A,
			B:         p.B,
			ABits:     p.Pair.ABits(),
			BBits:     p.Pair.BBits(),
			VecLength: cfg.VecLength,
			K:         cfg.K,
		})
	}
	return err
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1e3
}
