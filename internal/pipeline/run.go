package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"github.com/samcharles93/magicube/internal/bundle"
	"github.com/samcharles93/magicube/internal/kernel"
	"github.com/samcharles93/magicube/internal/logger"
	"github.com/samcharles93/magicube/internal/verify"
)

// Report summarizes one run.
type Report struct {
	Kernel     string  `json:"kernel"`
	Mode       Mode    `json:"matrix_mode"`
	Precision  string  `json:"precision"`
	MVec       int     `json:"m_vec"`
	N          int     `json:"n"`
	NNZVec     int     `json:"nnz_vec"`
	K          int     `json:"k"`
	VecLength  int     `json:"vec_length"`
	Density    float64 `json:"density"`
	SortRows   bool    `json:"sort_rows"`
	AlignedNNZ int     `json:"aligned_nnz,omitempty"`
	LaneWidth  int     `json:"lane_width,omitempty"`
	MMAKDim    int     `json:"mma_k_dim,omitempty"`
	Seed       int64   `json:"seed"`

	Ops          int64   `json:"ops"`
	ProfileRuns  int     `json:"profile_runs"`
	KernelMillis float64 `json:"kernel_ms"`
	GOPS         float64 `json:"gops_per_second"`

	Stages       []Stage        `json:"stages"`
	Verification *verify.Result `json:"verification,omitempty"`
	Host         Host           `json:"host"`
}

// Encode writes r as indented JSON.
func (r *Report) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// NewReport describes a prepared run before any kernel executes.
func NewReport(p *Prepared) *Report {
	cfg, m := p.Config, p.Matrix
	r := &Report{
		Kernel:      cfg.Kernel,
		Mode:        cfg.Mode,
		Precision:   p.Pair.String(),
		MVec:        m.MVec,
		N:           m.N,
		NNZVec:      m.NNZVec,
		K:           cfg.K,
		VecLength:   cfg.VecLength,
		Density:     m.Density(),
		SortRows:    cfg.SortRows,
		Seed:        cfg.Seed,
		Ops:         p.Ops,
		ProfileRuns: cfg.ProfileRuns,
		Stages:      append([]Stage(nil), p.Stages...),
		Host:        probeHost(),
	}
	if p.Packed != nil {
		r.AlignedNNZ = p.Packed.Aligned.Len()
		r.LaneWidth = p.Packed.Aligned.LaneWidth
		r.MMAKDim = p.Pair.MMAKDim()
	}
	return r
}

// Run prepares cfg, launches k ProfileRuns times and verifies the last
// output against the golden result when cfg.Verify is set.
//
// A verification mismatch returns both the report and an error wrapping
// verify.ErrVerificationMismatch.
func Run(ctx context.Context, cfg Config, k kernel.Kernel) (*Report, error) {
	p, err := Prepare(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Execute(ctx, p, k)
}

// Execute runs the kernel stage of a prepared run.
func Execute(ctx context.Context, p *Prepared, k kernel.Kernel) (*Report, error) {
	if k == nil {
		return nil, fmt.Errorf("%w: nil kernel", kernel.ErrUnavailable)
	}
	log := logger.FromContext(ctx).With("kernel", k.Name())
	cfg := p.Config
	out := make([]int32, p.OutputRows*cfg.K)

	launch, err := p.launcher(k, out)
	if err != nil {
		return nil, err
	}

	var total time.Duration
	for i := 0; i < cfg.ProfileRuns; i++ {
		start := time.Now()
		if err := launch(ctx); err != nil {
			return nil, fmt.Errorf("kernel %s: %w", k.Name(), err)
		}
		total += time.Since(start)
	}
	avg := total / time.Duration(cfg.ProfileRuns)

	report := NewReport(p)
	report.Kernel = k.Name()
	report.Stages = append(report.Stages, Stage{Name: "kernel", Millis: millis(total)})
	report.KernelMillis = millis(avg)
	if avg > 0 {
		report.GOPS = float64(p.Ops) / avg.Seconds() / 1e9
	}
	log.Info("kernel complete",
		"runs", cfg.ProfileRuns, "avg", avg, "gops_per_second", report.GOPS)

	if !cfg.Verify {
		return report, nil
	}
	res, err := verify.Compare(p.Golden.Output.Data, out)
	if err != nil {
		return nil, err
	}
	report.Verification = &res
	if log.Enabled(slog.LevelDebug) {
		logSamples(log, p.Golden.Output.Data, out)
	}
	if !res.Passed() {
		log.Error("verification failed", "mismatches", res.Mismatches, "total", res.Total)
		return report, res.Err()
	}
	log.Info("verification passed", "values", res.Total)
	return report, nil
}

func (p *Prepared) launcher(k kernel.Kernel, out []int32) (func(context.Context) error, error) {
	cfg := p.Config
	switch cfg.Mode {
	case ModeDense:
		dk, ok := k.(kernel.DenseKernel)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no dense path", kernel.ErrUnsupported, k.Name())
		}
		l := &kernel.DenseLaunch{M: p.OutputRows, N: p.Matrix.N, K: cfg.K, A: p.A, B: p.B, Output: out}
		return func(ctx context.Context) error { return dk.Dense(ctx, l) }, nil
	case ModeELL:
		ek, ok := k.(kernel.ELLKernel)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no blocked-ELL path", kernel.ErrUnsupported, k.Name())
		}
		l := &kernel.ELLLaunch{Matrix: p.ELL, K: cfg.K, A: p.A, B: p.B, Output: out}
		return func(ctx context.Context) error { return ek.ELL(ctx, l) }, nil
	default:
		l := p.Launch(out)
		return func(ctx context.Context) error { return k.Spmm(ctx, l) }, nil
	}
}

// Bundle returns the container form of a sparse run.
func (p *Prepared) Bundle() (*bundle.Bundle, error) {
	if p.Packed == nil {
		return nil, fmt.Errorf("%w: only sparse runs have a packed layout", kernel.ErrUnsupported)
	}
	info := bundle.Describe(p.Packed, p.Matrix.N, p.Config.K)
	info.Kernel = p.Config.Kernel
	b := &bundle.Bundle{
		Info:           info,
		Packed:         p.Packed,
		RowPermutation: p.Permutation,
		B:              p.B,
	}
	if p.Golden != nil {
		b.Golden = p.Golden.Output.Data
	}
	return b, nil
}

// Launch returns the sparse launch for p writing into out.
func (p *Prepared) Launch(out []int32) *kernel.Launch {
	return &kernel.Launch{
		MVec:           p.Matrix.MVec,
		VecLength:      p.Config.VecLength,
		K:              p.Config.K,
		N:              p.Matrix.N,
		RowPermutation: p.Permutation,
		Packed:         p.Packed,
		B:              p.B,
		Output:         out,
	}
}

// logSamples prints the first values of both outputs side by side.
func logSamples(log logger.Logger, want, got []int32) {
	n := min(len(want), 32)
	for i := 0; i < n; i++ {
		log.Debug("output sample", "index", i, "expected", want[i], "got", got[i])
	}
}
