package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/magicube/internal/kernel"
	"github.com/samcharles93/magicube/internal/precision"
	"github.com/samcharles93/magicube/internal/smtx"
	"github.com/samcharles93/magicube/internal/verify"
)

func testMatrix(t *testing.T, seed int64) *smtx.Matrix {
	t.Helper()
	m, err := smtx.Generate(rand.New(rand.NewSource(seed)), 12, 40, 0.75)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return m
}

func baseConfig(m *smtx.Matrix) Config {
	return Config{
		Matrix:     m,
		K:          32,
		VecLength:  4,
		Kernel:     "host",
		Verify:     true,
		PrecisionA: 8,
		PrecisionB: 8,
		Seed:       1,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	m := &smtx.Matrix{MVec: 1, N: 1, NNZVec: 1, RowOffsets: []int{0, 1}, ColIndices: []int{0}}
	cases := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{name: "int16 A", mutate: func(c *Config) { c.PrecisionA = 16 }, want: precision.ErrUnsupportedPrecision},
		{name: "mixed pair", mutate: func(c *Config) { c.PrecisionB = 4 }, want: precision.ErrUnsupportedPrecision},
		{name: "odd int4 vec", mutate: func(c *Config) { c.PrecisionA, c.PrecisionB, c.VecLength = 4, 4, 1 }, want: precision.ErrUnsupportedPrecision},
		{name: "vec length 3", mutate: func(c *Config) { c.VecLength = 3 }, want: precision.ErrUnsupportedPrecision},
		{name: "k not whole words", mutate: func(c *Config) { c.K = 6 }, want: precision.ErrUnsupportedPrecision},
		{name: "wmma vec 1", mutate: func(c *Config) { c.Kernel, c.VecLength = "wmma", 1 }, want: kernel.ErrUnsupported},
		{name: "sputnik", mutate: func(c *Config) { c.Kernel = "2" }, want: precision.ErrUnsupportedPrecision},
		{name: "no source", mutate: func(c *Config) { c.Matrix = nil }, want: ErrNoSource},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig(m)
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	for _, mutate := range []func(c *Config){
		func(c *Config) { c.Mode = "coo" },
		func(c *Config) { c.Kernel = "cublas" },
		func(c *Config) { c.ProfileRuns = -1 },
	} {
		bad := baseConfig(m)
		mutate(&bad)
		if err := bad.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	}

	cfg := baseConfig(m)
	cfg.Kernel = "0"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Kernel != kernel.WMMA || cfg.Mode != ModeSparse || cfg.ProfileRuns != 1 {
		t.Fatalf("not normalized: kernel=%q mode=%q runs=%d", cfg.Kernel, cfg.Mode, cfg.ProfileRuns)
	}
}

func TestPrepareRejectsPrecisionBeforeLoading(t *testing.T) {
	t.Parallel()

	cfg := Config{
		SourcePath: filepath.Join(t.TempDir(), "missing.smtx"),
		K:          32,
		VecLength:  4,
		PrecisionA: 16,
		PrecisionB: 8,
	}
	_, err := Prepare(context.Background(), cfg)
	if !errors.Is(err, precision.ErrUnsupportedPrecision) {
		t.Fatalf("expected ErrUnsupportedPrecision, got %v", err)
	}
	if errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source was opened before validation")
	}
}

func TestRunHostVerifies(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "int8 sparse", mutate: func(c *Config) {}},
		{name: "int8 sorted", mutate: func(c *Config) { c.SortRows = true; c.VecLength = 8 }},
		{name: "int4 sparse", mutate: func(c *Config) { c.PrecisionA, c.PrecisionB, c.VecLength = 4, 4, 2 }},
		{name: "int4 sorted", mutate: func(c *Config) { c.PrecisionA, c.PrecisionB, c.SortRows = 4, 4, true }},
		{name: "dense", mutate: func(c *Config) { c.Mode = ModeDense }},
		{name: "ell", mutate: func(c *Config) { c.Mode = ModeELL }},
		{name: "profiled", mutate: func(c *Config) { c.ProfileRuns = 3 }},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig(testMatrix(t, int64(i+1)))
			tc.mutate(&cfg)
			report, err := Run(context.Background(), cfg, kernel.NewHost())
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if report.Verification == nil || !report.Verification.Passed() {
				t.Fatalf("expected passing verification, got %+v", report.Verification)
			}
			if report.Ops <= 0 || report.Kernel != kernel.Host {
				t.Fatalf("unexpected report: %+v", report)
			}
			if cfg.Mode == "" {
				want := 32
				if cfg.PrecisionA == 4 {
					want = 64
				}
				if report.LaneWidth != want || report.AlignedNNZ%want != 0 {
					t.Fatalf("lane width %d, aligned %d", report.LaneWidth, report.AlignedNNZ)
				}
			}
		})
	}
}

func TestRunFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bench.smtx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := smtx.Write(f, testMatrix(t, 42)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cfg := baseConfig(nil)
	cfg.SourcePath = path
	report, err := Run(context.Background(), cfg, kernel.NewHost())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.MVec != 12 || report.N != 40 {
		t.Fatalf("unexpected shape %dx%d", report.MVec, report.N)
	}

	var buf bytes.Buffer
	if err := report.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, key := range []string{`"gops_per_second"`, `"aligned_nnz"`, `"host"`, `"verification"`} {
		if !strings.Contains(buf.String(), key) {
			t.Fatalf("report JSON lacks %s: %s", key, buf.String())
		}
	}
}

type corruptKernel struct {
	kernel.Kernel
}

func (c corruptKernel) Spmm(ctx context.Context, l *kernel.Launch) error {
	if err := c.Kernel.Spmm(ctx, l); err != nil {
		return err
	}
	l.Output[len(l.Output)-1]++
	return nil
}

func TestRunReportsMismatch(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(testMatrix(t, 5))
	report, err := Run(context.Background(), cfg, corruptKernel{kernel.NewHost()})
	if !errors.Is(err, verify.ErrVerificationMismatch) {
		t.Fatalf("expected ErrVerificationMismatch, got %v", err)
	}
	var mm *verify.MismatchError
	if !errors.As(err, &mm) || mm.Mismatches != 1 {
		t.Fatalf("expected one mismatch, got %v", err)
	}
	if report == nil || report.Verification == nil || report.Verification.Mismatches != 1 {
		t.Fatalf("report should carry the verification result")
	}
}

func TestRunDenseNeedsDensePath(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(testMatrix(t, 6))
	cfg.Mode = ModeDense
	_, err := Run(context.Background(), cfg, corruptKernel{kernel.NewHost()})
	if !errors.Is(err, kernel.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestPreparedBundle(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(testMatrix(t, 8))
	p, err := Prepare(context.Background(), cfg)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	b, err := p.Bundle()
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	if b.Info.NNZVec != p.Matrix.NNZVec || len(b.Golden) != p.OutputRows*cfg.K {
		t.Fatalf("bundle does not describe the run: %+v", b.Info)
	}

	cfg.Mode = ModeDense
	dp, err := Prepare(context.Background(), cfg)
	if err != nil {
		t.Fatalf("prepare dense: %v", err)
	}
	if _, err := dp.Bundle(); err == nil {
		t.Fatalf("expected dense bundle error")
	}
}
