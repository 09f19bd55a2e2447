package kernel

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/samcharles93/magicube/internal/bundle"
	"github.com/samcharles93/magicube/pkg/lcf"
)

// External runs a device kernel in a separate harness process.
//
// The harness is invoked as
//
//	Command Args... --kernel <selector> --input <launch.lcf> --output <out.bin>
//
// and must write MVec*VecLength*K little-endian int32 values to the output
// path before exiting zero.
type External struct {
	Selector   string
	Command    string
	Args       []string
	ScratchDir string
}

func (e *External) Name() string {
	return e.Selector
}

func (e *External) Spmm(ctx context.Context, l *Launch) error {
	if err := l.Validate(); err != nil {
		return err
	}
	dir, err := os.MkdirTemp(e.ScratchDir, "magicube-launch-*")
	if err != nil {
		return fmt.Errorf("kernel %s: scratch dir: %w", e.Selector, err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	in := filepath.Join(dir, "launch.lcf")
	out := filepath.Join(dir, "output.bin")
	info := bundle.Describe(l.Packed, l.N, l.K)
	info.Kernel = e.Selector
	if err := bundle.WriteFile(in, &bundle.Bundle{
		Info:           info,
		Packed:         l.Packed,
		RowPermutation: l.RowPermutation,
		B:              l.B,
	}); err != nil {
		return fmt.Errorf("kernel %s: write launch: %w", e.Selector, err)
	}

	args := append(append([]string(nil), e.Args...),
		"--kernel", e.Selector, "--input", in, "--output", out)
	cmd := exec.CommandContext(ctx, e.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: kernel %s: %w: %s", ErrLaunch, e.Selector, err, msg)
		}
		return fmt.Errorf("%w: kernel %s: %w", ErrLaunch, e.Selector, err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		return fmt.Errorf("kernel %s: read output: %w", e.Selector, err)
	}
	vals, err := lcf.RawInt32s(raw)
	if err != nil {
		return fmt.Errorf("kernel %s: %w", e.Selector, err)
	}
	if len(vals) != len(l.Output) {
		return fmt.Errorf("%w: kernel %s wrote %d values, want %d", ErrLaunch, e.Selector, len(vals), len(l.Output))
	}
	copy(l.Output, vals)
	return nil
}

// LaunchFromBundle rebuilds a launch from a container, allocating Output.
// Harness implementations use it to read their input.
func LaunchFromBundle(b *bundle.Bundle) *Launch {
	return &Launch{
		MVec:           b.Info.MVec,
		VecLength:      b.Info.VecLength,
		K:              b.Info.K,
		N:              b.Info.N,
		RowPermutation: b.RowPermutation,
		Packed:         b.Packed,
		B:              b.B,
		Output:         make([]int32, b.Info.MVec*b.Info.VecLength*b.Info.K),
	}
}
