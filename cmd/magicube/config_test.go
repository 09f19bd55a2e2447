package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"
)

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file is empty", func(t *testing.T) {
		t.Parallel()
		cfg, err := loadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("loadConfigFile: %v", err)
		}
		if cfg.K != nil || cfg.Kernel != "" {
			t.Fatalf("expected zero config, got %+v", cfg)
		}
	})

	t.Run("parses fields", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := "k_dim: 128\nvec_length: 4\nkernel: wmma\nsort_rows: true\nprecision_a: 4\n" +
			"kernel_command: /opt/harness\nkernel_args: [--device, \"1\"]\nlog_level: debug\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := loadConfigFile(path)
		if err != nil {
			t.Fatalf("loadConfigFile: %v", err)
		}
		if cfg.K == nil || *cfg.K != 128 {
			t.Fatalf("K = %v, want 128", cfg.K)
		}
		if cfg.VecLength == nil || *cfg.VecLength != 4 {
			t.Fatalf("VecLength = %v, want 4", cfg.VecLength)
		}
		if cfg.Kernel != "wmma" || cfg.KernelCommand != "/opt/harness" || cfg.LogLevel != "debug" {
			t.Fatalf("unexpected strings: %+v", cfg)
		}
		if len(cfg.KernelArgs) != 2 || cfg.KernelArgs[1] != "1" {
			t.Fatalf("KernelArgs = %v", cfg.KernelArgs)
		}
		if cfg.SortRows == nil || !*cfg.SortRows {
			t.Fatal("SortRows not set")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("k_dim: [oops"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := loadConfigFile(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestApplyBenchConfig(t *testing.T) {
	t.Parallel()

	k, vl, seed := 128, 4, int64(9)
	verifyOff := false
	file := Config{
		K:             &k,
		VecLength:     &vl,
		Seed:          &seed,
		Verify:        &verifyOff,
		Kernel:        "cuda",
		KernelCommand: "/opt/harness",
	}

	var bench benchFlags
	var got benchFlags
	cmd := &cli.Command{
		Name:  "run",
		Flags: bench.flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyBenchConfig(c, file, &bench)
			got = bench
			return nil
		},
	}
	if err := cmd.Run(context.Background(), []string{"run", "--k", "64", "--kernel", "host"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got.k != 64 {
		t.Fatalf("k = %d, want explicit flag 64", got.k)
	}
	if got.kernel != "host" {
		t.Fatalf("kernel = %q, want explicit flag host", got.kernel)
	}
	if got.vecLength != 4 {
		t.Fatalf("vecLength = %d, want config value 4", got.vecLength)
	}
	if got.seed != 9 || got.verify {
		t.Fatalf("seed=%d verify=%t, want config values", got.seed, got.verify)
	}
	if got.kernelCmd != "/opt/harness" {
		t.Fatalf("kernelCmd = %q", got.kernelCmd)
	}
	if got.precisionA != 8 {
		t.Fatalf("precisionA = %d, want flag default 8", got.precisionA)
	}
}
