package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the magicube configuration file
// (~/.config/magicube/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	// Run defaults
	K           *int   `yaml:"k_dim"`
	VecLength   *int   `yaml:"vec_length"`
	Kernel      string `yaml:"kernel"`
	SortRows    *bool  `yaml:"sort_rows"`
	Verify      *bool  `yaml:"verify"`
	Mode        string `yaml:"matrix_mode"`
	PrecisionA  *int   `yaml:"precision_a"`
	PrecisionB  *int   `yaml:"precision_b"`
	Seed        *int64 `yaml:"seed"`
	ProfileRuns *int   `yaml:"profile_runs"`

	// Kernel harness
	KernelCommand string   `yaml:"kernel_command"`
	KernelArgs    []string `yaml:"kernel_args"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	if p := os.Getenv("MAGICUBE_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "magicube", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config.
func LoadConfig() (Config, error) {
	return loadConfigFile(configPath())
}

func loadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyBenchConfig applies config file defaults to b when the
// corresponding flag was not explicitly set.
func applyBenchConfig(c *cli.Command, cfg Config, b *benchFlags) {
	setInt := func(flag string, src *int, dst *int) {
		if src != nil && !c.IsSet(flag) {
			*dst = *src
		}
	}
	setInt("k", cfg.K, &b.k)
	setInt("vec-length", cfg.VecLength, &b.vecLength)
	setInt("precision-a", cfg.PrecisionA, &b.precisionA)
	setInt("precision-b", cfg.PrecisionB, &b.precisionB)
	setInt("profile-runs", cfg.ProfileRuns, &b.profileRuns)

	if cfg.Kernel != "" && !c.IsSet("kernel") {
		b.kernel = cfg.Kernel
	}
	if cfg.Mode != "" && !c.IsSet("mode") {
		b.mode = cfg.Mode
	}
	if cfg.SortRows != nil && !c.IsSet("sort-rows") {
		b.sortRows = *cfg.SortRows
	}
	if cfg.Verify != nil && !c.IsSet("verify") {
		b.verify = *cfg.Verify
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		b.seed = *cfg.Seed
	}
	if cfg.KernelCommand != "" && !c.IsSet("kernel-cmd") {
		b.kernelCmd = cfg.KernelCommand
	}
	if len(cfg.KernelArgs) > 0 && !c.IsSet("kernel-arg") {
		b.kernelArgs = cfg.KernelArgs
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr, kernelCmd *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.KernelCommand != "" && !c.IsSet("kernel-cmd") {
		*kernelCmd = cfg.KernelCommand
	}
}
