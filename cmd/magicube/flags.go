package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/magicube/internal/kernel"
	"github.com/samcharles93/magicube/internal/logger"
	"github.com/samcharles93/magicube/internal/pipeline"
)

var (
	logLevel  string
	logFormat string
	noColor   bool
	debug     bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "disable colored pretty output",
			Destination: &noColor,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// setupLogging installs the configured logger in the command context.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	file, err := LoadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if file.LogLevel != "" && !cmd.IsSet("log-level") {
		logLevel = file.LogLevel
	}
	if file.LogFormat != "" && !cmd.IsSet("log-format") {
		logFormat = file.LogFormat
	}

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	if debug {
		level = slog.LevelDebug
	}
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	log := logger.New(os.Stderr, logger.Options{
		Level:   level,
		Format:  format,
		NoColor: noColor || os.Getenv("NO_COLOR") != "",
	})
	return logger.WithContext(ctx, log), nil
}

// benchFlags are the run configuration flags shared by run and prepare.
type benchFlags struct {
	source      string
	k           int
	vecLength   int
	kernel      string
	sortRows    bool
	verify      bool
	mode        string
	precisionA  int
	precisionB  int
	seed        int64
	profileRuns int
	kernelCmd   string
	kernelArgs  []string
}

func (b *benchFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "source",
			Aliases:     []string{"s", "benchmark"},
			Usage:       "path to the benchmark file",
			Destination: &b.source,
		},
		&cli.IntFlag{
			Name:        "k",
			Aliases:     []string{"dimK", "k-dim"},
			Usage:       "columns of B and of the output",
			Value:       256,
			Destination: &b.k,
		},
		&cli.IntFlag{
			Name:        "vec-length",
			Aliases:     []string{"vl", "vec_length"},
			Usage:       "rows per vector (1, 2, 4, 8)",
			Value:       8,
			Destination: &b.vecLength,
		},
		&cli.StringFlag{
			Name:        "kernel",
			Usage:       "kernel selector (wmma|0, cuda|1, sputnik|2, cusparse|3, host)",
			Value:       kernel.Host,
			Destination: &b.kernel,
		},
		&cli.BoolFlag{
			Name:        "sort-rows",
			Aliases:     []string{"sort_row"},
			Usage:       "schedule longer rows first",
			Destination: &b.sortRows,
		},
		&cli.BoolFlag{
			Name:        "verify",
			Usage:       "compare the kernel output against the reference",
			Value:       true,
			Destination: &b.verify,
		},
		&cli.StringFlag{
			Name:        "mode",
			Aliases:     []string{"matrix-mode"},
			Usage:       "A operand shape (sparse, dense, ell)",
			Value:       string(pipeline.ModeSparse),
			Destination: &b.mode,
		},
		&cli.IntFlag{
			Name:        "precision-a",
			Aliases:     []string{"preA"},
			Usage:       "A operand bits",
			Value:       8,
			Destination: &b.precisionA,
		},
		&cli.IntFlag{
			Name:        "precision-b",
			Aliases:     []string{"preB"},
			Usage:       "B operand bits",
			Value:       8,
			Destination: &b.precisionB,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "operand generator seed",
			Value:       1,
			Destination: &b.seed,
		},
		&cli.IntFlag{
			Name:        "profile-runs",
			Usage:       "kernel launches to average",
			Value:       1,
			Destination: &b.profileRuns,
		},
		&cli.StringFlag{
			Name:        "kernel-cmd",
			Usage:       "harness executable for the wmma and cuda kernels",
			Destination: &b.kernelCmd,
		},
		&cli.StringSliceFlag{
			Name:        "kernel-arg",
			Usage:       "argument passed to the kernel harness (repeatable)",
			Destination: &b.kernelArgs,
		},
	}
}

func (b *benchFlags) config() pipeline.Config {
	return pipeline.Config{
		SourcePath:  b.source,
		K:           b.k,
		VecLength:   b.vecLength,
		Kernel:      b.kernel,
		SortRows:    b.sortRows,
		Verify:      b.verify,
		Mode:        pipeline.Mode(b.mode),
		PrecisionA:  b.precisionA,
		PrecisionB:  b.precisionB,
		Seed:        b.seed,
		ProfileRuns: b.profileRuns,
	}
}

func (b *benchFlags) kernelOptions() kernel.Options {
	return kernel.Options{Command: b.kernelCmd, Args: b.kernelArgs}
}
