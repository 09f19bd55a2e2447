package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/samcharles93/magicube/internal/kernel"
	"github.com/samcharles93/magicube/internal/logger"
	"github.com/samcharles93/magicube/internal/pipeline"
	"github.com/samcharles93/magicube/internal/verify"
)

func runCmd() *cli.Command {
	var (
		bench   benchFlags
		jsonOut bool
		outPath string
	)

	flags := append(bench.flags(),
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print the report as JSON",
			Destination: &jsonOut,
		},
		&cli.StringFlag{
			Name:        "report",
			Aliases:     []string{"o"},
			Usage:       "also write the JSON report to this path",
			Destination: &outPath,
		},
	)

	return &cli.Command{
		Name:      "run",
		Usage:     "Pack a benchmark, launch a kernel and verify its output",
		ArgsUsage: "[benchmark]",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			file, err := LoadConfig()
			if err != nil {
				log.Warn("ignoring config file", "error", err)
			}
			applyBenchConfig(cmd, file, &bench)
			if bench.source == "" && cmd.NArg() > 0 {
				bench.source = cmd.Args().First()
			}
			if bench.source == "" {
				return cli.Exit("error: a benchmark path is required (--source or argument)", 1)
			}

			cfg := bench.config()
			if err := cfg.Validate(); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			k, err := kernel.New(cfg.Kernel, bench.kernelOptions())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v (available: %s)", err, kernel.Available(bench.kernelOptions())), 1)
			}

			report, runErr := pipeline.Run(ctx, cfg, k)
			if report == nil {
				return cli.Exit(fmt.Sprintf("error: %v", runErr), 1)
			}

			if outPath != "" {
				if err := writeReport(outPath, report); err != nil {
					return cli.Exit(fmt.Sprintf("error: write report: %v", err), 1)
				}
			}
			if jsonOut {
				if err := report.Encode(os.Stdout); err != nil {
					return err
				}
			} else {
				printReport(os.Stdout, report)
			}

			if runErr != nil {
				var mm *verify.MismatchError
				if errors.As(runErr, &mm) {
					return cli.Exit(fmt.Sprintf("error: %d of %d outputs differ from the reference", mm.Mismatches, mm.Total), 1)
				}
				return cli.Exit(fmt.Sprintf("error: %v", runErr), 1)
			}
			return nil
		},
	}
}

func writeReport(path string, r *pipeline.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return r.Encode(f)
}

func printReport(w io.Writer, r *pipeline.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	pr := message.NewPrinter(language.English)
	_, _ = pr.Fprintf(tw, "Kernel:\t%s\n", r.Kernel)
	_, _ = pr.Fprintf(tw, "Mode:\t%s\n", r.Mode)
	_, _ = pr.Fprintf(tw, "Precision:\t%s\n", r.Precision)
	_, _ = pr.Fprintf(tw, "Shape:\tm_vec=%d n=%d k=%d vec_length=%d\n", r.MVec, r.N, r.K, r.VecLength)
	_, _ = pr.Fprintf(tw, "Nonzeros:\t%d (density %.4f)\n", r.NNZVec, r.Density)
	if r.LaneWidth > 0 {
		_, _ = pr.Fprintf(tw, "Aligned:\t%d (lane %d, mma_k %d)\n", r.AlignedNNZ, r.LaneWidth, r.MMAKDim)
	}
	for _, s := range r.Stages {
		_, _ = pr.Fprintf(tw, "Stage %s:\t%.3f ms\n", s.Name, s.Millis)
	}
	_, _ = pr.Fprintf(tw, "Kernel time:\t%.3f ms avg over %d runs\n", r.KernelMillis, r.ProfileRuns)
	_, _ = pr.Fprintf(tw, "Throughput:\t%.3f GOP/s\n", r.GOPS)
	if v := r.Verification; v != nil {
		status := "PASS"
		if !v.Passed() {
			status = pr.Sprintf("FAIL (%d/%d differ)", v.Mismatches, v.Total)
		}
		_, _ = pr.Fprintf(tw, "Verification:\t%s\n", status)
	}
	_ = tw.Flush()
}
