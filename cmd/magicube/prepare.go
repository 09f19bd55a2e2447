package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/magicube/internal/bundle"
	"github.com/samcharles93/magicube/internal/logger"
	"github.com/samcharles93/magicube/internal/pipeline"
)

func prepareCmd() *cli.Command {
	var (
		bench   benchFlags
		outPath string
	)

	flags := append(bench.flags(),
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "output .lcf path (default: <benchmark>.lcf)",
			Destination: &outPath,
		},
	)

	return &cli.Command{
		Name:      "prepare",
		Usage:     "Pack a benchmark into an .lcf launch bundle",
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
			if outPath == "" {
				outPath = strings.TrimSuffix(bench.source, ".smtx") + ".lcf"
			}

			cfg := bench.config()
			p, err := pipeline.Prepare(ctx, cfg)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			b, err := p.Bundle()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if err := bundle.WriteFile(outPath, b); err != nil {
				return cli.Exit(fmt.Sprintf("error: write bundle: %v", err), 1)
			}
			log.Info("bundle written",
				"path", outPath,
				"pair", b.Info.Pair,
				"aligned_nnz", b.Info.AlignedNNZ,
				"golden", b.Golden != nil,
			)
			return nil
		},
	}
}
