package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/magicube/internal/logger"
	"github.com/samcharles93/magicube/internal/smtx"
)

func generateCmd() *cli.Command {
	var (
		mVec     int
		n        int
		sparsity float64
		seed     int64
		outPath  string
	)

	return &cli.Command{
		Name:  "generate",
		Usage: "Write a random vector-sparse benchmark file",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "m-vec", Usage: "vector rows", Value: 256, Destination: &mVec},
			&cli.IntFlag{Name: "n", Usage: "columns", Value: 256, Destination: &n},
			&cli.Float64Flag{Name: "sparsity", Usage: "fraction of empty positions", Value: 0.9, Destination: &sparsity},
			&cli.Int64Flag{Name: "seed", Usage: "generator seed", Value: 1, Destination: &seed},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output path (default: stdout)",
				Destination: &outPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rng := rand.New(rand.NewSource(seed))
			m, err := smtx.Generate(rng, mVec, n, sparsity)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			if outPath == "" {
				w := bufio.NewWriter(os.Stdout)
				if err := smtx.Write(w, m); err != nil {
					return err
				}
				return w.Flush()
			}
			f, err := os.Create(outPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if err := smtx.Write(f, m); err != nil {
				_ = f.Close()
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.FromContext(ctx).Info("benchmark written",
				"path", outPath, "m_vec", m.MVec, "n", m.N, "nnz_vec", m.NNZVec, "density", m.Density())
			return nil
		},
	}
}
