package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/samcharles93/magicube/internal/bundle"
	"github.com/samcharles93/magicube/internal/layout"
	"github.com/samcharles93/magicube/internal/precision"
	"github.com/samcharles93/magicube/internal/smtx"
	"github.com/samcharles93/magicube/pkg/lcf"
)

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Describe a benchmark file or an .lcf launch bundle",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return cli.Exit("error: inspect takes exactly one path", 1)
			}
			path := cmd.Args().First()
			var err error
			if filepath.Ext(path) == ".lcf" {
				err = inspectBundle(path)
			} else {
				err = inspectBenchmark(path)
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return nil
		},
	}
}

func inspectBenchmark(path string) error {
	m, err := smtx.LoadFile(path)
	if err != nil {
		return err
	}
	lens := m.RowLens()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	pr := message.NewPrinter(language.English)
	_, _ = pr.Fprintf(tw, "File:\t%s\n", path)
	_, _ = pr.Fprintf(tw, "Shape:\tm_vec=%d n=%d\n", m.MVec, m.N)
	_, _ = pr.Fprintf(tw, "Nonzeros:\t%d (density %.4f)\n", m.NNZVec, m.Density())
	if len(lens) > 0 {
		_, _ = pr.Fprintf(tw, "Row length:\tmin=%d max=%d\n", slices.Min(lens), slices.Max(lens))
	}
	for _, pair := range []precision.Pair{precision.Int8Int8, precision.Int4Int4} {
		a, err := layout.Align(m, pair)
		if err != nil {
			return err
		}
		pad := a.Len() - m.NNZVec
		_, _ = pr.Fprintf(tw, "Aligned %s:\t%d (lane %d, +%d padding)\n", pair, a.Len(), a.LaneWidth, pad)
	}
	return tw.Flush()
}

func inspectBundle(path string) error {
	f, err := lcf.Open(path)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	pr := message.NewPrinter(language.English)
	_, _ = pr.Fprintf(tw, "File:\t%s\n", path)
	_, _ = pr.Fprintf(tw, "Format:\tLCF %d.%d\n", f.Header.Major, f.Header.Minor)
	_, _ = pr.Fprintf(tw, "Columns shuffled:\t%t\n", f.Header.Flags&lcf.FlagColumnsShuffled != 0)
	for _, s := range f.Sections {
		_, _ = pr.Fprintf(tw, "Section %s:\toffset=%d size=%d v%d\n", lcf.SectionType(s.Type), s.Offset, s.Size, s.Version)
	}
	if err := f.Close(); err != nil {
		return err
	}

	b, err := bundle.ReadFile(path)
	if err != nil {
		return err
	}
	info := b.Info
	_, _ = pr.Fprintf(tw, "Precision:\t%s\n", info.Pair)
	_, _ = pr.Fprintf(tw, "Shape:\tm_vec=%d n=%d k=%d vec_length=%d\n", info.MVec, info.N, info.K, info.VecLength)
	_, _ = pr.Fprintf(tw, "Nonzeros:\t%d aligned to %d (lane %d, mma_k %d)\n", info.NNZVec, info.AlignedNNZ, info.LaneWidth, info.MMAKDim)
	if info.Kernel != "" {
		_, _ = pr.Fprintf(tw, "Kernel:\t%s\n", info.Kernel)
	}
	_, _ = pr.Fprintf(tw, "Golden output:\t%t\n", b.Golden != nil)
	return tw.Flush()
}
