package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/magicube/internal/kernel"
	"github.com/samcharles93/magicube/internal/logger"
	"github.com/samcharles93/magicube/internal/server"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		kernelCmd   string
		kernelArgs  []string
		maxElements int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the benchmark run API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.StringFlag{
				Name:        "kernel-cmd",
				Usage:       "harness executable for the wmma and cuda kernels",
				Destination: &kernelCmd,
			},
			&cli.StringSliceFlag{
				Name:        "kernel-arg",
				Usage:       "argument passed to the kernel harness (repeatable)",
				Destination: &kernelArgs,
			},
			&cli.IntFlag{
				Name:        "max-elements",
				Usage:       "largest operand and output element count one run may allocate",
				Value:       server.DefaultMaxElements,
				Destination: &maxElements,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			file, err := LoadConfig()
			if err != nil {
				log.Warn("ignoring config file", "error", err)
			}
			applyServeConfig(cmd, file, &addr, &kernelCmd)
			if len(file.KernelArgs) > 0 && !cmd.IsSet("kernel-arg") {
				kernelArgs = file.KernelArgs
			}

			opts := kernel.Options{Command: kernelCmd, Args: kernelArgs}
			srv := server.NewServer(server.NewRunStore(), func(name string) (kernel.Kernel, error) {
				return kernel.New(name, opts)
			})
			srv.SetMaxElements(maxElements)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			srv.Register(e)

			log.Info("starting server", "address", addr, "kernels", kernel.Available(opts))
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(s *http.Server) error {
					s.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
