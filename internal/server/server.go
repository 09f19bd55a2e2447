// Package server exposes the benchmark pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/magicube/internal/kernel"
	"github.com/samcharles93/magicube/internal/logger"
	"github.com/samcharles93/magicube/internal/pipeline"
	"github.com/samcharles93/magicube/internal/precision"
	"github.com/samcharles93/magicube/internal/reference"
	"github.com/samcharles93/magicube/internal/smtx"
	"github.com/samcharles93/magicube/internal/verify"
)

const (
	defaultMaxBodyBytes = 64 << 20
	// DefaultMaxElements bounds the operand and output elements of one run.
	DefaultMaxElements = 1 << 26
)

// KernelFactory builds the kernel for a normalized selector.
type KernelFactory func(name string) (kernel.Kernel, error)

type Server struct {
	store        *RunStore
	kernels      KernelFactory
	clock        func() time.Time
	maxBodyBytes int64
	maxElements  int
}

// NewServer returns a server backed by store. A nil factory only offers
// the host kernel.
func NewServer(store *RunStore, kernels KernelFactory) *Server {
	if store == nil {
		store = NewRunStore()
	}
	if kernels == nil {
		kernels = func(name string) (kernel.Kernel, error) {
			return kernel.New(name, kernel.Options{})
		}
	}
	return &Server{
		store:        store,
		kernels:      kernels,
		clock:        time.Now,
		maxBodyBytes: defaultMaxBodyBytes,
		maxElements:  DefaultMaxElements,
	}
}

// SetMaxElements changes the per-run element budget. Values below one keep
// the default.
func (s *Server) SetMaxElements(n int) {
	if n < 1 {
		n = DefaultMaxElements
	}
	s.maxElements = n
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/runs", s.handleCreateRun)
	e.GET("/v1/runs", s.handleListRuns)
	e.GET("/v1/runs/:id", s.handleGetRun)
	e.DELETE("/v1/runs/:id", s.handleDeleteRun)
}

func (s *Server) handleCreateRun(c *echo.Context) error {
	req, err := decodeJSON[CreateRunRequest](io.LimitReader(c.Request().Body, s.maxBodyBytes))
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("decode request: %v", err))
	}
	cfg, err := s.runConfig(&req)
	if err != nil {
		return writeRunError(c, err)
	}
	k, err := s.kernels(cfg.Kernel)
	if err != nil {
		return writeRunError(c, err)
	}

	ctx := c.Request().Context()
	log := logger.FromContext(ctx).With("component", "server")
	report, err := pipeline.Run(logger.WithContext(ctx, log), cfg, k)

	run := Run{
		CreatedAt: s.clock().Unix(),
		Config:    cfg,
		Report:    report,
	}
	switch {
	case err == nil && cfg.Verify:
		run.Status = StatusPassed
	case err == nil:
		run.Status = StatusCompleted
	case errors.Is(err, verify.ErrVerificationMismatch) && report != nil:
		run.Status = StatusFailed
		run.Error = &ErrorBody{Type: "verification_mismatch", Message: err.Error()}
	default:
		return writeRunError(c, err)
	}
	run = s.store.Save(run)
	log.Info("run stored", "id", run.ID, "status", run.Status)
	return writeJSON(c, http.StatusOK, run)
}

// runConfig parses the benchmark text into the request config. Server runs
// never read from the local filesystem.
func (s *Server) runConfig(req *CreateRunRequest) (pipeline.Config, error) {
	cfg := req.Config
	if cfg.SourcePath != "" {
		return cfg, newInvalidRequest("config.source_path is not accepted; send the benchmark inline")
	}
	if strings.TrimSpace(req.Benchmark) == "" {
		return cfg, newInvalidRequest("benchmark is required")
	}
	m, err := smtx.Load(strings.NewReader(req.Benchmark))
	if err != nil {
		return cfg, err
	}
	cfg.Matrix = m
	cfg.MaxElements = s.maxElements
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := cfg.CheckBudget(m); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s *Server) handleListRuns(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, RunList{Object: "list", Data: s.store.List()})
}

func (s *Server) handleGetRun(c *echo.Context) error {
	run, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "run not found")
	}
	return writeJSON(c, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "run not found")
	}
	return writeJSON(c, http.StatusOK, DeleteRunResp{ID: id, Object: "run", Deleted: true})
}

// errorType maps pipeline failures to a response status and error type.
func errorType(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, smtx.ErrMalformedInput):
		return http.StatusBadRequest, "malformed_input"
	case errors.Is(err, precision.ErrUnsupportedPrecision):
		return http.StatusBadRequest, "unsupported_precision"
	case errors.Is(err, kernel.ErrUnsupported):
		return http.StatusBadRequest, "unsupported_kernel"
	case errors.Is(err, kernel.ErrUnavailable):
		return http.StatusBadRequest, "kernel_unavailable"
	case errors.Is(err, kernel.ErrLaunch):
		return http.StatusBadGateway, "kernel_launch_error"
	case errors.Is(err, pipeline.ErrNoSource), errors.Is(err, pipeline.ErrInvalidConfig):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, reference.ErrInvariantViolation):
		return http.StatusInternalServerError, "invariant_violation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func writeRunError(c *echo.Context, err error) error {
	status, typ := errorType(err)
	return writeError(c, status, typ, err.Error())
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return writeJSON(c, status, map[string]ErrorBody{
		"error": {Type: errType, Message: msg},
	})
}

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.JSONBlob(status, b)
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
