package server

import (
	"github.com/samcharles93/magicube/internal/pipeline"
)

// CreateRunRequest is the body of POST /v1/runs.
type CreateRunRequest struct {
	// Benchmark is the benchmark file contents.
	Benchmark string          `json:"benchmark"`
	Config    pipeline.Config `json:"config"`
}

// Run is a stored run.
type Run struct {
	ID        string           `json:"id"`
	Object    string           `json:"object"`
	CreatedAt int64            `json:"created_at"`
	Status    string           `json:"status"`
	Config    pipeline.Config  `json:"config"`
	Report    *pipeline.Report `json:"report,omitempty"`
	Error     *ErrorBody       `json:"error,omitempty"`
}

const (
	StatusPassed    = "passed"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
)

type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type RunList struct {
	Object string `json:"object"`
	Data   []Run  `json:"data"`
}

type DeleteRunResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
