package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samcharles93/magicube/internal/kernel"
	"github.com/samcharles93/magicube/internal/precision"
	"github.com/samcharles93/magicube/internal/smtx"
)

// Mode selects the shape of the A operand.
type Mode string

const (
	ModeSparse Mode = "sparse"
	ModeDense  Mode = "dense"
	ModeELL    Mode = "ell"
)

// ParseMode accepts sparse, dense, or ell. Empty is sparse.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeSparse, nil
	case ModeSparse, ModeDense, ModeELL:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown matrix mode %q (expected sparse, dense, or ell)", ErrInvalidConfig, s)
	}
}

var (
	// ErrInvalidConfig reports an unknown or out-of-range config value.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrNoSource is returned when neither a path nor a matrix is configured.
	ErrNoSource = errors.New("no benchmark source")
)

// Config describes one benchmark run.
type Config struct {
	SourcePath string `json:"source_path,omitempty"`
	// Matrix, when set, is used instead of loading SourcePath.
	Matrix *smtx.Matrix `json:"-"`

	K           int    `json:"k_dim"`
	VecLength   int    `json:"vec_length"`
	Kernel      string `json:"kernel"`
	SortRows    bool   `json:"sort_rows"`
	Verify      bool   `json:"verify"`
	Mode        Mode   `json:"matrix_mode"`
	PrecisionA  int    `json:"precision_a"`
	PrecisionB  int    `json:"precision_b"`
	Seed        int64  `json:"seed"`
	ProfileRuns int    `json:"profile_runs"`

	// MaxElements caps the operand and output elements of one run. Zero
	// means no cap.
	MaxElements int `json:"-"`
}

// Validate normalizes c in place and rejects configurations no kernel can
// run. It allocates no operand buffers.
func (c *Config) Validate() error {
	if c.SourcePath == "" && c.Matrix == nil {
		return ErrNoSource
	}
	mode, err := ParseMode(string(c.Mode))
	if err != nil {
		return err
	}
	c.Mode = mode

	pair, err := precision.Resolve(c.PrecisionA, c.PrecisionB)
	if err != nil {
		return err
	}
	if err := pair.CheckVecLength(c.VecLength); err != nil {
		return err
	}
	if err := pair.CheckK(c.K); err != nil {
		return err
	}

	name, err := kernel.Normalize(c.Kernel)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c.Kernel = name
	if err := kernel.CheckSupport(name, pair, c.VecLength); err != nil {
		return err
	}

	if c.ProfileRuns == 0 {
		c.ProfileRuns = 1
	}
	if c.ProfileRuns < 0 {
		return fmt.Errorf("%w: profile runs %d must be positive", ErrInvalidConfig, c.ProfileRuns)
	}
	if c.MaxElements < 0 {
		return fmt.Errorf("%w: element limit %d must not be negative", ErrInvalidConfig, c.MaxElements)
	}
	return nil
}

// Pair returns the resolved precision pair. Call after Validate.
func (c *Config) Pair() precision.Pair {
	pair, _ := precision.Resolve(c.PrecisionA, c.PrecisionB)
	return pair
}
