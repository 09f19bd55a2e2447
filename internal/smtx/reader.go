package smtx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const maxLineBytes = 1 << 30

// Load parses a benchmark from r.
func Load(r io.Reader) (*Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lines := make([]string, 0, 3)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" && len(lines) == 0 {
			continue
		}
		lines = append(lines, line)
		if len(lines) == 3 {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("smtx: read: %w", err)
	}
	if len(lines) == 0 {
		return nil, malformed("empty benchmark")
	}

	header := strings.Split(lines[0], ",")
	if len(header) != 3 {
		return nil, malformed("header %q must have 3 comma separated values", lines[0])
	}
	dims := make([]int, 3)
	for i, h := range header {
		v, err := parseCount(h)
		if err != nil {
			return nil, malformed("header value %d: %v", i, err)
		}
		dims[i] = v
	}
	m := &Matrix{MVec: dims[0], N: dims[1], NNZVec: dims[2]}

	if len(lines) < 2 {
		return nil, malformed("missing row offset line")
	}
	offsets, err := parseInts(lines[1])
	if err != nil {
		return nil, malformed("row offsets: %v", err)
	}
	m.RowOffsets = offsets

	var cols []int
	if len(lines) >= 3 {
		cols, err = parseInts(lines[2])
		if err != nil {
			return nil, malformed("column indices: %v", err)
		}
	}
	m.ColIndices = cols
	if m.ColIndices == nil {
		m.ColIndices = []int{}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadFile parses the benchmark at path.
func LoadFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func parseInts(line string) ([]int, error) {
	fields := strings.Fields(line)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := parseCount(f)
		if err != nil {
			return nil, fmt.Errorf("token %d: %v", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseCount(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %d", v)
	}
	return v, nil
}
