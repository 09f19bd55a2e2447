// Package bundle stores the prepared inputs of one SpMM launch in an LCF
// container so an out-of-process kernel harness can consume them.
package bundle

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/samcharles93/magicube/internal/layout"
	"github.com/samcharles93/magicube/internal/precision"
	"github.com/samcharles93/magicube/internal/quant"
	"github.com/samcharles93/magicube/pkg/lcf"
)

const (
	infoVersion    = 1
	sectionVersion = 1
)

// Info is the JSON layout description stored in the info section.
type Info struct {
	Version    int    `json:"version"`
	Pair       string `json:"pair"`
	ABits      int    `json:"a_bits"`
	BBits      int    `json:"b_bits"`
	VecLength  int    `json:"vec_length"`
	MVec       int    `json:"m_vec"`
	N          int    `json:"n"`
	K          int    `json:"k"`
	NNZVec     int    `json:"nnz_vec"`
	AlignedNNZ int    `json:"aligned_nnz"`
	LaneWidth  int    `json:"lane_width"`
	MMAKDim    int    `json:"mma_k_dim"`
	Kernel     string `json:"kernel,omitempty"`
}

// Bundle is everything a kernel needs for one vector-sparse launch.
// Golden is optional.
type Bundle struct {
	Info           Info
	Packed         *layout.Packed
	RowPermutation []int
	B              *quant.Operand
	Golden         []int32
}

// Describe fills the derived Info fields from the packed layout.
func Describe(p *layout.Packed, n, k int) Info {
	nnz := 0
	for i := 0; i < p.Aligned.Rows(); i++ {
		nnz += p.Aligned.End(i) - p.Aligned.Start(i)
	}
	return Info{
		Version:    infoVersion,
		Pair:       p.Pair.String(),
		ABits:      p.Pair.ABits(),
		BBits:      p.Pair.BBits(),
		VecLength:  p.VecLength,
		MVec:       p.Aligned.Rows(),
		N:          n,
		K:          k,
		NNZVec:     nnz,
		AlignedNNZ: p.Aligned.Len(),
		LaneWidth:  p.Aligned.LaneWidth,
		MMAKDim:    p.Pair.MMAKDim(),
	}
}

// WriteFile writes b to path, replacing any existing file.
func WriteFile(path string, b *Bundle) (err error) {
	if b == nil || b.Packed == nil || b.B == nil {
		return fmt.Errorf("bundle: incomplete bundle")
	}
	info, err := json.Marshal(b.Info)
	if err != nil {
		return fmt.Errorf("bundle: encode info: %w", err)
	}
	offsets, err := lcf.PutInt32s(b.Packed.Aligned.RowOffsets)
	if err != nil {
		return fmt.Errorf("bundle: row offsets: %w", err)
	}
	cols, err := lcf.PutInt32s(b.Packed.ColIndices)
	if err != nil {
		return fmt.Errorf("bundle: column indices: %w", err)
	}
	perm, err := lcf.PutInt32s(b.RowPermutation)
	if err != nil {
		return fmt.Errorf("bundle: row permutation: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w, err := lcf.NewWriter(f)
	if err != nil {
		return err
	}
	type section struct {
		typ  lcf.SectionType
		data []byte
	}
	sections := []section{
		{lcf.SectionInfo, info},
		{lcf.SectionRowOffsets, offsets},
		{lcf.SectionColIndices, cols},
		{lcf.SectionValues, b.Packed.Values},
		{lcf.SectionRowPermutation, perm},
		{lcf.SectionOperandB, b.B.Data},
	}
	if b.Golden != nil {
		sections = append(sections, section{lcf.SectionGolden, lcf.PutRawInt32s(b.Golden)})
	}
	for _, s := range sections {
		if err := w.WriteSection(s.typ, sectionVersion, s.data); err != nil {
			return fmt.Errorf("bundle: write %s: %w", s.typ, err)
		}
	}
	if b.Packed.Pair.ShuffleColumns() {
		if err := w.AddFlags(lcf.FlagColumnsShuffled); err != nil {
			return err
		}
	}
	return w.Finalise()
}

// ReadFile loads a bundle written by WriteFile. The returned buffers are
// copies and stay valid after the container is closed.
func ReadFile(path string) (*Bundle, error) {
	f, err := lcf.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	raw, err := f.Require(lcf.SectionInfo)
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("bundle: decode info: %w", err)
	}
	if info.Version != infoVersion {
		return nil, fmt.Errorf("bundle: unsupported info version %d", info.Version)
	}
	pair, err := precision.ParsePair(info.Pair)
	if err != nil {
		return nil, err
	}

	ints := func(t lcf.SectionType) ([]int, error) {
		data, err := f.Require(t)
		if err != nil {
			return nil, err
		}
		return lcf.Int32s(data)
	}
	offsets, err := ints(lcf.SectionRowOffsets)
	if err != nil {
		return nil, err
	}
	cols, err := ints(lcf.SectionColIndices)
	if err != nil {
		return nil, err
	}
	perm, err := ints(lcf.SectionRowPermutation)
	if err != nil {
		return nil, err
	}
	values, err := f.Require(lcf.SectionValues)
	if err != nil {
		return nil, err
	}
	bData, err := f.Require(lcf.SectionOperandB)
	if err != nil {
		return nil, err
	}
	if len(offsets) != 2*info.MVec || len(cols) != info.AlignedNNZ {
		return nil, fmt.Errorf("%w: layout does not match info", lcf.ErrCorruptFile)
	}

	logical := cols
	if f.Header.Flags&lcf.FlagColumnsShuffled != 0 {
		if logical, err = layout.UnshuffleColumns(cols); err != nil {
			return nil, err
		}
	}
	b, err := quant.FromBytes(info.BBits, append([]byte(nil), bData...))
	if err != nil {
		return nil, err
	}
	b.Len = min(b.Len, info.N*info.K)

	out := &Bundle{
		Info: info,
		Packed: &layout.Packed{
			Pair:      pair,
			VecLength: info.VecLength,
			Aligned: &layout.Aligned{
				LaneWidth:  info.LaneWidth,
				RowOffsets: offsets,
				ColIndices: logical,
			},
			ColIndices: cols,
			Values:     append([]byte(nil), values...),
		},
		RowPermutation: perm,
		B:              b,
	}
	if s := f.Section(lcf.SectionGolden); s != nil {
		if out.Golden, err = lcf.RawInt32s(f.SectionData(s)); err != nil {
			return nil, err
		}
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", lcf.ErrCorruptFile, err)
	}
	return out, nil
}

// Validate checks that the info section agrees with the pair and with every
// buffer of b.
func (b *Bundle) Validate() error {
	info, p := b.Info, b.Packed
	if p == nil || b.B == nil {
		return fmt.Errorf("bundle: missing buffers")
	}
	pair := p.Pair
	if info.ABits != pair.ABits() || info.BBits != pair.BBits() ||
		info.LaneWidth != pair.LaneWidth() || info.MMAKDim != pair.MMAKDim() {
		return fmt.Errorf("bundle: info %s a=%d b=%d lane=%d mma_k=%d does not match pair %v",
			info.Pair, info.ABits, info.BBits, info.LaneWidth, info.MMAKDim, pair)
	}
	if info.MVec < 0 || info.N < 0 || info.K <= 0 {
		return fmt.Errorf("bundle: shape m_vec=%d n=%d k=%d", info.MVec, info.N, info.K)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Aligned.Rows() != info.MVec || len(b.RowPermutation) != info.MVec {
		return fmt.Errorf("bundle: %d aligned rows and %d permuted rows, m_vec %d",
			p.Aligned.Rows(), len(b.RowPermutation), info.MVec)
	}
	if b.B.Len < info.N*info.K {
		return fmt.Errorf("bundle: operand B holds %d values, want %d", b.B.Len, info.N*info.K)
	}
	if b.Golden != nil && len(b.Golden) != info.MVec*info.VecLength*info.K {
		return fmt.Errorf("bundle: golden output holds %d values, want %d",
			len(b.Golden), info.MVec*info.VecLength*info.K)
	}
	return nil
}
