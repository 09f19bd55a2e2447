// Package lcf implements the Layout Container File format.
//
// An LCF file carries the prepared inputs of one SpMM kernel launch: the
// aligned row offsets, packed column indices and values, the row
// permutation, the dense B operand and, optionally, the golden output.
// It describes buffers only and never implies how a kernel consumes them.
package lcf

import "encoding/binary"

// Format constants must never change.
const (
	// MagicLCF is encoded as "LCF\0".
	MagicLCF = "LCF\x00"

	// CurrentMajor changes only with breaking format changes.
	CurrentMajor uint16 = 1
	// CurrentMinor may add optional sections.
	CurrentMinor uint16 = 0

	// FlagColumnsShuffled marks column indices stored with the 8-wide interleave.
	FlagColumnsShuffled uint64 = 1 << 0
)

type SectionType uint32

const (
	SectionInfo           SectionType = 0x0001
	SectionRowOffsets     SectionType = 0x0002
	SectionColIndices     SectionType = 0x0003
	SectionValues         SectionType = 0x0004
	SectionRowPermutation SectionType = 0x0005
	SectionOperandB       SectionType = 0x0006
	SectionGolden         SectionType = 0x0007
)

func (t SectionType) String() string {
	switch t {
	case SectionInfo:
		return "info"
	case SectionRowOffsets:
		return "row_offsets"
	case SectionColIndices:
		return "col_indices"
	case SectionValues:
		return "values"
	case SectionRowPermutation:
		return "row_permutation"
	case SectionOperandB:
		return "operand_b"
	case SectionGolden:
		return "golden"
	default:
		return "unknown"
	}
}

type Header struct {
	Magic            [4]byte
	Major            uint16
	Minor            uint16
	HeaderSize       uint32
	SectionCount     uint32
	SectionDirOffset uint64
	FileSize         uint64
	Flags            uint64
}

type Section struct {
	Type    uint32
	Version uint32
	Offset  uint64
	Size    uint64
}

// End returns the offset one past the section payload.
func (s *Section) End() uint64 {
	return s.Offset + s.Size
}

const (
	headerSize  = 40
	sectionSize = 24
	align       = 8
)

// Valid reports whether the header carries the LCF magic and a sane size.
func (h *Header) Valid() bool {
	return string(h.Magic[:]) == MagicLCF && h.HeaderSize >= headerSize && h.SectionCount > 0
}

// Compatible reports whether the header major version can be read.
func (h *Header) Compatible() bool {
	return h.Major == CurrentMajor
}

func encodeHeader(dst []byte, h Header) bool {
	if len(dst) < headerSize {
		return false
	}
	copy(dst[0:4], h.Magic[:])
	binary.LittleEndian.PutUint16(dst[4:6], h.Major)
	binary.LittleEndian.PutUint16(dst[6:8], h.Minor)
	binary.LittleEndian.PutUint32(dst[8:12], h.HeaderSize)
	binary.LittleEndian.PutUint32(dst[12:16], h.SectionCount)
	binary.LittleEndian.PutUint64(dst[16:24], h.SectionDirOffset)
	binary.LittleEndian.PutUint64(dst[24:32], h.FileSize)
	binary.LittleEndian.PutUint64(dst[32:40], h.Flags)
	return true
}

func decodeHeader(src []byte) (Header, bool) {
	var h Header
	if len(src) < headerSize {
		return h, false
	}
	copy(h.Magic[:], src[0:4])
	h.Major = binary.LittleEndian.Uint16(src[4:6])
	h.Minor = binary.LittleEndian.Uint16(src[6:8])
	h.HeaderSize = binary.LittleEndian.Uint32(src[8:12])
	h.SectionCount = binary.LittleEndian.Uint32(src[12:16])
	h.SectionDirOffset = binary.LittleEndian.Uint64(src[16:24])
	h.FileSize = binary.LittleEndian.Uint64(src[24:32])
	h.Flags = binary.LittleEndian.Uint64(src[32:40])
	return h, true
}

func encodeSection(dst []byte, s Section) bool {
	if len(dst) < sectionSize {
		return false
	}
	binary.LittleEndian.PutUint32(dst[0:4], s.Type)
	binary.LittleEndian.PutUint32(dst[4:8], s.Version)
	binary.LittleEndian.PutUint64(dst[8:16], s.Offset)
	binary.LittleEndian.PutUint64(dst[16:24], s.Size)
	return true
}

func decodeSection(src []byte) (Section, bool) {
	if len(src) < sectionSize {
		return Section{}, false
	}
	return Section{
		Type:    binary.LittleEndian.Uint32(src[0:4]),
		Version: binary.LittleEndian.Uint32(src[4:8]),
		Offset:  binary.LittleEndian.Uint64(src[8:16]),
		Size:    binary.LittleEndian.Uint64(src[16:24]),
	}, true
}

func rangesOverlap(a0, a1, b0, b1 uint64) bool {
	// half-open ranges [a0,a1) and [b0,b1)
	return a0 < b1 && b0 < a1
}
