// Package quant packs fixed-width unsigned integers into byte buffers.
//
// Elements are stored little-endian: element i occupies bits
// [i*Bits, (i+1)*Bits) of the buffer, so a machine word read little-endian
// from the buffer yields its sub-elements at shifts 0, Bits, 2*Bits, ...
package quant

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
)

// Operand is a logical array of Bits-wide values packed contiguously.
type Operand struct {
	Bits int
	Len  int
	Data []byte
}

// NewOperand allocates a zeroed operand holding n values of the given width.
func NewOperand(bits, n int) (*Operand, error) {
	if !validBits(bits) {
		return nil, fmt.Errorf("%w: %d", ErrBitWidth, bits)
	}
	if n < 0 {
		return nil, fmt.Errorf("quant: negative length %d", n)
	}
	if n > (math.MaxInt-7)/bits {
		return nil, fmt.Errorf("%w: %d values of %d bits", ErrTooLarge, n, bits)
	}
	return &Operand{
		Bits: bits,
		Len:  n,
		Data: make([]byte, (n*bits+7)/8),
	}, nil
}

// FromBytes wraps an existing packed buffer. The buffer is not copied.
func FromBytes(bits int, data []byte) (*Operand, error) {
	if !validBits(bits) {
		return nil, fmt.Errorf("%w: %d", ErrBitWidth, bits)
	}
	return &Operand{
		Bits: bits,
		Len:  len(data) * 8 / bits,
		Data: data,
	}, nil
}

// Random returns an operand of n values drawn uniformly from [0, 2^bits).
func Random(rng *rand.Rand, bits, n int) (*Operand, error) {
	o, err := NewOperand(bits, n)
	if err != nil {
		return nil, err
	}
	limit := 1 << bits
	for i := 0; i < n; i++ {
		o.put(i, uint8(rng.Intn(limit)))
	}
	return o, nil
}

// Mask returns 2^Bits - 1.
func (o *Operand) Mask() uint64 {
	return Mask(o.Bits)
}

// At returns element i.
func (o *Operand) At(i int) uint8 {
	bit := i * o.Bits
	b := o.Data[bit/8]
	return (b >> (bit % 8)) & uint8(Mask(o.Bits))
}

// Set stores v at element i.
func (o *Operand) Set(i int, v uint8) error {
	if i < 0 || i >= o.Len {
		return fmt.Errorf("quant: index %d out of range [0,%d)", i, o.Len)
	}
	if uint64(v) > o.Mask() {
		return fmt.Errorf("%w: %d does not fit in %d bits", ErrValueRange, v, o.Bits)
	}
	o.put(i, v)
	return nil
}

func (o *Operand) put(i int, v uint8) {
	bit := i * o.Bits
	shift := bit % 8
	m := uint8(Mask(o.Bits)) << shift
	o.Data[bit/8] = o.Data[bit/8]&^m | (v<<shift)&m
}

// WordBytes reports how many bytes a word of perWord elements occupies.
func (o *Operand) WordBytes(perWord int) int {
	return perWord * o.Bits / 8
}

// Words reports how many whole words of perWord elements the operand holds.
func (o *Operand) Words(perWord int) int {
	if perWord <= 0 {
		return 0
	}
	return o.Len / perWord
}

// Word reads word idx, made of perWord consecutive elements, as a
// little-endian integer. perWord*Bits must be a whole number of bytes no
// wider than 64 bits.
func (o *Operand) Word(idx, perWord int) (uint64, error) {
	nbytes := o.WordBytes(perWord)
	if perWord*o.Bits%8 != 0 || nbytes == 0 || nbytes > 8 {
		return 0, fmt.Errorf("%w: %d x %d-bit elements", ErrBitWidth, perWord, o.Bits)
	}
	start := idx * nbytes
	if idx < 0 || start+nbytes > len(o.Data) {
		return 0, fmt.Errorf("%w: word %d of %d", ErrWordRange, idx, len(o.Data)/nbytes)
	}
	var buf [8]byte
	copy(buf[:], o.Data[start:start+nbytes])
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Unpack extracts sub-element sub of a packed word.
func Unpack(word uint64, sub, bits int) uint64 {
	return (word >> (sub * bits)) & Mask(bits)
}

// Mask returns 2^bits - 1.
func Mask(bits int) uint64 {
	return (uint64(1) << bits) - 1
}

// ElementsPerWord returns wordBits / bits.
func ElementsPerWord(wordBits, bits int) int {
	if bits <= 0 {
		return 0
	}
	return wordBits / bits
}

func validBits(bits int) bool {
	switch bits {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}
