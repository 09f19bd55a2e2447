package quant

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestOperandSetAtNibbles(t *testing.T) {
	t.Parallel()

	o, err := NewOperand(4, 5)
	if err != nil {
		t.Fatalf("NewOperand: %v", err)
	}
	if len(o.Data) != 3 {
		t.Fatalf("data len = %d, want 3", len(o.Data))
	}
	vals := []uint8{0x1, 0xF, 0x7, 0x0, 0xA}
	for i, v := range vals {
		if err := o.Set(i, v); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	if o.Data[0] != 0xF1 || o.Data[1] != 0x07 || o.Data[2] != 0x0A {
		t.Fatalf("unexpected packing: %x", o.Data)
	}
	for i, v := range vals {
		if got := o.At(i); got != v {
			t.Fatalf("At(%d) = %d, want %d", i, got, v)
		}
	}
}

func TestOperandSetRejectsWideValue(t *testing.T) {
	t.Parallel()

	o, _ := NewOperand(4, 2)
	if err := o.Set(0, 16); !errors.Is(err, ErrValueRange) {
		t.Fatalf("expected ErrValueRange, got %v", err)
	}
	if err := o.Set(2, 1); err == nil {
		t.Fatalf("expected index error")
	}
}

func TestNewOperandRejectsBitWidth(t *testing.T) {
	t.Parallel()

	for _, bits := range []int{0, 3, 16, 32} {
		if _, err := NewOperand(bits, 4); !errors.Is(err, ErrBitWidth) {
			t.Fatalf("bits=%d: expected ErrBitWidth, got %v", bits, err)
		}
	}
}

func TestNewOperandRejectsOverflowingLength(t *testing.T) {
	t.Parallel()

	for _, bits := range []int{1, 4, 8} {
		n := (math.MaxInt-7)/bits + 1
		if _, err := NewOperand(bits, n); !errors.Is(err, ErrTooLarge) {
			t.Fatalf("bits=%d n=%d: expected ErrTooLarge, got %v", bits, n, err)
		}
	}
}

func TestWordLittleEndian(t *testing.T) {
	t.Parallel()

	o, _ := NewOperand(8, 8)
	for i := range 8 {
		_ = o.Set(i, uint8(i+1))
	}
	w, err := o.Word(1, 4)
	if err != nil {
		t.Fatalf("Word: %v", err)
	}
	if w != 0x08070605 {
		t.Fatalf("word = %#x, want 0x08070605", w)
	}
	for sub := range 4 {
		if got := Unpack(w, sub, 8); got != uint64(5+sub) {
			t.Fatalf("Unpack(%d) = %d, want %d", sub, got, 5+sub)
		}
	}
	if _, err := o.Word(2, 4); !errors.Is(err, ErrWordRange) {
		t.Fatalf("expected ErrWordRange, got %v", err)
	}
}

func TestWordNibbles(t *testing.T) {
	t.Parallel()

	o, _ := NewOperand(4, 8)
	for i := range 8 {
		_ = o.Set(i, uint8(15-i))
	}
	w, err := o.Word(0, 8)
	if err != nil {
		t.Fatalf("Word: %v", err)
	}
	for sub := range 8 {
		if got := Unpack(w, sub, 4); got != uint64(15-sub) {
			t.Fatalf("Unpack(%d) = %d, want %d", sub, got, 15-sub)
		}
	}
	if _, err := o.Word(0, 3); !errors.Is(err, ErrBitWidth) {
		t.Fatalf("expected ErrBitWidth for odd nibble word, got %v", err)
	}
}

func TestRandomIsSeeded(t *testing.T) {
	t.Parallel()

	a, err := Random(rand.New(rand.NewSource(7)), 4, 64)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	b, _ := Random(rand.New(rand.NewSource(7)), 4, 64)
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("byte %d differs for equal seeds", i)
		}
	}
	for i := 0; i < a.Len; i++ {
		if uint64(a.At(i)) > a.Mask() {
			t.Fatalf("value %d out of range", a.At(i))
		}
	}
}

func TestFromBytes(t *testing.T) {
	t.Parallel()

	o, err := FromBytes(4, []byte{0x21, 0x43})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if o.Len != 4 {
		t.Fatalf("len = %d, want 4", o.Len)
	}
	for i, want := range []uint8{1, 2, 3, 4} {
		if o.At(i) != want {
			t.Fatalf("At(%d) = %d, want %d", i, o.At(i), want)
		}
	}
}
