// Package idstream implements the variable-width ID encoding of spec.md
// §4.2: an unsigned integer whose width in bits grows by exactly one bit,
// in lock-step on both ends of the stream, whenever the all-ones sentinel
// for the current width is emitted or observed. It sits directly atop a
// bitio.BitBuffer, in the same spirit as the teacher's vle package pairing a
// small encoder/decoder with a pod.Reader/Writer.
package idstream

import (
	"math/bits"

	"github.com/brevity-dev/wirecodec/bitio"
)

// Width tracks the current bit-width of a variable-width ID stream. The zero
// value starts at width 1, matching spec.md §4.2.
type Width struct {
	bits uint
}

// NewWidth returns a Width starting at 1 bit.
func NewWidth() *Width { return &Width{bits: 1} }

// Bits returns the current width.
func (w *Width) Bits() uint {
	if w.bits == 0 {
		return 1
	}
	return w.bits
}

// sentinel returns (1<<W)-1, the all-ones value for the current width.
func (w *Width) sentinel() uint64 {
	return (uint64(1) << w.Bits()) - 1
}

// grow applies the post-increment rule: if v equals the sentinel for the
// width it was encoded/decoded at, the width grows by one.
func (w *Width) grow(v uint64) {
	if v == w.sentinel() {
		w.bits = w.Bits() + 1
	}
}

// SetFromValue sets the width to the minimum number of bits required to
// represent v+1 — used when rebuilding state from a known highest-assigned
// id, per spec.md §4.2's set_bits_from_value helper.
func (w *Width) SetFromValue(v uint64) {
	need := bits.Len64(v + 1)
	if need < 1 {
		need = 1
	}
	w.bits = uint(need)
}

// Write emits v at the current width and applies the post-increment rule.
// It is a contract violation (and panics, mirroring spec.md §4.2's "values
// above (1<<W)-1 are a contract violation by the caller") to pass a value
// that doesn't fit in the current width.
func (w *Width) Write(b *bitio.BitBuffer, v uint64) error {
	width := w.Bits()
	if v > (uint64(1)<<width)-1 {
		panic("idstream: value exceeds current width")
	}
	if err := b.WriteBits(v, int(width)); err != nil {
		return err
	}
	w.grow(v)
	return nil
}

// Read consumes an id at the current width and applies the post-increment
// rule.
func (w *Width) Read(b *bitio.BitBuffer) (uint64, error) {
	width := w.Bits()
	v, err := b.ReadBits(int(width))
	if err != nil {
		return 0, err
	}
	w.grow(v)
	return v, nil
}
