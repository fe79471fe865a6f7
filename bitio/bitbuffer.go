// Package bitio implements the bit-level packing primitive described in
// spec.md §3 ("Bit Buffer state") and §4.1. A single in-flight byte plus a
// bit position 0-7 sits in front of an opaque streamio.ByteStream; flushing
// on write and pulling on read happen exactly at the byte boundaries spec.md
// names as invariants.
package bitio

import (
	"math"
	"unicode/utf16"

	"github.com/pkg/errors"

	"github.com/brevity-dev/wirecodec/streamio"
)

// BitBuffer packs and unpacks bits onto an underlying byte stream, least
// significant bit first within each byte — the same convention the teacher's
// core/data/binary.BitStream uses for its in-memory equivalent.
type BitBuffer struct {
	stream streamio.ByteStream

	writeCur byte
	writePos uint // 0-7: number of bits already placed in writeCur

	readCur byte
	readPos uint // 0-7: number of bits already consumed from readCur

	err error
}

// New returns a BitBuffer reading from and writing to stream.
func New(stream streamio.ByteStream) *BitBuffer {
	return &BitBuffer{stream: stream}
}

// Reset clears in-flight bit state. Callers begin each session with a fresh
// position per spec.md §5 ("a reader begins each session with position 0").
func (b *BitBuffer) Reset() {
	b.writeCur, b.writePos = 0, 0
	b.readCur, b.readPos = 0, 0
	b.err = nil
}

// Error returns the first I/O error encountered, if any.
func (b *BitBuffer) Error() error { return b.err }

// SetError records err as the buffer's sticky error, if one isn't already set.
func (b *BitBuffer) SetError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Flush emits the partial trailing byte (zero-padded) and resets the write
// position. It is a no-op when the write position is already 0, satisfying
// spec.md §3's "idempotent at position 0" invariant. Callers must flush at
// message boundaries before handing the stream to framing code (spec.md §5).
func (b *BitBuffer) Flush() error {
	if b.writePos == 0 {
		return b.err
	}
	if b.err == nil {
		b.err = b.stream.PutByte(b.writeCur)
	}
	b.writeCur, b.writePos = 0, 0
	return b.err
}

// WriteBits writes the low nbits bits of value (0-64), least significant bit
// first.
func (b *BitBuffer) WriteBits(value uint64, nbits int) error {
	if b.err != nil {
		return b.err
	}
	for i := 0; i < nbits; i++ {
		if (value>>uint(i))&1 != 0 {
			b.writeCur |= 1 << b.writePos
		}
		b.writePos++
		if b.writePos == 8 {
			if err := b.stream.PutByte(b.writeCur); err != nil {
				b.err = err
				return err
			}
			b.writeCur, b.writePos = 0, 0
		}
	}
	return nil
}

// ReadBits reads nbits bits (0-64), least significant bit first.
func (b *BitBuffer) ReadBits(nbits int) (uint64, error) {
	if b.err != nil {
		return 0, b.err
	}
	var value uint64
	for i := 0; i < nbits; i++ {
		if b.readPos == 0 {
			nb, err := b.stream.GetByte()
			if err != nil {
				b.err = err
				return 0, err
			}
			b.readCur = nb
		}
		if (b.readCur>>b.readPos)&1 != 0 {
			value |= 1 << uint(i)
		}
		b.readPos = (b.readPos + 1) % 8
	}
	return value, nil
}

// Write copies nbits contiguous bits from src, beginning at src bit offset
// srcBitOffset, into the buffer. Bits within src are addressed least
// significant bit first within each byte, bytes in stream order — matching
// spec.md §4.1's generic write(src, nbits, src_bit_offset) entry point.
func (b *BitBuffer) Write(src []byte, nbits int, srcBitOffset int) error {
	for written := 0; written < nbits; {
		chunk := nbits - written
		if chunk > 64 {
			chunk = 64
		}
		value := extractBits(src, srcBitOffset+written, chunk)
		if err := b.WriteBits(value, chunk); err != nil {
			return err
		}
		written += chunk
	}
	return nil
}

// Read copies nbits contiguous bits from the buffer into dst, beginning at
// dst bit offset dstBitOffset.
func (b *BitBuffer) Read(dst []byte, nbits int, dstBitOffset int) error {
	for read := 0; read < nbits; {
		chunk := nbits - read
		if chunk > 64 {
			chunk = 64
		}
		value, err := b.ReadBits(chunk)
		if err != nil {
			return err
		}
		depositBits(dst, dstBitOffset+read, chunk, value)
		read += chunk
	}
	return nil
}

func extractBits(src []byte, offset, count int) uint64 {
	var v uint64
	for i := 0; i < count; i++ {
		bitIdx := offset + i
		byteIdx := bitIdx / 8
		if byteIdx >= len(src) {
			break
		}
		bit := (src[byteIdx] >> uint(bitIdx%8)) & 1
		v |= uint64(bit) << uint(i)
	}
	return v
}

func depositBits(dst []byte, offset, count int, value uint64) {
	for i := 0; i < count; i++ {
		bitIdx := offset + i
		byteIdx := bitIdx / 8
		if byteIdx >= len(dst) {
			break
		}
		if (value>>uint(i))&1 != 0 {
			dst[byteIdx] |= 1 << uint(bitIdx%8)
		} else {
			dst[byteIdx] &^= 1 << uint(bitIdx%8)
		}
	}
}

// --- typed primitive helpers (spec.md §4.1) ---

// WriteBool writes a single bit.
func (b *BitBuffer) WriteBool(v bool) error {
	if v {
		return b.WriteBits(1, 1)
	}
	return b.WriteBits(0, 1)
}

// ReadBool reads a single bit.
func (b *BitBuffer) ReadBool() (bool, error) {
	v, err := b.ReadBits(1)
	return v != 0, err
}

// WriteInt32 writes a 32-bit signed integer.
func (b *BitBuffer) WriteInt32(v int32) error { return b.WriteBits(uint64(uint32(v)), 32) }

// ReadInt32 reads a 32-bit signed integer.
func (b *BitBuffer) ReadInt32() (int32, error) {
	v, err := b.ReadBits(32)
	return int32(uint32(v)), err
}

// WriteUint32 writes a 32-bit unsigned integer.
func (b *BitBuffer) WriteUint32(v uint32) error { return b.WriteBits(uint64(v), 32) }

// ReadUint32 reads a 32-bit unsigned integer.
func (b *BitBuffer) ReadUint32() (uint32, error) {
	v, err := b.ReadBits(32)
	return uint32(v), err
}

// WriteInt64 writes a 64-bit signed integer.
func (b *BitBuffer) WriteInt64(v int64) error { return b.WriteBits(uint64(v), 64) }

// ReadInt64 reads a 64-bit signed integer.
func (b *BitBuffer) ReadInt64() (int64, error) {
	v, err := b.ReadBits(64)
	return int64(v), err
}

// WriteUint64 writes a 64-bit unsigned integer.
func (b *BitBuffer) WriteUint64(v uint64) error { return b.WriteBits(v, 64) }

// ReadUint64 reads a 64-bit unsigned integer.
func (b *BitBuffer) ReadUint64() (uint64, error) { return b.ReadBits(64) }

// WriteFloat32 writes a 32-bit IEEE-754 float.
func (b *BitBuffer) WriteFloat32(v float32) error {
	return b.WriteBits(uint64(math.Float32bits(v)), 32)
}

// ReadFloat32 reads a 32-bit IEEE-754 float.
func (b *BitBuffer) ReadFloat32() (float32, error) {
	v, err := b.ReadBits(32)
	return math.Float32frombits(uint32(v)), err
}

// WriteFloat64 writes a 64-bit IEEE-754 double.
func (b *BitBuffer) WriteFloat64(v float64) error {
	return b.WriteBits(math.Float64bits(v), 64)
}

// ReadFloat64 reads a 64-bit IEEE-754 double.
func (b *BitBuffer) ReadFloat64() (float64, error) {
	v, err := b.ReadBits(64)
	return math.Float64frombits(v), err
}

// Vec3 is a 3-component floating point vector.
type Vec3 [3]float32

// Vec4 is a 4-component floating point vector.
type Vec4 [4]float32

// WriteVec3 writes a 3-component float vector, component-wise.
func (b *BitBuffer) WriteVec3(v Vec3) error {
	for _, c := range v {
		if err := b.WriteFloat32(c); err != nil {
			return err
		}
	}
	return nil
}

// ReadVec3 reads a 3-component float vector, component-wise.
func (b *BitBuffer) ReadVec3() (Vec3, error) {
	var v Vec3
	for i := range v {
		c, err := b.ReadFloat32()
		if err != nil {
			return v, err
		}
		v[i] = c
	}
	return v, nil
}

// WriteVec4 writes a 4-component float vector, component-wise.
func (b *BitBuffer) WriteVec4(v Vec4) error {
	for _, c := range v {
		if err := b.WriteFloat32(c); err != nil {
			return err
		}
	}
	return nil
}

// ReadVec4 reads a 4-component float vector, component-wise.
func (b *BitBuffer) ReadVec4() (Vec4, error) {
	var v Vec4
	for i := range v {
		c, err := b.ReadFloat32()
		if err != nil {
			return v, err
		}
		v[i] = c
	}
	return v, nil
}

// WriteBytes writes a byte string: a 32-bit length prefix followed by
// length×8 payload bits.
func (b *BitBuffer) WriteBytes(data []byte) error {
	if err := b.WriteUint32(uint32(len(data))); err != nil {
		return err
	}
	for _, c := range data {
		if err := b.WriteBits(uint64(c), 8); err != nil {
			return err
		}
	}
	return nil
}

// ReadBytes reads a byte string written by WriteBytes.
func (b *BitBuffer) ReadBytes() ([]byte, error) {
	n, err := b.ReadUint32()
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i := range out {
		c, err := b.ReadBits(8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(c)
	}
	return out, nil
}

// WriteString writes a byte string using UTF-8 bytes.
func (b *BitBuffer) WriteString(s string) error { return b.WriteBytes([]byte(s)) }

// ReadString reads a byte string as UTF-8 bytes.
func (b *BitBuffer) ReadString() (string, error) {
	data, err := b.ReadBytes()
	return string(data), err
}

// WriteUTF16String writes a UTF-16 string: a 32-bit length prefix (count of
// UTF-16 code units) followed by length×16 payload bits.
func (b *BitBuffer) WriteUTF16String(s string) error {
	units := utf16.Encode([]rune(s))
	if err := b.WriteUint32(uint32(len(units))); err != nil {
		return err
	}
	for _, u := range units {
		if err := b.WriteBits(uint64(u), 16); err != nil {
			return err
		}
	}
	return nil
}

// ReadUTF16String reads a UTF-16 string written by WriteUTF16String.
func (b *BitBuffer) ReadUTF16String() (string, error) {
	n, err := b.ReadUint32()
	if err != nil {
		return "", err
	}
	units := make([]uint16, n)
	for i := range units {
		u, err := b.ReadBits(16)
		if err != nil {
			return "", err
		}
		units[i] = uint16(u)
	}
	return string(utf16.Decode(units)), nil
}

// Color is a packed RGBA color, one byte per channel.
type Color struct{ R, G, B, A uint8 }

// WriteColor writes a color as a packed 32-bit RGBA integer.
func (b *BitBuffer) WriteColor(c Color) error {
	packed := uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24
	return b.WriteUint32(packed)
}

// ReadColor reads a color written by WriteColor.
func (b *BitBuffer) ReadColor() (Color, error) {
	packed, err := b.ReadUint32()
	if err != nil {
		return Color{}, err
	}
	return Color{
		R: uint8(packed), G: uint8(packed >> 8), B: uint8(packed >> 16), A: uint8(packed >> 24),
	}, nil
}

// WriteDateTime writes millis, milliseconds since the Unix epoch, as 64 bits.
func (b *BitBuffer) WriteDateTime(millis int64) error { return b.WriteInt64(millis) }

// ReadDateTime reads a date-time written by WriteDateTime, in milliseconds
// since the Unix epoch.
func (b *BitBuffer) ReadDateTime() (int64, error) { return b.ReadInt64() }

// RegexSyntax selects which regex dialect a Regex value is written in; it
// occupies 3 bits on the wire.
type RegexSyntax uint8

// Regex is a compiled-pattern value: a pattern string plus flags, per
// spec.md §4.1.
type Regex struct {
	Pattern       string
	CaseSensitive bool
	Syntax        RegexSyntax // 0-7
	Minimal       bool        // non-greedy matching
}

// WriteRegex writes pattern string + 1 bit case-sensitivity + 3 bits syntax +
// 1 bit minimal flag.
func (b *BitBuffer) WriteRegex(r Regex) error {
	if r.Syntax > 7 {
		return errors.Errorf("regex syntax %d out of 3-bit range", r.Syntax)
	}
	if err := b.WriteString(r.Pattern); err != nil {
		return err
	}
	if err := b.WriteBool(r.CaseSensitive); err != nil {
		return err
	}
	if err := b.WriteBits(uint64(r.Syntax), 3); err != nil {
		return err
	}
	return b.WriteBool(r.Minimal)
}

// ReadRegex reads a regex written by WriteRegex.
func (b *BitBuffer) ReadRegex() (Regex, error) {
	var r Regex
	var err error
	if r.Pattern, err = b.ReadString(); err != nil {
		return r, err
	}
	if r.CaseSensitive, err = b.ReadBool(); err != nil {
		return r, err
	}
	syntax, err := b.ReadBits(3)
	if err != nil {
		return r, err
	}
	r.Syntax = RegexSyntax(syntax)
	if r.Minimal, err = b.ReadBool(); err != nil {
		return r, err
	}
	return r, nil
}
