package bitio_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/streamio"
)

func newBuffer() (*bytes.Buffer, *bitio.BitBuffer) {
	buf := &bytes.Buffer{}
	return buf, bitio.New(streamio.FromReadWriter(buf, buf))
}

// TestSingleBool exercises spec.md §8 scenario 1: writing a lone bool and
// flushing leaves exactly one byte, 0x01.
func TestSingleBool(t *testing.T) {
	buf, b := newBuffer()
	require.NoError(t, b.WriteBool(true))
	require.NoError(t, b.Flush())
	require.Equal(t, []byte{0x01}, buf.Bytes())
}

func TestFlushAtZeroIsNoOp(t *testing.T) {
	_, b := newBuffer()
	require.NoError(t, b.Flush())
	require.NoError(t, b.Flush())
}

func TestBitRoundTripAllWidths(t *testing.T) {
	for n := 1; n <= 64; n++ {
		buf, b := newBuffer()
		var max uint64
		if n == 64 {
			max = math.MaxUint64
		} else {
			max = (uint64(1) << uint(n)) - 1
		}
		require.NoError(t, b.WriteBits(max, n))
		require.NoError(t, b.Flush())

		r := bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil))
		got, err := r.ReadBits(n)
		require.NoError(t, err)
		require.Equal(t, max, got, "width %d", n)
	}
}

func TestBackToBackWritesDecodeInOrder(t *testing.T) {
	buf, b := newBuffer()
	widths := []int{1, 3, 7, 16, 32, 5, 64, 2}
	values := make([]uint64, len(widths))
	for i, w := range widths {
		v := uint64(i*37+1) & ((uint64(1) << uint(w)) - 1)
		if w == 64 {
			v = uint64(i*37 + 1)
		}
		values[i] = v
		require.NoError(t, b.WriteBits(v, w))
	}
	require.NoError(t, b.Flush())

	r := bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil))
	for i, w := range widths {
		got, err := r.ReadBits(w)
		require.NoError(t, err)
		require.Equal(t, values[i], got, "index %d", i)
	}
}

func TestTypedPrimitivesRoundTrip(t *testing.T) {
	buf, b := newBuffer()
	require.NoError(t, b.WriteInt32(-7))
	require.NoError(t, b.WriteUint32(42))
	require.NoError(t, b.WriteFloat32(3.5))
	require.NoError(t, b.WriteInt64(-123456789))
	require.NoError(t, b.WriteFloat64(2.71828))
	require.NoError(t, b.WriteVec3(bitio.Vec3{1, 2, 3}))
	require.NoError(t, b.WriteVec4(bitio.Vec4{1, 2, 3, 4}))
	require.NoError(t, b.WriteString("hello"))
	require.NoError(t, b.WriteUTF16String("héllo"))
	require.NoError(t, b.WriteColor(bitio.Color{R: 1, G: 2, B: 3, A: 4}))
	require.NoError(t, b.WriteDateTime(1234567890))
	require.NoError(t, b.WriteRegex(bitio.Regex{Pattern: "a.*b", CaseSensitive: true, Syntax: 2, Minimal: true}))
	require.NoError(t, b.Flush())

	r := bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil))

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	require.EqualValues(t, -7, i32)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	require.EqualValues(t, 42, u32)

	f32, err := r.ReadFloat32()
	require.NoError(t, err)
	require.InDelta(t, 3.5, f32, 1e-6)

	i64, err := r.ReadInt64()
	require.NoError(t, err)
	require.EqualValues(t, -123456789, i64)

	f64, err := r.ReadFloat64()
	require.NoError(t, err)
	require.InDelta(t, 2.71828, f64, 1e-9)

	vec3, err := r.ReadVec3()
	require.NoError(t, err)
	require.Equal(t, bitio.Vec3{1, 2, 3}, vec3)

	vec4, err := r.ReadVec4()
	require.NoError(t, err)
	require.Equal(t, bitio.Vec4{1, 2, 3, 4}, vec4)

	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	s16, err := r.ReadUTF16String()
	require.NoError(t, err)
	require.Equal(t, "héllo", s16)

	color, err := r.ReadColor()
	require.NoError(t, err)
	require.Equal(t, bitio.Color{R: 1, G: 2, B: 3, A: 4}, color)

	dt, err := r.ReadDateTime()
	require.NoError(t, err)
	require.EqualValues(t, 1234567890, dt)

	re, err := r.ReadRegex()
	require.NoError(t, err)
	require.Equal(t, bitio.Regex{Pattern: "a.*b", CaseSensitive: true, Syntax: 2, Minimal: true}, re)
}
