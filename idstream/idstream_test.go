package idstream_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/idstream"
	"github.com/brevity-dev/wirecodec/streamio"
)

// TestThreeIDs exercises spec.md §8 scenario 2: writing 0, 1, 2 uses widths
// 1, 2, 3 respectively for a total of 6 bits.
func TestThreeIDs(t *testing.T) {
	buf := &bytes.Buffer{}
	bb := bitio.New(streamio.FromReadWriter(buf, buf))
	w := idstream.NewWidth()

	require.Equal(t, uint(1), w.Bits())
	require.NoError(t, w.Write(bb, 0))
	require.Equal(t, uint(1), w.Bits())

	require.NoError(t, w.Write(bb, 1))
	require.Equal(t, uint(2), w.Bits())

	require.NoError(t, w.Write(bb, 2))
	require.Equal(t, uint(3), w.Bits())
	require.NoError(t, bb.Flush())

	require.Equal(t, 1, buf.Len())
}

func TestSequenceRoundTripAndBitCount(t *testing.T) {
	const k = 20
	buf := &bytes.Buffer{}
	bb := bitio.New(streamio.FromReadWriter(buf, buf))
	w := idstream.NewWidth()

	expectBits := 0
	for i := uint64(1); i <= k; i++ {
		expectBits += int(w.Bits())
		require.NoError(t, w.Write(bb, i))
	}
	require.NoError(t, bb.Flush())
	// Ids 1..20 take 1 + 2·2 + 3·4 + 4·8 + 5·5 bits: ⌈log₂(i+1)⌉ each.
	require.Equal(t, 74, expectBits)
	require.Equal(t, (expectBits+7)/8, buf.Len())

	rb := bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil))
	r := idstream.NewWidth()
	for i := uint64(1); i <= k; i++ {
		got, err := r.Read(rb)
		require.NoError(t, err)
		require.Equal(t, i, got)
	}
}

func TestSetFromValue(t *testing.T) {
	w := idstream.NewWidth()
	w.SetFromValue(5) // highest assigned id is 5, so width must cover 6
	require.GreaterOrEqual(t, w.Bits(), uint(3))
}
