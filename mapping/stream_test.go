package mapping_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/mapping"
	"github.com/brevity-dev/wirecodec/streamio"
)

func TestFirstReferenceIsNewSecondIsNot(t *testing.T) {
	s := mapping.NewStream()
	buf := &bytes.Buffer{}
	b := bitio.New(streamio.FromReadWriter(buf, buf))

	isNew, err := s.WriteRef(b, "foo")
	require.NoError(t, err)
	require.True(t, isNew)

	isNew, err = s.WriteRef(b, "foo")
	require.NoError(t, err)
	require.False(t, isNew)

	isNew, err = s.WriteRef(b, "bar")
	require.NoError(t, err)
	require.True(t, isNew)
}

func TestReadSideMirrorsWriteSide(t *testing.T) {
	w := mapping.NewStream()
	buf := &bytes.Buffer{}
	b := bitio.New(streamio.FromReadWriter(buf, buf))

	_, err := w.WriteRef(b, "foo")
	require.NoError(t, err)
	_, err = w.WriteRef(b, "foo")
	require.NoError(t, err)
	_, err = w.WriteRef(b, "bar")
	require.NoError(t, err)
	require.NoError(t, b.Flush())

	r := mapping.NewStream()
	rb := bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil))

	id1, isNew, err := r.ReadRef(rb)
	require.NoError(t, err)
	require.True(t, isNew)
	r.Bind(id1, "foo")

	id2, isNew, err := r.ReadRef(rb)
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, id1, id2)

	id3, isNew, err := r.ReadRef(rb)
	require.NoError(t, err)
	require.True(t, isNew)
	require.NotEqual(t, id1, id3)
}

func TestGetAndResetForgetsTransientButPromoteSurvives(t *testing.T) {
	s := mapping.NewStream()
	buf := &bytes.Buffer{}
	b := bitio.New(streamio.FromReadWriter(buf, buf))

	_, err := s.WriteRef(b, "kept")
	require.NoError(t, err)
	_, err = s.WriteRef(b, "dropped")
	require.NoError(t, err)

	s.Promote("kept")
	s.GetAndReset()

	id, isNew := s.Assign("kept")
	require.False(t, isNew)
	require.Equal(t, uint64(1), id)

	_, isNew = s.Assign("dropped")
	require.True(t, isNew, "a non-promoted entry must be re-sent after reset")
}

func TestSnapshotRestoreSeedsPersistentTierAndIDWidth(t *testing.T) {
	s := mapping.NewStream()
	buf := &bytes.Buffer{}
	b := bitio.New(streamio.FromReadWriter(buf, buf))

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.WriteRef(b, name)
		require.NoError(t, err)
		s.Promote(name)
	}
	snap := s.Snapshot()
	require.Len(t, snap, 3)
	require.Equal(t, mapping.PersistentEntry{Name: "a", ID: 1}, snap[0])

	restored := mapping.NewStream()
	restored.Restore(snap)

	id, isNew := restored.Assign("b")
	require.False(t, isNew)
	require.Equal(t, uint64(2), id)

	id, isNew = restored.Assign("new")
	require.True(t, isNew)
	require.Equal(t, uint64(4), id, "new assignments continue past the highest restored id")
}
