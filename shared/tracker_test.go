package shared_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/mapping"
	"github.com/brevity-dev/wirecodec/negotiate"
	"github.com/brevity-dev/wirecodec/registry"
	"github.com/brevity-dev/wirecodec/schema"
	"github.com/brevity-dev/wirecodec/shared"
	"github.com/brevity-dev/wirecodec/streamio"
)

type actor struct {
	HP, MP int32
}

var actorClass = &schema.ClassDescriptor{
	Name: "actor",
	NewInstance: func() schema.Instance {
		return &actor{}
	},
}

func (a *actor) ClassDescriptor() *schema.ClassDescriptor { return actorClass }

func init() {
	reg := registry.New(registry.Global)
	i32, _ := reg.LookupType("int32")
	actorClass.Properties = []schema.PropertyField{
		{
			Name: "hp",
			Type: i32,
			Get:  func(v schema.Instance) interface{} { return v.(*actor).HP },
			Set:  func(v schema.Instance, fv interface{}) { v.(*actor).HP = fv.(int32) },
		},
		{
			Name: "mp",
			Type: i32,
			Get:  func(v schema.Instance) interface{} { return v.(*actor).MP },
			Set:  func(v schema.Instance, fv interface{}) { v.(*actor).MP = fv.(int32) },
		},
	}
	if err := registry.Global.RegisterClass(actorClass); err != nil {
		panic(err)
	}
}

func newPair(t *testing.T) (writer *negotiate.Negotiator, buf *bytes.Buffer, makeReader func() *negotiate.Negotiator) {
	t.Helper()
	reg := registry.New(registry.Global)
	buf = &bytes.Buffer{}
	wBits := bitio.New(streamio.FromReadWriter(buf, buf))
	wTypes, wClasses, wNames := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	writer = negotiate.New(wBits, reg, negotiate.FullMetadata, negotiate.NormalGenerics, wTypes, wClasses, wNames)
	makeReader = func() *negotiate.Negotiator {
		rBits := bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil))
		rTypes, rClasses, rNames := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
		return negotiate.New(rBits, reg, negotiate.FullMetadata, negotiate.NormalGenerics, rTypes, rClasses, rNames)
	}
	return writer, buf, makeReader
}

func TestFirstWriteFullSubsequentWritesRawDeltaAgainstOrigin(t *testing.T) {
	writer, _, makeReader := newPair(t)
	wStream := mapping.NewStream()
	wTracker := shared.New(wStream)

	ref := wTracker.Alloc(&actor{HP: 10, MP: 5})
	require.NoError(t, wTracker.WriteShared(writer, ref))

	require.NoError(t, wTracker.Update(ref, &actor{HP: 9, MP: 5}))
	require.NoError(t, wTracker.WriteShared(writer, ref))

	require.NoError(t, wTracker.Update(ref, &actor{HP: 8, MP: 5}))
	require.NoError(t, wTracker.WriteShared(writer, ref))
	require.NoError(t, writer.Bits().Flush())

	reader := makeReader()
	rStream := mapping.NewStream()
	rTracker := shared.New(rStream)

	_, got1, err := rTracker.ReadShared(reader)
	require.NoError(t, err)
	require.Equal(t, &actor{HP: 10, MP: 5}, got1)

	rRef2, got2, err := rTracker.ReadShared(reader)
	require.NoError(t, err)
	require.Equal(t, &actor{HP: 9, MP: 5}, got2)

	rRef3, got3, err := rTracker.ReadShared(reader)
	require.NoError(t, err)
	require.Equal(t, &actor{HP: 8, MP: 5}, got3)

	require.Equal(t, rRef2, rRef3)
}

func TestFreeInvalidatesRefAndQueuesCleared(t *testing.T) {
	stream := mapping.NewStream()
	tracker := shared.New(stream)

	ref := tracker.Alloc(&actor{HP: 1, MP: 1})
	_, ok := tracker.Get(ref)
	require.True(t, ok)

	tracker.Free(ref)
	_, ok = tracker.Get(ref)
	require.False(t, ok, "a freed ref must no longer resolve")

	require.Equal(t, []shared.Ref{ref}, tracker.TakeCleared())
	require.Empty(t, tracker.TakeCleared(), "TakeCleared drains the queue")
}

func TestStaleRefAfterSlotReuseIsDetected(t *testing.T) {
	stream := mapping.NewStream()
	tracker := shared.New(stream)

	first := tracker.Alloc(&actor{HP: 1, MP: 1})
	tracker.Free(first)

	second := tracker.Alloc(&actor{HP: 2, MP: 2})
	require.Equal(t, first.Index, second.Index, "freed slot should be reused")
	require.NotEqual(t, first.Generation, second.Generation)

	_, ok := tracker.Get(first)
	require.False(t, ok, "stale handle into a reused slot must not resolve")

	got, ok := tracker.Get(second)
	require.True(t, ok)
	require.Equal(t, &actor{HP: 2, MP: 2}, got)
}

func TestSnapshotRoundTripSeedsSlotsAtRecordedIndex(t *testing.T) {
	reg := registry.New(registry.Global)
	wStream := mapping.NewStream()
	wTracker := shared.New(wStream)

	first := wTracker.Alloc(&actor{HP: 10, MP: 5})
	second := wTracker.Alloc(&actor{HP: 20, MP: 8})
	wTracker.Free(first)
	third := wTracker.Alloc(&actor{HP: 30, MP: 1})

	buf := &bytes.Buffer{}
	under := streamio.FromReadWriter(buf, buf)
	require.NoError(t, wTracker.WriteSnapshot(under, reg, negotiate.FullMetadata))

	rStream := mapping.NewStream()
	rTracker := shared.New(rStream)
	readUnder := streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, rTracker.ReadSnapshot(readUnder, buf.Len(), reg, negotiate.FullMetadata))

	got2, ok := rTracker.Get(second)
	require.True(t, ok)
	require.Equal(t, &actor{HP: 20, MP: 8}, got2)

	got3, ok := rTracker.Get(third)
	require.True(t, ok)
	require.Equal(t, &actor{HP: 30, MP: 1}, got3)

	_, ok = rTracker.Get(first)
	require.False(t, ok, "freed slot must not be restored as live")
}

func TestResetOriginRebasesFutureDeltas(t *testing.T) {
	writer, _, makeReader := newPair(t)
	wStream := mapping.NewStream()
	wTracker := shared.New(wStream)

	ref := wTracker.Alloc(&actor{HP: 10, MP: 5})
	require.NoError(t, wTracker.WriteShared(writer, ref))

	require.NoError(t, wTracker.Update(ref, &actor{HP: 3, MP: 5}))
	require.NoError(t, wTracker.ResetOrigin(ref))
	require.NoError(t, wTracker.Update(ref, &actor{HP: 3, MP: 9}))
	require.NoError(t, wTracker.WriteShared(writer, ref))
	require.NoError(t, writer.Bits().Flush())

	reader := makeReader()
	rStream := mapping.NewStream()
	rTracker := shared.New(rStream)

	rRef1, got1, err := rTracker.ReadShared(reader)
	require.NoError(t, err)
	require.Equal(t, &actor{HP: 10, MP: 5}, got1)

	// The peer's ResetOrigin call is a protocol event both ends must agree
	// on having happened at this point in the message sequence, exactly
	// like promoting a mapping.Stream entry.
	require.NoError(t, rTracker.Update(rRef1, &actor{HP: 3, MP: 5}))
	require.NoError(t, rTracker.ResetOrigin(rRef1))

	_, got2, err := rTracker.ReadShared(reader)
	require.NoError(t, err)
	require.Equal(t, &actor{HP: 3, MP: 9}, got2)
}
