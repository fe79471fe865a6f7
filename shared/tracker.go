// Package shared implements the Shared-Object Tracker of spec.md §4.8 /
// Design Notes §9 (C8): objects referenced from more than one place in a
// graph are written once in full and, on every later appearance, as a
// delta against the object's tracked origin — not against whatever
// version happened to be current on the last message, so a client that
// joined partway through a session still converges to the right value.
// Local identity uses generational indices (Design Notes' explicit
// preference over refcounting) so a stale handle to a cleared slot is
// detected instead of silently aliasing a reused one. Object interning
// itself is delegated to mapping.Stream (C5), reused rather than
// reimplemented, mirroring the cyclic package's key+type+data protocol
// (framework/binary/cyclic/doc.go) one layer up the stack.
package shared

import (
	"github.com/pkg/errors"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/mapping"
	"github.com/brevity-dev/wirecodec/negotiate"
	"github.com/brevity-dev/wirecodec/registry"
	"github.com/brevity-dev/wirecodec/schema"
	"github.com/brevity-dev/wirecodec/streamio"
)

// Ref is a generational handle to a tracked object: Index identifies the
// slot, Generation must match the slot's current generation for the
// handle to still be valid. A Ref surviving past its slot's Free() is
// stale and Get reports it as not found, rather than risking aliasing
// whatever object now occupies that slot.
type Ref struct {
	Index      uint32
	Generation uint32
}

type slot struct {
	generation uint32
	alive      bool
	obj        schema.Instance
	origin     schema.Instance
}

// Tracker is one end's view of the shared-object graph: local slots
// (allocated by this side's own sharing decisions) and the mapping.Stream
// used to intern objects with the peer.
type Tracker struct {
	slots  []slot
	free   []uint32
	stream *mapping.Stream

	// cleared receives every Ref that Free invalidates, for callers that
	// want to propagate a "shared-object-cleared" notification (e.g. to
	// drop cached UI state keyed by that Ref) without polling.
	cleared []Ref
}

// New returns a Tracker backed by stream for object interning. Callers
// share one Stream across a whole session, exactly as with C5 directly.
func New(stream *mapping.Stream) *Tracker {
	return &Tracker{stream: stream}
}

// Alloc reserves a new slot for obj and returns its Ref. obj's current
// field values become its origin — the baseline every future delta is
// taken against until ResetOrigin is called.
func (t *Tracker) Alloc(obj schema.Instance) Ref {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.generation++
		s.alive = true
		s.obj = obj
		s.origin = obj
		return Ref{Index: idx, Generation: s.generation}
	}
	idx := uint32(len(t.slots))
	t.slots = append(t.slots, slot{generation: 1, alive: true, obj: obj, origin: obj})
	return Ref{Index: idx, Generation: 1}
}

func (t *Tracker) lookup(ref Ref) (*slot, bool) {
	if int(ref.Index) >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[ref.Index]
	if !s.alive || s.generation != ref.Generation {
		return nil, false
	}
	return s, true
}

// Get returns the live object at ref, or (nil, false) if ref is stale.
func (t *Tracker) Get(ref Ref) (schema.Instance, bool) {
	s, ok := t.lookup(ref)
	if !ok {
		return nil, false
	}
	return s.obj, true
}

// Update replaces the tracked object at ref without touching its origin,
// so the next WriteShared/ReadShared call deltas against the same
// baseline as before.
func (t *Tracker) Update(ref Ref, obj schema.Instance) error {
	s, ok := t.lookup(ref)
	if !ok {
		return errors.Errorf("wirecodec: stale shared-object ref %+v", ref)
	}
	s.obj = obj
	return nil
}

// ResetOrigin re-bases ref's delta origin to its current object, e.g.
// after both ends are known to have converged on the latest value.
func (t *Tracker) ResetOrigin(ref Ref) error {
	s, ok := t.lookup(ref)
	if !ok {
		return errors.Errorf("wirecodec: stale shared-object ref %+v", ref)
	}
	s.origin = s.obj
	return nil
}

// Free invalidates ref: its slot becomes reusable (with a bumped
// generation so old Refs reliably miss) and the Ref is queued for
// TakeCleared to report as a shared-object-cleared notification.
func (t *Tracker) Free(ref Ref) {
	s, ok := t.lookup(ref)
	if !ok {
		return
	}
	s.alive = false
	s.obj = nil
	s.origin = nil
	t.free = append(t.free, ref.Index)
	t.cleared = append(t.cleared, ref)
}

// TakeCleared returns every Ref freed since the last call and resets the
// queue, for a caller that wants to propagate shared-object-cleared
// notifications (spec.md §4.8) without polling Free itself.
func (t *Tracker) TakeCleared() []Ref {
	out := t.cleared
	t.cleared = nil
	return out
}

// WriteShared interns the object at ref on the wire, keyed by the Ref
// itself rather than by the object's contents (so Update-ing the tracked
// object in place doesn't change its wire identity). First appearance
// writes the object in full; every later appearance writes only the
// interned id plus a raw delta against the tracked origin — not against
// whatever value happened to be current on the previous message, so a
// peer that missed intermediate messages still converges correctly.
func (t *Tracker) WriteShared(ctx schema.Context, ref Ref) error {
	s, ok := t.lookup(ref)
	if !ok {
		return errors.Errorf("wirecodec: stale shared-object ref %+v", ref)
	}
	isNew, err := t.stream.WriteRef(ctx.Bits(), ref)
	if err != nil {
		return err
	}
	objType := &schema.ObjectType{Class: s.obj.ClassDescriptor()}
	if isNew {
		return objType.Write(ctx, s.obj)
	}
	return objType.WriteRawDelta(ctx, s.obj, s.origin)
}

// ReadShared decodes the next shared-object reference: a fresh class and
// full object on first appearance (allocating a new local Ref for it), or
// an id plus raw delta against the tracked origin on a later appearance
// (updating the existing Ref's object in place).
func (t *Tracker) ReadShared(ctx schema.Context) (Ref, schema.Instance, error) {
	id, isNew, err := t.stream.ReadRef(ctx.Bits())
	if err != nil {
		return Ref{}, nil, err
	}
	if isNew {
		v, err := (&schema.ObjectType{}).Read(ctx)
		if err != nil {
			return Ref{}, nil, err
		}
		inst, ok := v.(schema.Instance)
		if !ok {
			return Ref{}, nil, errors.New("wirecodec: decoded shared object does not implement Instance")
		}
		ref := t.Alloc(inst)
		t.stream.Bind(id, ref)
		return ref, inst, nil
	}
	key, ok := t.stream.Lookup(id)
	if !ok {
		return Ref{}, nil, errors.Errorf("wirecodec: shared-object ref %d was never bound", id)
	}
	ref := key.(Ref)
	s, ok := t.lookup(ref)
	if !ok {
		return Ref{}, nil, errors.Errorf("wirecodec: stale shared-object ref %+v", ref)
	}
	objType := &schema.ObjectType{Class: s.obj.ClassDescriptor()}
	v, err := objType.ReadRawDelta(ctx, s.origin)
	if err != nil {
		return Ref{}, nil, err
	}
	inst, ok := v.(schema.Instance)
	if !ok {
		return Ref{}, nil, errors.New("wirecodec: decoded shared-object delta does not implement Instance")
	}
	s.obj = inst
	return ref, inst, nil
}

// WriteSnapshot writes every live slot's full current object — Index,
// Generation, class, then properties — as a single zstd-compressed frame on
// under, using a throwaway Negotiator/mapping pair scoped to just this
// frame (spec.md §4.8's one-time bulk transfer, SPEC_FULL.md's C8: "large
// initial snapshots of shared-object graphs are the one payload shape in
// this domain large enough to be worth compressing"). Per-message deltas
// continue to go through WriteShared/ReadShared uncompressed.
func (t *Tracker) WriteSnapshot(under streamio.ByteStream, reg *registry.Registry, mode negotiate.MetadataMode) error {
	enc, err := streamio.NewCompressedWriter(under)
	if err != nil {
		return errors.Wrap(err, "opening shared-object snapshot frame")
	}
	bits := bitio.New(enc)
	n := negotiate.New(bits, reg, mode, negotiate.NormalGenerics, mapping.NewStream(), mapping.NewStream(), mapping.NewStream())

	var live []uint32
	for i, s := range t.slots {
		if s.alive {
			live = append(live, uint32(i))
		}
	}
	if err := bits.WriteUint32(uint32(len(live))); err != nil {
		return err
	}
	for _, idx := range live {
		s := &t.slots[idx]
		if err := bits.WriteUint32(idx); err != nil {
			return err
		}
		if err := bits.WriteUint32(s.generation); err != nil {
			return err
		}
		objType := &schema.ObjectType{Class: s.obj.ClassDescriptor()}
		if err := objType.Write(n, s.obj); err != nil {
			return err
		}
	}
	if err := bits.Flush(); err != nil {
		return err
	}
	return enc.Flush()
}

// ReadSnapshot reads a frame written by WriteSnapshot and seeds this
// Tracker's slots directly at their recorded Index/Generation, with origin
// set to the decoded object — the baseline future WriteShared/ReadShared
// deltas are taken against. limit bounds the compressed frame's byte length.
func (t *Tracker) ReadSnapshot(under streamio.ByteStream, limit int, reg *registry.Registry, mode negotiate.MetadataMode) error {
	dec, err := streamio.NewCompressedReader(under, limit)
	if err != nil {
		return errors.Wrap(err, "opening shared-object snapshot frame")
	}
	defer dec.Close()
	bits := bitio.New(dec)
	n := negotiate.New(bits, reg, mode, negotiate.NormalGenerics, mapping.NewStream(), mapping.NewStream(), mapping.NewStream())

	count, err := bits.ReadUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		idx, err := bits.ReadUint32()
		if err != nil {
			return err
		}
		gen, err := bits.ReadUint32()
		if err != nil {
			return err
		}
		v, err := (&schema.ObjectType{}).Read(n)
		if err != nil {
			return err
		}
		inst, ok := v.(schema.Instance)
		if !ok {
			return errors.New("wirecodec: decoded snapshot object does not implement Instance")
		}
		for uint32(len(t.slots)) <= idx {
			t.slots = append(t.slots, slot{})
		}
		t.slots[idx] = slot{generation: gen, alive: true, obj: inst, origin: inst}
	}
	return nil
}
