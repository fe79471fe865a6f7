// Package mapping implements the Mapping Stream of spec.md §4.5 (C5): the
// intern-and-assign-ID protocol shared by the Type Registry's type
// references, Object class references, and the Shared-Object Tracker's
// local ids. It is grounded on the wire protocol documented (but whose
// implementation was not retrieved) in the teacher's
// framework/binary/cyclic/doc.go: a value is written in full the first
// time ("key + type + data"), and by id alone on every subsequent
// reference. Mapping adds spec.md's two lifetime tiers on top of that
// protocol: transient entries live for one message and are forgotten by
// GetAndReset; persistent entries, reached via Promote, survive across
// messages for the life of the Stream.
package mapping

import (
	"sort"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/idstream"
)

// Stream is one intern table, independently instantiated per concern
// (types, classes, shared objects) and per direction (a Stream used for
// writing and one used for reading are separate instances that must
// observe the same sequence of operations to stay synchronized).
type Stream struct {
	width          *idstream.Width
	nextID         uint64
	persistent     map[interface{}]uint64
	persistentByID map[uint64]interface{}
	transient      map[interface{}]uint64
	transientByID  map[uint64]interface{}
}

// NewStream returns an empty Stream with its id width starting at 1 bit.
// Id 0 is reserved for the null entity (spec.md §4.5's write algorithm,
// step 1: "if E is null, emit ID 0 and stop"); real entities are assigned
// starting at 1.
func NewStream() *Stream {
	return &Stream{
		width:          idstream.NewWidth(),
		nextID:         1,
		persistent:     map[interface{}]uint64{},
		persistentByID: map[uint64]interface{}{},
		transient:      map[interface{}]uint64{},
		transientByID:  map[uint64]interface{}{},
	}
}

// Assign returns the id for key, assigning the next sequential id and
// recording key in the transient tier if this is the first time key has
// been seen by this Stream (isNew is true only on that first call). key
// must not be nil; WriteRef/ReadRef handle the null entity themselves
// without ever calling Assign.
func (s *Stream) Assign(key interface{}) (id uint64, isNew bool) {
	if id, ok := s.persistent[key]; ok {
		return id, false
	}
	if id, ok := s.transient[key]; ok {
		return id, false
	}
	id = s.nextID
	s.nextID++
	s.transient[key] = id
	s.transientByID[id] = key
	return id, true
}

// WriteRef assigns (or reuses) key's id and writes it through the
// variable-width id stream, reporting whether the caller must now also
// write the full value (isNew) or may rely on the peer's own table
// (!isNew). A nil key writes the reserved null id (0) and is never new.
func (s *Stream) WriteRef(b *bitio.BitBuffer, key interface{}) (isNew bool, err error) {
	if key == nil {
		return false, s.width.Write(b, 0)
	}
	id, isNew := s.Assign(key)
	if err := s.width.Write(b, id); err != nil {
		return false, err
	}
	return isNew, nil
}

// ReadRef reads the next id off the wire. An id of 0 is the reserved null
// entity — the caller must treat it as null and never pass it to Lookup
// or Bind. Otherwise isNew reports whether id has not previously been
// bound in this Stream — the caller must then decode the full value and
// call Bind to register it before the id can be resolved by future calls.
func (s *Stream) ReadRef(b *bitio.BitBuffer) (id uint64, isNew bool, err error) {
	id, err = s.width.Read(b)
	if err != nil {
		return 0, false, err
	}
	if id == 0 {
		return 0, false, nil
	}
	if _, known := s.persistentByID[id]; known {
		return id, false, nil
	}
	if _, known := s.transientByID[id]; known {
		return id, false, nil
	}
	return id, true, nil
}

// Bind registers key as the value bound to id, for an id obtained from a
// ReadRef call that reported isNew.
func (s *Stream) Bind(id uint64, key interface{}) {
	s.transient[key] = id
	s.transientByID[id] = key
}

// Lookup resolves a previously bound id back to its key, in either tier.
func (s *Stream) Lookup(id uint64) (interface{}, bool) {
	if k, ok := s.persistentByID[id]; ok {
		return k, true
	}
	if k, ok := s.transientByID[id]; ok {
		return k, true
	}
	return nil, false
}

// Promote moves key from the transient tier to the persistent tier, so it
// survives a future GetAndReset instead of being forgotten at the end of
// the current message.
func (s *Stream) Promote(key interface{}) {
	id, ok := s.transient[key]
	if !ok {
		return
	}
	s.persistent[key] = id
	s.persistentByID[id] = key
	delete(s.transient, key)
	delete(s.transientByID, id)
}

// PromoteID is Promote by id instead of key, for the read side.
func (s *Stream) PromoteID(id uint64) {
	key, ok := s.transientByID[id]
	if !ok {
		return
	}
	s.Promote(key)
}

// GetAndReset returns every key currently held in the transient tier, then
// clears it, ready for the next message. Persistent entries and the id
// width are unaffected — message boundaries never reset the id sequence,
// only the "have I already sent/seen this" bookkeeping for entries that
// were never promoted.
func (s *Stream) GetAndReset() []interface{} {
	keys := make([]interface{}, 0, len(s.transient))
	for k := range s.transient {
		keys = append(keys, k)
	}
	s.transient = map[interface{}]uint64{}
	s.transientByID = map[uint64]interface{}{}
	return keys
}

// Width returns the current bit-width of the underlying id stream.
func (s *Stream) Width() uint { return s.width.Bits() }

// PersistentEntry is one (name, id) pair of a Stream's persistent tier,
// used to snapshot/restore the tables keyed by the type and class names
// that WriteTypeRef/WriteClassRef intern (codecconf's session-profile
// format) — a Stream whose keys aren't strings (e.g. the Shared-Object
// Tracker's Ref-keyed stream) has nothing meaningful to snapshot this way.
type PersistentEntry struct {
	Name string
	ID   uint64
}

// Snapshot returns every persistent-tier entry whose key is a string, for
// serialization. Entries are ordered by id.
func (s *Stream) Snapshot() []PersistentEntry {
	out := make([]PersistentEntry, 0, len(s.persistent))
	for k, id := range s.persistent {
		name, ok := k.(string)
		if !ok {
			continue
		}
		out = append(out, PersistentEntry{Name: name, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Restore seeds the persistent tier from entries previously produced by
// Snapshot and advances the id width past the highest restored id, so a
// long-running peer can pre-seed its persistent table from a prior
// session's snapshot instead of re-interning everything from scratch.
func (s *Stream) Restore(entries []PersistentEntry) {
	var maxID uint64
	for _, e := range entries {
		s.persistent[e.Name] = e.ID
		s.persistentByID[e.ID] = e.Name
		if e.ID > maxID {
			maxID = e.ID
		}
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
	if len(entries) > 0 {
		s.width.SetFromValue(maxID)
	}
}
