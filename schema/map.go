package schema

// MapEntry is one (key, value) pair of a Map value. Maps are represented
// as []MapEntry rather than a native Go map so that non-comparable Go
// values (structs containing slices, etc.) can still be used as keys —
// key comparison goes through the Key descriptor's Equal, mirroring how
// every other compound Descriptor compares through its element type.
type MapEntry struct {
	Key   interface{}
	Value interface{}
}

// MapType is the Descriptor for key/value maps (spec.md §4.4 "Map"):
// absolute write/read is a count followed by key/value pairs; delta
// writes counts of added, modified, and removed entries in that order,
// each followed by the key (and, for added/modified, the value or
// value-delta).
type MapType struct {
	TypeName string
	Key      Descriptor
	Value    Descriptor

	// Alias, as in ListType, is never on the wire and is not read anywhere.
	Alias string
}

func (m *MapType) Name() string { return m.TypeName }
func (m *MapType) Kind() Kind   { return KindMap }

func (m *MapType) Write(ctx Context, value interface{}) error {
	entries := value.([]MapEntry)
	if err := ctx.Bits().WriteUint32(uint32(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := m.Key.Write(ctx, e.Key); err != nil {
			return err
		}
		if err := m.Value.Write(ctx, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (m *MapType) Read(ctx Context) (interface{}, error) {
	n, err := ctx.Bits().ReadUint32()
	if err != nil {
		return nil, err
	}
	entries := make([]MapEntry, n)
	for i := range entries {
		k, err := m.Key.Read(ctx)
		if err != nil {
			return nil, err
		}
		v, err := m.Value.Read(ctx)
		if err != nil {
			return nil, err
		}
		entries[i] = MapEntry{Key: k, Value: v}
	}
	return entries, nil
}

func (m *MapType) find(entries []MapEntry, key interface{}) (MapEntry, bool) {
	for _, e := range entries {
		if m.Key.Equal(e.Key, key) {
			return e, true
		}
	}
	return MapEntry{}, false
}

func (m *MapType) Equal(a, b interface{}) bool {
	av, bv := a.([]MapEntry), b.([]MapEntry)
	if len(av) != len(bv) {
		return false
	}
	for _, e := range av {
		match, ok := m.find(bv, e.Key)
		if !ok || !m.Value.Equal(e.Value, match.Value) {
			return false
		}
	}
	return true
}

func (m *MapType) WriteDelta(ctx Context, value, reference interface{}) error {
	return DefaultWriteDelta(ctx, m, value, reference)
}

func (m *MapType) WriteRawDelta(ctx Context, value, reference interface{}) error {
	newEntries := value.([]MapEntry)
	refEntries := reference.([]MapEntry)

	var added, modified, removed []MapEntry
	var modifiedOld []MapEntry
	for _, e := range newEntries {
		old, ok := m.find(refEntries, e.Key)
		if !ok {
			added = append(added, e)
			continue
		}
		if !m.Value.Equal(e.Value, old.Value) {
			modified = append(modified, e)
			modifiedOld = append(modifiedOld, old)
		}
	}
	for _, e := range refEntries {
		if _, ok := m.find(newEntries, e.Key); !ok {
			removed = append(removed, e)
		}
	}

	if err := ctx.Bits().WriteUint32(uint32(len(added))); err != nil {
		return err
	}
	for _, e := range added {
		if err := m.Key.Write(ctx, e.Key); err != nil {
			return err
		}
		if err := m.Value.Write(ctx, e.Value); err != nil {
			return err
		}
	}

	if err := ctx.Bits().WriteUint32(uint32(len(modified))); err != nil {
		return err
	}
	for i, e := range modified {
		if err := m.Key.Write(ctx, e.Key); err != nil {
			return err
		}
		if err := m.Value.WriteRawDelta(ctx, e.Value, modifiedOld[i].Value); err != nil {
			return err
		}
	}

	if err := ctx.Bits().WriteUint32(uint32(len(removed))); err != nil {
		return err
	}
	for _, e := range removed {
		if err := m.Key.Write(ctx, e.Key); err != nil {
			return err
		}
	}
	return nil
}

func (m *MapType) ReadDelta(ctx Context, reference interface{}) (interface{}, error) {
	return DefaultReadDelta(ctx, m, reference)
}

func (m *MapType) ReadRawDelta(ctx Context, reference interface{}) (interface{}, error) {
	refEntries := reference.([]MapEntry)
	out := make([]MapEntry, len(refEntries))
	copy(out, refEntries)

	addedCount, err := ctx.Bits().ReadUint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < addedCount; i++ {
		k, err := m.Key.Read(ctx)
		if err != nil {
			return nil, err
		}
		v, err := m.Value.Read(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, MapEntry{Key: k, Value: v})
	}

	modifiedCount, err := ctx.Bits().ReadUint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < modifiedCount; i++ {
		k, err := m.Key.Read(ctx)
		if err != nil {
			return nil, err
		}
		old, ok := m.find(refEntries, k)
		if !ok {
			return nil, errUnexpectedType("MapType.ReadRawDelta", m.TypeName, k)
		}
		v, err := m.Value.ReadRawDelta(ctx, old.Value)
		if err != nil {
			return nil, err
		}
		for j, e := range out {
			if m.Key.Equal(e.Key, k) {
				out[j].Value = v
				break
			}
		}
	}

	removedCount, err := ctx.Bits().ReadUint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < removedCount; i++ {
		k, err := m.Key.Read(ctx)
		if err != nil {
			return nil, err
		}
		for j, e := range out {
			if m.Key.Equal(e.Key, k) {
				out = append(out[:j], out[j+1:]...)
				break
			}
		}
	}
	return out, nil
}
