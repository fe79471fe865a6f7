package schema

// ListType is the Descriptor for ordered sequences (spec.md §4.4
// "List / Set"): write emits the length then each element via Elem;
// delta writes new and reference lengths, recurses delta-against-
// reference over the shared prefix, and writes new-index elements
// absolute. Values are represented as []interface{}.
type ListType struct {
	TypeName string
	Elem     Descriptor

	// Alias is an optional friendlier Go-level name (e.g. a named slice
	// type like "Path") kept separate from TypeName's structural identity.
	// It never appears on the wire under any metadata mode (FullMetadata
	// already carries a name per spec.md §4.6), and nothing in this module
	// reads it, including log output and cmd/wirecodecdump.
	Alias string
}

func (l *ListType) Name() string { return l.TypeName }
func (l *ListType) Kind() Kind   { return KindList }

func (l *ListType) Write(ctx Context, value interface{}) error {
	items := value.([]interface{})
	if err := ctx.Bits().WriteUint32(uint32(len(items))); err != nil {
		return err
	}
	for _, v := range items {
		if err := l.Elem.Write(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (l *ListType) Read(ctx Context) (interface{}, error) {
	n, err := ctx.Bits().ReadUint32()
	if err != nil {
		return nil, err
	}
	items := make([]interface{}, n)
	for i := range items {
		v, err := l.Elem.Read(ctx)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

func (l *ListType) Equal(a, b interface{}) bool {
	av, bv := a.([]interface{}), b.([]interface{})
	if len(av) != len(bv) {
		return false
	}
	for i := range av {
		if !l.Elem.Equal(av[i], bv[i]) {
			return false
		}
	}
	return true
}

func (l *ListType) WriteDelta(ctx Context, value, reference interface{}) error {
	return DefaultWriteDelta(ctx, l, value, reference)
}

// WriteRawDelta writes the new and reference lengths, then for the shared
// prefix a nested delta against the reference element, and for indices
// past the reference length an absolute value — spec.md §8 scenario 4.
func (l *ListType) WriteRawDelta(ctx Context, value, reference interface{}) error {
	newItems := value.([]interface{})
	refItems := reference.([]interface{})
	if err := ctx.Bits().WriteUint32(uint32(len(newItems))); err != nil {
		return err
	}
	if err := ctx.Bits().WriteUint32(uint32(len(refItems))); err != nil {
		return err
	}
	for i, v := range newItems {
		if i < len(refItems) {
			if err := l.Elem.WriteDelta(ctx, v, refItems[i]); err != nil {
				return err
			}
		} else {
			if err := l.Elem.Write(ctx, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *ListType) ReadDelta(ctx Context, reference interface{}) (interface{}, error) {
	return DefaultReadDelta(ctx, l, reference)
}

func (l *ListType) ReadRawDelta(ctx Context, reference interface{}) (interface{}, error) {
	refItems := reference.([]interface{})
	newLen, err := ctx.Bits().ReadUint32()
	if err != nil {
		return nil, err
	}
	refLen, err := ctx.Bits().ReadUint32()
	if err != nil {
		return nil, err
	}
	_ = refLen // encoded for the reader's own bookkeeping; len(refItems) is authoritative here
	out := make([]interface{}, newLen)
	for i := range out {
		if i < len(refItems) {
			v, err := l.Elem.ReadDelta(ctx, refItems[i])
			if err != nil {
				return nil, err
			}
			out[i] = v
		} else {
			v, err := l.Elem.Read(ctx)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
	}
	return out, nil
}
