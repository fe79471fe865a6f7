package schema

// SetType is the Descriptor for unordered unique-element collections
// (spec.md §4.4 "List / Set"): absolute write/read is length-prefixed like
// List; delta writes the count of toggled elements (the symmetric
// difference between value and reference) followed by each toggled
// element in absolute form, read back by flipping membership starting
// from reference.
type SetType struct {
	TypeName string
	Elem     Descriptor

	// Alias, as in ListType, is never on the wire and is not read anywhere.
	Alias string
}

func (s *SetType) Name() string { return s.TypeName }
func (s *SetType) Kind() Kind   { return KindSet }

func (s *SetType) Write(ctx Context, value interface{}) error {
	items := value.([]interface{})
	if err := ctx.Bits().WriteUint32(uint32(len(items))); err != nil {
		return err
	}
	for _, v := range items {
		if err := s.Elem.Write(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *SetType) Read(ctx Context) (interface{}, error) {
	n, err := ctx.Bits().ReadUint32()
	if err != nil {
		return nil, err
	}
	items := make([]interface{}, n)
	for i := range items {
		v, err := s.Elem.Read(ctx)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

func (s *SetType) contains(items []interface{}, v interface{}) bool {
	for _, x := range items {
		if s.Elem.Equal(x, v) {
			return true
		}
	}
	return false
}

func (s *SetType) Equal(a, b interface{}) bool {
	av, bv := a.([]interface{}), b.([]interface{})
	if len(av) != len(bv) {
		return false
	}
	for _, v := range av {
		if !s.contains(bv, v) {
			return false
		}
	}
	return true
}

func (s *SetType) WriteDelta(ctx Context, value, reference interface{}) error {
	return DefaultWriteDelta(ctx, s, value, reference)
}

func (s *SetType) toggled(value, reference []interface{}) []interface{} {
	var out []interface{}
	for _, v := range value {
		if !s.contains(reference, v) {
			out = append(out, v)
		}
	}
	for _, v := range reference {
		if !s.contains(value, v) {
			out = append(out, v)
		}
	}
	return out
}

func (s *SetType) WriteRawDelta(ctx Context, value, reference interface{}) error {
	toggled := s.toggled(value.([]interface{}), reference.([]interface{}))
	if err := ctx.Bits().WriteUint32(uint32(len(toggled))); err != nil {
		return err
	}
	for _, v := range toggled {
		if err := s.Elem.Write(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *SetType) ReadDelta(ctx Context, reference interface{}) (interface{}, error) {
	return DefaultReadDelta(ctx, s, reference)
}

func (s *SetType) ReadRawDelta(ctx Context, reference interface{}) (interface{}, error) {
	refItems := reference.([]interface{})
	out := make([]interface{}, len(refItems))
	copy(out, refItems)

	k, err := ctx.Bits().ReadUint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < k; i++ {
		v, err := s.Elem.Read(ctx)
		if err != nil {
			return nil, err
		}
		if idx := s.indexOf(out, v); idx >= 0 {
			out = append(out[:idx], out[idx+1:]...)
		} else {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *SetType) indexOf(items []interface{}, v interface{}) int {
	for i, x := range items {
		if s.Elem.Equal(x, v) {
			return i
		}
	}
	return -1
}
