package schema

// DefaultWriteDelta implements the generic delta contract of spec.md §4.4:
// a single "changed" flag, computed from d.Equal, followed — only when
// changed — by d.WriteRawDelta. Every concrete Descriptor's WriteDelta
// method delegates here so the flag-then-body shape is implemented once.
func DefaultWriteDelta(ctx Context, d Descriptor, value, reference interface{}) error {
	changed := !d.Equal(value, reference)
	if err := ctx.Bits().WriteBool(changed); err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return d.WriteRawDelta(ctx, value, reference)
}

// DefaultReadDelta is the read-side counterpart of DefaultWriteDelta.
func DefaultReadDelta(ctx Context, d Descriptor, reference interface{}) (interface{}, error) {
	changed, err := ctx.Bits().ReadBool()
	if err != nil {
		return nil, err
	}
	if !changed {
		return reference, nil
	}
	return d.ReadRawDelta(ctx, reference)
}
