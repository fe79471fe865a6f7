package schema

import "math/bits"

// EnumMember is one declared (name, value) pair of an enum type.
type EnumMember struct {
	Name  string
	Value uint64
}

// EnumType is the Descriptor for enums (spec.md §4.4 "Enum"). Non-flag and
// flag enums share the same wire shape — W bits holding the member's raw
// value, where W is the minimum width that can hold the largest declared
// member value. The Flags bit only changes how negotiate reconciles a
// remote enum against a local one (per-bit vs. whole-value remap); the
// encode/decode body itself is identical.
type EnumType struct {
	TypeName string
	Members  []EnumMember
	Flags    bool

	width uint
}

func (e *EnumType) Name() string { return e.TypeName }
func (e *EnumType) Kind() Kind   { return KindEnum }

// Width returns the number of bits needed to hold the largest declared
// member value, computing and caching it on first use.
func (e *EnumType) Width() uint {
	if e.width != 0 {
		return e.width
	}
	var max uint64
	for _, m := range e.Members {
		if m.Value > max {
			max = m.Value
		}
	}
	e.width = uint(bits.Len64(max))
	if e.width == 0 {
		e.width = 0 // a lone zero-valued member needs no bits at all
	}
	return e.width
}

func (e *EnumType) Write(ctx Context, value interface{}) error {
	return ctx.Bits().WriteBits(value.(uint64), int(e.Width()))
}

func (e *EnumType) Read(ctx Context) (interface{}, error) {
	return ctx.Bits().ReadBits(int(e.Width()))
}

func (e *EnumType) Equal(a, b interface{}) bool {
	return a.(uint64) == b.(uint64)
}

func (e *EnumType) WriteDelta(ctx Context, value, reference interface{}) error {
	return DefaultWriteDelta(ctx, e, value, reference)
}

func (e *EnumType) WriteRawDelta(ctx Context, value, reference interface{}) error {
	return e.Write(ctx, value)
}

func (e *EnumType) ReadDelta(ctx Context, reference interface{}) (interface{}, error) {
	return DefaultReadDelta(ctx, e, reference)
}

func (e *EnumType) ReadRawDelta(ctx Context, reference interface{}) (interface{}, error) {
	return e.Read(ctx)
}
