package schema

import "github.com/pkg/errors"

// FieldReader pairs a sub-TypeReader for one remote field with the index of
// the matching local field, or -1 if the remote field has no local match
// and should be decoded then dropped (spec.md §3 "Read plans"). Name is the
// remote field/property's own name — distinct from Reader.Name(), which
// names the field's *type* (e.g. "int32") — and is what the generic
// map[string]interface{} fallback keys its result by when there is no local
// field to populate instead.
type FieldReader struct {
	Name       string
	Reader     *TypeReader
	LocalIndex int
}

// TypeReader is a read plan for one remote type: either an exact local
// match (everything delegates straight to Local) or a translating plan
// that knows how to walk the remote shape — enum value remap, compound
// element/key readers, field reorder/drop — while still producing a local
// value. negotiate.Negotiator builds these from remote metadata (spec.md
// §4.6); it satisfies Descriptor so it can be handed back wherever a
// Descriptor is expected (e.g. as the result of Context.ReadTypeRef).
type TypeReader struct {
	RemoteName string
	RemoteKind Kind
	Local      Descriptor
	Exact      bool

	// Enum translation: EnumRemoteToLocal maps remote enum-member values to
	// local ones. For flag enums, unmatched raw bits are recombined
	// independently bit-by-bit (spec.md §4.4 "Enum").
	EnumWidth         uint
	EnumFlags         bool
	EnumRemoteToLocal map[uint64]uint64

	// Compound translation.
	ElemReader *TypeReader // List/Set element, or Map value
	KeyReader  *TypeReader // Map key
	Fields     []FieldReader
}

func (t *TypeReader) Name() string {
	if t.Exact && t.Local != nil {
		return t.Local.Name()
	}
	return t.RemoteName
}

func (t *TypeReader) Kind() Kind { return t.RemoteKind }

func (t *TypeReader) Write(ctx Context, value interface{}) error {
	if t.Exact && t.Local != nil {
		return t.Local.Write(ctx, value)
	}
	return errors.Errorf("wirecodec: cannot write through a non-exact type reader for %q", t.RemoteName)
}

func (t *TypeReader) Read(ctx Context) (interface{}, error) {
	if t.Exact && t.Local != nil {
		return t.Local.Read(ctx)
	}
	switch t.RemoteKind {
	case KindSimple:
		// Primitives have no translating wire format independent of their
		// local descriptor — AllGenerics still needs Local here even though
		// Exact is forced false, or the value is simply undecodable.
		if t.Local != nil {
			return t.Local.Read(ctx)
		}
		return nil, errors.Errorf("wirecodec: unknown simple type %q cannot be decoded", t.RemoteName)
	case KindEnum:
		raw, err := ctx.Bits().ReadBits(int(t.EnumWidth))
		if err != nil {
			return nil, err
		}
		return t.translateEnum(raw), nil
	case KindList, KindSet:
		count, err := ctx.Bits().ReadUint32()
		if err != nil {
			return nil, err
		}
		elems := make([]interface{}, count)
		for i := range elems {
			v, err := t.ElemReader.Read(ctx)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return elems, nil
	case KindMap:
		count, err := ctx.Bits().ReadUint32()
		if err != nil {
			return nil, err
		}
		entries := make([]MapEntry, count)
		for i := range entries {
			k, err := t.KeyReader.Read(ctx)
			if err != nil {
				return nil, err
			}
			v, err := t.ElemReader.Read(ctx)
			if err != nil {
				return nil, err
			}
			entries[i] = MapEntry{Key: k, Value: v}
		}
		return entries, nil
	case KindRecord:
		return t.readRecord(ctx)
	case KindObject:
		plan, err := ctx.ReadClassRef()
		if err != nil {
			return nil, err
		}
		if plan == nil {
			return nil, nil
		}
		return ReadObjectPlan(ctx, plan)
	case KindGeneric:
		inner, err := ctx.ReadTypeRef()
		if err != nil {
			return nil, err
		}
		if inner == nil {
			return GenericValue{}, nil
		}
		val, err := inner.Read(ctx)
		if err != nil {
			return nil, err
		}
		return GenericValue{Type: inner, Value: val}, nil
	default:
		return nil, errors.Errorf("wirecodec: type reader for %q has unknown remote kind", t.RemoteName)
	}
}

func (t *TypeReader) translateEnum(raw uint64) uint64 {
	if t.EnumRemoteToLocal == nil {
		return raw
	}
	if v, ok := t.EnumRemoteToLocal[raw]; ok {
		return v
	}
	if !t.EnumFlags {
		return 0
	}
	var combined uint64
	for bit := uint(0); bit < t.EnumWidth; bit++ {
		mask := uint64(1) << bit
		if raw&mask == 0 {
			continue
		}
		if v, ok := t.EnumRemoteToLocal[mask]; ok {
			combined |= v
		}
	}
	return combined
}

func (t *TypeReader) readRecord(ctx Context) (interface{}, error) {
	local, _ := t.Local.(*RecordType)
	if local == nil {
		result := make(map[string]interface{}, len(t.Fields))
		for _, fr := range t.Fields {
			v, err := fr.Reader.Read(ctx)
			if err != nil {
				return nil, err
			}
			result[fr.Name] = v
		}
		return result, nil
	}
	inst := local.New()
	for _, fr := range t.Fields {
		v, err := fr.Reader.Read(ctx)
		if err != nil {
			return nil, err
		}
		if fr.LocalIndex >= 0 {
			local.Fields[fr.LocalIndex].Set(inst, v)
		}
	}
	return inst, nil
}

func (t *TypeReader) Equal(a, b interface{}) bool {
	if t.Exact && t.Local != nil {
		return t.Local.Equal(a, b)
	}
	return equalFallback(a, b)
}

func (t *TypeReader) WriteDelta(ctx Context, value, reference interface{}) error {
	if t.Exact && t.Local != nil {
		return t.Local.WriteDelta(ctx, value, reference)
	}
	return errors.Errorf("wirecodec: cannot write-delta through a non-exact type reader for %q", t.RemoteName)
}

func (t *TypeReader) WriteRawDelta(ctx Context, value, reference interface{}) error {
	if t.Exact && t.Local != nil {
		return t.Local.WriteRawDelta(ctx, value, reference)
	}
	return errors.Errorf("wirecodec: cannot write-raw-delta through a non-exact type reader for %q", t.RemoteName)
}

// ReadDelta for an exact reader delegates fully, including the leading
// flag. For a translating reader, schema-mismatch-plus-delta combinations
// are narrow enough (spec.md doesn't specify them) that we fall back to a
// fresh absolute read, discarding reference.
func (t *TypeReader) ReadDelta(ctx Context, reference interface{}) (interface{}, error) {
	if t.Exact && t.Local != nil {
		return t.Local.ReadDelta(ctx, reference)
	}
	changed, err := ctx.Bits().ReadBool()
	if err != nil {
		return nil, err
	}
	if !changed {
		return reference, nil
	}
	return t.Read(ctx)
}

func (t *TypeReader) ReadRawDelta(ctx Context, reference interface{}) (interface{}, error) {
	if t.Exact && t.Local != nil {
		return t.Local.ReadRawDelta(ctx, reference)
	}
	return t.Read(ctx)
}

// ObjectReader is the translating read plan for a remote class whose shape
// does not exactly match a local ClassDescriptor: an ordered list of
// property readers, each either mapped to a local property index or
// dropped (spec.md §3).
type ObjectReader struct {
	RemoteClassName string
	Properties      []FieldReader
}

// ObjectPlan is what Context.ReadClassRef returns: the resolved local
// class (nil if the remote class has no local registration at all), and
// either the exact flag or a translating ObjectReader.
type ObjectPlan struct {
	Class  *ClassDescriptor
	Exact  bool
	Reader *ObjectReader

	// Generic forces ReadObjectPlan to decode into a name/value map instead
	// of a locally typed instance, even when Class resolves exactly
	// (negotiate's AllGenerics mode, spec.md §4.6: "the reader never maps to
	// a local descriptor and always produces a generic read-plan").
	Generic bool

	// Upgrade, if set, replaces a freshly decoded instance of Class with
	// whatever a frozen class's registered upgrader produces (registry's
	// RegisterUpgrader), so old streams referencing a superseded class name
	// still resolve to a live instance instead of the frozen shape.
	Upgrade func(decoded interface{}) interface{}
}

func (p *ObjectPlan) RemoteName() string {
	if p.Reader != nil {
		return p.Reader.RemoteClassName
	}
	if p.Class != nil {
		return p.Class.Name
	}
	return "<unknown>"
}
