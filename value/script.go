package value

import (
	"github.com/pkg/errors"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/codec"
	"github.com/brevity-dev/wirecodec/schema"
)

// ScriptKind tags which case of ScriptValue is populated.
type ScriptKind uint8

const (
	ScriptNull ScriptKind = iota
	ScriptBool
	ScriptInt
	ScriptFloat
	ScriptString
	ScriptBytes
	ScriptList
	ScriptMap
	ScriptObject
	ScriptEnum
	ScriptVec3
	ScriptVec4
	ScriptDateTime
	scriptKindCount
)

// ScriptValue is the dynamic tagged union of spec.md §4.7: a self-
// describing value used wherever the wire format needs to carry a fully
// dynamic script-language value rather than a statically typed field.
// Exactly one of the per-kind fields is meaningful, selected by Kind.
type ScriptValue struct {
	Kind     ScriptKind
	Bool     bool
	Int      int64
	Float    float64
	String   string
	Bytes    []byte
	List     []ScriptValue
	Map      []ScriptMapEntry
	Object   []ScriptProperty
	Enum     schema.GenericValue
	Vec3     bitio.Vec3
	Vec4     bitio.Vec4
	DateTime int64
}

// ScriptMapEntry is one entry of a ScriptMap-kind value.
type ScriptMapEntry struct {
	Key   ScriptValue
	Value ScriptValue
}

// ScriptProperty is one (name, value) pair of a ScriptObject-kind value: a
// fully dynamic open property bag, not a registered class instance (spec.md
// §4.7's Object case: "a sequence of (name, value) pairs terminated by an
// invalid name handle" — the script value's own self-describing purpose
// would be defeated by requiring a pre-registered schema.ClassDescriptor
// here).
type ScriptProperty struct {
	Name  string
	Value ScriptValue
}

const scriptKindBits = 4

// WriteScriptValue encodes a dynamic value: a kind tag followed by the
// kind's payload, recursing for List/Map/Object.
func WriteScriptValue(ctx schema.Context, v ScriptValue) error {
	b := ctx.Bits()
	if err := b.WriteBits(uint64(v.Kind), scriptKindBits); err != nil {
		return err
	}
	return writeScriptPayload(ctx, v)
}

// ReadScriptValue decodes a dynamic value written by WriteScriptValue.
func ReadScriptValue(ctx schema.Context) (ScriptValue, error) {
	b := ctx.Bits()
	rawKind, err := b.ReadBits(scriptKindBits)
	if err != nil {
		return ScriptValue{}, err
	}
	kind := ScriptKind(rawKind)
	if kind >= scriptKindCount {
		return ScriptValue{}, codec.Invariant("ScriptValue.kind", errors.Errorf("tag %d outside the 0-%d script value range", kind, scriptKindCount-1))
	}
	return readScriptPayload(ctx, kind)
}

// writeScriptPayload writes everything after the kind tag. Split out of
// WriteScriptValue so WriteScriptValueDelta's same-kind case, which writes
// its own kind tag first, can follow that tag with an absolute payload.
func writeScriptPayload(ctx schema.Context, v ScriptValue) error {
	b := ctx.Bits()
	switch v.Kind {
	case ScriptNull:
		return nil
	case ScriptBool:
		return b.WriteBool(v.Bool)
	case ScriptInt:
		return b.WriteInt64(v.Int)
	case ScriptFloat:
		return b.WriteFloat64(v.Float)
	case ScriptString:
		return b.WriteString(v.String)
	case ScriptBytes:
		return b.WriteBytes(v.Bytes)
	case ScriptList:
		if err := b.WriteUint32(uint32(len(v.List))); err != nil {
			return err
		}
		for _, e := range v.List {
			if err := WriteScriptValue(ctx, e); err != nil {
				return err
			}
		}
		return nil
	case ScriptMap:
		if err := b.WriteUint32(uint32(len(v.Map))); err != nil {
			return err
		}
		for _, e := range v.Map {
			if err := WriteScriptValue(ctx, e.Key); err != nil {
				return err
			}
			if err := WriteScriptValue(ctx, e.Value); err != nil {
				return err
			}
		}
		return nil
	case ScriptObject:
		return writeScriptObject(ctx, v.Object)
	case ScriptEnum:
		if err := ctx.WriteTypeRef(v.Enum.Type); err != nil {
			return err
		}
		return v.Enum.Type.Write(ctx, v.Enum.Value)
	case ScriptVec3:
		return b.WriteVec3(v.Vec3)
	case ScriptVec4:
		return b.WriteVec4(v.Vec4)
	case ScriptDateTime:
		return b.WriteDateTime(v.DateTime)
	default:
		return codec.Invariant("ScriptValue.kind", errors.Errorf("unknown script value kind %d", v.Kind))
	}
}

// readScriptPayload reads everything after the kind tag, given an already
// decoded kind. Mirrors writeScriptPayload.
func readScriptPayload(ctx schema.Context, kind ScriptKind) (ScriptValue, error) {
	b := ctx.Bits()
	switch kind {
	case ScriptNull:
		return ScriptValue{Kind: ScriptNull}, nil
	case ScriptBool:
		v, err := b.ReadBool()
		return ScriptValue{Kind: kind, Bool: v}, err
	case ScriptInt:
		v, err := b.ReadInt64()
		return ScriptValue{Kind: kind, Int: v}, err
	case ScriptFloat:
		v, err := b.ReadFloat64()
		return ScriptValue{Kind: kind, Float: v}, err
	case ScriptString:
		v, err := b.ReadString()
		return ScriptValue{Kind: kind, String: v}, err
	case ScriptBytes:
		v, err := b.ReadBytes()
		return ScriptValue{Kind: kind, Bytes: v}, err
	case ScriptList:
		n, err := b.ReadUint32()
		if err != nil {
			return ScriptValue{}, err
		}
		items := make([]ScriptValue, n)
		for i := range items {
			item, err := ReadScriptValue(ctx)
			if err != nil {
				return ScriptValue{}, err
			}
			items[i] = item
		}
		return ScriptValue{Kind: kind, List: items}, nil
	case ScriptMap:
		n, err := b.ReadUint32()
		if err != nil {
			return ScriptValue{}, err
		}
		entries := make([]ScriptMapEntry, n)
		for i := range entries {
			k, err := ReadScriptValue(ctx)
			if err != nil {
				return ScriptValue{}, err
			}
			val, err := ReadScriptValue(ctx)
			if err != nil {
				return ScriptValue{}, err
			}
			entries[i] = ScriptMapEntry{Key: k, Value: val}
		}
		return ScriptValue{Kind: kind, Map: entries}, nil
	case ScriptObject:
		props, err := readScriptObject(ctx)
		if err != nil {
			return ScriptValue{}, err
		}
		return ScriptValue{Kind: kind, Object: props}, nil
	case ScriptEnum:
		d, err := ctx.ReadTypeRef()
		if err != nil {
			return ScriptValue{}, err
		}
		raw, err := d.Read(ctx)
		if err != nil {
			return ScriptValue{}, err
		}
		return ScriptValue{Kind: kind, Enum: schema.GenericValue{Type: d, Value: raw}}, nil
	case ScriptVec3:
		v, err := b.ReadVec3()
		return ScriptValue{Kind: kind, Vec3: v}, err
	case ScriptVec4:
		v, err := b.ReadVec4()
		return ScriptValue{Kind: kind, Vec4: v}, err
	case ScriptDateTime:
		v, err := b.ReadDateTime()
		return ScriptValue{Kind: kind, DateTime: v}, err
	default:
		return ScriptValue{}, codec.Invariant("ScriptValue.kind", errors.Errorf("unknown script value kind %d", kind))
	}
}

// writeScriptObject writes an Object-kind payload as a (name, value)*
// sequence terminated by the invalid-name sentinel (spec.md §4.7, §4.9):
// a fully dynamic property bag rather than a registered class instance, so
// there is no schema.ClassDescriptor to drive field order or count.
func writeScriptObject(ctx schema.Context, props []ScriptProperty) error {
	for _, p := range props {
		name := p.Name
		if err := ctx.WriteNameRef(&name); err != nil {
			return err
		}
		if err := WriteScriptValue(ctx, p.Value); err != nil {
			return err
		}
	}
	return ctx.WriteNameRef(nil)
}

// readScriptObject decodes the (name, value)* sequence written by
// writeScriptObject.
func readScriptObject(ctx schema.Context) ([]ScriptProperty, error) {
	var props []ScriptProperty
	for {
		name, err := ctx.ReadNameRef()
		if err != nil {
			return nil, err
		}
		if name == nil {
			return props, nil
		}
		v, err := ReadScriptValue(ctx)
		if err != nil {
			return nil, err
		}
		props = append(props, ScriptProperty{Name: *name, Value: v})
	}
}

// WriteScriptValueDelta encodes v against a known reference ref (spec.md
// §4.7), following the same changed-flag-then-body shape as
// schema.DefaultWriteDelta: a single "changed" bit, false when v equals ref
// (the common case for mostly-static script state), then — only if
// changed —
//   - if the kinds differ, falls back to an absolute WriteScriptValue
//     (there is no meaningful payload-level delta across kinds);
//   - if the kinds match, writes the kind tag, then a compact payload
//     delta for List/Object (recursing per element/property) and otherwise
//     an absolute payload for Map and the scalar kinds (a changed
//     int/string/etc has no narrower wire form than its full value).
func WriteScriptValueDelta(ctx schema.Context, v, ref ScriptValue) error {
	b := ctx.Bits()
	changed := !scriptValuesEqual(v, ref)
	if err := b.WriteBool(changed); err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if v.Kind != ref.Kind {
		return WriteScriptValue(ctx, v)
	}
	if err := b.WriteBits(uint64(v.Kind), scriptKindBits); err != nil {
		return err
	}
	switch v.Kind {
	case ScriptList:
		return writeScriptListDelta(ctx, v.List, ref.List)
	case ScriptMap:
		return writeScriptPayload(ctx, v)
	case ScriptObject:
		return writeScriptObjectDelta(ctx, v.Object, ref.Object)
	default:
		return writeScriptPayload(ctx, v)
	}
}

// ReadScriptValueDelta decodes a value written by WriteScriptValueDelta,
// given the same reference the writer used.
func ReadScriptValueDelta(ctx schema.Context, ref ScriptValue) (ScriptValue, error) {
	b := ctx.Bits()
	changed, err := b.ReadBool()
	if err != nil {
		return ScriptValue{}, err
	}
	if !changed {
		return ref, nil
	}
	rawKind, err := b.ReadBits(scriptKindBits)
	if err != nil {
		return ScriptValue{}, err
	}
	kind := ScriptKind(rawKind)
	if kind >= scriptKindCount {
		return ScriptValue{}, codec.Invariant("ScriptValue.kind", errors.Errorf("tag %d outside the 0-%d script value range", kind, scriptKindCount-1))
	}
	if kind != ref.Kind {
		return readScriptPayload(ctx, kind)
	}
	switch kind {
	case ScriptList:
		items, err := readScriptListDelta(ctx, ref.List)
		if err != nil {
			return ScriptValue{}, err
		}
		return ScriptValue{Kind: kind, List: items}, nil
	case ScriptMap:
		return readScriptPayload(ctx, kind)
	case ScriptObject:
		props, err := readScriptObjectDelta(ctx, ref.Object)
		if err != nil {
			return ScriptValue{}, err
		}
		return ScriptValue{Kind: kind, Object: props}, nil
	default:
		return readScriptPayload(ctx, kind)
	}
}

// writeScriptListDelta mirrors schema/list.go's WriteRawDelta: a new-length
// and ref-length header, then per-index element deltas over the shared
// prefix and absolute values for any indices beyond ref's length.
func writeScriptListDelta(ctx schema.Context, v, ref []ScriptValue) error {
	b := ctx.Bits()
	if err := b.WriteUint32(uint32(len(v))); err != nil {
		return err
	}
	if err := b.WriteUint32(uint32(len(ref))); err != nil {
		return err
	}
	shared := len(v)
	if len(ref) < shared {
		shared = len(ref)
	}
	for i := 0; i < shared; i++ {
		if err := WriteScriptValueDelta(ctx, v[i], ref[i]); err != nil {
			return err
		}
	}
	for i := shared; i < len(v); i++ {
		if err := WriteScriptValue(ctx, v[i]); err != nil {
			return err
		}
	}
	return nil
}

// readScriptListDelta decodes a list written by writeScriptListDelta.
func readScriptListDelta(ctx schema.Context, ref []ScriptValue) ([]ScriptValue, error) {
	b := ctx.Bits()
	newLen, err := b.ReadUint32()
	if err != nil {
		return nil, err
	}
	refLen, err := b.ReadUint32()
	if err != nil {
		return nil, err
	}
	if int(refLen) != len(ref) {
		return nil, codec.Invariant("ScriptValue.list_delta", errors.Errorf("ref length %d on the wire does not match the %d-element reference list supplied", refLen, len(ref)))
	}
	items := make([]ScriptValue, newLen)
	shared := int(newLen)
	if len(ref) < shared {
		shared = len(ref)
	}
	for i := 0; i < shared; i++ {
		v, err := ReadScriptValueDelta(ctx, ref[i])
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	for i := shared; i < int(newLen); i++ {
		v, err := ReadScriptValue(ctx)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

// writeScriptObjectDelta encodes an Object-kind delta as a sequence of
// changed-or-added (name, value) pairs followed by removed-property names,
// each terminated by the invalid-name sentinel; properties absent from
// both lists are understood to carry over unchanged from ref (spec.md
// §4.7's open question on Object delta semantics, resolved here — see
// DESIGN.md).
func writeScriptObjectDelta(ctx schema.Context, v, ref []ScriptProperty) error {
	refByName := make(map[string]ScriptValue, len(ref))
	for _, p := range ref {
		refByName[p.Name] = p.Value
	}
	vNames := make(map[string]bool, len(v))
	for _, p := range v {
		vNames[p.Name] = true
		name := p.Name
		old, existed := refByName[p.Name]
		if existed && scriptValuesEqual(p.Value, old) {
			continue
		}
		if err := ctx.WriteNameRef(&name); err != nil {
			return err
		}
		if err := WriteScriptValue(ctx, p.Value); err != nil {
			return err
		}
	}
	if err := ctx.WriteNameRef(nil); err != nil {
		return err
	}
	for _, p := range ref {
		if !vNames[p.Name] {
			name := p.Name
			if err := ctx.WriteNameRef(&name); err != nil {
				return err
			}
		}
	}
	return ctx.WriteNameRef(nil)
}

// readScriptObjectDelta decodes an Object delta written by
// writeScriptObjectDelta, applying it against ref.
func readScriptObjectDelta(ctx schema.Context, ref []ScriptProperty) ([]ScriptProperty, error) {
	byName := make(map[string]ScriptValue, len(ref))
	var order []string
	for _, p := range ref {
		byName[p.Name] = p.Value
		order = append(order, p.Name)
	}
	for {
		name, err := ctx.ReadNameRef()
		if err != nil {
			return nil, err
		}
		if name == nil {
			break
		}
		v, err := ReadScriptValue(ctx)
		if err != nil {
			return nil, err
		}
		if _, existed := byName[*name]; !existed {
			order = append(order, *name)
		}
		byName[*name] = v
	}
	removed := make(map[string]bool)
	for {
		name, err := ctx.ReadNameRef()
		if err != nil {
			return nil, err
		}
		if name == nil {
			break
		}
		removed[*name] = true
		delete(byName, *name)
	}
	props := make([]ScriptProperty, 0, len(order))
	for _, name := range order {
		if removed[name] {
			continue
		}
		v, ok := byName[name]
		if !ok {
			continue
		}
		props = append(props, ScriptProperty{Name: name, Value: v})
	}
	return props, nil
}

// scriptValuesEqual is a structural equality check used to decide the
// delta's leading same-as-reference bit. Byte slices compare by content,
// not identity; Enum compares by the enum type's name and the raw decoded
// value.
func scriptValuesEqual(a, b ScriptValue) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ScriptNull:
		return true
	case ScriptBool:
		return a.Bool == b.Bool
	case ScriptInt:
		return a.Int == b.Int
	case ScriptFloat:
		return a.Float == b.Float
	case ScriptString:
		return a.String == b.String
	case ScriptBytes:
		return bytesEqual(a.Bytes, b.Bytes)
	case ScriptList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !scriptValuesEqual(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case ScriptMap:
		if len(a.Map) != len(b.Map) {
			return false
		}
		for i := range a.Map {
			if !scriptValuesEqual(a.Map[i].Key, b.Map[i].Key) || !scriptValuesEqual(a.Map[i].Value, b.Map[i].Value) {
				return false
			}
		}
		return true
	case ScriptObject:
		if len(a.Object) != len(b.Object) {
			return false
		}
		bByName := make(map[string]ScriptValue, len(b.Object))
		for _, p := range b.Object {
			bByName[p.Name] = p.Value
		}
		for _, p := range a.Object {
			other, ok := bByName[p.Name]
			if !ok || !scriptValuesEqual(p.Value, other) {
				return false
			}
		}
		return true
	case ScriptEnum:
		if a.Enum.Type == nil || b.Enum.Type == nil || a.Enum.Type.Name() != b.Enum.Type.Name() {
			return false
		}
		return a.Enum.Type.Equal(a.Enum.Value, b.Enum.Value)
	case ScriptVec3:
		return a.Vec3 == b.Vec3
	case ScriptVec4:
		return a.Vec4 == b.Vec4
	case ScriptDateTime:
		return a.DateTime == b.DateTime
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
