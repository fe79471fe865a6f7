// Package schema defines the Type Descriptor data model of spec.md §3/§4.4:
// a Descriptor is the per-variant read/write/equal/delta behavior for a
// registered type, generalized from the teacher's framework/binary/schema
// Type interface (Primitive/Struct/Slice/Map/Any) into the delta-capable
// shape spec.md requires.
package schema

import "github.com/brevity-dev/wirecodec/bitio"

// Kind identifies which Descriptor variant a value is.
type Kind uint8

const (
	KindSimple Kind = iota
	KindEnum
	KindList
	KindSet
	KindMap
	KindRecord
	KindObject
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindEnum:
		return "enum"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	case KindRecord:
		return "record"
	case KindObject:
		return "object"
	case KindGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Context is the minimal surface a Descriptor needs from its caller to
// encode or decode a value: direct bit access for leaf values, plus the
// mapping-stream-backed operations needed to recurse into nested type and
// class descriptors (spec.md §4.5/§4.6). negotiate.Negotiator and
// value.Session both implement Context.
type Context interface {
	// Bits returns the bit buffer this value's payload is read from or
	// written to.
	Bits() *bitio.BitBuffer

	// WriteTypeRef interns and writes a reference to a nested type
	// descriptor (used by Generic's wrapped descriptor, spec.md §4.4).
	WriteTypeRef(d Descriptor) error
	// ReadTypeRef reads a nested type descriptor reference.
	ReadTypeRef() (Descriptor, error)

	// WriteClassRef interns and writes a reference to a class descriptor
	// (used by Object, spec.md §4.4).
	WriteClassRef(c *ClassDescriptor) error
	// ReadClassRef reads a class descriptor reference, returning an
	// ObjectPlan that knows how to decode an instance of it (exact match or
	// translating, per spec.md §4.6).
	ReadClassRef() (*ObjectPlan, error)

	// WriteNameRef interns and writes a reference to a property/script name
	// handle (spec.md §4.9's "Script abstraction"). A nil name writes the
	// invalid-name sentinel, the terminator for a dynamic name/value
	// sequence (e.g. ScriptValue's Object case, spec.md §4.7).
	WriteNameRef(name *string) error
	// ReadNameRef reads a name handle reference; a nil result is the
	// invalid-name sentinel.
	ReadNameRef() (*string, error)

	// SetError records a sticky error for the whole session.
	SetError(error)
	// Error returns the first sticky error recorded, if any.
	Error() error
}

// Descriptor is a handle to a registered type: a stable name, a Kind, and
// the per-kind behavior of spec.md §4.4.
type Descriptor interface {
	// Name returns the type's stable name.
	Name() string
	// Kind returns the variant tag.
	Kind() Kind

	// Write encodes value in absolute form.
	Write(ctx Context, value interface{}) error
	// Read decodes and returns a value in absolute form.
	Read(ctx Context) (interface{}, error)

	// Equal reports whether a and b are semantically equal under this
	// type. Unknown/structural types default to reflect.DeepEqual.
	Equal(a, b interface{}) bool

	// WriteDelta encodes a single "changed" bit, then — only if changed —
	// the new value, recursively delta-encoded against reference where the
	// variant supports it.
	WriteDelta(ctx Context, value, reference interface{}) error
	// WriteRawDelta encodes value against reference without the leading
	// "changed" flag — used when the caller already knows a change
	// occurred (spec.md's "raw delta").
	WriteRawDelta(ctx Context, value, reference interface{}) error
	// ReadDelta consumes the "changed" flag and, if set, a delta-encoded
	// value against reference; otherwise returns reference unchanged.
	ReadDelta(ctx Context, reference interface{}) (interface{}, error)
	// ReadRawDelta consumes a delta-encoded value against reference with no
	// leading flag.
	ReadRawDelta(ctx Context, reference interface{}) (interface{}, error)
}
