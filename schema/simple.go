package schema

import (
	"reflect"

	"github.com/brevity-dev/wirecodec/bitio"
)

func equalFallback(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}

// SimpleType is the Descriptor for leaf primitives (spec.md §4.4 "Simple
// (primitive)"): a fixed read/write shape driven directly by the bit
// buffer, generalized from the teacher's framework/binary/schema
// primitive.go (one Type per pod.ID). A simple value has no internal
// structure, so its raw delta is just the absolute encoding.
type SimpleType struct {
	TypeName string
	WriteFn  func(b *bitio.BitBuffer, value interface{}) error
	ReadFn   func(b *bitio.BitBuffer) (interface{}, error)
	EqualFn  func(a, b interface{}) bool
}

func (s *SimpleType) Name() string { return s.TypeName }
func (s *SimpleType) Kind() Kind   { return KindSimple }

func (s *SimpleType) Write(ctx Context, value interface{}) error {
	return s.WriteFn(ctx.Bits(), value)
}

func (s *SimpleType) Read(ctx Context) (interface{}, error) {
	return s.ReadFn(ctx.Bits())
}

func (s *SimpleType) Equal(a, b interface{}) bool {
	if s.EqualFn != nil {
		return s.EqualFn(a, b)
	}
	return equalFallback(a, b)
}

func (s *SimpleType) WriteDelta(ctx Context, value, reference interface{}) error {
	return DefaultWriteDelta(ctx, s, value, reference)
}

func (s *SimpleType) WriteRawDelta(ctx Context, value, reference interface{}) error {
	return s.Write(ctx, value)
}

func (s *SimpleType) ReadDelta(ctx Context, reference interface{}) (interface{}, error) {
	return DefaultReadDelta(ctx, s, reference)
}

func (s *SimpleType) ReadRawDelta(ctx Context, reference interface{}) (interface{}, error) {
	return s.Read(ctx)
}

// Builtin simple type constructors. These are the leaf primitives every
// process registers identically at startup, per spec.md's "built-in
// primitive names are pre-registered identically in every process".

func NewBoolType() *SimpleType {
	return &SimpleType{
		TypeName: "bool",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteBool(v.(bool)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadBool() },
	}
}

func NewInt32Type() *SimpleType {
	return &SimpleType{
		TypeName: "int32",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteInt32(v.(int32)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadInt32() },
	}
}

func NewUint32Type() *SimpleType {
	return &SimpleType{
		TypeName: "uint32",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteUint32(v.(uint32)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadUint32() },
	}
}

func NewInt64Type() *SimpleType {
	return &SimpleType{
		TypeName: "int64",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteInt64(v.(int64)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadInt64() },
	}
}

func NewUint64Type() *SimpleType {
	return &SimpleType{
		TypeName: "uint64",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteUint64(v.(uint64)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadUint64() },
	}
}

func NewFloat32Type() *SimpleType {
	return &SimpleType{
		TypeName: "float32",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteFloat32(v.(float32)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadFloat32() },
	}
}

func NewFloat64Type() *SimpleType {
	return &SimpleType{
		TypeName: "float64",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteFloat64(v.(float64)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadFloat64() },
	}
}

func NewStringType() *SimpleType {
	return &SimpleType{
		TypeName: "string",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteString(v.(string)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadString() },
	}
}

func NewBytesType() *SimpleType {
	return &SimpleType{
		TypeName: "bytes",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteBytes(v.([]byte)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadBytes() },
		EqualFn: func(a, b interface{}) bool {
			ab, aok := a.([]byte)
			bb, bok := b.([]byte)
			if !aok || !bok || len(ab) != len(bb) {
				return false
			}
			for i := range ab {
				if ab[i] != bb[i] {
					return false
				}
			}
			return true
		},
	}
}

func NewVec3Type() *SimpleType {
	return &SimpleType{
		TypeName: "vec3",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteVec3(v.(bitio.Vec3)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadVec3() },
	}
}

func NewVec4Type() *SimpleType {
	return &SimpleType{
		TypeName: "vec4",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteVec4(v.(bitio.Vec4)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadVec4() },
	}
}

func NewColorType() *SimpleType {
	return &SimpleType{
		TypeName: "color",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteColor(v.(bitio.Color)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadColor() },
	}
}

func NewDateTimeType() *SimpleType {
	return &SimpleType{
		TypeName: "datetime",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteDateTime(v.(int64)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadDateTime() },
	}
}

func NewRegexType() *SimpleType {
	return &SimpleType{
		TypeName: "regex",
		WriteFn:  func(b *bitio.BitBuffer, v interface{}) error { return b.WriteRegex(v.(bitio.Regex)) },
		ReadFn:   func(b *bitio.BitBuffer) (interface{}, error) { return b.ReadRegex() },
	}
}
