// Package value implements the top-level Value Codec of spec.md §4.7 (C7):
// a Session wraps a Negotiator (which already satisfies schema.Context)
// with name-based convenience entry points — WriteValue/ReadValue for
// absolute encoding, WriteValueDelta/ReadValueDelta for delta encoding against a
// reference, and WriteObject/ReadObject for the class-based Object path —
// plus the ScriptValue dynamic tagged union for fully self-describing
// payloads. Grounded on the teacher's framework/binary Encoder/Decoder
// interfaces (encoder.go/decoder.go), generalized from registry-id-keyed
// dispatch to the name-keyed, delta-capable dispatch spec.md requires.
package value

import (
	"github.com/pkg/errors"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/mapping"
	"github.com/brevity-dev/wirecodec/negotiate"
	"github.com/brevity-dev/wirecodec/registry"
	"github.com/brevity-dev/wirecodec/schema"
)

// Session is one end of a value stream: the bit buffer, the registry it
// resolves type names against, and the negotiated metadata/generics mode.
type Session struct {
	*negotiate.Negotiator
	registry *registry.Registry
}

// NewSession constructs a Session. types, classes and names are the
// mapping.Stream instances backing type, class and script-name references;
// share one triple of Streams across every message in a connection so that
// persistent promotions and the growing id widths survive message
// boundaries.
func NewSession(bits *bitio.BitBuffer, reg *registry.Registry, mode negotiate.MetadataMode, generics negotiate.GenericsMode, types, classes, names *mapping.Stream) *Session {
	return &Session{
		Negotiator: negotiate.New(bits, reg, mode, generics, types, classes, names),
		registry:   reg,
	}
}

func (s *Session) resolve(typeName string) (schema.Descriptor, error) {
	d, found := s.registry.LookupType(typeName)
	if !found {
		return nil, errors.Wrapf(negotiate.ErrUnregisteredType, "type %q", typeName)
	}
	return d, nil
}

// WriteValue encodes value in absolute form as the named registered type.
func (s *Session) WriteValue(typeName string, value interface{}) error {
	d, err := s.resolve(typeName)
	if err != nil {
		return err
	}
	return d.Write(s, value)
}

// ReadValue decodes a value of the named registered type in absolute
// form.
func (s *Session) ReadValue(typeName string) (interface{}, error) {
	d, err := s.resolve(typeName)
	if err != nil {
		return nil, err
	}
	return d.Read(s)
}

// WriteValueDelta encodes value against reference as the named type,
// using the changed-flag-then-body delta contract.
func (s *Session) WriteValueDelta(typeName string, value, reference interface{}) error {
	d, err := s.resolve(typeName)
	if err != nil {
		return err
	}
	return d.WriteDelta(s, value, reference)
}

// ReadValueDelta decodes a delta-encoded value of the named type against
// reference.
func (s *Session) ReadValueDelta(typeName string, reference interface{}) (interface{}, error) {
	d, err := s.resolve(typeName)
	if err != nil {
		return nil, err
	}
	return d.ReadDelta(s, reference)
}

// WriteObject encodes a class-based Instance via the class Mapping
// Stream (spec.md §4.4 "Object").
func (s *Session) WriteObject(inst schema.Instance) error {
	return (&schema.ObjectType{Class: inst.ClassDescriptor()}).Write(s, inst)
}

// ReadObject decodes a class-based Instance, resolving its class via the
// class Mapping Stream.
func (s *Session) ReadObject() (interface{}, error) {
	return (&schema.ObjectType{}).Read(s)
}

// WriteObjectDelta encodes inst against reference, both assumed to be the
// same class (raw per-property delta, no class reference is re-sent).
func (s *Session) WriteObjectDelta(inst, reference schema.Instance) error {
	return (&schema.ObjectType{Class: inst.ClassDescriptor()}).WriteDelta(s, inst, reference)
}

// ReadObjectDelta decodes a delta-encoded Instance against reference.
func (s *Session) ReadObjectDelta(reference schema.Instance) (interface{}, error) {
	return (&schema.ObjectType{Class: reference.ClassDescriptor()}).ReadDelta(s, reference)
}
