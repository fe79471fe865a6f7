package negotiate_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/mapping"
	"github.com/brevity-dev/wirecodec/negotiate"
	"github.com/brevity-dev/wirecodec/registry"
	"github.com/brevity-dev/wirecodec/schema"
	"github.com/brevity-dev/wirecodec/streamio"
)

type point struct {
	X, Y int32
}

func pointType(reg *registry.Registry) *schema.RecordType {
	i32, _ := reg.LookupType("int32")
	return &schema.RecordType{
		TypeName: "point",
		New:      func() interface{} { return &point{} },
		Fields: []schema.RecordField{
			{
				Name: "x",
				Type: i32,
				Get:  func(v interface{}) interface{} { return v.(*point).X },
				Set:  func(v interface{}, fv interface{}) { v.(*point).X = fv.(int32) },
			},
			{
				Name: "y",
				Type: i32,
				Get:  func(v interface{}) interface{} { return v.(*point).Y },
				Set:  func(v interface{}, fv interface{}) { v.(*point).Y = fv.(int32) },
			},
		},
	}
}

func negotiatorPair(t *testing.T, reg *registry.Registry, generics negotiate.GenericsMode) (writer *negotiate.Negotiator, buf *bytes.Buffer, makeReader func() *negotiate.Negotiator) {
	t.Helper()
	buf = &bytes.Buffer{}
	writer = negotiate.New(bitio.New(streamio.FromReadWriter(buf, buf)), reg, negotiate.FullMetadata, generics, mapping.NewStream(), mapping.NewStream(), mapping.NewStream())
	makeReader = func() *negotiate.Negotiator {
		return negotiate.New(bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil)), reg, negotiate.FullMetadata, generics, mapping.NewStream(), mapping.NewStream(), mapping.NewStream())
	}
	return writer, buf, makeReader
}

// TestAllGenericsRecordTypeProducesTranslatingReader exercises type
// negotiation (not ScriptValue) under AllGenerics: even though the remote
// record shape exactly matches the locally registered "point" type, the
// negotiator must still hand back a non-exact, translating schema.TypeReader
// instead of the local *schema.RecordType directly, and decoding through it
// must still produce the correct values (as a generic map, since there is no
// local instance to populate).
func TestAllGenericsRecordTypeProducesTranslatingReader(t *testing.T) {
	reg := registry.New(registry.Global)
	pt := pointType(reg)
	require.NoError(t, reg.RegisterType(pt))

	buf := &bytes.Buffer{}
	wBits := bitio.New(streamio.FromReadWriter(buf, buf))
	wTypes, wClasses, wNames := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	writer := negotiate.New(wBits, reg, negotiate.FullMetadata, negotiate.AllGenerics, wTypes, wClasses, wNames)

	require.NoError(t, writer.WriteTypeRef(pt))
	require.NoError(t, pt.Write(writer, &point{X: 3, Y: 4}))
	require.NoError(t, wBits.Flush())

	rBits := bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil))
	rTypes, rClasses, rNames := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	reader := negotiate.New(rBits, reg, negotiate.FullMetadata, negotiate.AllGenerics, rTypes, rClasses, rNames)

	d, err := reader.ReadTypeRef()
	require.NoError(t, err)

	tr, ok := d.(*schema.TypeReader)
	require.True(t, ok, "AllGenerics must not hand back the local *schema.RecordType directly even on an exact structural match")
	require.False(t, tr.Exact)

	got, err := tr.Read(reader)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"x": int32(3), "y": int32(4)}, got)
}

// TestNormalGenericsRecordTypeUsesLocalDirectly is the contrasting baseline:
// under NormalGenerics the same exact structural match takes the bare-local
// shortcut and decodes straight into the registered Go type.
func TestNormalGenericsRecordTypeUsesLocalDirectly(t *testing.T) {
	reg := registry.New(registry.Global)
	pt := pointType(reg)
	require.NoError(t, reg.RegisterType(pt))

	buf := &bytes.Buffer{}
	wBits := bitio.New(streamio.FromReadWriter(buf, buf))
	wTypes, wClasses, wNames := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	writer := negotiate.New(wBits, reg, negotiate.FullMetadata, negotiate.NormalGenerics, wTypes, wClasses, wNames)

	require.NoError(t, writer.WriteTypeRef(pt))
	require.NoError(t, pt.Write(writer, &point{X: 3, Y: 4}))
	require.NoError(t, wBits.Flush())

	rBits := bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil))
	rTypes, rClasses, rNames := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	reader := negotiate.New(rBits, reg, negotiate.FullMetadata, negotiate.NormalGenerics, rTypes, rClasses, rNames)

	d, err := reader.ReadTypeRef()
	require.NoError(t, err)
	require.Same(t, pt, d, "NormalGenerics takes the bare-local shortcut on an exact match")

	got, err := d.Read(reader)
	require.NoError(t, err)
	require.Equal(t, &point{X: 3, Y: 4}, got)
}

type actor struct {
	HP, MP int32
}

var actorClass = &schema.ClassDescriptor{
	Name: "actor",
	NewInstance: func() schema.Instance {
		return &actor{}
	},
}

func (a *actor) ClassDescriptor() *schema.ClassDescriptor { return actorClass }

func registerActorClass(t *testing.T, reg *registry.Registry) {
	t.Helper()
	i32, _ := reg.LookupType("int32")
	actorClass.Properties = []schema.PropertyField{
		{
			Name: "hp",
			Type: i32,
			Get:  func(v schema.Instance) interface{} { return v.(*actor).HP },
			Set:  func(v schema.Instance, fv interface{}) { v.(*actor).HP = fv.(int32) },
		},
	}
	require.NoError(t, reg.RegisterClass(actorClass))
}

// TestAllGenericsClassProducesGenericObjectPlan exercises class negotiation
// under AllGenerics: ReadClassRef must return an ObjectPlan with Generic set
// even on an exact class match, and decoding through ReadObjectPlan must
// still produce the right property values as a map instead of an *actor.
func TestAllGenericsClassProducesGenericObjectPlan(t *testing.T) {
	reg := registry.New(registry.Global)
	registerActorClass(t, reg)

	buf := &bytes.Buffer{}
	wBits := bitio.New(streamio.FromReadWriter(buf, buf))
	wTypes, wClasses, wNames := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	writer := negotiate.New(wBits, reg, negotiate.FullMetadata, negotiate.AllGenerics, wTypes, wClasses, wNames)

	objType := &schema.ObjectType{Class: actorClass}
	require.NoError(t, objType.Write(writer, &actor{HP: 42}))
	require.NoError(t, wBits.Flush())

	rBits := bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil))
	rTypes, rClasses, rNames := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	reader := negotiate.New(rBits, reg, negotiate.FullMetadata, negotiate.AllGenerics, rTypes, rClasses, rNames)

	plan, err := reader.ReadClassRef()
	require.NoError(t, err)
	require.True(t, plan.Generic, "AllGenerics must force Generic even on an exact class match")

	got, err := schema.ReadObjectPlan(reader, plan)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"hp": int32(42)}, got)
}

// TestNameRefNilRoundTrip exercises the invalid-name sentinel (spec.md
// §4.9): WriteNameRef(nil) followed by ReadNameRef must round-trip to a nil
// *string, and a named reference that follows must still resolve normally
// — including its second, interned-id-only appearance.
func TestNameRefNilRoundTrip(t *testing.T) {
	reg := registry.New(registry.Global)
	writer, _, makeReader := negotiatorPair(t, reg, negotiate.NormalGenerics)

	require.NoError(t, writer.WriteNameRef(nil))
	name := "hp"
	require.NoError(t, writer.WriteNameRef(&name))
	require.NoError(t, writer.WriteNameRef(&name))
	require.NoError(t, writer.Bits().Flush())

	reader := makeReader()
	got, err := reader.ReadNameRef()
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = reader.ReadNameRef()
	require.NoError(t, err)
	require.Equal(t, "hp", *got)

	got, err = reader.ReadNameRef()
	require.NoError(t, err)
	require.Equal(t, "hp", *got)
}

// TestTypeRefNilRoundTrip mirrors TestNameRefNilRoundTrip for
// WriteTypeRef/ReadTypeRef and WriteClassRef/ReadClassRef, covering the null-
// entity sentinel reserved at id 0 for both mapping streams negotiate uses
// directly.
func TestTypeRefNilRoundTrip(t *testing.T) {
	reg := registry.New(registry.Global)
	writer, _, makeReader := negotiatorPair(t, reg, negotiate.NormalGenerics)

	require.NoError(t, writer.WriteTypeRef(nil))
	require.NoError(t, writer.WriteClassRef(nil))
	require.NoError(t, writer.Bits().Flush())

	reader := makeReader()
	d, err := reader.ReadTypeRef()
	require.NoError(t, err)
	require.Nil(t, d)

	plan, err := reader.ReadClassRef()
	require.NoError(t, err)
	require.Nil(t, plan)
}
