package value_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/codec"
	"github.com/brevity-dev/wirecodec/mapping"
	"github.com/brevity-dev/wirecodec/negotiate"
	"github.com/brevity-dev/wirecodec/registry"
	"github.com/brevity-dev/wirecodec/schema"
	"github.com/brevity-dev/wirecodec/streamio"
	"github.com/brevity-dev/wirecodec/value"
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

func newWriterSession(t *testing.T, reg *registry.Registry, mode negotiate.MetadataMode) (*value.Session, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	wBits := bitio.New(streamio.FromReadWriter(buf, buf))
	wTypes, wClasses, wNames := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	return value.NewSession(wBits, reg, mode, negotiate.NormalGenerics, wTypes, wClasses, wNames), buf
}

func readerSession(reg *registry.Registry, mode negotiate.MetadataMode, data []byte) *value.Session {
	rBits := bitio.New(streamio.FromReadWriter(bytes.NewReader(data), nil))
	rTypes, rClasses, rNames := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	return value.NewSession(rBits, reg, mode, negotiate.NormalGenerics, rTypes, rClasses, rNames)
}

func TestRecordRoundTripFullMetadata(t *testing.T) {
	reg := registry.New(registry.Global)
	pt := pointType(reg)
	require.NoError(t, reg.RegisterType(pt))

	writer, buf := newWriterSession(t, reg, negotiate.FullMetadata)
	require.NoError(t, writer.WriteValue("point", &point{X: 3, Y: 4}))
	require.NoError(t, writer.Bits().Flush())

	reader := readerSession(reg, negotiate.FullMetadata, buf.Bytes())
	got, err := reader.ReadValue("point")
	require.NoError(t, err)
	require.Equal(t, &point{X: 3, Y: 4}, got)
}

func TestListDeltaScenario(t *testing.T) {
	reg := registry.New(registry.Global)
	i32, _ := reg.LookupType("int32")
	listType := &schema.ListType{TypeName: "int32_list", Elem: i32}
	require.NoError(t, reg.RegisterType(listType))

	writer, buf := newWriterSession(t, reg, negotiate.FullMetadata)
	ref := []interface{}{int32(1), int32(2), int32(3), int32(4)}
	val := []interface{}{int32(1), int32(2), int32(9), int32(4), int32(5)}
	require.NoError(t, writer.WriteValueDelta("int32_list", val, ref))
	require.NoError(t, writer.Bits().Flush())

	reader := readerSession(reg, negotiate.FullMetadata, buf.Bytes())
	got, err := reader.ReadValueDelta("int32_list", ref)
	require.NoError(t, err)
	require.Equal(t, val, got)
}

func TestEqualReferenceDeltaIsOneBit(t *testing.T) {
	reg := registry.New(registry.Global)
	i32, _ := reg.LookupType("int32")

	buf := &bytes.Buffer{}
	b := bitio.New(streamio.FromReadWriter(buf, buf))
	types, classes, names := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	writer := value.NewSession(b, reg, negotiate.NoMetadata, negotiate.NormalGenerics, types, classes, names)

	require.NoError(t, i32.WriteDelta(writer, int32(7), int32(7)))
	require.NoError(t, b.Flush())
	require.Equal(t, 1, buf.Len())
	require.Equal(t, byte(0), buf.Bytes()[0])
}

func TestScriptValueRoundTrip(t *testing.T) {
	reg := registry.New(registry.Global)
	buf := &bytes.Buffer{}
	b := bitio.New(streamio.FromReadWriter(buf, buf))
	types, classes, names := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	writer := value.NewSession(b, reg, negotiate.FullMetadata, negotiate.AllGenerics, types, classes, names)

	sv := value.ScriptValue{
		Kind: value.ScriptList,
		List: []value.ScriptValue{
			{Kind: value.ScriptInt, Int: 42},
			{Kind: value.ScriptString, String: "hi"},
			{Kind: value.ScriptNull},
		},
	}
	require.NoError(t, value.WriteScriptValue(writer, sv))
	require.NoError(t, b.Flush())

	rBits := bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil))
	rTypes, rClasses, rNames := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	reader := value.NewSession(rBits, reg, negotiate.FullMetadata, negotiate.AllGenerics, rTypes, rClasses, rNames)

	got, err := value.ReadScriptValue(reader)
	require.NoError(t, err)
	require.Equal(t, sv, got)
}

func TestScriptValueOutOfRangeTagIsInvariantViolation(t *testing.T) {
	buf := &bytes.Buffer{}
	b := bitio.New(streamio.FromReadWriter(buf, buf))
	require.NoError(t, b.WriteBits(15, 4)) // 15 is outside the 0-12 script kind range
	require.NoError(t, b.Flush())

	reg := registry.New(registry.Global)
	rBits := bitio.New(streamio.FromReadWriter(bytes.NewReader(buf.Bytes()), nil))
	types, classes, names := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	reader := value.NewSession(rBits, reg, negotiate.FullMetadata, negotiate.AllGenerics, types, classes, names)

	_, err := value.ReadScriptValue(reader)
	require.Error(t, err)
	var codecErr *codec.Error
	require.ErrorAs(t, err, &codecErr)
}
