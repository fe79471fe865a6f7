package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/mapping"
	"github.com/brevity-dev/wirecodec/negotiate"
	"github.com/brevity-dev/wirecodec/registry"
	"github.com/brevity-dev/wirecodec/streamio"
	"github.com/brevity-dev/wirecodec/value"
)

func TestRunDecodesACapturedStream(t *testing.T) {
	buf := &bytes.Buffer{}
	bits := bitio.New(streamio.FromReadWriter(buf, buf))
	types, classes, names := mapping.NewStream(), mapping.NewStream(), mapping.NewStream()
	writer := value.NewSession(bits, registry.New(registry.Global), negotiate.FullMetadata, negotiate.NormalGenerics, types, classes, names)
	require.NoError(t, writer.WriteValue("int32", int32(42)))
	require.NoError(t, writer.Bits().Flush())

	dir := t.TempDir()
	path := filepath.Join(dir, "capture.bin")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	err := run([]string{"--in", path, "--type", "int32"})
	require.NoError(t, err)
}

func TestRunRequiresInFlag(t *testing.T) {
	err := run([]string{"--type", "int32"})
	require.Error(t, err)
}

func TestRunRejectsUnknownMode(t *testing.T) {
	err := run([]string{"--in", "/dev/null", "--type", "int32", "--mode", "bogus"})
	require.Error(t, err)
}
