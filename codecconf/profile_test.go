package codecconf_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brevity-dev/wirecodec/codec"
	"github.com/brevity-dev/wirecodec/codecconf"
	"github.com/brevity-dev/wirecodec/mapping"
	"github.com/brevity-dev/wirecodec/negotiate"
)

func TestLoadParsesModeAndSubstitutions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	contents := `
mode: full
generics: all
type_substitutions:
  old_point: point
persistent_types:
  - name: point
    id: 3
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	p, err := codecconf.Load(path)
	require.NoError(t, err)

	cfg := p.Config()
	require.Equal(t, negotiate.FullMetadata, cfg.Mode)
	require.Equal(t, negotiate.AllGenerics, cfg.Generics)
	require.Equal(t, "point", cfg.TypeSubstitutions["old_point"])
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: bogus\n"), 0o644))

	_, err := codecconf.Load(path)
	require.Error(t, err)
}

func TestSeedStreamsAdvancesIDSequence(t *testing.T) {
	p := &codecconf.Profile{
		PersistentTypes: []mapping.PersistentEntry{
			{Name: "point", ID: 3},
		},
	}
	types, classes := mapping.NewStream(), mapping.NewStream()
	p.SeedStreams(types, classes)

	id, isNew := types.Assign("point")
	require.False(t, isNew)
	require.Equal(t, uint64(3), id)

	id, isNew = types.Assign("fresh")
	require.True(t, isNew)
	require.NotEqual(t, uint64(3), id)
}

func TestSnapshotRoundTripsThroughSaveLoad(t *testing.T) {
	types, classes := mapping.NewStream(), mapping.NewStream()
	_, _ = types.Assign("point")
	types.Promote("point")

	cfg := codec.Config{Mode: negotiate.HashMetadata, Generics: negotiate.NormalGenerics}
	profile := codecconf.Snapshot(cfg, types, classes)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")
	require.NoError(t, codecconf.Save(path, profile))

	loaded, err := codecconf.Load(path)
	require.NoError(t, err)
	require.Equal(t, "hash", loaded.Mode)
	require.Len(t, loaded.PersistentTypes, 1)
	require.Equal(t, "point", loaded.PersistentTypes[0].Name)
}
