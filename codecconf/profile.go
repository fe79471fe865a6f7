// Package codecconf loads and saves a session's YAML profile: the
// metadata/generics mode and substitution tables of codec.Config, plus a
// snapshot of the Mapping Streams' persistent tier so a long-running peer
// can pre-seed its persistent ID table from a previous session instead of
// re-interning every type and class from scratch (SPEC_FULL's "C5 Mapping
// Streams persistent-tier snapshots are exposed as YAML ... to pre-seed a
// long-running peer's persistent ID table from a previous session",
// grounded on gapid's own snapshot-to-disk pattern for capture files,
// gapii/client/capture.go). Follows the teacher's config-loading idiom of
// lib/config/config.go: a read-one-file Load plus a separate Validate.
package codecconf

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/brevity-dev/wirecodec/codec"
	"github.com/brevity-dev/wirecodec/mapping"
	"github.com/brevity-dev/wirecodec/negotiate"
)

// Profile is the on-disk shape of a session profile.
type Profile struct {
	Mode     string `yaml:"mode"`
	Generics string `yaml:"generics"`

	TypeSubstitutions  map[string]string `yaml:"type_substitutions,omitempty"`
	ClassSubstitutions map[string]string `yaml:"class_substitutions,omitempty"`

	PersistentTypes   []mapping.PersistentEntry `yaml:"persistent_types,omitempty"`
	PersistentClasses []mapping.PersistentEntry `yaml:"persistent_classes,omitempty"`
}

// Load reads and parses a session profile from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading session profile %q", path)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(err, "parsing session profile %q", path)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that Mode and Generics name recognized values.
func (p *Profile) Validate() error {
	switch p.Mode {
	case "", "none", "hash", "full":
	default:
		return errors.Errorf("codecconf: unknown mode %q (want none, hash, or full)", p.Mode)
	}
	switch p.Generics {
	case "", "normal", "all":
	default:
		return errors.Errorf("codecconf: unknown generics mode %q (want normal or all)", p.Generics)
	}
	return nil
}

// Config builds a codec.Config from the profile's mode, generics, and
// substitution tables.
func (p *Profile) Config() codec.Config {
	return codec.Config{
		Mode:               p.metadataMode(),
		Generics:           p.genericsMode(),
		TypeSubstitutions:  p.TypeSubstitutions,
		ClassSubstitutions: p.ClassSubstitutions,
	}
}

func (p *Profile) metadataMode() negotiate.MetadataMode {
	switch p.Mode {
	case "hash":
		return negotiate.HashMetadata
	case "full":
		return negotiate.FullMetadata
	default:
		return negotiate.NoMetadata
	}
}

func (p *Profile) genericsMode() negotiate.GenericsMode {
	if p.Generics == "all" {
		return negotiate.AllGenerics
	}
	return negotiate.NormalGenerics
}

// SeedStreams restores the profile's persistent-tier snapshots onto types
// and classes, pre-seeding a fresh session's id tables and width from a
// prior session's Snapshot.
func (p *Profile) SeedStreams(types, classes *mapping.Stream) {
	types.Restore(p.PersistentTypes)
	classes.Restore(p.PersistentClasses)
}

// Snapshot captures the current persistent-tier entries of types and
// classes into a Profile carrying cfg's mode/generics/substitutions, ready
// to be passed to Save.
func Snapshot(cfg codec.Config, types, classes *mapping.Stream) *Profile {
	p := &Profile{
		TypeSubstitutions:  cfg.TypeSubstitutions,
		ClassSubstitutions: cfg.ClassSubstitutions,
		PersistentTypes:    types.Snapshot(),
		PersistentClasses:  classes.Snapshot(),
	}
	switch cfg.Mode {
	case negotiate.HashMetadata:
		p.Mode = "hash"
	case negotiate.FullMetadata:
		p.Mode = "full"
	default:
		p.Mode = "none"
	}
	if cfg.Generics == negotiate.AllGenerics {
		p.Generics = "all"
	} else {
		p.Generics = "normal"
	}
	return p
}

// Save writes p to path as YAML.
func Save(path string, p *Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshaling session profile")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing session profile %q", path)
	}
	return nil
}
