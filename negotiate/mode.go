package negotiate

// MetadataMode controls how much self-description a Negotiator attaches to
// the first reference to a given type or class (spec.md §4.6 "Schema
// Negotiator"), trading bandwidth against tolerance of schema drift
// between the two ends of a stream.
type MetadataMode uint8

const (
	// NoMetadata sends only the type or class name on first reference
	// (every later reference is the interned id alone): both ends must
	// already agree, out of band, on an identical set of registered names —
	// not on registration order, just on the names themselves resolving
	// locally. Cheapest, least tolerant — an unrecognized name is a hard
	// error (registries out of sync).
	NoMetadata MetadataMode = iota
	// HashMetadata sends a short structural hash (BLAKE2b-128) alongside
	// the id on first reference, enough to detect drift without paying for
	// full field/property name tables.
	HashMetadata
	// FullMetadata sends a complete structural description — kind, names,
	// nested element/field/property types — enough for the reading end to
	// build a translating read plan even with zero prior registration.
	FullMetadata
)

// GenericsMode controls whether the reading side may resolve a remote type
// or class directly to its local registration. It affects only how read
// plans are built; the write side encodes the same bits in either mode.
type GenericsMode uint8

const (
	// NormalGenerics: a remote type or class that exactly matches a local
	// registration decodes straight through the local descriptor.
	NormalGenerics GenericsMode = iota
	// AllGenerics: the reader never hands back a local descriptor directly;
	// it always builds a translating read plan, and records and objects
	// decode into name/value maps instead of locally typed instances.
	AllGenerics
)
