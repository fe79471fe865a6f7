// Package codec holds the session-level configuration surface of spec.md
// §6 ("Configuration") and the distinguished error type for invariant
// violations (§7 "Invariant violation (abort)"): everything a caller sets
// up before driving a Session, collected in one plain struct per Design
// Notes §9 ("Explicit session state ... rather than residing on a global
// receiver") rather than package-level globals or a builder API.
package codec

import (
	"github.com/brevity-dev/wirecodec/negotiate"
)

// Config is a session's negotiated parameters: the metadata mode and
// generics mode (spec.md §6, fixed for the life of a session) plus the
// per-operation name substitutions applied before registry lookup on read.
// Construct one by hand or load it from a YAML session profile with
// codecconf.Load.
type Config struct {
	Mode     negotiate.MetadataMode
	Generics negotiate.GenericsMode

	// TypeSubstitutions/ClassSubstitutions map a remote name to the local
	// name it should resolve against instead (spec.md §6), applied to
	// every Negotiator built from this Config via Apply.
	TypeSubstitutions  map[string]string
	ClassSubstitutions map[string]string
}

// Apply installs c's substitution tables onto n. Mode/Generics are
// constructor-time parameters of negotiate.New, not mutable after the
// fact, so Apply only carries over the substitutions.
func (c Config) Apply(n *negotiate.Negotiator) {
	for remote, local := range c.TypeSubstitutions {
		n.SetTypeSubstitution(remote, local)
	}
	for remote, local := range c.ClassSubstitutions {
		n.SetClassSubstitution(remote, local)
	}
}
