// Package registry implements the process-wide Type Registry of spec.md
// §4.3 (C3): a namespace mapping stable names to Descriptors and
// ClassDescriptors, first-writer-wins and idempotent, with ancestor-chain
// subclass lookup and lazy materialization of enum descriptors observed
// only over the wire. Grounded on the teacher's
// framework/binary/registry/registry.go Namespace, generalized from
// signature-keyed binary.Class lookup to name-keyed schema.Descriptor /
// schema.ClassDescriptor lookup.
package registry

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/brevity-dev/wirecodec/schema"
)

// Registry is a namespace of registered type and class descriptors,
// optionally layered on fallback registries (mirroring the teacher's
// Namespace.fallbacks) so a session-scoped registry can see everything in
// a shared process-wide one without copying it.
type Registry struct {
	mu        sync.RWMutex
	fallbacks []*Registry
	types     map[string]schema.Descriptor
	classes   map[string]*schema.ClassDescriptor

	// frozen/upgraders support RegisterUpgrader (registry/upgrade.go): a
	// class name that must stay readable for old streams without being
	// offered to new writers.
	frozen    map[string]bool
	upgraders map[string]Upgrade
}

// Global is the default process-wide registry that every built-in
// primitive is registered into at package init.
var Global = New()

// New creates an empty registry layered on top of the given fallbacks.
func New(fallbacks ...*Registry) *Registry {
	return &Registry{
		fallbacks: fallbacks,
		types:     map[string]schema.Descriptor{},
		classes:   map[string]*schema.ClassDescriptor{},
	}
}

// RegisterType adds d under its Name, first-writer-wins: a second call
// with the same name is a silent no-op as long as the Kind matches,
// keeping registration idempotent for code paths that register on every
// package init. A name collision across different Kinds is an error.
func (r *Registry) RegisterType(d schema.Descriptor) error {
	if d == nil {
		return errors.New("wirecodec: attempt to register nil type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, found := r.types[d.Name()]; found {
		if existing.Kind() != d.Kind() {
			return errors.Errorf("wirecodec: type %q already registered with a different kind", d.Name())
		}
		return nil
	}
	r.types[d.Name()] = d
	return nil
}

// RegisterClass adds c under its Name, first-writer-wins like RegisterType.
func (r *Registry) RegisterClass(c *schema.ClassDescriptor) error {
	if c == nil {
		return errors.New("wirecodec: attempt to register nil class")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.classes[c.Name]; found {
		return nil
	}
	r.classes[c.Name] = c
	return nil
}

// LookupType finds a Descriptor by name, checking fallbacks on miss.
func (r *Registry) LookupType(name string) (schema.Descriptor, bool) {
	r.mu.RLock()
	d, found := r.types[name]
	r.mu.RUnlock()
	if found {
		return d, true
	}
	for _, f := range r.fallbacks {
		if d, found := f.LookupType(name); found {
			return d, true
		}
	}
	return nil, false
}

// LookupClass finds a ClassDescriptor by name, checking fallbacks on miss.
func (r *Registry) LookupClass(name string) (*schema.ClassDescriptor, bool) {
	r.mu.RLock()
	c, found := r.classes[name]
	r.mu.RUnlock()
	if found {
		return c, true
	}
	for _, f := range r.fallbacks {
		if c, found := f.LookupClass(name); found {
			return c, true
		}
	}
	return nil, false
}

// Subclasses returns every registered class whose ancestor chain contains
// name, used by polymorphic factories picking among registered subtypes.
func (r *Registry) Subclasses(name string) []*schema.ClassDescriptor {
	seen := map[string]bool{}
	var out []*schema.ClassDescriptor
	r.visitClasses(func(c *schema.ClassDescriptor) {
		if seen[c.Name] {
			return
		}
		if c.IsSubclassOf(name) {
			seen[c.Name] = true
			out = append(out, c)
		}
	})
	return out
}

// TypeNames returns the names of every type registered in this registry or
// its fallbacks, for callers that need to scan all locally known types
// (e.g. resolving a remote structural hash against every candidate).
func (r *Registry) TypeNames() []string {
	seen := map[string]bool{}
	var out []string
	r.visitTypeNames(func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	})
	return out
}

func (r *Registry) visitTypeNames(visit func(string)) {
	r.mu.RLock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	r.mu.RUnlock()
	for _, name := range names {
		visit(name)
	}
	for _, f := range r.fallbacks {
		f.visitTypeNames(visit)
	}
}

// ClassNames returns the names of every class registered in this registry
// or its fallbacks, mirroring TypeNames.
func (r *Registry) ClassNames() []string {
	seen := map[string]bool{}
	var out []string
	r.visitClasses(func(c *schema.ClassDescriptor) {
		if seen[c.Name] {
			return
		}
		seen[c.Name] = true
		out = append(out, c.Name)
	})
	return out
}

func (r *Registry) visitClasses(visit func(*schema.ClassDescriptor)) {
	r.mu.RLock()
	classes := make([]*schema.ClassDescriptor, 0, len(r.classes))
	for _, c := range r.classes {
		classes = append(classes, c)
	}
	r.mu.RUnlock()
	for _, c := range classes {
		visit(c)
	}
	for _, f := range r.fallbacks {
		f.visitClasses(visit)
	}
}

// Count returns the number of type+class entries reachable through this
// registry, summing fallback counts (an entry may be counted more than
// once if present in multiple layers).
func (r *Registry) Count() int {
	r.mu.RLock()
	n := len(r.types) + len(r.classes)
	r.mu.RUnlock()
	for _, f := range r.fallbacks {
		n += f.Count()
	}
	return n
}

// MaterializeEnum returns the locally registered enum type named name, or
// — if none is registered — builds and registers one from remote member
// metadata so a remote-only enum can still be decoded (spec.md §4.6's
// "unregistered remote types are handled generically"). Subsequent calls
// for the same name return the same descriptor.
func (r *Registry) MaterializeEnum(name string, members []schema.EnumMember, flags bool) *schema.EnumType {
	if d, found := r.LookupType(name); found {
		if e, ok := d.(*schema.EnumType); ok {
			return e
		}
	}
	e := &schema.EnumType{TypeName: name, Members: members, Flags: flags}
	_ = r.RegisterType(e)
	return e
}
