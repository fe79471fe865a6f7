package registry

import "github.com/brevity-dev/wirecodec/schema"

// Upgrade turns a decoded delta/absolute read of a frozen class's wire shape
// into a live instance of whatever class supersedes it. dec is the partially
// generic schema.ReadObjectPlan already produced for the frozen class; an
// Upgrade function is free to ignore it and build the live instance any way
// it likes.
type Upgrade func(dec interface{}) (className string, obj schema.Instance)

// RegisterUpgrader marks oldName as frozen: a class name that must still be
// resolvable for streams written before a schema change, but is never
// offered to new writers. Readers that hit a class reference named oldName
// run upgrade on the decoded value instead of handing back a raw oldName
// instance, mirroring the teacher's binary.Frozen / UpgradeDecoder pattern
// (object.go, test/frozen_test.go) — spec.md §4.3's "first-writer-wins" is
// about which Descriptor instance answers for a name, not about whether a
// frozen name can still be read at all.
func (r *Registry) RegisterUpgrader(oldName string, upgrade Upgrade) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upgraders == nil {
		r.upgraders = map[string]Upgrade{}
	}
	r.upgraders[oldName] = upgrade
	if r.frozen == nil {
		r.frozen = map[string]bool{}
	}
	r.frozen[oldName] = true
}

// IsFrozen reports whether name is frozen: still decodable, but excluded
// from whatever a caller offers new writers to register against (e.g. a
// UI picker of "classes you can construct"). Checks fallbacks on miss.
func (r *Registry) IsFrozen(name string) bool {
	r.mu.RLock()
	frozen := r.frozen[name]
	r.mu.RUnlock()
	if frozen {
		return true
	}
	for _, f := range r.fallbacks {
		if f.IsFrozen(name) {
			return true
		}
	}
	return false
}

// Upgrader returns the Upgrade registered for name, if any, checking
// fallbacks on miss.
func (r *Registry) Upgrader(name string) (Upgrade, bool) {
	r.mu.RLock()
	u, found := r.upgraders[name]
	r.mu.RUnlock()
	if found {
		return u, true
	}
	for _, f := range r.fallbacks {
		if u, found := f.Upgrader(name); found {
			return u, true
		}
	}
	return nil, false
}
