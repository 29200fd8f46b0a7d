package registry

import (
	"cmp"
	"maps"
	"slices"
	"sync"
)

// Registry is a thread-safe table of values indexed by name.
// Names may also be registered as aliases of another name; lookups through an
// alias resolve to the target's current value.
type Registry[K cmp.Ordered, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	aliases map[K]K
}

// New creates a new empty registry.
func New[K cmp.Ordered, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		entries: make(map[K]V),
		aliases: make(map[K]K),
	}
}

// Register adds or replaces a value. Registering a name that was an alias
// turns it into a regular entry.
func (r *Registry[K, V]) Register(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.aliases, key)
	r.entries[key] = value
}

// RegisterMany adds multiple entries to the registry.
func (r *Registry[K, V]) RegisterMany(entries map[K]V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range entries {
		delete(r.aliases, k)
		r.entries[k] = v
	}
}

// Alias makes alias resolve to target. It returns false if target is not a
// registered entry.
func (r *Registry[K, V]) Alias(alias, target K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[target]; !ok {
		return false
	}
	delete(r.entries, alias)
	r.aliases[alias] = target
	return true
}

// Get returns the value for a name or alias and whether it exists.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[key]; ok {
		key = target
	}
	v, ok := r.entries[key]
	return v, ok
}

// Has returns true if the name or alias resolves to a value.
func (r *Registry[K, V]) Has(key K) bool {
	_, ok := r.Get(key)
	return ok
}

// Delete removes a name or alias. Aliases pointing at a deleted name stop
// resolving.
func (r *Registry[K, V]) Delete(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
	delete(r.aliases, key)
}

// Keys returns every resolvable name, aliases included, in sorted order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]K, 0, len(r.entries)+len(r.aliases))
	for k := range r.entries {
		keys = append(keys, k)
	}
	for a, target := range r.aliases {
		if _, ok := r.entries[target]; ok {
			keys = append(keys, a)
		}
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of regular entries. Aliases are not counted.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Range calls fn for each regular entry in sorted key order until fn returns
// false. It iterates over a snapshot, so fn may modify the registry.
func (r *Registry[K, V]) Range(fn func(K, V) bool) {
	r.mu.RLock()
	snapshot := make(map[K]V, len(r.entries))
	for k, v := range r.entries {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	for _, k := range slices.Sorted(maps.Keys(snapshot)) {
		if !fn(k, snapshot[k]) {
			return
		}
	}
}
