// Package registry provides a generic thread-safe table of values indexed by
// an ordered key, with alias support.
//
// Registry is designed for read-heavy workloads using sync.RWMutex. The
// livedata convert package keeps its converter table in one: each type name
// maps to a conversion function, and alternate spellings are aliases.
//
// # Basic Usage
//
//	r := registry.New[string, Converter]()
//	r.Register("number", toNumber)
//	r.Alias("Number", "number")
//
//	conv, ok := r.Get("Number") // resolves to toNumber
//
// # Aliases
//
// An alias follows its target: replacing the target's value changes what the
// alias resolves to, and deleting the target leaves the alias unresolvable.
// Registering a value under an alias name turns it back into a regular entry.
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use. Range iterates over a
// sorted snapshot, so the callback may register or delete entries.
package registry
