// Package index provides an insertion-ordered key/value index.
//
// It is backed by hashicorp's simplelru list with an unbounded size. Reads use
// Peek and writes to existing keys modify the stored entry, so recency never
// changes and iteration always reports keys in first-insertion order.
package index

import (
	"math"

	"github.com/hashicorp/golang-lru/simplelru"
)

type entry[V any] struct {
	val V
}

// Ordered maps keys to values and remembers the order keys were first added.
// It is not safe for concurrent use.
type Ordered[V any] struct {
	lru *simplelru.LRU
}

// New creates an empty index.
func New[V any]() *Ordered[V] {
	lru, err := simplelru.NewLRU(math.MaxInt, nil)
	if err != nil {
		// NewLRU only fails for a non-positive size.
		panic(err)
	}
	return &Ordered[V]{lru: lru}
}

// Get returns the value stored under key.
func (o *Ordered[V]) Get(key any) (V, bool) {
	raw, ok := o.lru.Peek(key)
	if !ok {
		var zero V
		return zero, false
	}
	return raw.(*entry[V]).val, true
}

// Set stores v under key. A new key goes to the end of the order; an existing
// key keeps its position.
func (o *Ordered[V]) Set(key any, v V) {
	if raw, ok := o.lru.Peek(key); ok {
		raw.(*entry[V]).val = v
		return
	}
	o.lru.Add(key, &entry[V]{val: v})
}

// Has reports whether key is present.
func (o *Ordered[V]) Has(key any) bool {
	return o.lru.Contains(key)
}

// Delete removes key and reports whether it was present.
func (o *Ordered[V]) Delete(key any) bool {
	return o.lru.Remove(key)
}

// Keys returns all keys in insertion order.
func (o *Ordered[V]) Keys() []any {
	return o.lru.Keys()
}

// Len returns the number of keys.
func (o *Ordered[V]) Len() int {
	return o.lru.Len()
}

// Clear removes every key.
func (o *Ordered[V]) Clear() {
	o.lru.Purge()
}
