// Package stream provides lazy, chainable iteration over keyed values.
//
// A Stream wraps an iter.Seq2. Filter, Map, and the other transforms return
// new streams that do no work until iterated, and every iteration re-runs the
// underlying sequence. Cache materializes a stream so later iterations replay
// a snapshot.
//
// Store.Stream and View.Stream return a Stream[livedata.ID, livedata.Item].
package stream

import (
	"iter"
	"slices"
)

// Entry is one key/value pair.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Stream is a lazy sequence of key/value pairs.
type Stream[K comparable, V any] struct {
	seq iter.Seq2[K, V]
}

// New wraps seq. A nil seq yields nothing.
func New[K comparable, V any](seq iter.Seq2[K, V]) *Stream[K, V] {
	if seq == nil {
		seq = func(func(K, V) bool) {}
	}
	return &Stream[K, V]{seq: seq}
}

// FromEntries streams a fixed slice of entries.
func FromEntries[K comparable, V any](entries []Entry[K, V]) *Stream[K, V] {
	return New(func(yield func(K, V) bool) {
		for _, e := range entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	})
}

// All returns the underlying sequence, for use with range.
func (s *Stream[K, V]) All() iter.Seq2[K, V] {
	return s.seq
}

// Keys returns a sequence of the keys.
func (s *Stream[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range s.seq {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns a sequence of the values.
func (s *Stream[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range s.seq {
			if !yield(v) {
				return
			}
		}
	}
}

// IDs collects the keys.
func (s *Stream[K, V]) IDs() []K {
	out := []K{}
	for k := range s.seq {
		out = append(out, k)
	}
	return out
}

// Items collects the values.
func (s *Stream[K, V]) Items() []V {
	out := []V{}
	for _, v := range s.seq {
		out = append(out, v)
	}
	return out
}

// Entries collects the pairs.
func (s *Stream[K, V]) Entries() []Entry[K, V] {
	out := []Entry[K, V]{}
	for k, v := range s.seq {
		out = append(out, Entry[K, V]{Key: k, Value: v})
	}
	return out
}

// ToMap collects the pairs into a map. A repeated key keeps its last value.
func (s *Stream[K, V]) ToMap() map[K]V {
	out := make(map[K]V)
	for k, v := range s.seq {
		out[k] = v
	}
	return out
}

// IDSet collects the keys into a set.
func (s *Stream[K, V]) IDSet() map[K]struct{} {
	out := make(map[K]struct{})
	for k := range s.seq {
		out[k] = struct{}{}
	}
	return out
}

// Cache iterates s once and returns a stream replaying the result.
func (s *Stream[K, V]) Cache() *Stream[K, V] {
	return FromEntries(s.Entries())
}

// Filter returns a stream of the pairs fn accepts.
func (s *Stream[K, V]) Filter(fn func(v V, k K) bool) *Stream[K, V] {
	return New(func(yield func(K, V) bool) {
		for k, v := range s.seq {
			if fn(v, k) && !yield(k, v) {
				return
			}
		}
	})
}

// ForEach calls fn for each pair.
func (s *Stream[K, V]) ForEach(fn func(v V, k K)) {
	for k, v := range s.seq {
		fn(v, k)
	}
}

// Sort returns a stream of the pairs ordered by cmp on values. The sort is
// stable and happens when the returned stream is iterated.
func (s *Stream[K, V]) Sort(cmp func(a, b V) int) *Stream[K, V] {
	return New(func(yield func(K, V) bool) {
		entries := s.Entries()
		slices.SortStableFunc(entries, func(a, b Entry[K, V]) int {
			return cmp(a.Value, b.Value)
		})
		for _, e := range entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	})
}

// Max returns the value with the largest fn result. ok is false for an empty
// stream. Ties keep the first value.
func (s *Stream[K, V]) Max(fn func(v V, k K) float64) (best V, ok bool) {
	return s.extreme(fn, func(a, b float64) bool { return a > b })
}

// Min returns the value with the smallest fn result. ok is false for an
// empty stream. Ties keep the first value.
func (s *Stream[K, V]) Min(fn func(v V, k K) float64) (best V, ok bool) {
	return s.extreme(fn, func(a, b float64) bool { return a < b })
}

func (s *Stream[K, V]) extreme(fn func(V, K) float64, better func(a, b float64) bool) (best V, ok bool) {
	var bestScore float64
	for k, v := range s.seq {
		score := fn(v, k)
		if !ok || better(score, bestScore) {
			best, bestScore, ok = v, score, true
		}
	}
	return best, ok
}

// Map returns a stream of fn applied to each value, keeping the keys.
func Map[K comparable, V, U any](s *Stream[K, V], fn func(v V, k K) U) *Stream[K, U] {
	return New(func(yield func(K, U) bool) {
		for k, v := range s.seq {
			if !yield(k, fn(v, k)) {
				return
			}
		}
	})
}

// Reduce folds the stream into a single value starting from init.
func Reduce[K comparable, V, A any](s *Stream[K, V], fn func(acc A, v V, k K) A, init A) A {
	acc := init
	for k, v := range s.seq {
		acc = fn(acc, v, k)
	}
	return acc
}

// Distinct returns the unique fn results in first-occurrence order.
func Distinct[K comparable, V any, U comparable](s *Stream[K, V], fn func(v V, k K) U) []U {
	seen := make(map[U]struct{})
	out := []U{}
	for k, v := range s.seq {
		u := fn(v, k)
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
