package livedata

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/livedata/pkg/livedata/event"
)

// recorded is one delivered event.
type recorded struct {
	Name     event.Name
	Payload  event.Payload
	SenderID any
}

// recorder captures every event of a Source.
type recorder struct {
	mu     sync.Mutex
	events []recorded
}

func record(t *testing.T, src Source) *recorder {
	t.Helper()
	r := &recorder{}
	sub := src.On(event.Any, func(name event.Name, p event.Payload, sender any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, recorded{Name: name, Payload: p, SenderID: sender})
	})
	t.Cleanup(sub.Unsubscribe)
	return r
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.events...)
}

func (r *recorder) names() []event.Name {
	var out []event.Name
	for _, e := range r.all() {
		out = append(out, e.Name)
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// newStore builds a store with items, failing the test on error.
func newStore(t *testing.T, items []Item, opts ...Option) *Store {
	t.Helper()
	s, err := New(items, opts...)
	require.NoError(t, err)
	return s
}

// numbered returns items with ids from..to-1 and a "value" equal to the id.
func numbered(from, to int) []Item {
	items := make([]Item, 0, to-from)
	for i := from; i < to; i++ {
		items = append(items, Item{"id": i, "value": i})
	}
	return items
}

func idsOf(t *testing.T, src Source, opts ...QueryOption) []ID {
	t.Helper()
	ids, err := src.GetIDs(opts...)
	require.NoError(t, err)
	return ids
}
