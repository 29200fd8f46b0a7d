package pipe_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/livedata/pkg/livedata"
	"github.com/randalmurphal/livedata/pkg/livedata/event"
	"github.com/randalmurphal/livedata/pkg/livedata/pipe"
)

func newStore(t *testing.T, items ...livedata.Item) *livedata.Store {
	t.Helper()
	s, err := livedata.New(items)
	require.NoError(t, err)
	return s
}

func all(t *testing.T, s *livedata.Store) []livedata.Item {
	t.Helper()
	items, err := s.GetAll(livedata.WithOrder("id"))
	require.NoError(t, err)
	return items
}

// doubled maps each item to {id, twice}.
func doubled(it livedata.Item) livedata.Item {
	return livedata.Item{"id": it["id"], "twice": it["n"].(int) * 2}
}

func TestPipe_All(t *testing.T) {
	source := newStore(t,
		livedata.Item{"id": 1, "n": 1},
		livedata.Item{"id": 2, "n": 2},
		livedata.Item{"id": 3, "n": 3},
	)
	target := newStore(t, livedata.Item{"id": 2, "twice": 0, "stale": true})

	p := pipe.From(source).
		Filter(func(it livedata.Item) bool { return it["n"].(int) != 3 }).
		Map(doubled).
		To(target)
	require.NoError(t, p.All())

	assert.Equal(t, []livedata.Item{
		{"id": 1, "twice": 2},
		{"id": 2, "twice": 4, "stale": true},
	}, all(t, target))
	assert.False(t, p.Running(), "All does not subscribe")
}

func TestPipe_StartForwardsChanges(t *testing.T) {
	source := newStore(t)
	target := newStore(t)

	p := pipe.From(source).Map(doubled).To(target)
	p.Start()
	t.Cleanup(p.Stop)
	require.True(t, p.Running())

	_, err := source.Add([]livedata.Item{{"id": 1, "n": 1}, {"id": 2, "n": 2}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []livedata.Item{{"id": 1, "twice": 2}, {"id": 2, "twice": 4}}, all(t, target))

	_, err = source.Update(livedata.Item{"id": 2, "n": 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, []livedata.Item{{"id": 1, "twice": 2}, {"id": 2, "twice": 10}}, all(t, target))

	_, err = source.Remove(1, nil)
	require.NoError(t, err)
	assert.Equal(t, []livedata.Item{{"id": 2, "twice": 10}}, all(t, target))
}

func TestPipe_Stop(t *testing.T) {
	source := newStore(t)
	target := newStore(t)

	p := pipe.From(source).To(target)
	p.Start()
	p.Start()
	p.Stop()
	assert.False(t, p.Running())

	_, err := source.Add(livedata.Item{"id": 1}, nil)
	require.NoError(t, err)
	assert.Zero(t, target.Length())

	p.Start()
	_, err = source.Add(livedata.Item{"id": 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, target.Length())
	p.Stop()
}

func TestPipe_FlatMap(t *testing.T) {
	source := newStore(t)
	target := newStore(t)

	p := pipe.From(source).
		FlatMap(func(it livedata.Item) []livedata.Item {
			n := it["n"].(int)
			out := make([]livedata.Item, n)
			for i := range n {
				out[i] = livedata.Item{"id": fmt.Sprintf("%v-%d", it["id"], i), "parent": it["id"]}
			}
			return out
		}).
		To(target)
	p.Start()
	t.Cleanup(p.Stop)

	_, err := source.Add([]livedata.Item{{"id": "a", "n": 2}, {"id": "b", "n": 0}, {"id": "c", "n": 1}}, nil)
	require.NoError(t, err)

	ids, err := target.GetIDs()
	require.NoError(t, err)
	assert.Equal(t, []livedata.ID{"a-0", "a-1", "c-0"}, ids)
}

func TestPipe_TransformsSeeCopies(t *testing.T) {
	source := newStore(t, livedata.Item{"id": 1, "name": "x"})
	target := newStore(t)

	p := pipe.From(source).
		Map(func(it livedata.Item) livedata.Item {
			it["name"] = "changed"
			return it
		}).
		To(target)
	require.NoError(t, p.All())

	got, err := source.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "x", got["name"])
}

func TestPipe_SenderIDPassesThrough(t *testing.T) {
	source := newStore(t)
	target := newStore(t)

	var senders []any
	target.On(event.Any, func(_ event.Name, _ event.Payload, sender any) {
		senders = append(senders, sender)
	})

	p := pipe.From(source).To(target)
	p.Start()
	t.Cleanup(p.Stop)

	_, err := source.Add(livedata.Item{"id": 1}, "importer")
	require.NoError(t, err)
	assert.Equal(t, []any{"importer"}, senders)
}

func TestPipe_ForwardErrorsAreLogged(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))

	source := newStore(t)
	target := newStore(t, livedata.Item{"id": 1})

	p := pipe.From(source, pipe.WithLogger(logger)).To(target)
	p.Start()
	t.Cleanup(p.Stop)

	_, err := source.Add(livedata.Item{"id": 1, "n": 1}, nil)
	require.NoError(t, err, "the source mutation succeeds even when forwarding fails")

	assert.Contains(t, buf.String(), "pipe forward failed")
	assert.Contains(t, buf.String(), "op=add")
	assert.Equal(t, 1, source.Length())
}

func TestPipe_FromView(t *testing.T) {
	source := newStore(t)
	view, err := livedata.NewView(source, livedata.WithViewFilter(func(it livedata.Item) bool {
		return it["n"].(int) > 1
	}))
	require.NoError(t, err)
	target := newStore(t)

	p := pipe.From(view).To(target)
	p.Start()
	t.Cleanup(p.Stop)

	_, err = source.Add([]livedata.Item{{"id": 1, "n": 1}, {"id": 2, "n": 2}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []livedata.Item{{"id": 2, "n": 2}}, all(t, target))

	_, err = source.Update(livedata.Item{"id": 2, "n": 0}, nil)
	require.NoError(t, err)
	assert.Zero(t, target.Length(), "leaving the view removes from the target")
}
