package benchmarks

import (
	"github.com/randalmurphal/livedata/pkg/livedata"
	"github.com/randalmurphal/livedata/pkg/livedata/stream"
)

// Helper functions

func numbered(from, to int) []livedata.Item {
	items := make([]livedata.Item, 0, to-from)
	for i := from; i < to; i++ {
		items = append(items, livedata.Item{"id": i, "value": i})
	}
	return items
}

func mustStore(n int) *livedata.Store {
	s, err := livedata.New(numbered(0, n))
	if err != nil {
		panic(err)
	}
	return s
}

func sumValues(st *stream.Stream[livedata.ID, livedata.Item]) int {
	return stream.Reduce(st, func(acc int, it livedata.Item, _ livedata.ID) int {
		return acc + it["value"].(int)
	}, 0)
}
