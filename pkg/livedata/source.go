package livedata

import (
	"github.com/randalmurphal/livedata/pkg/livedata/event"
	"github.com/randalmurphal/livedata/pkg/livedata/stream"
)

// Source is the read and subscribe surface shared by Store and View. A View
// accepts any Source as its upstream, so views can be chained.
type Source interface {
	// On registers fn for the named event. See event.Hub.On.
	On(name event.Name, fn event.Listener) event.Subscription

	// Off removes a registration made with On.
	Off(sub event.Subscription)

	// Get returns the item with the given id, or nil when it is unknown or
	// filtered out.
	Get(id ID, opts ...QueryOption) (Item, error)

	// GetMany returns the items with the given ids. Unknown ids are omitted.
	GetMany(ids []ID, opts ...QueryOption) ([]Item, error)

	// GetAll returns every item.
	GetAll(opts ...QueryOption) ([]Item, error)

	// GetMap returns items keyed by id. Nil ids selects every item.
	GetMap(ids []ID, opts ...QueryOption) (map[ID]Item, error)

	// GetIDs returns the ids of the selected items.
	GetIDs(opts ...QueryOption) ([]ID, error)

	// ForEach calls fn for each selected item.
	ForEach(fn func(item Item, id ID), opts ...QueryOption) error

	// Map collects fn's result for each selected item.
	Map(fn func(item Item, id ID) any, opts ...QueryOption) ([]any, error)

	// Stream returns a lazy stream over the given ids, or over every item
	// when ids is nil.
	Stream(ids []ID) (*stream.Stream[ID, Item], error)

	// DataSet returns the Store at the root of a view chain.
	DataSet() (*Store, error)

	// Length returns the number of items.
	Length() int

	// IDField returns the name of the id field.
	IDField() string
}

// MapTo is Map with a typed result.
func MapTo[T any](src Source, fn func(item Item, id ID) T, opts ...QueryOption) ([]T, error) {
	var out []T
	err := src.ForEach(func(item Item, id ID) {
		out = append(out, fn(item, id))
	}, opts...)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

var (
	_ Source = (*Store)(nil)
	_ Source = (*View)(nil)
)
