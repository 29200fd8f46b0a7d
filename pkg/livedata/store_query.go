package livedata

import (
	"maps"

	"github.com/randalmurphal/livedata/pkg/livedata/convert"
	"github.com/randalmurphal/livedata/pkg/livedata/observability"
	"github.com/randalmurphal/livedata/pkg/livedata/stream"
)

// selection names the items a query starts from.
type selection struct {
	ids    []ID
	all    bool
	single bool
}

type entry struct {
	id   ID
	item Item
}

// query runs the read pipeline: select, convert, filter, order, project.
// Every returned item is a fresh copy.
func (s *Store) query(sel selection, q QueryOptions) ([]entry, error) {
	cmpFn, err := comparatorFor(q.Order)
	if err != nil {
		return nil, err
	}

	types := s.rawTypes
	if q.Types != nil {
		observability.LogDeprecatedTypes(s.logger, q.Types)
		types = q.Types
	}

	s.mu.RLock()
	var selected []entry
	if sel.all {
		keys := s.items.Keys()
		selected = make([]entry, 0, len(keys))
		for _, k := range keys {
			item, _ := s.items.Get(k)
			selected = append(selected, entry{id: k, item: item})
		}
	} else {
		selected = make([]entry, 0, len(sel.ids))
		for _, raw := range sel.ids {
			id, ok := NormalizeID(raw)
			if !ok {
				continue
			}
			if item, ok := s.items.Get(id); ok {
				selected = append(selected, entry{id: id, item: item})
			}
		}
	}
	s.mu.RUnlock()

	out := selected[:0]
	for _, e := range selected {
		item, err := convertItem(e.item, types)
		if err != nil {
			return nil, err
		}
		if q.Filter != nil && !q.Filter(item) {
			continue
		}
		out = append(out, entry{id: e.id, item: item})
	}

	if cmpFn != nil && !sel.single {
		sortEntries(out, cmpFn)
	}

	if len(q.Fields) > 0 {
		for i := range out {
			out[i].item = project(out[i].item, q.Fields)
		}
	}
	return out, nil
}

// convertItem returns a copy of item with the typed fields converted.
func convertItem(item Item, types map[string]string) (Item, error) {
	out := maps.Clone(item)
	for field, typeName := range types {
		value, ok := out[field]
		if !ok {
			continue
		}
		cv, err := convert.Convert(value, typeName)
		if err != nil {
			return nil, err
		}
		out[field] = cv
	}
	return out, nil
}

func project(item Item, fields []string) Item {
	out := make(Item, len(fields))
	for _, f := range fields {
		if v, ok := item[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Get returns the item with the given id, or nil when it is unknown or
// rejected by the filter. Ordering never applies to a single item.
func (s *Store) Get(id ID, opts ...QueryOption) (Item, error) {
	entries, err := s.query(selection{ids: []ID{id}, single: true}, buildQuery(opts))
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return entries[0].item, nil
}

// GetMany returns the items with the given ids. Unknown ids are omitted.
func (s *Store) GetMany(ids []ID, opts ...QueryOption) ([]Item, error) {
	entries, err := s.query(selection{ids: ids}, buildQuery(opts))
	if err != nil {
		return nil, err
	}
	return entryItems(entries), nil
}

// GetAll returns every item, in insertion order unless an order is given.
func (s *Store) GetAll(opts ...QueryOption) ([]Item, error) {
	entries, err := s.query(selection{all: true}, buildQuery(opts))
	if err != nil {
		return nil, err
	}
	return entryItems(entries), nil
}

// GetMap returns the selected items keyed by id. Nil ids selects every item.
func (s *Store) GetMap(ids []ID, opts ...QueryOption) (map[ID]Item, error) {
	entries, err := s.query(selection{ids: ids, all: ids == nil}, buildQuery(opts))
	if err != nil {
		return nil, err
	}
	out := make(map[ID]Item, len(entries))
	for _, e := range entries {
		out[e.id] = e.item
	}
	return out, nil
}

// GetIDs returns the ids of every item that passes the filter, in insertion
// order unless an order is given.
func (s *Store) GetIDs(opts ...QueryOption) ([]ID, error) {
	q := buildQuery(opts)
	if q.Filter == nil && q.Order == nil {
		return s.keys(), nil
	}
	entries, err := s.query(selection{all: true}, q)
	if err != nil {
		return nil, err
	}
	ids := make([]ID, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids, nil
}

// ForEach calls fn for each selected item.
func (s *Store) ForEach(fn func(item Item, id ID), opts ...QueryOption) error {
	entries, err := s.query(selection{all: true}, buildQuery(opts))
	if err != nil {
		return err
	}
	for _, e := range entries {
		fn(e.item, e.id)
	}
	return nil
}

// Map collects fn's result for each selected item.
func (s *Store) Map(fn func(item Item, id ID) any, opts ...QueryOption) ([]any, error) {
	entries, err := s.query(selection{all: true}, buildQuery(opts))
	if err != nil {
		return nil, err
	}
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = fn(e.item, e.id)
	}
	return out, nil
}

// Max returns the item with the largest numeric value in field, or nil when
// no item has a numeric value there. Ties keep the first item.
func (s *Store) Max(field string) Item {
	return s.extreme(field, func(a, b float64) bool { return a > b })
}

// Min returns the item with the smallest numeric value in field, or nil when
// no item has a numeric value there. Ties keep the first item.
func (s *Store) Min(field string) Item {
	return s.extreme(field, func(a, b float64) bool { return a < b })
}

func (s *Store) extreme(field string, better func(a, b float64) bool) Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best Item
	var bestValue float64
	for _, k := range s.items.Keys() {
		item, _ := s.items.Get(k)
		v, ok := convert.Float(item[field])
		if !ok {
			continue
		}
		if best == nil || better(v, bestValue) {
			best, bestValue = item, v
		}
	}
	if best == nil {
		return nil
	}
	return maps.Clone(best)
}

// Distinct returns the unique values of prop in first-occurrence order. Items
// without the field are skipped. Numbers are compared numerically, so 1 and
// "1" count as the same value.
func (s *Store) Distinct(prop string) ([]any, error) {
	typeName := s.rawTypes[prop]

	s.mu.RLock()
	var raw []any
	for _, k := range s.items.Keys() {
		item, _ := s.items.Get(k)
		if v, ok := item[prop]; ok {
			raw = append(raw, v)
		}
	}
	s.mu.RUnlock()

	values := make([]any, 0, len(raw))
	for _, v := range raw {
		if typeName != "" {
			cv, err := convert.Convert(v, typeName)
			if err != nil {
				return nil, err
			}
			v = cv
		}
		seen := false
		for _, existing := range values {
			if looseEqual(existing, v) {
				seen = true
				break
			}
		}
		if !seen {
			values = append(values, v)
		}
	}
	return values, nil
}

// Stream returns a lazy stream of copies of the items with the given ids, or
// of every item when ids is nil. Keys are read when iteration starts and each
// item is looked up as it is yielded, so the stream sees later mutations.
func (s *Store) Stream(ids []ID) (*stream.Stream[ID, Item], error) {
	return stream.New(func(yield func(ID, Item) bool) {
		keys := ids
		if keys == nil {
			keys = s.keys()
		}
		for _, raw := range keys {
			id, ok := NormalizeID(raw)
			if !ok {
				continue
			}
			item, ok := s.item(id)
			if !ok {
				continue
			}
			if !yield(id, item) {
				return
			}
		}
	}), nil
}

func (s *Store) keys() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Keys()
}

// item returns a copy of the stored item without conversion.
func (s *Store) item(id ID) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	return maps.Clone(item), true
}

func entryItems(entries []entry) []Item {
	out := make([]Item, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out
}
