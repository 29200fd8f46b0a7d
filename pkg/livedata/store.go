package livedata

import (
	"context"
	"log/slog"
	"maps"
	"reflect"
	"sync"

	"github.com/randalmurphal/livedata/internal/index"
	"github.com/randalmurphal/livedata/pkg/livedata/convert"
	"github.com/randalmurphal/livedata/pkg/livedata/event"
	"github.com/randalmurphal/livedata/pkg/livedata/merge"
	"github.com/randalmurphal/livedata/pkg/livedata/observability"
	"github.com/randalmurphal/livedata/pkg/livedata/queue"
)

// Method names in a Store's dispatch table. A queue attached to the store
// intercepts the first three.
const (
	methodAdd    = "add"
	methodUpdate = "update"
	methodRemove = "remove"
)

var queuedMethods = []string{methodAdd, methodUpdate, methodRemove}

// Store is a keyed, insertion-ordered collection of items that publishes add,
// update, and remove events for every mutation.
//
// Stored items are private copies. Every read returns fresh shallow copies, so
// callers may modify what they get back.
//
// Mutations are dispatched through a method table. When a queue is attached
// (WithQueue or SetQueue), Add, Update, and Remove are buffered and return
// (nil, nil) until the queue flushes.
type Store struct {
	mu    sync.RWMutex
	items *index.Ordered[Item]

	hub     event.Hub
	methods *queue.Methods

	queueMu sync.Mutex
	queue   *queue.Queue

	name         string
	fieldID      string
	rawTypes     map[string]string
	storageTypes map[string]string

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// New creates a store holding items.
//
// Items are added with a single add event before any queue is attached. An
// invalid item fails construction.
func New(items []Item, opts ...Option) (*Store, error) {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	source := cfg.name
	if source == "" {
		source = "store"
	}
	s := &Store{
		items:   index.New[Item](),
		name:    source,
		fieldID: cfg.fieldID,
		logger:  observability.EnrichLogger(cfg.logger, source),
		metrics: cfg.metrics,
		spans:   cfg.spans,
	}

	if len(cfg.types) > 0 {
		observability.LogDeprecatedTypes(s.logger, cfg.types)
		s.rawTypes = cfg.types
		s.storageTypes = make(map[string]string, len(cfg.types))
		for field, typeName := range cfg.types {
			s.storageTypes[field] = convert.StorageType(typeName)
		}
	}

	s.methods = queue.NewMethods(map[string]queue.Func{
		methodAdd:    s.dispatch(s.add),
		methodUpdate: s.dispatch(s.update),
		methodRemove: s.dispatch(s.remove),
	})

	if len(items) > 0 {
		if _, err := s.add(items, nil); err != nil {
			return nil, err
		}
	}

	if cfg.queue {
		if err := s.SetQueue(cfg.queueOpts...); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// dispatch adapts a mutation to the queue.Func shape used by the method table.
func (s *Store) dispatch(fn func(data any, senderID ID) ([]ID, error)) queue.Func {
	return func(args ...any) (any, error) {
		var data, senderID any
		if len(args) > 0 {
			data = args[0]
		}
		if len(args) > 1 {
			senderID = args[1]
		}
		return fn(data, senderID)
	}
}

func (s *Store) call(method string, data any, senderID ID) ([]ID, error) {
	res, err := s.methods.Call(method, data, senderID)
	if err != nil {
		return nil, err
	}
	ids, _ := res.([]ID)
	return ids, nil
}

// Add inserts one item or a slice of items and returns their ids.
//
// Items without an id get a generated UUID string. The whole batch is
// validated before anything is inserted: a non-map entry, an id already in
// the store, an id repeated within the batch, or a failed type conversion
// rejects the batch and leaves the store unchanged.
func (s *Store) Add(data any, senderID ID) ([]ID, error) {
	return s.call(methodAdd, data, senderID)
}

// Update replaces fields of existing items and adds the rest. It returns the
// added ids followed by the updated ids.
//
// Fields present in an entry overwrite the stored ones; other fields are
// kept. Entries apply in order, so a later entry sees an earlier one's
// result. Non-map entries in a slice are skipped.
func (s *Store) Update(data any, senderID ID) ([]ID, error) {
	return s.call(methodUpdate, data, senderID)
}

// Remove deletes items by id or by item and returns the ids removed. Entries
// that do not resolve to a stored item are ignored.
func (s *Store) Remove(data any, senderID ID) ([]ID, error) {
	return s.call(methodRemove, data, senderID)
}

func (s *Store) add(data any, senderID ID) ([]ID, error) {
	if data == nil {
		return nil, invalidArgument("add requires an item or a slice of items")
	}
	entries, _ := toList(data)

	s.mu.Lock()
	ids := make([]ID, 0, len(entries))
	prepared := make([]Item, 0, len(entries))
	batch := make(map[ID]struct{}, len(entries))
	for i, raw := range entries {
		m, ok := raw.(map[string]any)
		if !ok {
			s.mu.Unlock()
			return nil, invalidArgument("entry %d is %T, not an item", i, raw)
		}
		item, id, err := s.prepare(m)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if _, dup := batch[id]; dup || s.items.Has(id) {
			s.mu.Unlock()
			return nil, &DuplicateIDError{ID: id}
		}
		batch[id] = struct{}{}
		ids = append(ids, id)
		prepared = append(prepared, item)
	}
	for i, item := range prepared {
		s.items.Set(ids[i], item)
	}
	s.mu.Unlock()

	if len(ids) > 0 {
		s.emit(event.Add, event.Payload{Items: idsToAny(ids)}, senderID)
	}
	s.record("add", len(ids), senderID)
	return ids, nil
}

// staged is one step of an update batch.
type staged struct {
	id    ID
	old   Item
	next  Item
	added bool
}

func (s *Store) update(data any, senderID ID) ([]ID, error) {
	if data == nil {
		return nil, invalidArgument("update requires an item or a slice of items")
	}
	entries, isList := toList(data)

	s.mu.Lock()
	overlay := make(map[ID]Item)
	current := func(id ID) (Item, bool) {
		if item, ok := overlay[id]; ok {
			return item, true
		}
		return s.items.Get(id)
	}

	var steps []staged
	for i, raw := range entries {
		m, ok := raw.(map[string]any)
		if !ok {
			if !isList {
				s.mu.Unlock()
				return nil, invalidArgument("update requires an item, got %T", raw)
			}
			observability.LogSkippedEntry(s.logger, "update", i, raw)
			continue
		}

		id, present, err := itemID(m, s.fieldID)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if old, exists := current(id); present && exists {
			next := maps.Clone(old)
			for field, value := range m {
				if field == s.fieldID {
					continue
				}
				cv, err := s.convertField(field, value)
				if err != nil {
					s.mu.Unlock()
					return nil, err
				}
				next[field] = cv
			}
			overlay[id] = next
			steps = append(steps, staged{id: id, old: old, next: next})
			continue
		}

		item, addedID, err := s.prepare(m)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		overlay[addedID] = item
		steps = append(steps, staged{id: addedID, next: item, added: true})
	}

	var added, updated []ID
	var oldData, newData []map[string]any
	for _, st := range steps {
		s.items.Set(st.id, st.next)
		if st.added {
			added = append(added, st.id)
			continue
		}
		updated = append(updated, st.id)
		oldData = append(oldData, maps.Clone(st.old))
		newData = append(newData, maps.Clone(st.next))
	}
	s.mu.Unlock()

	if len(added) > 0 {
		s.emit(event.Add, event.Payload{Items: idsToAny(added)}, senderID)
		s.record("add", len(added), senderID)
	}
	if len(updated) > 0 {
		s.emit(event.Update, event.Payload{
			Items:   idsToAny(updated),
			OldData: oldData,
			Data:    newData,
		}, senderID)
		s.record("update", len(updated), senderID)
	}

	return append(append(make([]ID, 0, len(added)+len(updated)), added...), updated...), nil
}

// UpdateOnly deep-merges each entry onto its existing item and returns the
// ids. Every entry must name an existing item; otherwise nothing is changed
// and an *UpdateNonexistentItemError is returned. Nested maps merge key by
// key, while slices and scalars replace.
//
// UpdateOnly is never queued.
func (s *Store) UpdateOnly(data any, senderID ID) ([]ID, error) {
	if data == nil {
		return nil, invalidArgument("updateOnly requires an item or a slice of items")
	}
	entries, _ := toList(data)

	s.mu.Lock()
	patches := make([]Item, len(entries))
	ids := make([]ID, len(entries))
	for i, raw := range entries {
		m, ok := raw.(map[string]any)
		if !ok {
			s.mu.Unlock()
			return nil, invalidArgument("entry %d is %T, not an item", i, raw)
		}
		id, present, err := itemID(m, s.fieldID)
		if err != nil || !present || !s.items.Has(id) {
			s.mu.Unlock()
			return nil, &UpdateNonexistentItemError{ID: m[s.fieldID]}
		}
		patch := make(Item, len(m))
		for field, value := range m {
			if field == s.fieldID {
				continue
			}
			cv, err := s.convertField(field, value)
			if err != nil {
				s.mu.Unlock()
				return nil, err
			}
			patch[field] = cv
		}
		ids[i], patches[i] = id, patch
	}

	overlay := make(map[ID]Item)
	oldData := make([]map[string]any, 0, len(ids))
	newData := make([]map[string]any, 0, len(ids))
	for i, id := range ids {
		old, ok := overlay[id]
		if !ok {
			old, _ = s.items.Get(id)
		}
		next := merge.Deep(old, patches[i])
		next[s.fieldID] = id
		overlay[id] = next
		oldData = append(oldData, maps.Clone(old))
		newData = append(newData, maps.Clone(next))
	}
	for id, item := range overlay {
		s.items.Set(id, item)
	}
	s.mu.Unlock()

	if len(ids) > 0 {
		s.emit(event.Update, event.Payload{
			Items:   idsToAny(ids),
			OldData: oldData,
			Data:    newData,
		}, senderID)
	}
	s.record("updateOnly", len(ids), senderID)
	return ids, nil
}

func (s *Store) remove(data any, senderID ID) ([]ID, error) {
	entries, _ := toList(data)

	s.mu.Lock()
	var ids []ID
	var oldData []map[string]any
	for _, raw := range entries {
		id, ok := s.resolveID(raw)
		if !ok {
			continue
		}
		item, ok := s.items.Get(id)
		if !ok {
			continue
		}
		s.items.Delete(id)
		ids = append(ids, id)
		oldData = append(oldData, maps.Clone(item))
	}
	s.mu.Unlock()

	if len(ids) > 0 {
		s.emit(event.Remove, event.Payload{Items: idsToAny(ids), OldData: oldData}, senderID)
	}
	s.record("remove", len(ids), senderID)
	if ids == nil {
		ids = []ID{}
	}
	return ids, nil
}

// Clear removes every item and returns their ids. It fires a remove event
// even when the store is already empty.
func (s *Store) Clear(senderID ID) ([]ID, error) {
	s.mu.Lock()
	keys := s.items.Keys()
	ids := make([]ID, 0, len(keys))
	oldData := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		item, _ := s.items.Get(k)
		ids = append(ids, k)
		oldData = append(oldData, maps.Clone(item))
	}
	s.items.Clear()
	s.mu.Unlock()

	s.emit(event.Remove, event.Payload{Items: idsToAny(ids), OldData: oldData}, senderID)
	s.record("clear", len(ids), senderID)
	return ids, nil
}

// SetQueue attaches a queue in front of Add, Update, and Remove, or applies
// opts to the queue already attached. The queue inherits the store's logger,
// metrics, and span manager unless opts override them.
func (s *Store) SetQueue(opts ...queue.Option) error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if s.queue != nil {
		return s.queue.SetOptions(opts...)
	}

	base := []queue.Option{
		queue.WithLogger(s.logger),
		queue.WithMetrics(s.metrics),
		queue.WithSpanManager(s.spans),
	}
	q, err := queue.Extend(s.methods, queuedMethods, append(base, opts...)...)
	if err != nil {
		return err
	}
	s.queue = q
	return nil
}

// DisableQueue flushes and detaches the queue, restoring direct mutations.
// It does nothing when no queue is attached.
func (s *Store) DisableQueue() error {
	s.queueMu.Lock()
	q := s.queue
	s.queue = nil
	s.queueMu.Unlock()

	if q == nil {
		return nil
	}
	return q.Destroy()
}

// Flush runs every queued mutation. It does nothing when no queue is
// attached.
func (s *Store) Flush() error {
	if _, ok := s.methods.Method("flush"); !ok {
		return nil
	}
	_, err := s.methods.Call("flush")
	return err
}

// Queue returns the attached queue, or nil.
func (s *Store) Queue() *queue.Queue {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return s.queue
}

// On registers fn for the named event.
func (s *Store) On(name event.Name, fn event.Listener) event.Subscription {
	return s.hub.On(name, fn)
}

// Off removes a registration made with On.
func (s *Store) Off(sub event.Subscription) {
	s.hub.Off(sub)
}

// Length returns the number of items.
func (s *Store) Length() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Len()
}

// IDField returns the name of the id field.
func (s *Store) IDField() string {
	return s.fieldID
}

// DataSet returns s.
func (s *Store) DataSet() (*Store, error) {
	return s, nil
}

// prepare copies m into a storable item with a normalized id, generating one
// when absent, and converts typed fields.
func (s *Store) prepare(m map[string]any) (Item, ID, error) {
	id, present, err := itemID(m, s.fieldID)
	if err != nil {
		return nil, nil, err
	}
	if !present {
		id = newID()
	}
	item := make(Item, len(m)+1)
	for field, value := range m {
		if field == s.fieldID {
			continue
		}
		cv, err := s.convertField(field, value)
		if err != nil {
			return nil, nil, err
		}
		item[field] = cv
	}
	item[s.fieldID] = id
	return item, id, nil
}

func (s *Store) convertField(field string, value any) (any, error) {
	typeName, ok := s.storageTypes[field]
	if !ok {
		return value, nil
	}
	return convert.Convert(value, typeName)
}

// resolveID maps a remove entry, either an item or an id, to a stored key.
func (s *Store) resolveID(raw any) (ID, bool) {
	if m, ok := raw.(map[string]any); ok {
		raw = m[s.fieldID]
	}
	return NormalizeID(raw)
}

func (s *Store) emit(name event.Name, payload event.Payload, senderID ID) {
	// Only fixed, valid names reach here.
	_ = s.hub.Trigger(name, payload, senderID)
}

func (s *Store) record(op string, count int, senderID ID) {
	if count == 0 {
		return
	}
	s.metrics.RecordMutation(context.Background(), s.name, op, count)
	observability.LogMutation(s.logger, op, count, senderID)
}

// toList flattens a mutation argument. Slices and arrays of any element type
// yield their elements; anything else is a one-element list. isList reports
// which case applied.
func toList(data any) (entries []any, isList bool) {
	switch d := data.(type) {
	case nil:
		return nil, false
	case []any:
		return d, true
	case []Item:
		out := make([]any, len(d))
		for i, item := range d {
			out[i] = item
		}
		return out, true
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{data}, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func idsToAny(ids []ID) []any {
	out := make([]any, len(ids))
	copy(out, ids)
	return out
}
