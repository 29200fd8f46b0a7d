package livedata

import (
	"context"
	"log/slog"
	"sync"

	"github.com/randalmurphal/livedata/internal/index"
	"github.com/randalmurphal/livedata/pkg/livedata/event"
	"github.com/randalmurphal/livedata/pkg/livedata/observability"
	"github.com/randalmurphal/livedata/pkg/livedata/stream"
)

// viewConfig holds configuration for a View.
type viewConfig struct {
	name    string
	filter  Filter
	fieldID string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// ViewOption configures a View.
type ViewOption func(*viewConfig)

// WithViewFilter sets the membership predicate. Default: every item.
func WithViewFilter(f Filter) ViewOption {
	return func(c *viewConfig) {
		c.filter = f
	}
}

// WithViewFieldID overrides the id field name reported by IDField.
func WithViewFieldID(field string) ViewOption {
	return func(c *viewConfig) {
		c.fieldID = field
	}
}

// WithViewName labels the view in logs and spans.
func WithViewName(name string) ViewOption {
	return func(c *viewConfig) {
		c.name = name
	}
}

// WithViewLogger sets the logger. Default: slog.Default().
func WithViewLogger(l *slog.Logger) ViewOption {
	return func(c *viewConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithViewMetrics records membership changes.
func WithViewMetrics(m observability.MetricsRecorder) ViewOption {
	return func(c *viewConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithViewSpanManager traces Refresh.
func WithViewSpanManager(s observability.SpanManager) ViewOption {
	return func(c *viewConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// View is a live, filtered, read-only projection of a Source.
//
// A view tracks the ids of the upstream items that pass its filter. It
// subscribes to every upstream event and translates each batch into at most
// one add, one update, and one remove event of its own, so its membership
// always equals a fresh filter of the upstream. Reads delegate to the
// upstream with the view's filter ANDed onto the caller's.
//
// Filters that depend on state outside the items need an explicit Refresh
// when that state changes.
type View struct {
	mu            sync.RWMutex
	hub           event.Hub
	upstream      Source
	upstreamField string
	sub           event.Subscription
	ids           *index.Ordered[struct{}]
	disposed      bool

	name    string
	filter  Filter
	fieldID string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// NewView creates a view over upstream. A nil upstream binds a new empty
// Store.
func NewView(upstream Source, opts ...ViewOption) (*View, error) {
	cfg := viewConfig{
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		cfg.name = "view"
	}

	v := &View{
		ids:     index.New[struct{}](),
		name:    cfg.name,
		filter:  cfg.filter,
		fieldID: cfg.fieldID,
		logger:  observability.EnrichLogger(cfg.logger, cfg.name),
		metrics: cfg.metrics,
		spans:   cfg.spans,
	}
	if err := v.SetData(upstream); err != nil {
		return nil, err
	}
	return v, nil
}

// SetData rebinds the view to upstream.
//
// The view stops listening to its previous upstream, fires a remove event for
// its whole previous membership, then subscribes to upstream and fires an add
// event for the items of upstream that pass the filter. Both events fire even
// when empty. A nil upstream binds a new empty Store and fires no add event.
func (v *View) SetData(upstream Source) error {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return ErrDisposedView
	}
	old, oldSub := v.upstream, v.sub
	prior := v.ids.Keys()
	v.ids.Clear()
	v.sub = nil
	v.mu.Unlock()

	if old != nil {
		if oldSub != nil {
			oldSub.Unsubscribe()
		}
		removed := make([]any, 0, len(prior))
		oldData := make([]map[string]any, 0, len(prior))
		for _, id := range prior {
			item, err := old.Get(id)
			if err != nil {
				observability.LogRefetchError(v.logger, id, err)
				continue
			}
			if item == nil {
				continue
			}
			removed = append(removed, id)
			oldData = append(oldData, item)
		}
		v.emit(event.Remove, event.Payload{Items: removed, OldData: oldData}, nil)
	}

	fresh := upstream == nil
	if fresh {
		store, err := New(nil)
		if err != nil {
			return err
		}
		upstream = store
	}

	sub := upstream.On(event.Any, v.onEvent)
	ids, err := upstream.GetIDs(WithFilter(v.filter))
	if err != nil {
		sub.Unsubscribe()
		return err
	}

	v.mu.Lock()
	v.upstream = upstream
	v.upstreamField = upstream.IDField()
	v.sub = sub
	for _, id := range ids {
		v.ids.Set(id, struct{}{})
	}
	v.mu.Unlock()

	if !fresh {
		v.emit(event.Add, event.Payload{Items: idsToAny(ids)}, nil)
	}
	return nil
}

// Refresh re-applies the filter to the whole upstream and fires add and
// remove events for the difference.
func (v *View) Refresh() error {
	up, err := v.source()
	if err != nil {
		return err
	}

	ctx, span := v.spans.StartRefreshSpan(context.Background(), v.name)
	ids, err := up.GetIDs(WithFilter(v.filter))
	if err != nil {
		v.spans.EndSpanWithError(span, err)
		return err
	}

	current := make(map[ID]struct{}, len(ids))
	var added []any
	v.mu.Lock()
	for _, id := range ids {
		current[id] = struct{}{}
		if !v.ids.Has(id) {
			v.ids.Set(id, struct{}{})
			added = append(added, id)
		}
	}
	var gone []ID
	for _, id := range v.ids.Keys() {
		if _, ok := current[id]; !ok {
			v.ids.Delete(id)
			gone = append(gone, id)
		}
	}
	v.mu.Unlock()

	var removed []any
	var oldData []map[string]any
	for _, id := range gone {
		item, err := up.Get(id)
		if err != nil {
			observability.LogRefetchError(v.logger, id, err)
		}
		removed = append(removed, id)
		oldData = append(oldData, item)
	}

	if len(added) > 0 {
		v.emit(event.Add, event.Payload{Items: added}, nil)
		v.metrics.RecordViewChange(ctx, "add", len(added))
	}
	if len(removed) > 0 {
		v.emit(event.Remove, event.Payload{Items: removed, OldData: oldData}, nil)
		v.metrics.RecordViewChange(ctx, "remove", len(removed))
	}
	v.spans.EndSpanWithError(span, nil)
	return nil
}

// onEvent translates one upstream batch into view events.
func (v *View) onEvent(name event.Name, p event.Payload, senderID any) {
	var (
		added, updated, removed []any
		updOld, updData, remOld []map[string]any
	)

	switch name {
	case event.Add:
		for _, id := range p.Items {
			if v.passes(id) && v.join(id) {
				added = append(added, id)
			}
		}

	case event.Update:
		for i, id := range p.Items {
			passes := v.passes(id)
			member := v.has(id)
			switch {
			case passes && member:
				updated = append(updated, id)
				updOld = append(updOld, at(p.OldData, i))
				updData = append(updData, at(p.Data, i))
			case passes:
				if v.join(id) {
					added = append(added, id)
				}
			case member:
				if v.leave(id) {
					removed = append(removed, id)
					remOld = append(remOld, at(p.OldData, i))
				}
			}
		}

	case event.Remove:
		for i, id := range p.Items {
			if v.leave(id) {
				removed = append(removed, id)
				remOld = append(remOld, at(p.OldData, i))
			}
		}
	}

	ctx := context.Background()
	if len(added) > 0 {
		v.emit(event.Add, event.Payload{Items: added}, senderID)
		v.metrics.RecordViewChange(ctx, "add", len(added))
	}
	if len(updated) > 0 {
		v.emit(event.Update, event.Payload{Items: updated, OldData: updOld, Data: updData}, senderID)
		v.metrics.RecordViewChange(ctx, "update", len(updated))
	}
	if len(removed) > 0 {
		v.emit(event.Remove, event.Payload{Items: removed, OldData: remOld}, senderID)
		v.metrics.RecordViewChange(ctx, "remove", len(removed))
	}
}

// passes re-fetches id through the view's filter. A failed fetch counts as
// not passing.
func (v *View) passes(id ID) bool {
	item, err := v.Get(id)
	if err != nil {
		observability.LogRefetchError(v.logger, id, err)
		return false
	}
	return item != nil
}

func (v *View) has(id ID) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ids.Has(id)
}

// join adds id to the membership and reports whether it was new.
func (v *View) join(id ID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed || v.ids.Has(id) {
		return false
	}
	v.ids.Set(id, struct{}{})
	return true
}

// leave removes id from the membership and reports whether it was a member.
func (v *View) leave(id ID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return false
	}
	return v.ids.Delete(id)
}

func at(data []map[string]any, i int) map[string]any {
	if i < len(data) {
		return data[i]
	}
	return nil
}

// Dispose detaches the view from its upstream. Every later call that reads
// the upstream returns ErrDisposedView, as does a second Dispose.
func (v *View) Dispose() error {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return ErrDisposedView
	}
	v.disposed = true
	sub := v.sub
	v.sub = nil
	v.upstream = nil
	v.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	return nil
}

// source returns the upstream, or ErrDisposedView.
func (v *View) source() (Source, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.disposed {
		return nil, ErrDisposedView
	}
	return v.upstream, nil
}

// scoped returns the upstream and the caller's query with the view's filter
// ANDed in.
func (v *View) scoped(opts []QueryOption) (Source, QueryOption, error) {
	up, err := v.source()
	if err != nil {
		return nil, nil, err
	}
	q := buildQuery(opts)
	q.Filter = and(v.filter, q.Filter)
	return up, WithQueryOptions(q), nil
}

// Get returns the upstream item with the given id if it passes the view's
// filter and the caller's.
func (v *View) Get(id ID, opts ...QueryOption) (Item, error) {
	up, q, err := v.scoped(opts)
	if err != nil {
		return nil, err
	}
	return up.Get(id, q)
}

// GetMany returns the upstream items with the given ids that pass the
// filters.
func (v *View) GetMany(ids []ID, opts ...QueryOption) ([]Item, error) {
	up, q, err := v.scoped(opts)
	if err != nil {
		return nil, err
	}
	return up.GetMany(ids, q)
}

// GetAll returns every upstream item that passes the filters.
func (v *View) GetAll(opts ...QueryOption) ([]Item, error) {
	up, q, err := v.scoped(opts)
	if err != nil {
		return nil, err
	}
	return up.GetAll(q)
}

// GetMap returns the items passing the filters keyed by id.
func (v *View) GetMap(ids []ID, opts ...QueryOption) (map[ID]Item, error) {
	up, q, err := v.scoped(opts)
	if err != nil {
		return nil, err
	}
	return up.GetMap(ids, q)
}

// GetIDs returns the ids of the upstream items that pass the filters, or an
// empty slice when the upstream is empty.
func (v *View) GetIDs(opts ...QueryOption) ([]ID, error) {
	up, q, err := v.scoped(opts)
	if err != nil {
		return nil, err
	}
	if up.Length() == 0 {
		return []ID{}, nil
	}
	return up.GetIDs(q)
}

// ForEach calls fn for each upstream item that passes the filters.
func (v *View) ForEach(fn func(item Item, id ID), opts ...QueryOption) error {
	up, q, err := v.scoped(opts)
	if err != nil {
		return err
	}
	return up.ForEach(fn, q)
}

// Map collects fn's result for each upstream item that passes the filters.
func (v *View) Map(fn func(item Item, id ID) any, opts ...QueryOption) ([]any, error) {
	up, q, err := v.scoped(opts)
	if err != nil {
		return nil, err
	}
	return up.Map(fn, q)
}

// Stream streams the given ids from the upstream. Nil ids streams the view's
// membership in membership order, read when iteration starts.
func (v *View) Stream(ids []ID) (*stream.Stream[ID, Item], error) {
	up, err := v.source()
	if err != nil {
		return nil, err
	}
	if ids != nil {
		return up.Stream(ids)
	}
	return stream.New(func(yield func(ID, Item) bool) {
		v.mu.RLock()
		members := v.ids.Keys()
		v.mu.RUnlock()

		s, err := up.Stream(members)
		if err != nil {
			observability.LogRefetchError(v.logger, nil, err)
			return
		}
		for id, item := range s.All() {
			if !yield(id, item) {
				return
			}
		}
	}), nil
}

// DataSet returns the Store at the root of the view chain.
func (v *View) DataSet() (*Store, error) {
	up, err := v.source()
	if err != nil {
		return nil, err
	}
	return up.DataSet()
}

// Length returns the number of members. It keeps its last value after
// Dispose.
func (v *View) Length() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ids.Len()
}

// IDField returns the configured id field, or the upstream's.
func (v *View) IDField() string {
	if v.fieldID != "" {
		return v.fieldID
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.upstreamField
}

// On registers fn for the named event.
func (v *View) On(name event.Name, fn event.Listener) event.Subscription {
	return v.hub.On(name, fn)
}

// Off removes a registration made with On.
func (v *View) Off(sub event.Subscription) {
	v.hub.Off(sub)
}

func (v *View) emit(name event.Name, payload event.Payload, senderID any) {
	_ = v.hub.Trigger(name, payload, senderID)
}
