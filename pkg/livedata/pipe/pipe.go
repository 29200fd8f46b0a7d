// Package pipe forwards changes from a livedata Source into a Store,
// reshaping items on the way.
//
// A pipe is assembled with a builder and then attached to its target:
//
//	p := pipe.From(tasks).
//	    Filter(func(it livedata.Item) bool { return it["done"] != true }).
//	    Map(func(it livedata.Item) livedata.Item {
//	        return livedata.Item{"id": it["id"], "label": it["title"]}
//	    }).
//	    To(labels)
//
//	if err := p.All(); err != nil { // copy what is already there
//	    return err
//	}
//	p.Start() // follow later changes
//	defer p.Stop()
//
// Transforms run in the order they were added. They receive copies, so they
// may modify their input.
package pipe

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/randalmurphal/livedata/pkg/livedata"
	"github.com/randalmurphal/livedata/pkg/livedata/event"
	"github.com/randalmurphal/livedata/pkg/livedata/observability"
)

type transform func(items []livedata.Item) []livedata.Item

// Option configures a Pipe.
type Option func(*Builder)

// WithLogger sets the logger used to report forwarding failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// Builder collects transforms for a pipe under construction.
type Builder struct {
	source     livedata.Source
	transforms []transform
	logger     *slog.Logger
}

// From starts a pipe reading from source.
func From(source livedata.Source, opts ...Option) *Builder {
	b := &Builder{source: source}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Filter drops items for which keep returns false.
func (b *Builder) Filter(keep func(item livedata.Item) bool) *Builder {
	return b.then(func(items []livedata.Item) []livedata.Item {
		return slices.DeleteFunc(items, func(it livedata.Item) bool { return !keep(it) })
	})
}

// Map replaces each item with fn's result.
func (b *Builder) Map(fn func(item livedata.Item) livedata.Item) *Builder {
	return b.then(func(items []livedata.Item) []livedata.Item {
		for i, it := range items {
			items[i] = fn(it)
		}
		return items
	})
}

// FlatMap replaces each item with the items fn returns, in order.
func (b *Builder) FlatMap(fn func(item livedata.Item) []livedata.Item) *Builder {
	return b.then(func(items []livedata.Item) []livedata.Item {
		out := make([]livedata.Item, 0, len(items))
		for _, it := range items {
			out = append(out, fn(it)...)
		}
		return out
	})
}

func (b *Builder) then(t transform) *Builder {
	b.transforms = append(b.transforms, t)
	return b
}

// To finishes the pipe. The returned Pipe is idle until All or Start is
// called. Transforms added to the builder afterwards do not affect it.
func (b *Builder) To(target *livedata.Store) *Pipe {
	return &Pipe{
		source:     b.source,
		target:     target,
		transforms: slices.Clone(b.transforms),
		logger:     b.logger,
	}
}

// Pipe forwards source changes into a target store.
type Pipe struct {
	source     livedata.Source
	target     *livedata.Store
	transforms []transform
	logger     *slog.Logger

	mu   sync.Mutex
	subs []event.Subscription
}

// All pushes every current source item through the transforms and into the
// target with Update, so existing target items are overwritten.
func (p *Pipe) All() error {
	items, err := p.source.GetAll()
	if err != nil {
		return err
	}
	_, err = p.target.Update(p.apply(items), nil)
	return err
}

// Start subscribes to the source's add, update, and remove events. Calling
// Start on a running pipe does nothing.
func (p *Pipe) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.subs != nil {
		return
	}
	p.subs = []event.Subscription{
		p.source.On(event.Add, p.onAdd),
		p.source.On(event.Update, p.onUpdate),
		p.source.On(event.Remove, p.onRemove),
	}
}

// Stop unsubscribes from the source. The pipe may be started again.
func (p *Pipe) Stop() {
	p.mu.Lock()
	subs := p.subs
	p.subs = nil
	p.mu.Unlock()

	for _, sub := range subs {
		p.source.Off(sub)
	}
}

// Running reports whether the pipe is subscribed to its source.
func (p *Pipe) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subs != nil
}

func (p *Pipe) onAdd(_ event.Name, payload event.Payload, senderID any) {
	items, err := p.source.GetMany(payload.Items)
	if err == nil {
		_, err = p.target.Add(p.apply(items), senderID)
	}
	p.report(event.Add, err)
}

func (p *Pipe) onUpdate(_ event.Name, payload event.Payload, senderID any) {
	items, err := p.source.GetMany(payload.Items)
	if err == nil {
		_, err = p.target.Update(p.apply(items), senderID)
	}
	p.report(event.Update, err)
}

func (p *Pipe) onRemove(_ event.Name, payload event.Payload, senderID any) {
	old := slices.DeleteFunc(slices.Clone(payload.OldData), func(m map[string]any) bool { return m == nil })
	_, err := p.target.Remove(p.apply(old), senderID)
	p.report(event.Remove, err)
}

// report logs a failed forward.
func (p *Pipe) report(op event.Name, err error) {
	if err != nil {
		observability.LogPipeError(p.logger, string(op), err)
	}
}

// apply runs the transforms over copies of items.
func (p *Pipe) apply(items []livedata.Item) []livedata.Item {
	out := make([]livedata.Item, len(items))
	for i, it := range items {
		out[i] = maps.Clone(it)
	}
	for _, t := range p.transforms {
		out = t(out)
	}
	return out
}
