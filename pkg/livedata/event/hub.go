package event

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Name identifies a change notification.
type Name string

// Event names. Any subscribes to every event and cannot be triggered.
const (
	Add    Name = "add"
	Update Name = "update"
	Remove Name = "remove"
	Any    Name = "*"
)

// ErrInvalidEvent indicates Trigger was called with the wildcard or an
// unknown event name.
var ErrInvalidEvent = errors.New("invalid event name")

// Valid reports whether n is one of the four known names.
func (n Name) Valid() bool {
	switch n {
	case Add, Update, Remove, Any:
		return true
	default:
		return false
	}
}

// Payload describes one batch of changes. The slices are index-aligned:
// position i in each refers to the same item.
//
// Add payloads carry Items. Remove payloads carry Items and OldData. Update
// payloads carry Items, OldData, and the full new items in Data.
type Payload struct {
	Items   []any
	OldData []map[string]any
	Data    []map[string]any
}

// Listener receives events. senderID is whatever the mutating caller passed,
// or nil.
type Listener func(name Name, payload Payload, senderID any)

// Subscription represents an active registration.
type Subscription interface {
	// Unsubscribe removes the registration. Repeated calls are no-ops.
	Unsubscribe()

	// Pause temporarily stops delivery.
	Pause()

	// Resume continues delivery after pause.
	Resume()

	// IsPaused returns true if the subscription is paused.
	IsPaused() bool
}

// Hub dispatches events synchronously to listeners registered per name.
// The zero value is ready to use.
type Hub struct {
	mu     sync.RWMutex
	byName map[Name][]*subscription
	nextID uint64
}

type subscription struct {
	id       uint64
	name     Name
	listener Listener
	paused   atomic.Bool
	hub      *Hub
}

// On registers fn for the named event. A nil fn or an unknown name is
// ignored and the returned subscription does nothing.
func (h *Hub) On(name Name, fn Listener) Subscription {
	if fn == nil || !name.Valid() {
		return inert{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.byName == nil {
		h.byName = make(map[Name][]*subscription)
	}
	h.nextID++
	sub := &subscription{id: h.nextID, name: name, listener: fn, hub: h}
	h.byName[name] = append(h.byName[name], sub)
	return sub
}

// Off removes a registration returned by On. Unknown or already removed
// subscriptions are ignored.
func (h *Hub) Off(sub Subscription) {
	if sub == nil {
		return
	}
	sub.Unsubscribe()
}

// Trigger delivers payload to the listeners of name and then to the wildcard
// listeners, each in registration order. The listener lists are read once
// before delivery, so registrations made during dispatch take effect on the
// next trigger. A listener panic stops delivery and propagates.
func (h *Hub) Trigger(name Name, payload Payload, senderID any) error {
	if name == Any || !name.Valid() {
		return ErrInvalidEvent
	}

	h.mu.RLock()
	subs := make([]*subscription, 0, len(h.byName[name])+len(h.byName[Any]))
	subs = append(subs, h.byName[name]...)
	subs = append(subs, h.byName[Any]...)
	h.mu.RUnlock()

	for _, sub := range subs {
		if sub.paused.Load() {
			continue
		}
		sub.listener(name, payload, senderID)
	}
	return nil
}

// Count returns the number of listeners registered for name.
func (h *Hub) Count(name Name) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byName[name])
}

// Unsubscribe removes the subscription.
func (s *subscription) Unsubscribe() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.byName[s.name]
	for i, other := range subs {
		if other.id == s.id {
			// Copy so an in-flight Trigger keeps its snapshot intact.
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			h.byName[s.name] = next
			return
		}
	}
}

// Pause temporarily stops delivery.
func (s *subscription) Pause() {
	s.paused.Store(true)
}

// Resume continues delivery after pause.
func (s *subscription) Resume() {
	s.paused.Store(false)
}

// IsPaused returns true if the subscription is paused.
func (s *subscription) IsPaused() bool {
	return s.paused.Load()
}

type inert struct{}

func (inert) Unsubscribe()   {}
func (inert) Pause()         {}
func (inert) Resume()        {}
func (inert) IsPaused() bool { return false }
