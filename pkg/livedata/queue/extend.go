package queue

import (
	"fmt"
	"sync"
)

// Target is an object whose operations are looked up by name, so a Queue can
// intercept them.
type Target interface {
	Method(name string) (Func, bool)
	SetMethod(name string, fn Func)
	DeleteMethod(name string)
}

// Methods is a concurrency-safe dispatch table implementing Target.
type Methods struct {
	mu  sync.RWMutex
	fns map[string]Func
}

// NewMethods creates a table holding a copy of fns.
func NewMethods(fns map[string]Func) *Methods {
	m := &Methods{fns: make(map[string]Func, len(fns))}
	for k, v := range fns {
		m.fns[k] = v
	}
	return m
}

// Method returns the function registered under name.
func (m *Methods) Method(name string) (Func, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.fns[name]
	return fn, ok
}

// SetMethod registers fn under name.
func (m *Methods) SetMethod(name string, fn Func) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fns[name] = fn
}

// DeleteMethod removes name.
func (m *Methods) DeleteMethod(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fns, name)
}

// Call invokes the function registered under name.
func (m *Methods) Call(name string, args ...any) (any, error) {
	fn, ok := m.Method(name)
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrMethodUndefined, name)
	}
	return fn(args...)
}

// Extend creates a queue that intercepts the named methods of target.
//
// Target gains a flush method that flushes the queue, and each method in
// replace is swapped for a wrapper that queues the call with the original
// function and returns (nil, nil). Extend fails without modifying target if
// target already has a flush method or a named method is missing.
func Extend(target Target, replace []string, opts ...Option) (*Queue, error) {
	if _, ok := target.Method("flush"); ok {
		return nil, ErrFlushExists
	}
	for _, name := range replace {
		if fn, ok := target.Method(name); !ok || fn == nil {
			return nil, fmt.Errorf("%w: %s", ErrMethodUndefined, name)
		}
	}

	q := New(opts...)
	target.SetMethod("flush", func(...any) (any, error) {
		return nil, q.Flush()
	})

	ext := &extension{
		target:  target,
		methods: []replaced{{name: "flush"}},
	}
	for _, name := range replace {
		original, _ := target.Method(name)
		ext.methods = append(ext.methods, replaced{name: name, original: original})
		// Validated above.
		_ = q.Replace(target, name)
	}

	q.mu.Lock()
	q.extended = ext
	q.mu.Unlock()
	return q, nil
}

// Replace swaps the named method of target for a wrapper that queues calls on
// q. The original is not recorded for Destroy; use Extend for that.
func (q *Queue) Replace(target Target, name string) error {
	original, ok := target.Method(name)
	if !ok || original == nil {
		return fmt.Errorf("%w: %s", ErrMethodUndefined, name)
	}
	target.SetMethod(name, func(args ...any) (any, error) {
		return nil, q.Queue(Entry{Fn: original, Args: args})
	})
	return nil
}
