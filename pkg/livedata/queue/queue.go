package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/livedata/pkg/livedata/observability"
)

// Sentinel errors for queue decoration.
var (
	// ErrFlushExists indicates Extend was given a target that already has a
	// flush method.
	ErrFlushExists = errors.New("target already has a flush method")

	// ErrMethodUndefined indicates a method named for replacement does not exist.
	ErrMethodUndefined = errors.New("method undefined")

	// ErrNilFunc indicates an entry without a function was queued.
	ErrNilFunc = errors.New("queued entry has no function")
)

// Unbounded disables the count threshold.
const Unbounded = -1

// NoDelay disables the inactivity timer.
const NoDelay time.Duration = -1

// Func is a queueable call.
type Func func(args ...any) (any, error)

// Entry is one pending call.
type Entry struct {
	Fn   Func
	Args []any
}

type config struct {
	delay   time.Duration
	max     int
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

func defaultConfig() config {
	return config{
		delay:   NoDelay,
		max:     Unbounded,
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a Queue.
type Option func(*config)

// WithDelay flushes after d of inactivity. Every queued call or option change
// restarts the wait. A negative d disables the timer.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		if d < 0 {
			d = NoDelay
		}
		c.delay = d
	}
}

// WithMax flushes inline as soon as more than n calls are pending.
// A negative n removes the threshold.
func WithMax(n int) Option {
	return func(c *config) {
		if n < 0 {
			n = Unbounded
		}
		c.max = n
	}
}

// WithLogger sets the logger for flush failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records flush counts, sizes, and latency.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager wraps each flush in a span.
func WithSpanManager(s observability.SpanManager) Option {
	return func(c *config) {
		if s != nil {
			c.spans = s
		}
	}
}

// Queue buffers calls and replays them in FIFO order on Flush.
//
// A flush happens inline when the pending count exceeds the configured max,
// and on a timer after the configured delay of inactivity. Timer flushes run
// on their own goroutine.
type Queue struct {
	mu       sync.Mutex
	cfg      config
	pending  []Entry
	timer    *time.Timer
	extended *extension
}

type extension struct {
	target  Target
	methods []replaced
}

type replaced struct {
	name     string
	original Func
}

// New creates a queue with the given options.
func New(opts ...Option) *Queue {
	q := &Queue{cfg: defaultConfig()}
	for _, opt := range opts {
		opt(&q.cfg)
	}
	return q
}

// SetOptions applies opts and re-checks the flush conditions. Settings not
// named by opts are unchanged.
func (q *Queue) SetOptions(opts ...Option) error {
	q.mu.Lock()
	for _, opt := range opts {
		opt(&q.cfg)
	}
	q.mu.Unlock()
	return q.flushIfNeeded()
}

// Delay returns the inactivity delay, or NoDelay.
func (q *Queue) Delay() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cfg.delay
}

// Max returns the count threshold, or Unbounded.
func (q *Queue) Max() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cfg.max
}

// Queue appends an entry and re-checks the flush conditions. The returned
// error comes from an inline flush, if one ran.
func (q *Queue) Queue(e Entry) error {
	if e.Fn == nil {
		return ErrNilFunc
	}
	q.mu.Lock()
	q.pending = append(q.pending, e)
	q.mu.Unlock()
	return q.flushIfNeeded()
}

// QueueFunc queues a call with no arguments or result.
func (q *Queue) QueueFunc(fn func()) error {
	if fn == nil {
		return ErrNilFunc
	}
	return q.Queue(Entry{Fn: func(...any) (any, error) {
		fn()
		return nil, nil
	}})
}

// Pending returns the number of calls waiting for a flush.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) flushIfNeeded() error {
	q.mu.Lock()
	over := q.cfg.max != Unbounded && len(q.pending) > q.cfg.max
	q.mu.Unlock()

	var err error
	if over {
		err = q.Flush()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if q.cfg.delay != NoDelay && len(q.pending) > 0 {
		q.timer = time.AfterFunc(q.cfg.delay, q.onTimer)
	}
	return err
}

func (q *Queue) onTimer() {
	// Failures are already logged per entry by Flush.
	_ = q.Flush()
}

// Flush runs every call pending at the moment it is invoked. Calls queued
// while it runs wait for the next flush. Every entry runs even if earlier
// ones fail; the failures are returned joined.
func (q *Queue) Flush() error {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	cfg := q.cfg
	q.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	ctx, span := cfg.spans.StartFlushSpan(context.Background(), len(batch))
	done := observability.TimedOperation()
	start := time.Now()

	var errs []error
	for i, e := range batch {
		if _, err := e.Fn(e.Args...); err != nil {
			observability.LogFlushError(cfg.logger, i, err)
			cfg.spans.AddSpanEvent(ctx, "entry.failed",
				attribute.Int("index", i),
				attribute.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("queued call %d: %w", i, err))
		}
	}

	err := errors.Join(errs...)
	cfg.metrics.RecordQueueFlush(ctx, len(batch), time.Since(start), err)
	cfg.spans.EndSpanWithError(span, err)
	observability.LogFlush(cfg.logger, len(batch), done())
	return err
}

// Destroy flushes pending calls and, for a queue created by Extend, restores
// the target's replaced methods and removes its flush method.
func (q *Queue) Destroy() error {
	err := q.Flush()

	q.mu.Lock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	ext := q.extended
	q.extended = nil
	q.mu.Unlock()

	if ext != nil {
		for _, m := range ext.methods {
			if m.original != nil {
				ext.target.SetMethod(m.name, m.original)
			} else {
				ext.target.DeleteMethod(m.name)
			}
		}
	}
	return err
}
