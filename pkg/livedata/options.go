package livedata

import (
	"log/slog"
	"maps"

	"github.com/randalmurphal/livedata/pkg/livedata/observability"
	"github.com/randalmurphal/livedata/pkg/livedata/queue"
)

// storeConfig holds configuration for a Store.
type storeConfig struct {
	name      string
	fieldID   string
	types     map[string]string
	queue     bool
	queueOpts []queue.Option
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
}

func defaultStoreConfig() storeConfig {
	return storeConfig{
		fieldID: DefaultFieldID,
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a Store.
type Option func(*storeConfig)

// WithName labels the store in logs and metrics.
func WithName(name string) Option {
	return func(c *storeConfig) {
		c.name = name
	}
}

// WithFieldID sets the name of the id field. Default: "id".
func WithFieldID(field string) Option {
	return func(c *storeConfig) {
		if field != "" {
			c.fieldID = field
		}
	}
}

// WithTypes converts the named fields on every write and read.
//
// Deprecated: convert values before adding them, for example with a pipe.
// Date, ISODate, and ASPDate fields are all stored as time.Time and rendered
// in their declared form on reads.
func WithTypes(types map[string]string) Option {
	return func(c *storeConfig) {
		c.types = maps.Clone(types)
	}
}

// WithQueue fronts Add, Update, and Remove with a queue. The queue is
// attached after the initial items are added.
func WithQueue(opts ...queue.Option) Option {
	return func(c *storeConfig) {
		c.queue = true
		c.queueOpts = append(c.queueOpts, opts...)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *storeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records mutation counts and batch sizes.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *storeConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager traces queue flushes of the store's queue.
func WithSpanManager(s observability.SpanManager) Option {
	return func(c *storeConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// Filter selects items.
type Filter func(item Item) bool

// Comparator orders two items: negative when a sorts first, positive when b
// does, zero when equal.
type Comparator func(a, b Item) int

// QueryOptions shapes the result of a read.
type QueryOptions struct {
	// Fields keeps only the named fields of each item.
	Fields []string

	// Filter drops items it returns false for.
	Filter Filter

	// Order is a field name (ascending) or a Comparator. Ignored when a
	// single id is fetched.
	Order any

	// Types converts the named fields of each item before filtering.
	//
	// Deprecated: see WithTypes.
	Types map[string]string
}

// QueryOption configures a read.
type QueryOption func(*QueryOptions)

// WithFields keeps only the named fields.
func WithFields(fields ...string) QueryOption {
	return func(o *QueryOptions) {
		o.Fields = fields
	}
}

// WithFilter sets the item filter.
func WithFilter(f Filter) QueryOption {
	return func(o *QueryOptions) {
		o.Filter = f
	}
}

// WithOrder sorts by a field name or a Comparator.
func WithOrder(order any) QueryOption {
	return func(o *QueryOptions) {
		o.Order = order
	}
}

// WithQueryTypes converts fields for this read only.
//
// Deprecated: see WithTypes.
func WithQueryTypes(types map[string]string) QueryOption {
	return func(o *QueryOptions) {
		o.Types = types
	}
}

// WithQueryOptions replaces every setting with those in opts.
func WithQueryOptions(opts QueryOptions) QueryOption {
	return func(o *QueryOptions) {
		*o = opts
	}
}

func buildQuery(opts []QueryOption) QueryOptions {
	var o QueryOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// and returns a filter passing items both a and b pass. Nil filters pass
// everything.
func and(a, b Filter) Filter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return func(item Item) bool { return a(item) && b(item) }
	}
}
