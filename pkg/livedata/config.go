package livedata

import (
	"fmt"
	"slices"
	"sort"

	"github.com/randalmurphal/livedata/pkg/livedata/config"
	"github.com/randalmurphal/livedata/pkg/livedata/convert"
	"github.com/randalmurphal/livedata/pkg/livedata/queue"
)

// OptionsFromConfig reads store options from cfg.
//
// Recognised keys:
//
//	name         string    label for logs and metrics
//	field_id     string    id field name
//	queue        bool      attach a queue
//	queue_delay  duration  inactivity flush delay (implies queue)
//	queue_max    int       pending-count flush threshold (implies queue)
//	types        map       field name to type name (deprecated)
//
// An unknown type name in types is an error wrapping convert.ErrUnknownType.
func OptionsFromConfig(cfg config.Config) ([]Option, error) {
	var opts []Option

	if name := cfg.String("name", ""); name != "" {
		opts = append(opts, WithName(name))
	}
	if field := cfg.String("field_id", ""); field != "" {
		opts = append(opts, WithFieldID(field))
	}

	if types := cfg.StringMap("types", nil); len(types) > 0 {
		known := convert.Types()
		fields := make([]string, 0, len(types))
		for field := range types {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			if !slices.Contains(known, types[field]) {
				return nil, fmt.Errorf("field %q: %w: %s", field, convert.ErrUnknownType, types[field])
			}
		}
		opts = append(opts, WithTypes(types))
	}

	var qopts []queue.Option
	if cfg.Has("queue_delay") {
		qopts = append(qopts, queue.WithDelay(cfg.Duration("queue_delay", queue.NoDelay)))
	}
	if cfg.Has("queue_max") {
		qopts = append(qopts, queue.WithMax(cfg.Int("queue_max", queue.Unbounded)))
	}
	if cfg.Bool("queue", false) || len(qopts) > 0 {
		opts = append(opts, WithQueue(qopts...))
	}
	return opts, nil
}

// ViewOptionsFromConfig reads view options from cfg.
//
// Recognised keys:
//
//	name      string  label for logs and spans
//	field_id  string  id field override
//	filter    string  filter expression, see FilterExpr
func ViewOptionsFromConfig(cfg config.Config) ([]ViewOption, error) {
	var opts []ViewOption

	if name := cfg.String("name", ""); name != "" {
		opts = append(opts, WithViewName(name))
	}
	if field := cfg.String("field_id", ""); field != "" {
		opts = append(opts, WithViewFieldID(field))
	}
	if expression := cfg.String("filter", ""); expression != "" {
		f, err := FilterExpr(expression)
		if err != nil {
			return nil, fmt.Errorf("view filter: %w", err)
		}
		opts = append(opts, WithViewFilter(f))
	}
	return opts, nil
}
