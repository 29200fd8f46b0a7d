package livedata

import (
	"math"

	"github.com/google/uuid"

	"github.com/randalmurphal/livedata/pkg/livedata/convert"
)

// ID identifies an item within a store. Valid ids are strings and Go numeric
// values; see NormalizeID.
type ID = any

// Item is a schema-free record. One field, named by the store's id field,
// holds its ID.
type Item = map[string]any

// DefaultFieldID is the id field name used when none is configured.
const DefaultFieldID = "id"

// NormalizeID returns the canonical form of an id and whether v is a valid
// id. Integral numbers of any numeric type become int, other numbers become
// float64, and strings are returned unchanged. So 1, int64(1), and 1.0 all
// name the same item.
func NormalizeID(v any) (ID, bool) {
	switch id := v.(type) {
	case nil:
		return nil, false
	case string:
		return id, true
	case int:
		return id, true
	}

	f, ok := convert.Float(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		if n, ok := v.(int64); ok {
			return int(n), true
		}
		return int(f), true
	}
	return f, true
}

func newID() ID {
	return uuid.New().String()
}

// itemID extracts and normalises the id of item. present is false when the
// field is absent or nil.
func itemID(item Item, field string) (id ID, present bool, err error) {
	raw, ok := item[field]
	if !ok || raw == nil {
		return nil, false, nil
	}
	id, ok = NormalizeID(raw)
	if !ok {
		return nil, true, invalidArgument("unsupported id type %T", raw)
	}
	return id, true, nil
}
