package livedata

import (
	"cmp"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/livedata/pkg/livedata/convert"
)

// comparatorFor resolves an order option.
func comparatorFor(order any) (Comparator, error) {
	switch o := order.(type) {
	case nil:
		return nil, nil
	case string:
		if o == "" {
			return nil, ErrInvalidOrder
		}
		return func(a, b Item) int { return compareValues(a[o], b[o]) }, nil
	case Comparator:
		if o == nil {
			return nil, ErrInvalidOrder
		}
		return o, nil
	case func(a, b Item) int:
		if o == nil {
			return nil, ErrInvalidOrder
		}
		return o, nil
	default:
		return nil, ErrInvalidOrder
	}
}

// sortEntries orders entries stably with cmpFn.
func sortEntries(entries []entry, cmpFn Comparator) {
	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmpFn(a.item, b.item)
	})
}

// compareValues orders two field values ascending. Numbers compare
// numerically, strings lexically, times chronologically, and false sorts
// before true. Mixed or unordered kinds compare equal.
func compareValues(a, b any) int {
	if fa, ok := convert.Float(a); ok {
		if fb, ok := convert.Float(b); ok {
			return cmp.Compare(fa, fb)
		}
		return 0
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	return 0
}

// looseEqual reports whether two field values are the same for distinct.
// Numbers compare numerically, a numeric string equals its number, and a bool
// equals 0 or 1. Values of other kinds must be equal comparable values.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	if fa, ok := looseNumber(a); ok {
		if fb, ok := looseNumber(b); ok {
			return fa == fb
		}
		return false
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func looseNumber(v any) (float64, bool) {
	if f, ok := convert.Float(v); ok {
		return f, true
	}
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
