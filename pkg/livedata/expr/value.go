package expr

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/randalmurphal/livedata/pkg/livedata/convert"
	"github.com/randalmurphal/livedata/pkg/livedata/merge"
)

// Resolve resolves a token to a literal or to a value of item.
// It handles quoted strings, booleans, null, numbers, and field lookups,
// including dotted paths into nested maps.
func Resolve(s string, item map[string]any) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null", "nil":
		return nil
	}

	// json.Number rejects forms like "1e" and "0x1" that strconv accepts.
	var num json.Number
	if err := json.Unmarshal([]byte(s), &num); err == nil {
		if i, err := num.Int64(); err == nil {
			return i
		}
		if f, err := num.Float64(); err == nil {
			return f
		}
	}

	if val, ok := merge.Path(item, s); ok {
		return val
	}

	// Unknown identifiers are string literals.
	return s
}

// IsTruthy returns whether a value is truthy.
// nil is false, bools return their value, empty strings are false,
// zero numbers are false, everything else is true.
func IsTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	}
	if f, ok := convert.Float(v); ok {
		return f != 0
	}
	return true
}

// ToFloat64 converts a value to float64 for numeric comparison.
// Returns 0 for values that cannot be converted.
func ToFloat64(v any) float64 {
	f, _ := toNumber(v)
	return f
}

func toNumber(v any) (float64, bool) {
	if f, ok := convert.Float(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}
