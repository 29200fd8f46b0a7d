// Package convert coerces item field values to named types.
//
// The built-in type names are boolean, number, string, Date, Moment, ISODate
// and ASPDate (plus the capitalised Boolean, Number and String). Date and
// Moment both produce a time.Time. ISODate produces an RFC 3339 string in UTC
// with millisecond precision. ASPDate produces the "/Date(ms)/" string form.
//
// Additional names can be registered with Register.
package convert

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/randalmurphal/livedata/pkg/livedata/registry"
)

// Converter turns a non-nil value into the representation of one type name.
type Converter func(value any) (any, error)

var (
	// ErrConversion is matched by every error Convert returns.
	ErrConversion = errors.New("conversion failed")

	// ErrUnknownType indicates no converter is registered under the type name.
	ErrUnknownType = errors.New("unknown conversion type")
)

// ConversionError describes a value that could not be converted.
type ConversionError struct {
	Value  any
	Type   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %T to %s: %s", e.Value, e.Type, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is reports true for ErrConversion so every ConversionError matches it.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// ISOLayout is the layout used for ISODate output.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// aspDate matches "/Date(1198908717056)/" and "/Date(1198908717056-0700)/".
var aspDate = regexp.MustCompile(`(?i)^/?Date\((-?\d+)`)

var converters = registry.New[string, Converter]()

func init() {
	converters.RegisterMany(map[string]Converter{
		"boolean": toBoolean,
		"number":  toNumber,
		"string":  toString,
		"Date":    toDate,
		"Moment":  toDate,
		"ISODate": toISODate,
		"ASPDate": toASPDate,
	})
	converters.Alias("Boolean", "boolean")
	converters.Alias("Number", "number")
	converters.Alias("String", "string")
}

// Register installs or replaces the converter for a type name.
func Register(name string, c Converter) {
	converters.Register(name, c)
}

// Types returns every registered type name in sorted order.
func Types() []string {
	return converters.Keys()
}

// Convert coerces value to the named type. A nil value converts to nil and an
// empty type name returns the value unchanged.
func Convert(value any, typeName string) (any, error) {
	if value == nil {
		return nil, nil
	}
	if typeName == "" {
		return value, nil
	}

	c, ok := converters.Get(typeName)
	if !ok {
		return nil, &ConversionError{Value: value, Type: typeName, Reason: "unknown type", Err: ErrUnknownType}
	}

	out, err := c(value)
	if err != nil {
		var ce *ConversionError
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, &ConversionError{Value: value, Type: typeName, Reason: err.Error(), Err: err}
	}
	return out, nil
}

// StorageType maps a declared field type to the type values are stored as.
// The date-like names are all stored as Date.
func StorageType(typeName string) string {
	switch typeName {
	case "Date", "ISODate", "ASPDate":
		return "Date"
	default:
		return typeName
	}
}

// Float returns v as a float64 when v is one of Go's numeric kinds.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int8, int16, int32, uint, uint8, uint16, uint32, uint64, uintptr, float32:
		rv := reflect.ValueOf(v)
		switch {
		case rv.CanInt():
			return float64(rv.Int()), true
		case rv.CanUint():
			return float64(rv.Uint()), true
		default:
			return rv.Float(), true
		}
	default:
		return 0, false
	}
}

func toBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return v != "", nil
	}
	if f, ok := Float(value); ok {
		return f != 0 && !math.IsNaN(f), nil
	}
	return true, nil
}

func toNumber(value any) (any, error) {
	if f, ok := Float(value); ok {
		return f, nil
	}
	switch v := value.(type) {
	case bool:
		if v {
			return float64(1), nil
		}
		return float64(0), nil
	case time.Time:
		return float64(v.UnixMilli()), nil
	case string:
		s := strings.TrimSpace(v)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
		if t, err := dateparse.ParseAny(s); err == nil {
			return float64(t.UnixMilli()), nil
		}
		return nil, fmt.Errorf("%q is neither numeric nor a date", v)
	}
	return nil, errors.New("unsupported value")
}

func toString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	}
	return fmt.Sprint(value), nil
}

func toDate(value any) (any, error) {
	t, err := toTime(value)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func toISODate(value any) (any, error) {
	t, err := toTime(value)
	if err != nil {
		return nil, err
	}
	return t.UTC().Format(ISOLayout), nil
}

func toASPDate(value any) (any, error) {
	t, err := toTime(value)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("/Date(%d)/", t.UnixMilli()), nil
}

// toTime accepts Unix milliseconds, a time.Time, an ASP.NET date string, a
// numeric string of Unix milliseconds, or any date string dateparse accepts.
func toTime(value any) (time.Time, error) {
	if f, ok := Float(value); ok {
		return time.UnixMilli(int64(f)), nil
	}
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if m := aspDate.FindStringSubmatch(s); m != nil {
			ms, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return time.Time{}, err
			}
			return time.UnixMilli(ms), nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms), nil
		}
		t, err := dateparse.ParseAny(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable date %q", v)
		}
		return t, nil
	}
	return time.Time{}, errors.New("unsupported value")
}
