package expr

import (
	"fmt"
	"strings"
)

// Compare compares two values using the specified operator.
// Returns an error for unknown operators.
func Compare(left, right any, op string) (bool, error) {
	if op == "contains" {
		return contains(left, right), nil
	}
	for _, b := range builtinOps {
		if b.op == op {
			return b.compare(left, right), nil
		}
	}
	return false, fmt.Errorf("unknown operator: %s", op)
}

// Equal reports whether two values are equal. Numbers, including numeric
// strings, compare numerically; nil equals only nil; anything else compares
// by its printed form.
func Equal(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if l, ok := toNumber(left); ok {
		if r, ok := toNumber(right); ok {
			return l == r
		}
	}
	return fmt.Sprint(left) == fmt.Sprint(right)
}

// order compares two values numerically or, for two strings, lexically.
// ok is false for any other combination.
func order(left, right any) (c int, ok bool) {
	if l, ok := toNumber(left); ok {
		if r, ok := toNumber(right); ok {
			switch {
			case l < r:
				return -1, true
			case l > r:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		return strings.Compare(ls, rs), true
	}
	return 0, false
}

func contains(left, right any) bool {
	if left == nil {
		return false
	}
	return strings.Contains(fmt.Sprint(left), fmt.Sprint(right))
}
