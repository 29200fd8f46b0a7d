package expr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for malformed expressions.
var (
	// ErrEmptyExpression indicates an expression with no content.
	ErrEmptyExpression = errors.New("empty expression")

	// ErrMissingOperand indicates an operator with nothing on one side.
	ErrMissingOperand = errors.New("missing operand")

	// ErrUnterminatedQuote indicates a string literal without its closing quote.
	ErrUnterminatedQuote = errors.New("unterminated quote")
)

// BinaryOp is a function that compares two values and returns a boolean result.
type BinaryOp func(left, right any) bool

// Predicate reports whether an item satisfies a compiled expression.
type Predicate func(item map[string]any) bool

// Evaluator evaluates boolean expressions with optional custom operators.
type Evaluator struct {
	customOps map[string]BinaryOp
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCustomOperator registers a custom binary operator. Custom operators are
// words and must be surrounded by spaces in an expression.
func WithCustomOperator(name string, fn BinaryOp) Option {
	return func(e *Evaluator) {
		if e.customOps == nil {
			e.customOps = make(map[string]BinaryOp)
		}
		e.customOps[name] = fn
	}
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate evaluates expr against item. An empty expression is false.
func (e *Evaluator) Evaluate(expr string, item map[string]any) (bool, error) {
	if err := checkQuotes(expr); err != nil {
		return false, err
	}
	return e.evaluateCondition(expr, item)
}

// Validate reports whether expr is well formed.
func (e *Evaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return ErrEmptyExpression
	}
	_, err := e.Evaluate(expr, nil)
	return err
}

// Compile validates expr and returns a predicate evaluating it.
func (e *Evaluator) Compile(expr string) (Predicate, error) {
	if err := e.Validate(expr); err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}
	return func(item map[string]any) bool {
		// Validated above, so evaluation cannot fail.
		ok, _ := e.evaluateCondition(expr, item)
		return ok
	}, nil
}

// Eval evaluates expr using the default evaluator.
func Eval(expr string, item map[string]any) (bool, error) {
	return New().Evaluate(expr, item)
}

// Compile compiles expr using the default evaluator.
func Compile(expr string) (Predicate, error) {
	return New().Compile(expr)
}

type builtin struct {
	op      string
	compare BinaryOp
}

// Longer operators come first so ">=" is not read as ">".
var builtinOps = []builtin{
	{"==", Equal},
	{"!=", func(l, r any) bool { return !Equal(l, r) }},
	{">=", func(l, r any) bool { c, ok := order(l, r); return ok && c >= 0 }},
	{"<=", func(l, r any) bool { c, ok := order(l, r); return ok && c <= 0 }},
	{">", func(l, r any) bool { c, ok := order(l, r); return ok && c > 0 }},
	{"<", func(l, r any) bool { c, ok := order(l, r); return ok && c < 0 }},
	{" contains ", contains},
}

func (e *Evaluator) evaluateCondition(expr string, item map[string]any) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false, nil
	}

	if strings.HasPrefix(expr, "not ") {
		result, err := e.evaluateCondition(strings.TrimPrefix(expr, "not "), item)
		return !result, err
	}
	if strings.HasPrefix(expr, "!") && !strings.HasPrefix(expr, "!=") {
		result, err := e.evaluateCondition(strings.TrimPrefix(expr, "!"), item)
		return !result, err
	}

	if left, right, ok := cut(expr, " and "); ok {
		return e.logical(left, right, item, func(a, b bool) bool { return a && b })
	}
	if left, right, ok := cut(expr, " or "); ok {
		return e.logical(left, right, item, func(a, b bool) bool { return a || b })
	}

	for _, b := range builtinOps {
		if left, right, ok := cut(expr, b.op); ok {
			return compareOperands(b.op, left, right, item, b.compare)
		}
	}
	for name, fn := range e.customOps {
		if left, right, ok := cut(expr, " "+name+" "); ok {
			return compareOperands(name, left, right, item, fn)
		}
	}

	return IsTruthy(Resolve(expr, item)), nil
}

func (e *Evaluator) logical(left, right string, item map[string]any, combine func(a, b bool) bool) (bool, error) {
	if strings.TrimSpace(left) == "" || strings.TrimSpace(right) == "" {
		return false, ErrMissingOperand
	}
	l, err := e.evaluateCondition(left, item)
	if err != nil {
		return false, err
	}
	r, err := e.evaluateCondition(right, item)
	if err != nil {
		return false, err
	}
	return combine(l, r), nil
}

func compareOperands(op, left, right string, item map[string]any, fn BinaryOp) (bool, error) {
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if left == "" || right == "" {
		return false, fmt.Errorf("%w for %s", ErrMissingOperand, strings.TrimSpace(op))
	}
	return fn(Resolve(left, item), Resolve(right, item)), nil
}

// cut splits s around the first sep that is not inside a quoted string.
func cut(s, sep string) (before, after string, found bool) {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case strings.HasPrefix(s[i:], sep):
			return s[:i], s[i+len(sep):], true
		}
	}
	return s, "", false
}

func checkQuotes(s string) error {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		}
	}
	if quote != 0 {
		return ErrUnterminatedQuote
	}
	return nil
}
