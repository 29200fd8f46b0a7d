package livedata

import (
	"github.com/randalmurphal/livedata/pkg/livedata/expr"
)

// FilterExpr compiles a filter expression such as "done == false and
// priority > 2" into a Filter. See package expr for the syntax.
func FilterExpr(expression string, opts ...expr.Option) (Filter, error) {
	pred, err := expr.New(opts...).Compile(expression)
	if err != nil {
		return nil, err
	}
	return Filter(pred), nil
}
