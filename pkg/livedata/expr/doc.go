/*
Package expr evaluates boolean filter expressions against items.

# Overview

expr implements a small expression language used to describe view and query
filters in configuration files, where a Go func cannot be written. An
expression is evaluated against one item, and field names resolve to the
item's values.

# Expression Syntax

	<expr> := <comparison>
	        | <expr> 'and' <expr>
	        | <expr> 'or' <expr>
	        | 'not' <expr>
	        | '!' <expr>
	        | <value>

	<comparison> := <value> <op> <value>
	<op> := '==' | '!=' | '<' | '>' | '<=' | '>=' | 'contains'
	<value> := 'string' | "string" | number | true | false | null | field

Operators are only recognised outside quotes, so 'rock and roll' is a single
string literal.

# Operators

	==         Equal. Numbers compare numerically, so 1 == 1.0; other values
	           compare by their printed form.
	!=         Not equal.
	<  >       Ordering. Numbers compare numerically and strings lexically.
	<= >=      Mixed kinds never satisfy an ordering.
	contains   Printed left value contains printed right value.
	and, or    Logical connectives.
	not, !     Logical negation (prefix).

# Fields

A bare word is looked up in the item. A dotted word such as owner.name is
looked up as a flat key first and then as a path through nested maps. A word
that resolves to nothing is treated as a string literal.

# Examples

	vars := map[string]any{"status": "open", "priority": 3}
	ok, _ := expr.Eval("status == 'open' and priority >= 2", vars) // true

	pred, err := expr.Compile("owner.name contains 'ann'")
	if err != nil {
	    return err
	}
	pred(map[string]any{"owner": map[string]any{"name": "joanna"}}) // true

# Custom Operators

	e := expr.New(
	    expr.WithCustomOperator("matches", func(left, right any) bool {
	        matched, _ := regexp.MatchString(fmt.Sprint(right), fmt.Sprint(left))
	        return matched
	    }),
	)

# Truthiness

A lone value is true unless it is nil, false, an empty string, or a zero
number.
*/
package expr
