// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package ast holds the grammar of symptom rule expressions and the parser
// producing their syntax trees. Parsing is purely syntactic: whether a metric
// exists, or whether a quantifier is applied to a list-valued metric, is
// checked by the semantic pass at compile time (see pkg/health/eval).
package ast

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle"
	"github.com/alecthomas/participle/lexer"
)

// The Window token must be listed before Number so that `5min` does not lex
// as the number 5 followed by the identifier min.
var ruleLexer = lexer.Must(lexer.Regexp(
	`(\s+)` +
		`|(?P<Window>\d+min)` +
		`|(?P<Number>-?\d+(?:\.\d+)?)` +
		`|(?P<Ident>[A-Za-z_][A-Za-z0-9_]*)` +
		`|(?P<String>"[^"]*"|'[^']*')` +
		`|(?P<Operator>[<>=!&|^~%*/+]+|[()])`,
))

var ruleParser = participle.MustBuild(&Rule{},
	participle.Lexer(ruleLexer),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Rule is the root of a parsed symptom expression
type Rule struct {
	Pos  lexer.Position
	Expr *Expression `parser:"@@"`
}

// Expression is a disjunction; OR binds loosest
type Expression struct {
	Pos   lexer.Position
	First *AndExpression   `parser:"@@"`
	Rest  []*AndExpression `parser:"( ( 'OR' | 'or' | '||' ) @@ )*"`
}

// AndExpression is a conjunction; AND binds tighter than OR
type AndExpression struct {
	Pos   lexer.Position
	First *Term   `parser:"@@"`
	Rest  []*Term `parser:"( ( 'AND' | 'and' | '&&' ) @@ )*"`
}

// Term is a single operand of a conjunction: a window predicate, a
// quantifier, a parenthesized sub-expression or a plain comparison.
type Term struct {
	Pos        lexer.Position
	Window     *WindowExpression     `parser:"@@"`
	Quantifier *QuantifierExpression `parser:"| @@"`
	Sub        *Expression           `parser:"| '(' @@ ')'"`
	Comparison *Comparison           `parser:"| @@"`
}

// WindowExpression requires its inner expression to have been continuously
// true over a trailing duration, e.g. `5min(bm_mem_swap_pct > 80)`
type WindowExpression struct {
	Pos      lexer.Position
	Duration string      `parser:"@Window"`
	Expr     *Expression `parser:"'(' @@ ')'"`
}

// Minutes returns the window length in minutes
func (w *WindowExpression) Minutes() int {
	n, _ := strconv.Atoi(strings.TrimSuffix(w.Duration, "min"))
	return n
}

// QuantifierExpression reduces a list-valued metric to a boolean, e.g.
// `all(bm_cpu_user_time > 95)`
type QuantifierExpression struct {
	Pos  lexer.Position
	Op   string      `parser:"@( 'any' | 'all' )"`
	Expr *Expression `parser:"'(' @@ ')'"`
}

// Comparison compares a metric's current value with a literal
type Comparison struct {
	Pos    lexer.Position
	Metric string   `parser:"@Ident"`
	Op     string   `parser:"@( '>=' | '<=' | '==' | '!=' | '>' | '<' )"`
	Value  *Literal `parser:"@@"`
}

// Literal is a numeric or string constant
type Literal struct {
	Pos    lexer.Position
	Number *float64 `parser:"@Number"`
	Str    *string  `parser:"| @String"`
}

// ParseRule parses a symptom rule expression into its syntax tree. It returns
// an *ErrSyntax carrying position and reason on malformed input, and an
// *ErrUnknownOperator when the input uses an operator outside the grammar.
func ParseRule(expr string) (*Rule, error) {
	rule := &Rule{}
	if err := ruleParser.ParseString(expr, rule); err != nil {
		if opErr := findUnknownOperator(expr); opErr != nil {
			return nil, opErr
		}
		return nil, newSyntaxError(expr, err)
	}
	return rule, nil
}

func (r *Rule) String() string { return r.Expr.String() }

func (e *Expression) String() string {
	parts := make([]string, 0, 1+len(e.Rest))
	parts = append(parts, e.First.String())
	for _, and := range e.Rest {
		parts = append(parts, and.String())
	}
	return strings.Join(parts, " OR ")
}

func (a *AndExpression) String() string {
	parts := make([]string, 0, 1+len(a.Rest))
	parts = append(parts, a.First.String())
	for _, term := range a.Rest {
		parts = append(parts, term.String())
	}
	return strings.Join(parts, " AND ")
}

func (t *Term) String() string {
	switch {
	case t.Window != nil:
		return t.Window.String()
	case t.Quantifier != nil:
		return t.Quantifier.String()
	case t.Sub != nil:
		return "(" + t.Sub.String() + ")"
	default:
		return t.Comparison.String()
	}
}

func (w *WindowExpression) String() string {
	return w.Duration + "(" + w.Expr.String() + ")"
}

func (q *QuantifierExpression) String() string {
	return q.Op + "(" + q.Expr.String() + ")"
}

func (c *Comparison) String() string {
	return c.Metric + " " + c.Op + " " + c.Value.String()
}

func (l *Literal) String() string {
	if l.Number != nil {
		return strconv.FormatFloat(*l.Number, 'g', -1, 64)
	}
	return strconv.Quote(*l.Str)
}
