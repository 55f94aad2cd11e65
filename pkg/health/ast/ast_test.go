// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComparison(t *testing.T) {
	rule, err := ParseRule("bm_mem_swap_pct > 80")
	require.NoError(t, err)

	cmp := rule.Expr.First.First.Comparison
	require.NotNil(t, cmp)
	assert.Equal(t, "bm_mem_swap_pct", cmp.Metric)
	assert.Equal(t, ">", cmp.Op)
	require.NotNil(t, cmp.Value.Number)
	assert.Equal(t, 80.0, *cmp.Value.Number)
}

func TestParseNegativeNumber(t *testing.T) {
	rule, err := ParseRule("bm_sensors_temp_max > -10.5")
	require.NoError(t, err)
	cmp := rule.Expr.First.First.Comparison
	require.NotNil(t, cmp.Value.Number)
	assert.Equal(t, -10.5, *cmp.Value.Number)
}

func TestParseStringLiteral(t *testing.T) {
	for _, expr := range []string{
		`bm_host_state == "up"`,
		`bm_host_state == 'up'`,
	} {
		rule, err := ParseRule(expr)
		require.NoError(t, err, expr)
		cmp := rule.Expr.First.First.Comparison
		require.NotNil(t, cmp.Value.Str, expr)
		assert.Equal(t, "up", *cmp.Value.Str, expr)
	}
}

func TestParseQuantifier(t *testing.T) {
	rule, err := ParseRule("all(bm_cpu_user_time > 95)")
	require.NoError(t, err)

	q := rule.Expr.First.First.Quantifier
	require.NotNil(t, q)
	assert.Equal(t, "all", q.Op)
	assert.Equal(t, "bm_cpu_user_time", q.Expr.First.First.Comparison.Metric)
}

func TestParseWindow(t *testing.T) {
	rule, err := ParseRule("5min(bm_mem_swap_pct > 80)")
	require.NoError(t, err)

	w := rule.Expr.First.First.Window
	require.NotNil(t, w)
	assert.Equal(t, 5, w.Minutes())
}

func TestParseWindowAroundQuantifier(t *testing.T) {
	rule, err := ParseRule("5min(any(bm_cpu_user_time > 95))")
	require.NoError(t, err)

	w := rule.Expr.First.First.Window
	require.NotNil(t, w)
	assert.NotNil(t, w.Expr.First.First.Quantifier)
}

func TestParsePrecedence(t *testing.T) {
	// AND binds tighter than OR
	rule, err := ParseRule("a > 1 OR b > 2 AND c > 3")
	require.NoError(t, err)

	require.Len(t, rule.Expr.Rest, 1)
	assert.Len(t, rule.Expr.First.Rest, 0)
	assert.Len(t, rule.Expr.Rest[0].Rest, 1)
}

func TestParseOperatorSpellings(t *testing.T) {
	for _, expr := range []string{
		"a > 1 AND b > 2",
		"a > 1 and b > 2",
		"a > 1 && b > 2",
		"a > 1 OR b > 2",
		"a > 1 or b > 2",
		"a > 1 || b > 2",
	} {
		_, err := ParseRule(expr)
		assert.NoError(t, err, expr)
	}
}

func TestParseParentheses(t *testing.T) {
	rule, err := ParseRule("(a > 1 OR b > 2) AND c > 3")
	require.NoError(t, err)

	first := rule.Expr.First.First
	require.NotNil(t, first.Sub)
	assert.Len(t, first.Sub.Rest, 1)
}

func TestStringRoundTrip(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"bm_mem_swap_pct>80", "bm_mem_swap_pct > 80"},
		{"all(bm_cpu_user_time > 95)", "all(bm_cpu_user_time > 95)"},
		{"5min(bm_mem_swap_pct > 80)", "5min(bm_mem_swap_pct > 80)"},
		{"a > 1 and b > 2 or c <= 3", "a > 1 AND b > 2 OR c <= 3"},
		{"(a > 1 || b > 2) && c != 3", "(a > 1 OR b > 2) AND c != 3"},
		{`state == "up"`, `state == "up"`},
	}
	for _, test := range tests {
		rule, err := ParseRule(test.in)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.out, rule.String(), test.in)

		// the canonical form must parse back to the same canonical form
		again, err := ParseRule(rule.String())
		require.NoError(t, err, rule.String())
		assert.Equal(t, test.out, again.String())
	}
}

func TestParseSyntaxError(t *testing.T) {
	for _, expr := range []string{
		"",
		"bm_mem_swap_pct >",
		"> 80",
		"5min(bm_mem_swap_pct > 80",
		"bm_mem_swap_pct 80",
	} {
		_, err := ParseRule(expr)
		require.Error(t, err, expr)
		assert.IsType(t, &ErrSyntax{}, err, expr)
	}
}

func TestParseUnknownOperator(t *testing.T) {
	for expr, op := range map[string]string{
		"bm_mem_swap_pct >> 80": ">>",
		"bm_mem_swap_pct ~ 80":  "~",
		"a > 1 ^ b > 2":         "^",
	} {
		_, err := ParseRule(expr)
		require.Error(t, err, expr)
		opErr, ok := err.(*ErrUnknownOperator)
		require.True(t, ok, expr)
		assert.Equal(t, op, opErr.Operator, expr)
	}
}
