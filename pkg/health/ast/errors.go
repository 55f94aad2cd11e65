// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package ast

import (
	"fmt"
	"regexp"

	"github.com/alecthomas/participle/lexer"
)

// ErrSyntax is returned on malformed rule text
type ErrSyntax struct {
	Position lexer.Position
	Reason   string
}

func (e *ErrSyntax) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Position.Line, e.Position.Column, e.Reason)
}

// ErrUnknownOperator is returned when the rule text uses an operator the
// grammar does not support
type ErrUnknownOperator struct {
	Operator string
}

func (e *ErrUnknownOperator) Error() string {
	return fmt.Sprintf("unknown operator `%s`", e.Operator)
}

var supportedOperators = map[string]bool{
	">": true, "<": true, ">=": true, "<=": true, "==": true, "!=": true,
	"&&": true, "||": true,
}

// `-` is excluded from the scan: it only ever appears as the sign of a
// numeric literal, which the lexer folds into the Number token.
var operatorRun = regexp.MustCompile(`[<>=!&|^~%*/+]+`)

func findUnknownOperator(expr string) *ErrUnknownOperator {
	for _, op := range operatorRun.FindAllString(expr, -1) {
		if !supportedOperators[op] {
			return &ErrUnknownOperator{Operator: op}
		}
	}
	return nil
}

func newSyntaxError(expr string, err error) *ErrSyntax {
	type positioned interface {
		Position() lexer.Position
		Message() string
	}
	if perr, ok := err.(positioned); ok {
		return &ErrSyntax{Position: perr.Position(), Reason: perr.Message()}
	}
	return &ErrSyntax{Position: lexer.Position{Line: 1, Column: 1}, Reason: err.Error()}
}
