// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package eval

import (
	"fmt"

	"github.com/alecthomas/participle/lexer"
)

// ErrSemantic is returned by the compile-time semantic pass when a rule is
// syntactically valid but cannot be evaluated, e.g. a quantifier applied to a
// scalar metric.
type ErrSemantic struct {
	Position lexer.Position
	Reason   string
}

func (e *ErrSemantic) Error() string {
	return fmt.Sprintf("semantic error at %d:%d: %s", e.Position.Line, e.Position.Column, e.Reason)
}
