// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the shape of a sample value. The kind of a metric is
// fixed for its whole lifetime by the catalog declaration.
type ValueKind int

// Value kinds
const (
	KindScalar ValueKind = iota
	KindList
	KindString
)

func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindString:
		return "string"
	}
	return "unknown"
}

// Value is a tagged sample value: a numeric scalar, an ordered list of numeric
// scalars (e.g. per-core values) or a string. Values are immutable once built.
type Value struct {
	kind   ValueKind
	scalar float64
	list   []float64
	str    string
}

// NewScalar returns a scalar Value
func NewScalar(v float64) Value {
	return Value{kind: KindScalar, scalar: v}
}

// NewList returns a list Value, copying the input slice
func NewList(vs []float64) Value {
	l := make([]float64, len(vs))
	copy(l, vs)
	return Value{kind: KindList, list: l}
}

// NewString returns a string Value
func NewString(s string) Value {
	return Value{kind: KindString, str: s}
}

// Kind returns the kind tag of the value
func (v Value) Kind() ValueKind {
	return v.kind
}

// Scalar returns the numeric scalar, false if the value is not a scalar
func (v Value) Scalar() (float64, bool) {
	return v.scalar, v.kind == KindScalar
}

// List returns the numeric list, false if the value is not a list. The
// returned slice must not be mutated.
func (v Value) List() ([]float64, bool) {
	return v.list, v.kind == KindList
}

// Str returns the string content, false if the value is not a string
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return strconv.FormatFloat(v.scalar, 'g', -1, 64)
	case KindString:
		return v.str
	case KindList:
		elems := make([]string, len(v.list))
		for i, e := range v.list {
			elems[i] = strconv.FormatFloat(e, 'g', -1, 64)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	}
	return fmt.Sprintf("Value(kind=%d)", v.kind)
}
