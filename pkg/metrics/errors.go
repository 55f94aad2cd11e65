// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package metrics

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when a metric has no sample yet. It is transient:
// evaluation treats it as "symptom false" and the tick goes on.
var ErrNoData = errors.New("no sample recorded yet")

// ErrUnknownMetric is returned when a metric name was not declared in the catalog
type ErrUnknownMetric struct {
	Name string
}

func (e *ErrUnknownMetric) Error() string {
	return fmt.Sprintf("unknown metric `%s`", e.Name)
}

// ErrTypeMismatch is returned when a value's kind disagrees with the kind the
// catalog declares for the metric
type ErrTypeMismatch struct {
	Metric   string
	Expected ValueKind
	Got      ValueKind
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch for metric `%s`: expected %s, got %s", e.Metric, e.Expected, e.Got)
}

// ErrInvalidCatalog is returned when a catalog record cannot be parsed
type ErrInvalidCatalog struct {
	Line int
	Err  error
}

func (e *ErrInvalidCatalog) Error() string {
	return fmt.Sprintf("invalid catalog record at line %d: %s", e.Line, e.Err)
}

func (e *ErrInvalidCatalog) Unwrap() error {
	return e.Err
}
