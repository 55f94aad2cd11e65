// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package store

import (
	"fmt"
	"time"
)

// ErrOutOfOrderSample is returned when an append would break the timestamp
// monotonicity of a series
type ErrOutOfOrderSample struct {
	Metric    string
	Timestamp time.Time
	Latest    time.Time
}

func (e *ErrOutOfOrderSample) Error() string {
	return fmt.Sprintf("out-of-order sample for metric `%s`: %s is not after %s",
		e.Metric, e.Timestamp.Format(time.RFC3339Nano), e.Latest.Format(time.RFC3339Nano))
}
