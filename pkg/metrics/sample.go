// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package metrics

import (
	"encoding/json"
	"time"
)

// Sample is a single (timestamp, value) observation of a metric. Samples are
// owned by the store once appended and are never mutated afterwards.
type Sample struct {
	Timestamp time.Time
	Value     Value
}

// MarshalJSON renders the value in its natural JSON shape: number, array of
// numbers, or string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindList:
		return json.Marshal(v.list)
	case KindString:
		return json.Marshal(v.str)
	default:
		return json.Marshal(v.scalar)
	}
}

// UnmarshalJSON decodes the natural shape back into a tagged value
func (v *Value) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*v = NewScalar(scalar)
		return nil
	}
	var list []float64
	if err := json.Unmarshal(data, &list); err == nil {
		*v = Value{kind: KindList, list: list}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*v = NewString(str)
	return nil
}

// MarshalJSON renders a sample as {"ts": ..., "value": ...}
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp time.Time `json:"ts"`
		Value     Value     `json:"value"`
	}{s.Timestamp, s.Value})
}

// UnmarshalJSON is the inverse of MarshalJSON
func (s *Sample) UnmarshalJSON(data []byte) error {
	var wire struct {
		Timestamp time.Time `json:"ts"`
		Value     Value     `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.Timestamp = wire.Timestamp
	s.Value = wire.Value
	return nil
}
