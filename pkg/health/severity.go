// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package health turns the rule catalog and the metric store into per-tick,
// per-subservice health verdicts.
package health

import (
	"fmt"
	"strings"
)

// Severity grades a symptom or a subservice verdict. Ordering is meaningful:
// a subservice reports the worst severity among its active symptoms.
type Severity int

// Severities, from healthy to critical
const (
	SeverityNone Severity = iota
	SeverityOrange
	SeverityRed
)

// ParseSeverity parses the `severity` column of the rule catalog. Matching is
// case-insensitive, catalogs written as `Orange`/`Red` load the same as
// lowercase ones.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "none":
		return SeverityNone, nil
	case "orange":
		return SeverityOrange, nil
	case "red":
		return SeverityRed, nil
	}
	return SeverityNone, fmt.Errorf("unknown severity `%s`", s)
}

func (s Severity) String() string {
	switch s {
	case SeverityOrange:
		return "orange"
	case SeverityRed:
		return "red"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler so snapshots serialize
// severities by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
