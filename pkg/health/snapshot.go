// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package health

import (
	"time"

	"github.com/vitalsd/vitals-agent/pkg/metrics"
)

// Snapshot is the agent's externally visible state after one evaluation tick:
// the per-subservice verdicts, the latest value of every sampled metric and
// the diagnostics of symptoms that could not be evaluated. A snapshot is
// immutable once published.
type Snapshot struct {
	Time        time.Time                                `json:"time"`
	Hostname    string                                   `json:"hostname"`
	Health      map[metrics.Subservice]*SubserviceHealth `json:"health"`
	Metrics     map[string]metrics.Sample                `json:"metrics"`
	Diagnostics []Diagnostic                             `json:"diagnostics,omitempty"`
}

// Severity returns the host-wide severity: the worst among all subservices
func (s *Snapshot) Severity() Severity {
	worst := SeverityNone
	for _, sh := range s.Health {
		if sh.Severity > worst {
			worst = sh.Severity
		}
	}
	return worst
}
