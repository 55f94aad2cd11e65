// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package system

import "github.com/vitalsd/vitals-agent/pkg/collector"

// Checks returns the default set of baremetal checks
func Checks() []collector.Check {
	return []collector.Check{
		NewCPUCheck(),
		NewMemoryCheck(),
		NewDiskCheck(),
		NewNetCheck(),
		NewProcCheck(),
		NewSensorsCheck(),
	}
}

// counterDelta returns cur-last for a monotonic counter, or zero when the
// counter went backwards (device re-attach, counter reset).
func counterDelta(cur, last uint64) float64 {
	if cur < last {
		return 0
	}
	return float64(cur - last)
}
