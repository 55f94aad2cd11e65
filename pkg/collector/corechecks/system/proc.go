// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package system

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/load"

	"github.com/vitalsd/vitals-agent/pkg/collector"
)

// For testing purpose
var loadAvg = load.Avg
var loadMisc = load.Misc

// ProcCheck submits process counts and load averages
type ProcCheck struct{}

// NewProcCheck returns a process check
func NewProcCheck() *ProcCheck {
	return &ProcCheck{}
}

func (c *ProcCheck) String() string { return "proc" }

// Run implements collector.Check
func (c *ProcCheck) Run(sender collector.Sender) error {
	misc, err := loadMisc()
	if err != nil {
		return fmt.Errorf("could not retrieve process stats: %w", err)
	}
	sender.Gauge("bm_proc_total_count", float64(misc.ProcsTotal))
	sender.Gauge("bm_proc_run_count", float64(misc.ProcsRunning))
	sender.Gauge("bm_proc_blocked_count", float64(misc.ProcsBlocked))

	avg, err := loadAvg()
	if err != nil {
		return fmt.Errorf("could not retrieve load averages: %w", err)
	}
	sender.Gauge("bm_proc_load_1min", avg.Load1)
	sender.Gauge("bm_proc_load_5min", avg.Load5)
	sender.Gauge("bm_proc_load_15min", avg.Load15)
	return nil
}
