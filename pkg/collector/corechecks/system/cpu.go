// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package system holds the baremetal checks feeding the metric store
package system

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/vitalsd/vitals-agent/pkg/collector"
)

// For testing purpose
var cpuTimes = cpu.Times

// CPUCheck submits per-core cpu time percentages. Percentages are computed
// from the deltas between two collection cycles, so the first cycle only
// submits the core count.
type CPUCheck struct {
	lastTimes []cpu.TimesStat
}

// NewCPUCheck returns a cpu check
func NewCPUCheck() *CPUCheck {
	return &CPUCheck{}
}

func (c *CPUCheck) String() string { return "cpu" }

// Run implements collector.Check
func (c *CPUCheck) Run(sender collector.Sender) error {
	times, err := cpuTimes(true)
	if err != nil {
		return fmt.Errorf("could not retrieve cpu stats: %w", err)
	}
	if len(times) == 0 {
		return fmt.Errorf("no cpu stats retrieved (empty result)")
	}

	sender.Gauge("bm_cpu_count", float64(len(times)))

	if len(c.lastTimes) == len(times) {
		n := len(times)
		user := make([]float64, n)
		system := make([]float64, n)
		idle := make([]float64, n)
		iowait := make([]float64, n)
		steal := make([]float64, n)
		guest := make([]float64, n)
		for i, t := range times {
			last := c.lastTimes[i]
			total := t.Total() - last.Total()
			if total <= 0 {
				continue
			}
			toPercent := 100 / total
			user[i] = ((t.User + t.Nice) - (last.User + last.Nice)) * toPercent
			system[i] = ((t.System + t.Irq + t.Softirq) - (last.System + last.Irq + last.Softirq)) * toPercent
			idle[i] = (t.Idle - last.Idle) * toPercent
			iowait[i] = (t.Iowait - last.Iowait) * toPercent
			steal[i] = (t.Steal - last.Steal) * toPercent
			guest[i] = (t.Guest - last.Guest) * toPercent
		}
		sender.GaugeList("bm_cpu_user_time", user)
		sender.GaugeList("bm_cpu_system_time", system)
		sender.GaugeList("bm_cpu_idle_time", idle)
		sender.GaugeList("bm_cpu_iowait_time", iowait)
		sender.GaugeList("bm_cpu_steal_time", steal)
		sender.GaugeList("bm_cpu_guest_time", guest)
	}

	c.lastTimes = times
	return nil
}
