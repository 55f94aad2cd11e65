// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package system

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vitalsd/vitals-agent/pkg/collector"
)

// For testing purpose
var virtualMemory = mem.VirtualMemory
var swapMemory = mem.SwapMemory

const mbSize float64 = 1024 * 1024

// MemoryCheck submits virtual memory and swap gauges
type MemoryCheck struct{}

// NewMemoryCheck returns a memory check
func NewMemoryCheck() *MemoryCheck {
	return &MemoryCheck{}
}

func (c *MemoryCheck) String() string { return "memory" }

// Run implements collector.Check
func (c *MemoryCheck) Run(sender collector.Sender) error {
	v, err := virtualMemory()
	if err != nil {
		return fmt.Errorf("could not retrieve virtual memory stats: %w", err)
	}
	sender.Gauge("bm_mem_total", float64(v.Total)/mbSize)
	sender.Gauge("bm_mem_free", float64(v.Free)/mbSize)
	sender.Gauge("bm_mem_available", float64(v.Available)/mbSize)
	sender.Gauge("bm_mem_cached", float64(v.Cached)/mbSize)
	sender.Gauge("bm_mem_buffers", float64(v.Buffers)/mbSize)
	sender.Gauge("bm_mem_used_pct", v.UsedPercent)

	s, err := swapMemory()
	if err != nil {
		return fmt.Errorf("could not retrieve swap memory stats: %w", err)
	}
	sender.Gauge("bm_mem_swap_total", float64(s.Total)/mbSize)
	sender.Gauge("bm_mem_swap_free", float64(s.Free)/mbSize)
	sender.Gauge("bm_mem_swap_pct", s.UsedPercent)
	return nil
}
