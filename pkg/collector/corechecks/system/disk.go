// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package system

import (
	"fmt"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/vitalsd/vitals-agent/pkg/collector"
	"github.com/vitalsd/vitals-agent/pkg/util/log"
)

// For testing purpose
var diskPartitions = disk.Partitions
var diskUsage = disk.Usage
var diskIOCounters = disk.IOCounters
var diskNow = time.Now

const kbSize float64 = 1024

// DiskCheck submits per-partition usage and per-device io rates. Io counters
// are monotonic; the check converts them to kB/s using the previous cycle's
// values, so rates only appear from the second cycle on.
type DiskCheck struct {
	lastCounters map[string]disk.IOCountersStat
	lastTime     time.Time
}

// NewDiskCheck returns a disk check
func NewDiskCheck() *DiskCheck {
	return &DiskCheck{}
}

func (c *DiskCheck) String() string { return "disk" }

// Run implements collector.Check
func (c *DiskCheck) Run(sender collector.Sender) error {
	partitions, err := diskPartitions(false)
	if err != nil {
		return fmt.Errorf("could not retrieve disk partitions: %w", err)
	}

	var usagePct, freeMB []float64
	for _, p := range partitions {
		usage, err := diskUsage(p.Mountpoint)
		if err != nil {
			log.Debugf("skipping partition %s: %v", p.Mountpoint, err)
			continue
		}
		usagePct = append(usagePct, usage.UsedPercent)
		freeMB = append(freeMB, float64(usage.Free)/mbSize)
	}
	sender.Gauge("bm_disk_count", float64(len(usagePct)))
	sender.GaugeList("bm_disk_usage_pct", usagePct)
	sender.GaugeList("bm_disk_free", freeMB)

	counters, err := diskIOCounters()
	if err != nil {
		return fmt.Errorf("could not retrieve disk io counters: %w", err)
	}
	now := diskNow()
	if c.lastCounters != nil {
		elapsed := now.Sub(c.lastTime).Seconds()
		if elapsed > 0 {
			// iterate devices in a stable order
			devices := make([]string, 0, len(counters))
			for name := range counters {
				if _, ok := c.lastCounters[name]; ok {
					devices = append(devices, name)
				}
			}
			sort.Strings(devices)

			var readRate, writeRate []float64
			for _, name := range devices {
				cur, last := counters[name], c.lastCounters[name]
				readRate = append(readRate, counterDelta(cur.ReadBytes, last.ReadBytes)/kbSize/elapsed)
				writeRate = append(writeRate, counterDelta(cur.WriteBytes, last.WriteBytes)/kbSize/elapsed)
			}
			sender.GaugeList("bm_disk_read_rate", readRate)
			sender.GaugeList("bm_disk_write_rate", writeRate)
		}
	}
	c.lastCounters = counters
	c.lastTime = now
	return nil
}
