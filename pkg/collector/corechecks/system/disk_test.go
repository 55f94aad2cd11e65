// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package system

import (
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCheckRates(t *testing.T) {
	diskPartitions = func(all bool) ([]disk.PartitionStat, error) {
		return nil, nil
	}
	first := map[string]disk.IOCountersStat{
		"sda": {ReadBytes: 1000 * 1024, WriteBytes: 2000 * 1024},
	}
	second := map[string]disk.IOCountersStat{
		"sda": {ReadBytes: 1006 * 1024, WriteBytes: 2009 * 1024},
	}
	calls := 0
	diskIOCounters = func(names ...string) (map[string]disk.IOCountersStat, error) {
		calls++
		if calls == 1 {
			return first, nil
		}
		return second, nil
	}
	base := time.Date(2023, 4, 12, 10, 0, 0, 0, time.UTC)
	diskNow = func() time.Time { return base.Add(time.Duration(calls) * 3 * time.Second) }
	defer func() {
		diskPartitions = disk.Partitions
		diskIOCounters = disk.IOCounters
		diskNow = time.Now
	}()

	check := NewDiskCheck()

	sender := newMockSender()
	require.NoError(t, check.Run(sender))
	assert.NotContains(t, sender.lists, "bm_disk_read_rate")

	sender = newMockSender()
	require.NoError(t, check.Run(sender))
	assert.Equal(t, []float64{2}, sender.lists["bm_disk_read_rate"])
	assert.Equal(t, []float64{3}, sender.lists["bm_disk_write_rate"])
}

func TestDiskCheckCounterReset(t *testing.T) {
	diskPartitions = func(all bool) ([]disk.PartitionStat, error) {
		return nil, nil
	}
	first := map[string]disk.IOCountersStat{
		"sda": {ReadBytes: 5000 * 1024, WriteBytes: 8000 * 1024},
	}
	// the device was re-attached and its counters restarted below the
	// previous reading
	second := map[string]disk.IOCountersStat{
		"sda": {ReadBytes: 10 * 1024, WriteBytes: 8003 * 1024},
	}
	calls := 0
	diskIOCounters = func(names ...string) (map[string]disk.IOCountersStat, error) {
		calls++
		if calls == 1 {
			return first, nil
		}
		return second, nil
	}
	base := time.Date(2023, 4, 12, 10, 0, 0, 0, time.UTC)
	diskNow = func() time.Time { return base.Add(time.Duration(calls) * 3 * time.Second) }
	defer func() {
		diskPartitions = disk.Partitions
		diskIOCounters = disk.IOCounters
		diskNow = time.Now
	}()

	check := NewDiskCheck()
	require.NoError(t, check.Run(newMockSender()))

	sender := newMockSender()
	require.NoError(t, check.Run(sender))

	// a backwards counter yields a zero rate for the cycle, not an underflow
	assert.Equal(t, []float64{0}, sender.lists["bm_disk_read_rate"])
	assert.Equal(t, []float64{1}, sender.lists["bm_disk_write_rate"])
}
