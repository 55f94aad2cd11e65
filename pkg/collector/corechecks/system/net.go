// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package system

import (
	"fmt"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/vitalsd/vitals-agent/pkg/collector"
)

// For testing purpose
var netIOCounters = net.IOCounters
var netInterfaces = net.Interfaces
var netNow = time.Now

// NetCheck submits per-interface traffic rates and interface state counts.
// Traffic counters are monotonic; rates appear from the second cycle on.
type NetCheck struct {
	lastCounters map[string]net.IOCountersStat
	lastTime     time.Time
}

// NewNetCheck returns a network check
func NewNetCheck() *NetCheck {
	return &NetCheck{}
}

func (c *NetCheck) String() string { return "net" }

// Run implements collector.Check
func (c *NetCheck) Run(sender collector.Sender) error {
	interfaces, err := netInterfaces()
	if err != nil {
		return fmt.Errorf("could not retrieve interfaces: %w", err)
	}
	up := 0
	for _, iface := range interfaces {
		for _, flag := range iface.Flags {
			if flag == "up" {
				up++
				break
			}
		}
	}
	sender.Gauge("bm_if_count", float64(len(interfaces)))
	sender.Gauge("bm_if_up_count", float64(up))

	counters, err := netIOCounters(true)
	if err != nil {
		return fmt.Errorf("could not retrieve net io counters: %w", err)
	}
	byName := make(map[string]net.IOCountersStat, len(counters))
	for _, stat := range counters {
		byName[stat.Name] = stat
	}

	now := netNow()
	if c.lastCounters != nil {
		elapsed := now.Sub(c.lastTime).Seconds()
		if elapsed > 0 {
			names := make([]string, 0, len(byName))
			for name := range byName {
				if _, ok := c.lastCounters[name]; ok {
					names = append(names, name)
				}
			}
			sort.Strings(names)

			var rxRate, txRate, rxErrs, txErrs, rxDrops, txDrops []float64
			for _, name := range names {
				cur, last := byName[name], c.lastCounters[name]
				rxRate = append(rxRate, counterDelta(cur.BytesRecv, last.BytesRecv)/kbSize/elapsed)
				txRate = append(txRate, counterDelta(cur.BytesSent, last.BytesSent)/kbSize/elapsed)
				rxErrs = append(rxErrs, counterDelta(cur.Errin, last.Errin)/elapsed)
				txErrs = append(txErrs, counterDelta(cur.Errout, last.Errout)/elapsed)
				rxDrops = append(rxDrops, counterDelta(cur.Dropin, last.Dropin)/elapsed)
				txDrops = append(txDrops, counterDelta(cur.Dropout, last.Dropout)/elapsed)
			}
			sender.GaugeList("bm_net_rx_rate", rxRate)
			sender.GaugeList("bm_net_tx_rate", txRate)
			sender.GaugeList("bm_net_rx_errs_rate", rxErrs)
			sender.GaugeList("bm_net_tx_errs_rate", txErrs)
			sender.GaugeList("bm_net_rx_drops_rate", rxDrops)
			sender.GaugeList("bm_net_tx_drops_rate", txDrops)
		}
	}
	c.lastCounters = byName
	c.lastTime = now
	return nil
}
