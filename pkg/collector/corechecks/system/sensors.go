// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package system

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/vitalsd/vitals-agent/pkg/collector"
)

// For testing purpose
var sensorsTemperatures = host.SensorsTemperatures

// SensorsCheck submits hardware temperature readings. Hosts without exposed
// sensors submit an empty list rather than failing.
type SensorsCheck struct{}

// NewSensorsCheck returns a sensors check
func NewSensorsCheck() *SensorsCheck {
	return &SensorsCheck{}
}

func (c *SensorsCheck) String() string { return "sensors" }

// Run implements collector.Check
func (c *SensorsCheck) Run(sender collector.Sender) error {
	readings, err := sensorsTemperatures()
	if err != nil && len(readings) == 0 {
		return fmt.Errorf("could not retrieve temperature sensors: %w", err)
	}

	temps := make([]float64, 0, len(readings))
	max := 0.0
	for _, r := range readings {
		temps = append(temps, r.Temperature)
		if r.Temperature > max {
			max = r.Temperature
		}
	}
	sender.Gauge("bm_sensors_count", float64(len(temps)))
	sender.GaugeList("bm_sensors_temp", temps)
	sender.Gauge("bm_sensors_temp_max", max)
	return nil
}
