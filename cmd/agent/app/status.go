// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package app

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vitalsd/vitals-agent/pkg/api"
	"github.com/vitalsd/vitals-agent/pkg/health"
	"github.com/vitalsd/vitals-agent/pkg/metrics"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the health status of the running agent",
	Long:  ``,
	RunE:  status,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusJSON, "json", "j", false, "print the raw snapshot as json")
	AgentCmd.AddCommand(statusCmd)
}

func status(_ *cobra.Command, _ []string) error {
	if err := setupConfig(); err != nil {
		return err
	}

	body, err := api.DoGet(cmdAddr(), "/agent/snapshot")
	if err != nil {
		return fmt.Errorf("could not reach the agent: %v", err)
	}
	if statusJSON {
		fmt.Println(string(body))
		return nil
	}

	var snap health.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return fmt.Errorf("could not decode snapshot: %v", err)
	}

	fmt.Printf("Host: %s\nTime: %s\nOverall: %s\n\n", snap.Hostname, snap.Time.Format("2006-01-02 15:04:05 MST"), colorSeverity(snap.Severity()))

	services := make([]string, 0, len(snap.Health))
	for ss := range snap.Health {
		services = append(services, string(ss))
	}
	sort.Strings(services)
	for _, name := range services {
		sh := snap.Health[metrics.Subservice(name)]
		fmt.Printf("  %-8s %s\n", name, colorSeverity(sh.Severity))
		for _, symptom := range sh.Symptoms {
			if symptom.Active {
				fmt.Printf("    %s %s (%s)\n", color.YellowString("!"), symptom.Name, symptom.Rule)
			}
		}
	}

	if len(snap.Diagnostics) > 0 {
		fmt.Println()
		for _, d := range snap.Diagnostics {
			fmt.Printf("  %s %s: %s\n", color.CyanString("?"), d.Symptom, d.Message)
		}
	}
	return nil
}

func colorSeverity(s health.Severity) string {
	switch s {
	case health.SeverityRed:
		return color.RedString("red")
	case health.SeverityOrange:
		return color.YellowString("orange")
	default:
		return color.GreenString("none")
	}
}
