// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package app holds the agent's command tree
package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vitalsd/vitals-agent/pkg/config"
)

var (
	// AgentCmd is the root command
	AgentCmd = &cobra.Command{
		Use:   "vitals-agent [command]",
		Short: "Host vitals agent at your service.",
		Long: `
The vitals agent samples baremetal health metrics, evaluates the loaded
symptom rules against them and grades each subsystem's health. Query the
running agent with the status command.`,
		SilenceUsage: true,
	}

	// confFilePath holds the path to the configuration file, to allow
	// overrides from the command line
	confFilePath string
	flagNoColor  bool
)

func init() {
	AgentCmd.PersistentFlags().StringVarP(&confFilePath, "cfgpath", "c", "", "path to the configuration file")
	AgentCmd.PersistentFlags().BoolVarP(&flagNoColor, "no-color", "n", false, "disable color output")
}

// setupConfig loads the configuration, shared by all subcommands
func setupConfig() error {
	if flagNoColor {
		color.NoColor = true
	}
	return config.Load(confFilePath)
}

func cmdAddr() string {
	return fmt.Sprintf("%s:%d", config.Vitals.GetString("cmd_host"), config.Vitals.GetInt("cmd_port"))
}
