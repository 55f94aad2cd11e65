// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vitalsd/vitals-agent/pkg/api"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running agent",
	Long:  ``,
	RunE:  stop,
}

func init() {
	AgentCmd.AddCommand(stopCmd)
}

func stop(_ *cobra.Command, _ []string) error {
	if err := setupConfig(); err != nil {
		return err
	}
	if _, err := api.DoPost(cmdAddr(), "/agent/stop"); err != nil {
		return fmt.Errorf("error sending stop command: %v", err)
	}
	fmt.Println(color.GreenString("Agent is stopping"))
	return nil
}
