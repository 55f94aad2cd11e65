// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalsd/vitals-agent/pkg/api"
)

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Stop a running agent and start a new one in the foreground",
	Long:  ``,
	RunE:  restart,
}

func init() {
	AgentCmd.AddCommand(restartCmd)
}

func restart(cmd *cobra.Command, args []string) error {
	if err := setupConfig(); err != nil {
		return err
	}

	// a stop failure usually means no agent is running; start anyway
	if _, err := api.DoPost(cmdAddr(), "/agent/stop"); err == nil {
		// wait for the old agent to release its endpoint
		for i := 0; i < 50; i++ {
			if _, err := api.DoGet(cmdAddr(), "/agent/ping"); err != nil {
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
	} else {
		fmt.Println("no running agent found, starting a new one")
	}

	return start(cmd, args)
}
