// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/vitalsd/vitals-agent/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version info",
	Long:  ``,
	Run: func(_ *cobra.Command, _ []string) {
		extra := ""
		if version.Commit != "" {
			extra = fmt.Sprintf(" - Commit: %s", version.Commit)
		}
		fmt.Printf("Agent %s%s - Go version: %s\n", version.AgentVersion, extra, runtime.Version())
	},
}

func init() {
	AgentCmd.AddCommand(versionCmd)
}
