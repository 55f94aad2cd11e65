// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package config holds the agent's global configuration object and its
// defaults. Values come from, in increasing precedence, the defaults below,
// the yaml configuration file and VITALS_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/vitalsd/vitals-agent/pkg/util/log"
)

// Vitals is the global configuration object
var Vitals *viper.Viper

func init() {
	Vitals = viper.New()
	Vitals.SetConfigName("vitals")
	Vitals.SetEnvPrefix("VITALS")
	Vitals.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Vitals.AutomaticEnv()
	initDefaults(Vitals)
}

func initDefaults(config *viper.Viper) {
	config.SetDefault("cmd_host", "localhost")
	config.SetDefault("cmd_port", 5011)
	config.SetDefault("hostname", "")

	// seconds between metric collections and between health evaluations
	config.SetDefault("collection_interval", 3)
	config.SetDefault("evaluation_interval", 10)

	// full: a window predicate is false until history spans the whole window
	// available: evaluate over whatever samples the window holds
	config.SetDefault("window_coverage", "full")

	config.SetDefault("metric_catalog", "")
	config.SetDefault("rule_catalog", "")

	config.SetDefault("log_level", "info")
	config.SetDefault("log_file", "")
	config.SetDefault("pid_file", "")
}

// Load reads the configuration file. An explicit path wins; otherwise the
// file is searched in the working directory and /etc/vitals-agent. A missing
// file is not an error, defaults and environment apply.
func Load(confFilePath string) error {
	if confFilePath != "" {
		Vitals.SetConfigFile(confFilePath)
	} else {
		Vitals.AddConfigPath(".")
		Vitals.AddConfigPath("/etc/vitals-agent")
	}
	if err := Vitals.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && confFilePath == "" {
			log.Debugf("no configuration file found, using defaults")
			return nil
		}
		return err
	}
	log.Infof("loaded configuration file %s", Vitals.ConfigFileUsed())
	return nil
}
