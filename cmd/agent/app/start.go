// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package app

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalsd/vitals-agent/cmd/agent/dist"
	"github.com/vitalsd/vitals-agent/pkg/agent"
	"github.com/vitalsd/vitals-agent/pkg/api"
	"github.com/vitalsd/vitals-agent/pkg/collector/corechecks/system"
	"github.com/vitalsd/vitals-agent/pkg/config"
	"github.com/vitalsd/vitals-agent/pkg/health"
	"github.com/vitalsd/vitals-agent/pkg/health/eval"
	"github.com/vitalsd/vitals-agent/pkg/metrics"
	"github.com/vitalsd/vitals-agent/pkg/pidfile"
	"github.com/vitalsd/vitals-agent/pkg/util/log"
	"github.com/vitalsd/vitals-agent/pkg/version"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the agent",
	Long:  ``,
	RunE:  start,
}

func init() {
	AgentCmd.AddCommand(startCmd)
}

func start(_ *cobra.Command, _ []string) error {
	if err := setupConfig(); err != nil {
		return err
	}
	if err := log.Setup(config.Vitals.GetString("log_level"), config.Vitals.GetString("log_file")); err != nil {
		return err
	}
	defer log.Flush()
	log.Infof("starting vitals agent v%s", version.AgentVersion)

	if pidFilePath := config.Vitals.GetString("pid_file"); pidFilePath != "" {
		if err := pidfile.WritePID(pidFilePath); err != nil {
			return err
		}
		defer pidfile.Remove(pidFilePath)
		log.Infof("pid %d written to %s", os.Getpid(), pidFilePath)
	}

	catalog, err := loadMetricCatalog()
	if err != nil {
		return err
	}

	collectionInterval := time.Duration(config.Vitals.GetInt("collection_interval")) * time.Second
	coverage, err := eval.ParseCoverage(config.Vitals.GetString("window_coverage"))
	if err != nil {
		return err
	}
	registry, err := loadRuleRegistry(catalog, eval.Opts{
		Coverage:       coverage,
		SampleInterval: collectionInterval,
	})
	if err != nil {
		// the registry still holds every rule that did compile
		log.Warnf("some rules were rejected: %v", err)
	}
	log.Infof("loaded %d metrics, %d rules", catalog.Len(), len(registry.Symptoms()))

	hostname := config.Vitals.GetString("hostname")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}

	ag := agent.New(catalog, registry, system.Checks(), agent.Options{
		CollectionInterval: collectionInterval,
		EvaluationInterval: time.Duration(config.Vitals.GetInt("evaluation_interval")) * time.Second,
		Hostname:           hostname,
	})
	ag.Start()

	stopCh := make(chan struct{})
	var stopOnce sync.Once
	srv := api.NewServer(cmdAddr(), ag, func() {
		stopOnce.Do(func() { close(stopCh) })
	})
	if err := srv.Start(); err != nil {
		ag.Stop()
		return err
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-signalCh:
		log.Infof("received signal %s, shutting down", sig)
	case <-stopCh:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Stop(ctx) //nolint:errcheck
	ag.Stop()
	return nil
}

func loadMetricCatalog() (*metrics.Catalog, error) {
	if path := config.Vitals.GetString("metric_catalog"); path != "" {
		return metrics.LoadCatalogFile(path)
	}
	return metrics.LoadCatalog(bytes.NewReader(dist.DefaultMetricCatalog()))
}

func loadRuleRegistry(catalog *metrics.Catalog, opts eval.Opts) (*health.Registry, error) {
	if path := config.Vitals.GetString("rule_catalog"); path != "" {
		return health.LoadRegistryFile(path, catalog, opts)
	}
	return health.LoadRegistry(bytes.NewReader(dist.DefaultRuleCatalog()), catalog, opts)
}
