// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package agent wires the metric store, the collector and the health
// registry into the running agent.
package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vitalsd/vitals-agent/pkg/collector"
	"github.com/vitalsd/vitals-agent/pkg/health"
	"github.com/vitalsd/vitals-agent/pkg/metrics"
	"github.com/vitalsd/vitals-agent/pkg/store"
	"github.com/vitalsd/vitals-agent/pkg/util/log"
)

// Options configures a new agent
type Options struct {
	CollectionInterval time.Duration
	EvaluationInterval time.Duration
	Hostname           string
	// Clock defaults to the wall clock; tests inject a mock
	Clock clock.Clock
}

// Agent owns the collection and evaluation loops. Evaluations are serialized
// by the registry; the published snapshot is replaced atomically so api reads
// never see a partial tick.
type Agent struct {
	catalog  *metrics.Catalog
	registry *health.Registry
	store    *store.Store
	runner   *collector.Runner
	clock    clock.Clock

	hostname     string
	evalInterval time.Duration

	snapshot atomic.Value // *health.Snapshot

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New assembles an agent. The store's retention horizon is derived from the
// loaded rules: the longest window any rule needs, with a floor of a few
// collection cycles so current-value rules always find samples.
func New(catalog *metrics.Catalog, registry *health.Registry, checks []collector.Check, opts Options) *Agent {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	retention := registry.Retention()
	if floor := 5 * opts.CollectionInterval; retention < floor {
		retention = floor
	}
	st := store.NewStore(catalog, retention)

	return &Agent{
		catalog:      catalog,
		registry:     registry,
		store:        st,
		runner:       collector.NewRunner(st, checks, opts.CollectionInterval, clk),
		clock:        clk,
		hostname:     opts.Hostname,
		evalInterval: opts.EvaluationInterval,
	}
}

// Store returns the agent's metric store
func (a *Agent) Store() *store.Store {
	return a.store
}

// Start launches the collection and evaluation loops
func (a *Agent) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.runner.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.evalLoop(ctx)
	}()
}

// Stop shuts the loops down. It returns after an in-flight evaluation tick
// finished; no half-published snapshot survives a stop.
func (a *Agent) Stop() {
	a.stopOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		a.wg.Wait()
		log.Infof("agent stopped")
	})
}

// Snapshot returns the latest published snapshot, nil before the first tick
func (a *Agent) Snapshot() *health.Snapshot {
	snap, _ := a.snapshot.Load().(*health.Snapshot)
	return snap
}

func (a *Agent) evalLoop(ctx context.Context) {
	log.Infof("evaluating %d symptoms every %s", len(a.registry.Symptoms()), a.evalInterval)
	ticker := a.clock.Ticker(a.evalInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *Agent) tick() {
	now := a.clock.Now()
	byService, diagnostics := a.registry.Tick(a.store, now)
	snap := &health.Snapshot{
		Time:        now,
		Hostname:    a.hostname,
		Health:      byService,
		Metrics:     a.store.LatestValues(),
		Diagnostics: diagnostics,
	}
	a.snapshot.Store(snap)

	if sev := snap.Severity(); sev != health.SeverityNone {
		log.Warnf("host health is %s", sev)
	} else {
		log.Debugf("host health is none")
	}
}
