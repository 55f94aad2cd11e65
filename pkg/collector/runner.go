// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package collector

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/vitalsd/vitals-agent/pkg/store"
	"github.com/vitalsd/vitals-agent/pkg/util/log"
)

// Runner drives the registered checks at a fixed collection interval and
// commits their samples to the store.
type Runner struct {
	store    *store.Store
	checks   []Check
	interval time.Duration
	clock    clock.Clock
}

// NewRunner returns a runner collecting into the given store
func NewRunner(st *store.Store, checks []Check, interval time.Duration, clk clock.Clock) *Runner {
	if clk == nil {
		clk = clock.New()
	}
	return &Runner{
		store:    st,
		checks:   checks,
		interval: interval,
		clock:    clk,
	}
}

// Run collects until the context is cancelled. The first collection happens
// immediately so the store is populated before the first evaluation tick.
func (r *Runner) Run(ctx context.Context) {
	log.Infof("collector running %d checks every %s", len(r.checks), r.interval)

	r.collect()
	ticker := r.clock.Ticker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Infof("collector stopping")
			return
		case <-ticker.C:
			r.collect()
		}
	}
}

// collect runs every check once, in parallel, then commits the cycle. A
// failing check is logged and skipped; its metrics simply have no sample this
// cycle.
func (r *Runner) collect() {
	sender := newStoreSender(r.store, r.clock.Now())

	var group errgroup.Group
	for _, check := range r.checks {
		check := check
		group.Go(func() error {
			if err := check.Run(sender); err != nil {
				log.Warnf("check %s failed: %v", check, err)
			}
			return nil
		})
	}
	group.Wait() //nolint:errcheck

	sender.Commit()
}
