// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package collector

import (
	"sync"
	"time"

	"github.com/vitalsd/vitals-agent/pkg/metrics"
	"github.com/vitalsd/vitals-agent/pkg/store"
	"github.com/vitalsd/vitals-agent/pkg/util/log"
)

// Sender is the submission API handed to checks. Submissions are buffered;
// Commit writes them to the store under the cycle's single timestamp so every
// metric of one collection shares it.
type Sender interface {
	// Gauge submits a scalar numeric sample
	Gauge(name string, value float64)
	// GaugeList submits a list-valued numeric sample
	GaugeList(name string, values []float64)
	// Text submits a string sample
	Text(name string, value string)
	// Commit flushes the buffered samples to the store
	Commit()
}

type pendingSample struct {
	name  string
	value metrics.Value
}

// storeSender buffers one collection cycle's samples. Safe for concurrent use
// so checks running in parallel can share it.
type storeSender struct {
	store *store.Store
	ts    time.Time

	mu      sync.Mutex
	pending []pendingSample
}

func newStoreSender(st *store.Store, ts time.Time) *storeSender {
	return &storeSender{store: st, ts: ts}
}

func (s *storeSender) Gauge(name string, value float64) {
	s.push(name, metrics.NewScalar(value))
}

func (s *storeSender) GaugeList(name string, values []float64) {
	s.push(name, metrics.NewList(values))
}

func (s *storeSender) Text(name string, value string) {
	s.push(name, metrics.NewString(value))
}

func (s *storeSender) push(name string, value metrics.Value) {
	s.mu.Lock()
	s.pending = append(s.pending, pendingSample{name: name, value: value})
	s.mu.Unlock()
}

// Commit appends the buffered samples. A rejected sample, e.g. a check
// submitting a name missing from the catalog, is logged and dropped; it never
// poisons the rest of the batch.
func (s *storeSender) Commit() {
	s.mu.Lock()
	flush := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, p := range flush {
		if err := s.store.Append(p.name, s.ts, p.value); err != nil {
			log.Warnf("dropping sample %s: %v", p.name, err)
		}
	}
}
