// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package store holds the in-memory time series the symptom engine evaluates
// against: one bounded, timestamp-ordered sample window per declared metric.
package store

import (
	"sync"
	"time"

	"github.com/vitalsd/vitals-agent/pkg/metrics"
)

// Store keeps the trailing window of samples for every metric of the catalog.
// The series map is built once from the catalog and never changes afterwards,
// so series lookup is lock-free. Each series carries its own lock: the single
// writer of a metric stream never blocks on writers of other streams, and
// readers get copies so no lock is ever held across an evaluation.
type Store struct {
	catalog   *metrics.Catalog
	retention time.Duration
	series    map[string]*timeSeries
}

type timeSeries struct {
	mu      sync.RWMutex
	samples []metrics.Sample
}

// NewStore returns a store retaining samples for the given horizon. The
// horizon must cover the longest window referenced by any loaded rule, plus a
// safety margin; the registry computes it at load time.
func NewStore(catalog *metrics.Catalog, retention time.Duration) *Store {
	series := make(map[string]*timeSeries, catalog.Len())
	for _, m := range catalog.Metrics() {
		series[m.Name] = &timeSeries{}
	}
	return &Store{
		catalog:   catalog,
		retention: retention,
		series:    series,
	}
}

// Catalog returns the catalog the store was built from
func (s *Store) Catalog() *metrics.Catalog {
	return s.catalog
}

// Retention returns the configured retention horizon
func (s *Store) Retention() time.Duration {
	return s.retention
}

// Append records a new sample for a metric. It fails with ErrUnknownMetric if
// the name was not declared in the catalog and with ErrTypeMismatch if the
// value kind disagrees with the declared kind; a failed append never mutates
// the store. Samples must be appended in timestamp order; an out-of-order
// sample is rejected. Appending evicts samples older than the retention
// horizon.
func (s *Store) Append(name string, ts time.Time, value metrics.Value) error {
	metric, ok := s.catalog.Lookup(name)
	if !ok {
		return &metrics.ErrUnknownMetric{Name: name}
	}
	if value.Kind() != metric.Kind() {
		return &metrics.ErrTypeMismatch{
			Metric:   name,
			Expected: metric.Kind(),
			Got:      value.Kind(),
		}
	}

	ts = ts.UTC()
	series := s.series[name]
	series.mu.Lock()
	defer series.mu.Unlock()

	if n := len(series.samples); n > 0 && !ts.After(series.samples[n-1].Timestamp) {
		return &ErrOutOfOrderSample{Metric: name, Timestamp: ts, Latest: series.samples[n-1].Timestamp}
	}

	series.samples = append(series.samples, metrics.Sample{Timestamp: ts, Value: value})
	series.evict(ts.Add(-s.retention))
	return nil
}

// evict drops samples at or before the cutoff. Called with the series lock
// held, immediately after an append, so an in-flight window evaluation works
// on the copy it already took and never loses samples it still needs.
func (ts *timeSeries) evict(cutoff time.Time) {
	first := 0
	for first < len(ts.samples) && !ts.samples[first].Timestamp.After(cutoff) {
		first++
	}
	if first > 0 {
		remaining := len(ts.samples) - first
		copy(ts.samples, ts.samples[first:])
		ts.samples = ts.samples[:remaining]
	}
}

// CurrentValue returns the most recent sample of a metric, ErrNoData if none
// was appended yet.
func (s *Store) CurrentValue(name string) (metrics.Sample, error) {
	series, ok := s.series[name]
	if !ok {
		return metrics.Sample{}, &metrics.ErrUnknownMetric{Name: name}
	}
	series.mu.RLock()
	defer series.mu.RUnlock()
	if len(series.samples) == 0 {
		return metrics.Sample{}, metrics.ErrNoData
	}
	return series.samples[len(series.samples)-1], nil
}

// ValuesInWindow returns a copy of the samples of a metric whose timestamp
// falls in (now-duration, now], oldest first. An empty window is not an
// error: the returned slice is simply empty.
func (s *Store) ValuesInWindow(name string, duration time.Duration, now time.Time) ([]metrics.Sample, error) {
	series, ok := s.series[name]
	if !ok {
		return nil, &metrics.ErrUnknownMetric{Name: name}
	}
	start, end := now.UTC().Add(-duration), now.UTC()

	series.mu.RLock()
	defer series.mu.RUnlock()
	var out []metrics.Sample
	for _, sample := range series.samples {
		if sample.Timestamp.After(start) && !sample.Timestamp.After(end) {
			out = append(out, sample)
		}
	}
	return out, nil
}

// LatestAt returns the most recent sample with notBefore < ts <= notAfter,
// ErrNoData if the interval holds none. Window predicates use it to resolve
// "the value as of" a past sample timestamp.
func (s *Store) LatestAt(name string, notAfter, notBefore time.Time) (metrics.Sample, error) {
	series, ok := s.series[name]
	if !ok {
		return metrics.Sample{}, &metrics.ErrUnknownMetric{Name: name}
	}
	series.mu.RLock()
	defer series.mu.RUnlock()
	for i := len(series.samples) - 1; i >= 0; i-- {
		ts := series.samples[i].Timestamp
		if ts.After(notAfter.UTC()) {
			continue
		}
		if !ts.After(notBefore.UTC()) {
			break
		}
		return series.samples[i], nil
	}
	return metrics.Sample{}, metrics.ErrNoData
}

// LatestValues returns the most recent sample of every metric that has one,
// keyed by metric name. The map is built fresh on every call; it is safe for
// the caller to keep.
func (s *Store) LatestValues() map[string]metrics.Sample {
	out := make(map[string]metrics.Sample, len(s.series))
	for name, series := range s.series {
		series.mu.RLock()
		if n := len(series.samples); n > 0 {
			out[name] = series.samples[n-1]
		}
		series.mu.RUnlock()
	}
	return out
}
