// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalsd/vitals-agent/pkg/metrics"
)

const testCatalogCSV = `name,subservice,type,is_list,unit,counter
bm_mem_swap_pct,mem,float,0,%,0
bm_cpu_user_time,cpu,float,1,%,0
bm_proc_state,proc,str,0,,0
`

func testCatalog(t *testing.T) *metrics.Catalog {
	t.Helper()
	catalog, err := metrics.LoadCatalog(strings.NewReader(testCatalogCSV))
	require.NoError(t, err)
	return catalog
}

var base = time.Date(2023, 4, 12, 10, 0, 0, 0, time.UTC)

func TestAppendAndCurrentValue(t *testing.T) {
	st := NewStore(testCatalog(t), time.Hour)

	_, err := st.CurrentValue("bm_mem_swap_pct")
	assert.ErrorIs(t, err, metrics.ErrNoData)

	require.NoError(t, st.Append("bm_mem_swap_pct", base, metrics.NewScalar(42)))
	require.NoError(t, st.Append("bm_mem_swap_pct", base.Add(3*time.Second), metrics.NewScalar(43)))

	sample, err := st.CurrentValue("bm_mem_swap_pct")
	require.NoError(t, err)
	v, ok := sample.Value.Scalar()
	require.True(t, ok)
	assert.Equal(t, 43.0, v)
	assert.Equal(t, base.Add(3*time.Second), sample.Timestamp)
}

func TestAppendUnknownMetric(t *testing.T) {
	st := NewStore(testCatalog(t), time.Hour)
	err := st.Append("bm_gpu_usage", base, metrics.NewScalar(1))
	require.Error(t, err)
	assert.IsType(t, &metrics.ErrUnknownMetric{}, err)
}

func TestAppendTypeMismatchDoesNotMutate(t *testing.T) {
	st := NewStore(testCatalog(t), time.Hour)
	require.NoError(t, st.Append("bm_mem_swap_pct", base, metrics.NewScalar(42)))

	err := st.Append("bm_mem_swap_pct", base.Add(time.Second), metrics.NewList([]float64{1, 2}))
	require.Error(t, err)
	assert.IsType(t, &metrics.ErrTypeMismatch{}, err)

	// the failed append left the series untouched
	sample, err := st.CurrentValue("bm_mem_swap_pct")
	require.NoError(t, err)
	assert.Equal(t, base, sample.Timestamp)
}

func TestAppendOutOfOrder(t *testing.T) {
	st := NewStore(testCatalog(t), time.Hour)
	require.NoError(t, st.Append("bm_mem_swap_pct", base, metrics.NewScalar(42)))

	err := st.Append("bm_mem_swap_pct", base.Add(-time.Second), metrics.NewScalar(43))
	require.Error(t, err)
	assert.IsType(t, &ErrOutOfOrderSample{}, err)

	// same timestamp is also rejected
	err = st.Append("bm_mem_swap_pct", base, metrics.NewScalar(43))
	assert.IsType(t, &ErrOutOfOrderSample{}, err)
}

func TestAppendEvictsOldSamples(t *testing.T) {
	st := NewStore(testCatalog(t), time.Minute)
	for i := 0; i < 30; i++ {
		ts := base.Add(time.Duration(i) * 10 * time.Second)
		require.NoError(t, st.Append("bm_mem_swap_pct", ts, metrics.NewScalar(float64(i))))
	}

	// 30 appends 10s apart with one minute retention leave the trailing window
	last := base.Add(290 * time.Second)
	samples, err := st.ValuesInWindow("bm_mem_swap_pct", time.Hour, last)
	require.NoError(t, err)
	require.NotEmpty(t, samples)
	assert.True(t, samples[0].Timestamp.After(last.Add(-time.Minute-time.Second)))
	assert.Equal(t, last, samples[len(samples)-1].Timestamp)
}

func TestValuesInWindow(t *testing.T) {
	st := NewStore(testCatalog(t), time.Hour)
	for i := 0; i < 10; i++ {
		ts := base.Add(time.Duration(i) * 10 * time.Second)
		require.NoError(t, st.Append("bm_mem_swap_pct", ts, metrics.NewScalar(float64(i))))
	}

	now := base.Add(90 * time.Second)
	samples, err := st.ValuesInWindow("bm_mem_swap_pct", 30*time.Second, now)
	require.NoError(t, err)
	// (now-30s, now] holds the samples at +70, +80, +90
	require.Len(t, samples, 3)
	v, _ := samples[0].Value.Scalar()
	assert.Equal(t, 7.0, v)

	samples, err = st.ValuesInWindow("bm_cpu_user_time", time.Minute, now)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestLatestAt(t *testing.T) {
	st := NewStore(testCatalog(t), time.Hour)
	for i := 0; i < 10; i++ {
		ts := base.Add(time.Duration(i) * 10 * time.Second)
		require.NoError(t, st.Append("bm_mem_swap_pct", ts, metrics.NewScalar(float64(i))))
	}

	sample, err := st.LatestAt("bm_mem_swap_pct", base.Add(35*time.Second), base)
	require.NoError(t, err)
	v, _ := sample.Value.Scalar()
	assert.Equal(t, 3.0, v)

	// nothing in (notBefore, notAfter]
	_, err = st.LatestAt("bm_mem_swap_pct", base.Add(-time.Minute), base.Add(-2*time.Minute))
	assert.ErrorIs(t, err, metrics.ErrNoData)

	// notBefore excludes samples at or before it
	_, err = st.LatestAt("bm_mem_swap_pct", base.Add(5*time.Second), base.Add(time.Second))
	assert.ErrorIs(t, err, metrics.ErrNoData)
}

func TestLatestValues(t *testing.T) {
	st := NewStore(testCatalog(t), time.Hour)
	require.NoError(t, st.Append("bm_mem_swap_pct", base, metrics.NewScalar(42)))
	require.NoError(t, st.Append("bm_proc_state", base, metrics.NewString("running")))

	latest := st.LatestValues()
	require.Len(t, latest, 2)
	v, _ := latest["bm_mem_swap_pct"].Value.Scalar()
	assert.Equal(t, 42.0, v)
	s, _ := latest["bm_proc_state"].Value.Str()
	assert.Equal(t, "running", s)
}
