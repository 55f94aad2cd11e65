// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package eval

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalsd/vitals-agent/pkg/health/ast"
	"github.com/vitalsd/vitals-agent/pkg/metrics"
	"github.com/vitalsd/vitals-agent/pkg/store"
)

const testCatalogCSV = `name,subservice,type,is_list,unit,counter
bm_cpu_count,cpu,int,0,,0
bm_cpu_user_time,cpu,float,1,%,0
bm_cpu_idle_time,cpu,float,1,%,0
bm_mem_swap_pct,mem,float,0,%,0
bm_mem_available,mem,float,0,MB,0
bm_proc_state,proc,str,0,,0
`

func testCatalog(t *testing.T) *metrics.Catalog {
	t.Helper()
	catalog, err := metrics.LoadCatalog(strings.NewReader(testCatalogCSV))
	require.NoError(t, err)
	return catalog
}

func compile(t *testing.T, catalog *metrics.Catalog, expr string, opts Opts) *RuleEvaluator {
	t.Helper()
	rule, err := ast.ParseRule(expr)
	require.NoError(t, err)
	evaluator, err := Compile(rule, catalog, opts)
	require.NoError(t, err)
	return evaluator
}

var testBase = time.Date(2023, 4, 12, 10, 0, 0, 0, time.UTC)

func TestCompileSemanticErrors(t *testing.T) {
	catalog := testCatalog(t)
	tests := []struct {
		expr string
		err  interface{}
	}{
		{"bm_unknown > 1", &metrics.ErrUnknownMetric{}},
		{"any(bm_mem_swap_pct > 80)", &ErrSemantic{}},
		{"all(bm_cpu_count > 4)", &ErrSemantic{}},
		{"bm_cpu_user_time > 95", &ErrSemantic{}},
		{"any(all(bm_cpu_user_time > 95))", &ErrSemantic{}},
		{"any(1min(bm_cpu_user_time > 95))", &ErrSemantic{}},
		{"any(bm_cpu_user_time > 95 AND bm_cpu_idle_time < 5)", &ErrSemantic{}},
		{`bm_proc_state > "up"`, &ErrSemantic{}},
		{"0min(bm_mem_swap_pct > 80)", &ErrSemantic{}},
		{"bm_proc_state == 5", &metrics.ErrTypeMismatch{}},
		{`bm_mem_swap_pct == "high"`, &metrics.ErrTypeMismatch{}},
	}
	for _, test := range tests {
		rule, err := ast.ParseRule(test.expr)
		require.NoError(t, err, test.expr)
		_, err = Compile(rule, catalog, Opts{})
		require.Error(t, err, test.expr)
		assert.IsType(t, test.err, err, test.expr)
	}
}

// A quantifier binds elements of the current list sample; replaying a window
// under that binding would judge history against today's elements. Such rules
// are rejected at load, the window belongs outside the quantifier.
func TestCompileRejectsWindowInsideQuantifier(t *testing.T) {
	catalog := testCatalog(t)
	rule, err := ast.ParseRule("any(1min(bm_cpu_user_time > 95))")
	require.NoError(t, err)

	_, err = Compile(rule, catalog, Opts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window `1min` nested inside quantifier `any`")

	// the equivalent rule with the window outside compiles
	compile(t, catalog, "1min(any(bm_cpu_user_time > 95))", Opts{})
}

func TestCompileTracksReferencedMetrics(t *testing.T) {
	catalog := testCatalog(t)
	evaluator := compile(t, catalog, "bm_mem_swap_pct > 80 AND any(bm_cpu_user_time > 95)", Opts{})

	var names []string
	for _, m := range evaluator.Metrics() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"bm_mem_swap_pct", "bm_cpu_user_time"}, names)
}

func TestMaxWindowAccumulatesNested(t *testing.T) {
	catalog := testCatalog(t)

	evaluator := compile(t, catalog, "5min(bm_mem_swap_pct > 80)", Opts{})
	assert.Equal(t, 5*time.Minute, evaluator.MaxWindow())

	evaluator = compile(t, catalog, "5min(2min(bm_mem_swap_pct > 80))", Opts{})
	assert.Equal(t, 7*time.Minute, evaluator.MaxWindow())

	evaluator = compile(t, catalog, "bm_mem_swap_pct > 80", Opts{})
	assert.Equal(t, time.Duration(0), evaluator.MaxWindow())
}

func TestEvalScalarComparison(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)
	require.NoError(t, st.Append("bm_mem_swap_pct", testBase, metrics.NewScalar(85)))

	tests := []struct {
		expr   string
		expect bool
	}{
		{"bm_mem_swap_pct > 80", true},
		{"bm_mem_swap_pct > 90", false},
		{"bm_mem_swap_pct >= 85", true},
		{"bm_mem_swap_pct <= 85", true},
		{"bm_mem_swap_pct == 85", true},
		{"bm_mem_swap_pct != 85", false},
		{"bm_mem_swap_pct < 80", false},
	}
	for _, test := range tests {
		evaluator := compile(t, catalog, test.expr, Opts{})
		got, err := evaluator.Eval(&Context{Store: st, Now: testBase})
		require.NoError(t, err, test.expr)
		assert.Equal(t, test.expect, got, test.expr)
	}
}

func TestEvalStringComparison(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)
	require.NoError(t, st.Append("bm_proc_state", testBase, metrics.NewString("running")))

	evaluator := compile(t, catalog, `bm_proc_state == "running"`, Opts{})
	got, err := evaluator.Eval(&Context{Store: st, Now: testBase})
	require.NoError(t, err)
	assert.True(t, got)

	evaluator = compile(t, catalog, `bm_proc_state != "running"`, Opts{})
	got, err = evaluator.Eval(&Context{Store: st, Now: testBase})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvalQuantifiers(t *testing.T) {
	catalog := testCatalog(t)

	tests := []struct {
		name   string
		list   []float64
		expr   string
		expect bool
	}{
		{"all true", []float64{96, 97.2}, "all(bm_cpu_user_time > 95)", true},
		{"all one below", []float64{96, 50}, "all(bm_cpu_user_time > 95)", false},
		{"any one above", []float64{96, 50}, "any(bm_cpu_user_time > 95)", true},
		{"any none above", []float64{10, 50}, "any(bm_cpu_user_time > 95)", false},
		{"all empty list", nil, "all(bm_cpu_user_time > 95)", true},
		{"any empty list", nil, "any(bm_cpu_user_time > 95)", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			st := store.NewStore(catalog, time.Hour)
			require.NoError(t, st.Append("bm_cpu_user_time", testBase, metrics.NewList(test.list)))

			evaluator := compile(t, catalog, test.expr, Opts{})
			got, err := evaluator.Eval(&Context{Store: st, Now: testBase})
			require.NoError(t, err)
			assert.Equal(t, test.expect, got)
		})
	}
}

func TestEvalQuantifierBandCondition(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)
	require.NoError(t, st.Append("bm_cpu_user_time", testBase, metrics.NewList([]float64{96, 50})))

	// two comparisons on the same list metric share the element binding
	evaluator := compile(t, catalog, "any(bm_cpu_user_time > 95 AND bm_cpu_user_time < 100)", Opts{})
	got, err := evaluator.Eval(&Context{Store: st, Now: testBase})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalBooleanOperators(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)
	require.NoError(t, st.Append("bm_mem_swap_pct", testBase, metrics.NewScalar(85)))
	require.NoError(t, st.Append("bm_mem_available", testBase, metrics.NewScalar(2048)))

	tests := []struct {
		expr   string
		expect bool
	}{
		{"bm_mem_swap_pct > 80 AND bm_mem_available < 4096", true},
		{"bm_mem_swap_pct > 90 AND bm_mem_available < 4096", false},
		{"bm_mem_swap_pct > 90 OR bm_mem_available < 4096", true},
		{"bm_mem_swap_pct > 90 OR bm_mem_available > 4096", false},
		{"(bm_mem_swap_pct > 90 OR bm_mem_available < 4096) AND bm_mem_swap_pct > 80", true},
	}
	for _, test := range tests {
		evaluator := compile(t, catalog, test.expr, Opts{})
		got, err := evaluator.Eval(&Context{Store: st, Now: testBase})
		require.NoError(t, err, test.expr)
		assert.Equal(t, test.expect, got, test.expr)
	}
}

func TestEvalShortCircuit(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)
	// bm_mem_available has no samples; the left operand decides alone
	require.NoError(t, st.Append("bm_mem_swap_pct", testBase, metrics.NewScalar(85)))

	evaluator := compile(t, catalog, "bm_mem_swap_pct > 80 OR bm_mem_available < 100", Opts{})
	got, err := evaluator.Eval(&Context{Store: st, Now: testBase})
	require.NoError(t, err)
	assert.True(t, got)

	evaluator = compile(t, catalog, "bm_mem_swap_pct > 90 AND bm_mem_available < 100", Opts{})
	got, err = evaluator.Eval(&Context{Store: st, Now: testBase})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvalNoData(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)

	evaluator := compile(t, catalog, "bm_mem_swap_pct > 80", Opts{})
	_, err := evaluator.Eval(&Context{Store: st, Now: testBase})
	require.Error(t, err)
	assert.ErrorIs(t, err, metrics.ErrNoData)
}

// fillWindow appends a scalar sample every interval, the first one at
// start+interval, the last one at start+count*interval.
func fillWindow(t *testing.T, st *store.Store, name string, start time.Time, interval time.Duration, values []float64) {
	t.Helper()
	for i, v := range values {
		ts := start.Add(time.Duration(i+1) * interval)
		require.NoError(t, st.Append(name, ts, metrics.NewScalar(v)))
	}
}

func TestEvalWindowContinuouslyTrue(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)
	opts := Opts{SampleInterval: 3 * time.Second}

	values := make([]float64, 20)
	for i := range values {
		values[i] = 85
	}
	fillWindow(t, st, "bm_mem_swap_pct", testBase, 3*time.Second, values)

	evaluator := compile(t, catalog, "1min(bm_mem_swap_pct > 80)", opts)
	got, err := evaluator.Eval(&Context{Store: st, Now: testBase.Add(time.Minute)})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalWindowOneDipBreaksIt(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)
	opts := Opts{SampleInterval: 3 * time.Second}

	values := make([]float64, 20)
	for i := range values {
		values[i] = 85
	}
	values[12] = 60
	fillWindow(t, st, "bm_mem_swap_pct", testBase, 3*time.Second, values)

	evaluator := compile(t, catalog, "1min(bm_mem_swap_pct > 80)", opts)
	got, err := evaluator.Eval(&Context{Store: st, Now: testBase.Add(time.Minute)})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvalWindowShortHistory(t *testing.T) {
	catalog := testCatalog(t)
	opts := Opts{SampleInterval: 3 * time.Second}

	// 30 seconds of history for a one-minute window
	st := store.NewStore(catalog, time.Hour)
	values := make([]float64, 10)
	for i := range values {
		values[i] = 85
	}
	fillWindow(t, st, "bm_mem_swap_pct", testBase.Add(30*time.Second), 3*time.Second, values)

	evaluator := compile(t, catalog, "1min(bm_mem_swap_pct > 80)", opts)
	got, err := evaluator.Eval(&Context{Store: st, Now: testBase.Add(time.Minute)})
	require.NoError(t, err)
	assert.False(t, got, "short history must not count as continuously true")

	opts.Coverage = CoverageAvailable
	evaluator = compile(t, catalog, "1min(bm_mem_swap_pct > 80)", opts)
	got, err = evaluator.Eval(&Context{Store: st, Now: testBase.Add(time.Minute)})
	require.NoError(t, err)
	assert.True(t, got, "available coverage accepts a partial window")
}

func TestEvalWindowEmpty(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)
	opts := Opts{SampleInterval: 3 * time.Second}

	evaluator := compile(t, catalog, "1min(bm_mem_swap_pct > 80)", opts)
	got, err := evaluator.Eval(&Context{Store: st, Now: testBase.Add(time.Minute)})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvalWindowMissingSecondMetric(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)
	opts := Opts{SampleInterval: 3 * time.Second}

	values := make([]float64, 20)
	for i := range values {
		values[i] = 85
	}
	fillWindow(t, st, "bm_mem_swap_pct", testBase, 3*time.Second, values)

	// bm_mem_available has no samples at all: the conjunction cannot have
	// been continuously true, but this is not an evaluation error
	evaluator := compile(t, catalog, "1min(bm_mem_swap_pct > 80 AND bm_mem_available < 100)", opts)
	got, err := evaluator.Eval(&Context{Store: st, Now: testBase.Add(time.Minute)})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvalWindowOverQuantifier(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)
	opts := Opts{SampleInterval: 3 * time.Second}

	for i := 0; i < 20; i++ {
		ts := testBase.Add(time.Duration(i+1) * 3 * time.Second)
		require.NoError(t, st.Append("bm_cpu_user_time", ts, metrics.NewList([]float64{96, 97.2})))
	}

	evaluator := compile(t, catalog, "1min(any(bm_cpu_user_time > 95))", opts)
	got, err := evaluator.Eval(&Context{Store: st, Now: testBase.Add(time.Minute)})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalIsRepeatable(t *testing.T) {
	catalog := testCatalog(t)
	st := store.NewStore(catalog, time.Hour)
	require.NoError(t, st.Append("bm_cpu_user_time", testBase, metrics.NewList([]float64{96, 50})))

	evaluator := compile(t, catalog, "any(bm_cpu_user_time > 95)", Opts{})
	ctx := &Context{Store: st, Now: testBase}
	for i := 0; i < 3; i++ {
		got, err := evaluator.Eval(ctx)
		require.NoError(t, err)
		assert.True(t, got)
	}
}

func TestParseCoverage(t *testing.T) {
	cov, err := ParseCoverage("full")
	require.NoError(t, err)
	assert.Equal(t, CoverageFull, cov)

	cov, err = ParseCoverage("available")
	require.NoError(t, err)
	assert.Equal(t, CoverageAvailable, cov)

	cov, err = ParseCoverage("")
	require.NoError(t, err)
	assert.Equal(t, CoverageFull, cov)

	_, err = ParseCoverage("sometimes")
	assert.Error(t, err)
}
