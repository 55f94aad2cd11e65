// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package eval compiles parsed symptom rules into evaluator trees and runs
// them against the metric store. Compilation happens once per rule at load
// time and performs the semantic validation the context-free grammar defers:
// unknown metrics, quantifiers over scalar metrics, bare comparisons on
// list-valued metrics and literal/metric type clashes are all load errors.
// Evaluation is a pure function of the tree and the store's current contents;
// the only evaluation-time data error left is ErrNoData.
package eval

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/vitalsd/vitals-agent/pkg/health/ast"
	"github.com/vitalsd/vitals-agent/pkg/metrics"
	"github.com/vitalsd/vitals-agent/pkg/store"
)

// Coverage selects how a window predicate treats history shorter than the
// requested window.
type Coverage int

const (
	// CoverageFull requires retained samples to span the whole window:
	// "not enough history" is not "continuously true". This is the default.
	CoverageFull Coverage = iota
	// CoverageAvailable accepts any non-empty window
	CoverageAvailable
)

// ParseCoverage parses the window_coverage configuration value
func ParseCoverage(s string) (Coverage, error) {
	switch s {
	case "", "full":
		return CoverageFull, nil
	case "available":
		return CoverageAvailable, nil
	}
	return CoverageFull, fmt.Errorf("unknown window coverage mode `%s`", s)
}

const defaultSampleInterval = 3 * time.Second

// Opts are the options passed to the compiler
type Opts struct {
	Coverage Coverage
	// SampleInterval is the collection cadence; full-coverage windows allow
	// one interval of slack at their old edge.
	SampleInterval time.Duration
}

func (o Opts) slack() time.Duration {
	if o.SampleInterval > 0 {
		return o.SampleInterval
	}
	return defaultSampleInterval
}

// Context carries the inputs of one evaluation. The transient fields are
// managed by the evaluator nodes themselves; callers only set Store and Now.
type Context struct {
	Store *store.Store
	Now   time.Time

	// at is the past sample timestamp being replayed by an enclosing window
	// predicate; zero means "evaluate against the latest samples"
	at          time.Time
	windowStart time.Time

	// element binding of the innermost active quantifier
	quantActive bool
	quantMetric string
	quantValue  float64
}

func (c *Context) effectiveNow() time.Time {
	if c.at.IsZero() {
		return c.Now
	}
	return c.at
}

func (c *Context) resolve(name string) (metrics.Sample, error) {
	if c.at.IsZero() {
		return c.Store.CurrentValue(name)
	}
	return c.Store.LatestAt(name, c.at, c.windowStart)
}

type node interface {
	eval(ctx *Context) (bool, error)
}

// RuleEvaluator is the compiled, immutable form of one symptom rule
type RuleEvaluator struct {
	root      node
	refs      []*metrics.Metric
	maxWindow time.Duration
}

// Eval evaluates the rule against the store's current contents. It never
// mutates shared state; ErrNoData and eval-time type mismatches propagate to
// the caller.
func (e *RuleEvaluator) Eval(ctx *Context) (bool, error) {
	ctx.at = time.Time{}
	ctx.windowStart = time.Time{}
	ctx.quantActive = false
	return e.root.eval(ctx)
}

// Metrics returns the metrics the rule references, in first-reference order.
// The registry derives a symptom's subservice set from them.
func (e *RuleEvaluator) Metrics() []*metrics.Metric {
	return e.refs
}

// MaxWindow returns the longest (cumulated, for nested predicates) window the
// rule looks back over; the store's retention horizon must cover it.
func (e *RuleEvaluator) MaxWindow() time.Duration {
	return e.maxWindow
}

// Compile turns a parsed rule into an evaluator, running the semantic pass
// against the metric catalog.
func Compile(rule *ast.Rule, catalog *metrics.Catalog, opts Opts) (*RuleEvaluator, error) {
	c := &compiler{catalog: catalog, opts: opts}
	refs := newRefSet()
	root, err := c.compileExpression(rule.Expr, refs, nil, 0)
	if err != nil {
		return nil, err
	}
	return &RuleEvaluator{
		root:      root,
		refs:      refs.ordered,
		maxWindow: c.maxWindow,
	}, nil
}

type compiler struct {
	catalog   *metrics.Catalog
	opts      Opts
	maxWindow time.Duration
}

// refSet collects the metrics referenced by a subtree, preserving
// first-reference order
type refSet struct {
	seen    map[string]bool
	ordered []*metrics.Metric
}

func newRefSet() *refSet {
	return &refSet{seen: make(map[string]bool)}
}

func (r *refSet) add(m *metrics.Metric) {
	if !r.seen[m.Name] {
		r.seen[m.Name] = true
		r.ordered = append(r.ordered, m)
	}
}

func (r *refSet) merge(other *refSet) {
	for _, m := range other.ordered {
		r.add(m)
	}
}

// quantScope tracks the list-valued metrics referenced inside a quantifier
type quantScope struct {
	op          string
	listMetrics []*metrics.Metric
}

func (c *compiler) compileExpression(e *ast.Expression, refs *refSet, quant *quantScope, depth time.Duration) (node, error) {
	first, err := c.compileAnd(e.First, refs, quant, depth)
	if err != nil {
		return nil, err
	}
	if len(e.Rest) == 0 {
		return first, nil
	}
	operands := []node{first}
	for _, and := range e.Rest {
		n, err := c.compileAnd(and, refs, quant, depth)
		if err != nil {
			return nil, err
		}
		operands = append(operands, n)
	}
	return &orNode{operands: operands}, nil
}

func (c *compiler) compileAnd(a *ast.AndExpression, refs *refSet, quant *quantScope, depth time.Duration) (node, error) {
	first, err := c.compileTerm(a.First, refs, quant, depth)
	if err != nil {
		return nil, err
	}
	if len(a.Rest) == 0 {
		return first, nil
	}
	operands := []node{first}
	for _, term := range a.Rest {
		n, err := c.compileTerm(term, refs, quant, depth)
		if err != nil {
			return nil, err
		}
		operands = append(operands, n)
	}
	return &andNode{operands: operands}, nil
}

func (c *compiler) compileTerm(t *ast.Term, refs *refSet, quant *quantScope, depth time.Duration) (node, error) {
	switch {
	case t.Window != nil:
		return c.compileWindow(t.Window, refs, quant, depth)
	case t.Quantifier != nil:
		return c.compileQuantifier(t.Quantifier, refs, quant, depth)
	case t.Sub != nil:
		return c.compileExpression(t.Sub, refs, quant, depth)
	default:
		return c.compileComparison(t.Comparison, refs, quant)
	}
}

func (c *compiler) compileWindow(w *ast.WindowExpression, refs *refSet, quant *quantScope, depth time.Duration) (node, error) {
	// a quantifier binds elements of the current list sample only; a window
	// replaying past samples under that binding has no meaning. The window
	// goes outside: Nmin(any(...)), not any(Nmin(...)).
	if quant != nil {
		return nil, &ErrSemantic{Position: w.Pos, Reason: fmt.Sprintf("window `%s` nested inside quantifier `%s`", w.Duration, quant.op)}
	}
	minutes := w.Minutes()
	if minutes <= 0 {
		return nil, &ErrSemantic{Position: w.Pos, Reason: "zero-length window"}
	}
	duration := time.Duration(minutes) * time.Minute
	if total := depth + duration; total > c.maxWindow {
		c.maxWindow = total
	}

	inner := newRefSet()
	n, err := c.compileExpression(w.Expr, inner, quant, depth+duration)
	if err != nil {
		return nil, err
	}
	refs.merge(inner)

	names := make([]string, 0, len(inner.ordered))
	for _, m := range inner.ordered {
		names = append(names, m.Name)
	}
	return &windowNode{
		duration: duration,
		inner:    n,
		metrics:  names,
		opts:     c.opts,
	}, nil
}

func (c *compiler) compileQuantifier(q *ast.QuantifierExpression, refs *refSet, quant *quantScope, depth time.Duration) (node, error) {
	if quant != nil {
		return nil, &ErrSemantic{Position: q.Pos, Reason: fmt.Sprintf("quantifier `%s` nested inside `%s`", q.Op, quant.op)}
	}

	scope := &quantScope{op: q.Op}
	inner := newRefSet()
	n, err := c.compileExpression(q.Expr, inner, scope, depth)
	if err != nil {
		return nil, err
	}
	refs.merge(inner)

	switch len(scope.listMetrics) {
	case 0:
		reason := fmt.Sprintf("quantifier `%s` requires a list-valued metric", q.Op)
		if len(inner.ordered) > 0 {
			reason = fmt.Sprintf("quantifier `%s` applied to scalar metric `%s`", q.Op, inner.ordered[0].Name)
		}
		return nil, &ErrSemantic{Position: q.Pos, Reason: reason}
	case 1:
	default:
		return nil, &ErrSemantic{Position: q.Pos, Reason: fmt.Sprintf("quantifier `%s` spans multiple list metrics `%s` and `%s`",
			q.Op, scope.listMetrics[0].Name, scope.listMetrics[1].Name)}
	}

	return &quantifierNode{
		all:    q.Op == "all",
		metric: scope.listMetrics[0],
		inner:  n,
	}, nil
}

func (c *compiler) compileComparison(cmp *ast.Comparison, refs *refSet, quant *quantScope) (node, error) {
	metric, ok := c.catalog.Lookup(cmp.Metric)
	if !ok {
		return nil, &metrics.ErrUnknownMetric{Name: cmp.Metric}
	}
	refs.add(metric)

	isString := cmp.Value.Str != nil
	if isString {
		if metric.Numeric() {
			return nil, &metrics.ErrTypeMismatch{Metric: metric.Name, Expected: metric.Kind(), Got: metrics.KindString}
		}
		if cmp.Op != "==" && cmp.Op != "!=" {
			return nil, &ErrSemantic{Position: cmp.Pos, Reason: fmt.Sprintf("ordering comparison `%s` on string metric `%s`", cmp.Op, metric.Name)}
		}
	} else if metric.Type == metrics.TypeStr {
		return nil, &metrics.ErrTypeMismatch{Metric: metric.Name, Expected: metrics.KindString, Got: metrics.KindScalar}
	}

	if metric.IsList {
		if quant == nil {
			return nil, &ErrSemantic{Position: cmp.Pos, Reason: fmt.Sprintf("list-valued metric `%s` requires any() or all()", metric.Name)}
		}
		known := false
		for _, m := range quant.listMetrics {
			if m.Name == metric.Name {
				known = true
				break
			}
		}
		if !known {
			quant.listMetrics = append(quant.listMetrics, metric)
		}
	}

	n := &comparisonNode{metric: metric, op: cmp.Op, isString: isString}
	if isString {
		n.str = *cmp.Value.Str
	} else {
		n.number = *cmp.Value.Number
	}
	return n, nil
}

type orNode struct {
	operands []node
}

func (n *orNode) eval(ctx *Context) (bool, error) {
	for _, operand := range n.operands {
		ok, err := operand.eval(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type andNode struct {
	operands []node
}

func (n *andNode) eval(ctx *Context) (bool, error) {
	for _, operand := range n.operands {
		ok, err := operand.eval(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

type comparisonNode struct {
	metric   *metrics.Metric
	op       string
	number   float64
	str      string
	isString bool
}

func (n *comparisonNode) eval(ctx *Context) (bool, error) {
	if n.metric.IsList {
		// the semantic pass guarantees an enclosing quantifier bound this metric
		if !ctx.quantActive || ctx.quantMetric != n.metric.Name {
			return false, &metrics.ErrTypeMismatch{Metric: n.metric.Name, Expected: metrics.KindScalar, Got: metrics.KindList}
		}
		return compareNumbers(ctx.quantValue, n.op, n.number)
	}

	sample, err := ctx.resolve(n.metric.Name)
	if err != nil {
		return false, err
	}
	if n.isString {
		s, ok := sample.Value.Str()
		if !ok {
			return false, &metrics.ErrTypeMismatch{Metric: n.metric.Name, Expected: metrics.KindString, Got: sample.Value.Kind()}
		}
		return compareStrings(s, n.op, n.str)
	}
	v, ok := sample.Value.Scalar()
	if !ok {
		return false, &metrics.ErrTypeMismatch{Metric: n.metric.Name, Expected: metrics.KindScalar, Got: sample.Value.Kind()}
	}
	return compareNumbers(v, n.op, n.number)
}

type quantifierNode struct {
	all    bool
	metric *metrics.Metric
	inner  node
}

func (n *quantifierNode) eval(ctx *Context) (bool, error) {
	sample, err := ctx.resolve(n.metric.Name)
	if err != nil {
		return false, err
	}
	list, ok := sample.Value.List()
	if !ok {
		return false, &metrics.ErrTypeMismatch{Metric: n.metric.Name, Expected: metrics.KindList, Got: sample.Value.Kind()}
	}

	prevActive, prevMetric, prevValue := ctx.quantActive, ctx.quantMetric, ctx.quantValue
	defer func() {
		ctx.quantActive, ctx.quantMetric, ctx.quantValue = prevActive, prevMetric, prevValue
	}()
	ctx.quantActive = true
	ctx.quantMetric = n.metric.Name

	// vacuous truth: all() over an empty list is true, any() is false
	for _, elem := range list {
		ctx.quantValue = elem
		ok, err := n.inner.eval(ctx)
		if err != nil {
			return false, err
		}
		if n.all && !ok {
			return false, nil
		}
		if !n.all && ok {
			return true, nil
		}
	}
	return n.all, nil
}

type windowNode struct {
	duration time.Duration
	inner    node
	metrics  []string
	opts     Opts
}

func (n *windowNode) eval(ctx *Context) (bool, error) {
	now := ctx.effectiveNow()
	start := now.Add(-n.duration)

	var stamps []time.Time
	for _, name := range n.metrics {
		samples, err := ctx.Store.ValuesInWindow(name, n.duration, now)
		if err != nil {
			return false, err
		}
		for _, sample := range samples {
			stamps = append(stamps, sample.Timestamp)
		}
	}
	// an empty window is false: "not enough history" is not "continuously true"
	if len(stamps) == 0 {
		return false, nil
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	stamps = dedupeStamps(stamps)

	if n.opts.Coverage == CoverageFull && stamps[0].After(start.Add(n.opts.slack())) {
		return false, nil
	}

	prevAt, prevStart := ctx.at, ctx.windowStart
	defer func() { ctx.at, ctx.windowStart = prevAt, prevStart }()
	ctx.windowStart = start

	for _, ts := range stamps {
		ctx.at = ts
		ok, err := n.inner.eval(ctx)
		if err != nil {
			// a referenced metric with no sample at this point of the window
			// cannot have been continuously true
			if errors.Is(err, metrics.ErrNoData) {
				return false, nil
			}
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func dedupeStamps(stamps []time.Time) []time.Time {
	out := stamps[:1]
	for _, ts := range stamps[1:] {
		if !ts.Equal(out[len(out)-1]) {
			out = append(out, ts)
		}
	}
	return out
}
