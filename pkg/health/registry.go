// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package health

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/vitalsd/vitals-agent/pkg/health/eval"
	"github.com/vitalsd/vitals-agent/pkg/metrics"
	"github.com/vitalsd/vitals-agent/pkg/store"
	"github.com/vitalsd/vitals-agent/pkg/util/log"
)

// retentionMargin is added on top of the longest rule window so samples at
// the old edge of a window survive eviction between two evaluations.
const retentionMargin = time.Minute

// Registry holds the compiled symptom catalog. The symptom set is fixed at
// load time; the only mutable piece is the tick lock serializing evaluations.
type Registry struct {
	tickMu   sync.Mutex
	catalog  *metrics.Catalog
	symptoms []*Symptom
	opts     eval.Opts
}

// SymptomState is the per-tick verdict of one symptom
type SymptomState struct {
	Name     string   `json:"name"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Active   bool     `json:"active"`
}

// SubserviceHealth aggregates a subservice's symptoms into one severity: the
// worst among the active ones, SeverityNone when none is active.
type SubserviceHealth struct {
	Subservice metrics.Subservice `json:"subservice"`
	Severity   Severity           `json:"severity"`
	Symptoms   []SymptomState     `json:"symptoms"`
}

// Diagnostic reports a symptom that could not be evaluated this tick, e.g.
// because a referenced metric has no samples yet.
type Diagnostic struct {
	Symptom string `json:"symptom"`
	Message string `json:"message"`
}

// LoadRegistry compiles a rule catalog in CSV form, expected header
// `name,severity,rule`. Loading is best-effort: a rule that fails to parse or
// compile is skipped and reported, the remaining rules still load. The
// returned registry is usable even when the error is non-nil; the error is a
// multierror naming every rejected rule.
func LoadRegistry(r io.Reader, catalog *metrics.Catalog, opts eval.Opts) (*Registry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read rule catalog header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"name", "severity", "rule"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("rule catalog header misses column `%s`", required)
		}
	}

	registry := &Registry{catalog: catalog, opts: opts}
	var loadErrs *multierror.Error
	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			loadErrs = multierror.Append(loadErrs, err)
			continue
		}

		name := record[cols["name"]]
		if seen[name] {
			loadErrs = multierror.Append(loadErrs, &ErrRuleLoad{Name: name, Err: fmt.Errorf("duplicate rule name")})
			continue
		}

		severity, err := ParseSeverity(record[cols["severity"]])
		if err != nil {
			loadErrs = multierror.Append(loadErrs, &ErrRuleLoad{Name: name, Err: err})
			continue
		}

		symptom, err := newSymptom(name, severity, record[cols["rule"]], catalog, opts)
		if err != nil {
			loadErrs = multierror.Append(loadErrs, &ErrRuleLoad{Name: name, Err: err})
			continue
		}
		seen[name] = true
		registry.symptoms = append(registry.symptoms, symptom)
	}
	return registry, loadErrs.ErrorOrNil()
}

// LoadRegistryFile compiles a rule catalog from a CSV file on disk
func LoadRegistryFile(path string, catalog *metrics.Catalog, opts eval.Opts) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open rule catalog `%s`", path)
	}
	defer f.Close()
	return LoadRegistry(f, catalog, opts)
}

// Symptoms returns the loaded symptoms in catalog order
func (r *Registry) Symptoms() []*Symptom {
	return r.symptoms
}

// MaxWindow returns the longest look-back any loaded rule needs
func (r *Registry) MaxWindow() time.Duration {
	var max time.Duration
	for _, s := range r.symptoms {
		if w := s.MaxWindow(); w > max {
			max = w
		}
	}
	return max
}

// Retention returns the store retention horizon the loaded rules require
func (r *Registry) Retention() time.Duration {
	return r.MaxWindow() + retentionMargin
}

// Tick evaluates every symptom against the store as of now and aggregates the
// verdicts per subservice. Ticks are serialized: a call blocks until the
// previous one finished, so two evaluations never interleave. A symptom whose
// rule hits missing data reports inactive plus a diagnostic; it never aborts
// the tick.
func (r *Registry) Tick(st *store.Store, now time.Time) (map[metrics.Subservice]*SubserviceHealth, []Diagnostic) {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()

	byService := make(map[metrics.Subservice]*SubserviceHealth)
	for _, ss := range r.catalog.Subservices() {
		byService[ss] = &SubserviceHealth{Subservice: ss, Severity: SeverityNone}
	}

	var diagnostics []Diagnostic
	for _, symptom := range r.symptoms {
		ctx := &eval.Context{Store: st, Now: now}
		active, err := symptom.evaluator.Eval(ctx)
		if err != nil {
			active = false
			if errors.Is(err, metrics.ErrNoData) {
				diagnostics = append(diagnostics, Diagnostic{
					Symptom: symptom.Name(),
					Message: fmt.Sprintf("not evaluated: %v", err),
				})
			} else {
				// data-dependent failures other than missing samples should
				// not happen once a rule compiled; log them loudly
				log.Errorf("symptom %s failed to evaluate: %v", symptom.Name(), err)
				diagnostics = append(diagnostics, Diagnostic{
					Symptom: symptom.Name(),
					Message: fmt.Sprintf("evaluation error: %v", err),
				})
			}
		}

		state := SymptomState{
			Name:     symptom.Name(),
			Rule:     symptom.Rule(),
			Severity: symptom.Severity(),
			Active:   active,
		}
		for _, ss := range symptom.Subservices() {
			sh, ok := byService[ss]
			if !ok {
				sh = &SubserviceHealth{Subservice: ss, Severity: SeverityNone}
				byService[ss] = sh
			}
			sh.Symptoms = append(sh.Symptoms, state)
			if active && state.Severity > sh.Severity {
				sh.Severity = state.Severity
			}
		}
	}
	return byService, diagnostics
}
