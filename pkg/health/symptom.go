// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package health

import (
	"time"

	"github.com/vitalsd/vitals-agent/pkg/health/ast"
	"github.com/vitalsd/vitals-agent/pkg/health/eval"
	"github.com/vitalsd/vitals-agent/pkg/metrics"
)

// Symptom is one compiled rule of the catalog: a named condition, the
// severity it signals when true, and the subservices it speaks for. Symptoms
// are built at load time and never mutated afterwards.
type Symptom struct {
	name        string
	severity    Severity
	rule        string
	evaluator   *eval.RuleEvaluator
	subservices []metrics.Subservice
}

func newSymptom(name string, severity Severity, ruleText string, catalog *metrics.Catalog, opts eval.Opts) (*Symptom, error) {
	parsed, err := ast.ParseRule(ruleText)
	if err != nil {
		return nil, err
	}
	evaluator, err := eval.Compile(parsed, catalog, opts)
	if err != nil {
		return nil, err
	}

	// a symptom concerns the subservices of the metrics it references
	seen := make(map[metrics.Subservice]bool)
	var subservices []metrics.Subservice
	for _, m := range evaluator.Metrics() {
		if !seen[m.Subservice] {
			seen[m.Subservice] = true
			subservices = append(subservices, m.Subservice)
		}
	}

	return &Symptom{
		name:        name,
		severity:    severity,
		rule:        ruleText,
		evaluator:   evaluator,
		subservices: subservices,
	}, nil
}

// Name returns the symptom's catalog name
func (s *Symptom) Name() string { return s.name }

// Severity returns the severity the symptom signals when its rule holds
func (s *Symptom) Severity() Severity { return s.severity }

// Rule returns the rule text the symptom was compiled from
func (s *Symptom) Rule() string { return s.rule }

// Subservices returns the subservices the symptom's verdict applies to
func (s *Symptom) Subservices() []metrics.Subservice { return s.subservices }

// MaxWindow returns the longest look-back the symptom's rule needs
func (s *Symptom) MaxWindow() time.Duration { return s.evaluator.MaxWindow() }
