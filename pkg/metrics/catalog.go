// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package metrics holds the vendor-independent metric catalog: metric
// identities, their declared value kinds and the tagged value type carried by
// samples.
package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Subservice is a monitored subsystem category
type Subservice string

// Known subservices
const (
	SubserviceCPU     Subservice = "cpu"
	SubserviceSensors Subservice = "sensors"
	SubserviceDisk    Subservice = "disk"
	SubserviceMem     Subservice = "mem"
	SubserviceProc    Subservice = "proc"
	SubserviceNet     Subservice = "net"
	SubserviceIf      Subservice = "if"
)

var knownSubservices = map[Subservice]bool{
	SubserviceCPU:     true,
	SubserviceSensors: true,
	SubserviceDisk:    true,
	SubserviceMem:     true,
	SubserviceProc:    true,
	SubserviceNet:     true,
	SubserviceIf:      true,
}

// MetricType is the declared element type of a metric
type MetricType int

// Metric types, matching the `type` column of the catalog
const (
	TypeStr MetricType = iota
	TypeInt
	TypeFloat
)

// ParseMetricType parses the catalog's `type` column
func ParseMetricType(s string) (MetricType, error) {
	switch s {
	case "str":
		return TypeStr, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	}
	return TypeStr, fmt.Errorf("unknown metric type `%s`", s)
}

// Metric describes one entry of the metric catalog. Declared once at load,
// never mutated while the agent runs.
type Metric struct {
	Name       string
	Subservice Subservice
	Type       MetricType
	IsList     bool
	Unit       string
	// Counter is true for monotonic counters, false for instantaneous gauges
	Counter bool
}

// Kind returns the value kind samples of this metric must carry
func (m *Metric) Kind() ValueKind {
	if m.IsList {
		return KindList
	}
	if m.Type == TypeStr {
		return KindString
	}
	return KindScalar
}

// Numeric returns true when the metric carries numbers
func (m *Metric) Numeric() bool {
	return m.Type == TypeInt || m.Type == TypeFloat
}

// Catalog is the immutable-after-load set of declared metrics
type Catalog struct {
	byName map[string]*Metric
	order  []string
}

// Lookup returns the metric declared under name
func (c *Catalog) Lookup(name string) (*Metric, bool) {
	m, ok := c.byName[name]
	return m, ok
}

// Metrics returns all declared metrics in declaration order
func (c *Catalog) Metrics() []*Metric {
	out := make([]*Metric, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Subservices returns the distinct subservice tags in declaration order
func (c *Catalog) Subservices() []Subservice {
	seen := make(map[Subservice]bool)
	var out []Subservice
	for _, name := range c.order {
		ss := c.byName[name].Subservice
		if !seen[ss] {
			seen[ss] = true
			out = append(out, ss)
		}
	}
	return out
}

// Len returns the number of declared metrics
func (c *Catalog) Len() int {
	return len(c.order)
}

// LoadCatalog reads a metric catalog in CSV form. The expected header is
// `name,subservice,type,is_list,unit,counter`; column order does not matter.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read catalog header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"name", "subservice", "type", "is_list", "unit", "counter"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("catalog header misses column `%s`", required)
		}
	}

	catalog := &Catalog{byName: make(map[string]*Metric)}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ErrInvalidCatalog{Line: line, Err: err}
		}

		metric, err := recordToMetric(record, cols)
		if err != nil {
			return nil, &ErrInvalidCatalog{Line: line, Err: err}
		}
		if _, exists := catalog.byName[metric.Name]; exists {
			return nil, &ErrInvalidCatalog{Line: line, Err: fmt.Errorf("duplicate metric `%s`", metric.Name)}
		}
		catalog.byName[metric.Name] = metric
		catalog.order = append(catalog.order, metric.Name)
	}
	return catalog, nil
}

// LoadCatalogFile reads a metric catalog from a CSV file on disk
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open metric catalog `%s`", path)
	}
	defer f.Close()
	return LoadCatalog(f)
}

func recordToMetric(record []string, cols map[string]int) (*Metric, error) {
	field := func(name string) string { return record[cols[name]] }

	name := field("name")
	if name == "" {
		return nil, fmt.Errorf("empty metric name")
	}
	subservice := Subservice(field("subservice"))
	if !knownSubservices[subservice] {
		return nil, fmt.Errorf("unknown subservice `%s` for metric `%s`", subservice, name)
	}
	mtype, err := ParseMetricType(field("type"))
	if err != nil {
		return nil, err
	}
	parseFlag := func(col string) (bool, error) {
		switch field(col) {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
		return false, fmt.Errorf("column `%s` of metric `%s` must be 0 or 1", col, name)
	}
	isList, err := parseFlag("is_list")
	if err != nil {
		return nil, err
	}
	counter, err := parseFlag("counter")
	if err != nil {
		return nil, err
	}
	if isList && mtype == TypeStr {
		return nil, fmt.Errorf("list metric `%s` must be numeric", name)
	}

	return &Metric{
		Name:       name,
		Subservice: subservice,
		Type:       mtype,
		IsList:     isList,
		Unit:       field("unit"),
		Counter:    counter,
	}, nil
}
