// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package dist embeds the default metric and rule catalogs shipped with the
// agent. A configured catalog path overrides the embedded one.
package dist

import _ "embed"

//go:embed metrics.csv
var defaultMetricCatalog []byte

//go:embed rules.csv
var defaultRuleCatalog []byte

// DefaultMetricCatalog returns the embedded metric catalog
func DefaultMetricCatalog() []byte {
	return defaultMetricCatalog
}

// DefaultRuleCatalog returns the embedded rule catalog
func DefaultRuleCatalog() []byte {
	return defaultRuleCatalog
}
