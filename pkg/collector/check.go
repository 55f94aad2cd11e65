// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package collector runs the system checks that feed the metric store
package collector

// Check is one source of metric samples. A check's Run is called once per
// collection cycle with a sender bound to that cycle's timestamp; checks keep
// whatever state they need between cycles (e.g. previous counter values) in
// their own fields, the runner never runs the same check concurrently with
// itself.
type Check interface {
	// String returns the check name, used in logs
	String() string
	// Run gathers samples and submits them on the sender
	Run(sender Sender) error
}
