// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package health

import "fmt"

// ErrRuleLoad wraps the parse or compile failure of one catalog rule so batch
// load reports name every rule that failed.
type ErrRuleLoad struct {
	Name string
	Err  error
}

func (e *ErrRuleLoad) Error() string {
	return fmt.Sprintf("rule `%s`: %v", e.Name, e.Err)
}

func (e *ErrRuleLoad) Unwrap() error {
	return e.Err
}
