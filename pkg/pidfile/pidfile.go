// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package pidfile writes and removes the agent's pid file
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WritePID writes the current pid to the given path, creating missing parent
// directories. It fails if the file names a still-running process; a stale
// pid file left by a crashed agent is overwritten.
func WritePID(pidFilePath string) error {
	if err := os.MkdirAll(filepath.Dir(pidFilePath), os.FileMode(0755)); err != nil {
		return err
	}

	if data, err := os.ReadFile(pidFilePath); err == nil {
		if pid, err := strconv.Atoi(string(data)); err == nil && isProcess(pid) {
			return fmt.Errorf("pid file %s exists, process %d is running", pidFilePath, pid)
		}
	}

	return os.WriteFile(pidFilePath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// Remove deletes the pid file
func Remove(pidFilePath string) {
	os.Remove(pidFilePath) //nolint:errcheck
}
