// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package log wraps seelog behind package-level helpers so callers never
// carry a logger around. The wrapper buffers lines emitted before setup,
// configuration loading may want to log before the log file is known.
package log

import (
	"sync"

	"github.com/cihub/seelog"
)

type agentLogger struct {
	inner seelog.LoggerInterface
	level seelog.LogLevel
	mu    sync.RWMutex
}

var (
	logger agentLogger

	bufferMu   sync.Mutex
	buffered   []func()
	bufferLogs = true
)

// SetupLogger installs the seelog backend and replays buffered lines
func SetupLogger(l seelog.LoggerInterface, level string) {
	lvl, ok := seelog.LogLevelFromString(level)
	if !ok {
		lvl = seelog.InfoLvl
	}

	logger.mu.Lock()
	logger.inner = l
	logger.level = lvl
	// the exported helpers add one stack frame between caller and seelog
	logger.inner.SetAdditionalStackDepth(1) //nolint:errcheck
	logger.mu.Unlock()

	bufferMu.Lock()
	bufferLogs = false
	replay := buffered
	buffered = nil
	bufferMu.Unlock()
	for _, line := range replay {
		line()
	}
}

func (l *agentLogger) log(lvl seelog.LogLevel, emit func(seelog.LoggerInterface)) {
	bufferMu.Lock()
	if bufferLogs {
		buffered = append(buffered, func() { logger.log(lvl, emit) })
		bufferMu.Unlock()
		return
	}
	bufferMu.Unlock()

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.inner == nil || lvl < l.level {
		return
	}
	emit(l.inner)
}

// Debugf formats a message at the debug level
func Debugf(format string, params ...interface{}) {
	logger.log(seelog.DebugLvl, func(l seelog.LoggerInterface) { l.Debugf(format, params...) })
}

// Infof formats a message at the info level
func Infof(format string, params ...interface{}) {
	logger.log(seelog.InfoLvl, func(l seelog.LoggerInterface) { l.Infof(format, params...) })
}

// Warnf formats a message at the warn level
func Warnf(format string, params ...interface{}) {
	logger.log(seelog.WarnLvl, func(l seelog.LoggerInterface) { l.Warnf(format, params...) }) //nolint:errcheck
}

// Errorf formats a message at the error level
func Errorf(format string, params ...interface{}) {
	logger.log(seelog.ErrorLvl, func(l seelog.LoggerInterface) { l.Errorf(format, params...) }) //nolint:errcheck
}

// Flush flushes the underlying logger's buffers
func Flush() {
	logger.mu.RLock()
	defer logger.mu.RUnlock()
	if logger.inner != nil {
		logger.inner.Flush()
	}
}
