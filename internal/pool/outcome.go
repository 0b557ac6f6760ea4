// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pool

import (
	"errors"
	"fmt"
	"strings"
)

// ExitInterrupted is folded into the status when the run is interrupted (EINTR).
const ExitInterrupted = 4

var (
	// ErrAborted is returned when AbortOnError stopped the run.
	ErrAborted = errors.New("aborting due to previous error")
	// ErrWorkerInterrupted is returned when a worker or the orchestrator was interrupted.
	ErrWorkerInterrupted = errors.New("interrupted")
	// ErrProtocol is returned when the worker pipe carries something unexpected.
	ErrProtocol = errors.New("worker protocol error")
	// ErrNoWorkers is returned when no worker could be launched.
	ErrNoWorkers = errors.New("no worker could be started")
	// ErrNotWorker is returned by WorkerFiles outside a worker process.
	ErrNotWorker = errors.New("worker pipes are not available")
)

// Outcome is a worker's answer for one item.
type Outcome struct {
	Index    int
	ExitCode int
	// Interrupted is set when the item's process died from an interrupt.
	Interrupted bool
	// Fault is set when the item could not be run at all.
	Fault *Fault
}

// Fault describes an error that terminates the pool.
type Fault struct {
	Type    string
	Message string
	// Code is folded into the status; zero means 1.
	Code int
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Type, f.Message)
}

// ExitCode returns the code folded into the status.
func (f *Fault) ExitCode() int {
	if f.Code == 0 {
		return 1
	}

	return f.Code
}

// NewFault describes err, naming it after its Go type.
func NewFault(err error, code int) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}

	return &Fault{Type: typeName(err), Message: err.Error(), Code: code}
}

func typeName(v any) string {
	name := strings.TrimLeft(fmt.Sprintf("%T", v), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}

	return name
}

// fold applies the status rule: the first nonzero code sticks.
func fold(rc, code int) int {
	if rc == 0 {
		return code
	}

	return rc
}
