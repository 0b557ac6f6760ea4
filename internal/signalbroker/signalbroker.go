// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker turns OS signals into context cancellation.
//
// The orchestrating process cancels its context on the first interrupt or termination signal.
// A pool worker records SIGINT instead (the child it is running sees the same signal and
// reports it), and only gives up on SIGTERM, which is how the orchestrator tears the pool down.
package signalbroker

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
)

// ErrInterrupted is the cancellation cause set when a signal stops the process.
var ErrInterrupted = errors.New("interrupted")

var termSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New creates a channel that receives the given signals, or the termination signals when none are given.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signalbroker", "detail", "creating signal broker", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Install wires signal handling for role into a child of ctx.
// The returned stop function unregisters the handler and waits for the watcher to exit.
func Install(ctx context.Context, role Role) (context.Context, *Monitor, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	ch := New(ctx)
	mon := &Monitor{}
	done := make(chan struct{})

	go func() {
		defer close(done)
		Watch(ctx, role, ch, cancel, mon)
	}()

	stop := func() {
		signal.Stop(ch)
		cancel(nil)
		<-done
	}

	return ctx, mon, stop
}
