// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"syscall"

	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
)

// Role selects how a process reacts to signals.
type Role int

const (
	// RoleOrchestrator is the top-level process that owns the pool.
	RoleOrchestrator Role = iota
	// RoleWorker is a pool worker process.
	RoleWorker
)

// String returns the flag value of the role.
func (r Role) String() string {
	switch r {
	case RoleOrchestrator:
		return "orchestrator"
	case RoleWorker:
		return "worker"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole parses the flag value produced by String.
func ParseRole(s string) (Role, error) {
	switch s {
	case "", "orchestrator":
		return RoleOrchestrator, nil
	case "worker":
		return RoleWorker, nil
	default:
		return RoleOrchestrator, fmt.Errorf("unknown role %q", s)
	}
}

// Monitor records interrupts a worker chose not to die from.
type Monitor struct {
	pending atomic.Int32
}

// Interrupted reports whether an interrupt is pending.
func (m *Monitor) Interrupted() bool {
	return m != nil && m.pending.Load() > 0
}

// TakeInterrupt reports whether an interrupt was pending and clears it.
func (m *Monitor) TakeInterrupt() bool {
	if m == nil {
		return false
	}

	return m.pending.Swap(0) > 0
}

func (m *Monitor) note() {
	if m != nil {
		m.pending.Add(1)
	}
}

// Watch consumes sigCh until ctx is done or the channel is closed.
func Watch(ctx context.Context, role Role, sigCh <-chan os.Signal, cancel context.CancelCauseFunc, mon *Monitor) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if role == RoleWorker && isInterrupt(sig) {
				ctxlog.Debug(ctx, "watchdog", "detail", "worker received interrupt, deferring to child", "signal", sig.String())
				mon.note()

				continue
			}

			ctxlog.Info(ctx, "watchdog", "detail", "received signal, cancelling", "role", role.String(), "signal", sig.String())
			cancel(ErrInterrupted)

			return
		}
	}
}

func isInterrupt(sig os.Signal) bool {
	return sig == os.Interrupt || sig == syscall.SIGINT
}
