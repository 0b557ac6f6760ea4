// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const percent = 100

// Meter draws "title:  42% (21/50)" on one terminal line and rewrites it as work completes.
// It implements Listener.
type Meter struct {
	mu     sync.Mutex
	w      io.Writer
	title  string
	total  int
	done   int
	failed int
	show   bool
}

// MeterOption configures a Meter.
type MeterOption func(*Meter)

// WithShow forces the meter on or off instead of detecting a terminal.
func WithShow(show bool) MeterOption {
	return func(m *Meter) {
		m.show = show
	}
}

// NewMeter creates a meter for total units writing to w.
// By default it only draws when w is a terminal.
func NewMeter(w io.Writer, title string, total int, opts ...MeterOption) *Meter {
	m := &Meter{w: w, title: title, total: total, show: isTerminal(w)}
	for _, o := range opts {
		o(m)
	}

	return m
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

// OnEvent counts the event and redraws the line.
func (m *Meter) OnEvent(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.done++
	if e.Type == EventFailed {
		m.failed++
	}

	m.draw("  ")
}

// Done returns how many events were seen and how many of them failed.
func (m *Meter) Done() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.done, m.failed
}

// Finish draws the final line.
func (m *Meter) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.draw(", done.\n")
}

func (m *Meter) draw(suffix string) {
	if !m.show || m.total <= 0 {
		return
	}

	p := m.done * percent / m.total
	fmt.Fprintf(m.w, "\r%s: %3d%% (%d/%d)%s", m.title, p, m.done, m.total, suffix) //nolint:errcheck
}
