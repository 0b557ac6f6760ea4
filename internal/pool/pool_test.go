// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pool

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errKilled = errors.New("worker killed")
	errBoom   = errors.New("boom")
)

// step scripts what a fake worker does with an item.
type step struct {
	code        int
	interrupted bool
	fault       *Fault
	err         error
	// wait blocks the item until the channel is closed or the worker is terminated.
	wait chan struct{}
}

type fakeWorker struct {
	terminated chan struct{}
	termOnce   sync.Once
	closed     atomic.Bool
	waited     atomic.Bool
	ran        *recorder
}

func (w *fakeWorker) Do(_ context.Context, index int, s step) (Outcome, error) {
	w.ran.add(index)

	if s.wait != nil {
		select {
		case <-s.wait:
		case <-w.terminated:
			return Outcome{}, errKilled
		}
	}

	if s.err != nil {
		return Outcome{}, s.err
	}

	return Outcome{ExitCode: s.code, Interrupted: s.interrupted, Fault: s.fault}, nil
}

func (w *fakeWorker) Terminate() error {
	w.termOnce.Do(func() { close(w.terminated) })
	return nil
}

func (w *fakeWorker) isTerminated() bool {
	select {
	case <-w.terminated:
		return true
	default:
		return false
	}
}

func (w *fakeWorker) Close() error {
	w.closed.Store(true)
	return nil
}

func (w *fakeWorker) Wait() error {
	w.waited.Store(true)
	return nil
}

type recorder struct {
	mu  sync.Mutex
	ran []int
}

func (r *recorder) add(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ran = append(r.ran, i)
}

func (r *recorder) indices() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int(nil), r.ran...)
}

type harness struct {
	rec     *recorder
	workers []*fakeWorker
	mu      sync.Mutex
	stdout  syncBuffer
	stderr  syncBuffer
}

func (h *harness) launcher(_ context.Context, _ int) (Worker[step], error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	w := &fakeWorker{terminated: make(chan struct{}), ran: h.rec}
	h.workers = append(h.workers, w)

	return w, nil
}

func newHarness() *harness {
	return &harness{rec: &recorder{}}
}

func (h *harness) pool(size int, abort bool) *Pool[step] {
	return New[step](Config{Size: size, AbortOnError: abort, Stdout: &h.stdout, Stderr: &h.stderr}, h.launcher)
}

func (h *harness) assertJoined(t *testing.T) {
	t.Helper()

	for i, w := range h.workers {
		assert.True(t, w.closed.Load(), "worker %d closed", i)
		assert.True(t, w.waited.Load(), "worker %d waited", i)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	// onWrite is called with the text of every write.
	onWrite func(string)
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	n, err := b.buf.Write(p)
	hook := b.onWrite
	b.mu.Unlock()

	if hook != nil {
		hook(string(p))
	}

	return n, err
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func codes(cs ...int) []step {
	steps := make([]step, len(cs))
	for i, c := range cs {
		steps[i] = step{code: c}
	}

	return steps
}

func TestRunEmpty(t *testing.T) {
	h := newHarness()

	rc, err := h.pool(4, false).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, rc)
	assert.Empty(t, h.workers, "no items, no workers")
}

func TestRunLaunchesAtMostOneWorkerPerItem(t *testing.T) {
	h := newHarness()

	rc, err := h.pool(8, false).Run(context.Background(), codes(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, rc)
	assert.Len(t, h.workers, 3)
	assert.ElementsMatch(t, []int{0, 1, 2}, h.rec.indices())
	h.assertJoined(t)
}

func TestRunFirstNonzeroCodeSticks(t *testing.T) {
	h := newHarness()

	rc, err := h.pool(1, false).Run(context.Background(), codes(0, 3, 5, 0))
	require.NoError(t, err)

	assert.Equal(t, 3, rc)
	assert.Equal(t, []int{0, 1, 2, 3}, h.rec.indices(), "without abort every item runs")
}

func TestRunAbortStopsDispatch(t *testing.T) {
	h := newHarness()

	rc, err := h.pool(1, true).Run(context.Background(), codes(0, 2, 7, 0))
	require.ErrorIs(t, err, ErrAborted)

	assert.Equal(t, 2, rc)
	assert.Equal(t, []int{0, 1}, h.rec.indices())
	assert.Equal(t, "Got an error, terminating the pool: Exception: Aborting due to previous error\n", h.stderr.String())
	h.assertJoined(t)
}

func TestRunAbortDrainsInFlightWithoutFolding(t *testing.T) {
	h := newHarness()
	gate := make(chan struct{})

	var once sync.Once

	h.stderr.onWrite = func(s string) {
		if strings.Contains(s, "Aborting") {
			once.Do(func() { close(gate) })
		}
	}

	items := []step{{code: 0, wait: gate}, {code: 2}, {code: 0}}
	items[0].code = 9

	rc, err := h.pool(2, true).Run(context.Background(), items)
	require.ErrorIs(t, err, ErrAborted)

	assert.Equal(t, 2, rc, "the in-flight item finished after the abort and is not folded")
	assert.ElementsMatch(t, []int{0, 1}, h.rec.indices())

	for _, w := range h.workers {
		assert.False(t, w.isTerminated(), "abort lets in-flight items finish")
	}
}

func TestRunWorkerInterrupt(t *testing.T) {
	h := newHarness()
	block := make(chan struct{})

	defer close(block)

	items := []step{{interrupted: true}, {wait: block}, {code: 0}}

	rc, err := h.pool(2, false).Run(context.Background(), items)
	require.ErrorIs(t, err, ErrWorkerInterrupted)

	assert.Equal(t, ExitInterrupted, rc)
	assert.Contains(t, h.stdout.String(), "Interrupted - terminating the pool")

	for _, w := range h.workers {
		assert.True(t, w.isTerminated())
	}

	h.assertJoined(t)
}

func TestRunInterruptKeepsEarlierCode(t *testing.T) {
	h := newHarness()

	rc, err := h.pool(1, false).Run(context.Background(), []step{{code: 3}, {interrupted: true}})
	require.ErrorIs(t, err, ErrWorkerInterrupted)
	assert.Equal(t, 3, rc)
}

func TestRunContextCancelled(t *testing.T) {
	h := newHarness()
	block := make(chan struct{})

	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	rc, err := h.pool(2, false).Run(ctx, []step{{wait: block}, {wait: block}, {wait: block}})
	require.ErrorIs(t, err, ErrWorkerInterrupted)

	assert.Equal(t, ExitInterrupted, rc)
	assert.Len(t, h.rec.indices(), 2, "nothing is dispatched after the interrupt")
	h.assertJoined(t)
}

func TestRunFaultFromWorker(t *testing.T) {
	h := newHarness()

	items := []step{{fault: &Fault{Type: "SpawnError", Message: "frob: no such file or directory", Code: 2}}, {code: 0}}

	rc, err := h.pool(1, false).Run(context.Background(), items)

	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, 2, rc)
	assert.Contains(t, h.stderr.String(), "Got an error, terminating the pool: SpawnError: frob: no such file or directory")
	assert.Equal(t, []int{0}, h.rec.indices())
}

func TestRunTransportError(t *testing.T) {
	h := newHarness()

	rc, err := h.pool(1, false).Run(context.Background(), []step{{err: errBoom}})
	require.Error(t, err)

	assert.Equal(t, 1, rc, "faults without a code count as 1")
	assert.Contains(t, h.stderr.String(), "Got an error, terminating the pool: errorString: boom")
}

func TestRunLaunchFailure(t *testing.T) {
	var stderr bytes.Buffer

	failing := func(context.Context, int) (Worker[step], error) {
		return nil, errBoom
	}

	rc, err := New[step](Config{Size: 2, Stderr: &stderr, Stdout: io.Discard}, failing).Run(context.Background(), codes(0))
	require.ErrorIs(t, err, ErrNoWorkers)
	assert.Equal(t, 1, rc)
	assert.Contains(t, stderr.String(), "Got an error, terminating the pool")
}

func TestFold(t *testing.T) {
	assert.Equal(t, 0, fold(0, 0))
	assert.Equal(t, 3, fold(0, 3))
	assert.Equal(t, 3, fold(3, 5))
	assert.Equal(t, 3, fold(3, 0))
}

func TestNewFault(t *testing.T) {
	f := NewFault(errBoom, 0)
	assert.Equal(t, "errorString", f.Type)
	assert.Equal(t, 1, f.ExitCode())

	orig := &Fault{Type: "X", Message: "y", Code: 5}
	assert.Same(t, orig, NewFault(orig, 1))
	assert.Equal(t, "X: y", orig.Error())
}
