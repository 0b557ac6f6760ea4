// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
)

// Worker runs items one at a time.
type Worker[T any] interface {
	// Do runs one item and blocks until its outcome is known.
	Do(ctx context.Context, index int, item T) (Outcome, error)
	// Terminate stops the worker without waiting for the current item.
	Terminate() error
	// Close tells the worker no more items will come.
	Close() error
	// Wait blocks until the worker has exited.
	Wait() error
}

// Launcher starts the worker for a slot.
type Launcher[T any] func(ctx context.Context, slot int) (Worker[T], error)

// Config controls a run.
type Config struct {
	// Size is the maximum number of workers.
	Size int
	// AbortOnError stops dispatching after the first nonzero exit code.
	AbortOnError bool
	// Stdout and Stderr receive the pool's own messages.
	Stdout io.Writer
	Stderr io.Writer
}

// Pool fans items out to workers.
type Pool[T any] struct {
	cfg    Config
	launch Launcher[T]
}

// New creates a pool.
func New[T any](cfg Config, launch Launcher[T]) *Pool[T] {
	if cfg.Size < 1 {
		cfg.Size = 1
	}

	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	return &Pool[T]{cfg: cfg, launch: launch}
}

type job[T any] struct {
	index int
	item  T
}

type result struct {
	out Outcome
	err error
	// ack is closed once the result has been folded.
	ack chan struct{}
}

// run is the state of one Run call.
type run[T any] struct {
	cfg     Config
	workers []Worker[T]
	stop    chan struct{}
	once    sync.Once
	rc      int
	errs    []error
	halted  bool
}

// Run dispatches items and returns the folded exit status.
// The error describes why the run stopped early, if it did.
func (p *Pool[T]) Run(ctx context.Context, items []T) (int, error) {
	n := min(p.cfg.Size, len(items))
	if n == 0 {
		return 0, nil
	}

	r := &run[T]{cfg: p.cfg, stop: make(chan struct{})}

	for slot := range n {
		w, err := p.launch(ctx, slot)
		if err != nil {
			r.fault(ctx, NewFault(err, 1))
			break
		}

		r.workers = append(r.workers, w)
	}

	if len(r.workers) == 0 {
		return r.rc, errors.Join(append(r.errs, ErrNoWorkers)...)
	}

	jobs := make(chan job[T])
	results := make(chan result)

	go func() {
		defer close(jobs)

		for i, it := range items {
			select {
			case jobs <- job[T]{index: i, item: it}:
			case <-r.stop:
				return
			}
		}
	}()

	var wg sync.WaitGroup

	for _, w := range r.workers {
		wg.Add(1)

		go func() {
			defer wg.Done()
			r.serve(ctx, w, jobs, results)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	r.collect(ctx, results)
	r.join(ctx)

	return r.rc, errors.Join(r.errs...)
}

// serve feeds one worker until jobs is closed. A worker takes its next item only after its
// previous result was folded; jobs received after a halt are dropped.
func (r *run[T]) serve(ctx context.Context, w Worker[T], jobs <-chan job[T], results chan<- result) {
	failed := false

	for j := range jobs {
		if failed || r.stopped() {
			continue
		}

		out, err := w.Do(ctx, j.index, j.item)
		if err == nil {
			out.Index = j.index
		}

		ack := make(chan struct{})
		results <- result{out: out, err: err, ack: ack}
		<-ack

		failed = err != nil
	}
}

func (r *run[T]) stopped() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// collect folds results in delivery order until every worker is done.
func (r *run[T]) collect(ctx context.Context, results <-chan result) {
	done := ctx.Done()

	for {
		select {
		case res, ok := <-results:
			if !ok {
				return
			}

			r.handle(ctx, res)
			close(res.ack)
		case <-done:
			done = nil

			if !r.halted {
				r.interrupt(ctx)
			}
		}
	}
}

func (r *run[T]) handle(ctx context.Context, res result) {
	if r.halted {
		return
	}

	switch {
	case res.err != nil:
		r.fault(ctx, NewFault(res.err, 1))
	case res.out.Interrupted:
		r.interrupt(ctx)
	case res.out.Fault != nil:
		r.fault(ctx, res.out.Fault)
	default:
		r.rc = fold(r.rc, res.out.ExitCode)

		if res.out.ExitCode != 0 && r.cfg.AbortOnError {
			r.abort(ctx)
		}
	}
}

func (r *run[T]) halt() {
	r.halted = true
	r.once.Do(func() { close(r.stop) })
}

// abortMessage is printed through the same line as faults, though in-flight items still drain.
const abortMessage = "Got an error, terminating the pool: Exception: Aborting due to previous error"

// abort stops dispatch. Items already running are allowed to finish.
func (r *run[T]) abort(ctx context.Context) {
	ctxlog.Debug(ctx, "pool", "detail", "abort on error")
	fmt.Fprintln(r.cfg.Stderr, abortMessage) //nolint:errcheck
	r.errs = append(r.errs, ErrAborted)
	r.halt()
}

func (r *run[T]) interrupt(ctx context.Context) {
	ctxlog.Debug(ctx, "pool", "detail", "interrupted")
	fmt.Fprintln(r.cfg.Stdout, "Interrupted - terminating the pool") //nolint:errcheck
	r.errs = append(r.errs, ErrWorkerInterrupted)
	r.rc = fold(r.rc, ExitInterrupted)
	r.halt()
	r.terminate(ctx)
}

func (r *run[T]) fault(ctx context.Context, f *Fault) {
	ctxlog.Debug(ctx, "pool", "detail", "fault", "type", f.Type, "error", f.Message)
	fmt.Fprintf(r.cfg.Stderr, "Got an error, terminating the pool: %s: %s\n", f.Type, f.Message) //nolint:errcheck
	r.errs = append(r.errs, f)
	r.rc = fold(r.rc, f.ExitCode())
	r.halt()
	r.terminate(ctx)
}

func (r *run[T]) terminate(ctx context.Context) {
	for _, w := range r.workers {
		if err := w.Terminate(); err != nil {
			ctxlog.Debug(ctx, "pool", "detail", "terminate failed", "error", err)
		}
	}
}

// join closes every worker and waits for it to exit.
func (r *run[T]) join(ctx context.Context) {
	for _, w := range r.workers {
		if err := w.Close(); err != nil {
			ctxlog.Debug(ctx, "pool", "detail", "close failed", "error", err)
		}
	}

	for _, w := range r.workers {
		if err := w.Wait(); err != nil {
			ctxlog.Debug(ctx, "pool", "detail", "worker exited with error", "error", err)
		}
	}
}
