// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pool

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	requestFd = 3
	resultFd  = 4
)

// KillDelay is how long a terminated worker gets before it is killed.
var KillDelay = 5 * time.Second

type request[T any] struct {
	Index int
	Item  T
}

// CommandFactory builds the command for a slot. The pool adds the pipes.
type CommandFactory func(ctx context.Context, slot int) *exec.Cmd

// ExecLauncher launches workers as child processes built by newCmd.
func ExecLauncher[T any](newCmd CommandFactory) Launcher[T] {
	return func(ctx context.Context, slot int) (Worker[T], error) {
		cmd := newCmd(ctx, slot)

		reqR, reqW, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("creating request pipe: %w", err)
		}

		resR, resW, err := os.Pipe()
		if err != nil {
			closeAll(reqR, reqW)
			return nil, fmt.Errorf("creating result pipe: %w", err)
		}

		cmd.ExtraFiles = []*os.File{reqR, resW}

		if err := cmd.Start(); err != nil {
			closeAll(reqR, reqW, resR, resW)
			return nil, err //nolint:wrapcheck
		}

		// The child holds its own copies.
		closeAll(reqR, resW)

		return &procWorker[T]{
			cmd:  cmd,
			reqW: reqW,
			resR: resR,
			enc:  gob.NewEncoder(reqW),
			dec:  gob.NewDecoder(resR),
		}, nil
	}
}

type procWorker[T any] struct {
	cmd       *exec.Cmd
	reqW      *os.File
	resR      *os.File
	enc       *gob.Encoder
	dec       *gob.Decoder
	closeOnce sync.Once
	killTimer *time.Timer
	mu        sync.Mutex
}

func (w *procWorker[T]) Do(_ context.Context, index int, item T) (Outcome, error) {
	if err := w.enc.Encode(request[T]{Index: index, Item: item}); err != nil {
		return Outcome{}, errors.Join(ErrProtocol, err)
	}

	var out Outcome
	if err := w.dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Outcome{}, fmt.Errorf("worker %d exited while running item %d: %w", w.cmd.Process.Pid, index, err)
		}

		return Outcome{}, errors.Join(ErrProtocol, err)
	}

	return out, nil
}

// Terminate asks the worker to stop and kills it if it is still running after KillDelay.
func (w *procWorker[T]) Terminate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.killTimer != nil {
		return nil
	}

	w.killTimer = time.AfterFunc(KillDelay, func() {
		_ = w.cmd.Process.Kill()
	})

	if err := w.cmd.Process.Signal(terminateSignal); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("terminating worker %d: %w", w.cmd.Process.Pid, err)
	}

	return nil
}

// Close ends the request stream; an idle worker exits on its own.
func (w *procWorker[T]) Close() error {
	var err error

	w.closeOnce.Do(func() {
		err = w.reqW.Close()
	})

	return err //nolint:wrapcheck
}

func (w *procWorker[T]) Wait() error {
	err := w.cmd.Wait()

	w.mu.Lock()
	if w.killTimer != nil {
		w.killTimer.Stop()
	}
	w.mu.Unlock()

	_ = w.resR.Close()

	return err //nolint:wrapcheck
}

// Handler runs one item inside a worker process.
type Handler[T any] func(ctx context.Context, index int, item T) Outcome

// Serve answers requests from r on w until r is closed.
func Serve[T any](ctx context.Context, r io.Reader, w io.Writer, handle Handler[T]) error {
	dec := gob.NewDecoder(r)
	enc := gob.NewEncoder(w)

	for {
		var req request[T]
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return errors.Join(ErrProtocol, err)
		}

		out := handle(ctx, req.Index, req.Item)
		out.Index = req.Index

		if err := enc.Encode(out); err != nil {
			return errors.Join(ErrProtocol, err)
		}
	}
}

// WorkerFiles returns the request and result pipes inherited by a worker process.
func WorkerFiles() (io.ReadCloser, io.WriteCloser, error) {
	r := os.NewFile(requestFd, "requests")
	w := os.NewFile(resultFd, "results")

	if r == nil || w == nil {
		return nil, nil, ErrNotWorker
	}

	if _, err := r.Stat(); err != nil {
		return nil, nil, errors.Join(ErrNotWorker, err)
	}

	return r, w, nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
