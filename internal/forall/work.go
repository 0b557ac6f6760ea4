// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package forall

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/matt-FFFFFF/reporun/internal/color"
	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
	"github.com/matt-FFFFFF/reporun/internal/gitcmd"
	"github.com/matt-FFFFFF/reporun/internal/gitenv"
	"github.com/matt-FFFFFF/reporun/internal/pool"
	"github.com/matt-FFFFFF/reporun/internal/signalbroker"
	"github.com/matt-FFFFFF/reporun/internal/streammux"
	"github.com/spf13/afero"
)

// DoWork runs the item's command in its project and returns the exit status.
// A project whose directory is missing is skipped with status 0.
func DoWork(ctx context.Context, s *gitcmd.Session, it WorkItem, stdout, stderr io.Writer) pool.Outcome {
	out := pool.Outcome{Index: it.Index}

	env := it.Environ()
	dir := it.Dir()

	if it.Mirror {
		env[gitenv.GitDir] = it.Project.GitDir
	}

	if ok, _ := afero.Exists(FsFactory(), dir); dir == "" || !ok {
		if !it.ProjectHeader || it.Verbose {
			fmt.Fprintf(stderr, "skipping %s/\n", it.Project.RelPath) //nolint:errcheck
		}

		ctxlog.Debug(ctx, "forall", "detail", "skipping missing project", "dir", dir)

		return out
	}

	spec := it.Command.Spec()
	spec.Dir = dir
	spec.Env = env

	if it.ProjectHeader {
		spec.ProvideStdin = true
		spec.CaptureStdout = true
		spec.CaptureStderr = true
	}

	c, err := s.Start(ctx, spec)
	if err != nil {
		return faulted(out, err)
	}

	ctxlog.Debug(ctx, "forall", "detail", "started", "project", it.Project.Name, "pid", c.Pid())

	if !it.ProjectHeader {
		res, err := c.Wait()
		if err != nil {
			return faulted(out, err)
		}

		out.ExitCode = res.ExitCode
		out.Interrupted = c.Interrupted()

		return out
	}

	_ = c.CloseStdin()

	coal := &streammux.Coalescer{
		Stdout:  stdout,
		Stderr:  stderr,
		Banner:  banner(it),
		First:   it.Index == 0,
		Verbose: it.Verbose,
	}

	code, err := c.Stream(coal.Feed)
	err = errors.Join(err, coal.Close())

	if err != nil {
		return faulted(out, err)
	}

	out.ExitCode = code
	out.Interrupted = c.Interrupted()

	return out
}

func banner(it WorkItem) func(io.Writer) {
	return func(w io.Writer) {
		out := color.New(w, it.Color)
		out.Printer(color.Bold)("project %s/", it.BannerPath())
		out.Nl()
	}
}

// faulted turns err into a fault. Spawn failures carry their errno as the exit code.
func faulted(out pool.Outcome, err error) pool.Outcome {
	code := 1

	var se *gitcmd.SpawnError
	if errors.As(err, &se) {
		if n := se.Errno(); n > 0 {
			code = n
		}
	}

	out.Fault = pool.NewFault(err, code)

	return out
}

// Handler runs items inside a worker process. A SIGINT seen by the worker while an item ran
// marks that item interrupted.
func Handler(s *gitcmd.Session, mon *signalbroker.Monitor, stdout, stderr io.Writer) pool.Handler[WorkItem] {
	return func(ctx context.Context, _ int, it WorkItem) pool.Outcome {
		out := DoWork(ctx, s, it, stdout, stderr)

		if mon.TakeInterrupt() || out.Interrupted {
			fmt.Fprintf(stdout, "%s: Worker interrupted\n", it.Project.Name) //nolint:errcheck

			out.Interrupted = true
		}

		return out
	}
}
