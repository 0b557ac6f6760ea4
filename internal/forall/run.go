// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package forall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/reporun/internal/color"
	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
	"github.com/matt-FFFFFF/reporun/internal/manifest"
	"github.com/matt-FFFFFF/reporun/internal/pool"
	"github.com/matt-FFFFFF/reporun/internal/progress"
)

// ColorSection is the color configuration section of the project banner.
const ColorSection = "forall"

// Options controls a run.
type Options struct {
	// Command is the user command and its arguments.
	Command       []string
	Jobs          int
	AbortOnErrors bool
	ProjectHeader bool
	Verbose       bool
	Color         color.Settings
	// Stdout and Stderr receive messages from the orchestrator.
	Stdout io.Writer
	Stderr io.Writer
}

// LauncherFactory builds the worker launcher once the number of projects is known.
type LauncherFactory func(count int) pool.Launcher[WorkItem]

// Deps are the collaborators of Run.
type Deps struct {
	Manifest *manifest.Manifest
	Resolver manifest.Resolver
	// Launcher defaults to re-executing this binary as a worker.
	Launcher LauncherFactory
	// Progress receives the resolution meter. It is drawn only on a terminal.
	Progress io.Writer
}

// Run runs the command in every project and returns the folded exit status.
// Projects whose descriptor cannot be built are reported and skipped; their errors are
// returned alongside the status.
func Run(ctx context.Context, projects []manifest.Project, opts Options, deps Deps) (int, error) {
	opts = withDefaults(opts)

	cmd, err := ResolveCommand(opts.Command)
	if err != nil {
		return 1, err
	}

	if opts.ProjectHeader {
		cmd = cmd.WithColor(opts.Color.IsOn)
	}

	descs, resolveErr := resolve(ctx, deps, projects, opts)

	items := make([]WorkItem, len(descs))
	for i, d := range descs {
		items[i] = WorkItem{
			Index:         i,
			Count:         len(descs),
			Project:       d,
			Command:       cmd,
			Mirror:        deps.Manifest.Mirror,
			ProjectHeader: opts.ProjectHeader,
			Verbose:       opts.Verbose,
			Color:         opts.Color.IsOn(ColorSection),
		}
	}

	launch := deps.Launcher
	if launch == nil {
		launch = ExecLauncherFactory(WorkerArgs...)
	}

	ctxlog.Debug(ctx, "forall", "detail", "starting pool", "projects", len(items), "jobs", opts.Jobs, "shell", cmd.Shell)

	p := pool.New(pool.Config{
		Size:         opts.Jobs,
		AbortOnError: opts.AbortOnErrors,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
	}, launch(len(items)))

	rc, runErr := p.Run(ctx, items)

	return rc, errors.Join(resolveErr, runErr)
}

func withDefaults(opts Options) Options {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}

	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	if opts.Color == nil {
		opts.Color = color.Settings{}
	}

	return opts
}

// resolve builds descriptors for projects, at most opts.Jobs at a time, keeping project order.
func resolve(ctx context.Context, deps Deps, projects []manifest.Project, opts Options) ([]manifest.Descriptor, error) {
	progressOut := deps.Progress
	if progressOut == nil {
		progressOut = io.Discard
	}

	meter := progress.NewMeter(progressOut, "Resolving projects", len(projects))
	reporter := progress.NewChannelReporter(ctx, opts.Jobs)
	reporter.Listen(meter)

	descs := make([]manifest.Descriptor, len(projects))
	errs := make([]error, len(projects))
	sem := make(chan struct{}, opts.Jobs)

	var wg sync.WaitGroup

	for i, p := range projects {
		wg.Add(1)

		sem <- struct{}{}

		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()

			descs[i], errs[i] = deps.Manifest.Descriptor(ctx, p, deps.Resolver)

			ev := progress.Event{Item: p.Name, Err: errs[i]}
			if errs[i] != nil {
				ev.Type = progress.EventFailed
			}

			reporter.Report(ev)
		}()
	}

	wg.Wait()
	reporter.Close()
	meter.Finish()

	var (
		out    []manifest.Descriptor
		merged *multierror.Error
	)

	for i, err := range errs {
		if err == nil {
			out = append(out, descs[i])
			continue
		}

		fmt.Fprintf(opts.Stderr, "Project list error on project %s: %v\n", projects[i].Name, err) //nolint:errcheck
		ctxlog.Warn(ctx, "forall", "detail", "project skipped", "project", projects[i].Name, "error", err)

		merged = multierror.Append(merged, err)
	}

	return out, merged.ErrorOrNil()
}
