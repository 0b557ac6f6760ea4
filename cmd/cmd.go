// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/matt-FFFFFF/reporun/cmd/check"
	"github.com/matt-FFFFFF/reporun/cmd/cmdstate"
	"github.com/matt-FFFFFF/reporun/cmd/forall"
	"github.com/matt-FFFFFF/reporun/cmd/git"
	"github.com/matt-FFFFFF/reporun/cmd/list"
	"github.com/matt-FFFFFF/reporun/cmd/worker"
	"github.com/matt-FFFFFF/reporun/internal/config"
	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
	"github.com/matt-FFFFFF/reporun/internal/gitcmd"
	"github.com/urfave/cli/v3"
)

// NewRootCmd returns the root command writing to stdout and stderr.
func NewRootCmd(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Commands: []*cli.Command{
			forall.ForallCmd,
			git.GitCmd,
			list.ListCmd,
			check.CheckCmd,
			worker.WorkerCmd,
		},
		Writer:    stdout,
		ErrWriter: stderr,
		Name:      "reporun",
		Description: `reporun runs commands across the projects of a multi-repository checkout.
It fans a command out to a pool of worker processes, one project at a time per worker,
and runs git with a sanitized environment and shared ssh connections.`,
		Usage:     "reporun forall -c git status",
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      forall.ConfigFlag,
				Usage:     "Configuration file. Defaults to $" + config.EnvConfigPath + " or ~/" + config.DefaultFileName,
				TakesFile: true,
			},
		},
		Before: beforeFunc,
		// Exit codes are handled by the caller.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

// RootCmd is the root command for the CLI.
var RootCmd = NewRootCmd(os.Stdout, os.Stderr)

func beforeFunc(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String(forall.ConfigFlag))
	if err != nil {
		return ctx, cli.Exit(err.Error(), 1)
	}

	session := gitcmd.FromContext(ctx)
	session.Git = cfg.Git

	if cfg.Trace {
		session.Trace = true
	}

	ctxlog.Debug(ctx, "config loaded", "jobs", cfg.Jobs, "manifest", cfg.Manifest, "git", cfg.Git)

	return cmdstate.WithConfig(ctx, cfg), nil
}

// Run runs root with args. The forall command line is split before flag parsing so that the
// user command may carry flags of its own.
func Run(ctx context.Context, root *cli.Command, args []string) error {
	args, command := forall.SplitCommand(args)
	ctx = cmdstate.WithCommand(ctx, command)

	return root.Run(ctx, args) //nolint:wrapcheck
}
