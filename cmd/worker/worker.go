// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package worker is the hidden command run by pool worker processes.
package worker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
	"github.com/matt-FFFFFF/reporun/internal/forall"
	"github.com/matt-FFFFFF/reporun/internal/gitcmd"
	"github.com/matt-FFFFFF/reporun/internal/pool"
	"github.com/matt-FFFFFF/reporun/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

const roleFlag = "role"

// WorkerCmd serves forall work items over the pipes inherited from the orchestrator.
var WorkerCmd = &cli.Command{
	Name:   "worker",
	Usage:  "Serve forall work items (internal)",
	Hidden: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  roleFlag,
			Usage: "Signal handling role: orchestrator or worker",
			Value: signalbroker.RoleWorker.String(),
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	role, err := signalbroker.ParseRole(cmd.String(roleFlag))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx, mon, stop := signalbroker.Install(ctx, role)
	defer stop()

	r, w, err := pool.WorkerFiles()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	defer r.Close() //nolint:errcheck
	defer w.Close() //nolint:errcheck

	ctxlog.Debug(ctx, "worker", "detail", "serving", "pid", os.Getpid(), "role", role.String())

	handler := forall.Handler(gitcmd.FromContext(ctx), mon, os.Stdout, os.Stderr)
	if err := pool.Serve(ctx, r, w, handler); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}
