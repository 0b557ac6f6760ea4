// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the reporun command-line interface (CLI).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/reporun"
	"github.com/matt-FFFFFF/reporun/cmd"
	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
	"github.com/matt-FFFFFF/reporun/internal/gitcmd"
	"github.com/urfave/cli/v3"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := ctxlog.New(context.Background(), ctxlog.DefaultLogger)

	session := gitcmd.NewSession()
	ctx = gitcmd.WithSession(ctx, session)

	cmd.RootCmd.Version = fmt.Sprintf("%s (commit: %s)", reporun.Version, reporun.Commit)

	err := cmd.Run(ctx, cmd.RootCmd, os.Args)

	// Stops any ssh masters started by the git command.
	if cerr := session.Close(); cerr != nil {
		ctxlog.Debug(ctx, "closing session", "error", cerr)
	}

	if err == nil {
		return 0
	}

	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		if msg := ec.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg) //nolint:errcheck
		}

		return ec.ExitCode()
	}

	ctxlog.Error(ctx, "command execution failed", "error", err)

	return 1
}
