// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package git is the git command: one git invocation with the sanitized environment.
package git

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/reporun/cmd/cmdstate"
	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
	"github.com/matt-FFFFFF/reporun/internal/gitcmd"
	"github.com/matt-FFFFFF/reporun/internal/signalbroker"
	"github.com/matt-FFFFFF/reporun/internal/sshmux"
	"github.com/urfave/cli/v3"
)

const (
	sshMuxFlag     = "ssh-mux"
	preconnectFlag = "preconnect"
	captureFlag    = "capture"
	dirFlag        = "dir"
	gitDirFlag     = "git-dir"
	noEditorFlag   = "no-editor"
)

// GitCmd runs git once.
var GitCmd = &cli.Command{
	Name:      "git",
	Usage:     "Run git with the sanitized environment and optional shared ssh connections",
	ArgsUsage: "[options] -- <git arguments>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  sshMuxFlag,
			Usage: "Route ssh through a shared control socket",
		},
		&cli.StringSliceFlag{
			Name:  preconnectFlag,
			Usage: "Start an ssh control master for this URL before running git (implies --ssh-mux)",
		},
		&cli.BoolFlag{
			Name:  captureFlag,
			Usage: "Capture stdout and stderr through pipes while echoing them",
		},
		&cli.StringFlag{
			Name:      dirFlag,
			Aliases:   []string{"C"},
			Usage:     "Working directory",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      gitDirFlag,
			Usage:     "Run bare against this git directory",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:  noEditorFlag,
			Usage: "Set GIT_EDITOR to ':'",
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return cli.Exit("git: no arguments given", 1)
	}

	ctx, _, stop := signalbroker.Install(ctx, signalbroker.RoleOrchestrator)
	defer stop()

	session := gitcmd.FromContext(ctx)
	urls := cmd.StringSlice(preconnectFlag)
	mux := cmd.Bool(sshMuxFlag) || len(urls) > 0

	if mux && session.Mux == nil {
		session.Mux = sshmux.New(sshmux.WithSSHBinary(cmdstate.Config(ctx).SSH))
	}

	for _, u := range urls {
		ok, err := session.Mux.Preconnect(ctx, u)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		ctxlog.Debug(ctx, "git", "detail", "preconnect", "url", u, "master", ok)
	}

	gitDir := cmd.String(gitDirFlag)
	capture := cmd.Bool(captureFlag)

	res, err := session.Run(ctx, gitcmd.Spec{
		Args:          args,
		Dir:           cmd.String(dirFlag),
		GitDir:        gitDir,
		Bare:          gitDir != "",
		CaptureStdout: capture,
		CaptureStderr: capture,
		TeeStdout:     capture,
		TeeStderr:     capture,
		DisableEditor: cmd.Bool(noEditorFlag),
		SSHProxy:      mux,
	})
	if err != nil {
		code := 1

		var se *gitcmd.SpawnError
		if errors.As(err, &se) && se.Errno() > 0 {
			code = se.Errno()
		}

		return cli.Exit(err.Error(), code)
	}

	if res.ExitCode != 0 {
		return cli.Exit("", res.ExitCode)
	}

	return nil
}
