// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package forall is the forall command.
package forall

import (
	"context"
	"errors"
	"slices"

	"github.com/matt-FFFFFF/reporun/cmd/cmdstate"
	"github.com/matt-FFFFFF/reporun/cmd/projects"
	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
	"github.com/matt-FFFFFF/reporun/internal/forall"
	"github.com/matt-FFFFFF/reporun/internal/gitcmd"
	"github.com/matt-FFFFFF/reporun/internal/manifest"
	"github.com/matt-FFFFFF/reporun/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

const (
	// Name is the command name.
	Name = "forall"

	commandFlag       = "command"
	abortOnErrorsFlag = "abort-on-errors"
	projectHeaderFlag = "project-header"
	verboseFlag       = "verbose"
	jobsFlag          = "jobs"
)

// commandMarkers start the user command. Everything after them belongs to it.
var commandMarkers = []string{"-c", "--" + commandFlag}

// ForallCmd runs a command in every project.
var ForallCmd = &cli.Command{
	Name:      Name,
	Usage:     "Run a shell command in each project",
	ArgsUsage: "[<project>...] -c <command> [<arg>...]",
	Description: `Executes the same shell command in each project.

The command is run from the top of each project's working tree (or its git directory for a
mirror). A first word made only of letters, digits and "_/.-" is executed directly; anything else
is run by the shell, so pipes and $VARIABLES work.

Each command sees:
  REPO_PROJECT  the project name
  REPO_PATH     the project path relative to the top directory
  REPO_REMOTE   the remote name
  REPO_LREV     the local commit of the manifest revision
  REPO_RREV     the manifest revision
  REPO_I        the position of the project in this run, from 1
  REPO_COUNT    the number of projects in this run
  REPO__<NAME>  one variable per project annotation

Unless -e is given, every project runs and the exit status is the first nonzero status seen.`,
	Flags: append(projects.Flags(),
		&cli.BoolFlag{
			Name:    commandFlag,
			Aliases: []string{"c"},
			Usage:   "Command (and arguments) to execute. Must be the last option",
		},
		&cli.BoolFlag{
			Name:    abortOnErrorsFlag,
			Aliases: []string{"e"},
			Usage:   "Abort if a command exits unsuccessfully",
		},
		&cli.BoolFlag{
			Name:    projectHeaderFlag,
			Aliases: []string{"p"},
			Usage:   "Show project headers before output",
		},
		&cli.BoolFlag{
			Name:    verboseFlag,
			Aliases: []string{"v"},
			Usage:   "Show command error messages",
		},
		&cli.IntFlag{
			Name:    jobsFlag,
			Aliases: []string{"j"},
			Usage:   "Number of projects to run in parallel. Defaults to the configured jobs value",
		},
	),
	Action: actionFunc,
}

// ConfigFlag is the root flag naming the configuration file. Workers are started with the same value.
const ConfigFlag = "config"

// WorkerArgs returns the arguments that start a worker with the orchestrator's configuration file.
func WorkerArgs(configPath string) []string {
	if configPath == "" {
		return forall.WorkerArgs
	}

	return append([]string{"--" + ConfigFlag, configPath}, forall.WorkerArgs...)
}

// SplitCommand separates the user command from the reporun arguments. The command starts after
// the first -c or --command following the forall subcommand.
func SplitCommand(args []string) ([]string, []string) {
	sub := slices.Index(args, Name)
	if sub < 0 {
		return args, nil
	}

	for i := sub + 1; i < len(args); i++ {
		if slices.Contains(commandMarkers, args[i]) {
			return slices.Clone(args[:i]), slices.Clone(args[i+1:])
		}
	}

	return args, nil
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	command := cmdstate.Command(ctx)
	if len(command) == 0 {
		return cli.Exit("forall: no command given; pass it after -c", 1)
	}

	cfg := cmdstate.Config(ctx)

	m, selected, err := projects.Load(ctx, cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	jobs := cfg.Jobs
	if cmd.IsSet(jobsFlag) {
		jobs = cmd.Int(jobsFlag)
	}

	ctx, _, stop := signalbroker.Install(ctx, signalbroker.RoleOrchestrator)
	defer stop()

	session := gitcmd.FromContext(ctx)

	rc, err := forall.Run(ctx, selected, forall.Options{
		Command:       command,
		Jobs:          jobs,
		AbortOnErrors: cmd.Bool(abortOnErrorsFlag),
		ProjectHeader: cmd.Bool(projectHeaderFlag),
		Verbose:       cmd.Bool(verboseFlag),
		Color:         cfg.Color,
		Stdout:        cmd.Root().Writer,
		Stderr:        cmd.Root().ErrWriter,
	}, forall.Deps{
		Manifest: m,
		Resolver: manifest.GitResolver{Session: session},
		Launcher: forall.ExecLauncherFactory(WorkerArgs(cmd.Root().String(ConfigFlag))...),
		Progress: cmd.Root().ErrWriter,
	})
	if err != nil {
		ctxlog.Debug(ctx, "forall", "detail", "run finished with errors", "error", err)
	}

	if errors.Is(err, forall.ErrNoCommand) {
		return cli.Exit(err.Error(), 1)
	}

	if rc != 0 {
		return cli.Exit("", rc)
	}

	return nil
}
