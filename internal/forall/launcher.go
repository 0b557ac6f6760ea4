// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package forall

import (
	"context"
	"os"
	"os/exec"
	"strconv"

	"github.com/matt-FFFFFF/reporun/internal/pool"
)

// WorkerArgs are the arguments that start this binary as a pool worker.
var WorkerArgs = []string{"worker", "--role", "worker"}

// ExecLauncherFactory launches workers by re-executing the running binary with args.
// Workers share the terminal and see REPO_COUNT in their environment.
func ExecLauncherFactory(args ...string) LauncherFactory {
	return func(count int) pool.Launcher[WorkItem] {
		return pool.ExecLauncher[WorkItem](WorkerCommand(count, args...))
	}
}

// WorkerCommand builds the command for one worker process.
func WorkerCommand(count int, args ...string) pool.CommandFactory {
	return func(context.Context, int) *exec.Cmd {
		self, err := os.Executable()
		if err != nil {
			self = os.Args[0]
		}

		cmd := exec.Command(self, args...) //nolint:gosec
		cmd.Env = append(os.Environ(), EnvCount+"="+strconv.Itoa(count))
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		return cmd
	}
}
