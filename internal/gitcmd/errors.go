// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package gitcmd

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
)

var (
	// ErrSpawn is matched by every SpawnError.
	ErrSpawn = errors.New("cannot start command")
	// ErrNoArgs is returned when a shell command has no command line.
	ErrNoArgs = errors.New("no command given")
	// ErrVersion is returned when the git version cannot be determined.
	ErrVersion = errors.New("cannot determine git version")
	// ErrGitTooOld is returned when the installed git is older than required.
	ErrGitTooOld = errors.New("git version too old")
	// ErrNotStarted is returned when waiting on a command that never started.
	ErrNotStarted = errors.New("command not started")
)

// SpawnError is returned when a child process cannot be created.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSpawn) true for any SpawnError.
func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawn
}

// Errno returns the OS error number behind the failure, or 0.
// A program missing from PATH reports ENOENT.
func (e *SpawnError) Errno() int {
	if errors.Is(e.Err, exec.ErrNotFound) {
		return int(syscall.ENOENT)
	}

	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return int(errno)
	}

	return 0
}
