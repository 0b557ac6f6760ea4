// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package forall

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/reporun/internal/gitcmd"
)

// ErrNoCommand is returned when no command was given.
var ErrNoCommand = errors.New("no command given")

// shellSafe matches a first word that can be run without a shell.
var shellSafe = regexp.MustCompile(`^[a-z0-9A-Z_/\.-]+$`)

// colorSubcommands are the git subcommands that take --color.
var colorSubcommands = []string{"branch", "diff", "grep", "log"}

// Command is the user command in the form it is run in every project.
type Command struct {
	// Argv is the program and its arguments. With Shell, Argv[0] is the shell command line and
	// the rest are its positional parameters.
	Argv  []string
	Shell bool
}

// ResolveCommand decides how args are run. A first word made only of letters, digits and
// "_/.-" is executed directly; anything else is handed to the shell with the first word as $0.
func ResolveCommand(args []string) (Command, error) {
	if len(args) == 0 || args[0] == "" {
		return Command{}, ErrNoCommand
	}

	return Command{
		Argv:  slices.Clone(args),
		Shell: !shellSafe.MatchString(args[0]),
	}, nil
}

// WithColor adds --color after the subcommand of a direct git branch, diff, grep or log command
// when on reports color enabled for that subcommand. Output is captured through a pipe, so git
// would otherwise decide against color.
func (c Command) WithColor(on func(section string) bool) Command {
	if c.Shell || len(c.Argv) == 0 || c.Argv[0] != "git" {
		return c
	}

	i := slices.IndexFunc(c.Argv[1:], func(a string) bool {
		return !strings.HasPrefix(a, "-")
	})
	if i < 0 {
		return c
	}

	i++

	sub := c.Argv[i]
	if !slices.Contains(colorSubcommands, sub) || !on(sub) {
		return c
	}

	c.Argv = slices.Insert(slices.Clone(c.Argv), i+1, "--color")

	return c
}

// Spec returns the invocation of c.
func (c Command) Spec() gitcmd.Spec {
	if c.Shell {
		return gitcmd.Spec{Shell: true, Args: slices.Clone(c.Argv)}
	}

	return gitcmd.Spec{Program: c.Argv[0], Args: slices.Clone(c.Argv[1:])}
}
