// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package list is the list command.
package list

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/reporun/cmd/projects"
	"github.com/urfave/cli/v3"
)

const (
	nameOnlyFlag = "name-only"
	pathOnlyFlag = "path-only"
)

// ListCmd prints the selected projects.
var ListCmd = &cli.Command{
	Name:      "list",
	Usage:     "List projects and their paths",
	ArgsUsage: "[<project>...]",
	Flags: append(projects.Flags(),
		&cli.BoolFlag{
			Name:    nameOnlyFlag,
			Aliases: []string{"n"},
			Usage:   "Display only the name of the project",
		},
		&cli.BoolFlag{
			Name:    pathOnlyFlag,
			Aliases: []string{"p"},
			Usage:   "Display only the path of the project",
		},
	),
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	_, selected, err := projects.Load(ctx, cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	w := cmd.Root().Writer

	for _, p := range selected {
		switch {
		case cmd.Bool(nameOnlyFlag):
			fmt.Fprintln(w, p.Name) //nolint:errcheck
		case cmd.Bool(pathOnlyFlag):
			fmt.Fprintln(w, p.Path) //nolint:errcheck
		default:
			fmt.Fprintf(w, "%s : %s\n", p.Path, p.Name) //nolint:errcheck
		}
	}

	return nil
}
