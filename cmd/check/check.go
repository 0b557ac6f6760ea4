// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package check is the check command.
package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/reporun/internal/gitcmd"
	"github.com/urfave/cli/v3"
)

const refFlag = "ref"

// CheckCmd verifies the git installation.
var CheckCmd = &cli.Command{
	Name:  "check",
	Usage: "Check that git is recent enough and, optionally, that branch names are valid",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  refFlag,
			Usage: "Ref name to validate with git check-ref-format",
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	session := gitcmd.FromContext(ctx)
	w := cmd.Root().Writer

	v, err := session.CheckVersion(ctx, gitcmd.MinGitVersion)
	if errors.Is(err, gitcmd.ErrGitTooOld) {
		return cli.Exit(fmt.Sprintf("fatal: git %s or later required", gitcmd.MinGitVersion), 1)
	}

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Fprintf(w, "git %s (minimum %s)\n", v, gitcmd.MinGitVersion) //nolint:errcheck

	bad := 0

	for _, ref := range cmd.StringSlice(refFlag) {
		if session.CheckRefFormat(ctx, ref) {
			fmt.Fprintf(w, "%s: ok\n", ref) //nolint:errcheck
			continue
		}

		fmt.Fprintf(w, "%s: invalid ref name\n", ref) //nolint:errcheck

		bad++
	}

	if bad > 0 {
		return cli.Exit("", 1)
	}

	return nil
}
