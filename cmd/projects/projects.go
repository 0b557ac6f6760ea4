// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package projects holds the flags shared by commands that act on a set of projects.
package projects

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/reporun/cmd/cmdstate"
	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
	"github.com/matt-FFFFFF/reporun/internal/manifest"
	"github.com/urfave/cli/v3"
)

const (
	manifestFlag = "manifest"
	regexFlag    = "regex"
	inverseFlag  = "inverse-regex"
	groupsFlag   = "groups"
)

// ErrNoManifest is returned when no manifest was named on the command line or in the configuration.
var ErrNoManifest = errors.New("no manifest given; use --manifest or set manifest in the configuration file")

// Flags select the manifest and the projects in it.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    manifestFlag,
			Aliases: []string{"m"},
			Usage: "Manifest file (.yaml or .hcl). " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources.",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:    regexFlag,
			Aliases: []string{"r"},
			Usage:   "Use only projects matching the regular expressions given as arguments",
		},
		&cli.BoolFlag{
			Name:    inverseFlag,
			Aliases: []string{"i"},
			Usage:   "Use only projects not matching the regular expressions given as arguments",
		},
		&cli.StringFlag{
			Name:    groupsFlag,
			Aliases: []string{"g"},
			Usage:   "Use only projects in these groups, e.g. 'default,-notdefault'",
		},
	}
}

// Load reads the manifest and returns it with the selected projects.
func Load(ctx context.Context, cmd *cli.Command) (*manifest.Manifest, []manifest.Project, error) {
	src := cmd.String(manifestFlag)
	if src == "" {
		src = cmdstate.Config(ctx).Manifest
	}

	if src == "" {
		return nil, nil, ErrNoManifest
	}

	ctxlog.Debug(ctx, "projects", "detail", "loading manifest", "source", src)

	m, err := manifest.Load(ctx, src)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	selected, err := m.Select(manifest.Selector{
		Args:    cmd.Args().Slice(),
		Regex:   cmd.Bool(regexFlag),
		Inverse: cmd.Bool(inverseFlag),
		Groups:  cmd.String(groupsFlag),
	})
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	return m, selected, nil
}
