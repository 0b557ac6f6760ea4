// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package forall

import (
	"strconv"

	"github.com/matt-FFFFFF/reporun/internal/manifest"
)

// Variables exported to every command.
const (
	EnvProject          = "REPO_PROJECT"
	EnvPath             = "REPO_PATH"
	EnvRemote           = "REPO_REMOTE"
	EnvLocalRevision    = "REPO_LREV"
	EnvRemoteRevision   = "REPO_RREV"
	EnvIndex            = "REPO_I"
	EnvCount            = "REPO_COUNT"
	EnvAnnotationPrefix = "REPO__"
)

// WorkItem is everything a worker needs to run the command in one project.
// It crosses the process boundary and holds values only.
type WorkItem struct {
	// Index is the position of the project in this run, from zero.
	Index int
	// Count is the number of projects in this run.
	Count   int
	Project manifest.Descriptor
	Command Command

	Mirror        bool
	ProjectHeader bool
	Verbose       bool
	// Color turns on the banner color.
	Color bool
}

// Environ returns the variables describing the item's project. Empty values unset the variable.
func (it WorkItem) Environ() map[string]string {
	p := it.Project

	env := map[string]string{
		EnvProject:        p.Name,
		EnvPath:           p.RelPath,
		EnvRemote:         p.RemoteName,
		EnvLocalRevision:  p.LocalRevision,
		EnvRemoteRevision: p.RemoteRevision,
		EnvIndex:          strconv.Itoa(it.Index + 1),
		EnvCount:          strconv.Itoa(it.Count),
	}

	for k, v := range p.Annotations {
		env[EnvAnnotationPrefix+k] = v
	}

	return env
}

// BannerPath is the project label shown in the banner and skip message.
func (it WorkItem) BannerPath() string {
	if it.Mirror {
		return it.Project.Name
	}

	return it.Project.RelPath
}

// Dir is where the command runs: the git directory for mirrors, the worktree otherwise.
func (it WorkItem) Dir() string {
	if it.Mirror {
		return it.Project.GitDir
	}

	return it.Project.Worktree
}
