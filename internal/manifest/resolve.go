// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package manifest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/matt-FFFFFF/reporun/internal/gitcmd"
	"github.com/spf13/afero"
)

// ErrRevisionNotFound is returned when a project's revision does not resolve in its git directory.
var ErrRevisionNotFound = errors.New("revision not found")

var shaRe = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Resolver resolves the local revision of a project.
type Resolver interface {
	LocalRevision(ctx context.Context, gitDir string, p Project) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, gitDir string, p Project) (string, error)

// LocalRevision calls f.
func (f ResolverFunc) LocalRevision(ctx context.Context, gitDir string, p Project) (string, error) {
	return f(ctx, gitDir, p)
}

// GitResolver asks git for the commit the remote-tracking revision points at.
type GitResolver struct {
	Session *gitcmd.Session
}

// LocalRevision returns the commit of <remote>/<revision>. Literal SHA-1 revisions are returned as
// they are and projects that were never synced resolve to "".
func (g GitResolver) LocalRevision(ctx context.Context, gitDir string, p Project) (string, error) {
	if p.Revision == "" || shaRe.MatchString(p.Revision) {
		return p.Revision, nil
	}

	if ok, _ := afero.DirExists(FsFactory(), gitDir); !ok {
		return "", nil
	}

	ref := trackingRef(p.Remote, p.Revision)

	res, err := g.Session.Run(ctx, gitcmd.Spec{
		Args:          []string{"rev-parse", "--verify", ref + "^0"},
		Bare:          true,
		GitDir:        gitDir,
		CaptureStdout: true,
		CaptureStderr: true,
	})
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	if res.ExitCode != 0 {
		return "", fmt.Errorf("%w: %s in %s", ErrRevisionNotFound, ref, gitDir)
	}

	return strings.TrimSpace(res.Stdout), nil
}

// trackingRef maps a manifest revision to the ref that tracks it.
func trackingRef(remote, rev string) string {
	const heads = "refs/heads/"

	switch {
	case strings.HasPrefix(rev, heads):
		rev = strings.TrimPrefix(rev, heads)
	case strings.HasPrefix(rev, "refs/"):
		return rev
	}

	if remote == "" {
		return rev
	}

	return remote + "/" + rev
}
