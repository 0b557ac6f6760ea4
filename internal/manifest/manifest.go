// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package manifest describes the set of projects a command is run across.
//
// A manifest lists projects relative to a top directory. Each project has a worktree at
// <topdir>/<path> and a git directory at <topdir>/.repo/projects/<path>.git. Mirror manifests have
// no worktrees; the git directory is <topdir>/<name>.git.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
)

var (
	// ErrNoProjectName is returned when a project has an empty name.
	ErrNoProjectName = errors.New("project has no name")
	// ErrDuplicatePath is returned when two projects share a path.
	ErrDuplicatePath = errors.New("duplicate project path")
)

// Defaults are applied to projects that leave a field empty.
type Defaults struct {
	Remote   string `yaml:"remote,omitempty" hcl:"remote,optional"`
	Revision string `yaml:"revision,omitempty" hcl:"revision,optional"`
}

// Project is one entry of a manifest.
type Project struct {
	Name        string            `yaml:"name" hcl:"name,label"`
	Path        string            `yaml:"path,omitempty" hcl:"path,optional"`
	Remote      string            `yaml:"remote,omitempty" hcl:"remote,optional"`
	Revision    string            `yaml:"revision,omitempty" hcl:"revision,optional"`
	DestBranch  string            `yaml:"dest-branch,omitempty" hcl:"dest_branch,optional"`
	Groups      []string          `yaml:"groups,omitempty" hcl:"groups,optional"`
	Annotations map[string]string `yaml:"annotations,omitempty" hcl:"annotations,optional"`
}

// Manifest is a loaded project list.
type Manifest struct {
	Topdir   string    `yaml:"topdir,omitempty" hcl:"topdir,optional"`
	Mirror   bool      `yaml:"mirror,omitempty" hcl:"mirror,optional"`
	Default  *Defaults `yaml:"default,omitempty" hcl:"default,block"`
	Projects []Project `yaml:"projects" hcl:"project,block"`
}

// Worktree is the checkout directory of p. Mirror manifests have none.
func (m *Manifest) Worktree(p Project) string {
	if m.Mirror {
		return ""
	}

	return filepath.Join(m.Topdir, filepath.FromSlash(p.Path))
}

// GitDir is the git directory of p.
func (m *Manifest) GitDir(p Project) string {
	if m.Mirror {
		return filepath.Join(m.Topdir, filepath.FromSlash(p.Name)+".git")
	}

	return filepath.Join(m.Topdir, ".repo", "projects", filepath.FromSlash(p.Path)+".git")
}

// normalize fills defaults and resolves a relative topdir against base.
func (m *Manifest) normalize(base string) error {
	switch {
	case m.Topdir == "":
		m.Topdir = base
	case !filepath.IsAbs(m.Topdir):
		m.Topdir = filepath.Join(base, m.Topdir)
	}

	m.Topdir = filepath.Clean(m.Topdir)

	var def Defaults
	if m.Default != nil {
		def = *m.Default
	}

	seen := make(map[string]string, len(m.Projects))

	for i := range m.Projects {
		p := &m.Projects[i]

		if p.Name == "" {
			return fmt.Errorf("%w: entry %d", ErrNoProjectName, i)
		}

		if p.Path == "" {
			p.Path = p.Name
		}

		p.Path = strings.TrimSuffix(filepath.ToSlash(filepath.Clean(p.Path)), "/")

		if p.Remote == "" {
			p.Remote = def.Remote
		}

		if p.Revision == "" {
			p.Revision = def.Revision
		}

		if other, ok := seen[p.Path]; ok {
			return fmt.Errorf("%w: %s used by %s and %s", ErrDuplicatePath, p.Path, other, p.Name)
		}

		seen[p.Path] = p.Name
	}

	return nil
}

// Descriptor is the flattened, self-contained form of a project handed to a worker process.
type Descriptor struct {
	Name           string
	RelPath        string
	RemoteName     string
	LocalRevision  string
	RemoteRevision string
	Worktree       string
	GitDir         string
	DestBranch     string
	Annotations    map[string]string
}

// ResolutionError reports a project whose descriptor could not be built.
type ResolutionError struct {
	Project string
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("project %s: %v", e.Project, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Descriptor flattens p, resolving its local revision with r.
func (m *Manifest) Descriptor(ctx context.Context, p Project, r Resolver) (Descriptor, error) {
	gitDir := m.GitDir(p)

	lrev, err := r.LocalRevision(ctx, gitDir, p)
	if err != nil {
		return Descriptor{}, &ResolutionError{Project: p.Name, Err: err}
	}

	return Descriptor{
		Name:           p.Name,
		RelPath:        p.Path,
		RemoteName:     p.Remote,
		LocalRevision:  lrev,
		RemoteRevision: p.Revision,
		Worktree:       m.Worktree(p),
		GitDir:         gitDir,
		DestBranch:     p.DestBranch,
		Annotations:    maps.Clone(p.Annotations),
	}, nil
}
