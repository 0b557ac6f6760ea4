// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/matt-FFFFFF/reporun/internal/config"
	"github.com/matt-FFFFFF/reporun/internal/gitcmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

const fakeGit = `#!/bin/sh
case "$1" in
--version) echo "git version 2.40.1" ;;
check-ref-format) case "$2" in bad*) exit 1 ;; esac ;;
fail) exit 3 ;;
hello) echo "hello $2" ;;
esac
exit 0
`

const testManifest = `projects:
  - name: tools/repo
  - name: platform/build
    path: build
`

type env struct {
	ctx    context.Context
	root   *cli.Command
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// newEnv writes a fake git, a manifest and a configuration file naming both.
func newEnv(t *testing.T) *env {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake git is a shell script")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "git")
	mf := filepath.Join(dir, "manifest.yaml")
	cfg := filepath.Join(dir, "reporun.yaml")

	require.NoError(t, os.WriteFile(bin, []byte(fakeGit), 0o755)) //nolint:gosec
	require.NoError(t, os.WriteFile(mf, []byte(testManifest), 0o600))
	require.NoError(t, os.WriteFile(cfg, []byte("git: "+bin+"\nmanifest: "+mf+"\n"), 0o600))

	t.Setenv(config.EnvConfigPath, cfg)

	e := &env{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	e.root = NewRootCmd(e.stdout, e.stderr)
	e.ctx = gitcmd.WithSession(context.Background(), gitcmd.NewSession(gitcmd.WithStdio(nil, e.stdout, e.stderr)))

	return e
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	if err == nil {
		return 0
	}

	var ec cli.ExitCoder
	require.ErrorAs(t, err, &ec)

	return ec.ExitCode()
}

func TestCheck(t *testing.T) {
	e := newEnv(t)

	err := Run(e.ctx, e.root, []string{"reporun", "check", "--ref", "refs/heads/main", "--ref", "bad..name"})
	assert.Equal(t, 1, exitCode(t, err))

	out := e.stdout.String()
	assert.Contains(t, out, "git 2.40.1 (minimum 1.5.4)")
	assert.Contains(t, out, "refs/heads/main: ok")
	assert.Contains(t, out, "bad..name: invalid ref name")
}

func TestList(t *testing.T) {
	e := newEnv(t)

	err := Run(e.ctx, e.root, []string{"reporun", "list"})
	require.NoError(t, err)
	assert.Equal(t, "build : platform/build\ntools/repo : tools/repo\n", e.stdout.String())
}

func TestGitExitCode(t *testing.T) {
	e := newEnv(t)

	err := Run(e.ctx, e.root, []string{"reporun", "git", "--", "fail"})
	assert.Equal(t, 3, exitCode(t, err))
}

func TestGitCapture(t *testing.T) {
	e := newEnv(t)

	err := Run(e.ctx, e.root, []string{"reporun", "git", "--capture", "--", "hello", "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", e.stdout.String(), "captured output is echoed")
}

func TestForallWithoutCommand(t *testing.T) {
	e := newEnv(t)

	err := Run(e.ctx, e.root, []string{"reporun", "forall"})
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, err.Error(), "no command given")
}

func TestBadConfig(t *testing.T) {
	e := newEnv(t)

	err := Run(e.ctx, e.root, []string{"reporun", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list"})
	assert.Equal(t, 1, exitCode(t, err))
}
