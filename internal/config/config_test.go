// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"testing"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFs(t *testing.T, files map[string]string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	stubs := gostub.Stub(&FsFactory, func() afero.Fs {
		return fs
	})
	t.Cleanup(stubs.Reset)
}

func clearEnv(t *testing.T) {
	t.Helper()

	for _, o := range envOverrides {
		t.Setenv(o.envVar, "")
	}

	t.Setenv(EnvConfigPath, "")
	t.Setenv("HOME", "/home/nobody")
}

func TestLoadExplicitFile(t *testing.T) {
	clearEnv(t)
	memFs(t, map[string]string{
		"/etc/reporun.yaml": `
jobs: 4
manifest: /w/.repo/manifest.yaml
color:
  ui: never
  diff: always
`,
	})

	cfg, err := Load("/etc/reporun.yaml")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "/w/.repo/manifest.yaml", cfg.Manifest)
	assert.Equal(t, "git", cfg.Git, "unset fields keep defaults")
	assert.False(t, cfg.Color.IsOn("log"))
	assert.True(t, cfg.Color.IsOn("diff"))
}

func TestLoadMissingDefaultIsFine(t *testing.T) {
	clearEnv(t)
	memFs(t, nil)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadHomeDefault(t *testing.T) {
	clearEnv(t)
	memFs(t, map[string]string{"/home/nobody/.reporun.yaml": "jobs: 3\n"})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Jobs)
}

func TestLoadMissingExplicitFails(t *testing.T) {
	clearEnv(t)
	memFs(t, nil)

	_, err := Load("/nope.yaml")
	require.ErrorIs(t, err, ErrReadConfig)

	t.Setenv(EnvConfigPath, "/also-nope.yaml")

	_, err = Load("")
	require.ErrorIs(t, err, ErrReadConfig, "REPORUN_CONFIG counts as explicit")
}

func TestLoadInvalidYaml(t *testing.T) {
	clearEnv(t)
	memFs(t, map[string]string{"/c.yaml": "jobs: [1, 2\n"})

	_, err := Load("/c.yaml")
	require.ErrorIs(t, err, ErrInvalidYaml)
}

func TestLoadValidatesJobs(t *testing.T) {
	clearEnv(t)
	memFs(t, map[string]string{"/c.yaml": "jobs: 0\n"})

	_, err := Load("/c.yaml")
	require.ErrorIs(t, err, ErrInvalidJobs)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	memFs(t, map[string]string{"/c.yaml": "jobs: 2\ntrace: false\n"})

	t.Setenv("REPORUN_JOBS", "9")
	t.Setenv("REPO_TRACE", "1")
	t.Setenv("REPORUN_GIT", "/opt/git/bin/git")

	cfg, err := Load("/c.yaml")
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Jobs)
	assert.True(t, cfg.Trace)
	assert.Equal(t, "/opt/git/bin/git", cfg.Git)
}

func TestEnvOverrideIgnoresBadJobs(t *testing.T) {
	clearEnv(t)
	memFs(t, nil)

	t.Setenv("REPORUN_JOBS", "many")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultJobs, cfg.Jobs)
}
