// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package gitenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRemovesDeniedVariables(t *testing.T) {
	ambient := map[string]string{
		"PATH":                             "/usr/bin",
		"REPO_TRACE":                       "1",
		"GIT_DIR":                          "/elsewhere/.git",
		"GIT_ALTERNATE_OBJECT_DIRECTORIES": "/alt",
		"GIT_OBJECT_DIRECTORY":             "/obj",
		"GIT_WORK_TREE":                    "/wt",
		"GIT_GRAFT_FILE":                   "/graft",
		"GIT_INDEX_FILE":                   "/index",
	}

	env := Build(ambient, Options{})

	assert.Equal(t, map[string]string{
		"PATH":               "/usr/bin",
		"GIT_ALLOW_PROTOCOL": DefaultProtocols,
	}, env)
	assert.Len(t, ambient, 8, "input must not be modified")
}

func TestBuildEditorAndSSH(t *testing.T) {
	env := Build(nil, Options{
		DisableEditor: true,
		SSHSocket:     "/tmp/ssh-x/master-%r@%h:%p",
		SSHProxy:      "/opt/reporun/git_ssh",
	})

	assert.Equal(t, ":", env[GitEditor])
	assert.Equal(t, "/tmp/ssh-x/master-%r@%h:%p", env[RepoSSHSock])
	assert.Equal(t, "/opt/reporun/git_ssh", env[GitSSH])

	env = Build(nil, Options{SSHProxy: "/opt/reporun/git_ssh"})
	assert.NotContains(t, env, GitSSH, "proxy without a socket is not wired")
}

func TestBuildDarwinHTTPProxy(t *testing.T) {
	ambient := map[string]string{"http_proxy": "http://proxy:3128"}

	env := Build(ambient, Options{Darwin: true})
	assert.Equal(t, "'http.proxy=http://proxy:3128'", env[GitConfigParams])

	ambient[GitConfigParams] = "'core.x=1'"
	env = Build(ambient, Options{Darwin: true})
	assert.Equal(t, "'core.x=1' 'http.proxy=http://proxy:3128'", env[GitConfigParams])

	env = Build(ambient, Options{})
	assert.Equal(t, "'core.x=1'", env[GitConfigParams], "only applied on darwin")
}

func TestBuildKeepsAllowProtocol(t *testing.T) {
	env := Build(map[string]string{GitAllowProtocol: "https"}, Options{})
	assert.Equal(t, "https", env[GitAllowProtocol])
}

func TestEnvironRoundTrip(t *testing.T) {
	env := FromEnviron([]string{"B=2", "A=1=x", "junk", "=nokey", "B=3", "EMPTY="})

	assert.Equal(t, map[string]string{"A": "1=x", "B": "3", "EMPTY": ""}, env)
	assert.Equal(t, []string{"A=1=x", "B=3", "EMPTY="}, ToEnviron(env))
}

func TestOverlay(t *testing.T) {
	base := map[string]string{"A": "1", "B": "2"}
	got := Overlay(base, map[string]string{"B": "", "C": "3"})

	assert.Equal(t, map[string]string{"A": "1", "C": "3"}, got)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, base)
}
