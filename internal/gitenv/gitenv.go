// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package gitenv computes the environment handed to git and to commands run in projects.
package gitenv

import (
	"maps"
	"slices"
	"strings"
)

// Well known variable names.
const (
	GitDir            = "GIT_DIR"
	GitEditor         = "GIT_EDITOR"
	GitSSH            = "GIT_SSH"
	GitConfigParams   = "GIT_CONFIG_PARAMETERS"
	GitAllowProtocol  = "GIT_ALLOW_PROTOCOL"
	RepoTrace         = "REPO_TRACE"
	RepoSSHSock       = "REPO_SSH_SOCK"
	HTTPProxy         = "http_proxy"
	DefaultProtocols  = "file:git:http:https:ssh:persistent-http:persistent-https:sso:rpc"
	disabledEditorCmd = ":"
)

// denied variables would point git at the caller's repository instead of the project's.
var denied = []string{
	RepoTrace,
	GitDir,
	"GIT_ALTERNATE_OBJECT_DIRECTORIES",
	"GIT_OBJECT_DIRECTORY",
	"GIT_WORK_TREE",
	"GIT_GRAFT_FILE",
	"GIT_INDEX_FILE",
}

// Options adjusts the computed environment.
type Options struct {
	// DisableEditor sets GIT_EDITOR to a no-op.
	DisableEditor bool
	// SSHSocket and SSHProxy route git's ssh through a shared control master when both are set.
	SSHSocket string
	SSHProxy  string
	// Darwin enables the http_proxy to git config translation.
	Darwin bool
}

// Build returns a sanitized copy of ambient. The input map is never modified.
func Build(ambient map[string]string, opts Options) map[string]string {
	env := maps.Clone(ambient)
	if env == nil {
		env = make(map[string]string)
	}

	for _, k := range denied {
		delete(env, k)
	}

	if opts.DisableEditor {
		env[GitEditor] = disabledEditorCmd
	}

	if opts.SSHSocket != "" && opts.SSHProxy != "" {
		env[RepoSSHSock] = opts.SSHSocket
		env[GitSSH] = opts.SSHProxy
	}

	if proxy, ok := env[HTTPProxy]; ok && opts.Darwin {
		s := "'http.proxy=" + proxy + "'"
		if p, ok := env[GitConfigParams]; ok {
			s = p + " " + s
		}

		env[GitConfigParams] = s
	}

	if _, ok := env[GitAllowProtocol]; !ok {
		env[GitAllowProtocol] = DefaultProtocols
	}

	return env
}

// FromEnviron converts KEY=VALUE pairs as returned by os.Environ into a map.
// Later duplicates win, entries without '=' are ignored.
func FromEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		env[k] = v
	}

	return env
}

// ToEnviron converts env to KEY=VALUE pairs sorted by key.
func ToEnviron(env map[string]string) []string {
	keys := slices.Sorted(maps.Keys(env))
	out := make([]string, 0, len(keys))

	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}

	return out
}

// Overlay returns a copy of base with every entry of over applied on top.
// An empty value in over removes the key.
func Overlay(base, over map[string]string) map[string]string {
	env := maps.Clone(base)
	if env == nil {
		env = make(map[string]string, len(over))
	}

	for k, v := range over {
		if v == "" {
			delete(env, k)
			continue
		}

		env[k] = v
	}

	return env
}
