// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sshmux

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFinished = errors.New("os: process already finished")

type fakeClient struct {
	mu       sync.Mutex
	signals  []os.Signal
	waited   int
	finished bool
}

func (c *fakeClient) Signal(sig os.Signal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return errFinished
	}

	c.signals = append(c.signals, sig)

	return nil
}

func (c *fakeClient) Wait() (*os.ProcessState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.waited++

	return nil, nil
}

func TestSocketPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/run/tmp", 0o755))

	m := New(WithFs(fs), WithTempRoot("/run/tmp"))

	p, err := m.SocketPath(false)
	require.NoError(t, err)
	assert.Empty(t, p, "nothing cached and create not requested")

	p, err = m.SocketPath(true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "/run/tmp/ssh-"), p)
	assert.Equal(t, SocketTemplate, filepath.Base(p))

	ok, err := afero.DirExists(fs, filepath.Dir(p))
	require.NoError(t, err)
	assert.True(t, ok)

	again, err := m.SocketPath(true)
	require.NoError(t, err)
	assert.Equal(t, p, again, "socket path is created once")

	cached, err := m.SocketPath(false)
	require.NoError(t, err)
	assert.Equal(t, p, cached)

	require.NoError(t, m.Close())

	ok, err = afero.DirExists(fs, filepath.Dir(p))
	require.NoError(t, err)
	assert.False(t, ok, "close removes the socket directory")
	require.NoError(t, m.Close(), "close is idempotent")
}

func TestSocketPathFallsBackToOSTempDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := New(WithFs(fs), WithTempRoot("/does/not/exist"))

	p, err := m.SocketPath(true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, filepath.Join(os.TempDir(), "ssh-")), p)
}

func TestRegistry(t *testing.T) {
	m := New(WithFs(afero.NewMemMapFs()))

	a, b, gone := &fakeClient{}, &fakeClient{}, &fakeClient{finished: true}
	m.Register(a)
	m.Register(b)
	m.Register(gone)
	assert.Equal(t, 3, m.Len())

	m.Unregister(b)
	m.Unregister(b)
	m.Unregister(&fakeClient{})
	assert.Equal(t, 2, m.Len(), "unregistering an absent client is a no-op")

	m.TerminateAll()

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, []os.Signal{terminateSignal}, a.signals)
	assert.Equal(t, 1, a.waited)
	assert.Empty(t, b.signals, "unregistered clients are left alone")
	assert.Equal(t, 0, gone.waited, "finished clients are skipped")

	m.TerminateAll()
	assert.Len(t, a.signals, 1, "terminate all is idempotent")
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		url  string
		want Target
		ok   bool
	}{
		{url: "ssh://git@example.com:2222/a/b.git", want: Target{User: "git", Host: "example.com", Port: "2222"}, ok: true},
		{url: "ssh://example.com/a.git", want: Target{Host: "example.com"}, ok: true},
		{url: "git@example.com:a/b.git", want: Target{User: "git", Host: "example.com"}, ok: true},
		{url: "example.com:a.git", want: Target{Host: "example.com"}, ok: true},
		{url: "https://example.com/a.git"},
		{url: "/srv/git/a.git"},
		{url: "./relative:path"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := ParseTarget(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "example.com:22", Target{Host: "example.com"}.Key())
	assert.Equal(t, "git@example.com", Target{User: "git", Host: "example.com"}.Destination())
}

func TestPreconnect(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the ssh binary")
	}

	bin := filepath.Join(t.TempDir(), "fake-ssh")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexec sleep 30\n"), 0o755)) //nolint:gosec

	m := New(WithFs(afero.NewMemMapFs()), WithSSHBinary(bin))
	defer m.Close() //nolint:errcheck

	ctx := context.Background()

	ok, err := m.Preconnect(ctx, "https://example.com/a.git")
	require.NoError(t, err)
	assert.False(t, ok, "non-ssh urls are ignored")

	ok, err = m.Preconnect(ctx, "ssh://git@example.com/a.git")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Preconnect(ctx, "git@example.com:b.git")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len(), "one master per host and port")

	p, err := m.SocketPath(false)
	require.NoError(t, err)
	assert.NotEmpty(t, p, "preconnect creates the socket path")

	m.TerminateAll()
	assert.Equal(t, 0, m.Len())
}

func TestPreconnectReplacesExitedMaster(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the ssh binary")
	}

	dir := t.TempDir()
	starts := filepath.Join(dir, "starts")
	bin := filepath.Join(dir, "fake-ssh")
	script := "#!/bin/sh\necho started >> " + starts + "\nexit 255\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755)) //nolint:gosec

	m := New(WithFs(afero.NewMemMapFs()), WithSSHBinary(bin))
	defer m.Close() //nolint:errcheck

	ctx := context.Background()
	url := "ssh://user@example.invalid:2222/repo"

	ok, err := m.Preconnect(ctx, url)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Eventually(t, func() bool { return m.Len() == 0 }, 5*time.Second, 10*time.Millisecond,
		"an exited master leaves the registry")

	ok, err = m.Preconnect(ctx, url)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(starts)
		return err == nil && strings.Count(string(data), "started") == 2
	}, 5*time.Second, 10*time.Millisecond, "the master is started again")

	require.Eventually(t, func() bool { return m.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestProxyPath(t *testing.T) {
	assert.Equal(t, ProxyName, filepath.Base(ProxyPath()))
}
