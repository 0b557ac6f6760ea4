// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package sshmux owns the shared ssh control socket and the ssh processes started against it.
//
// One Multiplexer belongs to the top-level process. Git is pointed at it through GIT_SSH (the
// git_ssh proxy script) and REPO_SSH_SOCK, so every fetch to the same host reuses one connection.
package sshmux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
	"github.com/spf13/afero"
)

const (
	// ProxyName is the script git runs instead of ssh.
	ProxyName = "git_ssh"
	// SocketTemplate is handed to ssh as ControlPath; ssh expands the tokens.
	SocketTemplate = "master-%r@%h:%p"

	defaultTmpRoot = "/tmp"
	socketDirGlob  = "ssh-"
)

// ErrCreateSocketDir is returned when the private socket directory cannot be created.
var ErrCreateSocketDir = errors.New("cannot create ssh socket directory")

// Client is a live ssh process. *os.Process satisfies it.
type Client interface {
	Signal(sig os.Signal) error
	Wait() (*os.ProcessState, error)
}

// Multiplexer tracks the control socket path and the live ssh clients.
type Multiplexer struct {
	mu        sync.Mutex
	fs        afero.Fs
	tmpRoot   string
	sshBinary string
	sockDir   string
	sockPath  string
	clients   []Client
	masters   map[string]*master
	closed    bool
}

// Option configures a Multiplexer.
type Option func(*Multiplexer)

// WithFs sets the filesystem used for the socket directory.
func WithFs(fs afero.Fs) Option {
	return func(m *Multiplexer) {
		m.fs = fs
	}
}

// WithTempRoot overrides the preferred parent of the socket directory.
func WithTempRoot(dir string) Option {
	return func(m *Multiplexer) {
		m.tmpRoot = dir
	}
}

// WithSSHBinary sets the ssh program used by Preconnect.
func WithSSHBinary(name string) Option {
	return func(m *Multiplexer) {
		if name != "" {
			m.sshBinary = name
		}
	}
}

// New creates a Multiplexer. Nothing is created on disk until SocketPath(true) is called.
func New(opts ...Option) *Multiplexer {
	m := &Multiplexer{
		fs:        afero.NewOsFs(),
		tmpRoot:   defaultTmpRoot,
		sshBinary: "ssh",
		masters:   make(map[string]*master),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// SocketPath returns the control socket template.
// The first call with create makes a private directory; without create and
// before that it returns "".
func (m *Multiplexer) SocketPath(create bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.socketPathLocked(create)
}

func (m *Multiplexer) socketPathLocked(create bool) (string, error) {
	if m.sockPath != "" || !create {
		return m.sockPath, nil
	}

	root := m.tmpRoot
	if ok, _ := afero.DirExists(m.fs, root); !ok {
		root = os.TempDir()
	}

	dir, err := afero.TempDir(m.fs, root, socketDirGlob)
	if err != nil {
		return "", errors.Join(ErrCreateSocketDir, err)
	}

	m.sockDir = dir
	m.sockPath = filepath.Join(dir, SocketTemplate)

	return m.sockPath, nil
}

// ProxyPath returns the git_ssh script location, next to the running executable.
func ProxyPath() string {
	exe, err := os.Executable()
	if err != nil {
		return ProxyName
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Join(filepath.Dir(exe), ProxyName)
}

// Register adds a live client.
func (m *Multiplexer) Register(c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients = append(m.clients, c)
}

// Unregister removes a client. Unknown clients are ignored.
func (m *Multiplexer) Unregister(c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unregisterLocked(c)
}

func (m *Multiplexer) unregisterLocked(c Client) {
	for i, x := range m.clients {
		if x == c {
			m.clients = append(m.clients[:i], m.clients[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered clients.
func (m *Multiplexer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.clients)
}

// TerminateAll sends SIGTERM to every client and waits for it.
// Errors from clients that already exited are ignored. The registry is empty afterwards.
func (m *Multiplexer) TerminateAll() {
	m.mu.Lock()
	clients := m.clients
	m.clients = nil
	clear(m.masters)
	m.mu.Unlock()

	for _, c := range clients {
		if err := c.Signal(terminateSignal); err != nil {
			continue
		}

		_, _ = c.Wait()
	}
}

// Close terminates every client and removes the socket directory. It is safe to call more than once.
func (m *Multiplexer) Close() error {
	m.TerminateAll()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true

	if m.sockDir == "" {
		return nil
	}

	if err := m.fs.RemoveAll(m.sockDir); err != nil {
		return fmt.Errorf("removing %s: %w", m.sockDir, err)
	}

	return nil
}

// master is a control master started by Preconnect. It is reaped as soon as it exits.
type master struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (c *master) Signal(sig os.Signal) error {
	return c.cmd.Process.Signal(sig) //nolint:wrapcheck
}

// Wait blocks until the reaper has collected the process.
func (c *master) Wait() (*os.ProcessState, error) {
	<-c.done
	return c.cmd.ProcessState, nil
}

func (c *master) exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Preconnect starts an ssh control master for url when it names an ssh host.
// It reports whether a master is running for that host afterwards. A master that has exited is
// replaced.
func (m *Multiplexer) Preconnect(ctx context.Context, url string) (bool, error) {
	target, ok := ParseTarget(url)
	if !ok {
		return false, nil
	}

	key := target.Key()

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.masters[key]; ok && !c.exited() {
		return true, nil
	}

	sock, err := m.socketPathLocked(true)
	if err != nil {
		return false, err
	}

	args := []string{"-M", "-N", "-o", "ControlPath=" + sock}
	if target.Port != "" {
		args = append(args, "-p", target.Port)
	}

	args = append(args, target.Destination())

	cmd := exec.Command(m.sshBinary, args...) //nolint:gosec
	ctxlog.Debug(ctx, "sshmux", "detail", "starting control master", "host", key, "args", args)

	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("starting %s: %w", m.sshBinary, err)
	}

	c := &master{cmd: cmd, done: make(chan struct{})}
	m.masters[key] = c
	m.clients = append(m.clients, c)

	go m.reap(ctx, key, c)

	return true, nil
}

// reap waits for a master and drops it from the registry.
func (m *Multiplexer) reap(ctx context.Context, key string, c *master) {
	err := c.cmd.Wait()
	close(c.done)

	ctxlog.Debug(ctx, "sshmux", "detail", "control master exited", "host", key, "error", err)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.unregisterLocked(c)

	if m.masters[key] == c {
		delete(m.masters, key)
	}
}
