// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package gitcmd

import (
	"context"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/matt-FFFFFF/reporun/internal/gitenv"
	"github.com/matt-FFFFFF/reporun/internal/sshmux"
	"golang.org/x/term"
)

// DefaultGit is the git binary looked up in PATH.
const DefaultGit = "git"

type sessionKey struct{}

// Session is the per-process state shared by every invocation.
type Session struct {
	// Git is the git binary.
	Git string
	// Mux is the ssh multiplexer. Workers run without one.
	Mux *sshmux.Multiplexer
	// Environ supplies the ambient environment.
	Environ func() []string
	// Trace enables the shell-replayable trace on TraceOut.
	Trace    bool
	TraceOut io.Writer
	// Stdin, Stdout and Stderr are inherited by children that do not capture,
	// and receive teed output.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Darwin enables macOS specific environment handling.
	Darwin bool
	// ProcessGroup starts every child in its own process group; cancelling the context kills
	// the group. Such children do not receive terminal signals, so it defaults to off when
	// stdin is a terminal.
	ProcessGroup bool

	mu         sync.Mutex
	lastCwd    string
	lastGitDir string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithGit sets the git binary.
func WithGit(path string) SessionOption {
	return func(s *Session) {
		if path != "" {
			s.Git = path
		}
	}
}

// WithMux attaches an ssh multiplexer. The session closes it.
func WithMux(m *sshmux.Multiplexer) SessionOption {
	return func(s *Session) {
		s.Mux = m
	}
}

// WithEnviron replaces the ambient environment source.
func WithEnviron(fn func() []string) SessionOption {
	return func(s *Session) {
		s.Environ = fn
	}
}

// WithTrace sets the trace switch and destination.
func WithTrace(on bool, w io.Writer) SessionOption {
	return func(s *Session) {
		s.Trace = on
		if w != nil {
			s.TraceOut = w
		}
	}
}

// WithStdio sets the terminal streams.
func WithStdio(in io.Reader, out, err io.Writer) SessionOption {
	return func(s *Session) {
		s.Stdin, s.Stdout, s.Stderr = in, out, err
	}
}

// WithProcessGroup sets whether children get their own process group.
func WithProcessGroup(on bool) SessionOption {
	return func(s *Session) {
		s.ProcessGroup = on
	}
}

// NewSession returns a session using the process environment and terminal.
// Tracing defaults to REPO_TRACE=1.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		Git:          DefaultGit,
		Environ:      os.Environ,
		Trace:        os.Getenv(gitenv.RepoTrace) == "1",
		TraceOut:     os.Stderr,
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Darwin:       runtime.GOOS == "darwin",
		ProcessGroup: !term.IsTerminal(int(os.Stdin.Fd())), //nolint:gosec
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Close terminates ssh clients and removes the control socket directory.
func (s *Session) Close() error {
	if s == nil || s.Mux == nil {
		return nil
	}

	return s.Mux.Close() //nolint:wrapcheck
}

// WithSession returns a child context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session in ctx, or a new default session without a multiplexer.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok && s != nil {
		return s
	}

	return NewSession()
}

// Run starts spec and waits for it.
func (s *Session) Run(ctx context.Context, spec Spec) (RunResult, error) {
	c, err := s.Start(ctx, spec)
	if err != nil {
		return RunResult{ExitCode: -1}, err
	}

	return c.Wait()
}
