// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/matt-FFFFFF/reporun/internal/ctxlog"
	"github.com/matt-FFFFFF/reporun/internal/gitenv"
	"github.com/matt-FFFFFF/reporun/internal/sshmux"
	"github.com/matt-FFFFFF/reporun/internal/streammux"
)

// State is the lifecycle stage of a Command.
type State int32

const (
	StateBuilt State = iota
	StateSpawning
	StateRunning
	StateMultiplexing
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSpawning:
		return "spawning"
	case StateRunning:
		return "running"
	case StateMultiplexing:
		return "multiplexing"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// signalExitBase is added to the signal number of a child killed by a signal.
const signalExitBase = 128

// RunResult is the outcome of a finished command.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Command is a started child process.
type Command struct {
	spec    Spec
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	stderr  io.ReadCloser
	teeOut  io.Writer
	teeErr  io.Writer
	state   atomic.Int32
	signal  atomic.Int32
	started bool
}

// Start spawns the child described by spec.
func (s *Session) Start(ctx context.Context, spec Spec) (*Command, error) {
	c := &Command{spec: spec}
	c.setState(StateBuilt)

	argv, err := s.argv(spec)
	if err != nil {
		return nil, err
	}

	opts := gitenv.Options{DisableEditor: spec.DisableEditor, Darwin: s.Darwin}

	if spec.SSHProxy && s.Mux != nil {
		sock, err := s.Mux.SocketPath(true)
		if err != nil {
			return nil, &SpawnError{Name: spec.name(), Err: err}
		}

		opts.SSHSocket = sock
		opts.SSHProxy = sshmux.ProxyPath()
	}

	env := gitenv.Build(gitenv.FromEnviron(s.Environ()), opts)
	env = gitenv.Overlay(env, spec.Env)

	dir := spec.Dir
	if spec.Bare {
		if spec.GitDir != "" {
			env[gitenv.GitDir] = spec.GitDir
		}

		dir = ""
	}

	if s.Trace {
		s.trace(dir, env, argv, spec)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	cmd.Dir = dir
	cmd.Env = gitenv.ToEnviron(env)

	if s.ProcessGroup {
		setProcessGroup(cmd)
	}

	if err := c.wire(s, cmd); err != nil {
		return nil, &SpawnError{Name: spec.name(), Err: err}
	}

	c.setState(StateSpawning)
	ctxlog.Debug(ctx, "gitcmd", "detail", "starting", "argv", argv, "dir", dir)

	if err := cmd.Start(); err != nil {
		c.closePipes()
		return nil, &SpawnError{Name: spec.name(), Err: err}
	}

	c.cmd = cmd
	c.started = true
	c.setState(StateRunning)

	return c, nil
}

func (s *Session) argv(spec Spec) ([]string, error) {
	switch {
	case spec.Shell:
		if len(spec.Args) == 0 {
			return nil, &SpawnError{Name: spec.name(), Err: ErrNoArgs}
		}

		return shellArgv(spec.Args[0], spec.Args[1:]), nil
	case spec.Program == "":
		return append([]string{s.Git}, spec.Args...), nil
	default:
		return append([]string{spec.Program}, spec.Args...), nil
	}
}

func (c *Command) wire(s *Session, cmd *exec.Cmd) error {
	var err error

	if c.spec.ProvideStdin {
		if c.stdin, err = cmd.StdinPipe(); err != nil {
			return err //nolint:wrapcheck
		}
	} else {
		cmd.Stdin = s.Stdin
	}

	if c.spec.CaptureStdout {
		if c.stdout, err = cmd.StdoutPipe(); err != nil {
			return err //nolint:wrapcheck
		}

		if c.spec.TeeStdout {
			c.teeOut = s.Stdout
		}
	} else {
		cmd.Stdout = s.Stdout
	}

	if c.spec.CaptureStderr {
		if c.stderr, err = cmd.StderrPipe(); err != nil {
			return err //nolint:wrapcheck
		}

		if c.spec.TeeStderr {
			c.teeErr = s.Stderr
		}
	} else {
		cmd.Stderr = s.Stderr
	}

	return nil
}

// trace prints the invocation as shell input, repeating cd and GIT_DIR only when they change.
func (s *Session) trace(dir string, env map[string]string, argv []string, spec Spec) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder

	if dir != "" && s.lastCwd != dir {
		if s.lastGitDir != "" || s.lastCwd != "" {
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, ": cd %s\n", dir)
		s.lastCwd = dir
	}

	if gd, ok := env[gitenv.GitDir]; ok && s.lastGitDir != gd {
		if s.lastGitDir != "" || s.lastCwd != "" {
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, ": export %s=%s\n", gitenv.GitDir, gd)
		s.lastGitDir = gd
	}

	b.WriteString(": ")
	b.WriteString(strings.Join(argv, " "))

	if spec.ProvideStdin {
		b.WriteString(" 0<|")
	}

	if spec.CaptureStdout {
		b.WriteString(" 1>|")
	}

	if spec.CaptureStderr {
		b.WriteString(" 2>|")
	}

	b.WriteString("\n")
	io.WriteString(s.TraceOut, b.String()) //nolint:errcheck
}

// State returns the lifecycle stage.
func (c *Command) State() State {
	return State(c.state.Load())
}

func (c *Command) setState(s State) {
	c.state.Store(int32(s))
}

// CloseStdin closes the child's stdin pipe, if any.
func (c *Command) CloseStdin() error {
	if c.stdin == nil {
		return nil
	}

	return c.stdin.Close() //nolint:wrapcheck
}

// Interrupted reports whether the child was killed by SIGINT.
func (c *Command) Interrupted() bool {
	return syscall.Signal(c.signal.Load()) == syscall.SIGINT
}

// Pid returns the child's process id.
func (c *Command) Pid() int {
	if c.cmd == nil || c.cmd.Process == nil {
		return 0
	}

	return c.cmd.Process.Pid
}

// Stream hands every captured chunk to fn, then reaps the child and returns its exit status.
// Uncaptured streams go straight to the terminal and are not seen by fn.
func (c *Command) Stream(fn func(streammux.Chunk) error) (int, error) {
	if !c.started {
		return -1, ErrNotStarted
	}

	c.setState(StateMultiplexing)

	var sources []streammux.Source
	if c.stdout != nil {
		sources = append(sources, streammux.Source{Stream: streammux.Stdout, R: c.stdout})
	}

	if c.stderr != nil {
		sources = append(sources, streammux.Source{Stream: streammux.Stderr, R: c.stderr})
	}

	readErr := streammux.Drain(streammux.Multiplex(sources...), fn)

	code, waitErr := c.reap()

	return code, errors.Join(readErr, waitErr)
}

// Wait collects captured output, echoing it when tee is enabled, and returns once the child is reaped.
func (c *Command) Wait() (RunResult, error) {
	var out, errb bytes.Buffer

	code, err := c.Stream(func(ch streammux.Chunk) error {
		buf, tee := &out, c.teeOut
		if ch.Stream == streammux.Stderr {
			buf, tee = &errb, c.teeErr
		}

		buf.Write(ch.Data)

		if tee != nil {
			if _, err := tee.Write(ch.Data); err != nil {
				return fmt.Errorf("echoing %s: %w", ch.Stream, err)
			}

			if f, ok := tee.(interface{ Flush() error }); ok {
				return f.Flush() //nolint:wrapcheck
			}
		}

		return nil
	})

	return RunResult{Stdout: out.String(), Stderr: errb.String(), ExitCode: code}, err
}

func (c *Command) reap() (int, error) {
	defer c.setState(StateCompleted)

	_ = c.CloseStdin()

	err := c.cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return -1, fmt.Errorf("waiting for %s: %w", c.spec.name(), err)
	}

	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		c.signal.Store(int32(ws.Signal()))
		return signalExitBase + int(ws.Signal()), nil
	}

	return ee.ExitCode(), nil
}

func (c *Command) closePipes() {
	for _, p := range []io.Closer{c.stdin, c.stdout, c.stderr} {
		if p != nil {
			_ = p.Close()
		}
	}
}
