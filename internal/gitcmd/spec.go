// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package gitcmd

// Spec describes one invocation. It is passed by value and never modified by the runner.
type Spec struct {
	// Program is the executable. Empty means the session's git binary.
	Program string
	// Args excludes the program name. With Shell, Args[0] is the command line.
	Args []string
	// Shell runs Args through the system shell, with Args[0] as $0.
	Shell bool
	// Dir is the working directory; empty inherits the caller's.
	Dir string
	// GitDir is exported as GIT_DIR in bare mode.
	GitDir string
	// Env is applied over the sanitized environment. An empty value unsets the variable.
	Env map[string]string
	// Bare drops Dir and pins GIT_DIR instead.
	Bare bool

	ProvideStdin  bool
	CaptureStdout bool
	CaptureStderr bool
	// TeeStdout and TeeStderr echo captured output to the session's terminal writers.
	TeeStdout bool
	TeeStderr bool

	DisableEditor bool
	// SSHProxy routes ssh through the session's multiplexer.
	SSHProxy bool
}

// name is the label used in errors: the git subcommand, or the program.
func (s Spec) name() string {
	if s.Program == "" && len(s.Args) > 0 {
		return s.Args[0]
	}

	if s.Program == "" {
		return DefaultGit
	}

	return s.Program
}
