// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package gitcmd runs git, or any other program, with a sanitized environment.
//
// A Session is created once by the top-level process and carried in the context. It owns the
// ssh multiplexer (if any), the trace switch and the remembered trace state. Each invocation is
// described by a Spec, started with Session.Start and finished with Command.Wait, which reads
// the captured streams as they become readable and optionally echoes them to the terminal.
//
// Set REPO_TRACE=1 to print every invocation to stderr in a form that can be pasted into a shell.
package gitcmd
