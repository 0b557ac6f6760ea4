// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog provides a context-aware logger built on log/slog.
//
// The default is a pretty console handler writing to standard error, so that the
// output of the commands being run keeps standard output to itself.
// The level is read from <EXE>_LOG_LEVEL, for example REPORUN_LOG_LEVEL=DEBUG.
package ctxlog
