// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress reports how far a batch of work has got.
// Producers send events to a Reporter; a Meter listens and draws a one-line counter
// on the terminal.
package progress
