// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color decides whether output should be colored and renders ANSI escape codes.
//
// The process-wide decision honours NO_COLOR and FORCE_COLOR and otherwise checks whether
// standard output is a terminal using the golang.org/x/term package. Settings layers a
// per-section preference (always, never, auto) on top of that decision, and Coloring is the
// small text-emission surface used for project banners.
package color
