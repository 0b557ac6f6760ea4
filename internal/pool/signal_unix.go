// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package pool

import "syscall"

var terminateSignal = syscall.SIGTERM
