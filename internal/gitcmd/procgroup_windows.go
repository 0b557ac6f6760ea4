// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package gitcmd

import "os/exec"

func setProcessGroup(*exec.Cmd) {}
