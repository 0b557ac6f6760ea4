// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package sshmux

import "os"

var terminateSignal = os.Kill
