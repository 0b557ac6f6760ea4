// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package gitcmd

import (
	"fmt"
	"os"
	"runtime"
)

const (
	goosWindows      = "windows"
	binSh            = "/bin/sh"
	winSystem32      = "System32"
	cmdExe           = "cmd.exe"
	winSystemRootEnv = "SystemRoot"
)

// shellArgv returns the argv that runs line through the system shell.
// On unix the extra arguments become the positional parameters, with line itself as $0.
func shellArgv(line string, extra []string) []string {
	if runtime.GOOS == goosWindows {
		systemRoot := os.Getenv(winSystemRootEnv)
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		argv := []string{fmt.Sprintf(`%s\%s\%s`, systemRoot, winSystem32, cmdExe), "/C", line}

		return append(argv, extra...)
	}

	argv := []string{binSh, "-c", line, line}

	return append(argv, extra...)
}
