// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package gitcmd

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
)

// MinGitVersion is the oldest git reporun works with.
const MinGitVersion = "1.5.4"

// "git version 2.39.3 (Apple Git-145)" and "git version 1.5.4.rc2" both parse.
var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// Call runs "git <name> args..." with inherited streams and reports whether it exited 0.
// Underscores in name become dashes, so "check_ref_format" runs "check-ref-format".
func (s *Session) Call(ctx context.Context, name string, args ...string) bool {
	argv := append([]string{strings.ReplaceAll(name, "_", "-")}, args...)

	res, err := s.Run(ctx, Spec{Args: argv})

	return err == nil && res.ExitCode == 0
}

// Version returns the output of "git --version".
func (s *Session) Version(ctx context.Context) (string, error) {
	res, err := s.Run(ctx, Spec{Args: []string{"--version"}, CaptureStdout: true})
	if err != nil {
		return "", errors.Join(ErrVersion, err)
	}

	if res.ExitCode != 0 {
		return "", fmt.Errorf("%w: git --version exited %d", ErrVersion, res.ExitCode)
	}

	return strings.TrimSpace(res.Stdout), nil
}

// ParseVersion extracts the numeric version from "git --version" output.
func ParseVersion(s string) (*version.Version, error) {
	m := versionRe.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrVersion, s)
	}

	patch := m[3]
	if patch == "" {
		patch = "0"
	}

	v, err := version.NewVersion(m[1] + "." + m[2] + "." + patch)
	if err != nil {
		return nil, errors.Join(ErrVersion, err)
	}

	return v, nil
}

// CheckVersion fails with ErrGitTooOld when the installed git is older than minimum.
func (s *Session) CheckVersion(ctx context.Context, minimum string) (*version.Version, error) {
	out, err := s.Version(ctx)
	if err != nil {
		return nil, err
	}

	have, err := ParseVersion(out)
	if err != nil {
		return nil, err
	}

	want, err := version.NewVersion(minimum)
	if err != nil {
		return have, fmt.Errorf("invalid minimum version %q: %w", minimum, err)
	}

	if have.LessThan(want) {
		return have, fmt.Errorf("%w: have %s, need %s or newer", ErrGitTooOld, have, want)
	}

	return have, nil
}

// CheckRefFormat reports whether name is a valid ref name.
func (s *Session) CheckRefFormat(ctx context.Context, name string) bool {
	return s.Call(ctx, "check_ref_format", name)
}
