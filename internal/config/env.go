// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
)

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "REPORUN_JOBS",
		apply: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.Jobs = n
			}
		},
	},
	{
		envVar: "REPORUN_MANIFEST",
		apply: func(c *Config, v string) {
			c.Manifest = v
		},
	},
	{
		envVar: "REPORUN_GIT",
		apply: func(c *Config, v string) {
			c.Git = v
		},
	},
	{
		envVar: "REPO_TRACE",
		apply: func(c *Config, v string) {
			c.Trace = v == "1"
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}
