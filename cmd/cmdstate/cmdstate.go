// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdstate carries state prepared by the root command to its subcommands.
package cmdstate

import (
	"context"

	"github.com/matt-FFFFFF/reporun/internal/config"
)

type configKey struct{}

type commandKey struct{}

// WithConfig stores the loaded configuration.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// Config returns the loaded configuration, or the defaults when none was stored.
func Config(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}

	return config.Default()
}

// WithCommand stores the user command split off the command line before flag parsing.
func WithCommand(ctx context.Context, args []string) context.Context {
	return context.WithValue(ctx, commandKey{}, args)
}

// Command returns the stored user command.
func Command(ctx context.Context) []string {
	args, _ := ctx.Value(commandKey{}).([]string)
	return args
}
