// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads the user configuration file and applies environment overrides.
//
// The file is YAML:
//
//	jobs: 8
//	manifest: /work/.repo/manifest.yaml
//	trace: false
//	git: git
//	ssh: ssh
//	color:
//	  ui: auto
//	  diff: always
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/reporun/internal/color"
	"github.com/spf13/afero"
)

const (
	// EnvConfigPath names the configuration file when --config is not given.
	EnvConfigPath = "REPORUN_CONFIG"
	// DefaultFileName is looked up in the user's home directory.
	DefaultFileName = ".reporun.yaml"
	// DefaultJobs is the pool size when nothing else is configured.
	DefaultJobs = 1
)

var (
	// ErrReadConfig is returned when an explicitly named configuration file cannot be read.
	ErrReadConfig = errors.New("cannot read configuration file")
	// ErrInvalidYaml is returned when the configuration file is not valid YAML.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidJobs is returned for a jobs value below one.
	ErrInvalidJobs = errors.New("jobs must be at least 1")
)

// Config is the user configuration.
type Config struct {
	Jobs     int            `yaml:"jobs"`
	Manifest string         `yaml:"manifest"`
	Trace    bool           `yaml:"trace"`
	Git      string         `yaml:"git"`
	SSH      string         `yaml:"ssh"`
	Color    color.Settings `yaml:"color"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Jobs:  DefaultJobs,
		Git:   "git",
		SSH:   "ssh",
		Color: color.Settings{},
	}
}

// Load reads the configuration from path, or from the default location when path is empty,
// then applies environment overrides.
// A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}

	if !explicit {
		path = defaultPath()
	}

	if path != "" {
		if err := cfg.readFile(path, explicit); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, cfg.Validate()
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Jobs < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidJobs, c.Jobs)
	}

	return nil
}

func (c *Config) readFile(path string, explicit bool) error {
	fs := FsFactory()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return errors.Join(ErrReadConfig, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidYaml, path, err) //nolint:errorlint
	}

	if c.Color == nil {
		c.Color = color.Settings{}
	}

	return nil
}

func defaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, DefaultFileName)
}
