// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrReadManifest is returned when a local manifest cannot be read.
	ErrReadManifest = errors.New("cannot read manifest")
	// ErrParseManifest is returned when a manifest cannot be decoded.
	ErrParseManifest = errors.New("failed to parse manifest")
	// ErrUnknownFormat is returned for a manifest whose extension is not .yaml, .yml or .hcl.
	ErrUnknownFormat = errors.New("unknown manifest format")
)

// Load reads a manifest from a local path or, when src is not a local file, fetches it with
// go-getter. The format is chosen by file extension.
func Load(ctx context.Context, src string) (*Manifest, error) {
	fs := FsFactory()

	if ok, _ := afero.Exists(fs, src); ok {
		data, err := afero.ReadFile(fs, src)
		if err != nil {
			return nil, errors.Join(ErrReadManifest, err)
		}

		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, errors.Join(ErrReadManifest, err)
		}

		return Parse(src, data, filepath.Dir(abs))
	}

	data, name, err := Fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrReadManifest, err)
	}

	return Parse(name, data, wd)
}

// Parse decodes a manifest. A relative or empty topdir is taken relative to base.
func Parse(filename string, data []byte, base string) (*Manifest, error) {
	m := &Manifest{}

	var err error

	switch ext := strings.ToLower(path.Ext(filename)); ext {
	case ".yaml", ".yml":
		err = parseYAML(data, m)
	case ".hcl":
		err = parseHCL(filename, data, m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, filename)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParseManifest, filename, err)
	}

	if err := m.normalize(base); err != nil {
		return nil, errors.Join(ErrParseManifest, err)
	}

	return m, nil
}

func parseYAML(data []byte, m *Manifest) error {
	return yaml.UnmarshalWithOptions(data, m, yaml.Strict()) //nolint:wrapcheck
}

func parseHCL(filename string, data []byte, m *Manifest) error {
	file, diags := hclsyntax.ParseConfig(data, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return diags
	}

	if diags := gohcl.DecodeBody(file.Body, evalContext(os.Environ()), m); diags.HasErrors() {
		return diags
	}

	return nil
}

// evalContext exposes the process environment to HCL expressions as env.NAME.
func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !hclsyntax.ValidIdentifier(k) {
			continue
		}

		vars[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}
