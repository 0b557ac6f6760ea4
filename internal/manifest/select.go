// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// DefaultGroups selects every project not marked notdefault.
const DefaultGroups = "default"

var (
	// ErrProjectNotFound is returned when a selection argument matches no project.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectGroups is returned when a named project is outside the requested groups.
	ErrProjectGroups = errors.New("project not in the requested groups")
	// ErrBadPattern is returned for an invalid regular expression.
	ErrBadPattern = errors.New("invalid project pattern")
)

// Selector chooses projects from a manifest.
type Selector struct {
	// Args are project names or paths, or patterns when Regex or Inverse is set.
	Args []string
	// Regex keeps projects whose name or path matches any pattern in Args.
	Regex bool
	// Inverse keeps projects matching none of the patterns in Args.
	Inverse bool
	// Groups is a comma or space separated group list. A leading "-" excludes a group.
	Groups string
}

// Select returns the chosen projects ordered by path.
func (m *Manifest) Select(sel Selector) ([]Project, error) {
	var (
		out []Project
		err error
	)

	switch {
	case sel.Regex || sel.Inverse:
		out, err = m.findProjects(sel.Args, sel.Inverse)
	case len(sel.Args) > 0:
		out, err = m.namedProjects(sel.Args, sel.Groups)
	default:
		groups := parseGroups(sel.Groups)
		for _, p := range m.Projects {
			if matchesGroups(p, groups) {
				out = append(out, p)
			}
		}
	}

	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b Project) int {
		return strings.Compare(a.Path, b.Path)
	})

	return out, nil
}

func (m *Manifest) findProjects(patterns []string, inverse bool) ([]Project, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadPattern, err)
		}

		res = append(res, re)
	}

	var out []Project

	for _, p := range m.Projects {
		matched := slices.ContainsFunc(res, func(re *regexp.Regexp) bool {
			return re.MatchString(p.Name) || re.MatchString(p.Path)
		})

		if matched != inverse {
			out = append(out, p)
		}
	}

	return out, nil
}

func (m *Manifest) namedProjects(args []string, groups string) ([]Project, error) {
	var want []string
	if groups != "" {
		want = parseGroups(groups)
	}

	var (
		out  []Project
		seen = make(map[string]bool)
	)

	for _, arg := range args {
		found := m.byName(arg)
		if len(found) == 0 {
			if p, ok := m.byPath(arg); ok {
				found = []Project{p}
			}
		}

		if len(found) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, arg)
		}

		for _, p := range found {
			if want != nil && !matchesGroups(p, want) {
				return nil, fmt.Errorf("%w: %s", ErrProjectGroups, arg)
			}

			if !seen[p.Path] {
				seen[p.Path] = true
				out = append(out, p)
			}
		}
	}

	return out, nil
}

func (m *Manifest) byName(name string) []Project {
	var out []Project

	for _, p := range m.Projects {
		if p.Name == name {
			out = append(out, p)
		}
	}

	return out
}

// byPath finds the project containing path, which may be absolute or relative to the topdir.
func (m *Manifest) byPath(path string) (Project, bool) {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(m.Topdir, path)
		if err != nil {
			return Project{}, false
		}

		path = rel
	}

	path = filepath.ToSlash(filepath.Clean(path))

	var (
		best Project
		ok   bool
	)

	for _, p := range m.Projects {
		if path != p.Path && !strings.HasPrefix(path, p.Path+"/") {
			continue
		}

		if !ok || len(p.Path) > len(best.Path) {
			best, ok = p, true
		}
	}

	return best, ok
}

func parseGroups(s string) []string {
	if s == "" {
		s = DefaultGroups
	}

	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// matchesGroups applies the groups in order; the last matching entry wins.
func matchesGroups(p Project, groups []string) bool {
	expanded := append([]string{"all", "name:" + p.Name, "path:" + p.Path}, p.Groups...)
	if !slices.Contains(p.Groups, "notdefault") {
		expanded = append(expanded, DefaultGroups)
	}

	matched := false

	for _, g := range groups {
		if exclude, ok := strings.CutPrefix(g, "-"); ok {
			if slices.Contains(expanded, exclude) {
				matched = false
			}

			continue
		}

		if slices.Contains(expanded, g) {
			matched = true
		}
	}

	return matched
}
