// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Mode is a color preference as written in configuration.
type Mode int

const (
	// ModeAuto colors output only when the process output is color capable.
	ModeAuto Mode = iota
	// ModeAlways colors output unconditionally.
	ModeAlways
	// ModeNever disables color.
	ModeNever
)

// UISection is the fallback section consulted when a section has no setting of its own.
const UISection = "ui"

// ErrUnknownMode is returned when a color setting cannot be parsed.
var ErrUnknownMode = errors.New("unknown color mode")

// ParseMode parses a configuration value. Empty, "auto" and "true" select ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "true":
		return ModeAuto, nil
	case "always":
		return ModeAlways, nil
	case "never", "false":
		return ModeNever, nil
	default:
		return ModeAuto, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Settings maps a section name (for example "forall" or "diff") to a color mode string.
type Settings map[string]string

// IsOn resolves the on/off decision for a section.
// Unparseable values fall back to auto detection.
func (s Settings) IsOn(section string) bool {
	v, ok := s[section]
	if !ok {
		v = s[UISection]
	}

	m, err := ParseMode(v)
	if err != nil {
		m = ModeAuto
	}

	switch m {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	default:
		return Enabled()
	}
}

type flusher interface {
	Flush() error
}

// Coloring emits text to a writer, wrapping printer output in ANSI codes when on.
type Coloring struct {
	w  io.Writer
	on bool
}

// New creates a Coloring writing to w.
func New(w io.Writer, on bool) *Coloring {
	return &Coloring{w: w, on: on}
}

// IsOn reports whether this Coloring emits escape codes.
func (c *Coloring) IsOn() bool {
	return c.on
}

// Printer returns a printf-style function that renders with the given attributes.
func (c *Coloring) Printer(codes ...Code) func(format string, args ...any) {
	return func(format string, args ...any) {
		s := fmt.Sprintf(format, args...)
		if c.on && len(codes) > 0 {
			s = Wrap(s, codes...)
		}

		io.WriteString(c.w, s) //nolint:errcheck
	}
}

// Write emits uncolored text.
func (c *Coloring) Write(format string, args ...any) {
	fmt.Fprintf(c.w, format, args...) //nolint:errcheck
}

// Nl emits a newline.
func (c *Coloring) Nl() {
	io.WriteString(c.w, "\n") //nolint:errcheck
}

// Flush flushes the underlying writer if it buffers.
func (c *Coloring) Flush() error {
	if f, ok := c.w.(flusher); ok {
		return f.Flush() //nolint:wrapcheck
	}

	return nil
}
