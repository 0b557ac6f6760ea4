// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package streammux

import (
	"bytes"
	"errors"
	"io"
)

// ErrWrite is returned when a chunk cannot be written to its destination.
var ErrWrite = errors.New("cannot write output")

type flusher interface {
	Flush() error
}

// Coalescer prints a project's output behind a banner that appears only once the project
// has something to say.
//
// Unless Verbose, stderr is held back until the first stdout chunk so a project that only
// warns does not claim a place in the output ahead of projects with real output.
type Coalescer struct {
	Stdout io.Writer
	Stderr io.Writer
	// Banner writes the project banner, including its trailing newline.
	Banner func(w io.Writer)
	// First suppresses the blank separator line before the banner.
	First   bool
	Verbose bool

	started bool
	errbuf  bytes.Buffer
}

// Started reports whether the banner has been printed.
func (c *Coalescer) Started() bool {
	return c.started
}

// Feed handles one chunk.
func (c *Coalescer) Feed(ch Chunk) error {
	if len(ch.Data) == 0 {
		return nil
	}

	if !c.started && !c.Verbose && ch.Stream == Stderr {
		c.errbuf.Write(ch.Data)
		return nil
	}

	if err := c.start(); err != nil {
		return err
	}

	dst := c.Stdout
	if ch.Stream == Stderr {
		dst = c.Stderr
	}

	return write(dst, ch.Data)
}

// Close flushes stderr that arrived without any stdout, printing the banner first.
func (c *Coalescer) Close() error {
	if c.started || c.errbuf.Len() == 0 {
		return nil
	}

	return c.start()
}

func (c *Coalescer) start() error {
	if c.started {
		return nil
	}

	c.started = true

	if !c.First {
		if err := write(c.Stdout, []byte("\n")); err != nil {
			return err
		}
	}

	if c.Banner != nil {
		c.Banner(c.Stdout)
	}

	if err := flush(c.Stdout); err != nil {
		return err
	}

	if c.errbuf.Len() > 0 {
		err := write(c.Stderr, c.errbuf.Bytes())
		c.errbuf.Reset()

		return err
	}

	return nil
}

func write(w io.Writer, p []byte) error {
	if _, err := w.Write(p); err != nil {
		return errors.Join(ErrWrite, err)
	}

	return flush(w)
}

func flush(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return errors.Join(ErrWrite, err)
		}
	}

	return nil
}
