// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package streammux

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// terminal interleaves both streams into one buffer so tests can check the order of writes.
type terminal struct {
	buf     bytes.Buffer
	banners int
}

func (t *terminal) coalescer(first, verbose bool) *Coalescer {
	return &Coalescer{
		Stdout: writerFunc(func(p []byte) (int, error) { return t.buf.Write(p) }),
		Stderr: writerFunc(func(p []byte) (int, error) { return t.buf.Write(append([]byte("E:"), p...)) }),
		Banner: func(w io.Writer) {
			t.banners++
			fmt.Fprint(w, "project a/b/\n")
		},
		First:   first,
		Verbose: verbose,
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func out(s string) Chunk  { return Chunk{Stream: Stdout, Data: []byte(s)} }
func errc(s string) Chunk { return Chunk{Stream: Stderr, Data: []byte(s)} }

func feed(t *testing.T, c *Coalescer, chunks ...Chunk) {
	t.Helper()

	for _, ch := range chunks {
		require.NoError(t, c.Feed(ch))
	}

	require.NoError(t, c.Close())
}

func TestCoalescerStderrOnly(t *testing.T) {
	term := &terminal{}
	feed(t, term.coalescer(true, false), errc("w1\n"), errc("w2\n"))

	assert.Equal(t, 1, term.banners)
	assert.Equal(t, "project a/b/\nE:w1\nw2\n", term.buf.String(), "buffered stderr is flushed once, after the banner")
}

func TestCoalescerNoOutputNoBanner(t *testing.T) {
	term := &terminal{}
	c := term.coalescer(false, false)
	feed(t, c, Chunk{Stream: Stdout})

	assert.Equal(t, 0, term.banners)
	assert.Empty(t, term.buf.String())
	assert.False(t, c.Started())
}

func TestCoalescerStdoutTriggersBanner(t *testing.T) {
	term := &terminal{}
	feed(t, term.coalescer(false, false), errc("warn\n"), out("line1\n"), errc("late\n"), out("line2\n"))

	assert.Equal(t, 1, term.banners)
	assert.Equal(t, "\nproject a/b/\nE:warn\nline1\nE:late\nline2\n", term.buf.String())
}

func TestCoalescerVerbose(t *testing.T) {
	term := &terminal{}
	feed(t, term.coalescer(true, true), errc("first\n"), out("then\n"))

	assert.Equal(t, "project a/b/\nE:first\nthen\n", term.buf.String(), "verbose lets stderr start the banner")
}

func TestCoalescerFlushesBufferedWriters(t *testing.T) {
	var sink bytes.Buffer

	bw := &flushCounter{w: &sink}
	c := &Coalescer{Stdout: bw, Stderr: bw, First: true}
	require.NoError(t, c.Feed(out("x")))

	assert.Equal(t, "x", sink.String())
	assert.GreaterOrEqual(t, bw.flushes, 2, "banner and chunk are each flushed")
}

type flushCounter struct {
	w       io.Writer
	pending []byte
	flushes int
}

func (f *flushCounter) Write(p []byte) (int, error) {
	f.pending = append(f.pending, p...)
	return len(p), nil
}

func (f *flushCounter) Flush() error {
	f.flushes++
	_, err := f.w.Write(f.pending)
	f.pending = nil

	return err
}
