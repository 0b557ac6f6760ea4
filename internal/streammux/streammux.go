// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package streammux reads a child's stdout and stderr concurrently and delivers the
// chunks, tagged by stream, in the order they became available.
package streammux

import (
	"errors"
	"fmt"
	"io"
)

// ChunkSize is the largest read issued against a stream.
const ChunkSize = 4096

// Stream identifies the source of a chunk.
type Stream int

const (
	// Stdout is the child's standard output.
	Stdout Stream = iota
	// Stderr is the child's standard error.
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("Stream(%d)", int(s))
	}
}

// Chunk is one read from a stream. Err is set, with no data, when the read failed.
type Chunk struct {
	Stream Stream
	Data   []byte
	Err    error
}

// Source is an open stream to read.
type Source struct {
	Stream Stream
	R      io.ReadCloser
}

// Multiplex reads every source until end of stream and delivers the chunks on one channel.
// A source is closed once it is exhausted or fails. The channel is closed when all sources are done,
// and must be drained by the caller.
func Multiplex(sources ...Source) <-chan Chunk {
	ch := make(chan Chunk)
	done := make(chan struct{}, len(sources))
	open := 0

	for _, src := range sources {
		if src.R == nil {
			continue
		}

		open++

		go func() {
			defer func() { done <- struct{}{} }()
			pump(src, ch)
		}()
	}

	go func() {
		for range open {
			<-done
		}

		close(ch)
	}()

	return ch
}

func pump(src Source, ch chan<- Chunk) {
	defer src.R.Close() //nolint:errcheck

	for {
		buf := make([]byte, ChunkSize)
		n, err := src.R.Read(buf)

		if n > 0 {
			ch <- Chunk{Stream: src.Stream, Data: buf[:n]}
		}

		if err == nil {
			continue
		}

		if !errors.Is(err, io.EOF) {
			ch <- Chunk{Stream: src.Stream, Err: fmt.Errorf("reading %s: %w", src.Stream, err)}
		}

		return
	}
}

// Drain feeds every chunk of ch to fn. It keeps draining after fn fails and returns the first error.
func Drain(ch <-chan Chunk, fn func(Chunk) error) error {
	var first error

	for c := range ch {
		if first != nil {
			continue
		}

		if c.Err != nil {
			first = c.Err
			continue
		}

		first = fn(c)
	}

	return first
}
