// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package streammux

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBroken = errors.New("broken pipe")

type trackingReader struct {
	io.Reader
	closed atomic.Bool
}

func (r *trackingReader) Close() error {
	r.closed.Store(true)
	return nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errBroken }
func (failingReader) Close() error             { return nil }

func collect(t *testing.T, ch <-chan Chunk) map[Stream]string {
	t.Helper()

	got := map[Stream]*bytes.Buffer{Stdout: {}, Stderr: {}}
	require.NoError(t, Drain(ch, func(c Chunk) error {
		got[c.Stream].Write(c.Data)
		return nil
	}))

	return map[Stream]string{Stdout: got[Stdout].String(), Stderr: got[Stderr].String()}
}

func TestMultiplexPreservesPerStreamOrder(t *testing.T) {
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()

	ch := Multiplex(Source{Stream: Stdout, R: outR}, Source{Stream: Stderr, R: errR})

	go func() {
		for _, s := range []string{"a1 ", "a2 ", "a3"} {
			_, _ = outW.Write([]byte(s))
		}

		_ = outW.Close()
	}()

	go func() {
		for _, s := range []string{"b1 ", "b2"} {
			_, _ = errW.Write([]byte(s))
		}

		_ = errW.Close()
	}()

	got := collect(t, ch)
	assert.Equal(t, "a1 a2 a3", got[Stdout])
	assert.Equal(t, "b1 b2", got[Stderr])
}

func TestMultiplexClosesExhaustedStreams(t *testing.T) {
	big := strings.Repeat("x", ChunkSize*2+17)
	out := &trackingReader{Reader: strings.NewReader(big)}
	errs := &trackingReader{Reader: strings.NewReader("")}

	var sizes []int

	require.NoError(t, Drain(Multiplex(Source{Stream: Stdout, R: out}, Source{Stream: Stderr, R: errs}), func(c Chunk) error {
		sizes = append(sizes, len(c.Data))
		return nil
	}))

	assert.True(t, out.closed.Load())
	assert.True(t, errs.closed.Load(), "an empty stream still leaves the set")

	total := 0
	for _, n := range sizes {
		assert.LessOrEqual(t, n, ChunkSize)
		total += n
	}

	assert.Equal(t, len(big), total)
}

func TestMultiplexNoSources(t *testing.T) {
	_, ok := <-Multiplex(Source{Stream: Stdout})
	assert.False(t, ok, "nil readers are skipped and the channel closes")
}

func TestMultiplexReadError(t *testing.T) {
	ok := &trackingReader{Reader: strings.NewReader("fine")}

	err := Drain(Multiplex(Source{Stream: Stderr, R: failingReader{}}, Source{Stream: Stdout, R: ok}), func(Chunk) error {
		return nil
	})

	require.ErrorIs(t, err, errBroken)
	assert.True(t, ok.closed.Load(), "remaining streams are still drained")
}

func TestStreamString(t *testing.T) {
	assert.Equal(t, "stdout", Stdout.String())
	assert.Equal(t, "stderr", Stderr.String())
	assert.Equal(t, "Stream(7)", Stream(7).String())
}
