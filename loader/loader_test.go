package loader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatHintsIsAlwaysCanonicalCSV(t *testing.T) {
	hints := outputFormatHints()
	assert.Equal(t, ',', hints.Delimiter)
	assert.False(t, hints.Header)
	assert.True(t, hints.Qualified)
}

func TestStreamLinesWritesEveryRow(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chan sourceopts.Line, 2)
	lines <- sourceopts.Line{Text: "a,b\n"}
	lines <- sourceopts.Line{Text: "c,d\n"}
	close(lines)

	var buf bytes.Buffer
	err := streamLines(cancel, lines, &buf)
	require.NoError(t, err)
	assert.Equal(t, "a,b\nc,d\n", buf.String())
}

func TestStreamLinesStopsWritingAfterFirstError(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chan sourceopts.Line, 3)
	lines <- sourceopts.Line{Text: "a,b\n"}
	lines <- sourceopts.Line{Err: errors.New("boom")}
	lines <- sourceopts.Line{Text: "should,not,appear\n"}
	close(lines)

	var buf bytes.Buffer
	err := streamLines(cancel, lines, &buf)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, "a,b\n", buf.String())
}

func TestStreamLinesOnWriteFailureReturnsWrappedError(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chan sourceopts.Line, 1)
	lines <- sourceopts.Line{Text: "a,b\n"}
	close(lines)

	err := streamLines(cancel, lines, failingWriter{})
	require.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

// TestPipeCloseWithErrorPropagatesToReader guards against the read side of
// an aborted copy observing a clean io.EOF instead of the error that
// actually aborted it, which is what streamLines's caller relies on to
// decide whether the pipe's write half was closed on an error.
func TestPipeCloseWithErrorPropagatesToReader(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chan sourceopts.Line, 1)
	lines <- sourceopts.Line{Err: errors.New("boom")}
	close(lines)

	pr, pw := io.Pipe()
	writeErrCh := make(chan error, 1)
	go func() {
		streamErr := streamLines(cancel, lines, pw)
		writeErrCh <- streamErr
		if streamErr != nil {
			pw.CloseWithError(streamErr)
			return
		}
		pw.Close()
	}()

	_, readErr := io.ReadAll(pr)
	writeErr := <-writeErrCh
	require.Error(t, writeErr)
	require.Error(t, readErr)
	assert.Equal(t, "boom", readErr.Error())
}

func TestDrainConsumesEveryPendingLine(t *testing.T) {
	lines := make(chan sourceopts.Line, 2)
	lines <- sourceopts.Line{Text: "x\n"}
	lines <- sourceopts.Line{Err: errors.New("ignored")}
	close(lines)

	done := make(chan struct{})
	go func() {
		drain(lines)
		close(done)
	}()

	select {
	case <-done:
	default:
	}
	<-done
}
