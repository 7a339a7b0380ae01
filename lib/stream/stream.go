// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"fmt"
	"io"
	"os"
)

// InputError reports a failure to open or read one input file. The
// cycle aborts at the first such failure; Path names the offending
// file so the operator can tell which entry of the list is broken.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input file %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Writer streams the concatenation of a fixed input-file list into the
// named pipe, once per call to Serve. The input list and buffer size
// are fixed for the life of the process; the orchestrator constructs a
// fresh Writer per cycle but always from the same values.
type Writer struct {
	pipePath    string
	inputFiles  []string
	bufferSize  int
	compression Compression
}

// NewWriter returns a Writer for one serve cycle. bufferSize must be
// positive; inputFiles must be non-empty. Both are validated by the
// orchestrator before any cycle starts.
func NewWriter(pipePath string, inputFiles []string, bufferSize int, compression Compression) *Writer {
	return &Writer{
		pipePath:    pipePath,
		inputFiles:  inputFiles,
		bufferSize:  bufferSize,
		compression: compression,
	}
}

// Serve opens the pipe for writing — blocking until a consumer opens
// the read side — and streams every input file into it in list order.
// It returns the number of input bytes streamed.
//
// The blocking open cannot observe ctx directly; during shutdown the
// orchestrator completes the rendezvous itself (fifo.ReleaseWriter),
// after which Serve notices the cancellation and returns ctx.Err()
// without writing anything.
//
// On success the write end is closed cleanly, which delivers
// end-of-stream to the consumer. On an input failure the pipe is
// closed mid-stream and the error names the offending file.
func (w *Writer) Serve(ctx context.Context) (int64, error) {
	pipe, err := os.OpenFile(w.pipePath, os.O_WRONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("opening pipe %s for writing: %w", w.pipePath, err)
	}

	if err := ctx.Err(); err != nil {
		pipe.Close()
		return 0, err
	}

	destination, finish, err := w.compression.wrap(pipe)
	if err != nil {
		pipe.Close()
		return 0, err
	}

	total, streamErr := w.streamAll(ctx, destination)
	if streamErr != nil {
		pipe.Close()
		return total, streamErr
	}

	// Flush the encoder before closing the pipe so the consumer sees a
	// complete compressed stream, then close to signal end-of-stream.
	if err := finish(); err != nil {
		pipe.Close()
		return total, fmt.Errorf("finishing %s stream: %w", w.compression, err)
	}
	if err := pipe.Close(); err != nil {
		return total, fmt.Errorf("closing pipe %s: %w", w.pipePath, err)
	}
	return total, nil
}

// streamAll copies each input file into destination in list order.
func (w *Writer) streamAll(ctx context.Context, destination io.Writer) (int64, error) {
	buffer := make([]byte, w.bufferSize)
	var total int64
	for _, path := range w.inputFiles {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		written, err := copyFile(destination, path, buffer)
		total += written
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// copyFile streams one input file into destination in chunks of
// len(buffer) bytes. Read failures (including the initial open) are
// wrapped in InputError; write failures are reported as-is, since they
// indicate the consumer hung up rather than a broken input.
func copyFile(destination io.Writer, path string, buffer []byte) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, &InputError{Path: path, Err: err}
	}
	defer file.Close()

	var written int64
	for {
		n, readErr := file.Read(buffer)
		if n > 0 {
			if _, writeErr := destination.Write(buffer[:n]); writeErr != nil {
				return written, fmt.Errorf("writing to pipe: %w", writeErr)
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, &InputError{Path: path, Err: readErr}
		}
	}
}
