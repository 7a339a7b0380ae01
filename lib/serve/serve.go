// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErstBlack/qcat/lib/clock"
	"github.com/ErstBlack/qcat/lib/fifo"
	"github.com/ErstBlack/qcat/lib/stream"
)

// defaultReapTimeout bounds how long shutdown waits for a released
// producer to report back before abandoning it to process exit.
const defaultReapTimeout = 500 * time.Millisecond

// Options configures a Server. PipePath, InputFiles, and BufferSize
// are required; the rest default sensibly.
type Options struct {
	// PipePath is where the named pipe is created each cycle.
	PipePath string

	// InputFiles are streamed in this order, unchanged for the life
	// of the process.
	InputFiles []string

	// BufferSize is the chunk size for every read and write.
	BufferSize int

	// Compression selects the stream encoding. Defaults to none.
	Compression stream.Compression

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// ReapTimeout bounds the shutdown wait for a released producer.
	// Defaults to 500ms.
	ReapTimeout time.Duration
}

// Server owns the pipe path and the producer for the current cycle.
// Construct with New, then call Run once.
type Server struct {
	pipePath    string
	inputFiles  []string
	bufferSize  int
	compression stream.Compression
	clock       clock.Clock
	logger      *slog.Logger
	reapTimeout time.Duration
}

// cycleResult is one producer's completion report, sent exactly once
// on that cycle's channel.
type cycleResult struct {
	bytes int64
	err   error
}

// New validates options and returns a Server.
func New(options Options) (*Server, error) {
	if options.PipePath == "" {
		return nil, fmt.Errorf("pipe path is required")
	}
	if len(options.InputFiles) == 0 {
		return nil, fmt.Errorf("at least one input file is required")
	}
	if options.BufferSize <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %d", options.BufferSize)
	}
	if options.Compression == "" {
		options.Compression = stream.CompressionNone
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.ReapTimeout <= 0 {
		options.ReapTimeout = defaultReapTimeout
	}

	return &Server{
		pipePath:    options.PipePath,
		inputFiles:  options.InputFiles,
		bufferSize:  options.BufferSize,
		compression: options.Compression,
		clock:       options.Clock,
		logger:      options.Logger,
		reapTimeout: options.ReapTimeout,
	}, nil
}

// Run executes serve cycles until ctx is canceled. Each cycle creates
// the pipe, spawns a producer goroutine that streams the input files
// into it, waits for the producer's completion report, and removes the
// pipe before the next cycle begins — so there is never a window where
// a consumer can open a half-torn-down pipe from the previous cycle.
//
// Run returns nil on cancellation (the pipe has been removed) and an
// error only when pipe creation fails, which the caller treats as a
// non-zero process exit.
func (s *Server) Run(ctx context.Context) error {
	cycle := 0
	for {
		if ctx.Err() != nil {
			s.logger.Info("terminated", "pipe", s.pipePath, "cycles_served", cycle)
			return nil
		}

		if err := fifo.Create(s.pipePath); err != nil {
			return err
		}
		cycle++
		started := s.clock.Now()

		writer := stream.NewWriter(s.pipePath, s.inputFiles, s.bufferSize, s.compression)
		done := make(chan cycleResult, 1)
		go func() {
			written, err := writer.Serve(ctx)
			done <- cycleResult{bytes: written, err: err}
		}()

		select {
		case result := <-done:
			s.finishCycle(cycle, started, result)
		case <-ctx.Done():
			s.shutdown(done)
			s.logger.Info("terminated", "pipe", s.pipePath, "cycles_served", cycle-1)
			return nil
		}
	}
}

// finishCycle removes the pipe and logs the cycle's outcome. Teardown
// happens before logging so the path is already clear for the next
// consumer by the time the record appears.
func (s *Server) finishCycle(cycle int, started time.Time, result cycleResult) {
	if err := fifo.Destroy(s.pipePath); err != nil {
		s.logger.Warn("tearing down pipe", "pipe", s.pipePath, "error", err)
	}

	duration := s.clock.Now().Sub(started)
	if result.err != nil {
		var inputErr *stream.InputError
		if errors.As(result.err, &inputErr) {
			s.logger.Error("cycle aborted on input failure",
				"cycle", cycle,
				"input", inputErr.Path,
				"error", inputErr.Err,
				"bytes_before_failure", result.bytes,
			)
		} else {
			s.logger.Error("cycle failed",
				"cycle", cycle,
				"error", result.err,
				"bytes_before_failure", result.bytes,
			)
		}
		return
	}

	s.logger.Info("cycle complete",
		"cycle", cycle,
		"bytes", result.bytes,
		"files", len(s.inputFiles),
		"duration", duration,
	)
}

// shutdown handles termination while a producer is still out. A
// producer blocked in its write-open cannot see the cancellation, so
// the rendezvous is completed from the read side first; the wait for
// its report is bounded because a producer mid-stream to a connected
// consumer exits with the process anyway. The pipe is always removed.
func (s *Server) shutdown(done <-chan cycleResult) {
	if err := fifo.ReleaseWriter(s.pipePath); err != nil {
		s.logger.Debug("releasing blocked producer", "error", err)
	}

	select {
	case <-done:
	case <-s.clock.After(s.reapTimeout):
		s.logger.Debug("producer still running at exit", "pipe", s.pipePath)
	}

	if err := fifo.Destroy(s.pipePath); err != nil {
		s.logger.Warn("removing pipe during shutdown", "pipe", s.pipePath, "error", err)
	}
}
