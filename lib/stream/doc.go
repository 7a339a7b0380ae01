// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream implements the producer side of a serve cycle: open
// the named pipe for writing (which blocks until a consumer opens the
// read side), then copy each input file into it in order, in chunks of
// the resolved buffer size, and close the write end so the consumer
// sees end-of-stream.
//
// A failure to open or read any input file aborts the cycle
// immediately and surfaces as an [InputError] naming the offending
// path. The orchestrator logs it and rebuilds the pipe for the next
// consumer; one bad read never takes down the serve loop.
//
// The stream can optionally be gzip- or zstd-encoded on the way into
// the pipe, in which case each consumer receives one complete
// compressed stream per cycle.
package stream
