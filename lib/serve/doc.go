// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

// Package serve runs the long-lived loop at the heart of qcat: create
// the named pipe, run one producer that streams the input files into
// it for whichever consumer connects, tear the pipe down, and start
// over. Each consumer that opens the pipe receives one complete,
// fresh concatenation; the next open gets its own.
//
// Exactly two actors exist per cycle: the orchestrator (the Run loop,
// one per process) and one producer goroutine. Completion is reported
// on a per-cycle buffered channel, so there is no shared flag to go
// stale between cycles, and the orchestrator's wait is interruptible
// by context cancellation at every suspension point.
//
// An input-read failure aborts only its own cycle: the error is
// logged with the offending file path, the pipe is rebuilt, and the
// next consumer triggers a fresh attempt with the unchanged list.
// Only pipe-creation failure is fatal.
package serve
