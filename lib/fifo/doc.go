// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

// Package fifo manages the lifecycle of the named pipe the server
// streams through. Create replaces whatever occupies the target path
// with a fresh FIFO; Destroy removes it and treats a missing entry as
// a no-op, so teardown is idempotent. ReleaseWriter completes the
// open(2) rendezvous from the read side, which is how the serve loop
// unblocks a producer stuck waiting for a reader during shutdown.
//
// Only the orchestrator creates and destroys the pipe. The producer
// opens it for writing, and the external consumer for reading.
package fifo
