// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

// Package blocksize picks the I/O chunk size used when streaming input
// files into the pipe. The preferred size is the block size of the
// filesystem backing the first input file; when that cannot be
// determined, the system page size; when that is unavailable too, a
// fixed 4096-byte default. Every probe failure is a soft fallback,
// never an error — a size is always returned.
package blocksize
