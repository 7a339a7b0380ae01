// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

package blocksize

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Default is the chunk size used when neither the filesystem block
// size nor the page size can be determined.
const Default = 4096

// Resolve returns the read/write chunk size to use for streaming,
// derived from the filesystem containing firstInputPath. The path does
// not need to exist — only its directory is consulted. Resolve is
// called once per process; the result is reused for every cycle.
func Resolve(firstInputPath string) int {
	if firstInputPath != "" {
		if size := filesystemBlockSize(firstInputPath); size > 0 {
			return size
		}
	}
	if size := os.Getpagesize(); size > 0 {
		return size
	}
	return Default
}

// filesystemBlockSize returns the preferred I/O block size reported by
// statfs for the directory containing path, or 0 when the query fails.
func filesystemBlockSize(path string) int {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return 0
	}
	directory := filepath.Dir(absolute)

	var stat unix.Statfs_t
	if err := unix.Statfs(directory, &stat); err != nil {
		return 0
	}
	return int(stat.Bsize)
}
