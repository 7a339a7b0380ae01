// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

package fifo

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Create makes a named pipe at path with mode 0666 (read/write for
// owner, group, and other — the common FIFO default, subject to the
// process umask). Any entry already occupying the path, of any type,
// is removed first. Creation failure after the removal step is a hard
// error: the caller treats it as fatal and does not retry.
func Create(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing existing entry at %s: %w", path, err)
	}
	if err := unix.Mkfifo(path, 0o666); err != nil {
		return fmt.Errorf("creating fifo at %s: %w", path, err)
	}
	return nil
}

// Destroy removes the pipe at path. Idempotent: a missing entry is not
// an error.
func Destroy(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing fifo at %s: %w", path, err)
	}
	return nil
}

// ReleaseWriter opens the pipe read-only without blocking and closes
// it immediately. A producer blocked in its write-open sees the
// rendezvous complete and returns, at which point it can observe
// cancellation. Best-effort: errors are returned for logging but the
// caller proceeds with teardown regardless.
func ReleaseWriter(path string) error {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("opening fifo read side at %s: %w", path, err)
	}
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("closing fifo read side at %s: %w", path, err)
	}
	return nil
}

// IsPipe reports whether the entry at path exists and is a named pipe.
func IsPipe(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeNamedPipe != 0
}
