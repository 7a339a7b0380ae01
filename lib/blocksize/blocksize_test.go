// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

package blocksize

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestResolveUsesFilesystemBlockSize(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "input.txt")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("writing input file: %v", err)
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(directory, &stat); err != nil {
		t.Skipf("statfs unavailable on this filesystem: %v", err)
	}

	got := Resolve(path)
	if got != int(stat.Bsize) {
		t.Errorf("Resolve(%q) = %d, want filesystem block size %d", path, got, stat.Bsize)
	}
}

func TestResolveNonexistentFileStillPositive(t *testing.T) {
	// The file need not exist; the containing directory is what gets
	// probed, and even a bogus directory must fall back cleanly.
	got := Resolve(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	if got <= 0 {
		t.Errorf("Resolve = %d, want a positive size", got)
	}
}

func TestResolveEmptyPathFallsBack(t *testing.T) {
	got := Resolve("")
	if got <= 0 {
		t.Errorf("Resolve(\"\") = %d, want a positive size", got)
	}
	// With no path to probe, the result is the page size (or the
	// default when the page size is unavailable, which never happens
	// on platforms this tool supports).
	if got != os.Getpagesize() && got != Default {
		t.Errorf("Resolve(\"\") = %d, want page size %d or default %d", got, os.Getpagesize(), Default)
	}
}

func TestResolveUnprobeableDirectoryFallsBack(t *testing.T) {
	got := Resolve("/nonexistent-root-entry/sub/input.txt")
	if got <= 0 {
		t.Errorf("Resolve = %d, want a positive size", got)
	}
}
