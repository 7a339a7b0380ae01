// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ErstBlack/qcat/lib/fifo"
	"github.com/ErstBlack/qcat/lib/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startServer creates a Server over the given inputs and runs it in a
// goroutine. The returned channel carries Run's result.
func startServer(t *testing.T, ctx context.Context, pipePath string, inputs []string) <-chan error {
	t.Helper()
	server, err := New(Options{
		PipePath:   pipePath,
		InputFiles: inputs,
		BufferSize: 4096,
		Logger:     discardLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	runDone := make(chan error, 1)
	go func() { runDone <- server.Run(ctx) }()
	return runDone
}

func writeInputs(t *testing.T, contents ...string) []string {
	t.Helper()
	directory := t.TempDir()
	paths := make([]string, len(contents))
	for i, content := range contents {
		paths[i] = filepath.Join(directory, string(rune('a'+i))+".txt")
		if err := os.WriteFile(paths[i], []byte(content), 0644); err != nil {
			t.Fatalf("writing input %d: %v", i, err)
		}
	}
	return paths
}

// waitForPipe polls until a named pipe exists at path. When oldInode
// is nonzero, it additionally waits for a different inode, which is
// how tests detect that the previous cycle's pipe has been torn down
// and rebuilt rather than re-reading the doomed one.
func waitForPipe(t *testing.T, path string, oldInode uint64) uint64 {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var stat unix.Stat_t
		err := unix.Stat(path, &stat)
		if err == nil && stat.Mode&unix.S_IFMT == unix.S_IFIFO && stat.Ino != oldInode {
			return stat.Ino
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("fresh pipe did not appear at %s", path)
	return 0
}

// readPipe opens the pipe and reads it to end-of-stream.
func readPipe(t *testing.T, path string) []byte {
	t.Helper()
	reader, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening pipe for reading: %v", err)
	}
	defer reader.Close()
	received, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	return received
}

func TestRunServesOneReader(t *testing.T) {
	pipePath := filepath.Join(t.TempDir(), "merged")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := startServer(t, ctx, pipePath, writeInputs(t, "AB", "CD"))
	waitForPipe(t, pipePath, 0)

	if got := readPipe(t, pipePath); string(got) != "ABCD" {
		t.Errorf("reader received %q, want %q", got, "ABCD")
	}

	cancel()
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "Run returning"); err != nil {
		t.Errorf("Run: %v", err)
	}
	if _, err := os.Stat(pipePath); !os.IsNotExist(err) {
		t.Errorf("pipe still present after termination (stat err = %v)", err)
	}
}

func TestRunRebuildsPipeBetweenReaders(t *testing.T) {
	pipePath := filepath.Join(t.TempDir(), "merged")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := startServer(t, ctx, pipePath, writeInputs(t, "AB", "CD"))

	inode := waitForPipe(t, pipePath, 0)
	if got := readPipe(t, pipePath); string(got) != "ABCD" {
		t.Fatalf("first reader received %q, want %q", got, "ABCD")
	}

	// The second consumer gets its own full concatenation from a
	// fresh pipe — no carried-over read position.
	waitForPipe(t, pipePath, inode)
	if got := readPipe(t, pipePath); string(got) != "ABCD" {
		t.Errorf("second reader received %q, want %q", got, "ABCD")
	}

	cancel()
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "Run returning"); err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestTerminationWithNoReaderRemovesPipe(t *testing.T) {
	pipePath := filepath.Join(t.TempDir(), "merged")
	ctx, cancel := context.WithCancel(context.Background())

	runDone := startServer(t, ctx, pipePath, writeInputs(t, "AB"))
	waitForPipe(t, pipePath, 0)

	// No reader ever connects: the producer is blocked in its write
	// open. Termination must release it and remove the pipe.
	cancel()
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "Run returning"); err != nil {
		t.Errorf("Run: %v", err)
	}
	if _, err := os.Stat(pipePath); !os.IsNotExist(err) {
		t.Errorf("pipe still present after termination (stat err = %v)", err)
	}
}

func TestInputFailureDoesNotStopLoop(t *testing.T) {
	inputs := writeInputs(t, "AB")
	inputs = append(inputs, filepath.Join(t.TempDir(), "missing.txt"))
	pipePath := filepath.Join(t.TempDir(), "merged")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := startServer(t, ctx, pipePath, inputs)

	// First cycle aborts mid-stream; the reader sees the bytes that
	// made it out, then end-of-stream.
	inode := waitForPipe(t, pipePath, 0)
	if got := readPipe(t, pipePath); string(got) != "AB" {
		t.Errorf("first reader received %q, want %q", got, "AB")
	}

	// The loop survives: a fresh pipe appears and the next consumer
	// triggers a fresh attempt with the same list.
	waitForPipe(t, pipePath, inode)
	if got := readPipe(t, pipePath); string(got) != "AB" {
		t.Errorf("second reader received %q, want %q", got, "AB")
	}

	cancel()
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "Run returning"); err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestRunFatalWhenPipeCannotBeCreated(t *testing.T) {
	pipePath := filepath.Join(t.TempDir(), "no-such-dir", "merged")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := startServer(t, ctx, pipePath, writeInputs(t, "AB"))
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "Run failing"); err == nil {
		t.Error("Run succeeded with an uncreatable pipe path, want error")
	}
}

func TestRunReplacesPreExistingFile(t *testing.T) {
	directory := t.TempDir()
	pipePath := filepath.Join(directory, "merged")
	if err := os.WriteFile(pipePath, []byte("stale"), 0644); err != nil {
		t.Fatalf("writing pre-existing file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := startServer(t, ctx, pipePath, writeInputs(t, "AB"))
	waitForPipe(t, pipePath, 0)
	if !fifo.IsPipe(pipePath) {
		t.Error("pre-existing file was not replaced by a pipe")
	}

	if got := readPipe(t, pipePath); string(got) != "AB" {
		t.Errorf("reader received %q, want %q", got, "AB")
	}

	cancel()
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "Run returning"); err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		options Options
		wantErr bool
	}{
		{
			name: "valid",
			options: Options{
				PipePath:   "/tmp/merged",
				InputFiles: []string{"/tmp/a"},
				BufferSize: 4096,
			},
		},
		{
			name: "missing pipe path",
			options: Options{
				InputFiles: []string{"/tmp/a"},
				BufferSize: 4096,
			},
			wantErr: true,
		},
		{
			name: "no input files",
			options: Options{
				PipePath:   "/tmp/merged",
				BufferSize: 4096,
			},
			wantErr: true,
		},
		{
			name: "zero buffer size",
			options: Options{
				PipePath:   "/tmp/merged",
				InputFiles: []string{"/tmp/a"},
			},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(test.options)
			if test.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !test.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
