// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

// qcat serves the concatenation of a fixed list of files through a
// named pipe, forever. Each consumer that opens the pipe for reading
// receives one complete concatenation, byte-identical to the files in
// listed order, terminated by end-of-stream; the pipe is then torn
// down and rebuilt so the next open starts fresh.
//
// Usage:
//
//	qcat [flags] <output_pipe_path> <input_file> [input_file ...]
//
// The serving definition can alternatively come from a YAML file via
// --config; positional arguments and flags override it. The process
// runs until SIGINT or SIGTERM, removes the pipe, and exits 0.
package main
