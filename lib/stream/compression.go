// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression selects the encoding applied to the merged stream on its
// way into the pipe.
type Compression string

const (
	// CompressionNone streams the input bytes unmodified. The consumer
	// receives the byte-identical concatenation of the input files.
	CompressionNone Compression = "none"

	// CompressionGzip wraps each cycle's stream in a gzip encoder.
	CompressionGzip Compression = "gzip"

	// CompressionZstd wraps each cycle's stream in a zstandard encoder.
	CompressionZstd Compression = "zstd"
)

// ParseCompression validates a compression name from a flag or config
// file. The empty string means none.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip:
		return CompressionGzip, nil
	case CompressionZstd:
		return CompressionZstd, nil
	}
	return "", fmt.Errorf("unknown compression %q (supported: none, gzip, zstd)", name)
}

// wrap returns the writer the producer should stream into and a finish
// function that flushes any encoder state. For CompressionNone the
// destination is returned as-is and finish is a no-op.
func (c Compression) wrap(destination io.Writer) (io.Writer, func() error, error) {
	switch c {
	case CompressionNone, "":
		return destination, func() error { return nil }, nil
	case CompressionGzip:
		encoder := gzip.NewWriter(destination)
		return encoder, encoder.Close, nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(destination)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		return encoder, encoder.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown compression %q", string(c))
}
