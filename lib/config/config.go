// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is a complete serving definition. Zero-valued fields are
// treated as unset and can be supplied or overridden by flags.
type Config struct {
	// PipePath is where the named pipe is created.
	PipePath string `yaml:"pipe_path"`

	// InputFiles are streamed in this order, every cycle.
	InputFiles []string `yaml:"input_files"`

	// BufferSize overrides the probed chunk size when positive.
	BufferSize int `yaml:"buffer_size,omitempty"`

	// Compression names the stream encoding: none, gzip, or zstd.
	Compression string `yaml:"compression,omitempty"`

	// LogLevel sets the slog level: debug, info, warn, or error.
	LogLevel string `yaml:"log_level,omitempty"`
}

// Load reads and parses a config file. Unknown fields are rejected so
// a typo in a key fails loudly instead of silently serving defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var loaded Config
	if err := decoder.Decode(&loaded); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &loaded, nil
}

// Validate checks that the config describes a servable definition.
// Called after flag overrides are merged in, so it sees final values.
func (c *Config) Validate() error {
	if c.PipePath == "" {
		return fmt.Errorf("pipe_path is required")
	}
	if len(c.InputFiles) == 0 {
		return fmt.Errorf("at least one input file is required")
	}
	for i, path := range c.InputFiles {
		if path == "" {
			return fmt.Errorf("input_files[%d] is empty", i)
		}
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer_size must not be negative, got %d", c.BufferSize)
	}
	return nil
}
