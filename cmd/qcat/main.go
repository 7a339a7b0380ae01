// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ErstBlack/qcat/lib/blocksize"
	"github.com/ErstBlack/qcat/lib/config"
	"github.com/ErstBlack/qcat/lib/serve"
	"github.com/ErstBlack/qcat/lib/stream"
	"github.com/ErstBlack/qcat/lib/version"
)

// errUsage signals that a usage message has already been written to
// stderr and the process should exit 1 without further output.
var errUsage = errors.New("usage")

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// invocation holds the parsed command line. Flag values stay separate
// from the config file until resolveConfig merges them, so "flag not
// given" and "flag given as zero" remain distinguishable.
type invocation struct {
	configPath  string
	bufferSize  int
	compression string
	logLevel    string
	showVersion bool
	positional  []string
}

// newFlagSet registers qcat's flags against inv. Shared between
// parsing and usage printing so the two never drift apart.
func newFlagSet(inv *invocation) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("qcat", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&inv.configPath, "config", "", "path to a YAML serving definition")
	flagSet.IntVar(&inv.bufferSize, "buffer-size", 0, "chunk size in bytes (default: probed from the first input's filesystem)")
	flagSet.StringVar(&inv.compression, "compress", "", "stream encoding: none, gzip, or zstd")
	flagSet.StringVar(&inv.logLevel, "log-level", "", "log level: debug, info, warn, or error")
	flagSet.BoolVar(&inv.showVersion, "version", false, "print version information and exit")
	return flagSet
}

// parseArgs parses flags and positional arguments. The first
// positional argument is the output pipe path, the rest are input
// files; positional count validation happens in resolveConfig because
// a config file can supply both.
func parseArgs(args []string) (*invocation, error) {
	inv := &invocation{}
	flagSet := newFlagSet(inv)
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	inv.positional = flagSet.Args()
	return inv, nil
}

func printUsage() {
	var inv invocation
	fmt.Fprintf(os.Stderr, `usage: qcat [flags] <output_pipe_path> <input_file> [input_file ...]

Serves the concatenation of the input files through a named pipe at
the output path, rebuilding the pipe after every consumer. Runs until
SIGINT or SIGTERM.

Flags:
%s`, newFlagSet(&inv).FlagUsages())
}

// resolveConfig merges the command line over the optional config file.
// Positional arguments replace the file's pipe path and input list as
// a unit; scalar flags override field by field.
func resolveConfig(inv *invocation, fileConfig *config.Config) (*config.Config, error) {
	resolved := &config.Config{}
	if fileConfig != nil {
		*resolved = *fileConfig
	}

	if len(inv.positional) > 0 {
		if len(inv.positional) < 2 {
			return nil, fmt.Errorf("expected <output_pipe_path> followed by at least one <input_file>")
		}
		resolved.PipePath = inv.positional[0]
		resolved.InputFiles = inv.positional[1:]
	}
	if inv.bufferSize > 0 {
		resolved.BufferSize = inv.bufferSize
	}
	if inv.compression != "" {
		resolved.Compression = inv.compression
	}
	if inv.logLevel != "" {
		resolved.LogLevel = inv.logLevel
	}
	return resolved, nil
}

// parseLogLevel maps a config/flag string to a slog level. The empty
// string means info.
func parseLogLevel(name string) (slog.Level, error) {
	switch name {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error)", name)
}

// newLogger builds the process logger: human-readable text when stderr
// is a terminal, JSON when piped or redirected (service managers, CI).
func newLogger(level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

func run() error {
	inv, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage()
			return nil
		}
		fmt.Fprintf(os.Stderr, "qcat: %v\n", err)
		printUsage()
		return errUsage
	}

	if inv.showVersion {
		version.Print("qcat")
		return nil
	}

	var fileConfig *config.Config
	if inv.configPath != "" {
		fileConfig, err = config.Load(inv.configPath)
		if err != nil {
			return err
		}
	}

	resolved, err := resolveConfig(inv, fileConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qcat: %v\n", err)
		printUsage()
		return errUsage
	}
	if err := resolved.Validate(); err != nil {
		if inv.configPath != "" {
			return fmt.Errorf("config %s: %w", inv.configPath, err)
		}
		fmt.Fprintf(os.Stderr, "qcat: %v\n", err)
		printUsage()
		return errUsage
	}

	compression, err := stream.ParseCompression(resolved.Compression)
	if err != nil {
		return err
	}
	level, err := parseLogLevel(resolved.LogLevel)
	if err != nil {
		return err
	}
	logger := newLogger(level)

	// The chunk size is resolved once, before the first cycle, and
	// reused for the life of the process.
	bufferSize := resolved.BufferSize
	if bufferSize <= 0 {
		bufferSize = blocksize.Resolve(resolved.InputFiles[0])
	}

	server, err := serve.New(serve.Options{
		PipePath:    resolved.PipePath,
		InputFiles:  resolved.InputFiles,
		BufferSize:  bufferSize,
		Compression: compression,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("qcat serving",
		"pipe", resolved.PipePath,
		"inputs", len(resolved.InputFiles),
		"buffer_size", bufferSize,
		"compression", compression,
	)

	return server.Run(ctx)
}
