// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads a serving definition from a YAML file. The file
// is an alternative to spelling the pipe path and input list out on
// the command line — useful when qcat runs under a service manager and
// the invocation should live in reviewable configuration instead of a
// unit file's argv.
//
// There is no automatic discovery: the file is loaded only when
// --config names it, and flags and positional arguments override
// anything it contains.
package config
