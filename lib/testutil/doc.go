// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for channel-based
// synchronization with timeouts. Tests that wait on a serve-cycle
// completion or a goroutine exit use these instead of bare channel
// receives, so a bug hangs the test for a bounded time and fails with
// a message instead of deadlocking the whole run.
package testutil
