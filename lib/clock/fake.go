// Copyright 2026 The qcat Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock whose time starts at the given instant and
// advances only through Advance. After channels fire synchronously
// inside Advance when their deadline is reached, which makes timer
// behavior deterministic in tests.
func Fake(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// FakeClock is a deterministic Clock for tests. Safe for concurrent use.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	ch       chan time.Time
}

// Now returns the fake clock's current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that receives the fake time once Advance has
// moved the clock to or past the deadline. A non-positive duration
// fires on the next Advance call, not immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{
		deadline: c.now.Add(d),
		ch:       make(chan time.Time, 1),
	}
	c.timers = append(c.timers, timer)
	return timer.ch
}

// Advance moves the clock forward by d and fires every pending After
// channel whose deadline has been reached.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)

	remaining := c.timers[:0]
	for _, timer := range c.timers {
		if timer.deadline.After(c.now) {
			remaining = append(remaining, timer)
			continue
		}
		timer.ch <- c.now
	}
	c.timers = remaining
}

// PendingTimers returns the number of After channels that have not yet
// fired. Tests use this to wait for a goroutine to register its timer
// before advancing the clock.
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
