// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package debounce provides a trailing-edge debounce timer.
//
// Every call to [Scheduler.Schedule] restarts the quiescence window.
// Across a burst of calls spaced closer than the delay, exactly one
// piece of work runs: the one passed to the last call, no earlier
// than the delay after that call. This is debouncing, not throttling:
// a steady stream of calls postpones the work indefinitely.
//
// Timer cancellation alone cannot give that guarantee. A timer whose
// callback has already been dequeued by the runtime cannot be stopped,
// so each scheduled callback carries the generation it was created
// in and does nothing if a later Schedule or Cancel moved the
// generation on.
package debounce

import (
	"sync"
	"time"

	"github.com/bureau-foundation/cmdsearch/lib/clock"
)

// DefaultDelay is used when New is given a non-positive delay.
const DefaultDelay = 300 * time.Millisecond

// Scheduler coalesces bursts of work into a single trailing call. It
// is safe for concurrent use. Work runs on the clock's timer
// goroutine (or, with a fake clock, inside Advance) without any
// Scheduler lock held, so work may call Schedule again.
type Scheduler struct {
	clock clock.Clock
	delay time.Duration

	mu         sync.Mutex
	timer      *clock.Timer
	generation uint64
}

// New returns a Scheduler firing delay after the last Schedule call.
func New(clk clock.Clock, delay time.Duration) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Scheduler{clock: clk, delay: delay}
}

// Schedule replaces any pending work with work and restarts the
// window.
func (s *Scheduler) Schedule(work func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.generation++
	generation := s.generation
	s.timer = s.clock.AfterFunc(s.delay, func() {
		s.mu.Lock()
		if s.generation != generation {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		work()
	})
}

// Cancel drops pending work without running it. Returns true if
// work was pending.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	return true
}

// Pending reports whether work is waiting for its window to elapse.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}
