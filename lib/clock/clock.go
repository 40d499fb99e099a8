// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations cmdsearch depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0 the channel is ready immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc calls f once d has elapsed and returns a Timer that
	// can cancel the call. If d <= 0, f runs immediately: in a new
	// goroutine for the real clock, synchronously for the fake one.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the Timer from firing. Returns true if the call
// stopped the timer, false if it had already fired or been stopped.
// A false return does not mean the callback has finished; callers
// that need "exactly once" semantics must guard the callback body
// themselves (see package debounce).
func (t *Timer) Stop() bool { return t.stopFunc() }
