// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by every
// timer in cmdsearch: the debounce window, gateway deadlines in tests,
// recency timestamps and date-range facet bounds.
//
// Production code holds a [Clock] and never calls time.Now,
// time.After or time.AfterFunc directly. [Real] is the standard
// library; [Fake] is a deterministic clock that only moves when the
// test calls [FakeClock.Advance].
//
// The usual test shape for anything debounced:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	scheduler := debounce.New(fake, 300*time.Millisecond)
//	scheduler.Schedule(work)
//	fake.Advance(299 * time.Millisecond) // nothing yet
//	fake.Advance(time.Millisecond)       // work runs, synchronously
//
// When a timer is registered from another goroutine (a gateway mock
// waiting on After, for instance), call [FakeClock.WaitForTimers]
// before advancing so the registration cannot race the advance.
package clock
