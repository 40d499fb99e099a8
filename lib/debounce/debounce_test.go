// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/cmdsearch/lib/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// recorder captures the argument and clock time of each invocation.
type recorder struct {
	mu    sync.Mutex
	clock *clock.FakeClock
	calls []call
}

type call struct {
	argument string
	at       time.Duration
}

func (r *recorder) work(argument string) func() {
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, call{argument: argument, at: r.clock.Now().Sub(epoch)})
	}
}

func (r *recorder) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func TestBurstCoalescesToLastCall(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	scheduler := New(fakeClock, 300*time.Millisecond)
	rec := &recorder{clock: fakeClock}

	// Calls at t=0, 50, 100, 150ms.
	for index, argument := range []string{"a", "au", "aut", "auth"} {
		if index > 0 {
			fakeClock.Advance(50 * time.Millisecond)
		}
		scheduler.Schedule(rec.work(argument))
	}

	fakeClock.Advance(299 * time.Millisecond)
	if calls := rec.snapshot(); len(calls) != 0 {
		t.Fatalf("work ran early: %v", calls)
	}

	fakeClock.Advance(1 * time.Millisecond)
	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("got %d invocations, want exactly 1: %v", len(calls), calls)
	}
	if calls[0].argument != "auth" {
		t.Errorf("argument = %q, want the last call's %q", calls[0].argument, "auth")
	}
	if calls[0].at != 450*time.Millisecond {
		t.Errorf("fired at %v, want 450ms", calls[0].at)
	}

	fakeClock.Advance(time.Second)
	if calls := rec.snapshot(); len(calls) != 1 {
		t.Errorf("got %d invocations after idle second, want 1", len(calls))
	}
}

func TestSeparatedCallsEachFire(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	scheduler := New(fakeClock, 100*time.Millisecond)
	rec := &recorder{clock: fakeClock}

	scheduler.Schedule(rec.work("first"))
	fakeClock.Advance(100 * time.Millisecond)
	scheduler.Schedule(rec.work("second"))
	fakeClock.Advance(100 * time.Millisecond)

	calls := rec.snapshot()
	if len(calls) != 2 || calls[0].argument != "first" || calls[1].argument != "second" {
		t.Errorf("calls = %v, want first then second", calls)
	}
}

func TestCancelDropsPendingWork(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	scheduler := New(fakeClock, 300*time.Millisecond)
	rec := &recorder{clock: fakeClock}

	scheduler.Schedule(rec.work("x"))
	if !scheduler.Pending() {
		t.Fatal("expected pending work")
	}
	if !scheduler.Cancel() {
		t.Error("Cancel returned false with work pending")
	}
	if scheduler.Pending() {
		t.Error("work still pending after Cancel")
	}
	if scheduler.Cancel() {
		t.Error("second Cancel returned true")
	}

	fakeClock.Advance(time.Second)
	if calls := rec.snapshot(); len(calls) != 0 {
		t.Errorf("cancelled work ran: %v", calls)
	}
}

func TestDefaultDelay(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	scheduler := New(fakeClock, 0)
	rec := &recorder{clock: fakeClock}

	scheduler.Schedule(rec.work("x"))
	fakeClock.Advance(DefaultDelay - time.Millisecond)
	if calls := rec.snapshot(); len(calls) != 0 {
		t.Fatalf("work ran before the default window: %v", calls)
	}
	fakeClock.Advance(time.Millisecond)
	if calls := rec.snapshot(); len(calls) != 1 || calls[0].at != DefaultDelay {
		t.Errorf("calls = %v, want one at %v", calls, DefaultDelay)
	}
	if DefaultDelay != 300*time.Millisecond {
		t.Errorf("DefaultDelay = %v, want 300ms", DefaultDelay)
	}
}

func TestWorkMayReschedule(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	scheduler := New(fakeClock, 10*time.Millisecond)
	rec := &recorder{clock: fakeClock}

	scheduler.Schedule(func() {
		rec.work("outer")()
		scheduler.Schedule(rec.work("inner"))
	})
	fakeClock.Advance(10 * time.Millisecond)
	if scheduler.Pending() != true {
		t.Fatal("rescheduled work should be pending")
	}
	fakeClock.Advance(10 * time.Millisecond)

	calls := rec.snapshot()
	if len(calls) != 2 || calls[1].argument != "inner" {
		t.Errorf("calls = %v, want outer then inner", calls)
	}
}

func TestStaleCallbackIsIgnored(t *testing.T) {
	// Simulate a callback that escaped its timer before a newer
	// Schedule: capture it through a clock wrapper and invoke it by hand.
	capture := &capturingClock{Clock: clock.Fake(epoch)}
	scheduler := New(capture, 300*time.Millisecond)
	ran := 0

	scheduler.Schedule(func() { ran++ })
	stale := capture.last
	scheduler.Schedule(func() { ran += 10 })

	stale()
	if ran != 0 {
		t.Errorf("stale callback ran work (ran=%d)", ran)
	}
	capture.last()
	if ran != 10 {
		t.Errorf("current callback: ran=%d, want 10", ran)
	}
}

type capturingClock struct {
	clock.Clock
	last func()
}

func (c *capturingClock) AfterFunc(d time.Duration, f func()) *clock.Timer {
	c.last = f
	return c.Clock.AfterFunc(d, f)
}
