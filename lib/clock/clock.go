// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source injected into every timer-driven component.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once
	// duration d has elapsed. If d <= 0, the channel receives
	// immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc arms a one-shot timer that calls f after duration d.
	// The returned Timer's C field is nil, matching time.AfterFunc.
	// Stop cancels the pending call; Reset re-arms it. If d <= 0, f
	// runs before AfterFunc returns on the fake clock and in a fresh
	// goroutine on the real one.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTimer returns a Timer that delivers the fire time on C after
	// duration d. Equivalent to time.NewTimer.
	NewTimer(d time.Duration) *Timer

	// NewTicker returns a Ticker delivering ticks on C every d.
	// Panics if d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker

	// Sleep blocks the calling goroutine for at least duration d.
	Sleep(d time.Duration)
}

// Timer is a one-shot scheduled event. For AfterFunc timers C is nil;
// for NewTimer timers C delivers the fire time.
type Timer struct {
	// C delivers the fire time. Nil for AfterFunc timers.
	C <-chan time.Time

	stop  func() bool
	reset func(time.Duration) bool
}

// Stop cancels the timer. Reports whether the call stopped it; false
// means it already fired or was already stopped.
func (t *Timer) Stop() bool { return t.stop() }

// Reset re-arms the timer to fire after duration d. Reports whether
// the timer was active before the reset.
func (t *Timer) Reset(d time.Duration) bool { return t.reset(d) }

// Ticker delivers ticks on C at a fixed interval. C has capacity 1,
// matching time.Ticker: when the consumer falls behind, ticks are
// dropped, not queued.
type Ticker struct {
	// C delivers ticks.
	C <-chan time.Time

	stop  func()
	reset func(time.Duration)
}

// Stop turns the ticker off. No ticks arrive on C after Stop returns.
// Stop does not close C.
func (t *Ticker) Stop() { t.stop() }

// Reset changes the interval and restarts the tick cycle; the next
// tick arrives after the new duration.
func (t *Ticker) Reset(d time.Duration) { t.reset(d) }
