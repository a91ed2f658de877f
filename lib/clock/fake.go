// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at the given time. Time moves only
// through Advance or AdvanceTo; every timer, ticker, and sleep
// registers a pending waiter that fires when the clock crosses its
// deadline.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// FakeClock is the deterministic Clock for tests. Waiters fire in
// deadline order, ties broken by registration order, so interleaved
// timers resolve the same way on every run.
//
// AfterFunc callbacks run synchronously inside Advance, in the calling
// goroutine. Calling Advance or Sleep from inside a callback deadlocks.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	nextSeq uint64
	waiters []*waiter
	changed *sync.Cond
}

// waiter is one pending timer, ticker, or sleep registration.
type waiter struct {
	deadline time.Time
	seq      uint64

	// ch receives the fire time for After, Sleep, NewTimer, and
	// NewTicker waiters. Nil for AfterFunc waiters.
	ch chan time.Time

	// fn runs synchronously during Advance for AfterFunc waiters.
	// Nil for channel waiters.
	fn func()

	// interval is non-zero for tickers; the waiter is rescheduled at
	// deadline + interval after each fire.
	interval time.Duration

	// stopped waiters are skipped during Advance and dropped from the
	// pending list on the next collection pass.
	stopped bool

	// fired marks a one-shot waiter that has already delivered, so an
	// overlapping Advance cannot deliver it twice.
	fired bool

	// listed tracks membership in the pending list, so Reset after
	// Stop cannot register the same waiter twice before a collection
	// pass has dropped the stopped entry.
	listed bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// register appends a waiter under the lock and wakes WaitForTimers.
func (c *FakeClock) register(w *waiter) {
	w.seq = c.nextSeq
	c.nextSeq++
	w.listed = true
	c.waiters = append(c.waiters, w)
	c.changed.Broadcast()
}

// After returns a channel that receives once duration d elapses. For
// d <= 0 the channel receives immediately without registering a waiter.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}
	c.register(&waiter{deadline: c.current.Add(d), ch: ch})
	return ch
}

// AfterFunc arms a one-shot callback timer. For d <= 0 the callback
// runs before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	c.mu.Lock()

	if d <= 0 {
		c.mu.Unlock()
		f()
		return &Timer{
			stop:  func() bool { return false },
			reset: func(time.Duration) bool { return false },
		}
	}

	w := &waiter{deadline: c.current.Add(d), fn: f}
	c.register(w)
	c.mu.Unlock()

	return &Timer{
		stop:  func() bool { return c.stopWaiter(w) },
		reset: func(d time.Duration) bool { return c.resetWaiter(w, d) },
	}
}

// NewTimer returns a channel-delivering one-shot timer.
func (c *FakeClock) NewTimer(d time.Duration) *Timer {
	c.mu.Lock()

	ch := make(chan time.Time, 1)
	w := &waiter{deadline: c.current.Add(d), ch: ch}
	if d <= 0 {
		ch <- c.current
		w.fired = true
		c.mu.Unlock()
	} else {
		c.register(w)
		c.mu.Unlock()
	}

	return &Timer{
		C:     ch,
		stop:  func() bool { return c.stopWaiter(w) },
		reset: func(d time.Duration) bool { return c.resetWaiter(w, d) },
	}
}

// NewTicker returns a repeating ticker. Panics if d <= 0.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	ch := make(chan time.Time, 1)
	w := &waiter{deadline: c.current.Add(d), ch: ch, interval: d}
	c.register(w)
	c.mu.Unlock()

	return &Ticker{
		C:    ch,
		stop: func() { c.stopWaiter(w) },
		reset: func(d time.Duration) {
			c.mu.Lock()
			defer c.mu.Unlock()
			w.interval = d
			w.deadline = c.current.Add(d)
			w.stopped = false
			if !w.listed {
				c.register(w)
			}
		},
	}
}

// Sleep blocks the calling goroutine until the clock advances past the
// deadline. Returns immediately for d <= 0.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// stopWaiter implements Timer.Stop and Ticker.Stop.
func (c *FakeClock) stopWaiter(w *waiter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w.stopped || w.fired {
		return false
	}
	w.stopped = true
	return true
}

// resetWaiter implements Timer.Reset. A fired or stopped waiter is
// revived and re-registered; an active one just moves its deadline.
func (c *FakeClock) resetWaiter(w *waiter, d time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasActive := !w.stopped && !w.fired && w.listed
	w.stopped = false
	w.fired = false
	w.deadline = c.current.Add(d)
	if !w.listed {
		c.register(w)
	} else {
		c.changed.Broadcast()
	}
	return wasActive
}

// Advance moves the clock forward by d, firing every waiter whose
// deadline falls within the new time, in (deadline, registration)
// order. Channel deliveries are non-blocking: a full buffer drops the
// tick, matching time.Ticker. Callbacks registered by other callbacks
// during the same Advance fire too if their deadlines qualify.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()
	c.advanceTo(target)
}

// AdvanceTo moves the clock forward to an absolute time. Moving
// backward is ignored.
func (c *FakeClock) AdvanceTo(target time.Time) {
	c.mu.Lock()
	if target.Before(c.current) {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.advanceTo(target)
}

func (c *FakeClock) advanceTo(target time.Time) {
	c.mu.Lock()
	c.current = target
	c.mu.Unlock()

	for {
		expired := c.takeExpired(target)
		if len(expired) == 0 {
			return
		}

		sort.Slice(expired, func(i, j int) bool {
			if !expired[i].deadline.Equal(expired[j].deadline) {
				return expired[i].deadline.Before(expired[j].deadline)
			}
			return expired[i].seq < expired[j].seq
		})

		for _, w := range expired {
			if w.fn != nil {
				w.fn()
				continue
			}
			select {
			case w.ch <- target:
			default:
			}
		}
	}
}

// takeExpired removes expired waiters from the pending list, keeping
// tickers registered at their next interval, and returns the batch to
// fire. Stopped waiters are dropped here.
func (c *FakeClock) takeExpired(target time.Time) []*waiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expired, remaining []*waiter
	for _, w := range c.waiters {
		switch {
		case w.stopped:
			w.listed = false
		case !w.deadline.After(target):
			expired = append(expired, w)
		default:
			remaining = append(remaining, w)
		}
	}

	for _, w := range expired {
		if w.interval > 0 {
			w.deadline = w.deadline.Add(w.interval)
			remaining = append(remaining, w)
		} else {
			w.fired = true
			w.listed = false
		}
	}

	c.waiters = remaining
	return expired
}

// WaitForTimers blocks until at least n waiters are pending. Use it to
// sequence a test against goroutines that arm timers:
//
//	go func() { c.Sleep(5 * time.Second) }()
//	c.WaitForTimers(1)
//	c.Advance(5 * time.Second)
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of active pending waiters.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, w := range c.waiters {
		if !w.stopped {
			count++
		}
	}
	return count
}
