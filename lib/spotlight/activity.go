// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package spotlight

import (
	"sync"
	"time"

	"github.com/gantry-foundation/gantry/lib/clock"
)

// ActivityMonitor watches a stream of raw interaction signals and
// emits one idle event per quiet period: the event fires exactly once,
// threshold after the last recorded activity, and does not fire again
// until fresh activity restarts the cycle. Idle is an edge, not a
// level — the consumer decides whether to re-arm by recording
// activity.
//
// Suppress holds the monitor in a permanently active state for the
// duration of a competing full-screen mode: activity is still recorded
// (so the timestamp stays fresh) but no idle timer is armed, and any
// pending one is cancelled.
//
// At most one idle timer is pending per monitor at any moment.
type ActivityMonitor struct {
	mu             sync.Mutex
	clock          clock.Clock
	threshold      time.Duration
	onIdle         func()
	lastActivityAt time.Time
	idleTimer      *clock.Timer
	suppressed     bool
	closed         bool
}

// NewActivityMonitor creates a monitor with the given idle threshold.
// The idle timer is armed immediately: a view left untouched from the
// moment it mounts goes idle threshold later.
func NewActivityMonitor(clk clock.Clock, threshold time.Duration) *ActivityMonitor {
	m := &ActivityMonitor{
		clock:          clk,
		threshold:      threshold,
		lastActivityAt: clk.Now(),
	}
	m.mu.Lock()
	m.armLocked(threshold)
	m.mu.Unlock()
	return m
}

// OnIdle registers the callback invoked on each idle edge. Replaces
// any previous callback. The callback runs without the monitor's lock
// held, so it may call back into the monitor.
func (m *ActivityMonitor) OnIdle(fn func()) {
	m.mu.Lock()
	m.onIdle = fn
	m.mu.Unlock()
}

// RecordActivity marks the current instant as the last user
// interaction and pushes the pending idle deadline out to threshold
// from now. Call it for every raw interaction: key press, mouse
// motion, click, scroll, wheel.
func (m *ActivityMonitor) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.lastActivityAt = m.clock.Now()
	if m.suppressed {
		return
	}
	m.armLocked(m.threshold)
}

// Suppress switches the external hold on idle events. While active,
// RecordActivity still updates the activity timestamp but no idle
// event can fire. Releasing the hold re-arms relative to the last
// recorded activity: if the threshold already elapsed during
// suppression, the idle event fires before Suppress returns.
func (m *ActivityMonitor) Suppress(active bool) {
	m.mu.Lock()

	if m.closed || m.suppressed == active {
		m.mu.Unlock()
		return
	}
	m.suppressed = active

	if active {
		m.disarmLocked()
		m.mu.Unlock()
		return
	}

	remaining := m.threshold - m.clock.Now().Sub(m.lastActivityAt)
	if remaining > 0 {
		m.armLocked(remaining)
		m.mu.Unlock()
		return
	}

	// Quiet period already complete: emit the idle edge now.
	fn := m.onIdle
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// IdleFor returns the time elapsed since the last recorded activity.
func (m *ActivityMonitor) IdleFor() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock.Now().Sub(m.lastActivityAt)
}

// Close cancels the pending idle timer and stops all future events.
// Further RecordActivity and Suppress calls are ignored.
func (m *ActivityMonitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.disarmLocked()
}

// armLocked schedules (or reschedules) the single idle timer to fire
// after d. Caller holds m.mu.
func (m *ActivityMonitor) armLocked(d time.Duration) {
	if m.idleTimer != nil {
		m.idleTimer.Reset(d)
		return
	}
	m.idleTimer = m.clock.AfterFunc(d, m.idleDeadline)
}

// disarmLocked cancels the pending idle timer if any. Caller holds
// m.mu.
func (m *ActivityMonitor) disarmLocked() {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
}

// idleDeadline runs when the idle timer fires. Activity recorded after
// the timer was armed but before this callback ran moves the deadline
// instead of emitting.
func (m *ActivityMonitor) idleDeadline() {
	m.mu.Lock()

	if m.closed || m.suppressed {
		m.mu.Unlock()
		return
	}

	sinceLast := m.clock.Now().Sub(m.lastActivityAt)
	if sinceLast < m.threshold {
		m.armLocked(m.threshold - sinceLast)
		m.mu.Unlock()
		return
	}

	// The edge: drop the timer so nothing fires again until the next
	// RecordActivity, then emit outside the lock.
	m.idleTimer = nil
	fn := m.onIdle
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}
