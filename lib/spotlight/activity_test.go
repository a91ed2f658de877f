// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package spotlight

import (
	"testing"
	"time"

	"github.com/gantry-foundation/gantry/lib/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

const threshold = 10 * time.Second

func newMonitor(t *testing.T) (*clock.FakeClock, *ActivityMonitor, *int) {
	t.Helper()
	clk := clock.Fake(epoch)
	monitor := NewActivityMonitor(clk, threshold)
	idleCount := new(int)
	monitor.OnIdle(func() { *idleCount++ })
	t.Cleanup(monitor.Close)
	return clk, monitor, idleCount
}

func TestIdleFiresOnceAfterThreshold(t *testing.T) {
	clk, _, idleCount := newMonitor(t)

	clk.Advance(threshold - time.Millisecond)
	if *idleCount != 0 {
		t.Fatalf("idle fired %d times before threshold", *idleCount)
	}

	clk.Advance(time.Millisecond)
	if *idleCount != 1 {
		t.Fatalf("idle count = %d at threshold, want 1", *idleCount)
	}

	// Idle is an edge: continued silence does not re-fire.
	clk.Advance(10 * threshold)
	if *idleCount != 1 {
		t.Fatalf("idle count = %d after extended silence, want 1", *idleCount)
	}
}

func TestActivityResetsIdleDeadline(t *testing.T) {
	clk, monitor, idleCount := newMonitor(t)

	// Activity spaced under the threshold keeps the monitor awake
	// indefinitely.
	for i := 0; i < 5; i++ {
		clk.Advance(threshold / 2)
		monitor.RecordActivity()
	}
	if *idleCount != 0 {
		t.Fatalf("idle fired %d times during sustained activity", *idleCount)
	}

	// Exactly one idle fires threshold after the last call.
	clk.Advance(threshold - time.Millisecond)
	if *idleCount != 0 {
		t.Fatal("idle fired early after last activity")
	}
	clk.Advance(time.Millisecond)
	if *idleCount != 1 {
		t.Fatalf("idle count = %d, want 1", *idleCount)
	}
}

func TestActivityAfterIdleRearms(t *testing.T) {
	clk, monitor, idleCount := newMonitor(t)

	clk.Advance(threshold)
	if *idleCount != 1 {
		t.Fatalf("idle count = %d, want 1", *idleCount)
	}

	monitor.RecordActivity()
	clk.Advance(threshold)
	if *idleCount != 2 {
		t.Fatalf("idle count = %d after re-arm, want 2", *idleCount)
	}
}

func TestSuppressBlocksIdle(t *testing.T) {
	clk, monitor, idleCount := newMonitor(t)

	monitor.Suppress(true)
	clk.Advance(100 * threshold)
	if *idleCount != 0 {
		t.Fatalf("idle fired %d times while suppressed", *idleCount)
	}

	// Releasing after the quiet period already elapsed emits the edge
	// immediately: the deadline measures from lastActivityAt, not
	// from the moment suppression ended.
	monitor.Suppress(false)
	if *idleCount != 1 {
		t.Fatalf("idle count = %d after release, want 1", *idleCount)
	}
}

func TestSuppressReleaseMeasuresFromLastActivity(t *testing.T) {
	clk, monitor, idleCount := newMonitor(t)

	monitor.RecordActivity() // t=0
	clk.Advance(2 * time.Second)
	monitor.Suppress(true)
	clk.Advance(2 * time.Second)
	monitor.Suppress(false) // t=4s, 6s of quiet left

	clk.Advance(6*time.Second - time.Millisecond)
	if *idleCount != 0 {
		t.Fatal("idle fired before the original deadline")
	}
	clk.Advance(time.Millisecond)
	if *idleCount != 1 {
		t.Fatalf("idle count = %d at original deadline, want 1", *idleCount)
	}
}

func TestSuppressedActivityStillRecorded(t *testing.T) {
	clk, monitor, idleCount := newMonitor(t)

	monitor.Suppress(true)
	clk.Advance(5 * time.Second)
	monitor.RecordActivity()
	clk.Advance(3 * time.Second)
	monitor.Suppress(false)

	// The 5s..8s window counted: 7s of quiet remain.
	clk.Advance(7*time.Second - time.Millisecond)
	if *idleCount != 0 {
		t.Fatal("idle fired early")
	}
	clk.Advance(time.Millisecond)
	if *idleCount != 1 {
		t.Fatalf("idle count = %d, want 1", *idleCount)
	}
	if got := monitor.IdleFor(); got != threshold {
		t.Fatalf("IdleFor() = %v, want %v", got, threshold)
	}
}

func TestCloseCancelsPendingTimer(t *testing.T) {
	clk, monitor, idleCount := newMonitor(t)

	monitor.Close()
	if got := clk.PendingCount(); got != 0 {
		t.Fatalf("%d timers pending after Close, want 0", got)
	}
	clk.Advance(100 * threshold)
	if *idleCount != 0 {
		t.Fatalf("idle fired %d times after Close", *idleCount)
	}

	// Post-close calls are ignored.
	monitor.RecordActivity()
	monitor.Suppress(false)
	clk.Advance(100 * threshold)
	if *idleCount != 0 {
		t.Fatal("closed monitor armed a timer")
	}
}
