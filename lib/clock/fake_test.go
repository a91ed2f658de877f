// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Compile-time interface checks.
var (
	_ Clock = (*FakeClock)(nil)
	_ Clock = systemClock{}
)

func TestFakeNow(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	c.Advance(90 * time.Second)
	if got, want := c.Now(), epoch.Add(90*time.Second); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	ch := c.After(5 * time.Second)

	select {
	case <-ch:
		t.Fatal("After fired before Advance")
	default:
	}

	c.Advance(4 * time.Second)
	select {
	case <-ch:
		t.Fatal("After fired before its deadline")
	default:
	}

	c.Advance(time.Second)
	select {
	case fireTime := <-ch:
		if want := epoch.Add(5 * time.Second); !fireTime.Equal(want) {
			t.Fatalf("fire time = %v, want %v", fireTime, want)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	c := Fake(epoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) should deliver immediately")
	}
	select {
	case <-c.After(-time.Second):
	default:
		t.Fatal("After(negative) should deliver immediately")
	}
}

func TestFakeAfterFuncRunsOnce(t *testing.T) {
	c := Fake(epoch)
	var calls atomic.Int32
	c.AfterFunc(time.Second, func() { calls.Add(1) })

	c.Advance(time.Second)
	c.Advance(time.Hour)
	if got := calls.Load(); got != 1 {
		t.Fatalf("callback ran %d times, want 1", got)
	}
}

func TestFakeAfterFuncNonPositiveRunsSynchronously(t *testing.T) {
	c := Fake(epoch)
	ran := false
	c.AfterFunc(0, func() { ran = true })
	if !ran {
		t.Fatal("AfterFunc(0) did not run before returning")
	}
}

func TestFakeTimerStop(t *testing.T) {
	c := Fake(epoch)
	var calls atomic.Int32
	timer := c.AfterFunc(time.Second, func() { calls.Add(1) })

	if !timer.Stop() {
		t.Fatal("Stop on an armed timer should report true")
	}
	if timer.Stop() {
		t.Fatal("second Stop should report false")
	}
	c.Advance(time.Hour)
	if got := calls.Load(); got != 0 {
		t.Fatalf("stopped timer ran %d times, want 0", got)
	}
}

func TestFakeTimerResetWhileArmed(t *testing.T) {
	c := Fake(epoch)
	var calls atomic.Int32
	timer := c.AfterFunc(time.Second, func() { calls.Add(1) })

	c.Advance(900 * time.Millisecond)
	if !timer.Reset(time.Second) {
		t.Fatal("Reset on an armed timer should report true")
	}

	c.Advance(900 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("timer fired %d times before the reset deadline", got)
	}

	c.Advance(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("timer fired %d times after the reset deadline, want 1", got)
	}
}

func TestFakeTimerResetAfterFire(t *testing.T) {
	c := Fake(epoch)
	var calls atomic.Int32
	timer := c.AfterFunc(time.Second, func() { calls.Add(1) })

	c.Advance(time.Second)
	if timer.Reset(time.Second) {
		t.Fatal("Reset on a fired timer should report false")
	}
	c.Advance(time.Second)
	if got := calls.Load(); got != 2 {
		t.Fatalf("timer fired %d times total, want 2", got)
	}
}

func TestFakeTimerStopThenResetFiresOnce(t *testing.T) {
	c := Fake(epoch)
	var calls atomic.Int32
	timer := c.AfterFunc(time.Second, func() { calls.Add(1) })

	timer.Stop()
	timer.Reset(time.Second)
	c.Advance(time.Second)
	if got := calls.Load(); got != 1 {
		t.Fatalf("timer fired %d times after Stop+Reset, want 1", got)
	}
}

func TestFakeNewTimerDelivers(t *testing.T) {
	c := Fake(epoch)
	timer := c.NewTimer(3 * time.Second)

	c.Advance(3 * time.Second)
	select {
	case fireTime := <-timer.C:
		if want := epoch.Add(3 * time.Second); !fireTime.Equal(want) {
			t.Fatalf("fire time = %v, want %v", fireTime, want)
		}
	default:
		t.Fatal("NewTimer did not deliver at its deadline")
	}
}

func TestFakeTickerRepeats(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; i < 3; i++ {
		c.Advance(time.Second)
		select {
		case <-ticker.C:
		default:
			t.Fatalf("tick %d missing", i+1)
		}
	}
}

func TestFakeTickerDropsWhenBehind(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	// Three intervals with nobody reading: buffer holds one tick.
	c.Advance(3 * time.Second)

	received := 0
	for {
		select {
		case <-ticker.C:
			received++
			continue
		default:
		}
		break
	}
	if received != 1 {
		t.Fatalf("received %d buffered ticks, want 1", received)
	}
}

func TestFakeTickerStop(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	ticker.Stop()
	c.Advance(time.Hour)

	select {
	case <-ticker.C:
		t.Fatal("stopped ticker delivered a tick")
	default:
	}
}

func TestFakeTickerResetRestartsAfterStop(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	ticker.Stop()
	c.Advance(5 * time.Second)

	ticker.Reset(2 * time.Second)
	c.Advance(2 * time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("reset ticker did not deliver")
	}
}

func TestFakeSleepBlocksUntilAdvance(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.Sleep(10 * time.Second)
		close(done)
	}()

	c.WaitForTimers(1)
	select {
	case <-done:
		t.Fatal("Sleep returned before Advance")
	default:
	}

	c.Advance(10 * time.Second)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestFakeAdvanceToBackwardIgnored(t *testing.T) {
	c := Fake(epoch)
	c.Advance(time.Hour)
	c.AdvanceTo(epoch)
	if got, want := c.Now(), epoch.Add(time.Hour); !got.Equal(want) {
		t.Fatalf("Now() = %v after backward AdvanceTo, want %v", got, want)
	}
}

func TestFakeFireOrderIsDeterministic(t *testing.T) {
	c := Fake(epoch)
	var order []int

	// Same deadline: registration order breaks the tie. Earlier
	// deadline always first regardless of registration.
	c.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	c.AfterFunc(time.Second, func() { order = append(order, 0) })
	c.AfterFunc(2*time.Second, func() { order = append(order, 3) })
	c.AfterFunc(time.Second, func() { order = append(order, 1) })

	c.Advance(2 * time.Second)

	want := []int{0, 1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("fired %d callbacks, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("fire order = %v, want %v", order, want)
		}
	}
}

func TestFakeCallbackChaining(t *testing.T) {
	c := Fake(epoch)
	var calls atomic.Int32

	// A callback that re-arms itself within the advanced window must
	// fire again in the same Advance call.
	var rearm func()
	rearm = func() {
		if calls.Add(1) < 3 {
			c.AfterFunc(time.Second, rearm)
		}
	}
	c.AfterFunc(time.Second, rearm)

	c.Advance(3 * time.Second)
	if got := calls.Load(); got != 3 {
		t.Fatalf("chained callback ran %d times, want 3", got)
	}
}

func TestFakePendingCount(t *testing.T) {
	c := Fake(epoch)
	if got := c.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d on a fresh clock, want 0", got)
	}

	timer := c.AfterFunc(time.Second, func() {})
	c.NewTicker(time.Minute)
	if got := c.PendingCount(); got != 2 {
		t.Fatalf("PendingCount() = %d, want 2", got)
	}

	timer.Stop()
	if got := c.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() = %d after Stop, want 1", got)
	}
}
