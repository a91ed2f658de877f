// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time so timer-driven state machines can run
// against a simulated clock in tests.
//
// Production code injects Real(). Tests inject Fake(initial) and drive
// time explicitly with Advance or AdvanceTo. WaitForTimers removes the
// race between a goroutine arming a timer and the test advancing the
// clock past its deadline.
//
// Any function that would otherwise call time.Now, time.After,
// time.AfterFunc, time.NewTimer, time.NewTicker, or time.Sleep takes a
// Clock instead (or is a method on a struct carrying one):
//
//	type Sampler struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	s := &Sampler{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	s := &Sampler{clock: c}
//	// ... start goroutines ...
//	c.WaitForTimers(1)         // block until the goroutine arms its timer
//	c.Advance(5 * time.Second) // fire it deterministically
package clock
