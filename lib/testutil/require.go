// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
	"time"
)

// RequireReceive reads one value from ch, failing the test if nothing
// arrives within timeout. what names the awaited event in the failure
// message.
//
//	sample := testutil.RequireReceive(t, samples, 5*time.Second, "first sample")
func RequireReceive[T any](t *testing.T, ch <-chan T, timeout time.Duration, what string) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value, open := <-ch:
		if !open {
			t.Fatalf("%s: channel closed before a value arrived", what)
		}
		return value
	case <-timer.C:
		t.Fatalf("%s: no value within %v", what, timeout)
	}
	panic("unreachable")
}
