// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"testing"
	"time"
)

func TestHeatDecay(t *testing.T) {
	tracker := NewHeatTracker()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tracker.Ignite("gpu-0", HeatPut, start)

	if heat := tracker.Heat("gpu-0", start); heat != 1.0 {
		t.Errorf("heat at ignition = %v, want 1.0", heat)
	}

	halfway := start.Add(HeatDecayDuration / 2)
	if heat := tracker.Heat("gpu-0", halfway); heat < 0.49 || heat > 0.51 {
		t.Errorf("heat at halfway = %v, want ~0.5", heat)
	}

	done := start.Add(HeatDecayDuration)
	if heat := tracker.Heat("gpu-0", done); heat != 0.0 {
		t.Errorf("heat after decay = %v, want 0.0", heat)
	}
}

func TestHeatUnknownItem(t *testing.T) {
	tracker := NewHeatTracker()
	if heat := tracker.Heat("never", time.Now()); heat != 0.0 {
		t.Errorf("unknown item heat = %v, want 0.0", heat)
	}
}

func TestHeatReignite(t *testing.T) {
	tracker := NewHeatTracker()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tracker.Ignite("wl-42", HeatPut, start)
	later := start.Add(HeatDecayDuration - time.Second)
	tracker.Ignite("wl-42", HeatRemove, later)

	if heat := tracker.Heat("wl-42", later); heat != 1.0 {
		t.Errorf("re-ignition should reset heat to 1.0, got %v", heat)
	}
	if kind := tracker.Kind("wl-42"); kind != HeatRemove {
		t.Errorf("kind after re-ignition = %v, want HeatRemove", kind)
	}
}

func TestHasHotGarbageCollects(t *testing.T) {
	tracker := NewHeatTracker()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tracker.Ignite("a", HeatPut, start)
	tracker.Ignite("b", HeatPut, start)

	if !tracker.HasHot(start.Add(time.Second)) {
		t.Fatal("expected hot items one second after ignition")
	}

	cold := start.Add(HeatDecayDuration + time.Second)
	if tracker.HasHot(cold) {
		t.Fatal("expected no hot items after decay")
	}
	if len(tracker.entries) != 0 {
		t.Errorf("decayed entries not collected: %d remain", len(tracker.entries))
	}
}

func TestPulsePhaseBounds(t *testing.T) {
	for _, since := range []time.Duration{
		0, PulsePeriod / 4, PulsePeriod / 2, 3 * PulsePeriod / 4,
		PulsePeriod, 10 * PulsePeriod, 10*PulsePeriod + PulsePeriod/3,
	} {
		phase := PulsePhase(since)
		if phase < 0.4 || phase > 1.0 {
			t.Errorf("PulsePhase(%v) = %v, want within [0.4, 1.0]", since, phase)
		}
	}
}

func TestPulsePhaseShape(t *testing.T) {
	if phase := PulsePhase(0); phase != 1.0 {
		t.Errorf("phase at start = %v, want 1.0", phase)
	}
	if phase := PulsePhase(PulsePeriod / 2); phase != 0.4 {
		t.Errorf("phase at half period = %v, want 0.4 (dimmest)", phase)
	}
	if phase := PulsePhase(PulsePeriod); phase != 1.0 {
		t.Errorf("phase at full period = %v, want 1.0", phase)
	}
}
