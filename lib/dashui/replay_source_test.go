// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gantry-foundation/gantry/lib/agentsock"
	"github.com/gantry-foundation/gantry/lib/schema"
)

func writeReplayFile(t *testing.T, frames []agentsock.TailFrame) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.gantryrec")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating replay file: %v", err)
	}
	defer file.Close()
	for _, frame := range frames {
		if err := agentsock.WriteFrame(file, frame); err != nil {
			t.Fatalf("writing frame: %v", err)
		}
	}
	return path
}

func TestReplaySourceLoadsSamples(t *testing.T) {
	first := testSample()
	second := testSample()
	second.CPUPercent = 99

	path := writeReplayFile(t, []agentsock.TailFrame{
		{Type: agentsock.TailFrameSample, Sample: &first},
		{Type: agentsock.TailFrameHeartbeat},
		{Type: agentsock.TailFrameSample, Sample: &second},
	})

	source, err := NewReplaySource(path)
	if err != nil {
		t.Fatalf("NewReplaySource: %v", err)
	}
	defer source.Close()

	sample, workloads := source.Snapshot()
	if sample.Hostname != "forge" {
		t.Errorf("got hostname %q, want %q", sample.Hostname, "forge")
	}
	if sample.CPUPercent != first.CPUPercent {
		t.Errorf("got cpu %.1f, want first sample's %.1f", sample.CPUPercent, first.CPUPercent)
	}
	if workloads != nil {
		t.Errorf("replay source reported workloads: %v", workloads)
	}
	if source.Models() != nil {
		t.Error("replay source reported models")
	}
	if len(source.samples) != 2 {
		t.Errorf("got %d samples, want 2 (heartbeat must be skipped)", len(source.samples))
	}
}

func TestReplaySourceRejectsEmptyRecording(t *testing.T) {
	path := writeReplayFile(t, []agentsock.TailFrame{
		{Type: agentsock.TailFrameHeartbeat},
	})
	if _, err := NewReplaySource(path); err == nil {
		t.Fatal("expected error for recording with no samples")
	}
}

func TestReplaySourceRejectsMissingFile(t *testing.T) {
	if _, err := NewReplaySource(filepath.Join(t.TempDir(), "absent.gantryrec")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReplaySourceImplementsNoOptionalCapabilities(t *testing.T) {
	var source any = &ReplaySource{samples: []schema.MachineSample{testSample()}}
	if _, ok := source.(HistoryProvider); ok {
		t.Error("ReplaySource must not provide history")
	}
	if _, ok := source.(WorkloadController); ok {
		t.Error("ReplaySource must not control workloads")
	}
}
