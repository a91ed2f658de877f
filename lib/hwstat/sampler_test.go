// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package hwstat

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeProcFile(t *testing.T, procRoot, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(procRoot, name), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
}

func TestSamplerSample(t *testing.T) {
	procRoot := t.TempDir()
	sysRoot := t.TempDir()

	writeProcFile(t, procRoot, "stat", "cpu  100 0 100 700 100 0 0 0 0 0\n")
	writeProcFile(t, procRoot, "meminfo",
		"MemTotal:       65536000 kB\n"+
			"MemAvailable:   32768000 kB\n"+
			"SwapTotal:       8388608 kB\n"+
			"SwapFree:        8388608 kB\n")
	writeProcFile(t, procRoot, "loadavg", "1.25 0.80 0.40 2/900 12345\n")
	writeCard(t, sysRoot, "card0", map[string]string{
		"uevent":           "PCI_ID=1002:744A\nPCI_SLOT_NAME=0000:c3:00.0\n",
		"gpu_busy_percent": "42\n",
	})

	sampler := newSamplerFrom(procRoot, sysRoot, nil)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	first := sampler.Sample(now)
	if !first.TakenAt.Equal(now) {
		t.Errorf("TakenAt = %v, want %v", first.TakenAt, now)
	}
	// First sample has no previous reading to delta against.
	if first.CPUPercent != 0 {
		t.Errorf("first CPUPercent = %f, want 0", first.CPUPercent)
	}
	if first.Load1 != 1.25 {
		t.Errorf("Load1 = %f, want 1.25", first.Load1)
	}
	if got, want := first.MemTotalBytes, uint64(65536000)*1024; got != want {
		t.Errorf("MemTotalBytes = %d, want %d", got, want)
	}
	if got, want := first.MemUsedBytes, uint64(32768000)*1024; got != want {
		t.Errorf("MemUsedBytes = %d, want %d", got, want)
	}
	if len(first.GPUs) != 1 || first.GPUs[0].UtilizationPercent != 42 {
		t.Errorf("GPUs = %+v, want one card at 42%%", first.GPUs)
	}

	// Advance the synthetic /proc/stat: 100 more busy, 100 more idle
	// jiffies, so the next sample reports 50%.
	writeProcFile(t, procRoot, "stat", "cpu  200 0 100 800 100 0 0 0 0 0\n")

	second := sampler.Sample(now.Add(5 * time.Second))
	if second.CPUPercent != 50 {
		t.Errorf("second CPUPercent = %f, want 50", second.CPUPercent)
	}
}

func TestSamplerUnreadableSourcesYieldZeroSample(t *testing.T) {
	sampler := newSamplerFrom("/nonexistent/proc", "/nonexistent/sys", nil)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	sample := sampler.Sample(now)
	if sample.CPUPercent != 0 || sample.MemTotalBytes != 0 || sample.GPUs != nil {
		t.Errorf("unreadable sources should produce a zero sample, got %+v", sample)
	}
}
