// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package hwstat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCPUPercentDelta(t *testing.T) {
	tests := []struct {
		name     string
		previous *CPUReading
		current  *CPUReading
		expected float64
	}{
		{
			name:     "50 percent utilization",
			previous: &CPUReading{Busy: 100, Idle: 100},
			current:  &CPUReading{Busy: 200, Idle: 200},
			expected: 50,
		},
		{
			name:     "100 percent utilization",
			previous: &CPUReading{Busy: 100, Idle: 100},
			current:  &CPUReading{Busy: 200, Idle: 100},
			expected: 100,
		},
		{
			name:     "0 percent utilization",
			previous: &CPUReading{Busy: 100, Idle: 100},
			current:  &CPUReading{Busy: 100, Idle: 200},
			expected: 0,
		},
		{
			name:     "75 percent utilization",
			previous: &CPUReading{Busy: 0, Idle: 0},
			current:  &CPUReading{Busy: 75, Idle: 25},
			expected: 75,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := CPUPercent(test.previous, test.current)
			if got != test.expected {
				t.Errorf("CPUPercent() = %f, want %f", got, test.expected)
			}
		})
	}
}

func TestCPUPercentNilInputs(t *testing.T) {
	current := &CPUReading{Busy: 100, Idle: 100}

	if got := CPUPercent(nil, current); got != 0 {
		t.Errorf("CPUPercent(nil, current) = %f, want 0", got)
	}
	if got := CPUPercent(current, nil); got != 0 {
		t.Errorf("CPUPercent(current, nil) = %f, want 0", got)
	}
}

func TestCPUPercentZeroDelta(t *testing.T) {
	reading := &CPUReading{Busy: 100, Idle: 100}
	if got := CPUPercent(reading, reading); got != 0 {
		t.Errorf("CPUPercent with identical readings = %f, want 0", got)
	}
}

func TestReadCPUStatsFromSyntheticFile(t *testing.T) {
	directory := t.TempDir()
	statPath := filepath.Join(directory, "stat")

	// Realistic /proc/stat content (first line is the aggregate CPU line).
	content := "cpu  851491738 26345625 738865283 5623198410 28471623 0 15284567 2345678 0 0\n" +
		"cpu0 106436467 3293203 92358160 702899801 3558952 0 1910570 293209 0 0\n"

	if err := os.WriteFile(statPath, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reading := readCPUStats(statPath)
	if reading == nil {
		t.Fatal("readCPUStats returned nil for valid /proc/stat content")
	}

	// busy = user + nice + system + irq + softirq + steal
	expectedBusy := uint64(851491738 + 26345625 + 738865283 + 0 + 15284567 + 2345678)
	// idle = idle + iowait
	expectedIdle := uint64(5623198410 + 28471623)

	if reading.Busy != expectedBusy {
		t.Errorf("Busy = %d, want %d", reading.Busy, expectedBusy)
	}
	if reading.Idle != expectedIdle {
		t.Errorf("Idle = %d, want %d", reading.Idle, expectedIdle)
	}
}

func TestReadCPUStatsMalformed(t *testing.T) {
	directory := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"wrong label", "mem  123 456 789 0 0 0 0 0\n"},
		{"too few fields", "cpu  123 456\n"},
		{"non-numeric field", "cpu  123 abc 789 0 0 0 0 0\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			statPath := filepath.Join(directory, test.name+".stat")
			if err := os.WriteFile(statPath, []byte(test.content), 0644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			if reading := readCPUStats(statPath); reading != nil {
				t.Errorf("readCPUStats should return nil for malformed input, got %+v", reading)
			}
		})
	}
}

func TestReadCPUStatsMissingFile(t *testing.T) {
	if reading := readCPUStats("/nonexistent/proc/stat"); reading != nil {
		t.Errorf("readCPUStats should return nil for missing file, got %+v", reading)
	}
}

func TestReadMemInfo(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "meminfo")

	content := "MemTotal:       131072000 kB\n" +
		"MemFree:         8000000 kB\n" +
		"MemAvailable:   98304000 kB\n" +
		"Buffers:         1234567 kB\n" +
		"SwapTotal:      16777216 kB\n" +
		"SwapFree:       12582912 kB\n"

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reading := readMemInfo(path)
	if got, want := reading.totalBytes, uint64(131072000)*1024; got != want {
		t.Errorf("totalBytes = %d, want %d", got, want)
	}
	// used = total - available, not total - free.
	if got, want := reading.usedBytes, uint64(131072000-98304000)*1024; got != want {
		t.Errorf("usedBytes = %d, want %d", got, want)
	}
	if got, want := reading.swapTotal, uint64(16777216)*1024; got != want {
		t.Errorf("swapTotal = %d, want %d", got, want)
	}
	if got, want := reading.swapUsed, uint64(16777216-12582912)*1024; got != want {
		t.Errorf("swapUsed = %d, want %d", got, want)
	}
}

func TestReadMemInfoMissingFile(t *testing.T) {
	reading := readMemInfo("/nonexistent/proc/meminfo")
	if reading.totalBytes != 0 || reading.usedBytes != 0 {
		t.Errorf("readMemInfo for missing file = %+v, want zero reading", reading)
	}
}

func TestReadLoad1(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "loadavg")

	if err := os.WriteFile(path, []byte("3.52 2.81 2.44 4/1892 281403\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if got := readLoad1(path); got != 3.52 {
		t.Errorf("readLoad1 = %f, want 3.52", got)
	}
}

func TestReadLoad1MissingFile(t *testing.T) {
	if got := readLoad1("/nonexistent/proc/loadavg"); got != 0 {
		t.Errorf("readLoad1 for missing file = %f, want 0", got)
	}
}
