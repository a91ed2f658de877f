// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package hwstat

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// CPUReading captures cumulative CPU time from /proc/stat for delta
// computation. The first line of /proc/stat aggregates all CPUs:
//
//	cpu  user nice system idle iowait irq softirq steal guest guest_nice
//
// busy = user + nice + system + irq + softirq + steal
// idle = idle + iowait
//
// guest and guest_nice are already included in user/nice (kernel
// accounting) so they are not added separately.
type CPUReading struct {
	Busy uint64
	Idle uint64
}

// readCPUStats parses the first line of a /proc/stat file and returns
// the cumulative busy and idle jiffies. Returns nil on any parse
// failure; the caller treats nil as "no reading available, report
// 0%".
func readCPUStats(path string) *CPUReading {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return nil
	}

	// The leading "cpu" label and at least 8 numeric fields must be
	// present.
	fields := strings.Fields(scanner.Text())
	if len(fields) < 9 || fields[0] != "cpu" {
		return nil
	}

	values := make([]uint64, len(fields)-1)
	for i := 1; i < len(fields); i++ {
		parsed, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return nil
		}
		values[i-1] = parsed
	}

	// Fields (0-indexed after stripping "cpu"):
	//   0=user, 1=nice, 2=system, 3=idle, 4=iowait,
	//   5=irq, 6=softirq, 7=steal
	busy := values[0] + values[1] + values[2] + values[5] + values[6] + values[7]
	idle := values[3] + values[4]

	return &CPUReading{Busy: busy, Idle: idle}
}

// CPUPercent computes the CPU utilization percentage from two
// sequential /proc/stat readings. Returns 0 if either reading is nil
// or the delta is zero (no time has passed).
func CPUPercent(previous, current *CPUReading) float64 {
	if previous == nil || current == nil {
		return 0
	}
	busyDelta := current.Busy - previous.Busy
	idleDelta := current.Idle - previous.Idle
	totalDelta := busyDelta + idleDelta
	if totalDelta == 0 {
		return 0
	}
	return float64(busyDelta) / float64(totalDelta) * 100
}

// memReading holds the fields of /proc/meminfo the sample reports.
// Used is total minus available, matching what "free" means to a
// user deciding whether a model fits.
type memReading struct {
	totalBytes uint64
	usedBytes  uint64
	swapTotal  uint64
	swapUsed   uint64
}

// readMemInfo parses a /proc/meminfo file. Values are reported by the
// kernel in kibibytes. Returns a zero reading on open failure.
func readMemInfo(path string) memReading {
	var reading memReading

	file, err := os.Open(path)
	if err != nil {
		return reading
	}
	defer file.Close()

	var total, available, swapTotal, swapFree uint64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total = value * 1024
		case "MemAvailable:":
			available = value * 1024
		case "SwapTotal:":
			swapTotal = value * 1024
		case "SwapFree:":
			swapFree = value * 1024
		}
	}

	reading.totalBytes = total
	if total >= available {
		reading.usedBytes = total - available
	}
	reading.swapTotal = swapTotal
	if swapTotal >= swapFree {
		reading.swapUsed = swapTotal - swapFree
	}
	return reading
}

// readLoad1 parses the 1-minute load average from a /proc/loadavg
// file. Returns 0 on any failure.
func readLoad1(path string) float64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0
	}
	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return load
}
