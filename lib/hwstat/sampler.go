// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package hwstat

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gantry-foundation/gantry/lib/schema"
)

// Sampler collects MachineSamples from the live system. It keeps the
// previous /proc/stat reading so each Sample reports utilization over
// the interval since the last call; the first call reports 0% CPU.
//
// Sampler is not safe for concurrent use — the agent drives it from a
// single ticker goroutine.
type Sampler struct {
	procRoot string
	sysRoot  string
	hostname string
	logger   *slog.Logger

	previousCPU *CPUReading
}

// NewSampler creates a Sampler reading from the real /proc and /sys.
func NewSampler(logger *slog.Logger) *Sampler {
	return newSamplerFrom("/proc", "/sys", logger)
}

// newSamplerFrom is the testable constructor accepting synthetic
// filesystem roots.
func newSamplerFrom(procRoot, sysRoot string, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	hostname, _ := os.Hostname()
	return &Sampler{
		procRoot: procRoot,
		sysRoot:  sysRoot,
		hostname: hostname,
		logger:   logger,
	}
}

// Sample reads the full machine state: CPU, memory, uptime, and all
// GPUs. Never fails — unreadable sources produce zero-valued fields.
func (s *Sampler) Sample(now time.Time) schema.MachineSample {
	sample := schema.MachineSample{
		Hostname: s.hostname,
		TakenAt:  now,
		Load1:    readLoad1(filepath.Join(s.procRoot, "loadavg")),
	}

	current := readCPUStats(filepath.Join(s.procRoot, "stat"))
	sample.CPUPercent = CPUPercent(s.previousCPU, current)
	s.previousCPU = current

	memory := readMemInfo(filepath.Join(s.procRoot, "meminfo"))
	sample.MemTotalBytes = memory.totalBytes
	sample.MemUsedBytes = memory.usedBytes
	sample.SwapTotalBytes = memory.swapTotal
	sample.SwapUsedBytes = memory.swapUsed

	sample.UptimeSeconds = readUptime()
	sample.GPUs = sampleGPUs(s.sysRoot)
	return sample
}

// readUptime returns seconds since boot from sysinfo(2). Returns 0 if
// the syscall fails.
func readUptime() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return uint64(info.Uptime)
}
