// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// MachineSample is one point-in-time reading of workstation-wide
// state: CPU, memory, uptime, and the per-GPU readings taken in the
// same pass. The agent collects one per sampling interval and appends
// it to the history store.
type MachineSample struct {
	// Hostname identifies the workstation the sample came from.
	Hostname string `json:"hostname"`

	// TakenAt is when the sample was collected.
	TakenAt time.Time `json:"taken_at"`

	// CPUPercent is aggregate CPU utilization across all cores,
	// 0–100.
	CPUPercent float64 `json:"cpu_percent"`

	// Load1 is the 1-minute load average.
	Load1 float64 `json:"load1"`

	// MemTotalBytes and MemUsedBytes describe physical RAM.
	// MemUsedBytes excludes reclaimable caches, matching what
	// "available" means in /proc/meminfo.
	MemTotalBytes uint64 `json:"mem_total_bytes"`
	MemUsedBytes  uint64 `json:"mem_used_bytes"`

	// SwapTotalBytes and SwapUsedBytes describe swap.
	SwapTotalBytes uint64 `json:"swap_total_bytes,omitempty"`
	SwapUsedBytes  uint64 `json:"swap_used_bytes,omitempty"`

	// UptimeSeconds is seconds since boot.
	UptimeSeconds uint64 `json:"uptime_seconds"`

	// GPUs holds one entry per enumerated GPU, ordered by PCI slot.
	GPUs []GPUSample `json:"gpus,omitempty"`
}

// MemPercent returns memory utilization as 0–100, or 0 when totals
// are unknown.
func (s *MachineSample) MemPercent() float64 {
	if s.MemTotalBytes == 0 {
		return 0
	}
	return float64(s.MemUsedBytes) / float64(s.MemTotalBytes) * 100
}

// GPUSample is one point-in-time reading of a single GPU.
type GPUSample struct {
	// PCISlot is the PCI address ("0000:01:00.0"), the stable key a
	// GPU is tracked by across samples.
	PCISlot string `json:"pci_slot"`

	// Name is the human-readable device name, when the driver
	// exposes one.
	Name string `json:"name,omitempty"`

	// Vendor is the PCI vendor, normalized to "amd", "nvidia", or
	// "intel"; empty when unrecognized.
	Vendor string `json:"vendor,omitempty"`

	// UtilizationPercent is GPU busy time, 0–100.
	UtilizationPercent float64 `json:"utilization_percent"`

	// VRAMTotalBytes and VRAMUsedBytes describe dedicated video
	// memory.
	VRAMTotalBytes uint64 `json:"vram_total_bytes"`
	VRAMUsedBytes  uint64 `json:"vram_used_bytes"`

	// TemperatureMillidegrees is the edge temperature in thousandths
	// of a degree Celsius, the unit hwmon reports natively. Zero
	// when no sensor is exposed.
	TemperatureMillidegrees int64 `json:"temperature_millidegrees,omitempty"`

	// PowerDrawWatts is the current board power draw. Zero when no
	// sensor is exposed.
	PowerDrawWatts float64 `json:"power_draw_watts,omitempty"`

	// ClockMHz and MemClockMHz are the current shader and memory
	// clocks.
	ClockMHz    uint64 `json:"clock_mhz,omitempty"`
	MemClockMHz uint64 `json:"mem_clock_mhz,omitempty"`
}

// VRAMPercent returns VRAM utilization as 0–100, or 0 when the total
// is unknown.
func (g *GPUSample) VRAMPercent() float64 {
	if g.VRAMTotalBytes == 0 {
		return 0
	}
	return float64(g.VRAMUsedBytes) / float64(g.VRAMTotalBytes) * 100
}

// TemperatureCelsius returns the edge temperature in whole degrees.
func (g *GPUSample) TemperatureCelsius() int64 {
	return g.TemperatureMillidegrees / 1000
}
