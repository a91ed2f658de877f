// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package hwstat samples workstation hardware state for the Gantry
// agent: CPU utilization from /proc/stat deltas, memory from
// /proc/meminfo, uptime from sysinfo(2), per-GPU telemetry from
// /sys/class/drm, and GPU-attached workload processes from /proc.
//
// The package is sysfs/procfs only — no ioctls, no vendor libraries.
// AMD GPUs expose everything the dashboard shows (busy percent, VRAM,
// temperature, power, clocks) through the amdgpu sysfs files; other
// vendors degrade to whatever their driver publishes, with missing
// sensors reported as zero rather than errors.
//
// [Sampler] is the stateful collector the agent drives on its sample
// ticker. All readers accept root paths internally so tests run
// against synthetic /proc and /sys trees; a headless VM with no GPUs
// and no DMI is a valid machine that still reports CPU and memory.
package hwstat
