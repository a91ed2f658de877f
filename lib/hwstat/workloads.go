// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package hwstat

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gantry-foundation/gantry/lib/schema"
)

// WorkloadScanner discovers GPU-attached processes by walking /proc:
// any process holding an open file descriptor on a /dev/dri device is
// a workload. The scanner keeps first-seen times so StartedAt is
// stable across scans even though /proc does not expose a wall-clock
// start time without jiffies arithmetic.
type WorkloadScanner struct {
	procRoot string
	devPath  string

	// firstSeen maps PID to the time the scanner first observed it,
	// pruned when the PID disappears.
	firstSeen map[int]time.Time
}

// NewWorkloadScanner creates a scanner over the real /proc.
func NewWorkloadScanner() *WorkloadScanner {
	return newWorkloadScannerFrom("/proc", "/dev/dri")
}

func newWorkloadScannerFrom(procRoot, devPath string) *WorkloadScanner {
	return &WorkloadScanner{
		procRoot:  procRoot,
		devPath:   devPath,
		firstSeen: make(map[int]time.Time),
	}
}

// Scan returns the current GPU-attached workloads, ordered by PID.
// Processes that vanish between the directory listing and the fd walk
// are skipped silently — /proc races are normal, not errors.
func (w *WorkloadScanner) Scan(now time.Time) []schema.Workload {
	entries, err := os.ReadDir(w.procRoot)
	if err != nil {
		return nil
	}

	alive := make(map[int]bool)
	var workloads []schema.Workload
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		vramBytes, attached := w.gpuAttachment(pid)
		if !attached {
			continue
		}
		alive[pid] = true

		command := w.readCmdline(pid)
		name := commandName(command)
		if name == "" {
			continue
		}

		started, seen := w.firstSeen[pid]
		if !seen {
			started = now
			w.firstSeen[pid] = started
		}

		workloads = append(workloads, schema.Workload{
			ID:                fmt.Sprintf("wl-%d", pid),
			Name:              name,
			Kind:              classifyWorkload(command),
			Principal:         w.readOwner(pid),
			State:             schema.StateRunning,
			PID:               pid,
			VRAMReservedBytes: vramBytes,
			StartedAt:         started,
		})
	}

	for pid := range w.firstSeen {
		if !alive[pid] {
			delete(w.firstSeen, pid)
		}
	}

	sort.Slice(workloads, func(i, j int) bool {
		return workloads[i].PID < workloads[j].PID
	})
	return workloads
}

// gpuAttachment walks a process's fd directory looking for open DRM
// device nodes. When found, it sums the per-fd VRAM accounting the
// amdgpu driver exposes in fdinfo (drm-memory-vram, in KiB); drivers
// without fdinfo accounting yield zero reserved bytes.
func (w *WorkloadScanner) gpuAttachment(pid int) (vramBytes uint64, attached bool) {
	fdDir := filepath.Join(w.procRoot, strconv.Itoa(pid), "fd")
	fds, err := os.ReadDir(fdDir)
	if err != nil {
		// Permission denied or the process exited. Either way, not
		// ours to report.
		return 0, false
	}

	for _, fd := range fds {
		target, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
		if err != nil || !strings.HasPrefix(target, w.devPath+"/") {
			continue
		}
		attached = true
		vramBytes += w.readFdinfoVRAM(pid, fd.Name())
	}
	return vramBytes, attached
}

// readFdinfoVRAM parses the drm-memory-vram line from one fdinfo
// entry. The value is in KiB.
func (w *WorkloadScanner) readFdinfoVRAM(pid int, fd string) uint64 {
	data, err := os.ReadFile(filepath.Join(w.procRoot, strconv.Itoa(pid), "fdinfo", fd))
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "drm-memory-vram:" {
			kib, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0
			}
			return kib * 1024
		}
	}
	return 0
}

// readCmdline returns the process's full command line with NUL
// separators replaced by spaces.
func (w *WorkloadScanner) readCmdline(pid int) string {
	data, err := os.ReadFile(filepath.Join(w.procRoot, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(string(data), "\x00", " "))
}

// readOwner returns the login name of the process owner from the Uid
// line of /proc/<pid>/status, falling back to the raw uid.
func (w *WorkloadScanner) readOwner(pid int) string {
	data, err := os.ReadFile(filepath.Join(w.procRoot, strconv.Itoa(pid), "status"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "Uid:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return ""
		}
		return "uid:" + fields[1]
	}
	return ""
}

// commandName extracts the display name from a command line: the
// basename of the executable, skipping interpreter wrappers.
func commandName(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	name := filepath.Base(fields[0])
	// "python train.py" should display as train.py, not python.
	if strings.HasPrefix(name, "python") && len(fields) > 1 {
		for _, argument := range fields[1:] {
			if strings.HasPrefix(argument, "-") {
				continue
			}
			return filepath.Base(argument)
		}
	}
	return name
}

// classifyWorkload maps a command line to a WorkloadKind by keyword.
// The match set came from surveying what people actually run on these
// boxes; anything unrecognized is KindOther, never dropped.
func classifyWorkload(command string) schema.WorkloadKind {
	lowered := strings.ToLower(command)
	switch {
	case containsAny(lowered, "llama-server", "llama.cpp", "vllm", "ollama", "serve", "infer"):
		return schema.KindInference
	case containsAny(lowered, "train", "finetune", "fine-tune", "lora", "sft"):
		return schema.KindTraining
	case containsAny(lowered, "embed", "encoder"):
		return schema.KindEmbedding
	}
	return schema.KindOther
}

func containsAny(s string, substrings ...string) bool {
	for _, substring := range substrings {
		if strings.Contains(s, substring) {
			return true
		}
	}
	return false
}
