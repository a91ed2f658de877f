// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package hwstat

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gantry-foundation/gantry/lib/schema"
)

// fakeProcess describes one synthetic /proc/<pid> entry.
type fakeProcess struct {
	pid      int
	cmdline  []string
	uid      string
	fdLinks  map[string]string // fd name -> symlink target
	fdinfo   map[string]string // fd name -> fdinfo content
	statusOK bool
}

func writeProcess(t *testing.T, procRoot string, process fakeProcess) {
	t.Helper()
	pidDir := filepath.Join(procRoot, strconv.Itoa(process.pid))
	fdDir := filepath.Join(pidDir, "fd")
	fdinfoDir := filepath.Join(pidDir, "fdinfo")
	if err := os.MkdirAll(fdDir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.MkdirAll(fdinfoDir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	cmdline := strings.Join(process.cmdline, "\x00") + "\x00"
	if err := os.WriteFile(filepath.Join(pidDir, "cmdline"), []byte(cmdline), 0644); err != nil {
		t.Fatalf("WriteFile cmdline: %v", err)
	}

	if process.statusOK {
		status := "Name:\t" + filepath.Base(process.cmdline[0]) + "\n" +
			"Uid:\t" + process.uid + "\t" + process.uid + "\t" + process.uid + "\t" + process.uid + "\n"
		if err := os.WriteFile(filepath.Join(pidDir, "status"), []byte(status), 0644); err != nil {
			t.Fatalf("WriteFile status: %v", err)
		}
	}

	for fd, target := range process.fdLinks {
		if err := os.Symlink(target, filepath.Join(fdDir, fd)); err != nil {
			t.Fatalf("Symlink: %v", err)
		}
	}
	for fd, content := range process.fdinfo {
		if err := os.WriteFile(filepath.Join(fdinfoDir, fd), []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile fdinfo: %v", err)
		}
	}
}

func TestScanFindsGPUAttachedProcesses(t *testing.T) {
	procRoot := t.TempDir()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	writeProcess(t, procRoot, fakeProcess{
		pid:      4321,
		cmdline:  []string{"/usr/bin/llama-server", "-m", "model.gguf", "--port", "8080"},
		uid:      "1000",
		statusOK: true,
		fdLinks: map[string]string{
			"3": "/dev/dri/renderD128",
			"4": "/dev/null",
		},
		fdinfo: map[string]string{
			"3": "pos:\t0\nflags:\t02100002\ndrm-driver:\tamdgpu\ndrm-memory-vram:\t8388608 KiB\n",
		},
	})
	// A process with no DRM fds must not appear.
	writeProcess(t, procRoot, fakeProcess{
		pid:      100,
		cmdline:  []string{"/usr/bin/bash"},
		uid:      "1000",
		statusOK: true,
		fdLinks:  map[string]string{"0": "/dev/pts/0"},
	})
	// Non-numeric /proc entries are ignored.
	if err := os.MkdirAll(filepath.Join(procRoot, "sys"), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	scanner := newWorkloadScannerFrom(procRoot, "/dev/dri")
	workloads := scanner.Scan(now)

	if len(workloads) != 1 {
		t.Fatalf("Scan returned %d workloads, want 1", len(workloads))
	}
	workload := workloads[0]
	if workload.ID != "wl-4321" {
		t.Errorf("ID = %q, want wl-4321", workload.ID)
	}
	if workload.Name != "llama-server" {
		t.Errorf("Name = %q, want llama-server", workload.Name)
	}
	if workload.Kind != schema.KindInference {
		t.Errorf("Kind = %q, want %q", workload.Kind, schema.KindInference)
	}
	if workload.State != schema.StateRunning {
		t.Errorf("State = %q, want %q", workload.State, schema.StateRunning)
	}
	if workload.PID != 4321 {
		t.Errorf("PID = %d, want 4321", workload.PID)
	}
	if workload.Principal != "uid:1000" {
		t.Errorf("Principal = %q, want uid:1000", workload.Principal)
	}
	if got, want := workload.VRAMReservedBytes, uint64(8388608)*1024; got != want {
		t.Errorf("VRAMReservedBytes = %d, want %d", got, want)
	}
	if !workload.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", workload.StartedAt, now)
	}
}

func TestScanStartedAtStableAcrossScans(t *testing.T) {
	procRoot := t.TempDir()
	first := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	second := first.Add(5 * time.Second)

	writeProcess(t, procRoot, fakeProcess{
		pid:      200,
		cmdline:  []string{"/opt/vllm/bin/vllm", "serve"},
		uid:      "1001",
		statusOK: true,
		fdLinks:  map[string]string{"5": "/dev/dri/card0"},
	})

	scanner := newWorkloadScannerFrom(procRoot, "/dev/dri")
	scanner.Scan(first)
	workloads := scanner.Scan(second)

	if len(workloads) != 1 {
		t.Fatalf("Scan returned %d workloads, want 1", len(workloads))
	}
	if !workloads[0].StartedAt.Equal(first) {
		t.Errorf("StartedAt = %v, want first-seen time %v", workloads[0].StartedAt, first)
	}
}

func TestScanPrunesVanishedProcesses(t *testing.T) {
	procRoot := t.TempDir()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	writeProcess(t, procRoot, fakeProcess{
		pid:      300,
		cmdline:  []string{"/usr/bin/ollama", "serve"},
		uid:      "1000",
		statusOK: true,
		fdLinks:  map[string]string{"3": "/dev/dri/renderD129"},
	})

	scanner := newWorkloadScannerFrom(procRoot, "/dev/dri")
	if got := len(scanner.Scan(now)); got != 1 {
		t.Fatalf("first Scan returned %d workloads, want 1", got)
	}

	if err := os.RemoveAll(filepath.Join(procRoot, "300")); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}

	if got := len(scanner.Scan(now.Add(time.Second))); got != 0 {
		t.Fatalf("Scan after exit returned %d workloads, want 0", got)
	}
	if len(scanner.firstSeen) != 0 {
		t.Errorf("firstSeen not pruned: %v", scanner.firstSeen)
	}
}

func TestScanOrdersByPID(t *testing.T) {
	procRoot := t.TempDir()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for _, pid := range []int{900, 15, 4022} {
		writeProcess(t, procRoot, fakeProcess{
			pid:      pid,
			cmdline:  []string{"/usr/bin/some-tool"},
			uid:      "1000",
			statusOK: true,
			fdLinks:  map[string]string{"3": "/dev/dri/card0"},
		})
	}

	scanner := newWorkloadScannerFrom(procRoot, "/dev/dri")
	workloads := scanner.Scan(now)
	if len(workloads) != 3 {
		t.Fatalf("Scan returned %d workloads, want 3", len(workloads))
	}
	for i, want := range []int{15, 900, 4022} {
		if workloads[i].PID != want {
			t.Errorf("workloads[%d].PID = %d, want %d", i, workloads[i].PID, want)
		}
	}
}

func TestScanMissingProcRoot(t *testing.T) {
	scanner := newWorkloadScannerFrom("/nonexistent/proc", "/dev/dri")
	if workloads := scanner.Scan(time.Now()); workloads != nil {
		t.Errorf("Scan for missing proc root = %v, want nil", workloads)
	}
}

func TestClassifyWorkload(t *testing.T) {
	tests := []struct {
		command  string
		expected schema.WorkloadKind
	}{
		{"/usr/bin/llama-server -m model.gguf", schema.KindInference},
		{"/opt/vllm/bin/vllm serve meta-llama/Llama-3-8B", schema.KindInference},
		{"/usr/local/bin/ollama runner", schema.KindInference},
		{"python train.py --epochs 3", schema.KindTraining},
		{"accelerate launch finetune_lora.py", schema.KindTraining},
		{"python embed_corpus.py", schema.KindEmbedding},
		{"/usr/bin/blender --background", schema.KindOther},
	}

	for _, test := range tests {
		if got := classifyWorkload(test.command); got != test.expected {
			t.Errorf("classifyWorkload(%q) = %q, want %q", test.command, got, test.expected)
		}
	}
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		command  string
		expected string
	}{
		{"/usr/bin/llama-server -m model.gguf", "llama-server"},
		{"python3 /home/ml/train.py --epochs 3", "train.py"},
		{"python -u scripts/embed.py", "embed.py"},
		{"python", "python"},
		{"", ""},
	}

	for _, test := range tests {
		if got := commandName(test.command); got != test.expected {
			t.Errorf("commandName(%q) = %q, want %q", test.command, got, test.expected)
		}
	}
}
