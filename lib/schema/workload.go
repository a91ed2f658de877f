// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"time"
)

// WorkloadKind classifies what a workload process is doing with the
// hardware.
type WorkloadKind string

const (
	// KindInference is a model serving or completion process.
	KindInference WorkloadKind = "inference"

	// KindTraining is a fine-tune or training run.
	KindTraining WorkloadKind = "training"

	// KindEmbedding is a batch embedding job.
	KindEmbedding WorkloadKind = "embedding"

	// KindOther is anything the agent recognized as GPU-attached but
	// could not classify.
	KindOther WorkloadKind = "other"
)

// WorkloadState is the lifecycle state of a workload.
type WorkloadState string

const (
	StatePending  WorkloadState = "pending"
	StateRunning  WorkloadState = "running"
	StateStopping WorkloadState = "stopping"
	StateExited   WorkloadState = "exited"
	StateFailed   WorkloadState = "failed"
)

// ValidWorkloadState reports whether s is one of the defined states.
func ValidWorkloadState(s WorkloadState) bool {
	switch s {
	case StatePending, StateRunning, StateStopping, StateExited, StateFailed:
		return true
	}
	return false
}

// Workload is one tracked process using the workstation's hardware:
// an inference server, a training run, an embedding job.
type Workload struct {
	// ID is the agent-assigned stable identifier ("wl-7f3a").
	ID string `json:"id"`

	// Name is the human-readable label shown on dashboard cards.
	Name string `json:"name"`

	// Kind classifies the workload.
	Kind WorkloadKind `json:"kind"`

	// Principal is the user or service account the workload runs as.
	Principal string `json:"principal,omitempty"`

	// State is the current lifecycle state.
	State WorkloadState `json:"state"`

	// PID is the leader process id; zero once the workload exits.
	PID int `json:"pid,omitempty"`

	// ModelID names the installed model the workload serves, when
	// known. Matches ModelArtifact.ID.
	ModelID string `json:"model_id,omitempty"`

	// VRAMReservedBytes is the VRAM the workload has reserved,
	// summed across GPUs.
	VRAMReservedBytes uint64 `json:"vram_reserved_bytes,omitempty"`

	// GPUSlots lists the PCI slots of the GPUs the workload is
	// pinned to. Empty means unpinned.
	GPUSlots []string `json:"gpu_slots,omitempty"`

	// StartedAt is when the workload entered the running state.
	StartedAt time.Time `json:"started_at,omitempty"`

	// ExitedAt is when it left; zero while running.
	ExitedAt time.Time `json:"exited_at,omitempty"`
}

// Validate checks the fields a workload record must carry before the
// agent accepts or persists it.
func (w *Workload) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("workload missing id")
	}
	if w.Name == "" {
		return fmt.Errorf("workload %q missing name", w.ID)
	}
	if !ValidWorkloadState(w.State) {
		return fmt.Errorf("workload %q has unknown state %q", w.ID, w.State)
	}
	return nil
}

// Active reports whether the workload is still holding hardware.
func (w *Workload) Active() bool {
	return w.State == StatePending || w.State == StateRunning || w.State == StateStopping
}
