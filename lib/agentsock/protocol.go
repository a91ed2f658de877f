// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package agentsock

import (
	"time"

	"github.com/gantry-foundation/gantry/lib/codec"
	"github.com/gantry-foundation/gantry/lib/schema"
)

// Action names. Every request frame carries one in its "action" field.
const (
	// ActionStatus returns agent identity and liveness counters.
	ActionStatus = "status"

	// ActionSnapshot returns the latest sample plus current workloads.
	ActionSnapshot = "snapshot"

	// ActionHistory queries stored samples by time range.
	ActionHistory = "history"

	// ActionTail subscribes to live samples on a held-open connection.
	ActionTail = "tail"

	// ActionModels returns the installed-model registry.
	ActionModels = "models"

	// ActionWorkloads returns the current GPU workloads.
	ActionWorkloads = "workloads"

	// ActionStopWorkload asks the agent to SIGTERM a tracked workload.
	ActionStopWorkload = "stop_workload"
)

// Request is the envelope every client frame carries. Action-specific
// fields ride alongside in the same CBOR map; handlers re-decode the
// raw frame into their own request type.
type Request struct {
	Action string `cbor:"action"`
}

// Response is the envelope for request-response actions.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// StreamAck is the first frame a streaming handler sends, signalling
// that the subscription is active (or why it is not).
type StreamAck struct {
	OK    bool   `cbor:"ok"`
	Error string `cbor:"error,omitempty"`
}

// StatusResponse is the payload for ActionStatus.
type StatusResponse struct {
	Hostname      string    `cbor:"hostname"`
	Version       string    `cbor:"version"`
	StartedAt     time.Time `cbor:"started_at"`
	SampleCount   uint64    `cbor:"sample_count"`
	UptimeSeconds uint64    `cbor:"uptime_seconds"`
}

// SnapshotResponse is the payload for ActionSnapshot.
type SnapshotResponse struct {
	Sample    schema.MachineSample `cbor:"sample"`
	Workloads []schema.Workload    `cbor:"workloads,omitempty"`
}

// HistoryRequest narrows an ActionHistory query. Zero From/Until mean
// unbounded on that side; Limit 0 means the server default.
type HistoryRequest struct {
	Action string    `cbor:"action"`
	From   time.Time `cbor:"from,omitempty"`
	Until  time.Time `cbor:"until,omitempty"`
	Limit  int       `cbor:"limit,omitempty"`
}

// HistoryResponse is the payload for ActionHistory, oldest first.
type HistoryResponse struct {
	Samples []schema.MachineSample `cbor:"samples,omitempty"`
}

// ModelsResponse is the payload for ActionModels.
type ModelsResponse struct {
	Models []schema.ModelArtifact `cbor:"models,omitempty"`
}

// WorkloadsResponse is the payload for ActionWorkloads.
type WorkloadsResponse struct {
	Workloads []schema.Workload `cbor:"workloads,omitempty"`
}

// StopWorkloadRequest names the workload ActionStopWorkload targets.
type StopWorkloadRequest struct {
	Action     string `cbor:"action"`
	WorkloadID string `cbor:"workload_id"`
}

// TailFrame is one frame of an ActionTail stream. Heartbeats keep the
// connection alive and let the client detect a dead agent.
type TailFrame struct {
	Type   string                `cbor:"type"`
	Sample *schema.MachineSample `cbor:"sample,omitempty"`
}

// TailFrame types.
const (
	TailFrameSample    = "sample"
	TailFrameHeartbeat = "heartbeat"
)
