// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"context"
	"sync"
	"time"

	"github.com/gantry-foundation/gantry/lib/schema"
)

// Event describes a single change to the dashboard's data, delivered
// via the [Source.Subscribe] channel for live updates.
type Event struct {
	// Kind is "sample", "workloads", or "models".
	Kind string

	// Sample is set for "sample" events.
	Sample *schema.MachineSample

	// Workloads is set for "workloads" events.
	Workloads []schema.Workload

	// Models is set for "models" events.
	Models []schema.ModelArtifact
}

// Source abstracts telemetry access for the dashboard. Implementations
// range from a live agent socket ([AgentSource]) to a recorded frame
// file ([ReplaySource]). The UI code is identical regardless of
// backend.
type Source interface {
	// Snapshot returns the most recent machine sample and the
	// current workload set.
	Snapshot() (schema.MachineSample, []schema.Workload)

	// Models returns the installed-model registry, sorted by ID.
	Models() []schema.ModelArtifact

	// Subscribe returns a channel that receives Events as new data
	// arrives. Returns nil if live updates are not supported.
	Subscribe() <-chan Event

	// Close releases the source's connections and goroutines.
	Close() error
}

// HistoryProvider is an optional interface a Source can provide to
// serve stored sample ranges for the detail pane's trend view. The UI
// checks for it via type assertion; when absent, history sections are
// hidden.
//
// AgentSource implements this interface; ReplaySource does not (a
// replay file carries no queryable history).
type HistoryProvider interface {
	// History returns stored samples in [from, until), oldest first,
	// at most limit entries (0 means the backend default).
	History(ctx context.Context, from, until time.Time, limit int) ([]schema.MachineSample, error)
}

// WorkloadController is an optional interface a Source can provide to
// terminate workloads. The UI checks for it via type assertion; when
// present, the workloads card offers a stop action on the selected
// row.
//
// AgentSource implements this interface; ReplaySource does not.
type WorkloadController interface {
	// StopWorkload asks the backend to terminate the workload. The
	// result arrives asynchronously through the subscribe stream
	// when the next workload scan no longer lists it.
	StopWorkload(ctx context.Context, workloadID string) error
}

// LoadingStater is an optional interface a Source can provide to
// report its startup progress. The UI checks for it via type
// assertion and shows a loading indicator until the source is live.
type LoadingStater interface {
	// LoadingState returns the current phase:
	//   "connecting" — not yet connected to the agent
	//   "loading"    — connected, fetching the initial snapshot
	//   "live"       — tail stream flowing
	LoadingState() string
}

// loadingStateLabel returns a human-readable label for a loading
// state, for the status bar and empty views.
func loadingStateLabel(state string) string {
	switch state {
	case "connecting":
		return "Connecting to agent..."
	case "loading":
		return "Loading snapshot..."
	default:
		return "Loading..."
	}
}

// StaticSource is a fixed-data Source for tests and for rendering a
// dashboard from a one-shot snapshot. It never emits events.
type StaticSource struct {
	mu        sync.RWMutex
	sample    schema.MachineSample
	workloads []schema.Workload
	models    []schema.ModelArtifact
}

// NewStaticSource creates a source that always serves the given data.
func NewStaticSource(sample schema.MachineSample, workloads []schema.Workload, models []schema.ModelArtifact) *StaticSource {
	return &StaticSource{sample: sample, workloads: workloads, models: models}
}

// Snapshot returns the fixed sample and workload set.
func (s *StaticSource) Snapshot() (schema.MachineSample, []schema.Workload) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sample, s.workloads
}

// Models returns the fixed model list.
func (s *StaticSource) Models() []schema.ModelArtifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models
}

// Subscribe returns nil: static data never changes.
func (s *StaticSource) Subscribe() <-chan Event { return nil }

// Close is a no-op.
func (s *StaticSource) Close() error { return nil }

// SetSample replaces the sample, for tests that drive updates by hand.
func (s *StaticSource) SetSample(sample schema.MachineSample) {
	s.mu.Lock()
	s.sample = sample
	s.mu.Unlock()
}
