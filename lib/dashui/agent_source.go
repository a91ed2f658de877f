// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gantry-foundation/gantry/lib/agentsock"
	"github.com/gantry-foundation/gantry/lib/schema"
)

// refreshInterval is how often the agent source re-fetches workloads
// and models. Samples arrive on the tail stream push-style; workload
// and model churn is slow enough that polling between samples is fine.
const refreshInterval = 5 * time.Second

// reconnectDelay is the pause before redialing a dropped tail stream.
const reconnectDelay = 2 * time.Second

// AgentSource serves dashboard data from a live gantry-agent socket.
// It holds a tail subscription for push samples and polls workloads
// and models on a slower cadence, caching everything locally so
// Snapshot and Models never block on the network.
type AgentSource struct {
	client *agentsock.Client
	logger *slog.Logger

	mu        sync.RWMutex
	sample    schema.MachineSample
	workloads []schema.Workload
	models    []schema.ModelArtifact
	state     string // "connecting", "loading", "live"

	subscribers []chan Event
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewAgentSource connects to the agent socket and starts the tail and
// refresh loops. The initial snapshot is fetched synchronously so the
// first render has data; tail reconnection after drops is automatic.
func NewAgentSource(ctx context.Context, socketPath string, logger *slog.Logger) (*AgentSource, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	source := &AgentSource{
		client: agentsock.NewClient(socketPath),
		logger: logger,
		state:  "connecting",
		done:   make(chan struct{}),
	}

	fetchCtx, cancelFetch := context.WithTimeout(ctx, 10*time.Second)
	defer cancelFetch()

	source.setState("loading")
	if err := source.refresh(fetchCtx); err != nil {
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	source.cancel = cancel
	go source.run(loopCtx)

	return source, nil
}

// Snapshot returns the cached sample and workloads.
func (s *AgentSource) Snapshot() (schema.MachineSample, []schema.Workload) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sample, s.workloads
}

// Models returns the cached model registry.
func (s *AgentSource) Models() []schema.ModelArtifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models
}

// Subscribe returns a channel receiving events as agent data arrives.
func (s *AgentSource) Subscribe() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel := make(chan Event, 64)
	s.subscribers = append(s.subscribers, channel)
	return channel
}

// History implements HistoryProvider against the agent's sample store.
func (s *AgentSource) History(ctx context.Context, from, until time.Time, limit int) ([]schema.MachineSample, error) {
	response, err := s.client.History(ctx, agentsock.HistoryRequest{
		From:  from,
		Until: until,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return response.Samples, nil
}

// StopWorkload implements WorkloadController.
func (s *AgentSource) StopWorkload(ctx context.Context, workloadID string) error {
	return s.client.StopWorkload(ctx, workloadID)
}

// LoadingState implements LoadingStater.
func (s *AgentSource) LoadingState() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Close stops the tail and refresh loops.
func (s *AgentSource) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return nil
}

func (s *AgentSource) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// refresh fetches snapshot, workloads, and models in one pass and
// dispatches events for whatever changed.
func (s *AgentSource) refresh(ctx context.Context) error {
	snapshot, err := s.client.Snapshot(ctx)
	if err != nil {
		return err
	}
	models, err := s.client.Models(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sample = snapshot.Sample
	s.workloads = snapshot.Workloads
	s.models = models.Models
	s.mu.Unlock()

	s.dispatch(Event{Kind: "sample", Sample: &snapshot.Sample})
	s.dispatch(Event{Kind: "workloads", Workloads: snapshot.Workloads})
	s.dispatch(Event{Kind: "models", Models: models.Models})
	return nil
}

// run owns the tail stream and the slow refresh ticker until Close.
func (s *AgentSource) run(ctx context.Context) {
	defer close(s.done)

	go s.refreshLoop(ctx)

	for {
		if ctx.Err() != nil {
			return
		}
		s.tailOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// tailOnce holds one tail subscription until it drops.
func (s *AgentSource) tailOnce(ctx context.Context) {
	stream, err := s.client.Tail(ctx)
	if err != nil {
		s.setState("connecting")
		s.logger.Warn("tail subscribe failed", "error", err)
		return
	}
	defer stream.Close()
	s.setState("live")

	// Tear the stream down when the context ends so Next unblocks.
	go func() {
		<-ctx.Done()
		stream.Close()
	}()

	for {
		frame, err := stream.Next()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				s.logger.Warn("tail stream dropped", "error", err)
			}
			s.setState("connecting")
			return
		}
		if frame.Type != agentsock.TailFrameSample || frame.Sample == nil {
			continue
		}
		s.mu.Lock()
		s.sample = *frame.Sample
		s.mu.Unlock()
		s.dispatch(Event{Kind: "sample", Sample: frame.Sample})
	}
}

// refreshLoop polls workloads and models on the slow cadence.
func (s *AgentSource) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		callCtx, cancel := context.WithTimeout(ctx, refreshInterval)
		workloads, workloadsErr := s.client.Workloads(callCtx)
		models, modelsErr := s.client.Models(callCtx)
		cancel()

		if workloadsErr != nil || modelsErr != nil {
			continue
		}

		s.mu.Lock()
		s.workloads = workloads.Workloads
		s.models = models.Models
		s.mu.Unlock()

		s.dispatch(Event{Kind: "workloads", Workloads: workloads.Workloads})
		s.dispatch(Event{Kind: "models", Models: models.Models})
	}
}

// dispatch delivers an event to all subscribers, dropping it for any
// whose buffer is full. The UI picks up current state from Snapshot
// on its next refresh either way.
func (s *AgentSource) dispatch(event Event) {
	s.mu.RLock()
	subscribers := s.subscribers
	s.mu.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
		}
	}
}
