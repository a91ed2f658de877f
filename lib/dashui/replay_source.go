// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gantry-foundation/gantry/lib/agentsock"
	"github.com/gantry-foundation/gantry/lib/schema"
)

// replayInterval is the playback cadence. Replay files carry no
// timing; a fixed cadence keeps demos deterministic.
const replayInterval = time.Second

// ReplaySource plays back a recorded frame file: consecutive
// length-prefixed CBOR tail frames, the same encoding the agent
// socket streams, so a recording is just the tail stream captured to
// disk. Samples loop forever at a fixed cadence.
//
// Workloads and models are synthesized from the samples' GPU data
// only if the file contains dedicated frames; a plain sample
// recording shows hardware cards and empty workload/model cards.
type ReplaySource struct {
	samples []schema.MachineSample

	mu          sync.RWMutex
	position    int
	current     schema.MachineSample
	subscribers []chan Event
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewReplaySource loads a recording and starts playback. The file
// must contain at least one sample frame.
func NewReplaySource(path string) (*ReplaySource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening replay file: %w", err)
	}
	defer file.Close()

	var samples []schema.MachineSample
	for {
		var frame agentsock.TailFrame
		if err := agentsock.ReadFrameInto(file, &frame); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading replay frame %d: %w", len(samples), err)
		}
		if frame.Type == agentsock.TailFrameSample && frame.Sample != nil {
			samples = append(samples, *frame.Sample)
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("replay file %s contains no samples", path)
	}

	source := &ReplaySource{
		samples: samples,
		current: samples[0],
		stop:    make(chan struct{}),
	}
	go source.playback()
	return source, nil
}

// Snapshot returns the sample at the current playback position.
func (s *ReplaySource) Snapshot() (schema.MachineSample, []schema.Workload) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

// Models returns nil: recordings carry no registry.
func (s *ReplaySource) Models() []schema.ModelArtifact { return nil }

// Subscribe returns a channel receiving a sample event per playback
// step.
func (s *ReplaySource) Subscribe() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel := make(chan Event, 64)
	s.subscribers = append(s.subscribers, channel)
	return channel
}

// Close stops playback.
func (s *ReplaySource) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *ReplaySource) playback() {
	ticker := time.NewTicker(replayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		s.position = (s.position + 1) % len(s.samples)
		s.current = s.samples[s.position]
		sample := s.current
		subscribers := s.subscribers
		s.mu.Unlock()

		event := Event{Kind: "sample", Sample: &sample}
		for _, subscriber := range subscribers {
			select {
			case subscriber <- event:
			default:
			}
		}
	}
}
