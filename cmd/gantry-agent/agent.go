// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gantry-foundation/gantry/lib/agentsock"
	"github.com/gantry-foundation/gantry/lib/clock"
	"github.com/gantry-foundation/gantry/lib/codec"
	"github.com/gantry-foundation/gantry/lib/hwstat"
	"github.com/gantry-foundation/gantry/lib/modelstore"
	"github.com/gantry-foundation/gantry/lib/schema"
	"github.com/gantry-foundation/gantry/lib/version"
)

// retentionInterval is how often the retention sweep runs. Partitions
// are day-granular, so hourly is more than enough.
const retentionInterval = time.Hour

// Agent is the sampler daemon's core state: the latest sample and
// workload set for snapshot responses, the history store, and the tail
// subscriber registry.
//
// The sampling loop is the only writer of latest/workloads; socket
// handlers read under RLock. Tail fan-out mirrors the registry
// pattern: non-blocking sends, slow subscribers drop frames.
type Agent struct {
	store   *Store
	sampler *hwstat.Sampler
	scanner *hwstat.WorkloadScanner
	models  *modelstore.Store
	clock   clock.Clock
	logger  *slog.Logger

	hostname  string
	startedAt time.Time

	sampleCount atomic.Uint64

	mu        sync.RWMutex
	latest    schema.MachineSample
	workloads []schema.Workload

	subscriberMu    sync.RWMutex
	tailSubscribers []*tailSubscriber
}

// NewAgent wires the sampling stack around an open history store.
func NewAgent(store *Store, models *modelstore.Store, clk clock.Clock, logger *slog.Logger) *Agent {
	hostname, _ := os.Hostname()
	return &Agent{
		store:     store,
		sampler:   hwstat.NewSampler(logger),
		scanner:   hwstat.NewWorkloadScanner(),
		models:    models,
		clock:     clk,
		logger:    logger,
		hostname:  hostname,
		startedAt: clk.Now(),
	}
}

// runSampling collects one sample per interval until ctx is
// cancelled. The first sample is taken immediately so the socket has
// data to serve before the first tick.
func (a *Agent) runSampling(ctx context.Context, interval time.Duration) {
	a.sampleOnce(ctx)

	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.sampleOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *Agent) sampleOnce(ctx context.Context) {
	now := a.clock.Now()
	sample := a.sampler.Sample(now)
	workloads := a.scanner.Scan(now)

	if err := a.store.WriteSample(ctx, &sample, workloads); err != nil {
		if ctx.Err() == nil {
			a.logger.Error("sample write failed", "error", err)
		}
		// Keep serving the sample live even when the write failed.
	}

	a.mu.Lock()
	a.latest = sample
	a.workloads = workloads
	a.mu.Unlock()

	a.sampleCount.Add(1)
	a.fanOutSample(&sample)
}

// runRetention sweeps expired partitions on a fixed interval.
func (a *Agent) runRetention(ctx context.Context, retentionDays int) {
	sweep := func() {
		if err := a.store.RunRetention(ctx, retentionDays); err != nil && ctx.Err() == nil {
			a.logger.Error("retention sweep failed", "error", err)
		}
	}
	sweep()

	ticker := a.clock.NewTicker(retentionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweep()
		case <-ctx.Done():
			return
		}
	}
}

// registerActions registers the agent's socket actions on the server.
func (a *Agent) registerActions(server *agentsock.Server) {
	server.Handle(agentsock.ActionStatus, a.handleStatus)
	server.Handle(agentsock.ActionSnapshot, a.handleSnapshot)
	server.Handle(agentsock.ActionHistory, a.handleHistory)
	server.Handle(agentsock.ActionModels, a.handleModels)
	server.Handle(agentsock.ActionWorkloads, a.handleWorkloads)
	server.Handle(agentsock.ActionStopWorkload, a.handleStopWorkload)
	server.HandleStream(agentsock.ActionTail, a.handleTail)
}

func (a *Agent) handleStatus(_ context.Context, _ []byte) (any, error) {
	now := a.clock.Now()
	return agentsock.StatusResponse{
		Hostname:      a.hostname,
		Version:       version.Short(),
		StartedAt:     a.startedAt,
		SampleCount:   a.sampleCount.Load(),
		UptimeSeconds: uint64(now.Sub(a.startedAt).Seconds()),
	}, nil
}

func (a *Agent) handleSnapshot(_ context.Context, _ []byte) (any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.latest.TakenAt.IsZero() {
		return nil, fmt.Errorf("no sample collected yet")
	}
	return agentsock.SnapshotResponse{
		Sample:    a.latest,
		Workloads: append([]schema.Workload(nil), a.workloads...),
	}, nil
}

func (a *Agent) handleHistory(ctx context.Context, raw []byte) (any, error) {
	var request agentsock.HistoryRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid history request: %w", err)
	}

	samples, err := a.store.QuerySamples(ctx, request.From, request.Until, request.Limit)
	if err != nil {
		return nil, err
	}
	return agentsock.HistoryResponse{Samples: samples}, nil
}

func (a *Agent) handleModels(_ context.Context, _ []byte) (any, error) {
	if a.models == nil {
		return agentsock.ModelsResponse{}, nil
	}
	return agentsock.ModelsResponse{Models: a.models.List()}, nil
}

func (a *Agent) handleWorkloads(_ context.Context, _ []byte) (any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return agentsock.WorkloadsResponse{
		Workloads: append([]schema.Workload(nil), a.workloads...),
	}, nil
}

// handleStopWorkload delivers SIGTERM to a tracked workload. The next
// scan observes the exit; clients see the workload leave the snapshot.
func (a *Agent) handleStopWorkload(_ context.Context, raw []byte) (any, error) {
	var request agentsock.StopWorkloadRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid stop request: %w", err)
	}
	if request.WorkloadID == "" {
		return nil, fmt.Errorf("missing required field: workload_id")
	}

	a.mu.RLock()
	var target *schema.Workload
	for i := range a.workloads {
		if a.workloads[i].ID == request.WorkloadID {
			target = &a.workloads[i]
			break
		}
	}
	a.mu.RUnlock()

	if target == nil {
		return nil, fmt.Errorf("unknown workload %q", request.WorkloadID)
	}
	if target.PID <= 0 {
		return nil, fmt.Errorf("workload %q has no process", request.WorkloadID)
	}

	if err := unix.Kill(target.PID, unix.SIGTERM); err != nil {
		return nil, fmt.Errorf("signalling workload %q (pid %d): %w",
			request.WorkloadID, target.PID, err)
	}

	a.logger.Info("workload stop requested",
		"workload", request.WorkloadID,
		"pid", target.PID,
	)
	return nil, nil
}
