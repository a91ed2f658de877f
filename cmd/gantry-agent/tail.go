// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/gantry-foundation/gantry/lib/agentsock"
	"github.com/gantry-foundation/gantry/lib/schema"
)

const (
	// tailHeartbeatInterval is how often the tail handler sends a
	// heartbeat frame. Keeps the connection alive and lets clients
	// detect a dead agent.
	tailHeartbeatInterval = 10 * time.Second

	// tailBufferSize is the channel capacity for each tail
	// subscriber. At the default 2-second sample interval this is
	// about two minutes of backlog before frames are dropped; a
	// dashboard that falls that far behind repairs itself on the next
	// delivered sample.
	tailBufferSize = 64
)

// tailSubscriber is one connected tail client. The sampling loop
// sends samples on the channel; the handleTail goroutine writes them
// to the connection.
type tailSubscriber struct {
	samples chan schema.MachineSample
}

func (a *Agent) addSubscriber(subscriber *tailSubscriber) {
	a.subscriberMu.Lock()
	a.tailSubscribers = append(a.tailSubscribers, subscriber)
	a.subscriberMu.Unlock()
}

func (a *Agent) removeSubscriber(subscriber *tailSubscriber) {
	a.subscriberMu.Lock()
	for i, existing := range a.tailSubscribers {
		if existing == subscriber {
			a.tailSubscribers = append(a.tailSubscribers[:i], a.tailSubscribers[i+1:]...)
			break
		}
	}
	a.subscriberMu.Unlock()
}

// fanOutSample sends a sample to every registered subscriber. Sends
// are non-blocking: a full channel drops the sample for that
// subscriber only.
func (a *Agent) fanOutSample(sample *schema.MachineSample) {
	a.subscriberMu.RLock()
	defer a.subscriberMu.RUnlock()

	for _, subscriber := range a.tailSubscribers {
		select {
		case subscriber.samples <- *sample:
		default:
		}
	}
}

// handleTail is the streaming handler for the tail action. After the
// readiness ack the client receives sample frames as they are
// collected, with heartbeats in the gaps.
func (a *Agent) handleTail(ctx context.Context, _ []byte, conn net.Conn) {
	// Register before the ack so no sample collected between the ack
	// and the loop start is missed.
	subscriber := &tailSubscriber{
		samples: make(chan schema.MachineSample, tailBufferSize),
	}
	a.addSubscriber(subscriber)
	defer func() {
		a.removeSubscriber(subscriber)
		a.logger.Debug("tail stream ended")
	}()

	if err := agentsock.WriteFrame(conn, agentsock.StreamAck{OK: true}); err != nil {
		return
	}
	a.logger.Debug("tail stream started")

	// Close the connection on context cancellation to unblock the
	// reader goroutine's blocking read.
	handlerDone := make(chan struct{})
	defer close(handlerDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-handlerDone:
		}
	}()

	// The client sends nothing after the request frame; the reader
	// exists to notice the disconnect.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		buffer := make([]byte, 1)
		for {
			if _, err := conn.Read(buffer); err != nil {
				return
			}
		}
	}()

	heartbeat := a.clock.NewTicker(tailHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case sample := <-subscriber.samples:
			frame := agentsock.TailFrame{Type: agentsock.TailFrameSample, Sample: &sample}
			if err := agentsock.WriteFrame(conn, frame); err != nil {
				a.logWriteFailure(ctx, err)
				return
			}

		case <-heartbeat.C:
			frame := agentsock.TailFrame{Type: agentsock.TailFrameHeartbeat}
			if err := agentsock.WriteFrame(conn, frame); err != nil {
				a.logWriteFailure(ctx, err)
				return
			}

		case <-readerDone:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (a *Agent) logWriteFailure(ctx context.Context, err error) {
	if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	a.logger.Debug("tail write failed", "error", err)
}
