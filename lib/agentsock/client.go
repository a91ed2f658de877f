// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package agentsock

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/gantry-foundation/gantry/lib/codec"
)

// Client talks to a gantry-agent socket. The zero value is unusable;
// use NewClient. Client is safe for concurrent use — each call dials
// its own connection.
type Client struct {
	socketPath  string
	dialTimeout time.Duration
}

// NewClient creates a client for the agent socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, dialTimeout: 5 * time.Second}
}

// Call performs one request-response cycle. request must be a struct
// carrying the "action" field (Request or an action-specific type
// embedding it). When result is non-nil, the response's data field is
// decoded into it.
func (c *Client) Call(ctx context.Context, request any, result any) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := WriteFrame(conn, request); err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	var response Response
	if err := ReadFrameInto(conn, &response); err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if !response.OK {
		return fmt.Errorf("agent error: %s", response.Error)
	}
	if result != nil {
		if response.Data == nil {
			return fmt.Errorf("agent response has no data")
		}
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}

// Status fetches agent identity and liveness counters.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var status StatusResponse
	if err := c.Call(ctx, Request{Action: ActionStatus}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Snapshot fetches the latest sample and current workloads.
func (c *Client) Snapshot(ctx context.Context) (*SnapshotResponse, error) {
	var snapshot SnapshotResponse
	if err := c.Call(ctx, Request{Action: ActionSnapshot}, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// History queries stored samples.
func (c *Client) History(ctx context.Context, request HistoryRequest) (*HistoryResponse, error) {
	request.Action = ActionHistory
	var history HistoryResponse
	if err := c.Call(ctx, request, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// Models fetches the installed-model registry.
func (c *Client) Models(ctx context.Context) (*ModelsResponse, error) {
	var models ModelsResponse
	if err := c.Call(ctx, Request{Action: ActionModels}, &models); err != nil {
		return nil, err
	}
	return &models, nil
}

// Workloads fetches the current GPU workloads.
func (c *Client) Workloads(ctx context.Context) (*WorkloadsResponse, error) {
	var workloads WorkloadsResponse
	if err := c.Call(ctx, Request{Action: ActionWorkloads}, &workloads); err != nil {
		return nil, err
	}
	return &workloads, nil
}

// StopWorkload asks the agent to terminate a tracked workload.
func (c *Client) StopWorkload(ctx context.Context, workloadID string) error {
	return c.Call(ctx, StopWorkloadRequest{
		Action:     ActionStopWorkload,
		WorkloadID: workloadID,
	}, nil)
}

// TailStream is an open tail subscription. Read frames with Next;
// Close tears down the connection.
type TailStream struct {
	conn net.Conn
}

// Tail opens a live sample stream. The returned stream is active once
// this call succeeds (the server's ack has been received).
func (c *Client) Tail(ctx context.Context) (*TailStream, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	if err := WriteFrame(conn, Request{Action: ActionTail}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending tail request: %w", err)
	}

	var ack StreamAck
	if err := ReadFrameInto(conn, &ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading tail ack: %w", err)
	}
	if !ack.OK {
		conn.Close()
		return nil, fmt.Errorf("agent refused tail: %s", ack.Error)
	}
	return &TailStream{conn: conn}, nil
}

// Next blocks until the next frame arrives. Heartbeat frames are
// returned to the caller; filtering them is the caller's choice.
func (ts *TailStream) Next() (TailFrame, error) {
	var frame TailFrame
	if err := ReadFrameInto(ts.conn, &frame); err != nil {
		return TailFrame{}, err
	}
	return frame, nil
}

// Close tears down the subscription.
func (ts *TailStream) Close() error {
	return ts.conn.Close()
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("dialing agent socket %s: %w", c.socketPath, err)
	}
	return conn, nil
}
