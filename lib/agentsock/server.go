// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package agentsock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/gantry-foundation/gantry/lib/codec"
)

// ActionFunc processes one request-response action. raw is the full
// CBOR request frame including the "action" field; handlers re-decode
// it into their own request type. A nil result produces {ok: true};
// non-nil results are marshaled into the response's "data" field.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// StreamFunc handles a streaming action. The handler owns the
// connection until it returns: it must send a StreamAck first, then
// its stream frames. The server closes the connection afterwards.
type StreamFunc func(ctx context.Context, raw []byte, conn net.Conn)

// Server serves the agent protocol on a Unix socket. Each connection
// reads one request frame; request-response actions answer and close,
// streaming actions hold the connection open.
type Server struct {
	socketPath     string
	handlers       map[string]ActionFunc
	streamHandlers map[string]StreamFunc
	logger         *slog.Logger

	// activeConnections tracks in-flight handlers so Serve can drain
	// them on shutdown.
	activeConnections sync.WaitGroup
}

// NewServer creates a server that will listen on socketPath. Register
// actions with Handle and HandleStream before calling Serve.
func NewServer(socketPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		socketPath:     socketPath,
		handlers:       make(map[string]ActionFunc),
		streamHandlers: make(map[string]StreamFunc),
		logger:         logger,
	}
}

// Handle registers a request-response handler. Panics on duplicates.
func (s *Server) Handle(action string, handler ActionFunc) {
	if s.registered(action) {
		panic(fmt.Sprintf("agentsock.Server: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// HandleStream registers a streaming handler. Panics on duplicates.
func (s *Server) HandleStream(action string, handler StreamFunc) {
	if s.registered(action) {
		panic(fmt.Sprintf("agentsock.Server: duplicate handler for action %q", action))
	}
	s.streamHandlers[action] = handler
}

func (s *Server) registered(action string) bool {
	_, request := s.handlers[action]
	_, stream := s.streamHandlers[action]
	return request || stream
}

// Serve accepts connections until ctx is cancelled, then stops
// accepting and waits for active handlers to finish. Any stale socket
// file at the path is removed before listening; the socket file is
// removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("agent socket listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// readTimeout bounds the wait for a client's request frame. A
// well-behaved client sends it immediately after connecting.
const readTimeout = 30 * time.Second

// writeTimeout bounds each response write.
const writeTimeout = 10 * time.Second

// handleConnection reads the request frame and routes it.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	raw, err := ReadFrame(conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Client connected but sent nothing.
			return
		}
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	var header Request
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if header.Action == "" {
		s.writeError(conn, "missing required field: action")
		return
	}

	if streamHandler, ok := s.streamHandlers[header.Action]; ok {
		// Streams manage their own deadlines; lift the request one.
		conn.SetReadDeadline(time.Time{})
		streamHandler(ctx, raw, conn)
		return
	}

	handler, ok := s.handlers[header.Action]
	if !ok {
		s.writeError(conn, fmt.Sprintf("unknown action %q", header.Action))
		return
	}

	result, err := handler(ctx, raw)
	if err != nil {
		s.logger.Debug("action failed", "action", header.Action, "error", err)
		s.writeError(conn, err.Error())
		return
	}
	s.writeSuccess(conn, result)
}

// writeError sends {ok: false, error: "..."}. Write failures are
// logged at debug level; the connection is closing regardless.
func (s *Server) writeError(conn net.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := WriteFrame(conn, Response{OK: false, Error: message}); err != nil {
		s.logger.Debug("failed to write error response", "error", err)
	}
}

// writeSuccess sends {ok: true} or {ok: true, data: <cbor>}.
func (s *Server) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, fmt.Sprintf("internal: marshaling response: %v", err))
			return
		}
		response.Data = data
	}
	if err := WriteFrame(conn, response); err != nil {
		s.logger.Debug("failed to write success response", "error", err)
	}
}
