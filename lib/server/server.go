// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/hookd/lib/dispatch"
	"github.com/bureau-foundation/hookd/lib/hook"
	"github.com/bureau-foundation/hookd/lib/netutil"
	"github.com/bureau-foundation/hookd/lib/protocol"
)

const (
	// DefaultReadTimeout is how long a client has to send its request
	// after connecting.
	DefaultReadTimeout = 30 * time.Second

	// DefaultWriteTimeout bounds writing the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultMaxRequestSize caps one request document. Hook inputs
	// carry file contents for Write and Edit, so the ceiling is high.
	DefaultMaxRequestSize = 64 << 20
)

// Dispatcher evaluates an event. *dispatch.Engine implements it.
type Dispatcher interface {
	Dispatch(event hook.Event) (hook.Result, error)
}

// Options configures a Server. Zero values select the defaults.
type Options struct {
	Logger *slog.Logger

	// OnActivity is called once per accepted connection, before the
	// request is read.
	OnActivity func()

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int
}

// Server answers hook requests.
type Server struct {
	dispatcher     Dispatcher
	logger         *slog.Logger
	onActivity     func()
	readTimeout    time.Duration
	writeTimeout   time.Duration
	maxRequestSize int

	// activeConnections lets Serve wait for in-flight exchanges.
	activeConnections sync.WaitGroup
}

// New creates a server that dispatches through dispatcher.
func New(dispatcher Dispatcher, options Options) *Server {
	server := &Server{
		dispatcher:     dispatcher,
		logger:         options.Logger,
		onActivity:     options.OnActivity,
		readTimeout:    options.ReadTimeout,
		writeTimeout:   options.WriteTimeout,
		maxRequestSize: options.MaxRequestSize,
	}
	if server.logger == nil {
		server.logger = slog.New(slog.DiscardHandler)
	}
	if server.onActivity == nil {
		server.onActivity = func() {}
	}
	if server.readTimeout <= 0 {
		server.readTimeout = DefaultReadTimeout
	}
	if server.writeTimeout <= 0 {
		server.writeTimeout = DefaultWriteTimeout
	}
	if server.maxRequestSize <= 0 {
		server.maxRequestSize = DefaultMaxRequestSize
	}
	return server
}

// Serve accepts connections on listener until ctx is cancelled or the
// listener is closed, then waits for in-flight connections to finish.
// The listener is closed on return. Serve returns nil on a clean
// shutdown.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()
	defer listener.Close()

	s.logger.Info("accepting connections", "address", listener.Addr().String())

	var acceptErr error
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			var temporary interface{ Temporary() bool }
			if errors.As(err, &temporary) && temporary.Temporary() {
				s.logger.Warn("accept failed, retrying", "error", err)
				continue
			}
			acceptErr = fmt.Errorf("accepting connection: %w", err)
			break
		}

		s.onActivity()
		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(conn)
		}()
	}

	s.activeConnections.Wait()
	return acceptErr
}

// handleConnection runs one exchange.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	started := time.Now()
	logger := s.logger.With("request_id", uuid.NewString())

	// eventName is whatever we know about the event so far, so a panic
	// can still answer in the right shape.
	var eventName string
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("panic serving request", "event", eventName, "panic", recovered)
			s.write(logger, conn, protocol.TransportError(eventName, fmt.Errorf("internal error: %v", recovered)))
		}
	}()

	conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	line, err := s.readRequest(conn)
	if err != nil {
		if errors.Is(err, errEmptyRequest) {
			logger.Debug("client closed without sending a request")
			return
		}
		eventName = protocol.SalvageEventName(line)
		logger.Warn("reading request failed", "event", eventName, "error", err)
		s.write(logger, conn, protocol.TransportError(eventName, err))
		return
	}

	event, err := protocol.DecodeRequest(line)
	if err != nil {
		eventName = protocol.SalvageEventName(line)
		logger.Warn("malformed request", "event", eventName, "error", err)
		s.write(logger, conn, protocol.TransportError(eventName, err))
		return
	}
	eventName = string(event.Type)

	result, err := s.dispatcher.Dispatch(event)
	if err != nil {
		var handlerErr *dispatch.HandlerError
		if errors.As(err, &handlerErr) {
			logger.Error("handler chain aborted", "event", eventName, "handler", handlerErr.HandlerID, "error", err)
		} else {
			logger.Error("dispatch failed", "event", eventName, "error", err)
		}
		s.write(logger, conn, protocol.InternalError(event.Type, err))
		return
	}

	response, err := protocol.Encode(event.Type, result)
	if err != nil {
		logger.Error("encoding response failed", "event", eventName, "error", err)
		s.write(logger, conn, protocol.TransportError(eventName, err))
		return
	}

	s.write(logger, conn, response)
	logger.Debug("request served",
		"event", eventName,
		"decision", result.Decision.String(),
		"terminal_handler", result.HandlerID,
		"context_lines", len(result.Context),
		"duration", time.Since(started),
	)
}

var (
	errEmptyRequest    = errors.New("empty request")
	errRequestTooLarge = errors.New("request too large")
)

// readRequest reads one newline-terminated document. A document
// without a newline is accepted when the client half-closes or closes
// after writing it. On error the bytes read so far are returned for
// event-name salvage.
func (s *Server) readRequest(conn net.Conn) ([]byte, error) {
	// One byte over the limit distinguishes "exactly at the limit" from
	// "over it".
	reader := bufio.NewReader(io.LimitReader(conn, int64(s.maxRequestSize)+1))
	line, err := reader.ReadBytes('\n')
	if len(line) > s.maxRequestSize {
		return line[:s.maxRequestSize], fmt.Errorf("%w: exceeds %d bytes", errRequestTooLarge, s.maxRequestSize)
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil, errEmptyRequest
			}
			return line, nil
		}
		return line, fmt.Errorf("reading request: %w", err)
	}
	return line[:len(line)-1], nil
}

// write sends data plus a newline. A client that hung up is logged at
// debug; the connection is closing regardless.
func (s *Server) write(logger *slog.Logger, conn net.Conn, data []byte) {
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	framed := make([]byte, 0, len(data)+1)
	framed = append(append(framed, data...), '\n')
	if _, err := conn.Write(framed); err != nil {
		if netutil.IsExpectedCloseError(err) {
			logger.Debug("client went away before the response", "error", err)
			return
		}
		logger.Warn("writing response failed", "error", err)
	}
}
