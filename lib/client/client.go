// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/bureau-foundation/hookd/lib/clock"
	"github.com/bureau-foundation/hookd/lib/lifecycle"
	"github.com/bureau-foundation/hookd/lib/netutil"
	"github.com/bureau-foundation/hookd/lib/protocol"
)

// ErrUnavailable is returned by [Client.Send] when no daemon answered
// before the start timeout.
var ErrUnavailable = errors.New("hookd daemon unavailable")

const (
	DefaultStartTimeout    = 5 * time.Second
	DefaultInitialBackoff  = 10 * time.Millisecond
	DefaultMaxBackoff      = 250 * time.Millisecond
	DefaultRestartInterval = time.Second
	DefaultResponseTimeout = 45 * time.Second

	dialTimeout     = 2 * time.Second
	maxResponseSize = 16 << 20
)

// Options configures a [Client]. Zero durations select the defaults.
type Options struct {
	SocketPath string

	// Starter launches a daemon when none is listening. Nil disables
	// lazy start: Send fails when the daemon is not running.
	Starter Starter

	Clock  clock.Clock
	Logger *slog.Logger

	// StartTimeout bounds how long Send waits for a daemon to come up.
	StartTimeout time.Duration

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// RestartInterval is how often the Starter is invoked again while
	// the daemon stays unreachable. A daemon that was mid-shutdown
	// when the first start ran makes that start lose the lock and exit,
	// so one attempt is not enough.
	RestartInterval time.Duration

	// ResponseTimeout bounds the wait for a response once connected.
	ResponseTimeout time.Duration
}

// Client sends hook events to a daemon socket.
type Client struct {
	socketPath      string
	starter         Starter
	clock           clock.Clock
	logger          *slog.Logger
	startTimeout    time.Duration
	initialBackoff  time.Duration
	maxBackoff      time.Duration
	restartInterval time.Duration
	responseTimeout time.Duration
}

// New returns a client for options.SocketPath.
func New(options Options) *Client {
	c := &Client{
		socketPath:      options.SocketPath,
		starter:         options.Starter,
		clock:           options.Clock,
		logger:          options.Logger,
		startTimeout:    orDefault(options.StartTimeout, DefaultStartTimeout),
		initialBackoff:  orDefault(options.InitialBackoff, DefaultInitialBackoff),
		maxBackoff:      orDefault(options.MaxBackoff, DefaultMaxBackoff),
		restartInterval: orDefault(options.RestartInterval, DefaultRestartInterval),
		responseTimeout: orDefault(options.ResponseTimeout, DefaultResponseTimeout),
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Send forwards one event and returns the daemon's response document
// without its trailing newline. An empty hookInput is sent as {}.
func (c *Client) Send(ctx context.Context, event string, hookInput json.RawMessage) ([]byte, error) {
	request, err := protocol.EncodeRequest(event, hookInput)
	if err != nil {
		return nil, err
	}

	var response []byte
	err = c.withDaemon(ctx, func() error {
		var err error
		response, err = c.exchange(ctx, request)
		return err
	})
	return response, err
}

// EnsureRunning returns once a daemon accepts connections, starting
// one if needed.
func (c *Client) EnsureRunning(ctx context.Context) error {
	return c.withDaemon(ctx, func() error { return c.Probe(ctx) })
}

// Probe connects to the socket and hangs up without a request. It
// fails when no daemon is listening. The daemon counts the connection
// as activity.
func (c *Client) Probe(ctx context.Context) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.socketPath, err)
	}
	return conn.Close()
}

// withDaemon runs attempt, and when it fails because nothing is
// listening, starts a daemon and retries with backoff until attempt
// succeeds, fails for another reason, or the start timeout passes.
func (c *Client) withDaemon(ctx context.Context, attempt func() error) error {
	err := attempt()
	if err == nil || !netutil.IsNoListener(err) {
		return err
	}
	if c.starter == nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	deadline := c.clock.Now().Add(c.startTimeout)
	backoff := c.initialBackoff
	var lastStart time.Time

	for {
		if now := c.clock.Now(); lastStart.IsZero() || now.Sub(lastStart) >= c.restartInterval {
			lastStart = now
			if err := c.start(ctx); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for daemon: %w", context.Cause(ctx))
		case <-c.clock.After(backoff):
		}
		backoff = min(backoff*2, c.maxBackoff)

		err = attempt()
		if err == nil || !netutil.IsNoListener(err) {
			return err
		}
		if !c.clock.Now().Before(deadline) {
			return fmt.Errorf("%w after %s: %w", ErrUnavailable, c.startTimeout, err)
		}
	}
}

func (c *Client) start(ctx context.Context) error {
	c.logger.Debug("starting daemon", "socket", c.socketPath)
	err := c.starter.Start(ctx)
	if err == nil || errors.Is(err, lifecycle.ErrAlreadyRunning) {
		return nil
	}
	return fmt.Errorf("starting daemon: %w", err)
}

// exchange runs one request/response on a fresh connection.
func (c *Client) exchange(ctx context.Context, request []byte) ([]byte, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetDeadline(time.Now().Add(c.responseTimeout))
	if _, err := conn.Write(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	reader := bufio.NewReader(io.LimitReader(conn, maxResponseSize))
	line, err := reader.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("reading response: %w", context.Cause(ctx))
		}
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	return line, nil
}

func orDefault(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
