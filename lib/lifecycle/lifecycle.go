// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/hookd/lib/clock"
	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/identity"
	"github.com/bureau-foundation/hookd/lib/pidfile"
	"github.com/bureau-foundation/hookd/lib/server"
)

// ErrAlreadyRunning is returned by [Daemon.Start] when another daemon
// already serves this identity.
var ErrAlreadyRunning = errors.New("hookd daemon already running")

// Shutdown causes. [Daemon.Serve] returns nil for all of them; they
// are reported by [Daemon.Cause].
var (
	ErrIdle          = errors.New("idle timeout expired")
	ErrStopRequested = errors.New("stop requested")
	ErrConfigChanged = errors.New("configuration changed")
)

const (
	// DefaultTerminateGrace is how long a competing daemon gets to exit
	// after SIGTERM before it is killed.
	DefaultTerminateGrace = 5 * time.Second

	// maxIdleCheckInterval bounds how late an idle expiry is noticed.
	maxIdleCheckInterval = time.Second
)

// Options configures a [Daemon].
type Options struct {
	Identity   identity.Identity
	Config     *config.Config
	Dispatcher server.Dispatcher

	// Clock defaults to [clock.Real].
	Clock  clock.Clock
	Logger *slog.Logger

	// IsDaemon reports whether a process command line belongs to a
	// hookd daemon for this identity. It decides which processes
	// enforce_single_daemon_process terminates, and whether a live PID
	// recorded in the PID file is a daemon or a reused PID. When nil,
	// any live recorded PID counts as a daemon and no process scan is
	// made.
	IsDaemon func(argv []string) bool

	// TerminateGrace defaults to [DefaultTerminateGrace].
	TerminateGrace time.Duration

	// IdleCheckInterval defaults to the idle timeout, capped at one
	// second.
	IdleCheckInterval time.Duration

	// Server carries timeouts and limits for the socket server. Its
	// Logger and OnActivity are set by the daemon.
	Server server.Options
}

// Daemon is one daemon process's lifecycle. Start may be called at
// most once, successful or not.
type Daemon struct {
	identity       identity.Identity
	config         *config.Config
	server         *server.Server
	clock          clock.Clock
	logger         *slog.Logger
	isDaemon       func([]string) bool
	terminateGrace time.Duration
	idleTimeout    time.Duration
	checkInterval  time.Duration
	pid            int

	started      atomic.Bool
	state        atomic.Int32
	lastActivity atomic.Int64

	// Set by Start, released by teardown.
	lock     *pidfile.Lock
	listener net.Listener
	watcher  *configWatcher

	stopOnce sync.Once
	stop     chan struct{}

	causeMu sync.Mutex
	cause   error
}

// New validates options and returns a stopped daemon.
func New(options Options) (*Daemon, error) {
	if options.Config == nil {
		return nil, errors.New("lifecycle: no configuration")
	}
	if options.Dispatcher == nil {
		return nil, errors.New("lifecycle: no dispatcher")
	}
	if options.Identity.SocketPath == "" || options.Identity.PIDPath == "" || options.Identity.LockPath == "" {
		return nil, errors.New("lifecycle: identity has no runtime paths")
	}
	idleTimeout := options.Config.Daemon.IdleTimeout()
	if idleTimeout <= 0 {
		return nil, fmt.Errorf("lifecycle: idle timeout must be positive, got %s", idleTimeout)
	}

	d := &Daemon{
		identity:       options.Identity,
		config:         options.Config,
		clock:          options.Clock,
		logger:         options.Logger,
		isDaemon:       options.IsDaemon,
		terminateGrace: options.TerminateGrace,
		idleTimeout:    idleTimeout,
		checkInterval:  options.IdleCheckInterval,
		pid:            os.Getpid(),
		stop:           make(chan struct{}),
	}
	if d.clock == nil {
		d.clock = clock.Real()
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	if d.terminateGrace <= 0 {
		d.terminateGrace = DefaultTerminateGrace
	}
	if d.checkInterval <= 0 {
		d.checkInterval = min(idleTimeout, maxIdleCheckInterval)
	}

	serverOptions := options.Server
	serverOptions.Logger = d.logger
	serverOptions.OnActivity = d.Touch
	d.server = server.New(options.Dispatcher, serverOptions)
	return d, nil
}

// State returns the current lifecycle state.
func (d *Daemon) State() State { return State(d.state.Load()) }

// Touch records activity now, postponing idle shutdown.
func (d *Daemon) Touch() { d.lastActivity.Store(d.clock.Now().UnixNano()) }

// LastActivity returns the time of the most recent request.
func (d *Daemon) LastActivity() time.Time { return time.Unix(0, d.lastActivity.Load()) }

// Cause returns why the daemon stopped, or nil while it has not.
func (d *Daemon) Cause() error {
	d.causeMu.Lock()
	defer d.causeMu.Unlock()
	return d.cause
}

// Start claims the identity and binds the socket. On success the
// daemon is Running and [Daemon.Serve] must be called. On failure
// nothing is left behind and the daemon is Stopped.
func (d *Daemon) Start() (err error) {
	if d.started.Swap(true) {
		return errors.New("lifecycle: a daemon is started at most once")
	}
	if !d.state.CompareAndSwap(int32(Stopped), int32(Starting)) {
		return fmt.Errorf("lifecycle: cannot start a daemon in state %s", d.State())
	}
	defer func() {
		if err != nil {
			d.release()
			d.state.Store(int32(Stopped))
		}
	}()

	if err := d.identity.EnsureRuntimeDir(); err != nil {
		return err
	}
	if err := d.claim(); err != nil {
		return err
	}

	if err := os.Remove(d.identity.SocketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale socket %s: %w", d.identity.SocketPath, err)
	}
	listener, err := net.Listen("unix", d.identity.SocketPath)
	if err != nil {
		if errors.Is(err, unix.EADDRINUSE) {
			return fmt.Errorf("%w: %s is in use", ErrAlreadyRunning, d.identity.SocketPath)
		}
		return fmt.Errorf("listening on %s: %w", d.identity.SocketPath, err)
	}
	d.listener = listener
	if err := os.Chmod(d.identity.SocketPath, 0o600); err != nil {
		return fmt.Errorf("restricting socket permissions: %w", err)
	}

	if err := pidfile.Write(d.identity.PIDPath, d.pid); err != nil {
		return err
	}

	if d.config.Daemon.WatchConfig {
		watcher, err := newConfigWatcher(d.identity.ProjectRoot, d.config.Source)
		if err != nil {
			// The daemon still works without the watcher; configuration
			// changes take effect at the next idle restart.
			d.logger.Warn("configuration watch unavailable", "error", err)
		} else {
			d.watcher = watcher
		}
	}

	d.Touch()
	d.state.Store(int32(Running))
	d.logger.Info("daemon started",
		"pid", d.pid,
		"socket", d.identity.SocketPath,
		"idle_timeout", d.idleTimeout,
		"config", configSource(d.config),
	)
	return nil
}

// claim takes the single-instance lock and checks the PID file,
// terminating competing daemons first when the configuration enforces
// a single daemon process.
func (d *Daemon) claim() error {
	enforce := d.config.Daemon.EnforceSingleDaemonProcess

	lock, err := pidfile.AcquireLock(d.identity.LockPath)
	if errors.Is(err, pidfile.ErrLocked) && enforce {
		d.terminateCompetitors()
		lock, err = pidfile.AcquireLock(d.identity.LockPath)
	}
	if errors.Is(err, pidfile.ErrLocked) {
		return fmt.Errorf("%w: %s is locked", ErrAlreadyRunning, d.identity.LockPath)
	}
	if err != nil {
		return err
	}
	d.lock = lock

	pid, alive, err := pidfile.Live(d.identity.PIDPath)
	if err != nil {
		return err
	}
	if !alive || pid == d.pid {
		return nil
	}
	if !d.recordedDaemon(pid) {
		d.logger.Info("ignoring PID file naming a non-daemon process", "pid", pid)
		return nil
	}
	if !enforce {
		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, pid)
	}
	d.terminateCompetitors()
	return nil
}

// recordedDaemon reports whether the live pid from the PID file is a
// hookd daemon rather than an unrelated process that reused the PID.
func (d *Daemon) recordedDaemon(pid int) bool {
	if d.isDaemon == nil {
		return true
	}
	pids, err := pidfile.FindProcesses(d.isDaemon)
	if err != nil {
		// Without a process table, assume the worst.
		return true
	}
	for _, candidate := range pids {
		if candidate == pid {
			return true
		}
	}
	return false
}

// terminateCompetitors stops the daemon recorded in the PID file and
// every other process IsDaemon claims.
func (d *Daemon) terminateCompetitors() {
	targets := make(map[int]bool)
	if pid, alive, err := pidfile.Live(d.identity.PIDPath); err == nil && alive && pid != d.pid {
		targets[pid] = true
	}
	if d.isDaemon != nil {
		pids, err := pidfile.FindProcesses(d.isDaemon)
		if err != nil {
			d.logger.Warn("scanning for competing daemons", "error", err)
		}
		for _, pid := range pids {
			if pid != d.pid {
				targets[pid] = true
			}
		}
	}

	for pid := range targets {
		d.logger.Warn("terminating competing daemon", "pid", pid, "grace", d.terminateGrace)
		if err := pidfile.Terminate(d.clock, pid, d.terminateGrace); err != nil {
			d.logger.Error("terminating competing daemon failed", "pid", pid, "error", err)
		}
	}
}

// Serve runs the accept loop, the idle monitor, and the configuration
// watcher until one of them ends the daemon, [Daemon.Stop] is called,
// or ctx is cancelled. It then tears down and returns. Serve returns
// nil for every orderly shutdown; [Daemon.Cause] says which one.
func (d *Daemon) Serve(ctx context.Context) error {
	if d.State() != Running {
		return fmt.Errorf("lifecycle: cannot serve a daemon in state %s", d.State())
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := d.server.Serve(groupCtx, d.listener)
		if err == nil && groupCtx.Err() == nil {
			err = errors.New("listener closed unexpectedly")
		}
		return err
	})
	group.Go(func() error { return d.monitorIdle(groupCtx) })
	group.Go(func() error {
		select {
		case <-d.stop:
			return ErrStopRequested
		case <-groupCtx.Done():
			return nil
		}
	})
	if d.watcher != nil {
		group.Go(func() error { return d.watcher.run(groupCtx, d.logger) })
	}

	err := group.Wait()
	if err == nil {
		err = context.Cause(ctx)
	}

	d.state.Store(int32(Stopping))
	d.setCause(err)
	d.logger.Info("daemon stopping", "reason", err)
	d.release()
	d.state.Store(int32(Stopped))
	d.logger.Info("daemon stopped")

	if isOrderly(err) {
		return nil
	}
	return err
}

// Run is Start followed by Serve.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	return d.Serve(ctx)
}

// Stop asks a serving daemon to shut down. It does not wait; Serve
// returns once teardown is complete. Stop is safe to call more than
// once and from any goroutine.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// monitorIdle ends the daemon once no request has arrived for the idle
// timeout.
func (d *Daemon) monitorIdle(ctx context.Context) error {
	ticker := d.clock.NewTicker(d.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			idle := d.clock.Now().Sub(d.LastActivity())
			if idle >= d.idleTimeout {
				d.logger.Info("idle timeout expired", "idle", idle, "timeout", d.idleTimeout)
				return ErrIdle
			}
		}
	}
}

// release closes the listener and removes everything Start created.
// Each step tolerates the resource never having been created.
func (d *Daemon) release() {
	if d.watcher != nil {
		d.watcher.close()
		d.watcher = nil
	}
	if d.listener != nil {
		d.listener.Close()
		d.listener = nil
		if err := os.Remove(d.identity.SocketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			d.logger.Warn("removing socket", "path", d.identity.SocketPath, "error", err)
		}
	}
	if d.lock != nil {
		if err := pidfile.Remove(d.identity.PIDPath, d.pid); err != nil {
			d.logger.Warn("removing PID file", "path", d.identity.PIDPath, "error", err)
		}
		if err := d.lock.Release(); err != nil {
			d.logger.Warn("releasing lock", "error", err)
		}
		d.lock = nil
	}
}

func (d *Daemon) setCause(err error) {
	d.causeMu.Lock()
	defer d.causeMu.Unlock()
	d.cause = err
}

func isOrderly(err error) bool {
	return err == nil ||
		errors.Is(err, ErrIdle) ||
		errors.Is(err, ErrStopRequested) ||
		errors.Is(err, ErrConfigChanged) ||
		errors.Is(err, context.Canceled)
}

func configSource(cfg *config.Config) string {
	if cfg.Source == "" {
		return "default"
	}
	return cfg.Source
}
