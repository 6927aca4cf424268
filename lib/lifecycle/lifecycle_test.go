// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/hookd/lib/clock"
	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/hook"
	"github.com/bureau-foundation/hookd/lib/identity"
	"github.com/bureau-foundation/hookd/lib/pidfile"
	"github.com/bureau-foundation/hookd/lib/protocol"
	"github.com/bureau-foundation/hookd/lib/testutil"
)

type allowAll struct{}

func (allowAll) Dispatch(hook.Event) (hook.Result, error) {
	return hook.Result{Context: []string{"served"}}, nil
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// testIdentity resolves an identity with its runtime files in a short
// temporary directory.
func testIdentity(t *testing.T) identity.Identity {
	t.Helper()
	id, err := identity.Resolve(testutil.ProjectDir(t), "testhost", identity.Environment{
		RuntimeDir: testutil.SocketDir(t),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return id
}

func testConfig(idleSeconds int) *config.Config {
	cfg := config.Default()
	cfg.Daemon.IdleTimeoutSeconds = idleSeconds
	cfg.Daemon.WatchConfig = false
	return cfg
}

func newDaemon(t *testing.T, id identity.Identity, cfg *config.Config, clk clock.Clock) *Daemon {
	t.Helper()
	daemon, err := New(Options{Identity: id, Config: cfg, Dispatcher: allowAll{}, Clock: clk})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return daemon
}

// serve runs Serve in the background and returns its result channel.
// The daemon is stopped at cleanup if it is still running.
func serve(t *testing.T, daemon *Daemon) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- daemon.Serve(context.Background()) }()
	t.Cleanup(daemon.Stop)
	return done
}

// exchange sends one PreToolUse request and returns the response line.
func exchange(t *testing.T, socketPath string) string {
	t.Helper()
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	request, err := protocol.EncodeRequest("PreToolUse", []byte(`{"tool_name":"Bash"}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Write(request); err != nil {
		t.Fatalf("write: %v", err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return line
}

func requireGone(t *testing.T, paths ...string) {
	t.Helper()
	for _, path := range paths {
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("%s still exists (stat error %v)", path, err)
		}
	}
}

func TestIdleShutdown(t *testing.T) {
	id := testIdentity(t)
	clk := clock.Fake(epoch)
	daemon := newDaemon(t, id, testConfig(600), clk)

	if err := daemon.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if daemon.State() != Running {
		t.Fatalf("state after Start = %s", daemon.State())
	}
	for _, path := range []string{id.SocketPath, id.PIDPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s missing while running: %v", path, err)
		}
	}
	if pid, err := pidfile.Read(id.PIDPath); err != nil || pid != os.Getpid() {
		t.Errorf("PID file = %d, %v; want %d", pid, err, os.Getpid())
	}
	info, err := os.Stat(id.SocketPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("socket permissions = %o, want 600", perm)
	}

	done := serve(t, daemon)
	clk.WaitForTimers(1)
	clk.Advance(601 * time.Second)

	if err := testutil.RequireReceive(t, done, 5*time.Second, "idle shutdown"); err != nil {
		t.Fatalf("Serve = %v", err)
	}
	if !errors.Is(daemon.Cause(), ErrIdle) {
		t.Errorf("Cause = %v, want ErrIdle", daemon.Cause())
	}
	if daemon.State() != Stopped {
		t.Errorf("state = %s, want stopped", daemon.State())
	}
	requireGone(t, id.SocketPath, id.PIDPath)

	lock, err := pidfile.AcquireLock(id.LockPath)
	if err != nil {
		t.Fatalf("lock not released: %v", err)
	}
	lock.Release()
}

func TestActivityPostponesIdleShutdown(t *testing.T) {
	id := testIdentity(t)
	clk := clock.Fake(epoch)
	daemon := newDaemon(t, id, testConfig(600), clk)
	if err := daemon.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := serve(t, daemon)
	clk.WaitForTimers(1)

	// Each request lands less than 600s after the previous one, so no
	// tick can observe an expired timeout whichever order the monitor
	// and the request run in.
	for range 3 {
		clk.Advance(599 * time.Second)
		if response := exchange(t, id.SocketPath); response == "" {
			t.Fatal("empty response")
		}
		if got := daemon.LastActivity(); !got.Equal(clk.Now()) {
			t.Errorf("LastActivity = %v, want %v", got, clk.Now())
		}
	}
	select {
	case err := <-done:
		t.Fatalf("daemon exited early: %v (cause %v)", err, daemon.Cause())
	default:
	}

	clk.Advance(600 * time.Second)
	if err := testutil.RequireReceive(t, done, 5*time.Second, "idle shutdown"); err != nil {
		t.Fatalf("Serve = %v", err)
	}
	if !errors.Is(daemon.Cause(), ErrIdle) {
		t.Errorf("Cause = %v, want ErrIdle", daemon.Cause())
	}
}

func TestStop(t *testing.T) {
	id := testIdentity(t)
	daemon := newDaemon(t, id, testConfig(600), clock.Fake(epoch))
	if err := daemon.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := serve(t, daemon)

	if response := exchange(t, id.SocketPath); response == "" {
		t.Fatal("empty response")
	}

	daemon.Stop()
	daemon.Stop()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "stop"); err != nil {
		t.Fatalf("Serve = %v", err)
	}
	if !errors.Is(daemon.Cause(), ErrStopRequested) {
		t.Errorf("Cause = %v, want ErrStopRequested", daemon.Cause())
	}
	requireGone(t, id.SocketPath, id.PIDPath)

	if err := daemon.Start(); err == nil {
		t.Error("a stopped daemon restarted; Start must be used once")
		daemon.Stop()
	}
}

func TestContextCancellation(t *testing.T) {
	id := testIdentity(t)
	daemon := newDaemon(t, id, testConfig(600), clock.Fake(epoch))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- daemon.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for daemon.State() != Running {
		if time.Now().After(deadline) {
			t.Fatal("daemon never reached running")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := testutil.RequireReceive(t, done, 5*time.Second, "cancellation"); err != nil {
		t.Fatalf("Run = %v", err)
	}
	if !errors.Is(daemon.Cause(), context.Canceled) {
		t.Errorf("Cause = %v, want context.Canceled", daemon.Cause())
	}
	requireGone(t, id.SocketPath, id.PIDPath)
}

func TestSecondDaemonFails(t *testing.T) {
	id := testIdentity(t)
	first := newDaemon(t, id, testConfig(600), clock.Fake(epoch))
	if err := first.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	done := serve(t, first)

	second := newDaemon(t, id, testConfig(600), clock.Fake(epoch))
	if err := second.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start = %v, want ErrAlreadyRunning", err)
	}
	if second.State() != Stopped {
		t.Errorf("second daemon state = %s", second.State())
	}

	// The loser must not disturb the winner's files.
	if response := exchange(t, id.SocketPath); response == "" {
		t.Fatal("empty response from first daemon")
	}
	if pid, err := pidfile.Read(id.PIDPath); err != nil || pid != os.Getpid() {
		t.Errorf("PID file = %d, %v", pid, err)
	}

	first.Stop()
	testutil.RequireReceive(t, done, 5*time.Second, "first daemon stop")
}

func TestLivePIDFileBlocksStart(t *testing.T) {
	id := testIdentity(t)
	if err := os.MkdirAll(id.RuntimeDir, 0o700); err != nil {
		t.Fatal(err)
	}
	// The test binary's parent (go test) is alive and is not us.
	other := os.Getppid()
	if err := pidfile.Write(id.PIDPath, other); err != nil {
		t.Fatal(err)
	}

	daemon := newDaemon(t, id, testConfig(600), clock.Fake(epoch))
	if err := daemon.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Start = %v, want ErrAlreadyRunning", err)
	}
	if pid, err := pidfile.Read(id.PIDPath); err != nil || pid != other {
		t.Errorf("PID file = %d, %v; want it untouched at %d", pid, err, other)
	}
	requireGone(t, id.SocketPath)

	// The lock was released on the failed start.
	lock, err := pidfile.AcquireLock(id.LockPath)
	if err != nil {
		t.Fatalf("lock held after failed start: %v", err)
	}
	lock.Release()
}

func TestStaleFilesAreReplaced(t *testing.T) {
	id := testIdentity(t)
	if err := os.MkdirAll(id.RuntimeDir, 0o700); err != nil {
		t.Fatal(err)
	}
	// PIDs above the kernel's pid_max never exist.
	if err := os.WriteFile(id.PIDPath, []byte(strconv.Itoa(1<<30)+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(id.SocketPath, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	daemon := newDaemon(t, id, testConfig(600), clock.Fake(epoch))
	if err := daemon.Start(); err != nil {
		t.Fatalf("Start over stale files: %v", err)
	}
	done := serve(t, daemon)
	if response := exchange(t, id.SocketPath); response == "" {
		t.Fatal("empty response")
	}
	daemon.Stop()
	testutil.RequireReceive(t, done, 5*time.Second, "stop")
}

func TestLockHeldBlocksStart(t *testing.T) {
	id := testIdentity(t)
	if err := os.MkdirAll(id.RuntimeDir, 0o700); err != nil {
		t.Fatal(err)
	}
	lock, err := pidfile.AcquireLock(id.LockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	daemon := newDaemon(t, id, testConfig(600), clock.Fake(epoch))
	if err := daemon.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Start = %v, want ErrAlreadyRunning", err)
	}
	requireGone(t, id.SocketPath, id.PIDPath)
}

func TestConcurrentStarts(t *testing.T) {
	id := testIdentity(t)
	const attempts = 16

	daemons := make([]*Daemon, attempts)
	errs := make([]error, attempts)
	for i := range daemons {
		daemons[i] = newDaemon(t, id, testConfig(600), clock.Fake(epoch))
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range daemons {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = daemons[i].Start()
		}()
	}
	close(start)
	wg.Wait()

	var winner *Daemon
	for i, err := range errs {
		switch {
		case err == nil:
			if winner != nil {
				t.Fatalf("two daemons started")
			}
			winner = daemons[i]
		case !errors.Is(err, ErrAlreadyRunning):
			t.Errorf("attempt %d: %v", i, err)
		}
	}
	if winner == nil {
		t.Fatal("no daemon started")
	}
	done := serve(t, winner)
	for range attempts {
		if response := exchange(t, id.SocketPath); response == "" {
			t.Fatal("empty response")
		}
	}
	winner.Stop()
	testutil.RequireReceive(t, done, 5*time.Second, "stop")
}

func TestConfigChangeStopsDaemon(t *testing.T) {
	id := testIdentity(t)
	configPath := filepath.Join(id.ProjectRoot, config.Directory, "config.yaml")
	testutil.WriteFile(t, configPath, "daemon:\n  idle_timeout_seconds: 600\n")

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Daemon.WatchConfig {
		t.Fatal("watch_config should default to true")
	}
	daemon := newDaemon(t, id, cfg, clock.Fake(epoch))
	if err := daemon.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := serve(t, daemon)

	testutil.WriteFile(t, configPath, "daemon:\n  idle_timeout_seconds: 60\n")
	if err := testutil.RequireReceive(t, done, 10*time.Second, "config change shutdown"); err != nil {
		t.Fatalf("Serve = %v", err)
	}
	if !errors.Is(daemon.Cause(), ErrConfigChanged) {
		t.Errorf("Cause = %v, want ErrConfigChanged", daemon.Cause())
	}
	requireGone(t, id.SocketPath, id.PIDPath)
}

func TestConfigCreationStopsDefaultDaemon(t *testing.T) {
	id := testIdentity(t)
	cfg := config.Default()
	daemon := newDaemon(t, id, cfg, clock.Fake(epoch))
	if err := daemon.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := serve(t, daemon)

	testutil.WriteFile(t, filepath.Join(id.ProjectRoot, config.Directory, "config.yaml"), "handlers: {}\n")
	testutil.RequireReceive(t, done, 10*time.Second, "config creation shutdown")
	if !errors.Is(daemon.Cause(), ErrConfigChanged) {
		t.Errorf("Cause = %v, want ErrConfigChanged", daemon.Cause())
	}
}

func TestNewRejectsIncompleteOptions(t *testing.T) {
	id := testIdentity(t)
	for name, options := range map[string]Options{
		"no config":     {Identity: id, Dispatcher: allowAll{}},
		"no dispatcher": {Identity: id, Config: testConfig(600)},
		"no paths":      {Config: testConfig(600), Dispatcher: allowAll{}},
		"zero idle":     {Identity: id, Config: testConfig(0), Dispatcher: allowAll{}},
	} {
		if _, err := New(options); err == nil {
			t.Errorf("%s: New succeeded", name)
		}
	}
}
