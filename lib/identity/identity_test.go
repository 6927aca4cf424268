// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/hookd/lib/clock"
)

func TestResolveLayout(t *testing.T) {
	id, err := Resolve("/home/dev/project", "Build Box", Environment{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if id.Hostname != "build-box" {
		t.Errorf("Hostname = %q, want build-box", id.Hostname)
	}
	want := Identity{
		ProjectRoot: "/home/dev/project",
		Hostname:    "build-box",
		RuntimeDir:  "/home/dev/project/.hookd/run",
		SocketPath:  "/home/dev/project/.hookd/run/daemon-build-box.sock",
		PIDPath:     "/home/dev/project/.hookd/run/daemon-build-box.pid",
		LockPath:    "/home/dev/project/.hookd/run/daemon-build-box.lock",
		LogPath:     "/home/dev/project/.hookd/run/daemon-build-box.log",
	}
	if id != want {
		t.Errorf("Resolve =\n%+v\nwant\n%+v", id, want)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	env := Environment{Home: "/home/dev"}
	first, err := Resolve("/srv/repo", "ci", env)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Resolve("/srv/repo/", "ci", env)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("same inputs produced different identities:\n%+v\n%+v", first, second)
	}
}

func TestResolveRejectsRelativeRoot(t *testing.T) {
	if _, err := Resolve("project", "host", Environment{}); err == nil {
		t.Error("expected error for relative project root")
	}
}

func TestResolveEmptyHostname(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	env := Environment{Clock: fake}

	first, err := Resolve("/p", "  ", env)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(first.Hostname, "host-") || len(first.Hostname) != len("host-")+hostHashLength {
		t.Errorf("synthesized hostname = %q", first.Hostname)
	}

	again, _ := Resolve("/p", "", env)
	if again.Hostname != first.Hostname {
		t.Error("synthesized hostname is not a function of the clock")
	}

	fake.Advance(time.Second)
	later, _ := Resolve("/p", "", env)
	if later.Hostname == first.Hostname {
		t.Error("synthesized hostname did not change with the clock")
	}
}

func TestHostnameOverride(t *testing.T) {
	t.Setenv(HostnameEnvVar, "Pinned Host")
	if got := Hostname(); got != "Pinned Host" {
		t.Errorf("Hostname() = %q, want the %s value", got, HostnameEnvVar)
	}

	root := t.TempDir()
	id, err := FromEnvironment(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if id.Hostname != "pinned-host" {
		t.Errorf("identity hostname = %q, want pinned-host", id.Hostname)
	}
}

func TestFromEnvironmentAsReusesSynthesizedHostname(t *testing.T) {
	root := t.TempDir()
	first, err := FromEnvironmentAs(root, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(first.Hostname, "host-") {
		t.Fatalf("hostname = %q, want a synthesized name", first.Hostname)
	}

	// A second process handed the synthesized name resolves the same
	// paths, however much later it runs.
	time.Sleep(time.Millisecond)
	second, err := FromEnvironmentAs(root, "", first.Hostname)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Errorf("identity passed by hostname = %+v, want %+v", second, first)
	}
}

func TestResolveLongPathFallsBack(t *testing.T) {
	deep := "/" + strings.Repeat("very-long-directory-name/", 5) + "project"
	env := Environment{XDGRuntimeDir: "/run/user/1000", Home: "/home/dev"}

	id, err := Resolve(deep, "workstation", env)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(id.RuntimeDir, "/run/user/1000/hookd/") {
		t.Errorf("RuntimeDir = %q, want under XDG_RUNTIME_DIR", id.RuntimeDir)
	}
	if len(filepath.Base(id.RuntimeDir)) != hashPrefixLength {
		t.Errorf("fallback directory name %q is not a %d-char hash", filepath.Base(id.RuntimeDir), hashPrefixLength)
	}
	if len(id.SocketPath) > MaxSocketPathLength {
		t.Errorf("socket path still too long: %d bytes", len(id.SocketPath))
	}
	if id.ProjectRoot != deep {
		t.Errorf("ProjectRoot = %q", id.ProjectRoot)
	}

	other, _ := Resolve(deep+"-two", "workstation", env)
	if other.RuntimeDir == id.RuntimeDir {
		t.Error("different project roots share a fallback runtime directory")
	}

	env.XDGRuntimeDir = ""
	id, err = Resolve(deep, "workstation", env)
	if err != nil {
		t.Fatalf("Resolve without XDG: %v", err)
	}
	if !strings.HasPrefix(id.RuntimeDir, "/home/dev/.cache/hookd/") {
		t.Errorf("RuntimeDir = %q, want under ~/.cache", id.RuntimeDir)
	}

	if _, err := Resolve(deep, "workstation", Environment{}); err == nil {
		t.Error("expected error with nowhere to fall back to")
	}
}

func TestResolveRuntimeDirOverride(t *testing.T) {
	id, err := Resolve("/repo", "h", Environment{RuntimeDir: "/var/run/hookd"})
	if err != nil {
		t.Fatal(err)
	}
	if id.SocketPath != "/var/run/hookd/daemon-h.sock" {
		t.Errorf("SocketPath = %q", id.SocketPath)
	}

	id, err = Resolve("/repo", "h", Environment{RuntimeDir: "tmp/run"})
	if err != nil {
		t.Fatal(err)
	}
	if id.RuntimeDir != "/repo/tmp/run" {
		t.Errorf("relative override resolved to %q", id.RuntimeDir)
	}
}

func TestNormalizeHostname(t *testing.T) {
	tests := map[string]string{
		"Laptop":          "laptop",
		"My Mac Book Pro": "my-mac-book-pro",
		" padded ":        "padded",
		"a/b":             "a-b",
		"":                "",
	}
	for input, want := range tests {
		if got := NormalizeHostname(input); got != want {
			t.Errorf("NormalizeHostname(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "pkg", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	if got != root {
		t.Errorf("FindProjectRoot = %q, want %q", got, root)
	}

	// A nearer .hookd directory wins over the outer .git.
	inner := filepath.Join(root, "src")
	if err := os.Mkdir(filepath.Join(inner, ".hookd"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, _ = FindProjectRoot(nested)
	if got != inner {
		t.Errorf("FindProjectRoot = %q, want %q", got, inner)
	}
}

func TestEnsureRuntimeDir(t *testing.T) {
	root := t.TempDir()
	id, err := Resolve(root, "h", Environment{})
	if err != nil {
		t.Fatal(err)
	}
	if err := id.EnsureRuntimeDir(); err != nil {
		t.Fatalf("EnsureRuntimeDir: %v", err)
	}
	info, err := os.Stat(id.RuntimeDir)
	if err != nil {
		t.Fatal(err)
	}
	if mode := info.Mode().Perm(); mode != 0o700 {
		t.Errorf("runtime dir mode = %o, want 700", mode)
	}
}
