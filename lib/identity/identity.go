// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/hookd/lib/clock"
)

const (
	// MaxSocketPathLength is the longest socket path that fits in
	// sun_path (108 bytes) with its NUL terminator.
	MaxSocketPathLength = 107

	// RunSubdirectory is the runtime directory relative to the project
	// root when no override applies.
	RunSubdirectory = ".hookd/run"

	// hashPrefixLength is the number of hex characters of the project
	// root hash used to name the fallback runtime directory.
	hashPrefixLength = 16

	// hostHashLength is the number of hex characters used for a
	// synthesized hostname.
	hostHashLength = 12
)

// Identity is the set of paths that identify one daemon. It is
// computed once per process and never changes.
type Identity struct {
	ProjectRoot string
	Hostname    string
	RuntimeDir  string
	SocketPath  string
	PIDPath     string
	LockPath    string
	LogPath     string
}

// Environment carries the process facts [Resolve] depends on, so that
// resolution stays pure and testable.
type Environment struct {
	// Clock supplies the timestamp hashed into a hostname when the
	// system reports none. Nil uses the real clock.
	Clock clock.Clock

	// XDGRuntimeDir is $XDG_RUNTIME_DIR, or "".
	XDGRuntimeDir string

	// Home is the user's home directory, or "".
	Home string

	// RuntimeDir overrides the runtime directory (daemon.runtime_dir).
	// Relative paths are resolved against the project root.
	RuntimeDir string
}

// Domain keys for BLAKE3 keyed hashing, ASCII zero-padded to 32 bytes.
var (
	rootDomainKey = [32]byte{
		'h', 'o', 'o', 'k', 'd', '.', 'i', 'd', 'e', 'n', 't', 'i', 't', 'y', '.',
		'r', 'o', 'o', 't',
	}
	hostDomainKey = [32]byte{
		'h', 'o', 'o', 'k', 'd', '.', 'i', 'd', 'e', 'n', 't', 'i', 't', 'y', '.',
		'h', 'o', 's', 't',
	}
)

// Resolve computes the identity for projectRoot on hostname. The
// project root must be absolute.
//
// An empty hostname (after normalization) is replaced by a hash of the
// current time. Two processes that both hit this case resolve
// different identities and can start two daemons for one project; the
// alternative, a fixed placeholder, would make every hostless machine
// sharing the directory collide on one socket.
func Resolve(projectRoot, hostname string, env Environment) (Identity, error) {
	if !filepath.IsAbs(projectRoot) {
		return Identity{}, fmt.Errorf("project root %q is not absolute", projectRoot)
	}
	projectRoot = filepath.Clean(projectRoot)

	host := NormalizeHostname(hostname)
	if host == "" {
		now := env.Clock
		if now == nil {
			now = clock.Real()
		}
		timestamp := now.Now().UTC().Format("2006-01-02T15:04:05.000000000Z")
		host = "host-" + keyedHex(hostDomainKey, timestamp, hostHashLength)
	}

	runtimeDir := filepath.Join(projectRoot, filepath.FromSlash(RunSubdirectory))
	if env.RuntimeDir != "" {
		runtimeDir = env.RuntimeDir
		if !filepath.IsAbs(runtimeDir) {
			runtimeDir = filepath.Join(projectRoot, runtimeDir)
		}
		runtimeDir = filepath.Clean(runtimeDir)
	}

	if len(socketPath(runtimeDir, host)) > MaxSocketPathLength {
		fallback, err := fallbackRuntimeDir(projectRoot, env)
		if err != nil {
			return Identity{}, err
		}
		runtimeDir = fallback
	}
	if socket := socketPath(runtimeDir, host); len(socket) > MaxSocketPathLength {
		return Identity{}, fmt.Errorf("socket path %q is %d bytes, exceeds the unix socket limit of %d",
			socket, len(socket), MaxSocketPathLength)
	}

	base := filepath.Join(runtimeDir, "daemon-"+host)
	return Identity{
		ProjectRoot: projectRoot,
		Hostname:    host,
		RuntimeDir:  runtimeDir,
		SocketPath:  base + ".sock",
		PIDPath:     base + ".pid",
		LockPath:    base + ".lock",
		LogPath:     base + ".log",
	}, nil
}

// NormalizeHostname lowercases hostname, trims it, and replaces spaces
// with '-'. Path separators are replaced too, since the hostname
// becomes part of a filename.
func NormalizeHostname(hostname string) string {
	host := strings.ToLower(strings.TrimSpace(hostname))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '/', '\\':
			return '-'
		}
		return r
	}, host)
}

func socketPath(runtimeDir, host string) string {
	return filepath.Join(runtimeDir, "daemon-"+host+".sock")
}

func fallbackRuntimeDir(projectRoot string, env Environment) (string, error) {
	base := env.XDGRuntimeDir
	if base == "" {
		if env.Home == "" {
			return "", errors.New("socket path too long and neither XDG_RUNTIME_DIR nor a home directory is available for a shorter one")
		}
		base = filepath.Join(env.Home, ".cache")
	}
	return filepath.Join(base, "hookd", keyedHex(rootDomainKey, projectRoot, hashPrefixLength)), nil
}

func keyedHex(key [32]byte, input string, length int) string {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("identity: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(input))
	return hex.EncodeToString(hasher.Sum(nil))[:length]
}

// EnsureRuntimeDir creates the runtime directory with mode 0700. An
// existing directory has its mode tightened to 0700.
func (i Identity) EnsureRuntimeDir() error {
	if err := os.MkdirAll(i.RuntimeDir, 0o700); err != nil {
		return fmt.Errorf("creating runtime directory: %w", err)
	}
	if err := os.Chmod(i.RuntimeDir, 0o700); err != nil {
		return fmt.Errorf("restricting runtime directory: %w", err)
	}
	return nil
}
