// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/hookd/lib/clock"
)

// projectMarkers identify a project root, checked in order at each
// directory level.
var projectMarkers = []string{".hookd", ".git"}

// HostnameEnvVar overrides the machine's hostname in the identity.
// Set it on hosts whose hostname is empty so that every hookd process
// agrees on one daemon.
const HostnameEnvVar = "HOOKD_HOSTNAME"

// Hostname returns $HOOKD_HOSTNAME, else the machine's hostname. A
// failed lookup returns "", which [Resolve] replaces with a synthesized
// name.
func Hostname() string {
	if hostname := os.Getenv(HostnameEnvVar); hostname != "" {
		return hostname
	}
	hostname, _ := os.Hostname()
	return hostname
}

// FromEnvironment resolves the identity for projectRoot using
// [Hostname], XDG_RUNTIME_DIR, and the home directory.
// runtimeDirOverride is daemon.runtime_dir and may be empty.
func FromEnvironment(projectRoot, runtimeDirOverride string) (Identity, error) {
	return FromEnvironmentAs(projectRoot, runtimeDirOverride, Hostname())
}

// FromEnvironmentAs is [FromEnvironment] with the hostname supplied by
// the caller. A daemon started by a forwarder uses the forwarder's
// hostname so both land on the same socket even when the name was
// synthesized.
func FromEnvironmentAs(projectRoot, runtimeDirOverride, hostname string) (Identity, error) {
	absolute, err := filepath.Abs(projectRoot)
	if err != nil {
		return Identity{}, fmt.Errorf("resolving project root: %w", err)
	}

	home, _ := os.UserHomeDir()
	return Resolve(absolute, hostname, Environment{
		Clock:         clock.Real(),
		XDGRuntimeDir: os.Getenv("XDG_RUNTIME_DIR"),
		Home:          home,
		RuntimeDir:    runtimeDirOverride,
	})
}

// FindProjectRoot walks upward from start to the first directory that
// contains .hookd or .git (directory or file, so git worktrees count).
// When no ancestor has a marker, the absolute start directory is
// returned.
func FindProjectRoot(start string) (string, error) {
	absolute, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	for directory := absolute; ; {
		for _, marker := range projectMarkers {
			_, err := os.Stat(filepath.Join(directory, marker))
			if err == nil {
				return directory, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("checking %s: %w", filepath.Join(directory, marker), err)
			}
		}
		parent := filepath.Dir(directory)
		if parent == directory {
			return absolute, nil
		}
		directory = parent
	}
}
