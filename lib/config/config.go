// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bureau-foundation/hookd/lib/hook"
)

// Config is the complete hookd configuration.
type Config struct {
	// Daemon configures process lifetime and failure policy.
	Daemon DaemonConfig `yaml:"daemon"`

	// Tags filters handlers globally by tag.
	Tags TagsConfig `yaml:"tags"`

	// Handlers maps event type names to ordered handler lists.
	Handlers map[string]HandlerList `yaml:"handlers"`

	// Source is the file this configuration was loaded from, or ""
	// when it is [Default].
	Source string `yaml:"-"`
}

// DaemonConfig configures the daemon process.
type DaemonConfig struct {
	// IdleTimeoutSeconds is how long the daemon waits without a
	// request before exiting.
	// Default: 600
	IdleTimeoutSeconds int `yaml:"idle_timeout_seconds"`

	// StrictMode aborts a handler chain on the first handler failure
	// and answers with an internal-error response. When false, failed
	// handlers are logged and treated as non-matches.
	// Default: false
	StrictMode bool `yaml:"strict_mode"`

	// EnforceSingleDaemonProcess terminates any other running hookd
	// daemon for this identity at startup instead of deferring to it.
	// Default: false
	EnforceSingleDaemonProcess bool `yaml:"enforce_single_daemon_process"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`

	// WatchConfig makes the daemon exit when its configuration file
	// changes, so the next request starts a daemon with the new
	// configuration.
	// Default: true
	WatchConfig bool `yaml:"watch_config"`

	// RuntimeDir overrides the directory holding the socket, PID,
	// lock, and log files.
	// Default: "" (<project>/.hookd/run)
	RuntimeDir string `yaml:"runtime_dir"`
}

// IdleTimeout returns IdleTimeoutSeconds as a duration.
func (d DaemonConfig) IdleTimeout() time.Duration {
	return time.Duration(d.IdleTimeoutSeconds) * time.Second
}

// TagsConfig holds the global tag filter lists.
type TagsConfig struct {
	// Enable, when non-empty, keeps only handlers carrying at least one
	// of these tags.
	Enable []string `yaml:"enable"`

	// Disable drops every handler carrying any of these tags. Disable
	// wins over Enable.
	Disable []string `yaml:"disable"`
}

// LogLevels lists the accepted daemon.log_level values.
var LogLevels = []string{"debug", "info", "warn", "error"}

// DefaultIdleTimeoutSeconds is the idle timeout when none is configured.
const DefaultIdleTimeoutSeconds = 600

// Default returns the configuration used when no file exists: the
// default daemon settings plus the built-in safety handlers.
func Default() *Config {
	cfg := base()
	cfg.Handlers = map[string]HandlerList{
		string(hook.PreToolUse): {
			{ID: "destructive-git"},
			{ID: "dangerous-rm"},
		},
	}
	return cfg
}

// base is Default without any handlers. Files are decoded on top of it.
func base() *Config {
	return &Config{
		Daemon: DaemonConfig{
			IdleTimeoutSeconds: DefaultIdleTimeoutSeconds,
			LogLevel:           "info",
			WatchConfig:        true,
		},
	}
}

// Chain returns the configured handlers for event in file order.
func (c *Config) Chain(event hook.EventType) HandlerList {
	return c.Handlers[string(event)]
}

// Validate checks the configuration for errors, reporting all of them.
func (c *Config) Validate() error {
	var errs []error

	if c.Daemon.IdleTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("daemon.idle_timeout_seconds must be positive, got %d", c.Daemon.IdleTimeoutSeconds))
	}

	if !slices.Contains(LogLevels, c.Daemon.LogLevel) {
		errs = append(errs, fmt.Errorf("daemon.log_level must be one of %v, got %q", LogLevels, c.Daemon.LogLevel))
	}

	errs = append(errs, validateTags("tags.enable", c.Tags.Enable)...)
	errs = append(errs, validateTags("tags.disable", c.Tags.Disable)...)

	for event, handlers := range c.Handlers {
		if _, err := hook.ParseEventType(event); err != nil {
			errs = append(errs, fmt.Errorf("handlers: %w", err))
			continue
		}
		for _, entry := range handlers {
			prefix := fmt.Sprintf("handlers.%s.%s", event, entry.ID)
			if entry.ID == "" {
				errs = append(errs, fmt.Errorf("handlers.%s: handler ID must not be empty", event))
			}
			errs = append(errs, validateTags(prefix+".tags", entry.Tags)...)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateTags(field string, tags []string) []error {
	var errs []error
	for i, tag := range tags {
		if tag == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: tag must not be empty", field, i))
		}
	}
	return errs
}
