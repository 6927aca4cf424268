// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"strings"

	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/hook"
)

type stopGuardOptions struct {
	// RequireMarker must appear in the agent's final message for it to
	// be allowed to stop. Empty disables the guard.
	RequireMarker string `yaml:"require_marker"`

	// Reason is returned to the agent when the stop is blocked.
	Reason string `yaml:"reason"`
}

// stopGuard keeps the agent working until its final message carries a
// completion marker. A stop already continued once by a hook
// (stop_hook_active) is always allowed so the agent cannot loop.
type stopGuard struct {
	hook.Base
	marker string
	reason string
}

func stopGuardFactory() Factory {
	return Factory{
		ID:       "stop-guard",
		Events:   []hook.EventType{hook.Stop, hook.SubagentStop},
		Priority: 10,
		Terminal: true,
		Tags:     []string{"workflow"},
		New: func(base hook.Base, options config.Options, _ BuildContext) (hook.Handler, error) {
			var decoded stopGuardOptions
			if err := options.Decode(&decoded); err != nil {
				return nil, err
			}
			if decoded.Reason == "" && decoded.RequireMarker != "" {
				decoded.Reason = "Work is not finished: the final message must include " + decoded.RequireMarker + "."
			}
			return &stopGuard{Base: base, marker: decoded.RequireMarker, reason: decoded.Reason}, nil
		},
	}
}

func (h *stopGuard) Matches(event hook.Event) bool {
	if h.marker == "" || event.Get("stop_hook_active").Bool() {
		return false
	}
	return !strings.Contains(event.Get("last_assistant_message").String(), h.marker)
}

func (h *stopGuard) Handle(hook.Event) (hook.PartialResult, error) {
	return hook.Denied(h.reason), nil
}
