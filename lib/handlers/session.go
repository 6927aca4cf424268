// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/hook"
	"github.com/bureau-foundation/hookd/lib/identity"
)

type sessionContextOptions struct {
	// Lines are added verbatim to the session's context.
	Lines []string `yaml:"lines"`

	// IncludeIdentity adds the project root and host lines.
	IncludeIdentity bool `yaml:"include_identity"`
}

// sessionContext seeds a new session with project facts.
type sessionContext struct {
	hook.Base
	lines []string
}

func sessionContextFactory() Factory {
	return Factory{
		ID:       "session-context",
		Events:   []hook.EventType{hook.SessionStart},
		Priority: 50,
		Tags:     []string{"context"},
		New: func(base hook.Base, options config.Options, build BuildContext) (hook.Handler, error) {
			decoded := sessionContextOptions{IncludeIdentity: true}
			if err := options.Decode(&decoded); err != nil {
				return nil, err
			}
			return &sessionContext{Base: base, lines: sessionLines(decoded, build.Identity)}, nil
		},
	}
}

func sessionLines(options sessionContextOptions, id identity.Identity) []string {
	lines := make([]string, 0, len(options.Lines)+2)
	lines = append(lines, options.Lines...)
	if options.IncludeIdentity {
		if id.ProjectRoot != "" {
			lines = append(lines, "Project root: "+id.ProjectRoot)
		}
		if id.Hostname != "" {
			lines = append(lines, "Host: "+id.Hostname)
		}
	}
	return lines
}

func (h *sessionContext) Matches(hook.Event) bool { return len(h.lines) > 0 }

func (h *sessionContext) Handle(hook.Event) (hook.PartialResult, error) {
	return hook.Allowed(h.lines...), nil
}
