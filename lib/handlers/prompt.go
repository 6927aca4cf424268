// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"fmt"
	"regexp"

	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/hook"
)

type promptGuardOptions struct {
	// Patterns are Go regular expressions matched against the prompt.
	Patterns []string `yaml:"patterns"`

	// Reason is shown to the user when a prompt is blocked.
	Reason string `yaml:"reason"`
}

// promptGuard blocks prompts matching configured patterns, such as
// pasted credentials.
type promptGuard struct {
	hook.Base
	patterns []*regexp.Regexp
	reason   string
}

func promptGuardFactory() Factory {
	return Factory{
		ID:       "prompt-guard",
		Events:   []hook.EventType{hook.UserPromptSubmit},
		Priority: 10,
		Terminal: true,
		Tags:     []string{"safety"},
		New: func(base hook.Base, options config.Options, _ BuildContext) (hook.Handler, error) {
			decoded := promptGuardOptions{Reason: "Prompt blocked by policy."}
			if err := options.Decode(&decoded); err != nil {
				return nil, err
			}
			compiled := make([]*regexp.Regexp, 0, len(decoded.Patterns))
			for i, pattern := range decoded.Patterns {
				expression, err := regexp.Compile(pattern)
				if err != nil {
					return nil, fmt.Errorf("options.patterns[%d]: %w", i, err)
				}
				compiled = append(compiled, expression)
			}
			return &promptGuard{Base: base, patterns: compiled, reason: decoded.Reason}, nil
		},
	}
}

func (h *promptGuard) Matches(event hook.Event) bool {
	return h.match(event.Get("prompt").String()) != nil
}

func (h *promptGuard) Handle(event hook.Event) (hook.PartialResult, error) {
	expression := h.match(event.Get("prompt").String())
	if expression == nil {
		return hook.Allowed(), nil
	}
	return hook.Denied(h.reason, fmt.Sprintf("Matched pattern %q.", expression.String())), nil
}

func (h *promptGuard) match(prompt string) *regexp.Regexp {
	if prompt == "" {
		return nil
	}
	for _, expression := range h.patterns {
		if expression.MatchString(prompt) {
			return expression
		}
	}
	return nil
}
