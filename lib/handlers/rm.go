// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/hook"
)

// protectedTargets are rm targets that are never legitimate for a
// recursive delete from an agent. Compared after path.Clean.
var protectedTargets = []string{
	"/", "/*",
	"~", "~/*",
	"$HOME", "${HOME}", "$HOME/*", "${HOME}/*",
	".", "..", "./*", "../*",
	"*",
}

type dangerousRmOptions struct {
	// Protected adds targets to the built-in list.
	Protected []string `yaml:"protected"`
}

// dangerousRm denies recursive rm of the filesystem root, the home
// directory, the working directory, its parent, or a bare glob.
type dangerousRm struct {
	hook.Base
	protected []string
}

func dangerousRmFactory() Factory {
	return Factory{
		ID:       "dangerous-rm",
		Events:   []hook.EventType{hook.PreToolUse},
		Priority: 20,
		Terminal: true,
		Tags:     []string{"safety"},
		New: func(base hook.Base, options config.Options, _ BuildContext) (hook.Handler, error) {
			var decoded dangerousRmOptions
			if err := options.Decode(&decoded); err != nil {
				return nil, err
			}
			protected := slices.Clone(protectedTargets)
			for _, target := range decoded.Protected {
				protected = append(protected, normalizeTarget(target))
			}
			return &dangerousRm{Base: base, protected: protected}, nil
		},
	}
}

func (h *dangerousRm) Matches(event hook.Event) bool {
	_, found := h.find(event)
	return found
}

func (h *dangerousRm) Handle(event hook.Event) (hook.PartialResult, error) {
	target, found := h.find(event)
	if !found {
		return hook.Allowed(), nil
	}
	return hook.Denied(
		fmt.Sprintf("Blocked recursive rm of %q.", target),
		"Delete specific paths inside the project instead.",
	), nil
}

// find returns the first protected target of a recursive rm.
func (h *dangerousRm) find(event hook.Event) (string, bool) {
	if event.ToolName() != "Bash" {
		return "", false
	}
	for _, segment := range splitCommand(event.Get("tool_input.command").String()) {
		program, args := commandWords(segment)
		if program != "rm" {
			continue
		}
		recursive := false
		var targets []string
		endOfOptions := false
		for _, arg := range args {
			switch {
			case endOfOptions:
				targets = append(targets, arg)
			case arg == "--":
				endOfOptions = true
			case arg == "--recursive":
				recursive = true
			case strings.HasPrefix(arg, "--"):
			case shortFlagCluster(arg, "rR"):
				recursive = true
			case strings.HasPrefix(arg, "-") && len(arg) > 1:
			default:
				targets = append(targets, arg)
			}
		}
		if !recursive {
			continue
		}
		for _, target := range targets {
			if slices.Contains(h.protected, normalizeTarget(target)) {
				return target, true
			}
		}
	}
	return "", false
}

// normalizeTarget cleans a path lexically ("~/" becomes "~", "//"
// becomes "/", "./*" becomes "*"). Variables are not expanded.
func normalizeTarget(target string) string {
	if target == "" {
		return target
	}
	return path.Clean(target)
}
